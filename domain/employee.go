package domain

import "github.com/shopspring/decimal"

type Employee struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Gender    string          `json:"gender,omitempty" db:"gender"`
	Age       *int64          `json:"age,omitempty" db:"age"`
	StartDate Date            `json:"startDate" db:"start_date"`
	Role      string          `json:"role,omitempty" db:"role"`
	Salary    decimal.Decimal `json:"salary" db:"salary"`
	Phones    []string        `json:"phones" db:"-"`
}
