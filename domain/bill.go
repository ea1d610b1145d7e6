package domain

import "github.com/shopspring/decimal"

type Bill struct {
	ID          int64           `db:"id" json:"billNo"`
	CustomerID  int64           `db:"customer_id" json:"customerId"`
	EmployeeID  int64           `db:"employee_id" json:"employeeId"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"totalAmount"`
	CreatedAt   string          `db:"created_at" json:"createdAt"`
	Items       []BillItem      `db:"-" json:"items,omitempty"`
}

type BillItem struct {
	ID           int64           `db:"id" json:"id"`
	BillID       int64           `db:"bill_id" json:"billNo"`
	MedicineID   int64           `db:"medicine_id" json:"medId"`
	MedicineName string          `db:"name" json:"name,omitempty"`
	Quantity     int64           `db:"quantity" json:"qty"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unitPrice"`
}

// Subtotal is quantity times unit price.
func (i BillItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}
