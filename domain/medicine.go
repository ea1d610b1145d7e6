package domain

import "github.com/shopspring/decimal"

// MedicineStock is one medicine joined with one of its batches.
type MedicineStock struct {
	MedicineID   int64           `db:"medicine_id" json:"medId"`
	Name         string          `db:"name" json:"name"`
	Manufacturer string          `db:"manufacturer" json:"manufacturer"`
	CostPrice    decimal.Decimal `db:"cost_price" json:"costPrice"`
	BatchNo      string          `db:"batch_no" json:"batchNo"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	ExpiryDate   Date            `db:"expiry_date" json:"expiryDate"`
	Category     string          `db:"category" json:"category"`
	BatchPrice   decimal.Decimal `db:"batch_price" json:"batchPrice"`
}
