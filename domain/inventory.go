package domain

import "github.com/shopspring/decimal"

// StockBatch is keyed by (MedicineID, BatchNo). Quantity never goes below zero.
type StockBatch struct {
	MedicineID int64           `db:"medicine_id" json:"medId"`
	BatchNo    string          `db:"batch_no" json:"batchNo"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	ExpiryDate Date            `db:"expiry_date" json:"expiryDate"`
	Category   string          `db:"category" json:"category"`
	BatchPrice decimal.Decimal `db:"batch_price" json:"batchPrice"`
}

// Expired reports whether the batch expiry date lies strictly before today.
func (b StockBatch) Expired(today Date) bool {
	return !b.ExpiryDate.IsZero() && b.ExpiryDate.Before(today)
}

// Disposal is the running total of quantity written off for a medicine.
type Disposal struct {
	MedicineID   int64  `db:"medicine_id" json:"medId"`
	MedicineName string `db:"name" json:"name"`
	Quantity     int64  `db:"quantity" json:"quantity"`
}
