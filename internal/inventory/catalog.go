package inventory

import (
	"context"
	"strings"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperr"
)

const stockColumns = `m.id AS medicine_id, m.name, m.manufacturer, m.cost_price,
                s.batch_no, s.quantity, s.expiry_date, s.category, s.batch_price`

// ListStock returns every medicine joined with its batches. A non-empty query
// filters by case-insensitive name match.
func (l *Ledger) ListStock(ctx context.Context, query string) ([]domain.MedicineStock, error) {
	sqlQuery := `SELECT ` + stockColumns + ` FROM medicines m JOIN stock s ON s.medicine_id = m.id`
	var args []any
	if query = strings.TrimSpace(query); query != "" {
		sqlQuery += ` WHERE LOWER(m.name) LIKE ?`
		args = append(args, "%"+strings.ToLower(query)+"%")
	}
	sqlQuery += ` ORDER BY m.name, m.id, s.batch_no`

	rows := []domain.MedicineStock{}
	if err := l.db.SelectContext(ctx, &rows, l.db.Rebind(sqlQuery), args...); err != nil {
		return nil, apperr.Storage("unable to list medicines", err)
	}
	return rows, nil
}

// ListExpired returns batches whose expiry date is before today.
func (l *Ledger) ListExpired(ctx context.Context) ([]domain.MedicineStock, error) {
	rows := []domain.MedicineStock{}
	query := `SELECT ` + stockColumns + ` FROM medicines m JOIN stock s ON s.medicine_id = m.id
                WHERE s.expiry_date < ?
                ORDER BY s.expiry_date, m.id, s.batch_no`
	if err := l.db.SelectContext(ctx, &rows, l.db.Rebind(query), l.Today()); err != nil {
		return nil, apperr.Storage("unable to list expired medicines", err)
	}
	return rows, nil
}

// ListExpiring returns batches with stock left that expire within days from
// today, already expired ones included.
func (l *Ledger) ListExpiring(ctx context.Context, days int) ([]domain.MedicineStock, error) {
	if days <= 0 {
		return nil, apperr.Validation("days must be greater than zero")
	}
	rows := []domain.MedicineStock{}
	query := `SELECT ` + stockColumns + ` FROM medicines m JOIN stock s ON s.medicine_id = m.id
                WHERE s.expiry_date IS NOT NULL AND s.expiry_date <= ? AND s.quantity > 0
                ORDER BY s.expiry_date, m.id, s.batch_no`
	if err := l.db.SelectContext(ctx, &rows, l.db.Rebind(query), l.Today().AddDays(days)); err != nil {
		return nil, apperr.Storage("unable to fetch expiry alerts", err)
	}
	return rows, nil
}

// Batches returns all batches of one medicine.
func (l *Ledger) Batches(ctx context.Context, medicineID int64) ([]domain.StockBatch, error) {
	batches := []domain.StockBatch{}
	query := `SELECT ` + batchColumns + ` FROM stock WHERE medicine_id = ? ORDER BY batch_no`
	if err := l.db.SelectContext(ctx, &batches, l.db.Rebind(query), medicineID); err != nil {
		return nil, apperr.Storage("unable to fetch medicine stock", err)
	}
	if len(batches) == 0 {
		return nil, apperr.NotFound("MEDICINE_NOT_FOUND", "no stock found for medicine %d", medicineID)
	}
	return batches, nil
}

func (l *Ledger) ListDisposals(ctx context.Context) ([]domain.Disposal, error) {
	disposals := []domain.Disposal{}
	query := `SELECT d.medicine_id, m.name, d.quantity FROM disposals d
                JOIN medicines m ON m.id = d.medicine_id
                ORDER BY d.medicine_id`
	if err := l.db.SelectContext(ctx, &disposals, query); err != nil {
		return nil, apperr.Storage("unable to list disposals", err)
	}
	return disposals, nil
}

// DisposedQuantity returns the disposal total for one medicine, zero if none.
func (l *Ledger) DisposedQuantity(ctx context.Context, medicineID int64) (int64, error) {
	var qty int64
	query := `SELECT COALESCE(SUM(quantity), 0) FROM disposals WHERE medicine_id = ?`
	if err := l.db.GetContext(ctx, &qty, l.db.Rebind(query), medicineID); err != nil {
		return 0, apperr.Storage("unable to read disposal", err)
	}
	return qty, nil
}
