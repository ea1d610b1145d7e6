// Package inventory owns the stock batches: reads, guarded quantity changes
// and the disposal bookkeeping that follows writes to expired batches.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/database"
)

type Action string

const (
	ActionAdd     Action = "add"
	ActionDispose Action = "dispose"
)

const batchColumns = `medicine_id, batch_no, quantity, expiry_date, category, batch_price`

// Ledger is the only writer of stock quantities and disposal totals.
type Ledger struct {
	db  *database.DB
	log logrus.FieldLogger
	now func() time.Time
}

type Option func(*Ledger)

// WithClock replaces time.Now when deciding whether a batch has expired.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(db *database.DB, logger logrus.FieldLogger, opts ...Option) *Ledger {
	l := &Ledger{db: db, log: logger.WithField("module", "inventory"), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Today() domain.Date {
	return domain.DateOf(l.now())
}

// CostPrice returns the unit price charged for a medicine.
func (l *Ledger) CostPrice(ctx context.Context, tx *database.Tx, medicineID int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := tx.GetContext(ctx, &price, tx.Rebind(`SELECT cost_price FROM medicines WHERE id = ?`), medicineID)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, apperr.NotFound("MEDICINE_NOT_FOUND", "medicine with id %d not found", medicineID).
			With("medId", medicineID)
	}
	if err != nil {
		return decimal.Zero, apperr.Storage("unable to look up medicine price", err)
	}
	return price, nil
}

// LockBatches reads every batch of a medicine, earliest expiry first, locking
// the rows until tx ends.
func (l *Ledger) LockBatches(ctx context.Context, tx *database.Tx, medicineID int64) ([]domain.StockBatch, error) {
	var batches []domain.StockBatch
	query := `SELECT ` + batchColumns + ` FROM stock WHERE medicine_id = ?
                ORDER BY CASE WHEN expiry_date IS NULL THEN 1 ELSE 0 END, expiry_date, batch_no` + tx.ForUpdate()
	if err := tx.SelectContext(ctx, &batches, tx.Rebind(query), medicineID); err != nil {
		return nil, apperr.Storage("unable to read stock", err)
	}
	return batches, nil
}

// Available sums the quantity of the given batches.
func Available(batches []domain.StockBatch) int64 {
	var total int64
	for _, b := range batches {
		total += b.Quantity
	}
	return total
}

// Withdraw removes qty units across batches in the order given, which callers
// obtain from LockBatches. Nothing is written when the batches hold too little.
func (l *Ledger) Withdraw(ctx context.Context, tx *database.Tx, medicineID int64, batches []domain.StockBatch, qty int64) error {
	if available := Available(batches); available < qty {
		return insufficientStock(medicineID, qty, available)
	}

	remaining := qty
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		if b.Quantity == 0 {
			continue
		}
		take := min(b.Quantity, remaining)
		if err := l.setQuantity(ctx, tx, b, b.Quantity-take); err != nil {
			return err
		}
		remaining -= take
	}
	return nil
}

func insufficientStock(medicineID, requested, available int64) *apperr.Error {
	return apperr.Conflict("INSUFFICIENT_STOCK",
		"insufficient stock for medicine id %d: requested %d, available %d", medicineID, requested, available).
		With("medId", medicineID).
		With("requested", requested).
		With("available", available)
}

// Adjust applies an administrative add or dispose to one batch and returns the
// new quantity. Dispose also adds the disposed amount to the medicine's disposal total.
func (l *Ledger) Adjust(ctx context.Context, medicineID int64, batchNo string, qty int64, action Action) (int64, error) {
	batchNo = strings.TrimSpace(batchNo)
	if batchNo == "" {
		return 0, apperr.Validation("batchNo is required")
	}
	if qty <= 0 {
		return 0, apperr.Validation("qty must be greater than zero")
	}
	if action != ActionAdd && action != ActionDispose {
		return 0, apperr.Validation("action must be %q or %q", ActionAdd, ActionDispose)
	}

	var newQty int64
	err := l.db.InTx(ctx, func(tx *database.Tx) error {
		b, err := l.lockBatch(ctx, tx, medicineID, batchNo)
		if err != nil {
			return err
		}

		switch action {
		case ActionAdd:
			newQty = b.Quantity + qty
		case ActionDispose:
			if b.Quantity < qty {
				return apperr.Conflict("INSUFFICIENT_QUANTITY",
					"cannot dispose %d units from batch %s: only %d available", qty, batchNo, b.Quantity).
					With("available", b.Quantity)
			}
			newQty = b.Quantity - qty
		}

		if err := l.setQuantity(ctx, tx, b, newQty); err != nil {
			return err
		}
		if action == ActionDispose {
			return l.addDisposal(ctx, tx, medicineID, qty)
		}
		return nil
	})
	if err != nil {
		return 0, apperr.Wrap(err, "unable to adjust stock")
	}
	return newQty, nil
}

// NewStock describes a batch delivered for a medicine identified by name and
// manufacturer. CostPrice is required for a new medicine; on replenish a nil
// CostPrice or zero Expiry keeps the stored value.
type NewStock struct {
	Name         string
	Manufacturer string
	Expiry       domain.Date
	CostPrice    *decimal.Decimal
	BatchNo      string
	Quantity     int64
	Category     string
	BatchPrice   decimal.Decimal
}

// AddMedicine finds or creates the medicine, then inserts the batch or tops up
// an existing batch with the same number. Returns the medicine id.
func (l *Ledger) AddMedicine(ctx context.Context, in NewStock) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.BatchNo = strings.TrimSpace(in.BatchNo)
	switch {
	case in.Name == "":
		return 0, apperr.Validation("name is required")
	case in.BatchNo == "":
		return 0, apperr.Validation("batchNo is required")
	case in.Quantity <= 0:
		return 0, apperr.Validation("qty must be greater than zero")
	case (in.CostPrice != nil && in.CostPrice.IsNegative()) || in.BatchPrice.IsNegative():
		return 0, apperr.Validation("prices cannot be negative")
	}

	var medicineID int64
	err := l.db.InTx(ctx, func(tx *database.Tx) error {
		err := tx.GetContext(ctx, &medicineID,
			tx.Rebind(`SELECT id FROM medicines WHERE name = ? AND manufacturer = ? ORDER BY id LIMIT 1`+tx.ForUpdate()),
			in.Name, in.Manufacturer)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if in.CostPrice == nil {
				return apperr.Validation("cost is required for a new medicine")
			}
			medicineID, err = tx.InsertID(ctx, `INSERT INTO medicines (name, manufacturer, expiry_date, cost_price) VALUES (?, ?, ?, ?)`,
				in.Name, in.Manufacturer, in.Expiry, *in.CostPrice)
			if err != nil {
				return apperr.Storage("unable to create medicine", err)
			}
		case err != nil:
			return apperr.Storage("unable to look up medicine", err)
		default:
			if err := l.updateMedicine(ctx, tx, medicineID, in); err != nil {
				return err
			}
		}

		b, err := l.lockBatch(ctx, tx, medicineID, in.BatchNo)
		if apperr.KindOf(err) == apperr.KindNotFound {
			_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO stock (`+batchColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
				medicineID, in.BatchNo, in.Quantity, in.Expiry, in.Category, in.BatchPrice)
			if err != nil {
				return apperr.Storage("unable to create batch", err)
			}
			return nil
		}
		if err != nil {
			return err
		}
		return l.setQuantity(ctx, tx, b, b.Quantity+in.Quantity)
	})
	if err != nil {
		return 0, apperr.Wrap(err, "unable to add medicine")
	}
	return medicineID, nil
}

// updateMedicine refreshes the catalog price and expiry with whatever the
// delivery supplied.
func (l *Ledger) updateMedicine(ctx context.Context, tx *database.Tx, medicineID int64, in NewStock) error {
	var (
		sets []string
		args []any
	)
	if in.CostPrice != nil {
		sets, args = append(sets, "cost_price = ?"), append(args, *in.CostPrice)
	}
	if !in.Expiry.IsZero() {
		sets, args = append(sets, "expiry_date = ?"), append(args, in.Expiry)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, medicineID)
	query := `UPDATE medicines SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return apperr.Storage("unable to update medicine", err)
	}
	return nil
}

func (l *Ledger) lockBatch(ctx context.Context, tx *database.Tx, medicineID int64, batchNo string) (domain.StockBatch, error) {
	var b domain.StockBatch
	err := tx.GetContext(ctx, &b,
		tx.Rebind(`SELECT `+batchColumns+` FROM stock WHERE medicine_id = ? AND batch_no = ?`+tx.ForUpdate()),
		medicineID, batchNo)
	if errors.Is(err, sql.ErrNoRows) {
		return b, apperr.NotFound("BATCH_NOT_FOUND", "batch %s of medicine %d not found", batchNo, medicineID)
	}
	if err != nil {
		return b, apperr.Storage("unable to read batch", err)
	}
	return b, nil
}

// setQuantity is the single write path for stock quantities. It rejects
// negative results and then runs the expiry rule for the batch.
func (l *Ledger) setQuantity(ctx context.Context, tx *database.Tx, b domain.StockBatch, newQty int64) error {
	if newQty < 0 {
		return insufficientStock(b.MedicineID, b.Quantity-newQty, b.Quantity)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE stock SET quantity = ? WHERE medicine_id = ? AND batch_no = ?`),
		newQty, b.MedicineID, b.BatchNo); err != nil {
		return apperr.Storage("unable to update stock", err)
	}
	b.Quantity = newQty
	return l.afterStockUpdate(ctx, tx, b)
}

// afterStockUpdate merges the full new quantity of an expired batch into the
// medicine's disposal total. Only updates trigger it: inserts and the mere
// passage of time do not. Every update adds the whole remaining quantity
// again, so repeated sales from one expired batch can push the disposal
// total past what the batch ever held.
func (l *Ledger) afterStockUpdate(ctx context.Context, tx *database.Tx, b domain.StockBatch) error {
	if b.Quantity == 0 || !b.Expired(l.Today()) {
		return nil
	}
	l.log.WithFields(logrus.Fields{
		"medId":    b.MedicineID,
		"batchNo":  b.BatchNo,
		"expiry":   b.ExpiryDate.String(),
		"quantity": b.Quantity,
	}).Info("expired batch updated, recording disposal")
	return l.addDisposal(ctx, tx, b.MedicineID, b.Quantity)
}

func (l *Ledger) addDisposal(ctx context.Context, tx *database.Tx, medicineID, qty int64) error {
	var query string
	if tx.Dialect == database.MySQL {
		query = `INSERT INTO disposals (medicine_id, quantity) VALUES (?, ?)
                ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`
	} else {
		query = `INSERT INTO disposals (medicine_id, quantity) VALUES (?, ?)
                ON CONFLICT (medicine_id) DO UPDATE SET quantity = disposals.quantity + excluded.quantity`
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), medicineID, qty); err != nil {
		return apperr.Storage("unable to record disposal", err)
	}
	return nil
}
