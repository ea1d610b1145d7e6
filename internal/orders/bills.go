package orders

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/database"
)

const billColumns = `id, customer_id, employee_id, total_amount, created_at`

// Bills reads committed bills.
type Bills struct {
	db  *database.DB
	now func() time.Time
}

func NewBills(db *database.DB) *Bills {
	return &Bills{db: db, now: time.Now}
}

// BillFilter narrows ListBills. Zero values are ignored; dates are inclusive.
type BillFilter struct {
	CustomerID int64
	StartDate  domain.Date
	EndDate    domain.Date
	WithItems  bool
}

// Get returns a bill header with its line items.
func (b *Bills) Get(ctx context.Context, billNo int64) (*domain.Bill, error) {
	var bill domain.Bill
	err := b.db.GetContext(ctx, &bill, b.db.Rebind(`SELECT `+billColumns+` FROM bills WHERE id = ?`), billNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("BILL_NOT_FOUND", "bill %d not found", billNo)
	}
	if err != nil {
		return nil, apperr.Storage("unable to fetch bill", err)
	}

	items, err := b.items(ctx, []int64{billNo})
	if err != nil {
		return nil, err
	}
	bill.Items = items[billNo]
	if bill.Items == nil {
		bill.Items = []domain.BillItem{}
	}
	return &bill, nil
}

// List returns bill headers, newest first.
func (b *Bills) List(ctx context.Context, f BillFilter) ([]domain.Bill, error) {
	var (
		args    []any
		clauses []string
	)
	if f.CustomerID > 0 {
		args = append(args, f.CustomerID)
		clauses = append(clauses, "customer_id = ?")
	}
	if !f.StartDate.IsZero() {
		args = append(args, f.StartDate)
		clauses = append(clauses, "DATE(created_at) >= ?")
	}
	if !f.EndDate.IsZero() {
		args = append(args, f.EndDate)
		clauses = append(clauses, "DATE(created_at) <= ?")
	}

	query := `SELECT ` + billColumns + ` FROM bills`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"

	bills := []domain.Bill{}
	if err := b.db.SelectContext(ctx, &bills, b.db.Rebind(query), args...); err != nil {
		return nil, apperr.Storage("unable to list bills", err)
	}
	if !f.WithItems || len(bills) == 0 {
		return bills, nil
	}

	ids := make([]int64, len(bills))
	for i, bill := range bills {
		ids[i] = bill.ID
	}
	items, err := b.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		bills[i].Items = items[bills[i].ID]
	}
	return bills, nil
}

func (b *Bills) items(ctx context.Context, billNos []int64) (map[int64][]domain.BillItem, error) {
	query, args, err := sqlx.In(`SELECT bi.id, bi.bill_id, bi.medicine_id, m.name, bi.quantity, bi.unit_price
                FROM bill_items bi
                JOIN medicines m ON m.id = bi.medicine_id
                WHERE bi.bill_id IN (?)
                ORDER BY bi.bill_id, bi.id`, billNos)
	if err != nil {
		return nil, apperr.Storage("unable to prepare bill items query", err)
	}

	var rows []domain.BillItem
	if err := b.db.SelectContext(ctx, &rows, b.db.Rebind(query), args...); err != nil {
		return nil, apperr.Storage("unable to load bill items", err)
	}
	byBill := make(map[int64][]domain.BillItem)
	for _, row := range rows {
		byBill[row.BillID] = append(byBill[row.BillID], row)
	}
	return byBill, nil
}

type SalesSummary struct {
	Revenue    decimal.Decimal `json:"revenue"`
	SalesCount int64           `json:"salesCount"`
}

// Daily sums today's bills. Days are UTC, matching CURRENT_TIMESTAMP defaults.
func (b *Bills) Daily(ctx context.Context) (SalesSummary, error) {
	today := domain.DateOf(b.now().UTC())
	return b.summary(ctx, "DATE(created_at) = ?", today)
}

// Monthly sums bills since the first day of the current month.
func (b *Bills) Monthly(ctx context.Context) (SalesSummary, error) {
	now := b.now().UTC()
	first := domain.NewDate(now.Year(), now.Month(), 1)
	return b.summary(ctx, "DATE(created_at) >= ?", first)
}

func (b *Bills) summary(ctx context.Context, where string, arg any) (SalesSummary, error) {
	var s SalesSummary
	query := `SELECT COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS count FROM bills WHERE ` + where
	if err := b.db.QueryRowxContext(ctx, b.db.Rebind(query), arg).Scan(&s.Revenue, &s.SalesCount); err != nil {
		return s, apperr.Storage("unable to fetch sales summary", err)
	}
	return s, nil
}
