package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/database/databasetest"
)

func TestBills_GetUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.bills.Get(context.Background(), 404)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "BILL_NOT_FOUND", apperr.CodeOf(err))
}

func TestBills_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	databasetest.Exec(t, f.db, `INSERT INTO customers (id, name, phone) VALUES (1, 'A', '1'), (2, 'B', '2')`)
	databasetest.Exec(t, f.db, `INSERT INTO bills (id, customer_id, employee_id, total_amount, created_at) VALUES
                (1, 1, 1, 10, '2026-01-05 10:00:00'),
                (2, 2, 1, 20, '2026-02-10 11:00:00'),
                (3, 1, 1, 30, '2026-03-01 12:00:00')`)
	databasetest.Exec(t, f.db, `INSERT INTO bill_items (bill_id, medicine_id, quantity, unit_price) VALUES (1, 1, 2, 5), (3, 2, 2, 12.5), (3, 1, 1, 5)`)

	all, err := f.bills.List(ctx, BillFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID, "newest first")
	assert.Nil(t, all[0].Items)

	byCustomer, err := f.bills.List(ctx, BillFilter{CustomerID: 1, WithItems: true})
	require.NoError(t, err)
	require.Len(t, byCustomer, 2)
	assert.Len(t, byCustomer[0].Items, 2)
	assert.Len(t, byCustomer[1].Items, 1)

	ranged, err := f.bills.List(ctx, BillFilter{
		StartDate: domain.NewDate(2026, time.February, 1),
		EndDate:   domain.NewDate(2026, time.March, 1),
	})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, []int64{3, 2}, []int64{ranged[0].ID, ranged[1].ID})

	none, err := f.bills.List(ctx, BillFilter{CustomerID: 99})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestBills_SalesSummaries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	databasetest.Exec(t, f.db, `INSERT INTO customers (id, name, phone) VALUES (1, 'A', '1')`)
	databasetest.Exec(t, f.db, `INSERT INTO bills (customer_id, employee_id, total_amount, created_at) VALUES
                (1, 1, 10.50, '2026-03-15 08:00:00'),
                (1, 1, 4.50, '2026-03-15 18:00:00'),
                (1, 1, 100, '2026-03-02 09:00:00'),
                (1, 1, 1000, '2026-02-28 09:00:00')`)
	f.bills.now = func() time.Time { return time.Date(2026, time.March, 15, 20, 0, 0, 0, time.UTC) }

	daily, err := f.bills.Daily(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), daily.SalesCount)
	assert.True(t, daily.Revenue.Equal(decimal.NewFromInt(15)), "daily revenue %s", daily.Revenue)

	monthly, err := f.bills.Monthly(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), monthly.SalesCount)
	assert.True(t, monthly.Revenue.Equal(decimal.NewFromInt(115)), "monthly revenue %s", monthly.Revenue)
}

func TestBills_DailyEmpty(t *testing.T) {
	f := newFixture(t)

	daily, err := f.bills.Daily(context.Background())
	require.NoError(t, err)
	assert.Zero(t, daily.SalesCount)
	assert.True(t, daily.Revenue.IsZero())
}
