package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/customers"
	"pharmacy/m/internal/database"
	"pharmacy/m/internal/database/databasetest"
	"pharmacy/m/internal/inventory"
	"pharmacy/m/internal/locks"
)

type fixture struct {
	db          *database.DB
	ledger      *inventory.Ledger
	coordinator *Coordinator
	bills       *Bills
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := databasetest.New(t)
	logger, _ := test.NewNullLogger()
	clock := func() time.Time { return time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC) }
	ledger := inventory.NewLedger(db, logger, inventory.WithClock(clock))
	resolver := customers.NewResolver(db, false)

	databasetest.Exec(t, db, `INSERT INTO employees (id, name, role, salary) VALUES (1, 'John Doe', 'Pharmacist', 50000)`)
	databasetest.Exec(t, db, `INSERT INTO medicines (id, name, manufacturer, cost_price) VALUES (1, 'Paracetamol', 'ABC Pharma', 5.00)`)
	databasetest.Exec(t, db, `INSERT INTO medicines (id, name, manufacturer, cost_price) VALUES (2, 'Amoxicillin', 'XYZ Labs', 12.50)`)
	databasetest.Exec(t, db, `INSERT INTO medicines (id, name, manufacturer, cost_price) VALUES (3, 'Ibuprofen', 'MediCorp', 8.75)`)
	databasetest.Exec(t, db, `INSERT INTO stock (medicine_id, batch_no, quantity, expiry_date) VALUES (1, 'P1', 100, '2027-12-31')`)
	databasetest.Exec(t, db, `INSERT INTO stock (medicine_id, batch_no, quantity, expiry_date) VALUES (2, 'A1', 50, '2027-06-30')`)
	databasetest.Exec(t, db, `INSERT INTO stock (medicine_id, batch_no, quantity, expiry_date) VALUES (3, 'I1', 30, '2027-12-31')`)

	return &fixture{
		db:          db,
		ledger:      ledger,
		coordinator: NewCoordinator(db, ledger, resolver, locks.NewLocal(), logger),
		bills:       NewBills(db),
	}
}

func (f *fixture) stock(t *testing.T, medID int64) int64 {
	t.Helper()
	var qty int64
	require.NoError(t, f.db.Get(&qty, f.db.Rebind(`SELECT COALESCE(SUM(quantity), 0) FROM stock WHERE medicine_id = ?`), medID))
	return qty
}

func (f *fixture) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func order(phone string, items ...Item) Request {
	return Request{
		Customer:   customers.Details{Name: "Test Customer", Phone: phone},
		Items:      items,
		EmployeeID: 1,
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.coordinator.PlaceOrder(ctx, order("0171", Item{MedicineID: 1, Quantity: 2}))
	require.NoError(t, err)

	assert.Positive(t, receipt.BillNo)
	assert.Positive(t, receipt.CustomerID)
	assert.True(t, receipt.Total.Equal(decimal.RequireFromString("10.00")), "total %s", receipt.Total)
	assert.Equal(t, int64(98), f.stock(t, 1))

	bill, err := f.bills.Get(ctx, receipt.BillNo)
	require.NoError(t, err)
	assert.True(t, bill.TotalAmount.Equal(receipt.Total))
	require.Len(t, bill.Items, 1)
	assert.Equal(t, "Paracetamol", bill.Items[0].MedicineName)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.PlaceOrder(context.Background(), order("0171", Item{MedicineID: 3, Quantity: 1000}))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "INSUFFICIENT_STOCK", apperr.CodeOf(err))

	assert.Equal(t, int64(30), f.stock(t, 3))
	assert.Zero(t, f.count(t, "bills"))
	assert.Zero(t, f.count(t, "customers"), "the new customer is rolled back too")
}

func TestPlaceOrder_UnknownMedicine(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.PlaceOrder(context.Background(), order("0171", Item{MedicineID: 9999, Quantity: 1}))
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "MEDICINE_NOT_FOUND", apperr.CodeOf(err))
	assert.Zero(t, f.count(t, "bills"))
	assert.Zero(t, f.count(t, "bill_items"))
}

func TestPlaceOrder_LastItemFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.PlaceOrder(context.Background(), order("0171",
		Item{MedicineID: 1, Quantity: 5},
		Item{MedicineID: 2, Quantity: 5},
		Item{MedicineID: 3, Quantity: 31},
	))
	require.Error(t, err)
	assert.Equal(t, "INSUFFICIENT_STOCK", apperr.CodeOf(err))

	assert.Equal(t, int64(100), f.stock(t, 1))
	assert.Equal(t, int64(50), f.stock(t, 2))
	assert.Equal(t, int64(30), f.stock(t, 3))
	assert.Zero(t, f.count(t, "bills"))
	assert.Zero(t, f.count(t, "bill_items"))
}

func TestPlaceOrder_ReusesCustomerByPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.coordinator.PlaceOrder(ctx, order("0171", Item{MedicineID: 1, Quantity: 1}))
	require.NoError(t, err)
	second, err := f.coordinator.PlaceOrder(ctx, order("0171", Item{MedicineID: 2, Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, first.CustomerID, second.CustomerID)
	assert.NotEqual(t, first.BillNo, second.BillNo)
	assert.Equal(t, int64(1), f.count(t, "customers"))
}

func TestPlaceOrder_TotalMatchesLineItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.coordinator.PlaceOrder(ctx, order("0171",
		Item{MedicineID: 1, Quantity: 3},
		Item{MedicineID: 2, Quantity: 2},
		Item{MedicineID: 1, Quantity: 1},
	))
	require.NoError(t, err)
	// 3*5.00 + 2*12.50 + 1*5.00
	assert.True(t, receipt.Total.Equal(decimal.RequireFromString("45")), "total %s", receipt.Total)

	bill, err := f.bills.Get(ctx, receipt.BillNo)
	require.NoError(t, err)
	require.Len(t, bill.Items, 3, "repeated medicines stay separate lines")

	sum := decimal.Zero
	for _, it := range bill.Items {
		sum = sum.Add(it.Subtotal())
	}
	assert.True(t, sum.Equal(bill.TotalAmount), "items %s, total %s", sum, bill.TotalAmount)
	assert.Equal(t, int64(96), f.stock(t, 1))
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"no phone", Request{Items: []Item{{MedicineID: 1, Quantity: 1}}, EmployeeID: 1}},
		{"no items", order("0171")},
		{"zero qty", order("0171", Item{MedicineID: 1, Quantity: 0})},
		{"no employee", Request{Customer: customers.Details{Phone: "1"}, Items: []Item{{MedicineID: 1, Quantity: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.coordinator.PlaceOrder(context.Background(), tt.req)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
	assert.Zero(t, f.count(t, "bills"))
}

func TestPlaceOrder_UnknownEmployee(t *testing.T) {
	f := newFixture(t)
	req := order("0171", Item{MedicineID: 1, Quantity: 1})
	req.EmployeeID = 42

	_, err := f.coordinator.PlaceOrder(context.Background(), req)
	assert.Equal(t, "EMPLOYEE_NOT_FOUND", apperr.CodeOf(err))
	assert.Zero(t, f.count(t, "customers"))
	assert.Equal(t, int64(100), f.stock(t, 1))
}

func TestPlaceOrder_ConcurrentSamePhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coordinator.PlaceOrder(ctx, order("0555", Item{MedicineID: 3, Quantity: 5}))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, short int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.CodeOf(err) == "INSUFFICIENT_STOCK":
			short++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 6, ok, "30 units cover six orders of 5")
	assert.Equal(t, 2, short)
	assert.Equal(t, int64(0), f.stock(t, 3))
	assert.Equal(t, int64(1), f.count(t, "customers"))
	assert.Equal(t, int64(6), f.count(t, "bills"))
}

func TestPlaceOrder_ExpiredBatchSoldAndRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	databasetest.Exec(t, f.db, `INSERT INTO medicines (id, name, cost_price) VALUES (4, 'Old Syrup', 2)`)
	databasetest.Exec(t, f.db, `INSERT INTO stock (medicine_id, batch_no, quantity, expiry_date) VALUES (4, 'S1', 10, '2024-01-01')`)

	_, err := f.coordinator.PlaceOrder(ctx, order("0171", Item{MedicineID: 4, Quantity: 3}))
	require.NoError(t, err)

	disposed, err := f.ledger.DisposedQuantity(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(7), disposed, "the units left in the expired batch are recorded")
	assert.Equal(t, int64(7), f.stock(t, 4))
}
