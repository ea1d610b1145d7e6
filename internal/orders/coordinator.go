// Package orders places orders as single transactions and reads bills back.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/customers"
	"pharmacy/m/internal/database"
	"pharmacy/m/internal/inventory"
	"pharmacy/m/internal/locks"
)

type Item struct {
	MedicineID int64
	Quantity   int64
}

type Request struct {
	Customer   customers.Details
	Items      []Item
	EmployeeID int64
}

// Line is one priced line item of a placed order.
type Line struct {
	MedicineID int64           `json:"medId"`
	Quantity   int64           `json:"qty"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type Receipt struct {
	BillNo     int64           `json:"billNo"`
	CustomerID int64           `json:"customerId"`
	Total      decimal.Decimal `json:"total"`
	Items      []Line          `json:"items"`
}

// Coordinator runs customer resolution, pricing, bill writes and stock
// withdrawal in one transaction. Either all of it commits or none of it does.
type Coordinator struct {
	db        *database.DB
	ledger    *inventory.Ledger
	customers *customers.Resolver
	locker    locks.Locker
	log       logrus.FieldLogger
}

func NewCoordinator(db *database.DB, ledger *inventory.Ledger, resolver *customers.Resolver, locker locks.Locker, logger logrus.FieldLogger) *Coordinator {
	return &Coordinator{
		db:        db,
		ledger:    ledger,
		customers: resolver,
		locker:    locker,
		log:       logger.WithField("module", "orders"),
	}
}

func validate(req Request) error {
	if strings.TrimSpace(req.Customer.Phone) == "" {
		return apperr.Validation("customer phone is required")
	}
	if req.EmployeeID <= 0 {
		return apperr.Validation("employeeId is required")
	}
	if len(req.Items) == 0 {
		return apperr.Validation("at least one order item is required")
	}
	for i, item := range req.Items {
		if item.MedicineID <= 0 || item.Quantity <= 0 {
			return apperr.Validation("order item %d needs a medId and a qty greater than zero", i+1)
		}
	}
	return nil
}

// PlaceOrder processes items strictly in submission order. The first item
// that is unknown or short of stock aborts the order and rolls back the
// customer insert, the bill and every earlier line item and withdrawal.
func (c *Coordinator) PlaceOrder(ctx context.Context, req Request) (*Receipt, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// Two orders for a new phone must not both miss the lookup and insert.
	unlock, err := c.locker.Lock(ctx, "customer-phone:"+strings.TrimSpace(req.Customer.Phone))
	if err != nil {
		return nil, apperr.Storage("unable to start order", err)
	}
	defer unlock()

	tx, err := c.db.Begin(ctx)
	if err != nil {
		return nil, apperr.Storage("unable to start order", err)
	}
	defer tx.Rollback()

	customerID, created, err := c.customers.Resolve(ctx, tx, req.Customer)
	if err != nil {
		return nil, err
	}
	if err := c.checkEmployee(ctx, tx, req.EmployeeID); err != nil {
		return nil, err
	}

	billNo, err := tx.InsertID(ctx, `INSERT INTO bills (customer_id, employee_id, total_amount) VALUES (?, ?, ?)`,
		customerID, req.EmployeeID, decimal.Zero)
	if err != nil {
		return nil, apperr.Storage("unable to create bill", err)
	}

	receipt := &Receipt{BillNo: billNo, CustomerID: customerID, Total: decimal.Zero, Items: make([]Line, 0, len(req.Items))}
	for i, item := range req.Items {
		line, err := c.placeItem(ctx, tx, billNo, item)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"medId": item.MedicineID,
				"item":  i + 1,
			}).WithError(err).Info("order rejected, rolling back")
			return nil, err
		}
		receipt.Items = append(receipt.Items, line)
		receipt.Total = receipt.Total.Add(line.Subtotal)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE bills SET total_amount = ? WHERE id = ?`), receipt.Total, billNo); err != nil {
		return nil, apperr.Storage("unable to finalize bill", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Storage("unable to commit order", err)
	}

	c.log.WithFields(logrus.Fields{
		"billNo":          billNo,
		"customerId":      customerID,
		"customerCreated": created,
		"total":           receipt.Total.StringFixed(2),
		"items":           len(receipt.Items),
	}).Info("order placed")
	return receipt, nil
}

// placeItem validates and prices one item against locked stock, then writes
// its line item and withdraws the stock.
func (c *Coordinator) placeItem(ctx context.Context, tx *database.Tx, billNo int64, item Item) (Line, error) {
	price, err := c.ledger.CostPrice(ctx, tx, item.MedicineID)
	if err != nil {
		return Line{}, err
	}
	batches, err := c.ledger.LockBatches(ctx, tx, item.MedicineID)
	if err != nil {
		return Line{}, err
	}
	if err := c.ledger.Withdraw(ctx, tx, item.MedicineID, batches, item.Quantity); err != nil {
		return Line{}, err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO bill_items (bill_id, medicine_id, quantity, unit_price) VALUES (?, ?, ?, ?)`),
		billNo, item.MedicineID, item.Quantity, price); err != nil {
		return Line{}, apperr.Storage("unable to save bill item", err)
	}

	return Line{
		MedicineID: item.MedicineID,
		Quantity:   item.Quantity,
		UnitPrice:  price,
		Subtotal:   price.Mul(decimal.NewFromInt(item.Quantity)),
	}, nil
}

func (c *Coordinator) checkEmployee(ctx context.Context, tx *database.Tx, employeeID int64) error {
	var id int64
	err := tx.GetContext(ctx, &id, tx.Rebind(`SELECT id FROM employees WHERE id = ?`), employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("EMPLOYEE_NOT_FOUND", "employee with id %d not found", employeeID)
	}
	if err != nil {
		return apperr.Storage("unable to look up employee", err)
	}
	return nil
}
