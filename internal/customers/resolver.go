// Package customers finds or creates the customer an order is billed to.
package customers

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/database"
)

// Details is the contact information supplied with an order. Phone identifies
// the customer; Address wins over Area and City when both are given.
type Details struct {
	Name    string
	Gender  string
	Age     *int64
	Address string
	Area    string
	City    string
	Phone   string
}

func (d Details) address() string {
	if a := strings.TrimSpace(d.Address); a != "" {
		return a
	}
	var parts []string
	for _, p := range []string{d.Area, d.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Resolver struct {
	db            *database.DB
	updateOnMatch bool
}

// NewResolver returns a resolver. With updateOnMatch set, a matched customer's
// stored details are overwritten by the latest non-empty values.
func NewResolver(db *database.DB, updateOnMatch bool) *Resolver {
	return &Resolver{db: db, updateOnMatch: updateOnMatch}
}

// Resolve returns the id of the customer with d.Phone, inserting one if none
// exists. It runs on tx so the insert is undone with the rest of the order.
// Callers serialize concurrent calls for the same phone.
func (r *Resolver) Resolve(ctx context.Context, tx *database.Tx, d Details) (id int64, created bool, err error) {
	phone := strings.TrimSpace(d.Phone)
	if phone == "" {
		return 0, false, apperr.Validation("customer phone is required")
	}
	if err := validateGender(d.Gender); err != nil {
		return 0, false, err
	}

	err = tx.GetContext(ctx, &id, tx.Rebind(`SELECT id FROM customers WHERE phone = ? ORDER BY id LIMIT 1`), phone)
	switch {
	case err == nil:
		if r.updateOnMatch {
			if err := r.update(ctx, tx, id, d); err != nil {
				return 0, false, err
			}
		}
		return id, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, false, apperr.Storage("unable to look up customer", err)
	}

	id, err = tx.InsertID(ctx, `INSERT INTO customers (name, gender, age, address, phone) VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(d.Name), d.Gender, d.Age, d.address(), phone)
	if err != nil {
		return 0, false, apperr.Storage("unable to create customer", err)
	}
	return id, true, nil
}

func (r *Resolver) update(ctx context.Context, tx *database.Tx, id int64, d Details) error {
	var sets []string
	var args []any
	if name := strings.TrimSpace(d.Name); name != "" {
		sets, args = append(sets, "name = ?"), append(args, name)
	}
	if d.Gender != "" {
		sets, args = append(sets, "gender = ?"), append(args, d.Gender)
	}
	if d.Age != nil {
		sets, args = append(sets, "age = ?"), append(args, *d.Age)
	}
	if addr := d.address(); addr != "" {
		sets, args = append(sets, "address = ?"), append(args, addr)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := `UPDATE customers SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return apperr.Storage("unable to update customer", err)
	}
	return nil
}

func validateGender(g string) error {
	switch g {
	case "", domain.GenderMale, domain.GenderFemale, domain.GenderOther:
		return nil
	}
	return apperr.Validation("gender must be one of Male, Female, Other")
}

// List returns all customers ordered by id.
func (r *Resolver) List(ctx context.Context) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	if err := r.db.SelectContext(ctx, &customers, `SELECT id, name, gender, age, address, phone FROM customers ORDER BY id`); err != nil {
		return nil, apperr.Storage("unable to list customers", err)
	}
	return customers, nil
}
