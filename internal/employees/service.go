// Package employees manages staff records referenced by bills.
package employees

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/database"
)

const employeeColumns = `id, name, gender, age, start_date, role, salary`

type Service struct {
	db *database.DB
}

func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

// Input carries the writable fields of an employee.
type Input struct {
	Name      string
	Gender    string
	Age       *int64
	StartDate domain.Date
	Role      string
	Salary    decimal.Decimal
	Phones    []string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name is required")
	}
	switch in.Gender {
	case "", domain.GenderMale, domain.GenderFemale, domain.GenderOther:
	default:
		return apperr.Validation("gender must be one of Male, Female, Other")
	}
	if in.Salary.IsNegative() {
		return apperr.Validation("salary cannot be negative")
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.Employee, error) {
	employees := []domain.Employee{}
	if err := s.db.SelectContext(ctx, &employees, `SELECT `+employeeColumns+` FROM employees ORDER BY id`); err != nil {
		return nil, apperr.Storage("unable to list employees", err)
	}
	if len(employees) == 0 {
		return employees, nil
	}

	ids := make([]int64, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	phones, err := s.phones(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		employees[i].Phones = nonNil(phones[employees[i].ID])
	}
	return employees, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	var e domain.Employee
	err := s.db.GetContext(ctx, &e, s.db.Rebind(`SELECT `+employeeColumns+` FROM employees WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, apperr.Storage("unable to fetch employee", err)
	}
	phones, err := s.phones(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	e.Phones = nonNil(phones[id])
	return &e, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Employee, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var id int64
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		var err error
		id, err = tx.InsertID(ctx, `INSERT INTO employees (name, gender, age, start_date, role, salary) VALUES (?, ?, ?, ?, ?, ?)`,
			strings.TrimSpace(in.Name), in.Gender, in.Age, in.StartDate, in.Role, in.Salary)
		if err != nil {
			return apperr.Storage("unable to create employee", err)
		}
		return s.replacePhones(ctx, tx, id, in.Phones)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "unable to create employee")
	}
	return s.Get(ctx, id)
}

// Update overwrites every field, phones included.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.Employee, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE employees SET name = ?, gender = ?, age = ?, start_date = ?, role = ?, salary = ? WHERE id = ?`),
			strings.TrimSpace(in.Name), in.Gender, in.Age, in.StartDate, in.Role, in.Salary, id)
		if err != nil {
			return apperr.Storage("unable to update employee", err)
		}
		if err := s.mustExist(ctx, tx, res, id); err != nil {
			return err
		}
		return s.replacePhones(ctx, tx, id, in.Phones)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "unable to update employee")
	}
	return s.Get(ctx, id)
}

// Delete removes an employee who has not processed any bill.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		var bills int64
		if err := tx.GetContext(ctx, &bills, tx.Rebind(`SELECT COUNT(*) FROM bills WHERE employee_id = ?`), id); err != nil {
			return apperr.Storage("unable to check employee bills", err)
		}
		if bills > 0 {
			return apperr.Conflict("EMPLOYEE_HAS_BILLS", "employee %d has processed %d bills and cannot be deleted", id, bills)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM employees WHERE id = ?`), id)
		if err != nil {
			return apperr.Storage("unable to delete employee", err)
		}
		return s.mustExist(ctx, tx, res, id)
	})
	return apperr.Wrap(err, "unable to delete employee")
}

func (s *Service) GetSalary(ctx context.Context, id int64) (decimal.Decimal, error) {
	var salary decimal.Decimal
	err := s.db.GetContext(ctx, &salary, s.db.Rebind(`SELECT salary FROM employees WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, notFound(id)
	}
	if err != nil {
		return decimal.Zero, apperr.Storage("unable to fetch salary", err)
	}
	return salary, nil
}

func (s *Service) UpdateSalary(ctx context.Context, id int64, salary decimal.Decimal) error {
	if salary.IsNegative() {
		return apperr.Validation("salary cannot be negative")
	}
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE employees SET salary = ? WHERE id = ?`), salary, id)
		if err != nil {
			return apperr.Storage("unable to update salary", err)
		}
		return s.mustExist(ctx, tx, res, id)
	})
	return apperr.Wrap(err, "unable to update salary")
}

// mustExist turns a zero-row write into NotFound. MySQL reports zero affected
// rows when values are unchanged, so a lookup settles it.
func (s *Service) mustExist(ctx context.Context, tx *database.Tx, res sql.Result, id int64) error {
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	var found int64
	err := tx.GetContext(ctx, &found, tx.Rebind(`SELECT COUNT(*) FROM employees WHERE id = ?`), id)
	if err != nil {
		return apperr.Storage("unable to look up employee", err)
	}
	if found == 0 {
		return notFound(id)
	}
	return nil
}

func (s *Service) replacePhones(ctx context.Context, tx *database.Tx, id int64, phones []string) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM employee_phones WHERE employee_id = ?`), id); err != nil {
		return apperr.Storage("unable to update employee phones", err)
	}
	seen := make(map[string]bool, len(phones))
	for _, p := range phones {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO employee_phones (employee_id, phone) VALUES (?, ?)`), id, p); err != nil {
			return apperr.Storage("unable to update employee phones", err)
		}
	}
	return nil
}

func (s *Service) phones(ctx context.Context, ids []int64) (map[int64][]string, error) {
	query, args, err := sqlx.In(`SELECT employee_id, phone FROM employee_phones WHERE employee_id IN (?) ORDER BY employee_id, phone`, ids)
	if err != nil {
		return nil, apperr.Storage("unable to prepare phones query", err)
	}
	var rows []struct {
		EmployeeID int64  `db:"employee_id"`
		Phone      string `db:"phone"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, apperr.Storage("unable to load employee phones", err)
	}
	out := make(map[int64][]string)
	for _, r := range rows {
		out[r.EmployeeID] = append(out[r.EmployeeID], r.Phone)
	}
	return out, nil
}

func notFound(id int64) error {
	return apperr.NotFound("EMPLOYEE_NOT_FOUND", "employee with id %d not found", id)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
