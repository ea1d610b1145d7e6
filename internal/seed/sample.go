// Package seed fills an empty database with a starting catalog and staff.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pharmacy/m/domain"
	"pharmacy/m/internal/database"
	"pharmacy/m/internal/employees"
	"pharmacy/m/internal/inventory"
)

var sampleStock = []inventory.NewStock{
	{Name: "Paracetamol", Manufacturer: "ABC Pharma", Expiry: domain.NewDate(2025, time.December, 31), CostPrice: ptr(decimal.RequireFromString("5.00")), BatchNo: "PCM-001", Quantity: 100, Category: "Analgesic", BatchPrice: decimal.RequireFromString("500.00")},
	{Name: "Amoxicillin", Manufacturer: "XYZ Labs", Expiry: domain.NewDate(2024, time.June, 30), CostPrice: ptr(decimal.RequireFromString("12.50")), BatchNo: "AMX-001", Quantity: 50, Category: "Antibiotic", BatchPrice: decimal.RequireFromString("625.00")},
	{Name: "Ibuprofen", Manufacturer: "MediCorp", Expiry: domain.NewDate(2023, time.December, 31), CostPrice: ptr(decimal.RequireFromString("8.75")), BatchNo: "IBU-001", Quantity: 30, Category: "Analgesic", BatchPrice: decimal.RequireFromString("262.50")},
}

var sampleStaff = []employees.Input{
	{Name: "John Doe", Gender: domain.GenderMale, Age: ptr[int64](35), StartDate: domain.NewDate(2020, time.January, 15), Role: "Pharmacist", Salary: decimal.NewFromInt(50000), Phones: []string{"555-0101"}},
	{Name: "Jane Smith", Gender: domain.GenderFemale, Age: ptr[int64](28), StartDate: domain.NewDate(2021, time.March, 1), Role: "Cashier", Salary: decimal.NewFromInt(35000), Phones: []string{"555-0102"}},
}

// SampleData inserts demo medicines and employees. Each table is only seeded
// while it is empty, so restarts do not duplicate rows.
func SampleData(ctx context.Context, db *database.DB, ledger *inventory.Ledger, staff *employees.Service, logger logrus.FieldLogger) error {
	empty, err := isEmpty(ctx, db, "medicines")
	if err != nil {
		return err
	}
	if empty {
		for _, s := range sampleStock {
			if _, err := ledger.AddMedicine(ctx, s); err != nil {
				return fmt.Errorf("seed medicine %s: %w", s.Name, err)
			}
		}
		logger.WithField("medicines", len(sampleStock)).Info("seeded sample medicines")
	}

	empty, err = isEmpty(ctx, db, "employees")
	if err != nil {
		return err
	}
	if empty {
		for _, in := range sampleStaff {
			if _, err := staff.Create(ctx, in); err != nil {
				return fmt.Errorf("seed employee %s: %w", in.Name, err)
			}
		}
		logger.WithField("employees", len(sampleStaff)).Info("seeded sample employees")
	}
	return nil
}

func isEmpty(ctx context.Context, db *database.DB, table string) (bool, error) {
	var n int64
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table); err != nil {
		return false, fmt.Errorf("count %s: %w", table, err)
	}
	return n == 0, nil
}

func ptr[T any](v T) *T { return &v }
