package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pharmacy/m/domain"
	"pharmacy/m/internal/inventory"
)

// LoadCatalog ingests a stock CSV through the ledger. Columns are name,
// manufacturer, expiry, cost, batch_no, qty, category, batch_price; the first
// row is a header. Bad rows are logged and skipped. Returns the rows loaded.
func LoadCatalog(ctx context.Context, ledger *inventory.Ledger, csvPath string, logger logrus.FieldLogger) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("unable to load medicine catalog %s: %w", csvPath, err)
	}
	defer file.Close()
	return loadCatalog(ctx, ledger, file, logger.WithField("file", csvPath))
}

func loadCatalog(ctx context.Context, ledger *inventory.Ledger, r io.Reader, logger logrus.FieldLogger) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("unable to read catalog header: %w", err)
	}

	rows := 0
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			logger.WithError(err).WithField("line", line).Warn("unable to read catalog row")
			continue
		}
		stock, err := parseRow(record)
		if err != nil {
			logger.WithError(err).WithField("line", line).Warn("skipping catalog row")
			continue
		}
		if _, err := ledger.AddMedicine(ctx, stock); err != nil {
			logger.WithError(err).WithField("line", line).Warn("unable to add catalog row")
			continue
		}
		rows++
	}

	logger.WithField("rows", rows).Info("seeded medicine catalog")
	return rows, nil
}

func parseRow(record []string) (inventory.NewStock, error) {
	if len(record) < 6 {
		return inventory.NewStock{}, fmt.Errorf("expected at least 6 columns, got %d", len(record))
	}
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var (
		s   inventory.NewStock
		err error
	)
	s.Name = field(0)
	s.Manufacturer = field(1)
	if v := field(2); v != "" {
		if s.Expiry, err = domain.ParseDate(v); err != nil {
			return s, fmt.Errorf("invalid expiry %q: %w", v, err)
		}
	}
	cost, err := decimal.NewFromString(field(3))
	if err != nil {
		return s, fmt.Errorf("invalid cost %q: %w", field(3), err)
	}
	s.CostPrice = &cost
	s.BatchNo = field(4)
	if s.Quantity, err = strconv.ParseInt(field(5), 10, 64); err != nil {
		return s, fmt.Errorf("invalid qty %q: %w", field(5), err)
	}
	s.Category = field(6)
	s.BatchPrice = cost.Mul(decimal.NewFromInt(s.Quantity))
	if v := field(7); v != "" {
		if s.BatchPrice, err = decimal.NewFromString(v); err != nil {
			return s, fmt.Errorf("invalid batch_price %q: %w", v, err)
		}
	}
	return s, nil
}
