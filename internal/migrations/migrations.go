package migrations

import (
	"context"
	"fmt"
	"strings"

	"pharmacy/m/internal/database"
)

// Tokens replaced per dialect before the statements run.
var dialectTokens = map[database.Dialect]*strings.Replacer{
	database.SQLite: strings.NewReplacer(
		"{{id}}", "id INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{timestamp}}", "DATETIME DEFAULT CURRENT_TIMESTAMP",
	),
	database.MySQL: strings.NewReplacer(
		"{{id}}", "id INT AUTO_INCREMENT PRIMARY KEY",
		"{{timestamp}}", "DATETIME DEFAULT CURRENT_TIMESTAMP",
	),
	database.Postgres: strings.NewReplacer(
		"{{id}}", "id SERIAL PRIMARY KEY",
		"{{timestamp}}", "TIMESTAMPTZ DEFAULT NOW()",
	),
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
            {{id}},
            name VARCHAR(100) NOT NULL DEFAULT '',
            gender VARCHAR(10) NOT NULL DEFAULT '' CHECK (gender IN ('', 'Male', 'Female', 'Other')),
            age INT,
            address VARCHAR(255) NOT NULL DEFAULT '',
            phone VARCHAR(20) NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS employees (
            {{id}},
            name VARCHAR(100) NOT NULL,
            gender VARCHAR(10) NOT NULL DEFAULT '' CHECK (gender IN ('', 'Male', 'Female', 'Other')),
            age INT,
            start_date DATE,
            role VARCHAR(50) NOT NULL DEFAULT '',
            salary DECIMAL(10, 2) NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS employee_phones (
            employee_id INT NOT NULL,
            phone VARCHAR(20) NOT NULL,
            PRIMARY KEY (employee_id, phone),
            FOREIGN KEY (employee_id) REFERENCES employees(id) ON DELETE CASCADE
        )`,
	`CREATE TABLE IF NOT EXISTS medicines (
            {{id}},
            name VARCHAR(100) NOT NULL,
            manufacturer VARCHAR(100) NOT NULL DEFAULT '',
            expiry_date DATE,
            cost_price DECIMAL(10, 2) NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS stock (
            medicine_id INT NOT NULL,
            batch_no VARCHAR(50) NOT NULL,
            quantity INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
            expiry_date DATE,
            category VARCHAR(50) NOT NULL DEFAULT '',
            batch_price DECIMAL(10, 2) NOT NULL DEFAULT 0,
            PRIMARY KEY (medicine_id, batch_no),
            FOREIGN KEY (medicine_id) REFERENCES medicines(id)
        )`,
	`CREATE TABLE IF NOT EXISTS disposals (
            medicine_id INT NOT NULL PRIMARY KEY,
            quantity INT NOT NULL DEFAULT 0,
            FOREIGN KEY (medicine_id) REFERENCES medicines(id)
        )`,
	`CREATE TABLE IF NOT EXISTS bills (
            {{id}},
            customer_id INT NOT NULL,
            employee_id INT NOT NULL,
            total_amount DECIMAL(10, 2) NOT NULL DEFAULT 0,
            created_at {{timestamp}},
            FOREIGN KEY (customer_id) REFERENCES customers(id),
            FOREIGN KEY (employee_id) REFERENCES employees(id)
        )`,
	`CREATE TABLE IF NOT EXISTS bill_items (
            {{id}},
            bill_id INT NOT NULL,
            medicine_id INT NOT NULL,
            quantity INT NOT NULL CHECK (quantity > 0),
            unit_price DECIMAL(10, 2) NOT NULL,
            FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE,
            FOREIGN KEY (medicine_id) REFERENCES medicines(id)
        )`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, and InnoDB already indexes foreign keys.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_customers_phone ON customers (phone)`,
	`CREATE INDEX IF NOT EXISTS idx_bill_items_bill ON bill_items (bill_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_expiry ON stock (expiry_date)`,
}

// Statements returns the schema for the dialect in execution order.
func Statements(dialect database.Dialect) []string {
	r, ok := dialectTokens[dialect]
	if !ok {
		return nil
	}
	stmts := make([]string, 0, len(schema)+len(indexes))
	for _, stmt := range schema {
		stmts = append(stmts, r.Replace(stmt))
	}
	if dialect != database.MySQL {
		stmts = append(stmts, indexes...)
	}
	return stmts
}

// Run creates the pharmacy schema. It is safe to run on every start.
func Run(ctx context.Context, db *database.DB) error {
	stmts := Statements(db.Dialect)
	if len(stmts) == 0 {
		return fmt.Errorf("no schema for dialect %q", db.Dialect)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
