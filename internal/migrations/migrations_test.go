package migrations_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/m/internal/database"
	"pharmacy/m/internal/database/databasetest"
	"pharmacy/m/internal/migrations"
)

func TestRunIsIdempotent(t *testing.T) {
	db := databasetest.New(t)
	require.NoError(t, migrations.Run(context.Background(), db))

	var tables int
	require.NoError(t, db.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN
                ('customers', 'employees', 'employee_phones', 'medicines', 'stock', 'disposals', 'bills', 'bill_items')`))
	assert.Equal(t, 8, tables)
}

func TestStatementsPerDialect(t *testing.T) {
	for _, d := range []database.Dialect{database.SQLite, database.MySQL, database.Postgres} {
		t.Run(string(d), func(t *testing.T) {
			stmts := migrations.Statements(d)
			require.NotEmpty(t, stmts)
			for _, s := range stmts {
				assert.NotContains(t, s, "{{")
			}
		})
	}

	assert.True(t, strings.Contains(strings.Join(migrations.Statements(database.Postgres), "\n"), "SERIAL PRIMARY KEY"))
	assert.NotContains(t, strings.Join(migrations.Statements(database.MySQL), "\n"), "CREATE INDEX")
	assert.Nil(t, migrations.Statements("oracle"))
}

func TestStockQuantityCannotGoNegative(t *testing.T) {
	db := databasetest.New(t)
	databasetest.Exec(t, db, `INSERT INTO medicines (id, name, cost_price) VALUES (1, 'Paracetamol', 5)`)

	_, err := db.Exec(`INSERT INTO stock (medicine_id, batch_no, quantity) VALUES (1, 'B', -1)`)
	assert.Error(t, err)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := databasetest.New(t)

	_, err := db.Exec(`INSERT INTO stock (medicine_id, batch_no, quantity) VALUES (42, 'B', 1)`)
	assert.Error(t, err)
}
