// Package databasetest opens migrated in-memory SQLite databases for tests.
package databasetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pharmacy/m/internal/database"
	"pharmacy/m/internal/migrations"
)

// New returns a fresh, migrated database that is closed when the test ends.
func New(t testing.TB) *database.DB {
	t.Helper()
	db, err := database.Connect(database.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Run(context.Background(), db))
	return db
}

// Exec runs seed statements written with ? placeholders.
func Exec(t testing.TB, db *database.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(db.Rebind(query), args...)
	require.NoError(t, err)
}
