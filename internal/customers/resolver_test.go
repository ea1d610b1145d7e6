package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/database"
	"pharmacy/m/internal/database/databasetest"
)

func resolve(t *testing.T, db *database.DB, r *Resolver, d Details) (int64, bool, error) {
	t.Helper()
	ctx := context.Background()
	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	id, created, err := r.Resolve(ctx, tx, d)
	if err == nil {
		require.NoError(t, tx.Commit())
	}
	return id, created, err
}

func TestResolve_DedupByPhone(t *testing.T) {
	db := databasetest.New(t)
	r := NewResolver(db, false)
	age := int64(40)

	first, created, err := resolve(t, db, r, Details{Name: "Ann", Gender: "Female", Age: &age, Area: "Dhanmondi", City: "Dhaka", Phone: "0171"})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := resolve(t, db, r, Details{Name: "Annie", Phone: " 0171 "})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	list, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ann", list[0].Name, "match-only keeps stored details")
	assert.Equal(t, "Dhanmondi, Dhaka", list[0].Address)
	require.NotNil(t, list[0].Age)
	assert.Equal(t, int64(40), *list[0].Age)
}

func TestResolve_UpdateOnMatch(t *testing.T) {
	db := databasetest.New(t)
	r := NewResolver(db, true)

	id, _, err := resolve(t, db, r, Details{Name: "Bob", Address: "Old Road", Phone: "0999"})
	require.NoError(t, err)

	again, created, err := resolve(t, db, r, Details{Name: "Robert", Gender: "Male", Phone: "0999"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	list, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Robert", list[0].Name)
	assert.Equal(t, "Male", list[0].Gender)
	assert.Equal(t, "Old Road", list[0].Address, "empty fields do not overwrite")
}

func TestResolve_Validation(t *testing.T) {
	db := databasetest.New(t)
	r := NewResolver(db, false)

	_, _, err := resolve(t, db, r, Details{Name: "No Phone"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, err = resolve(t, db, r, Details{Phone: "1", Gender: "Unknown"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestResolve_RolledBackInsertLeavesNoCustomer(t *testing.T) {
	ctx := context.Background()
	db := databasetest.New(t)
	r := NewResolver(db, false)

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	_, created, err := r.Resolve(ctx, tx, Details{Phone: "555"})
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, tx.Rollback())

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDetailsAddress(t *testing.T) {
	tests := []struct {
		in   Details
		want string
	}{
		{Details{Address: "12 Main St", Area: "A", City: "C"}, "12 Main St"},
		{Details{Area: "Gulshan", City: "Dhaka"}, "Gulshan, Dhaka"},
		{Details{City: "Dhaka"}, "Dhaka"},
		{Details{}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.address())
	}
}
