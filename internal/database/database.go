package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB is the process-wide handle. It is created once in main and passed to every
// service constructor.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// Connect opens the database for the given dialect. SQLite is limited to one
// open connection, which serializes transactions since it has no row locks.
func Connect(dialect Dialect, dsn string) (*DB, error) {
	db, err := sqlx.Connect(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	switch dialect {
	case SQLite:
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// Begin opens a transaction bound to ctx.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, Dialect: db.Dialect}, nil
}

// InTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise. fn's error is returned unchanged.
func (db *DB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type Tx struct {
	*sqlx.Tx
	Dialect Dialect
}

// ForUpdate is the row lock suffix for SELECTs whose rows the transaction will
// write. Empty on SQLite.
func (tx *Tx) ForUpdate() string {
	return tx.Dialect.lockClause()
}

// InsertID runs an INSERT and returns the generated id column.
func (tx *Tx) InsertID(ctx context.Context, query string, args ...any) (int64, error) {
	if tx.Dialect == Postgres {
		var id int64
		err := tx.QueryRowxContext(ctx, tx.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
