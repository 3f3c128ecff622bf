// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Querier is the relational interface the ledger core runs its statements on.
// Statements are written with '?' placeholders.
//
// *sql.DB satisfies Querier directly; DB adds placeholder rewriting for
// drivers that expect numbered parameters.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*DB)(nil)
)

// Driver names accepted by NewDB. They select the placeholder style.
const (
	DriverSQLite = "sqlite" // '?' kept as is
	DriverPgx    = "pgx"    // '?' rewritten to $1, $2, ...
)

// DB wraps a connection pool owned by the process. It is created once at
// startup and shared by every request.
type DB struct {
	db *sqlx.DB
}

// NewDB wraps an open pool opened with the given driver.
func NewDB(db *sql.DB, driverName string) *DB {
	return &DB{db: sqlx.NewDb(db, driverName)}
}

// QueryContext runs a query that returns rows.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, d.db.Rebind(query), args...)
}

// QueryRowContext runs a query that returns at most one row.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, d.db.Rebind(query), args...)
}

// ExecContext runs a statement that returns no rows.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, d.db.Rebind(query), args...)
}

// PingContext verifies the pool can reach the database.
func (d *DB) PingContext(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Rebind rewrites '?' placeholders into the style of driverName.
func Rebind(driverName, query string) string {
	return sqlx.Rebind(sqlx.BindType(driverName), query)
}
