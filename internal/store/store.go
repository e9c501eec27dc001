// Package store implements typed PostgreSQL access for the sales ERP:
// the read operations exposed to the assistant's tools plus the CRUD
// operations behind the admin endpoints.
//
// All numeric money columns are stored as NUMERIC and cast to float8
// in queries so callers always see Go float64 values.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/salesdesk/salesdesk/internal/log"
)

// ErrNotFound is returned by CRUD operations when the target row does
// not exist. Tool-facing reads report absence with a found flag
// instead, so the model can compose a negative answer.
var ErrNotFound = errors.New("not found")

// ErrInsufficientStock is returned when an order requests more units
// than a product has available.
var ErrInsufficientStock = errors.New("insufficient stock")

// TaxRate is the sales tax applied to order subtotals.
const TaxRate = 0.13

// DB is the subset of pgxpool.Pool the store depends on.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store runs queries against the ERP schema. It is safe for concurrent
// use; all state lives in the database.
type Store struct {
	db     DB
	logger log.Logger
}

// New creates a Store. A nil logger discards output.
func New(db DB, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}
}
