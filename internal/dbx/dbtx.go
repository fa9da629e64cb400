// Package dbx provides the small database abstractions shared by repositories:
// DBTX, satisfied by both *sql.DB and *sql.Tx, and helpers that run a function
// inside a transaction.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of database/sql used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the unit of work executed by WithTx and TxRunner.RunInTx.
type TxFunc func(ctx context.Context, tx DBTX) error

// TxRunner runs fn atomically: either every change made through tx is
// applied or none is.
type TxRunner interface {
	RunInTx(ctx context.Context, fn TxFunc) error
}

// WithTx begins a transaction, runs fn with the transactional handle and
// commits on success. It rolls back when fn returns an error or panics; panics
// are rethrown after the rollback.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	return fn(ctx, tx)
}

// SQLRunner is a TxRunner over a *sql.DB.
type SQLRunner struct {
	DB   *sql.DB
	Opts *sql.TxOptions
}

// NewSQLRunner returns a runner using READ COMMITTED transactions, which is
// enough for conditional updates: a competing UPDATE waits for the row lock
// and then re-evaluates its WHERE clause.
func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{DB: db, Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted}}
}

// RunInTx implements TxRunner.
func (r *SQLRunner) RunInTx(ctx context.Context, fn TxFunc) error {
	return WithTx(ctx, r.DB, r.Opts, fn)
}
