package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bicycle_rental/internal/domain/rental"
)

// Store is the SQL backed rental.Store and catalog.Repository. It works with
// PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite) connections.
type Store struct {
	db *sqlx.DB
	// lockRows adds FOR UPDATE to bicycle reads inside write transactions.
	// SQLite has no row locks and relies on BEGIN IMMEDIATE instead.
	lockRows bool
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:       db,
		lockRows: db.DriverName() == DriverPostgres,
	}
}

// RunInTransaction executes fn in a database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx rental.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap("beginning transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&sqlTx{tx: tx, lockRows: s.lockRows}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrap("committing transaction", err)
	}
	committed = true
	return nil
}

// View executes fn in a transaction that is always rolled back.
func (s *Store) View(ctx context.Context, fn func(tx rental.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(&sqlTx{tx: tx})
}
