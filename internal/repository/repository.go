// Package repository implements the PostgreSQL persistence layer.
// It uses pgx directly (no ORM) for transparency and performance; the
// capacity ledger in particular depends on hand-written conditional SQL.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vacinajp/vacinajp/internal/store"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// repository code runs inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Compile-time contract assertions.
var (
	_ store.Store = (*Store)(nil)
	_ store.Store = (*txStore)(nil)
)

// Store is the pool-backed entry point. Reads and single-record writes run
// directly against the pool; multi-record units go through RunInTransaction.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store around an existing connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Capacity returns the capacity ledger bound to the pool.
func (s *Store) Capacity() store.CapacityLedger { return &CapacityRepository{q: s.pool} }

// Reservations returns the reservation store bound to the pool.
func (s *Store) Reservations() store.ReservationStore { return &ReservationRepository{q: s.pool} }

// Doses returns the dose store bound to the pool.
func (s *Store) Doses() store.DoseStore { return &DoseRepository{q: s.pool} }

// Sites returns the site directory bound to the pool.
func (s *Store) Sites() store.SiteDirectory { return &SiteRepository{q: s.pool} }

// RunInTransaction executes fn against a transaction-bound store. Any error
// from fn rolls back every write made inside the unit; commit errors are
// surfaced to the caller.
func (s *Store) RunInTransaction(ctx context.Context, fn func(store.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&txStore{q: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore binds the repositories to one open transaction.
type txStore struct {
	q pgx.Tx
}

func (s *txStore) Capacity() store.CapacityLedger { return &CapacityRepository{q: s.q} }

func (s *txStore) Reservations() store.ReservationStore { return &ReservationRepository{q: s.q} }

func (s *txStore) Doses() store.DoseStore { return &DoseRepository{q: s.q} }

func (s *txStore) Sites() store.SiteDirectory { return &SiteRepository{q: s.q} }

// RunInTransaction on a transaction-bound store joins the open transaction.
func (s *txStore) RunInTransaction(ctx context.Context, fn func(store.Store) error) error {
	return fn(s)
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
