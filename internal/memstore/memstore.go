// Package memstore provides an in-memory store with the same semantics as
// the PostgreSQL repository: conditional check-and-mutate capacity updates
// and whole-unit transaction rollback. It backs unit tests and the
// STORE=memory development mode; it is not meant for production use.
package memstore

import (
	"context"
	"sync"

	"github.com/vacinajp/vacinajp/internal/model"
	"github.com/vacinajp/vacinajp/internal/store"
)

var (
	_ store.Store = (*Store)(nil)
	_ store.Store = (*txView)(nil)
)

type slotKey struct {
	siteID string
	date   string
}

// state is the whole mutable dataset. Transactions snapshot it and restore
// the snapshot on error, so a failed unit leaves no partial writes behind.
type state struct {
	slots        map[slotKey]model.CapacitySlot
	reservations map[string]model.Reservation
	resOrder     []string
	doses        map[string]model.Dose
	doseOrder    []string
	sites        map[string]model.Site
}

func newState() state {
	return state{
		slots:        map[slotKey]model.CapacitySlot{},
		reservations: map[string]model.Reservation{},
		doses:        map[string]model.Dose{},
		sites:        map[string]model.Site{},
	}
}

func (s state) clone() state {
	next := state{
		slots:        make(map[slotKey]model.CapacitySlot, len(s.slots)),
		reservations: make(map[string]model.Reservation, len(s.reservations)),
		resOrder:     append([]string(nil), s.resOrder...),
		doses:        make(map[string]model.Dose, len(s.doses)),
		doseOrder:    append([]string(nil), s.doseOrder...),
		sites:        make(map[string]model.Site, len(s.sites)),
	}
	for k, v := range s.slots {
		next.slots[k] = v
	}
	for k, v := range s.reservations {
		if v.DoseID != nil {
			id := *v.DoseID
			v.DoseID = &id
		}
		next.reservations[k] = v
	}
	for k, v := range s.doses {
		next.doses[k] = v
	}
	for k, v := range s.sites {
		next.sites[k] = v
	}
	return next
}

// Store is a mutex-guarded in-memory store.
type Store struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state state
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Capacity returns the in-memory capacity ledger.
func (s *Store) Capacity() store.CapacityLedger { return &capacityLedger{s: s} }

// Reservations returns the in-memory reservation store.
func (s *Store) Reservations() store.ReservationStore { return &reservationStore{s: s} }

// Doses returns the in-memory dose store.
func (s *Store) Doses() store.DoseStore { return &doseStore{s: s} }

// Sites returns the in-memory site directory.
func (s *Store) Sites() store.SiteDirectory { return &siteDirectory{s: s} }

// writeLock serializes a standalone write against any open transaction
// before taking the state lock. Transaction-bound stores skip txMu: the
// transaction already holds it for the whole unit. Without this ordering a
// standalone write could land between a transaction's snapshot and its
// rollback and be erased by the restored snapshot.
func (s *Store) writeLock(tx bool) func() {
	if !tx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !tx {
			s.txMu.Unlock()
		}
	}
}

// RunInTransaction holds txMu for the whole unit, which serializes
// transactions against each other and against standalone writes, snapshots
// the state, runs fn, and restores the snapshot if fn fails. Reads are not
// blocked; they may observe the unit's uncommitted writes.
func (s *Store) RunInTransaction(ctx context.Context, fn func(store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(&txView{s: s}); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// txView binds the record stores to one open transactional unit.
type txView struct {
	s *Store
}

func (t *txView) Capacity() store.CapacityLedger { return &capacityLedger{s: t.s, tx: true} }

func (t *txView) Reservations() store.ReservationStore { return &reservationStore{s: t.s, tx: true} }

func (t *txView) Doses() store.DoseStore { return &doseStore{s: t.s, tx: true} }

func (t *txView) Sites() store.SiteDirectory { return &siteDirectory{s: t.s, tx: true} }

// RunInTransaction on a transaction-bound store joins the open unit.
func (t *txView) RunInTransaction(ctx context.Context, fn func(store.Store) error) error {
	return fn(t)
}

func key(siteID string, date model.Date) slotKey {
	return slotKey{siteID: siteID, date: date.String()}
}
