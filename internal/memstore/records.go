package memstore

import (
	"context"
	"sort"

	"github.com/vacinajp/vacinajp/internal/model"
	"github.com/vacinajp/vacinajp/internal/store"
)

type capacityLedger struct {
	s  *Store
	tx bool
}

func (l *capacityLedger) Create(ctx context.Context, slot *model.CapacitySlot) error {
	defer l.s.writeLock(l.tx)()
	k := key(slot.SiteID, slot.Date)
	if _, ok := l.s.state.slots[k]; ok {
		return store.ErrSlotExists
	}
	l.s.state.slots[k] = *slot
	return nil
}

func (l *capacityLedger) Get(ctx context.Context, siteID string, date model.Date) (*model.CapacitySlot, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	slot, ok := l.s.state.slots[key(siteID, date)]
	if !ok {
		return nil, store.ErrSlotNotFound
	}
	return &slot, nil
}

func (l *capacityLedger) ListAvailable(ctx context.Context, date model.Date) ([]model.CapacitySlot, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var out []model.CapacitySlot
	for _, slot := range l.s.state.slots {
		if slot.Date.Equal(date) && slot.Open() {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SiteID < out[j].SiteID })
	return out, nil
}

// TryReserve performs the check and the decrement under one lock hold,
// matching the conditional-UPDATE semantics of the PostgreSQL ledger.
func (l *capacityLedger) TryReserve(ctx context.Context, siteID string, date model.Date) (*model.CapacitySlot, error) {
	defer l.s.writeLock(l.tx)()
	k := key(siteID, date)
	slot, ok := l.s.state.slots[k]
	if !ok || !slot.Open() {
		return nil, store.ErrCapacityUnavailable
	}
	slot.RemainingCapacity--
	l.s.state.slots[k] = slot
	return &slot, nil
}

func (l *capacityLedger) RecordApplied(ctx context.Context, siteID string, date model.Date) error {
	defer l.s.writeLock(l.tx)()
	k := key(siteID, date)
	slot, ok := l.s.state.slots[k]
	if !ok {
		return store.ErrSlotNotFound
	}
	slot.AppliedCount++
	l.s.state.slots[k] = slot
	return nil
}

func (l *capacityLedger) Adjust(ctx context.Context, siteID string, date model.Date, change model.CapacityChange) error {
	if change.Empty() {
		return store.ErrAdjustmentRejected
	}
	defer l.s.writeLock(l.tx)()
	k := key(siteID, date)
	slot, ok := l.s.state.slots[k]
	if !ok {
		return store.ErrAdjustmentRejected
	}
	if change.Delta != nil {
		delta := *change.Delta
		if delta < 0 && slot.RemainingCapacity < -delta {
			return store.ErrAdjustmentRejected
		}
		slot.RemainingCapacity += delta
		slot.TotalCapacity += delta
	}
	if change.Available != nil {
		slot.IsAvailable = *change.Available
	}
	l.s.state.slots[k] = slot
	return nil
}

type reservationStore struct {
	s  *Store
	tx bool
}

func (r *reservationStore) Create(ctx context.Context, reservation *model.Reservation) error {
	defer r.s.writeLock(r.tx)()
	r.s.state.reservations[reservation.ID] = *reservation
	r.s.state.resOrder = append(r.s.state.resOrder, reservation.ID)
	return nil
}

func (r *reservationStore) FindOpen(ctx context.Context, userID, siteID string, date model.Date) (*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// Insertion order stands in for created_at ordering.
	for _, id := range r.s.state.resOrder {
		res := r.s.state.reservations[id]
		if res.UserID == userID && res.SiteID == siteID && res.Date.Equal(date) && !res.Fulfilled {
			return copyReservation(res), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *reservationStore) MarkFulfilled(ctx context.Context, reservationID, doseID string) error {
	defer r.s.writeLock(r.tx)()
	res, ok := r.s.state.reservations[reservationID]
	if !ok {
		return store.ErrNotFound
	}
	res.Fulfilled = true
	res.DoseID = &doseID
	r.s.state.reservations[reservationID] = res
	return nil
}

func (r *reservationStore) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Reservation
	for _, id := range r.s.state.resOrder {
		res := r.s.state.reservations[id]
		if res.UserID == userID {
			out = append(out, *copyReservation(res))
		}
	}
	return out, nil
}

type doseStore struct {
	s  *Store
	tx bool
}

func (d *doseStore) Create(ctx context.Context, dose *model.Dose) error {
	defer d.s.writeLock(d.tx)()
	d.s.state.doses[dose.ID] = *dose
	d.s.state.doseOrder = append(d.s.state.doseOrder, dose.ID)
	return nil
}

func (d *doseStore) ListByUser(ctx context.Context, userID string) ([]model.Dose, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var out []model.Dose
	for _, id := range d.s.state.doseOrder {
		dose := d.s.state.doses[id]
		if dose.UserID == userID {
			out = append(out, dose)
		}
	}
	return out, nil
}

type siteDirectory struct {
	s  *Store
	tx bool
}

func (d *siteDirectory) Create(ctx context.Context, site *model.Site) error {
	defer d.s.writeLock(d.tx)()
	d.s.state.sites[site.ID] = *site
	return nil
}

func (d *siteDirectory) Get(ctx context.Context, siteID string) (*model.Site, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	site, ok := d.s.state.sites[siteID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &site, nil
}

func copyReservation(res model.Reservation) *model.Reservation {
	if res.DoseID != nil {
		id := *res.DoseID
		res.DoseID = &id
	}
	return &res
}
