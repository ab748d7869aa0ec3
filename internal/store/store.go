// Package store defines the persistence contracts the coordinating services
// depend on. Two implementations exist: the PostgreSQL store in
// internal/repository and the in-memory store in internal/memstore.
package store

import (
	"context"
	"errors"

	"github.com/vacinajp/vacinajp/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrSlotNotFound is returned when no capacity slot exists for a site/day.
var ErrSlotNotFound = errors.New("capacity slot not found")

// ErrCapacityUnavailable is returned when a reservation is attempted against
// an exhausted or closed slot.
var ErrCapacityUnavailable = errors.New("schedule not available for this date and vaccination site")

// ErrAdjustmentRejected is returned when a capacity adjustment carries no
// changes or its gated condition matched no record.
var ErrAdjustmentRejected = errors.New("capacity adjustment rejected")

// ErrSlotExists is returned when creating a capacity slot that already exists.
var ErrSlotExists = errors.New("capacity slot already exists")

// CapacityLedger owns the per-site-per-day capacity records and exposes
// atomic read-check-mutate primitives. TryReserve and Adjust must be
// evaluated by the storage engine as single conditional updates; a separate
// read followed by a separate write reintroduces the lost-update race
// between concurrent bookings for the last remaining slot.
type CapacityLedger interface {
	// Create inserts a fresh slot with RemainingCapacity == TotalCapacity.
	Create(ctx context.Context, slot *model.CapacitySlot) error

	// Get returns the slot for (siteID, date) or ErrSlotNotFound.
	Get(ctx context.Context, siteID string, date model.Date) (*model.CapacitySlot, error)

	// ListAvailable returns the day's slots still accepting reservations,
	// ordered by site.
	ListAvailable(ctx context.Context, date model.Date) ([]model.CapacitySlot, error)

	// TryReserve atomically decrements RemainingCapacity by one, but only
	// if the slot is available and has capacity left. It returns the
	// updated slot, or ErrCapacityUnavailable with no mutation.
	TryReserve(ctx context.Context, siteID string, date model.Date) (*model.CapacitySlot, error)

	// RecordApplied atomically increments AppliedCount by one. A dose
	// administered is a fact, not a forecast, so there is no capacity
	// check; ErrSlotNotFound if the slot does not exist.
	RecordApplied(ctx context.Context, siteID string, date model.Date) error

	// Adjust applies an availability override and/or a capacity delta as
	// one conditional update. A negative delta is gated on
	// RemainingCapacity >= -delta so the result can never go negative.
	// ErrAdjustmentRejected if the change is empty or no record was
	// modified.
	Adjust(ctx context.Context, siteID string, date model.Date, change model.CapacityChange) error
}

// ReservationStore owns reservation records.
type ReservationStore interface {
	Create(ctx context.Context, reservation *model.Reservation) error

	// FindOpen returns the oldest unfulfilled reservation for
	// (userID, siteID, date), or ErrNotFound.
	FindOpen(ctx context.Context, userID, siteID string, date model.Date) (*model.Reservation, error)

	// MarkFulfilled sets Fulfilled and records the fulfilling dose.
	MarkFulfilled(ctx context.Context, reservationID, doseID string) error

	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
}

// DoseStore owns immutable dose-administration records.
type DoseStore interface {
	Create(ctx context.Context, dose *model.Dose) error
	ListByUser(ctx context.Context, userID string) ([]model.Dose, error)
}

// SiteDirectory resolves vaccination sites by ID.
type SiteDirectory interface {
	Create(ctx context.Context, site *model.Site) error

	// Get returns the site or ErrNotFound.
	Get(ctx context.Context, siteID string) (*model.Site, error)
}

// Store bundles the record stores with a transaction scope. RunInTransaction
// executes fn against a transaction-bound Store; any error from fn rolls the
// whole unit back so no partial state is ever visible. Calling
// RunInTransaction on an already transaction-bound Store joins the open
// transaction.
type Store interface {
	Capacity() CapacityLedger
	Reservations() ReservationStore
	Doses() DoseStore
	Sites() SiteDirectory

	RunInTransaction(ctx context.Context, fn func(Store) error) error
}
