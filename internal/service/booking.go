// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the storage layer. Each operation that touches
// more than one record runs inside a single transaction scope; any failure
// rolls the whole unit back.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vacinajp/vacinajp/internal/events"
	"github.com/vacinajp/vacinajp/internal/metrics"
	"github.com/vacinajp/vacinajp/internal/model"
	"github.com/vacinajp/vacinajp/internal/store"
)

// BookingService orchestrates "reserve a schedule slot".
type BookingService struct {
	store  store.Store
	sites  store.SiteDirectory
	events events.Publisher
}

// NewBookingService constructs a BookingService. sites may be a cached
// directory; it is read-only within the booking flow.
func NewBookingService(st store.Store, sites store.SiteDirectory, pub events.Publisher) *BookingService {
	return &BookingService{store: st, sites: sites, events: pub}
}

// Reserve books one unit of the slot's capacity for the user and returns the
// created reservation. The capacity debit and the reservation insert are one
// atomic unit: if anything after the debit fails, the debit rolls back too.
// Exhausted or closed slots surface store.ErrCapacityUnavailable with no
// side effects.
func (s *BookingService) Reserve(ctx context.Context, userID, siteID string, date model.Date) (*model.Reservation, error) {
	userID = strings.TrimSpace(userID)
	siteID = strings.TrimSpace(siteID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if siteID == "" {
		return nil, fmt.Errorf("site id is required")
	}
	if date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}

	var created *model.Reservation
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if _, err := tx.Capacity().TryReserve(ctx, siteID, date); err != nil {
			return err
		}

		site, err := s.sites.Get(ctx, siteID)
		if err != nil {
			return fmt.Errorf("lookup site: %w", err)
		}

		reservation := &model.Reservation{
			ID:        uuid.New().String(),
			UserID:    userID,
			SiteID:    siteID,
			Date:      date,
			SiteName:  site.Name,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Reservations().Create(ctx, reservation); err != nil {
			return err
		}
		created = reservation
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrCapacityUnavailable) {
			metrics.ReservationsRejected.Inc()
		}
		return nil, err
	}

	metrics.ReservationsCreated.Inc()
	if err := s.events.Publish(ctx, events.KeyReservationCreated, created); err != nil {
		log.Printf("publish %s: %v", events.KeyReservationCreated, err)
	}
	return created, nil
}

// AvailableSlots returns the slots still open for booking on a day.
func (s *BookingService) AvailableSlots(ctx context.Context, date model.Date) ([]model.CapacitySlot, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	return s.store.Capacity().ListAvailable(ctx, date)
}

// ListReservations returns a user's reservations.
func (s *BookingService) ListReservations(ctx context.Context, userID string) ([]model.Reservation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.store.Reservations().ListByUser(ctx, userID)
}
