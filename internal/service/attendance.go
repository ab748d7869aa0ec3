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

// AttendanceService orchestrates "record an administered dose".
type AttendanceService struct {
	store  store.Store
	sites  store.SiteDirectory
	events events.Publisher
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(st store.Store, sites store.SiteDirectory, pub events.Publisher) *AttendanceService {
	return &AttendanceService{store: st, sites: sites, events: pub}
}

// RecordDose records the dose, credits the slot's applied-dose counter, and,
// if the user holds an open reservation for the same site and day, marks it
// fulfilled. A dose with no prior reservation is a valid walk-in. All steps
// share one transaction, so a dose is never recorded without its counter
// side effect. store.ErrSlotNotFound if no capacity slot was ever seeded for
// the target site/day.
func (s *AttendanceService) RecordDose(ctx context.Context, req model.RecordDoseRequest) (*model.Dose, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.SiteID = strings.TrimSpace(req.SiteID)
	req.AdministeredBy = strings.TrimSpace(req.AdministeredBy)
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if req.SiteID == "" {
		return nil, fmt.Errorf("site id is required")
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	if req.DoseNumber < 1 {
		return nil, fmt.Errorf("dose number must be a positive integer")
	}
	if !req.Product.Valid() {
		return nil, fmt.Errorf("unknown product %q", req.Product)
	}
	if req.AdministeredBy == "" {
		return nil, fmt.Errorf("administering professional is required")
	}

	var created *model.Dose
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		site, err := s.sites.Get(ctx, req.SiteID)
		if err != nil {
			return fmt.Errorf("lookup site: %w", err)
		}

		dose := &model.Dose{
			ID:             uuid.New().String(),
			UserID:         req.UserID,
			SiteID:         req.SiteID,
			Date:           req.Date,
			SiteName:       site.Name,
			DoseNumber:     req.DoseNumber,
			Product:        req.Product,
			AdministeredBy: req.AdministeredBy,
			CreatedAt:      time.Now().UTC(),
		}
		if err := tx.Doses().Create(ctx, dose); err != nil {
			return err
		}

		if err := tx.Capacity().RecordApplied(ctx, req.SiteID, req.Date); err != nil {
			return err
		}

		reservation, err := tx.Reservations().FindOpen(ctx, req.UserID, req.SiteID, req.Date)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Walk-in: no reservation to fulfill.
				created = dose
				return nil
			}
			return fmt.Errorf("find reservation: %w", err)
		}
		if err := tx.Reservations().MarkFulfilled(ctx, reservation.ID, dose.ID); err != nil {
			return err
		}
		created = dose
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.DosesRecorded.Inc()
	if err := s.events.Publish(ctx, events.KeyDoseRecorded, created); err != nil {
		log.Printf("publish %s: %v", events.KeyDoseRecorded, err)
	}
	return created, nil
}

// ListDoses returns a user's dose records.
func (s *AttendanceService) ListDoses(ctx context.Context, userID string) ([]model.Dose, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.store.Doses().ListByUser(ctx, userID)
}
