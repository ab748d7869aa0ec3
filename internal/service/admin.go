package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vacinajp/vacinajp/internal/metrics"
	"github.com/vacinajp/vacinajp/internal/model"
	"github.com/vacinajp/vacinajp/internal/store"
)

// AdminService covers the operator surface: capacity adjustments and
// creation of slots and sites.
type AdminService struct {
	store store.Store
	sites store.SiteDirectory
}

// NewAdminService constructs an AdminService.
func NewAdminService(st store.Store, sites store.SiteDirectory) *AdminService {
	return &AdminService{store: st, sites: sites}
}

// AdjustCapacity applies an availability override and/or a capacity delta to
// one slot. An empty change is rejected before any storage call; a change
// whose gated condition matches no record surfaces the same
// store.ErrAdjustmentRejected so the caller can report it instead of
// treating it as a silent no-op.
func (s *AdminService) AdjustCapacity(ctx context.Context, siteID string, date model.Date, change model.CapacityChange) error {
	if strings.TrimSpace(siteID) == "" {
		return fmt.Errorf("site id is required")
	}
	if date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if change.Empty() {
		metrics.AdjustmentsRejected.Inc()
		return fmt.Errorf("%w: no modifications to perform", store.ErrAdjustmentRejected)
	}

	if err := s.store.Capacity().Adjust(ctx, siteID, date, change); err != nil {
		if errors.Is(err, store.ErrAdjustmentRejected) {
			metrics.AdjustmentsRejected.Inc()
		}
		return err
	}
	metrics.AdjustmentsApplied.Inc()
	return nil
}

// GetSlot returns the capacity slot for (siteID, date).
func (s *AdminService) GetSlot(ctx context.Context, siteID string, date model.Date) (*model.CapacitySlot, error) {
	if strings.TrimSpace(siteID) == "" {
		return nil, fmt.Errorf("site id is required")
	}
	if date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	return s.store.Capacity().Get(ctx, siteID, date)
}

// CreateSlot seeds a single capacity slot. New slots open with their full
// capacity remaining.
func (s *AdminService) CreateSlot(ctx context.Context, req model.CreateSlotRequest) (*model.CapacitySlot, error) {
	req.SiteID = strings.TrimSpace(req.SiteID)
	if req.SiteID == "" {
		return nil, fmt.Errorf("site id is required")
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	if req.TotalCapacity < 0 {
		return nil, fmt.Errorf("total capacity must not be negative")
	}
	if _, err := s.sites.Get(ctx, req.SiteID); err != nil {
		return nil, err
	}

	slot := &model.CapacitySlot{
		SiteID:            req.SiteID,
		Date:              req.Date,
		TotalCapacity:     req.TotalCapacity,
		RemainingCapacity: req.TotalCapacity,
		IsAvailable:       true,
	}
	if err := s.store.Capacity().Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// CreateSite registers a vaccination site in the directory.
func (s *AdminService) CreateSite(ctx context.Context, req model.CreateSiteRequest) (*model.Site, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("site name is required")
	}

	site := &model.Site{
		ID:           uuid.New().String(),
		Name:         req.Name,
		StreetName:   req.StreetName,
		StreetNumber: req.StreetNumber,
		Neighborhood: req.Neighborhood,
	}
	if err := s.sites.Create(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// GetSite returns a site from the directory.
func (s *AdminService) GetSite(ctx context.Context, siteID string) (*model.Site, error) {
	if strings.TrimSpace(siteID) == "" {
		return nil, fmt.Errorf("site id is required")
	}
	return s.sites.Get(ctx, siteID)
}
