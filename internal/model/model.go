// Package model defines the core domain types for the vaccination
// scheduling system.
package model

import "time"

// Product enumerates the vaccine manufacturers the system accepts.
type Product string

const (
	ProductPfizer      Product = "pfizer"
	ProductAstraZeneca Product = "astrazeneca"
	ProductCoronaVac   Product = "coronavac"
	ProductJanssen     Product = "janssen"
)

// Valid reports whether p is a known manufacturer.
func (p Product) Valid() bool {
	switch p {
	case ProductPfizer, ProductAstraZeneca, ProductCoronaVac, ProductJanssen:
		return true
	}
	return false
}

// CapacitySlot is the per-site, per-day record of appointment capacity.
// RemainingCapacity never exceeds TotalCapacity and never goes negative;
// AppliedCount only ever increases.
type CapacitySlot struct {
	SiteID            string `json:"site_id"`
	Date              Date   `json:"date"`
	TotalCapacity     int    `json:"total_capacity"`
	RemainingCapacity int    `json:"remaining_capacity"`
	IsAvailable       bool   `json:"is_available"`
	AppliedCount      int    `json:"applied_count"`
}

// Open reports whether the slot can accept a new reservation.
func (s *CapacitySlot) Open() bool {
	return s.IsAvailable && s.RemainingCapacity > 0
}

// Reservation is a user's claim on one unit of a capacity slot.
// SiteName is a snapshot taken at booking time; it is not updated if the
// site record later changes name.
type Reservation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SiteID    string    `json:"site_id"`
	Date      Date      `json:"date"`
	SiteName  string    `json:"site_name"`
	Fulfilled bool      `json:"fulfilled"`
	DoseID    *string   `json:"dose_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Dose records that a vaccine was administered. Immutable once created.
type Dose struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	SiteID         string    `json:"site_id"`
	Date           Date      `json:"date"`
	SiteName       string    `json:"site_name"`
	DoseNumber     int       `json:"dose_number"`
	Product        Product   `json:"product"`
	AdministeredBy string    `json:"administered_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// Site is a vaccination site in the directory.
type Site struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StreetName   string `json:"street_name"`
	StreetNumber int    `json:"street_number"`
	Neighborhood string `json:"neighborhood"`
}

// CapacityChange describes an administrative adjustment to a capacity slot.
// At least one field must be set.
type CapacityChange struct {
	Available *bool `json:"is_available,omitempty"`
	Delta     *int  `json:"capacity_delta,omitempty"`
}

// Empty reports whether the change carries no modifications.
func (c CapacityChange) Empty() bool {
	return c.Available == nil && c.Delta == nil
}

// ReserveRequest is the payload for booking a schedule slot.
type ReserveRequest struct {
	UserID string `json:"user_id"`
	SiteID string `json:"site_id"`
	Date   Date   `json:"date"`
}

// RecordDoseRequest is the payload for recording an administered dose.
type RecordDoseRequest struct {
	UserID         string  `json:"user_id"`
	SiteID         string  `json:"site_id"`
	Date           Date    `json:"date"`
	DoseNumber     int     `json:"dose_number"`
	Product        Product `json:"product"`
	AdministeredBy string  `json:"administered_by"`
}

// CreateSlotRequest is the payload for creating a capacity slot.
type CreateSlotRequest struct {
	SiteID        string `json:"site_id"`
	Date          Date   `json:"date"`
	TotalCapacity int    `json:"total_capacity"`
}

// CreateSiteRequest is the payload for registering a vaccination site.
type CreateSiteRequest struct {
	Name         string `json:"name"`
	StreetName   string `json:"street_name"`
	StreetNumber int    `json:"street_number"`
	Neighborhood string `json:"neighborhood"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
