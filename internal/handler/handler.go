// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vacinajp/vacinajp/internal/model"
	"github.com/vacinajp/vacinajp/internal/service"
	"github.com/vacinajp/vacinajp/internal/store"
)

// Handler holds all HTTP handlers for the vaccination scheduling API.
type Handler struct {
	booking    *service.BookingService
	attendance *service.AttendanceService
	admin      *service.AdminService
}

// New constructs a Handler.
func New(booking *service.BookingService, attendance *service.AttendanceService, admin *service.AdminService) *Handler {
	return &Handler{booking: booking, attendance: attendance, admin: admin}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func dateParam(r *http.Request) (model.Date, error) {
	return model.ParseDate(chi.URLParam(r, "date"))
}

// ─── Schedules ────────────────────────────────────────────────────────────────

// Reserve handles POST /schedules
// Books one unit of a slot's capacity for a user.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req model.ReserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reservation, err := h.booking.Reserve(r.Context(), req.UserID, req.SiteID, req.Date)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCapacityUnavailable):
			writeError(w, http.StatusConflict, "schedule not available for this date and vaccination site")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "vaccination site not found")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

// ListReservations handles GET /users/{userID}/schedules
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.booking.ListReservations(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	writeJSON(w, http.StatusOK, reservations)
}

// ─── Vaccines ─────────────────────────────────────────────────────────────────

// RecordDose handles POST /vaccines
// Records an administered dose and fulfills the matching reservation, if any.
func (h *Handler) RecordDose(w http.ResponseWriter, r *http.Request) {
	var req model.RecordDoseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dose, err := h.attendance.RecordDose(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSlotNotFound):
			writeError(w, http.StatusNotFound, "no capacity slot for this date and vaccination site")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "vaccination site not found")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, dose)
}

// ListDoses handles GET /users/{userID}/vaccines
func (h *Handler) ListDoses(w http.ResponseWriter, r *http.Request) {
	doses, err := h.attendance.ListDoses(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list doses")
		return
	}
	if doses == nil {
		doses = []model.Dose{}
	}
	writeJSON(w, http.StatusOK, doses)
}

// ─── Calendar ─────────────────────────────────────────────────────────────────

// ListAvailableSlots handles GET /calendar/{date}
// Lists the slots still open for booking on the given day.
func (h *Handler) ListAvailableSlots(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	slots, err := h.booking.AvailableSlots(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list available slots")
		return
	}
	if slots == nil {
		slots = []model.CapacitySlot{}
	}
	writeJSON(w, http.StatusOK, slots)
}

// GetSlot handles GET /calendar/{siteID}/{date}
func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	slot, err := h.admin.GetSlot(r.Context(), chi.URLParam(r, "siteID"), date)
	if err != nil {
		if errors.Is(err, store.ErrSlotNotFound) {
			writeError(w, http.StatusNotFound, "capacity slot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get capacity slot")
		return
	}

	writeJSON(w, http.StatusOK, slot)
}

// AdjustCapacity handles PATCH /admin/calendar/{siteID}/{date}
// Applies an availability override and/or capacity delta. A rejected
// adjustment is unprocessable, not a silent no-op.
func (h *Handler) AdjustCapacity(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	var change model.CapacityChange
	if err := decodeJSON(r, &change); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.admin.AdjustCapacity(r.Context(), chi.URLParam(r, "siteID"), date, change); err != nil {
		if errors.Is(err, store.ErrAdjustmentRejected) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateSlot handles POST /admin/calendar
func (h *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	slot, err := h.admin.CreateSlot(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSlotExists):
			writeError(w, http.StatusConflict, "capacity slot already exists")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "vaccination site not found")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, slot)
}

// ─── Sites ────────────────────────────────────────────────────────────────────

// CreateSite handles POST /admin/sites
func (h *Handler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSiteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	site, err := h.admin.CreateSite(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, site)
}

// GetSite handles GET /sites/{siteID}
func (h *Handler) GetSite(w http.ResponseWriter, r *http.Request) {
	site, err := h.admin.GetSite(r.Context(), chi.URLParam(r, "siteID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "vaccination site not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get site")
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
