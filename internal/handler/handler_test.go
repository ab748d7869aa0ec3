package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vacinajp/vacinajp/internal/events"
	"github.com/vacinajp/vacinajp/internal/memstore"
	"github.com/vacinajp/vacinajp/internal/model"
	"github.com/vacinajp/vacinajp/internal/service"
)

const testDay = "2022-08-01"

func newTestRouter(t *testing.T, capacity int, available bool) (*chi.Mux, *memstore.Store) {
	t.Helper()
	st := memstore.NewStore()
	ctx := context.Background()

	if err := st.Sites().Create(ctx, &model.Site{ID: "site-1", Name: "Marvin Ford"}); err != nil {
		t.Fatalf("seed site: %v", err)
	}
	day := model.NewDate(2022, time.August, 1)
	err := st.Capacity().Create(ctx, &model.CapacitySlot{
		SiteID: "site-1", Date: day,
		TotalCapacity: capacity, RemainingCapacity: capacity, IsAvailable: available,
	})
	if err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	booking := service.NewBookingService(st, st.Sites(), events.Nop{})
	attendance := service.NewAttendanceService(st, st.Sites(), events.Nop{})
	admin := service.NewAdminService(st, st.Sites())
	h := New(booking, attendance, admin)

	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Post("/schedules", h.Reserve)
	r.Post("/vaccines", h.RecordDose)
	r.Get("/users/{userID}/schedules", h.ListReservations)
	r.Get("/users/{userID}/vaccines", h.ListDoses)
	r.Get("/calendar/{date}", h.ListAvailableSlots)
	r.Get("/calendar/{siteID}/{date}", h.GetSlot)
	r.Get("/sites/{siteID}", h.GetSite)
	r.Post("/admin/sites", h.CreateSite)
	r.Post("/admin/calendar", h.CreateSlot)
	r.Patch("/admin/calendar/{siteID}/{date}", h.AdjustCapacity)
	return r, st
}

func doRequest(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, 1, true)
	rec := doRequest(t, r, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReserveEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, 1, true)
	body := `{"user_id":"user-1","site_id":"site-1","date":"` + testDay + `"}`

	rec := doRequest(t, r, http.MethodPost, "/schedules", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var reservation model.Reservation
	if err := json.Unmarshal(rec.Body.Bytes(), &reservation); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reservation.SiteName != "Marvin Ford" {
		t.Fatalf("site name = %q", reservation.SiteName)
	}

	// Slot now exhausted.
	rec = doRequest(t, r, http.MethodPost, "/schedules", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestReserveEndpointUnknownSite(t *testing.T) {
	r, _ := newTestRouter(t, 1, true)
	// No slot for ghost at all: the capacity check fires first.
	rec := doRequest(t, r, http.MethodPost, "/schedules",
		`{"user_id":"user-1","site_id":"ghost","date":"`+testDay+`"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCreateSlotEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, 1, true)

	rec := doRequest(t, r, http.MethodPost, "/admin/calendar",
		`{"site_id":"site-1","date":"2022-08-02","total_capacity":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	// Same (site, day) again conflicts.
	rec = doRequest(t, r, http.MethodPost, "/admin/calendar",
		`{"site_id":"site-1","date":"2022-08-02","total_capacity":5}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	// Unknown site in the directory.
	rec = doRequest(t, r, http.MethodPost, "/admin/calendar",
		`{"site_id":"ghost","date":"2022-08-02","total_capacity":5}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestReserveEndpointBadBody(t *testing.T) {
	r, _ := newTestRouter(t, 1, true)
	rec := doRequest(t, r, http.MethodPost, "/schedules", `{"user_id":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	rec = doRequest(t, r, http.MethodPost, "/schedules", `{"user_id":"u","site_id":"site-1","date":"not-a-date"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecordDoseEndpoint(t *testing.T) {
	r, st := newTestRouter(t, 5, true)
	body := `{"user_id":"user-1","site_id":"site-1","date":"` + testDay + `","dose_number":1,"product":"pfizer","administered_by":"prof-7"}`

	rec := doRequest(t, r, http.MethodPost, "/vaccines", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	slot, err := st.Capacity().Get(context.Background(), "site-1", model.NewDate(2022, time.August, 1))
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.AppliedCount != 1 {
		t.Fatalf("applied = %d, want 1", slot.AppliedCount)
	}

	// No capacity slot for this day: 404, and nothing recorded.
	rec = doRequest(t, r, http.MethodPost, "/vaccines",
		`{"user_id":"user-1","site_id":"site-1","date":"2022-09-01","dose_number":1,"product":"pfizer","administered_by":"prof-7"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAdjustCapacityEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, 10, true)
	path := "/admin/calendar/site-1/" + testDay

	rec := doRequest(t, r, http.MethodPatch, path, `{"capacity_delta":5}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	// Empty change is unprocessable before any storage call.
	rec = doRequest(t, r, http.MethodPatch, path, `{}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	// Overdraw hits the non-negative gate.
	rec = doRequest(t, r, http.MethodPatch, path, `{"capacity_delta":-100}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, r, http.MethodPatch, "/admin/calendar/site-1/not-a-date", `{"capacity_delta":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetSlotEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, 10, true)

	rec := doRequest(t, r, http.MethodGet, "/calendar/site-1/"+testDay, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var slot model.CapacitySlot
	if err := json.Unmarshal(rec.Body.Bytes(), &slot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if slot.RemainingCapacity != 10 {
		t.Fatalf("remaining = %d", slot.RemainingCapacity)
	}

	rec = doRequest(t, r, http.MethodGet, "/calendar/site-1/2030-01-01", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListAvailableSlotsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, 10, true)

	rec := doRequest(t, r, http.MethodGet, "/calendar/"+testDay, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var slots []model.CapacitySlot
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(slots) != 1 || slots[0].SiteID != "site-1" {
		t.Fatalf("slots = %+v, want the seeded slot", slots)
	}

	// A day with nothing open is an empty array, not null.
	rec = doRequest(t, r, http.MethodGet, "/calendar/2030-01-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q, want []", got)
	}

	rec = doRequest(t, r, http.MethodGet, "/calendar/not-a-date", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListEndpointsReturnEmptyArrays(t *testing.T) {
	r, _ := newTestRouter(t, 10, true)

	for _, path := range []string{"/users/nobody/schedules", "/users/nobody/vaccines"} {
		rec := doRequest(t, r, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Fatalf("%s body = %q, want []", path, got)
		}
	}
}

func TestSiteEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, 10, true)

	rec := doRequest(t, r, http.MethodPost, "/admin/sites", `{"name":"Waldo Hawkins","street_name":"Rua Sao Francisco","street_number":67,"neighborhood":"Centro"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var site model.Site
	if err := json.Unmarshal(rec.Body.Bytes(), &site); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doRequest(t, r, http.MethodGet, "/sites/"+site.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doRequest(t, r, http.MethodGet, "/sites/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
