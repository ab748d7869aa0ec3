package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vacinajp/vacinajp/internal/events"
	"github.com/vacinajp/vacinajp/internal/memstore"
	"github.com/vacinajp/vacinajp/internal/model"
)

var day = model.NewDate(2022, time.August, 1)

func zeroDate() model.Date { return model.Date{} }

var _ events.Publisher = (*recordingPublisher)(nil)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu        sync.Mutex
	published []string
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, key)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.published...)
}

type fixture struct {
	store      *memstore.Store
	booking    *BookingService
	attendance *AttendanceService
	admin      *AdminService
	publisher  *recordingPublisher
}

// newFixture builds the services over an in-memory store seeded with one
// site and one capacity slot for `day`.
func newFixture(t *testing.T, capacity int, available bool) *fixture {
	t.Helper()
	st := memstore.NewStore()
	ctx := context.Background()

	site := &model.Site{ID: "site-1", Name: "Winford Henry", StreetName: "Rua Santa Luzia", StreetNumber: 701, Neighborhood: "Cristo Redentor"}
	if err := st.Sites().Create(ctx, site); err != nil {
		t.Fatalf("seed site: %v", err)
	}
	slot := &model.CapacitySlot{
		SiteID:            site.ID,
		Date:              day,
		TotalCapacity:     capacity,
		RemainingCapacity: capacity,
		IsAvailable:       available,
	}
	if err := st.Capacity().Create(ctx, slot); err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	pub := &recordingPublisher{}
	return &fixture{
		store:      st,
		booking:    NewBookingService(st, st.Sites(), pub),
		attendance: NewAttendanceService(st, st.Sites(), pub),
		admin:      NewAdminService(st, st.Sites()),
		publisher:  pub,
	}
}

func (f *fixture) slot(t *testing.T) *model.CapacitySlot {
	t.Helper()
	slot, err := f.store.Capacity().Get(context.Background(), "site-1", day)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	return slot
}
