package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2022-08-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got := d.String(); got != "2022-08-01" {
		t.Fatalf("String() = %q, want %q", got, "2022-08-01")
	}
	if _, err := ParseDate("01/08/2022"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestDateOfTruncates(t *testing.T) {
	d := DateOf(time.Date(2022, 8, 1, 17, 45, 12, 0, time.UTC))
	if !d.Equal(NewDate(2022, time.August, 1)) {
		t.Fatalf("DateOf did not truncate to day: %v", d)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
	}
	in := payload{Date: NewDate(2022, time.August, 10)}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"date":"2022-08-10"}` {
		t.Fatalf("unexpected JSON: %s", b)
	}
	var out payload
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Date.Equal(in.Date) {
		t.Fatalf("round trip mismatch: %v != %v", out.Date, in.Date)
	}
	if err := json.Unmarshal([]byte(`{"date":42}`), &out); err == nil {
		t.Fatal("expected error for numeric date")
	}
}

func TestProductValid(t *testing.T) {
	for _, p := range []Product{ProductPfizer, ProductAstraZeneca, ProductCoronaVac, ProductJanssen} {
		if !p.Valid() {
			t.Errorf("%q should be valid", p)
		}
	}
	if Product("sputnik").Valid() {
		t.Error("unknown product should not be valid")
	}
}

func TestCapacitySlotOpen(t *testing.T) {
	slot := CapacitySlot{RemainingCapacity: 1, IsAvailable: true}
	if !slot.Open() {
		t.Error("slot with capacity should be open")
	}
	slot.RemainingCapacity = 0
	if slot.Open() {
		t.Error("exhausted slot should not be open")
	}
	slot.RemainingCapacity = 10
	slot.IsAvailable = false
	if slot.Open() {
		t.Error("closed slot should not be open")
	}
}
