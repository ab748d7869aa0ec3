package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vacinajp/vacinajp/internal/model"
	"github.com/vacinajp/vacinajp/internal/store"
)

// CapacityRepository is the PostgreSQL capacity ledger.
//
// TryReserve and Adjust are single conditional UPDATEs: the capacity
// predicate lives in the WHERE clause, so the database either applies the
// mutation against a row that still satisfies it or touches nothing. Two
// concurrent bookings for the last remaining slot can never both succeed,
// with no row locks held across round trips.
type CapacityRepository struct {
	q Querier
}

// Create inserts a fresh slot. The remaining capacity starts equal to the
// total; ErrSlotExists if the (site, date) pair is already seeded.
func (r *CapacityRepository) Create(ctx context.Context, slot *model.CapacitySlot) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO capacity_slots (site_id, date, total_capacity, remaining_capacity, is_available, applied_count)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		slot.SiteID, slot.Date.Time(), slot.TotalCapacity, slot.RemainingCapacity, slot.IsAvailable, slot.AppliedCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrSlotExists
		}
		return fmt.Errorf("insert capacity slot: %w", err)
	}
	return nil
}

// Get returns a single slot or ErrSlotNotFound.
func (r *CapacityRepository) Get(ctx context.Context, siteID string, date model.Date) (*model.CapacitySlot, error) {
	row := r.q.QueryRow(ctx,
		`SELECT site_id, date, total_capacity, remaining_capacity, is_available, applied_count
		 FROM capacity_slots
		 WHERE site_id = $1 AND date = $2`,
		siteID, date.Time(),
	)
	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSlotNotFound
		}
		return nil, fmt.Errorf("get capacity slot: %w", err)
	}
	return slot, nil
}

// ListAvailable returns the day's slots still accepting reservations.
func (r *CapacityRepository) ListAvailable(ctx context.Context, date model.Date) ([]model.CapacitySlot, error) {
	rows, err := r.q.Query(ctx,
		`SELECT site_id, date, total_capacity, remaining_capacity, is_available, applied_count
		 FROM capacity_slots
		 WHERE date = $1 AND is_available AND remaining_capacity > 0
		 ORDER BY site_id`,
		date.Time(),
	)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	defer rows.Close()

	var slots []model.CapacitySlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan capacity slot: %w", err)
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

// TryReserve consumes one unit of remaining capacity. The availability and
// capacity checks are part of the UPDATE itself; when the predicate no
// longer holds the statement matches zero rows and the slot is untouched.
func (r *CapacityRepository) TryReserve(ctx context.Context, siteID string, date model.Date) (*model.CapacitySlot, error) {
	row := r.q.QueryRow(ctx,
		`UPDATE capacity_slots
		 SET remaining_capacity = remaining_capacity - 1
		 WHERE site_id = $1 AND date = $2
		   AND is_available AND remaining_capacity > 0
		 RETURNING site_id, date, total_capacity, remaining_capacity, is_available, applied_count`,
		siteID, date.Time(),
	)
	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCapacityUnavailable
		}
		return nil, fmt.Errorf("reserve capacity: %w", err)
	}
	return slot, nil
}

// RecordApplied increments the applied-dose counter.
func (r *CapacityRepository) RecordApplied(ctx context.Context, siteID string, date model.Date) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE capacity_slots
		 SET applied_count = applied_count + 1
		 WHERE site_id = $1 AND date = $2`,
		siteID, date.Time(),
	)
	if err != nil {
		return fmt.Errorf("record applied dose: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrSlotNotFound
	}
	return nil
}

// Adjust applies the change as one combined conditional update. "Zero rows
// modified" is a reportable failure, never a silent success: it means either
// the slot does not exist or a negative delta failed the non-negative gate.
func (r *CapacityRepository) Adjust(ctx context.Context, siteID string, date model.Date, change model.CapacityChange) error {
	if change.Empty() {
		return fmt.Errorf("%w: no modifications to perform", store.ErrAdjustmentRejected)
	}

	sets := ""
	where := `site_id = $1 AND date = $2`
	args := []any{siteID, date.Time()}

	if change.Delta != nil {
		delta := "$" + strconv.Itoa(len(args)+1)
		args = append(args, *change.Delta)
		sets = `remaining_capacity = remaining_capacity + ` + delta +
			`, total_capacity = total_capacity + ` + delta
		if *change.Delta < 0 {
			where += ` AND remaining_capacity >= -` + delta
		}
	}
	if change.Available != nil {
		if sets != "" {
			sets += ", "
		}
		sets += `is_available = $` + strconv.Itoa(len(args)+1)
		args = append(args, *change.Available)
	}

	tag, err := r.q.Exec(ctx,
		`UPDATE capacity_slots SET `+sets+` WHERE `+where,
		args...,
	)
	if err != nil {
		return fmt.Errorf("adjust capacity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no modifications have been made", store.ErrAdjustmentRejected)
	}
	return nil
}

func scanSlot(row pgx.Row) (*model.CapacitySlot, error) {
	var (
		s    model.CapacitySlot
		date time.Time
	)
	if err := row.Scan(&s.SiteID, &date, &s.TotalCapacity, &s.RemainingCapacity, &s.IsAvailable, &s.AppliedCount); err != nil {
		return nil, err
	}
	s.Date = model.DateOf(date)
	return &s, nil
}
