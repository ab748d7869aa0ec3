package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vacinajp/vacinajp/internal/model"
	"github.com/vacinajp/vacinajp/internal/store"
)

// ReservationRepository handles persistence for reservations.
type ReservationRepository struct {
	q Querier
}

// Create inserts a new reservation.
func (r *ReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO reservations (id, user_id, site_id, date, site_name, fulfilled, dose_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reservation.ID, reservation.UserID, reservation.SiteID, reservation.Date.Time(),
		reservation.SiteName, reservation.Fulfilled, reservation.DoseID, reservation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// FindOpen returns the oldest unfulfilled reservation for the given user,
// site, and day, or store.ErrNotFound.
func (r *ReservationRepository) FindOpen(ctx context.Context, userID, siteID string, date model.Date) (*model.Reservation, error) {
	row := r.q.QueryRow(ctx,
		`SELECT id, user_id, site_id, date, site_name, fulfilled, dose_id, created_at
		 FROM reservations
		 WHERE user_id = $1 AND site_id = $2 AND date = $3 AND NOT fulfilled
		 ORDER BY created_at ASC
		 LIMIT 1`,
		userID, siteID, date.Time(),
	)
	reservation, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find open reservation: %w", err)
	}
	return reservation, nil
}

// MarkFulfilled closes the reservation and records the fulfilling dose.
func (r *ReservationRepository) MarkFulfilled(ctx context.Context, reservationID, doseID string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE reservations SET fulfilled = TRUE, dose_id = $2 WHERE id = $1`,
		reservationID, doseID,
	)
	if err != nil {
		return fmt.Errorf("mark reservation fulfilled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListByUser returns all reservations for a user, oldest first.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, user_id, site_id, date, site_name, fulfilled, dose_id, created_at
		 FROM reservations
		 WHERE user_id = $1
		 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, *reservation)
	}
	return reservations, rows.Err()
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var (
		res  model.Reservation
		date time.Time
	)
	if err := row.Scan(&res.ID, &res.UserID, &res.SiteID, &date, &res.SiteName, &res.Fulfilled, &res.DoseID, &res.CreatedAt); err != nil {
		return nil, err
	}
	res.Date = model.DateOf(date)
	return &res, nil
}
