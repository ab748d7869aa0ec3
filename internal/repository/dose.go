package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vacinajp/vacinajp/internal/model"
)

// DoseRepository handles persistence for dose-administration records.
// Doses are append-only; there is no update path.
type DoseRepository struct {
	q Querier
}

// Create inserts a new dose record.
func (r *DoseRepository) Create(ctx context.Context, dose *model.Dose) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO doses (id, user_id, site_id, date, site_name, dose_number, product, administered_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		dose.ID, dose.UserID, dose.SiteID, dose.Date.Time(), dose.SiteName,
		dose.DoseNumber, dose.Product, dose.AdministeredBy, dose.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dose: %w", err)
	}
	return nil
}

// ListByUser returns a user's doses, oldest first.
func (r *DoseRepository) ListByUser(ctx context.Context, userID string) ([]model.Dose, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, user_id, site_id, date, site_name, dose_number, product, administered_by, created_at
		 FROM doses
		 WHERE user_id = $1
		 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list doses: %w", err)
	}
	defer rows.Close()

	var doses []model.Dose
	for rows.Next() {
		var (
			d    model.Dose
			date time.Time
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.SiteID, &date, &d.SiteName, &d.DoseNumber, &d.Product, &d.AdministeredBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dose: %w", err)
		}
		d.Date = model.DateOf(date)
		doses = append(doses, d)
	}
	return doses, rows.Err()
}
