package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vacinajp/vacinajp/internal/model"
	"github.com/vacinajp/vacinajp/internal/store"
)

// SiteRepository handles persistence for the vaccination-site directory.
type SiteRepository struct {
	q Querier
}

// Create inserts a new site.
func (r *SiteRepository) Create(ctx context.Context, site *model.Site) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO sites (id, name, street_name, street_number, neighborhood)
		 VALUES ($1, $2, $3, $4, $5)`,
		site.ID, site.Name, site.StreetName, site.StreetNumber, site.Neighborhood,
	)
	if err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

// Get returns a single site or store.ErrNotFound.
func (r *SiteRepository) Get(ctx context.Context, siteID string) (*model.Site, error) {
	var site model.Site
	err := r.q.QueryRow(ctx,
		`SELECT id, name, street_name, street_number, neighborhood
		 FROM sites WHERE id = $1`,
		siteID,
	).Scan(&site.ID, &site.Name, &site.StreetName, &site.StreetNumber, &site.Neighborhood)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get site: %w", err)
	}
	return &site, nil
}
