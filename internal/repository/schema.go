package repository

import (
	"context"
	"fmt"
)

// Schema notes: capacity invariants are also enforced by CHECK constraints
// as a last line of defense behind the conditional updates. There is
// deliberately no unique index on reservations(user_id, site_id, date): the
// system has always allowed a user to hold more than one open reservation
// for the same site and day, and lookups take the oldest open one.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sites (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		street_name   TEXT NOT NULL DEFAULT '',
		street_number INT  NOT NULL DEFAULT 0,
		neighborhood  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS capacity_slots (
		site_id            TEXT    NOT NULL,
		date               DATE    NOT NULL,
		total_capacity     INT     NOT NULL CHECK (total_capacity >= 0),
		remaining_capacity INT     NOT NULL CHECK (remaining_capacity >= 0),
		is_available       BOOLEAN NOT NULL DEFAULT TRUE,
		applied_count      INT     NOT NULL DEFAULT 0 CHECK (applied_count >= 0),
		PRIMARY KEY (site_id, date),
		CHECK (remaining_capacity <= total_capacity)
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id         TEXT        PRIMARY KEY,
		user_id    TEXT        NOT NULL,
		site_id    TEXT        NOT NULL,
		date       DATE        NOT NULL,
		site_name  TEXT        NOT NULL,
		fulfilled  BOOLEAN     NOT NULL DEFAULT FALSE,
		dose_id    TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS reservations_user_site_date
		ON reservations (user_id, site_id, date)`,
	`CREATE TABLE IF NOT EXISTS doses (
		id              TEXT        PRIMARY KEY,
		user_id         TEXT        NOT NULL,
		site_id         TEXT        NOT NULL,
		date            DATE        NOT NULL,
		site_name       TEXT        NOT NULL,
		dose_number     INT         NOT NULL CHECK (dose_number >= 1),
		product         TEXT        NOT NULL,
		administered_by TEXT        NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS doses_user ON doses (user_id)`,
}

// Migrate applies the schema DDL. Every statement is idempotent, so running
// it on every startup is safe.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}
