package database

import (
	"context"
	"fmt"
)

// schema creates every table the service owns. Statements are idempotent so
// Migrate can run on each start.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,

	`CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL,
		county TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		zip TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL DEFAULT 0,
		living_space DOUBLE PRECISION NOT NULL DEFAULT 0,
		beds INTEGER NOT NULL DEFAULT 0,
		baths DOUBLE PRECISION NOT NULL DEFAULT 0,
		median_income DOUBLE PRECISION NOT NULL DEFAULT 0,
		population INTEGER NOT NULL DEFAULT 0,
		density DOUBLE PRECISION NOT NULL DEFAULT 0,
		owner_net_worth DOUBLE PRECISION,
		estimated_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		valuations JSONB NOT NULL DEFAULT '[]'::jsonb,
		geom geometry(Point, 4326) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_geom ON properties USING GIST (geom)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_estimated_value ON properties (estimated_value)`,

	`CREATE TABLE IF NOT EXISTS saved_views (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		scope TEXT NOT NULL CHECK (scope IN ('private', 'company')),
		created_by TEXT NOT NULL,
		org_id TEXT,
		center_lat DOUBLE PRECISION NOT NULL,
		center_lng DOUBLE PRECISION NOT NULL,
		zoom INTEGER NOT NULL,
		filters JSONB NOT NULL DEFAULT '{}'::jsonb,
		layers JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_saved_views_created_by ON saved_views (created_by)`,
	`CREATE INDEX IF NOT EXISTS idx_saved_views_org ON saved_views (org_id) WHERE scope = 'company'`,

	`CREATE TABLE IF NOT EXISTS saved_searches (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		filters JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_saved_searches_user ON saved_searches (user_id)`,

	`CREATE TABLE IF NOT EXISTS favorites (
		user_id TEXT NOT NULL,
		property_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, property_id)
	)`,

	`CREATE TABLE IF NOT EXISTS kv_state (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (namespace, key)
	)`,
}

// Migrate applies the schema inside a single transaction.
func (db *Database) Migrate(ctx context.Context) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	for i, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
