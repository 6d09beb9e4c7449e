package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/wealthmap/internal/database"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

// ViewRepository defines the interface for saved view persistence.
type ViewRepository interface {
	// Create inserts a view. The caller assigns ID and CreatedAt.
	Create(ctx context.Context, v *models.SavedView) error

	// ListVisible returns the user's own views plus the company views of orgID,
	// newest first. An empty orgID yields only the user's views.
	ListVisible(ctx context.Context, userID, orgID string) ([]models.SavedView, error)

	// FindByID returns nil, nil when the view does not exist.
	FindByID(ctx context.Context, id string) (*models.SavedView, error)

	// Delete removes a view created by createdBy and reports whether a row went away.
	Delete(ctx context.Context, id, createdBy string) (bool, error)
}

type viewRepository struct {
	db *database.Database
}

// NewViewRepository creates a new instance of ViewRepository.
func NewViewRepository(db *database.Database) ViewRepository {
	return &viewRepository{db: db}
}

const viewColumns = `
	id::text,
	name,
	scope,
	created_by,
	COALESCE(org_id, ''),
	center_lat,
	center_lng,
	zoom,
	filters,
	layers,
	created_at`

func (r *viewRepository) Create(ctx context.Context, v *models.SavedView) error {
	filters, err := json.Marshal(v.Filters)
	if err != nil {
		return fmt.Errorf("failed to encode view filters: %w", err)
	}
	layers, err := json.Marshal(v.Layers)
	if err != nil {
		return fmt.Errorf("failed to encode view layers: %w", err)
	}

	var orgID *string
	if v.OrgID != "" {
		orgID = &v.OrgID
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO saved_views (
			id, name, scope, created_by, org_id, center_lat, center_lng, zoom,
			filters, layers, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb, $11)`,
		v.ID, v.Name, string(v.Scope), v.CreatedBy, orgID, v.Center.Lat, v.Center.Lng, v.Zoom,
		string(filters), string(layers), v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert saved view %s: %w", v.ID, err)
	}
	return nil
}

func (r *viewRepository) ListVisible(ctx context.Context, userID, orgID string) ([]models.SavedView, error) {
	query := "SELECT" + viewColumns + `
		FROM saved_views
		WHERE created_by = $1
		   OR (scope = 'company' AND $2 <> '' AND org_id = $2)
		ORDER BY created_at DESC, id`

	rows, err := r.db.Pool.Query(ctx, query, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved views for user %s: %w", userID, err)
	}
	defer rows.Close()

	views := []models.SavedView{}
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved view row: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved view rows: %w", err)
	}
	return views, nil
}

func (r *viewRepository) FindByID(ctx context.Context, id string) (*models.SavedView, error) {
	query := "SELECT" + viewColumns + "\nFROM saved_views\nWHERE id = $1"

	v, err := scanView(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query saved view %s: %w", id, err)
	}
	return &v, nil
}

func (r *viewRepository) Delete(ctx context.Context, id, createdBy string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM saved_views WHERE id = $1 AND created_by = $2`, id, createdBy)
	if err != nil {
		return false, fmt.Errorf("failed to delete saved view %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanView(row pgx.Row) (models.SavedView, error) {
	var (
		v     models.SavedView
		scope string
	)
	err := row.Scan(
		&v.ID,
		&v.Name,
		&scope,
		&v.CreatedBy,
		&v.OrgID,
		&v.Center.Lat,
		&v.Center.Lng,
		&v.Zoom,
		&v.Filters,
		&v.Layers,
		&v.CreatedAt,
	)
	v.Scope = models.Scope(scope)
	return v, err
}
