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

// SearchRepository defines the interface for saved search persistence.
type SearchRepository interface {
	Create(ctx context.Context, s *models.SavedSearch) error
	// ListByUser returns the user's searches, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.SavedSearch, error)
	// FindByID returns nil, nil when the search does not exist or belongs to someone else.
	FindByID(ctx context.Context, id, userID string) (*models.SavedSearch, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
}

type searchRepository struct {
	db *database.Database
}

// NewSearchRepository creates a new instance of SearchRepository.
func NewSearchRepository(db *database.Database) SearchRepository {
	return &searchRepository{db: db}
}

func (r *searchRepository) Create(ctx context.Context, s *models.SavedSearch) error {
	filters, err := json.Marshal(s.Filters)
	if err != nil {
		return fmt.Errorf("failed to encode search filters: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO saved_searches (id, user_id, name, filters, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5)`,
		s.ID, s.UserID, s.Name, string(filters), s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert saved search %s: %w", s.ID, err)
	}
	return nil
}

func (r *searchRepository) ListByUser(ctx context.Context, userID string) ([]models.SavedSearch, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, user_id, name, filters, created_at
		FROM saved_searches
		WHERE user_id = $1
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved searches for user %s: %w", userID, err)
	}
	defer rows.Close()

	searches := []models.SavedSearch{}
	for rows.Next() {
		var s models.SavedSearch
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Filters, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved search row: %w", err)
		}
		searches = append(searches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved search rows: %w", err)
	}
	return searches, nil
}

func (r *searchRepository) FindByID(ctx context.Context, id, userID string) (*models.SavedSearch, error) {
	var s models.SavedSearch
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id::text, user_id, name, filters, created_at
		FROM saved_searches
		WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&s.ID, &s.UserID, &s.Name, &s.Filters, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query saved search %s: %w", id, err)
	}
	return &s, nil
}

func (r *searchRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM saved_searches WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete saved search %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
