package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/wealthmap/internal/database"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

// FavoriteRepository defines the interface for account-level favorites.
type FavoriteRepository interface {
	// Add is idempotent; re-adding keeps the original timestamp.
	Add(ctx context.Context, userID, propertyID string, at time.Time) error
	Remove(ctx context.Context, userID, propertyID string) error
	// ListByUser returns favorites newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Favorite, error)
}

type favoriteRepository struct {
	db *database.Database
}

// NewFavoriteRepository creates a new instance of FavoriteRepository.
func NewFavoriteRepository(db *database.Database) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, propertyID string, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO favorites (user_id, property_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, property_id) DO NOTHING`,
		userID, propertyID, at,
	)
	if err != nil {
		return fmt.Errorf("failed to add favorite %s for user %s: %w", propertyID, userID, err)
	}
	return nil
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, propertyID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND property_id = $2`, userID, propertyID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite %s for user %s: %w", propertyID, userID, err)
	}
	return nil
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT user_id, property_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC, property_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites for user %s: %w", userID, err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.UserID, &f.PropertyID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite rows: %w", err)
	}
	return favorites, nil
}
