package services

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/repository"
)

// FavoriteService defines account-level favorite operations.
type FavoriteService interface {
	// Toggle flips the favorite flag of a property and reports the new value.
	// The session's favorite set changes first; a repository failure reverts it.
	Toggle(ctx context.Context, caller models.Caller, propertyID string) (bool, error)

	// List returns the caller's favorites, newest first.
	List(ctx context.Context, caller models.Caller) ([]models.Favorite, error)
}

type favoriteService struct {
	repo     repository.FavoriteRepository
	sessions *Sessions
	log      *logger.Logger
	now      func() time.Time
}

// NewFavoriteService creates a new instance of FavoriteService.
func NewFavoriteService(repo repository.FavoriteRepository, sessions *Sessions, log *logger.Logger) FavoriteService {
	return &favoriteService{
		repo:     repo,
		sessions: sessions,
		log:      log,
		now:      time.Now,
	}
}

// ensureLoaded fills the session's favorite set from the repository once.
func (s *favoriteService) ensureLoaded(ctx context.Context, caller models.Caller, sess *session) error {
	sess.mu.Lock()
	loaded := sess.favoritesLoaded
	sess.mu.Unlock()
	if loaded {
		return nil
	}

	_, err := s.refresh(ctx, caller, sess)
	return err
}

func (s *favoriteService) refresh(ctx context.Context, caller models.Caller, sess *session) ([]models.Favorite, error) {
	favorites, err := s.repo.ListByUser(ctx, caller.UserID)
	if err != nil {
		s.log.Error("Failed to list favorites", err, map[string]interface{}{
			"user_id": caller.UserID,
		})
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	set := make(map[string]time.Time, len(favorites))
	for _, f := range favorites {
		set[f.PropertyID] = f.CreatedAt
	}

	sess.mu.Lock()
	sess.favorites = set
	sess.favoritesLoaded = true
	sess.mu.Unlock()
	return favorites, nil
}

func (s *favoriteService) Toggle(ctx context.Context, caller models.Caller, propertyID string) (bool, error) {
	if propertyID == "" {
		return false, ErrPropertyNotFound
	}

	sess := s.sessions.get(ctx, caller.UserID)
	if err := s.ensureLoaded(ctx, caller, sess); err != nil {
		return false, err
	}

	sess.mu.Lock()
	prev, wasFavorite := sess.favorites[propertyID]
	now := s.now().UTC()
	if wasFavorite {
		delete(sess.favorites, propertyID)
	} else {
		sess.favorites[propertyID] = now
	}
	sess.mu.Unlock()

	var err error
	if wasFavorite {
		err = s.repo.Remove(ctx, caller.UserID, propertyID)
	} else {
		err = s.repo.Add(ctx, caller.UserID, propertyID, now)
	}
	if err != nil {
		sess.mu.Lock()
		if wasFavorite {
			sess.favorites[propertyID] = prev
		} else {
			delete(sess.favorites, propertyID)
		}
		sess.mu.Unlock()

		s.log.Error("Failed to toggle favorite", err, map[string]interface{}{
			"user_id":     caller.UserID,
			"property_id": propertyID,
		})
		return wasFavorite, fmt.Errorf("failed to toggle favorite: %w", err)
	}

	return !wasFavorite, nil
}

func (s *favoriteService) List(ctx context.Context, caller models.Caller) ([]models.Favorite, error) {
	sess := s.sessions.get(ctx, caller.UserID)
	return s.refresh(ctx, caller, sess)
}
