package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/wealthmap/internal/filter"
	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/repository"
)

// ErrSearchNotFound is returned for unknown or foreign saved searches.
var ErrSearchNotFound = errors.New("saved search not found")

// SearchService defines the saved search operations.
type SearchService interface {
	// Create saves a named filter set. A nil filter set saves the caller's
	// currently active filters.
	Create(ctx context.Context, caller models.Caller, name string, filters *models.FilterSet) (*models.SavedSearch, error)
	List(ctx context.Context, caller models.Caller) ([]models.SavedSearch, error)
	Delete(ctx context.Context, caller models.Caller, id string) error

	// Apply assigns the search's filters to the caller's map session.
	Apply(ctx context.Context, caller models.Caller, id string) (models.MapState, error)
}

type searchService struct {
	repo repository.SearchRepository
	maps MapService
	log  *logger.Logger
	now  func() time.Time
}

// NewSearchService creates a new instance of SearchService.
func NewSearchService(repo repository.SearchRepository, maps MapService, log *logger.Logger) SearchService {
	return &searchService{
		repo: repo,
		maps: maps,
		log:  log,
		now:  time.Now,
	}
}

func (s *searchService) Create(ctx context.Context, caller models.Caller, name string, filters *models.FilterSet) (*models.SavedSearch, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}

	var fs models.FilterSet
	if filters != nil {
		fs = filters.Clone()
	} else {
		st, err := s.maps.State(ctx, caller)
		if err != nil {
			return nil, err
		}
		fs = st.Filters
	}
	if err := filter.Validate(fs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilters, err)
	}

	search := models.SavedSearch{
		ID:        uuid.NewString(),
		Name:      name,
		Filters:   fs,
		UserID:    caller.UserID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, &search); err != nil {
		s.log.Error("Failed to save search", err, map[string]interface{}{
			"user_id": caller.UserID,
		})
		return nil, fmt.Errorf("failed to save search: %w", err)
	}

	s.log.Info("Saved search", map[string]interface{}{
		"user_id":   caller.UserID,
		"search_id": search.ID,
	})
	return &search, nil
}

func (s *searchService) List(ctx context.Context, caller models.Caller) ([]models.SavedSearch, error) {
	searches, err := s.repo.ListByUser(ctx, caller.UserID)
	if err != nil {
		s.log.Error("Failed to list saved searches", err, map[string]interface{}{
			"user_id": caller.UserID,
		})
		return nil, fmt.Errorf("failed to list saved searches: %w", err)
	}
	return searches, nil
}

func (s *searchService) Delete(ctx context.Context, caller models.Caller, id string) error {
	deleted, err := s.repo.Delete(ctx, id, caller.UserID)
	if err != nil {
		s.log.Error("Failed to delete saved search", err, map[string]interface{}{
			"user_id":   caller.UserID,
			"search_id": id,
		})
		return fmt.Errorf("failed to delete saved search: %w", err)
	}
	if !deleted {
		return ErrSearchNotFound
	}
	return nil
}

func (s *searchService) Apply(ctx context.Context, caller models.Caller, id string) (models.MapState, error) {
	search, err := s.repo.FindByID(ctx, id, caller.UserID)
	if err != nil {
		s.log.Error("Failed to load saved search", err, map[string]interface{}{
			"user_id":   caller.UserID,
			"search_id": id,
		})
		return models.MapState{}, fmt.Errorf("failed to load saved search: %w", err)
	}
	if search == nil {
		return models.MapState{}, ErrSearchNotFound
	}

	return s.maps.ApplyFilters(ctx, caller, search.Filters)
}
