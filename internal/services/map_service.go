package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/wealthmap/internal/filter"
	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/maplayer"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

// Map session errors
var (
	ErrInvalidFilters = errors.New("invalid filters")
	ErrStaleRefresh   = errors.New("refresh superseded by a newer request")
)

// RefreshResult reports what a refresh loaded into the session.
type RefreshResult struct {
	Total   int `json:"total"`
	Matched int `json:"matched"`
}

// MapService defines the operations on a caller's live map session.
type MapService interface {
	// State returns the caller's current center, zoom, filters and layers.
	State(ctx context.Context, caller models.Caller) (models.MapState, error)

	// Refresh re-fetches the property collection for q and republishes all
	// visible layers. When a newer refresh for the same session started while
	// this one was in flight, the result is discarded with ErrStaleRefresh.
	Refresh(ctx context.Context, caller models.Caller, q models.PropertyQuery) (RefreshResult, error)

	// ApplyFilters replaces the active filter set. Returns ErrInvalidFilters
	// wrapping the filter validation error.
	ApplyFilters(ctx context.Context, caller models.Caller, fs models.FilterSet) (models.MapState, error)

	SetLayer(ctx context.Context, caller models.Caller, layer maplayer.Layer, visible bool) (models.LayerFlags, error)
	ToggleLayer(ctx context.Context, caller models.Caller, layer maplayer.Layer) (models.LayerFlags, error)
	SetView(ctx context.Context, caller models.Caller, center models.LatLng, zoom int) (models.MapState, error)

	// ApplyState assigns a full map state. A rejected state changes nothing.
	ApplyState(ctx context.Context, caller models.Caller, st models.MapState) (models.MapState, error)

	Scene(ctx context.Context, caller models.Caller) (maplayer.Scene, error)

	// Filtered returns the session's properties that pass the active filters.
	Filtered(ctx context.Context, caller models.Caller) ([]models.Property, error)

	// Sweep drops sessions idle longer than ttl.
	Sweep(ttl time.Duration) int
}

type mapService struct {
	sessions   *Sessions
	properties PropertyService
	log        *logger.Logger
}

// NewMapService creates a new instance of MapService.
func NewMapService(sessions *Sessions, properties PropertyService, log *logger.Logger) MapService {
	return &mapService{
		sessions:   sessions,
		properties: properties,
		log:        log,
	}
}

func (s *mapService) State(ctx context.Context, caller models.Caller) (models.MapState, error) {
	sess := s.sessions.get(ctx, caller.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state(), nil
}

func (s *mapService) Refresh(ctx context.Context, caller models.Caller, q models.PropertyQuery) (RefreshResult, error) {
	sess := s.sessions.get(ctx, caller.UserID)

	sess.mu.Lock()
	sess.seq++
	seq := sess.seq
	sess.mu.Unlock()

	// Fetch without holding the session so other operations keep working
	props, err := s.properties.Search(ctx, q)
	if err != nil {
		return RefreshResult{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if seq != sess.seq {
		s.log.Debug("Discarding stale refresh", map[string]interface{}{
			"user_id": caller.UserID,
			"seq":     seq,
			"latest":  sess.seq,
		})
		return RefreshResult{}, ErrStaleRefresh
	}

	sess.controller.SetProperties(props)
	result := RefreshResult{Total: len(props), Matched: len(sess.controller.Filtered())}

	s.log.Info("Map refreshed", map[string]interface{}{
		"user_id": caller.UserID,
		"total":   result.Total,
		"matched": result.Matched,
	})
	return result, nil
}

func (s *mapService) ApplyFilters(ctx context.Context, caller models.Caller, fs models.FilterSet) (models.MapState, error) {
	if err := filter.Validate(fs); err != nil {
		s.log.Warn("Rejected filter set", map[string]interface{}{
			"user_id": caller.UserID,
			"field":   filter.FieldOf(err),
			"error":   err.Error(),
		})
		return models.MapState{}, fmt.Errorf("%w: %w", ErrInvalidFilters, err)
	}

	sess := s.sessions.get(ctx, caller.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.controller.ApplyFilters(fs)
	s.sessions.persist(ctx, sess)
	return sess.state(), nil
}

func (s *mapService) SetLayer(ctx context.Context, caller models.Caller, layer maplayer.Layer, visible bool) (models.LayerFlags, error) {
	sess := s.sessions.get(ctx, caller.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.controller.SetVisible(layer, visible); err != nil {
		return models.LayerFlags{}, err
	}
	s.sessions.persist(ctx, sess)
	return sess.controller.Flags(), nil
}

func (s *mapService) ToggleLayer(ctx context.Context, caller models.Caller, layer maplayer.Layer) (models.LayerFlags, error) {
	sess := s.sessions.get(ctx, caller.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := sess.controller.Toggle(layer); err != nil {
		return models.LayerFlags{}, err
	}
	s.sessions.persist(ctx, sess)
	return sess.controller.Flags(), nil
}

func (s *mapService) SetView(ctx context.Context, caller models.Caller, center models.LatLng, zoom int) (models.MapState, error) {
	sess := s.sessions.get(ctx, caller.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.controller.SetView(center, zoom); err != nil {
		return models.MapState{}, err
	}
	s.sessions.persist(ctx, sess)
	return sess.state(), nil
}

func (s *mapService) ApplyState(ctx context.Context, caller models.Caller, st models.MapState) (models.MapState, error) {
	sess := s.sessions.get(ctx, caller.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.apply(st); err != nil {
		return models.MapState{}, err
	}
	s.sessions.persist(ctx, sess)
	return sess.state(), nil
}

func (s *mapService) Scene(ctx context.Context, caller models.Caller) (maplayer.Scene, error) {
	sess := s.sessions.get(ctx, caller.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.scene.Scene(), nil
}

func (s *mapService) Filtered(ctx context.Context, caller models.Caller) ([]models.Property, error) {
	sess := s.sessions.get(ctx, caller.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.controller.Filtered(), nil
}

func (s *mapService) Sweep(ttl time.Duration) int {
	removed := s.sessions.Sweep(ttl)
	if removed > 0 {
		s.log.Info("Swept idle map sessions", map[string]interface{}{
			"removed":   removed,
			"remaining": s.sessions.Len(),
		})
	}
	return removed
}
