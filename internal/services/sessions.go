package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stwalsh4118/wealthmap/internal/filter"
	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/maplayer"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/persistence"
)

// lastViewNamespace holds the single-slot map state restored on session creation.
const lastViewNamespace = "last_view"

// SessionDefaults configures newly created map sessions.
type SessionDefaults struct {
	Center         models.LatLng
	Brackets       maplayer.Brackets
	ClusterIcon    maplayer.ClusterIconFunc
	Zoom           int
	HeatmapDivisor float64
}

// session is one user's live map. All fields below mu are guarded by it.
type session struct {
	lastUsed atomic.Int64

	mu              sync.Mutex
	userID          string
	controller      *maplayer.Controller
	scene           *maplayer.SceneRenderer
	views           []models.SavedView
	favorites       map[string]time.Time
	seq             uint64
	favoritesLoaded bool
}

// state snapshots the restorable part of the session. Callers hold mu.
func (s *session) state() models.MapState {
	center, zoom := s.controller.View()
	return models.MapState{
		Filters: s.controller.Filters(),
		Center:  center,
		Zoom:    zoom,
		Layers:  s.controller.Flags(),
	}
}

// apply assigns a full map state. Everything is validated before anything
// changes, so a rejected state leaves the session untouched. Callers hold mu.
func (s *session) apply(st models.MapState) error {
	if err := filter.Validate(st.Filters); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilters, err)
	}
	if err := maplayer.ValidateView(st.Center, st.Zoom); err != nil {
		return err
	}
	if st.Layers.Markers && st.Layers.Clusters {
		return maplayer.ErrExclusiveLayers
	}

	s.controller.ApplyFilters(st.Filters)
	if err := s.controller.SetView(st.Center, st.Zoom); err != nil {
		return err
	}
	return s.controller.ApplyFlags(st.Layers)
}

// findView returns the index of a view in the local list, or -1. Callers hold mu.
func (s *session) findView(id string) int {
	for i := range s.views {
		if s.views[i].ID == id {
			return i
		}
	}
	return -1
}

// Sessions is the registry of live map sessions, keyed by user id.
type Sessions struct {
	store    persistence.Gateway
	log      *logger.Logger
	now      func() time.Time
	sessions map[string]*session
	defaults SessionDefaults
	mu       sync.RWMutex
}

// NewSessions creates an empty registry. The store keeps each user's last map state.
func NewSessions(store persistence.Gateway, defaults SessionDefaults, log *logger.Logger) *Sessions {
	if defaults.HeatmapDivisor <= 0 {
		defaults.HeatmapDivisor = maplayer.DefaultHeatmapDivisor
	}
	if defaults.Brackets == (maplayer.Brackets{}) {
		defaults.Brackets = maplayer.DefaultBrackets
	}
	return &Sessions{
		store:    store,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*session),
		defaults: defaults,
	}
}

// get returns the caller's session, creating it on first use.
func (r *Sessions) get(ctx context.Context, userID string) *session {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	if ok {
		s.lastUsed.Store(r.now().UnixNano())
		return s
	}

	created := r.newSession(ctx, userID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		s.lastUsed.Store(r.now().UnixNano())
		return s
	}
	r.sessions[userID] = created
	return created
}

func (r *Sessions) newSession(ctx context.Context, userID string) *session {
	scene := maplayer.NewSceneRenderer()
	s := &session{
		userID: userID,
		scene:  scene,
		controller: maplayer.NewController(scene,
			maplayer.WithBrackets(r.defaults.Brackets),
			maplayer.WithHeatmapDivisor(r.defaults.HeatmapDivisor),
			maplayer.WithClusterIcon(r.defaults.ClusterIcon),
		),
		favorites: make(map[string]time.Time),
	}
	s.lastUsed.Store(r.now().UnixNano())

	defaultState := models.MapState{Center: r.defaults.Center, Zoom: r.defaults.Zoom}

	var last models.MapState
	err := persistence.GetJSON(ctx, r.store, lastViewNamespace, userID, &last)
	switch {
	case err == nil:
		applyErr := s.apply(last)
		if applyErr == nil {
			return s
		}
		r.log.Warn("Discarding invalid saved map state", map[string]interface{}{
			"user_id": userID,
			"error":   applyErr.Error(),
		})
	case !errors.Is(err, persistence.ErrNotFound):
		r.log.Error("Failed to load saved map state", err, map[string]interface{}{
			"user_id": userID,
		})
	}

	if err := s.apply(defaultState); err != nil {
		r.log.Error("Default map state rejected", err, map[string]interface{}{
			"user_id": userID,
		})
	}
	return s
}

// persist saves the session's state as the user's last view. Failures are
// logged only; the live session stays authoritative. Callers hold s.mu.
func (r *Sessions) persist(ctx context.Context, s *session) {
	if err := persistence.PutJSON(ctx, r.store, lastViewNamespace, s.userID, s.state()); err != nil {
		r.log.Error("Failed to save map state", err, map[string]interface{}{
			"user_id": s.userID,
		})
	}
}

// Sweep drops sessions idle for longer than ttl and reports how many went away.
func (r *Sessions) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.lastUsed.Load() < cutoff {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
