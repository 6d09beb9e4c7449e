package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/repository"
)

// MaxNameLength bounds saved view and saved search names.
const MaxNameLength = 100

// Saved view errors
var (
	ErrViewNotFound  = errors.New("saved view not found")
	ErrViewForbidden = errors.New("only the creator may delete a saved view")
	ErrInvalidScope  = errors.New("scope must be private or company")
	ErrInvalidName   = fmt.Errorf("name must be 1 to %d characters", MaxNameLength)
	ErrOrgRequired   = errors.New("company views require an organization")
)

// ViewList is the caller's visible saved views partitioned by scope.
type ViewList struct {
	Private []models.SavedView `json:"private"`
	Company []models.SavedView `json:"company"`
}

// ViewService defines the saved view operations.
//
// The session keeps a local list of visible views. Save and Delete change the
// local list first and then the repository; a repository failure undoes the
// local change before the error is returned.
type ViewService interface {
	// Save snapshots the caller's map session into a new view.
	Save(ctx context.Context, caller models.Caller, name string, scope models.Scope) (*models.SavedView, error)

	// Load applies a visible view to the caller's map session.
	// Returns ErrViewNotFound when the view is unknown or not visible.
	Load(ctx context.Context, caller models.Caller, id string) (*models.SavedView, error)

	// Delete removes a view. Returns ErrViewForbidden for non-creators.
	Delete(ctx context.Context, caller models.Caller, id string) error

	// List returns the visible views. An empty scope returns both partitions.
	List(ctx context.Context, caller models.Caller, scope models.Scope) (ViewList, error)
}

type viewService struct {
	repo     repository.ViewRepository
	sessions *Sessions
	log      *logger.Logger
	now      func() time.Time
}

// NewViewService creates a new instance of ViewService.
func NewViewService(repo repository.ViewRepository, sessions *Sessions, log *logger.Logger) ViewService {
	return &viewService{
		repo:     repo,
		sessions: sessions,
		log:      log,
		now:      time.Now,
	}
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

func (s *viewService) Save(ctx context.Context, caller models.Caller, name string, scope models.Scope) (*models.SavedView, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	if !scope.Valid() {
		return nil, ErrInvalidScope
	}
	if scope == models.ScopeCompany && caller.OrgID == "" {
		return nil, ErrOrgRequired
	}

	sess := s.sessions.get(ctx, caller.UserID)

	sess.mu.Lock()
	st := sess.state()
	view := models.SavedView{
		ID:        uuid.NewString(),
		Name:      name,
		Scope:     scope,
		CreatedBy: caller.UserID,
		Center:    st.Center,
		Zoom:      st.Zoom,
		Filters:   st.Filters,
		Layers:    st.Layers,
		CreatedAt: s.now().UTC(),
	}
	if scope == models.ScopeCompany {
		view.OrgID = caller.OrgID
	}
	sess.views = append([]models.SavedView{view}, sess.views...)
	sess.mu.Unlock()

	if err := s.repo.Create(ctx, &view); err != nil {
		sess.mu.Lock()
		if i := sess.findView(view.ID); i >= 0 {
			sess.views = append(sess.views[:i], sess.views[i+1:]...)
		}
		sess.mu.Unlock()

		s.log.Error("Failed to save view", err, map[string]interface{}{
			"user_id": caller.UserID,
			"view_id": view.ID,
		})
		return nil, fmt.Errorf("failed to save view: %w", err)
	}

	s.log.Info("Saved view", map[string]interface{}{
		"user_id": caller.UserID,
		"view_id": view.ID,
		"scope":   string(scope),
	})
	return &view, nil
}

// lookup finds a view in the session list, reloading the list from the
// repository on a miss. Returns the session locked on success.
func (s *viewService) lookup(ctx context.Context, caller models.Caller, sess *session, id string) (int, error) {
	sess.mu.Lock()
	if i := sess.findView(id); i >= 0 {
		return i, nil
	}
	sess.mu.Unlock()

	views, err := s.repo.ListVisible(ctx, caller.UserID, caller.OrgID)
	if err != nil {
		s.log.Error("Failed to load saved views", err, map[string]interface{}{
			"user_id": caller.UserID,
		})
		return -1, fmt.Errorf("failed to load saved views: %w", err)
	}

	sess.mu.Lock()
	sess.views = views
	if i := sess.findView(id); i >= 0 {
		return i, nil
	}
	sess.mu.Unlock()
	return -1, ErrViewNotFound
}

func (s *viewService) Load(ctx context.Context, caller models.Caller, id string) (*models.SavedView, error) {
	sess := s.sessions.get(ctx, caller.UserID)

	i, err := s.lookup(ctx, caller, sess, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	view := sess.views[i]
	if err := sess.apply(view.State()); err != nil {
		s.log.Error("Saved view could not be applied", err, map[string]interface{}{
			"user_id": caller.UserID,
			"view_id": id,
		})
		return nil, fmt.Errorf("failed to apply saved view: %w", err)
	}
	s.sessions.persist(ctx, sess)

	s.log.Info("Loaded view", map[string]interface{}{
		"user_id": caller.UserID,
		"view_id": id,
	})
	return &view, nil
}

func (s *viewService) Delete(ctx context.Context, caller models.Caller, id string) error {
	sess := s.sessions.get(ctx, caller.UserID)

	i, err := s.lookup(ctx, caller, sess, id)
	if err != nil {
		return err
	}

	view := sess.views[i]
	if view.CreatedBy != caller.UserID {
		sess.mu.Unlock()
		s.log.Warn("Refused to delete view of another user", map[string]interface{}{
			"user_id":    caller.UserID,
			"view_id":    id,
			"created_by": view.CreatedBy,
		})
		return ErrViewForbidden
	}
	sess.views = append(sess.views[:i], sess.views[i+1:]...)
	sess.mu.Unlock()

	deleted, err := s.repo.Delete(ctx, id, caller.UserID)
	if err != nil {
		sess.mu.Lock()
		if sess.findView(id) < 0 {
			at := i
			if at > len(sess.views) {
				at = len(sess.views)
			}
			sess.views = append(sess.views[:at], append([]models.SavedView{view}, sess.views[at:]...)...)
		}
		sess.mu.Unlock()

		s.log.Error("Failed to delete view", err, map[string]interface{}{
			"user_id": caller.UserID,
			"view_id": id,
		})
		return fmt.Errorf("failed to delete view: %w", err)
	}
	if !deleted {
		return ErrViewNotFound
	}

	s.log.Info("Deleted view", map[string]interface{}{
		"user_id": caller.UserID,
		"view_id": id,
	})
	return nil
}

func (s *viewService) List(ctx context.Context, caller models.Caller, scope models.Scope) (ViewList, error) {
	if scope != "" && !scope.Valid() {
		return ViewList{}, ErrInvalidScope
	}

	views, err := s.repo.ListVisible(ctx, caller.UserID, caller.OrgID)
	if err != nil {
		s.log.Error("Failed to list saved views", err, map[string]interface{}{
			"user_id": caller.UserID,
		})
		return ViewList{}, fmt.Errorf("failed to list saved views: %w", err)
	}

	sess := s.sessions.get(ctx, caller.UserID)
	sess.mu.Lock()
	sess.views = append([]models.SavedView(nil), views...)
	sess.mu.Unlock()

	list := ViewList{Private: []models.SavedView{}, Company: []models.SavedView{}}
	for _, v := range views {
		switch {
		case v.Scope == models.ScopePrivate && scope != models.ScopeCompany:
			list.Private = append(list.Private, v)
		case v.Scope == models.ScopeCompany && scope != models.ScopePrivate:
			list.Company = append(list.Company, v)
		}
	}
	return list, nil
}
