package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/persistence"
)

const bookmarkNamespacePrefix = "bookmarks:"

// BookmarkService defines the bookmark operations. Bookmarks are property
// snapshots kept in the persistence gateway, one entry per property id.
type BookmarkService interface {
	// Add bookmarks a property and reports whether a new entry was created.
	// Adding an existing bookmark returns it unchanged.
	Add(ctx context.Context, caller models.Caller, propertyID string) (*models.Bookmark, bool, error)

	// Remove deletes a bookmark. Removing an unknown bookmark is not an error.
	Remove(ctx context.Context, caller models.Caller, propertyID string) error

	// List returns bookmarks newest first.
	List(ctx context.Context, caller models.Caller) ([]models.Bookmark, error)
}

type bookmarkService struct {
	store      persistence.Gateway
	properties PropertyService
	log        *logger.Logger
	now        func() time.Time
	mu         sync.Mutex
}

// NewBookmarkService creates a new instance of BookmarkService.
func NewBookmarkService(store persistence.Gateway, properties PropertyService, log *logger.Logger) BookmarkService {
	return &bookmarkService{
		store:      store,
		properties: properties,
		log:        log,
		now:        time.Now,
	}
}

func bookmarkNamespace(userID string) string {
	return bookmarkNamespacePrefix + userID
}

func (s *bookmarkService) Add(ctx context.Context, caller models.Caller, propertyID string) (*models.Bookmark, bool, error) {
	if propertyID == "" {
		return nil, false, ErrPropertyNotFound
	}
	ns := bookmarkNamespace(caller.UserID)

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing models.Bookmark
	err := persistence.GetJSON(ctx, s.store, ns, propertyID, &existing)
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		s.log.Error("Failed to read bookmark", err, map[string]interface{}{
			"user_id":     caller.UserID,
			"property_id": propertyID,
		})
		return nil, false, fmt.Errorf("failed to read bookmark: %w", err)
	}

	p, err := s.properties.Get(ctx, propertyID)
	if err != nil {
		return nil, false, err
	}

	bookmark := models.Bookmark{BookmarkedAt: s.now().UTC(), Property: *p}
	if err := persistence.PutJSON(ctx, s.store, ns, propertyID, bookmark); err != nil {
		s.log.Error("Failed to store bookmark", err, map[string]interface{}{
			"user_id":     caller.UserID,
			"property_id": propertyID,
		})
		return nil, false, fmt.Errorf("failed to store bookmark: %w", err)
	}

	s.log.Info("Bookmarked property", map[string]interface{}{
		"user_id":     caller.UserID,
		"property_id": propertyID,
	})
	return &bookmark, true, nil
}

func (s *bookmarkService) Remove(ctx context.Context, caller models.Caller, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, bookmarkNamespace(caller.UserID), propertyID); err != nil {
		s.log.Error("Failed to remove bookmark", err, map[string]interface{}{
			"user_id":     caller.UserID,
			"property_id": propertyID,
		})
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return nil
}

func (s *bookmarkService) List(ctx context.Context, caller models.Caller) ([]models.Bookmark, error) {
	entries, err := s.store.List(ctx, bookmarkNamespace(caller.UserID))
	if err != nil {
		s.log.Error("Failed to list bookmarks", err, map[string]interface{}{
			"user_id": caller.UserID,
		})
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	bookmarks := make([]models.Bookmark, 0, len(entries))
	for key, raw := range entries {
		var b models.Bookmark
		if err := json.Unmarshal(raw, &b); err != nil {
			s.log.Warn("Skipping unreadable bookmark", map[string]interface{}{
				"user_id":     caller.UserID,
				"property_id": key,
				"error":       err.Error(),
			})
			continue
		}
		bookmarks = append(bookmarks, b)
	}

	sort.Slice(bookmarks, func(i, j int) bool {
		if !bookmarks[i].BookmarkedAt.Equal(bookmarks[j].BookmarkedAt) {
			return bookmarks[i].BookmarkedAt.After(bookmarks[j].BookmarkedAt)
		}
		return bookmarks[i].Property.ID < bookmarks[j].Property.ID
	})
	return bookmarks, nil
}
