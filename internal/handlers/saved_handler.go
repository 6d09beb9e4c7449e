package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/services"
)

// SavedHandler serves bookmarks and favorites. Bookmarks are property
// snapshots kept in the key/value store; favorites are account-level ids.
type SavedHandler struct {
	bookmarks services.BookmarkService
	favorites services.FavoriteService
}

// NewSavedHandler creates a new SavedHandler instance.
func NewSavedHandler(bookmarks services.BookmarkService, favorites services.FavoriteService) *SavedHandler {
	return &SavedHandler{
		bookmarks: bookmarks,
		favorites: favorites,
	}
}

// BookmarkResponse wraps a single bookmark.
type BookmarkResponse struct {
	Bookmark *models.Bookmark `json:"bookmark"`
}

// BookmarkListResponse lists bookmarks, newest first.
type BookmarkListResponse struct {
	Bookmarks []models.Bookmark `json:"bookmarks"`
}

// FavoriteListResponse lists favorites, newest first.
type FavoriteListResponse struct {
	Favorites []models.Favorite `json:"favorites"`
}

// ToggleFavoriteResponse reports the favorite state after a toggle.
type ToggleFavoriteResponse struct {
	PropertyID string `json:"propertyId"`
	Favorite   bool   `json:"favorite"`
}

// ListBookmarks handles GET /api/v1/bookmarks.
func (h *SavedHandler) ListBookmarks(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	list, err := h.bookmarks.List(c.Request.Context(), caller)
	if err != nil {
		serviceError(c, err, "Failed to list bookmarks")
		return
	}
	c.JSON(http.StatusOK, BookmarkListResponse{Bookmarks: list})
}

// AddBookmark handles PUT /api/v1/bookmarks/:propertyId.
// Returns 201 for a new bookmark and 200 when it already existed.
func (h *SavedHandler) AddBookmark(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	b, created, err := h.bookmarks.Add(c.Request.Context(), caller, c.Param("propertyId"))
	if err != nil {
		serviceError(c, err, "Failed to add bookmark")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, BookmarkResponse{Bookmark: b})
}

// RemoveBookmark handles DELETE /api/v1/bookmarks/:propertyId.
func (h *SavedHandler) RemoveBookmark(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	if err := h.bookmarks.Remove(c.Request.Context(), caller, c.Param("propertyId")); err != nil {
		serviceError(c, err, "Failed to remove bookmark")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFavorites handles GET /api/v1/favorites.
func (h *SavedHandler) ListFavorites(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	list, err := h.favorites.List(c.Request.Context(), caller)
	if err != nil {
		serviceError(c, err, "Failed to list favorites")
		return
	}
	c.JSON(http.StatusOK, FavoriteListResponse{Favorites: list})
}

// ToggleFavorite handles POST /api/v1/favorites/:propertyId/toggle.
func (h *SavedHandler) ToggleFavorite(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id := c.Param("propertyId")
	fav, err := h.favorites.Toggle(c.Request.Context(), caller, id)
	if err != nil {
		serviceError(c, err, "Failed to toggle favorite")
		return
	}
	c.JSON(http.StatusOK, ToggleFavoriteResponse{PropertyID: id, Favorite: fav})
}
