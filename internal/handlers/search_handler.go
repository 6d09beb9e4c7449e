package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/services"
)

// SearchHandler handles saved search requests.
type SearchHandler struct {
	service services.SearchService
}

// NewSearchHandler creates a new SearchHandler instance.
func NewSearchHandler(service services.SearchService) *SearchHandler {
	return &SearchHandler{
		service: service,
	}
}

// CreateSearchRequest is the body of POST /searches. Without filters the
// caller's active map filters are saved.
type CreateSearchRequest struct {
	Filters *models.FilterSet `json:"filters"`
	Name    string            `json:"name" binding:"required,max=100"`
}

// SearchResponse wraps a single saved search.
type SearchResponse struct {
	Search *models.SavedSearch `json:"search"`
}

// SearchListResponse lists saved searches.
type SearchListResponse struct {
	Searches []models.SavedSearch `json:"searches"`
}

// List handles GET /api/v1/searches.
func (h *SearchHandler) List(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	searches, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		serviceError(c, err, "Failed to list saved searches")
		return
	}
	c.JSON(http.StatusOK, SearchListResponse{Searches: searches})
}

// Create handles POST /api/v1/searches.
func (h *SearchHandler) Create(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var req CreateSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid saved search")
		return
	}

	s, err := h.service.Create(c.Request.Context(), caller, req.Name, req.Filters)
	if err != nil {
		serviceError(c, err, "Failed to save search")
		return
	}
	c.JSON(http.StatusCreated, SearchResponse{Search: s})
}

// Apply handles POST /api/v1/searches/:id/apply and returns the new map state.
func (h *SearchHandler) Apply(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	st, err := h.service.Apply(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		serviceError(c, err, "Failed to apply saved search")
		return
	}
	c.JSON(http.StatusOK, st)
}

// Delete handles DELETE /api/v1/searches/:id.
func (h *SearchHandler) Delete(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		serviceError(c, err, "Failed to delete saved search")
		return
	}
	c.Status(http.StatusNoContent)
}
