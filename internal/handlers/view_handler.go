package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/wealthmap/internal/middleware"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/services"
)

// ViewHandler handles saved view requests.
type ViewHandler struct {
	service services.ViewService
}

// NewViewHandler creates a new ViewHandler instance.
func NewViewHandler(service services.ViewService) *ViewHandler {
	return &ViewHandler{
		service: service,
	}
}

// SaveViewRequest is the body of POST /views.
type SaveViewRequest struct {
	Name  string       `json:"name" binding:"required,max=100"`
	Scope models.Scope `json:"scope" binding:"required,oneof=private company"`
}

// ListViewsRequest filters GET /views by scope.
type ListViewsRequest struct {
	Scope models.Scope `form:"scope" binding:"omitempty,oneof=private company"`
}

// ViewResponse wraps a single saved view.
type ViewResponse struct {
	View *models.SavedView `json:"view"`
}

// List handles GET /api/v1/views.
func (h *ViewHandler) List(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var req ListViewsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err, "Invalid query parameters")
		return
	}

	list, err := h.service.List(c.Request.Context(), caller, req.Scope)
	if err != nil {
		serviceError(c, err, "Failed to list saved views")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Save handles POST /api/v1/views. The view captures the caller's current map.
func (h *ViewHandler) Save(c *gin.Context) {
	log := middleware.GetLogger(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var req SaveViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid saved view")
		return
	}

	if log != nil {
		log.Info("Saving map view", map[string]interface{}{
			"user_id": caller.UserID,
			"scope":   req.Scope,
		})
	}

	v, err := h.service.Save(c.Request.Context(), caller, req.Name, req.Scope)
	if err != nil {
		serviceError(c, err, "Failed to save view")
		return
	}
	c.JSON(http.StatusCreated, ViewResponse{View: v})
}

// Load handles POST /api/v1/views/:id/load.
func (h *ViewHandler) Load(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	v, err := h.service.Load(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		serviceError(c, err, "Failed to load view")
		return
	}
	c.JSON(http.StatusOK, ViewResponse{View: v})
}

// Delete handles DELETE /api/v1/views/:id.
func (h *ViewHandler) Delete(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		serviceError(c, err, "Failed to delete view")
		return
	}
	c.Status(http.StatusNoContent)
}
