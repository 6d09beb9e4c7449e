package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/wealthmap/internal/errors"
	"github.com/stwalsh4118/wealthmap/internal/maplayer"
	"github.com/stwalsh4118/wealthmap/internal/middleware"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/services"
)

// MapHandler exposes the caller's map session.
type MapHandler struct {
	service services.MapService
}

// NewMapHandler creates a new MapHandler instance.
func NewMapHandler(service services.MapService) *MapHandler {
	return &MapHandler{
		service: service,
	}
}

// RefreshRequest is the body of POST /map/refresh.
type RefreshRequest struct {
	MinValue *float64 `json:"minValue" binding:"omitempty,gte=0"`
	MaxValue *float64 `json:"maxValue" binding:"omitempty,gte=0"`
	BBox     string   `json:"bbox" binding:"required"`
}

// SetViewRequest is the body of PUT /map/view.
type SetViewRequest struct {
	Center *models.LatLng `json:"center" binding:"required"`
	Zoom   *int           `json:"zoom" binding:"required,min=0,max=22"`
}

// SetLayerRequest is the body of PUT /map/layers/:layer.
type SetLayerRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// LayersResponse carries the layer flags after a change.
type LayersResponse struct {
	Layers models.LayerFlags `json:"layers"`
}

// PropertiesResponse lists the properties that pass the active filters.
type PropertiesResponse struct {
	Properties []models.Property `json:"properties"`
	Count      int               `json:"count"`
}

// State handles GET /api/v1/map/state.
func (h *MapHandler) State(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	st, err := h.service.State(c.Request.Context(), caller)
	if err != nil {
		serviceError(c, err, "Failed to load map state")
		return
	}
	c.JSON(http.StatusOK, st)
}

// ApplyState handles PUT /api/v1/map/state.
func (h *MapHandler) ApplyState(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var st models.MapState
	if err := c.ShouldBindJSON(&st); err != nil {
		bindFailed(c, err, "Invalid map state")
		return
	}

	out, err := h.service.ApplyState(c.Request.Context(), caller, st)
	if err != nil {
		serviceError(c, err, "Failed to apply map state")
		return
	}
	c.JSON(http.StatusOK, out)
}

// Refresh handles POST /api/v1/map/refresh.
func (h *MapHandler) Refresh(c *gin.Context) {
	log := middleware.GetLogger(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid refresh request")
		return
	}
	bbox, err := models.ParseBBox(req.BBox)
	if err != nil {
		apierrors.FieldError(c, "bbox", err.Error())
		return
	}

	if log != nil {
		log.Info("Processing map refresh", map[string]interface{}{
			"user_id": caller.UserID,
			"bbox":    req.BBox,
		})
	}

	result, err := h.service.Refresh(c.Request.Context(), caller, models.PropertyQuery{
		BBox:     &bbox,
		MinValue: req.MinValue,
		MaxValue: req.MaxValue,
	})
	if err != nil {
		serviceError(c, err, "Failed to refresh map data")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ApplyFilters handles PUT /api/v1/map/filters.
func (h *MapHandler) ApplyFilters(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var fs models.FilterSet
	if err := c.ShouldBindJSON(&fs); err != nil {
		bindFailed(c, err, "Invalid filter set")
		return
	}

	st, err := h.service.ApplyFilters(c.Request.Context(), caller, fs)
	if err != nil {
		serviceError(c, err, "Failed to apply filters")
		return
	}
	c.JSON(http.StatusOK, st)
}

// SetView handles PUT /api/v1/map/view.
func (h *MapHandler) SetView(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var req SetViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid map view")
		return
	}

	st, err := h.service.SetView(c.Request.Context(), caller, *req.Center, *req.Zoom)
	if err != nil {
		serviceError(c, err, "Failed to set map view")
		return
	}
	c.JSON(http.StatusOK, st)
}

// SetLayer handles PUT /api/v1/map/layers/:layer.
func (h *MapHandler) SetLayer(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	layer, err := maplayer.ParseLayer(c.Param("layer"))
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}
	var req SetLayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid layer request")
		return
	}

	flags, err := h.service.SetLayer(c.Request.Context(), caller, layer, *req.Visible)
	if err != nil {
		serviceError(c, err, "Failed to update layer")
		return
	}
	c.JSON(http.StatusOK, LayersResponse{Layers: flags})
}

// ToggleLayer handles POST /api/v1/map/layers/:layer/toggle.
func (h *MapHandler) ToggleLayer(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	layer, err := maplayer.ParseLayer(c.Param("layer"))
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	flags, err := h.service.ToggleLayer(c.Request.Context(), caller, layer)
	if err != nil {
		serviceError(c, err, "Failed to toggle layer")
		return
	}
	c.JSON(http.StatusOK, LayersResponse{Layers: flags})
}

// Scene handles GET /api/v1/map/scene.
func (h *MapHandler) Scene(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	scene, err := h.service.Scene(c.Request.Context(), caller)
	if err != nil {
		serviceError(c, err, "Failed to render map")
		return
	}
	c.JSON(http.StatusOK, scene)
}

// Properties handles GET /api/v1/map/properties.
func (h *MapHandler) Properties(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	props, err := h.service.Filtered(c.Request.Context(), caller)
	if err != nil {
		serviceError(c, err, "Failed to list map properties")
		return
	}
	c.JSON(http.StatusOK, PropertiesResponse{Properties: props, Count: len(props)})
}
