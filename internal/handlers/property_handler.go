package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/wealthmap/internal/errors"
	"github.com/stwalsh4118/wealthmap/internal/middleware"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/services"
)

// PropertyHandler serves raw property data.
type PropertyHandler struct {
	service services.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.PropertyService) *PropertyHandler {
	return &PropertyHandler{
		service: service,
	}
}

// PropertyListRequest represents the query parameters for the property list endpoint.
type PropertyListRequest struct {
	MinValue *float64 `form:"minValue" binding:"omitempty,gte=0"`
	MaxValue *float64 `form:"maxValue" binding:"omitempty,gte=0"`
	BBox     string   `form:"bbox" binding:"required"`
}

// PropertyResponse wraps a single property.
type PropertyResponse struct {
	Property *models.Property `json:"property"`
}

// toQuery parses the bbox parameter and builds the repository query.
func (r PropertyListRequest) toQuery() (models.PropertyQuery, error) {
	bbox, err := models.ParseBBox(r.BBox)
	if err != nil {
		return models.PropertyQuery{}, err
	}
	return models.PropertyQuery{BBox: &bbox, MinValue: r.MinValue, MaxValue: r.MaxValue}, nil
}

// List handles GET /api/v1/properties and returns a GeoJSON FeatureCollection.
func (h *PropertyHandler) List(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req PropertyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err, "Invalid query parameters")
		return
	}
	q, err := req.toQuery()
	if err != nil {
		apierrors.FieldError(c, "bbox", err.Error())
		return
	}

	if log != nil {
		log.Info("Processing property list request", map[string]interface{}{
			"bbox": req.BBox,
		})
	}

	props, err := h.service.Search(c.Request.Context(), q)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) ||
			errors.Is(err, services.ErrInvalidBBox) ||
			errors.Is(err, services.ErrInvalidValueRange) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.ServiceUnavailable(c, "Property data is unavailable", err)
		return
	}

	c.JSON(http.StatusOK, models.NewFeatureCollection(props))
}

// Get handles GET /api/v1/properties/:id.
func (h *PropertyHandler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err, "Failed to load property")
		return
	}
	c.JSON(http.StatusOK, PropertyResponse{Property: p})
}
