package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/wealthmap/internal/errors"
	"github.com/stwalsh4118/wealthmap/internal/filter"
	"github.com/stwalsh4118/wealthmap/internal/maplayer"
	"github.com/stwalsh4118/wealthmap/internal/middleware"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/services"
)

// callerOrAbort returns the identified caller. Routes are mounted behind
// middleware.Identity, so a missing caller means a wiring mistake.
func callerOrAbort(c *gin.Context) (models.Caller, bool) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		apierrors.Unauthorized(c, middleware.UserIDHeader+" header is required")
		return models.Caller{}, false
	}
	return caller, true
}

// bindFailed writes the response for a failed ShouldBind call.
func bindFailed(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, nil)
}

// serviceError maps domain errors onto the API error envelope.
// Anything unrecognised becomes a 500 carrying fallback as its message.
func serviceError(c *gin.Context, err error, fallback string) {
	var fieldErr *filter.ValidationError

	switch {
	case errors.Is(err, services.ErrInvalidFilters) && errors.As(err, &fieldErr):
		apierrors.FieldError(c, fieldErr.Field, fieldErr.Err.Error())

	case errors.Is(err, services.ErrInvalidCoordinates),
		errors.Is(err, services.ErrInvalidBBox),
		errors.Is(err, services.ErrInvalidValueRange),
		errors.Is(err, services.ErrSelectionTooLarge),
		errors.Is(err, services.ErrInvalidName),
		errors.Is(err, services.ErrInvalidScope),
		errors.Is(err, services.ErrInvalidFilters),
		errors.Is(err, maplayer.ErrUnknownLayer),
		errors.Is(err, maplayer.ErrInvalidView):
		apierrors.BadRequest(c, err.Error(), nil)

	case errors.Is(err, services.ErrPropertyNotFound):
		apierrors.NotFound(c, "Property not found")
	case errors.Is(err, services.ErrViewNotFound):
		apierrors.NotFound(c, "Saved view not found")
	case errors.Is(err, services.ErrSearchNotFound):
		apierrors.NotFound(c, "Saved search not found")

	case errors.Is(err, services.ErrViewForbidden),
		errors.Is(err, services.ErrOrgRequired):
		apierrors.Forbidden(c, err.Error())

	case errors.Is(err, maplayer.ErrExclusiveLayers),
		errors.Is(err, services.ErrStaleRefresh):
		apierrors.Conflict(c, err.Error())

	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}
