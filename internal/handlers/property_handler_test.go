package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/wealthmap/internal/errors"
	"github.com/stwalsh4118/wealthmap/internal/middleware"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/services"
)

func TestPropertyHandler_List(t *testing.T) {
	// Arrange
	api := newTestAPI()
	want := models.PropertyQuery{
		BBox:     &models.BBox{MinLng: -98, MinLat: 30, MaxLng: -97, MaxLat: 31},
		MinValue: models.Float(500000),
	}
	props := []models.Property{
		{ID: "p1", Address: "101 Lakeshore Dr", Price: 1200000, Latitude: 30.29, Longitude: -97.78},
		{ID: "p2", Address: "22 Ridge Rd", Price: 2500000, Latitude: 30.3, Longitude: -97.8},
	}
	api.properties.On("Search", mock.Anything, want).Return(props, nil)

	// Act
	w := api.do(http.MethodGet, "/api/v1/properties?bbox=-98,30,-97,31&minValue=500000", "")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var fc models.FeatureCollection
	require.NoError(t, decode(w, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "p1", fc.Features[0].ID)
	assert.InDelta(t, 30.29, fc.Features[0].Geometry.Lat(), 1e-9)
	api.properties.AssertExpectations(t)
}

func TestPropertyHandler_List_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{name: "missing bbox", path: "/api/v1/properties", wantCode: apierrors.ErrValidation},
		{name: "malformed bbox", path: "/api/v1/properties?bbox=1,2,3", wantCode: apierrors.ErrValidation},
		{name: "negative value", path: "/api/v1/properties?bbox=-98,30,-97,31&maxValue=-1", wantCode: apierrors.ErrValidation},
		{name: "non-numeric value", path: "/api/v1/properties?bbox=-98,30,-97,31&minValue=lots", wantCode: apierrors.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI()

			w := api.do(http.MethodGet, tt.path, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(w))
			api.properties.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
		})
	}
}

func TestPropertyHandler_List_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "inverted bbox",
			err:        fmt.Errorf("%w: minimum corner must be south-west of maximum corner", services.ErrInvalidBBox),
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.ErrBadRequest,
		},
		{
			name:       "source down",
			err:        fmt.Errorf("failed to fetch properties: %w", errors.New("dial tcp: refused")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apierrors.ErrServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI()
			api.properties.On("Search", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := api.do(http.MethodGet, "/api/v1/properties?bbox=-97,31,-98,30", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(w))
		})
	}
}

func TestPropertyHandler_Get(t *testing.T) {
	api := newTestAPI()
	api.properties.On("Get", mock.Anything, "p1").Return(&models.Property{ID: "p1", Price: 1200000}, nil)
	api.properties.On("Get", mock.Anything, "nope").Return(nil, services.ErrPropertyNotFound)

	w := api.do(http.MethodGet, "/api/v1/properties/p1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp PropertyResponse
	require.NoError(t, decode(w, &resp))
	assert.Equal(t, "p1", resp.Property.ID)

	w = api.do(http.MethodGet, "/api/v1/properties/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.ErrNotFound, errorCode(w))
}

func TestRoutes_RequireIdentity(t *testing.T) {
	api := newTestAPI()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/map/state", nil)
	w := httptest.NewRecorder()

	api.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	api.maps.AssertNotCalled(t, "State", mock.Anything, mock.Anything)
}

func TestCallerOrAbort_WithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", NewMapHandler(new(MockMapService)).State)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), middleware.UserIDHeader)
}
