package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/services"
)

func TestSearchHandler_Create(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		filters *models.FilterSet
	}{
		{
			name:    "explicit filters",
			body:    `{"name":"Big lots","filters":{"minSize":5000}}`,
			filters: &models.FilterSet{MinSize: models.Float(5000)},
		},
		{
			name:    "current map filters",
			body:    `{"name":"Big lots"}`,
			filters: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			api := newTestAPI()
			saved := &models.SavedSearch{ID: "s1", Name: "Big lots", UserID: alice.UserID, CreatedAt: time.Now().UTC()}
			api.searches.On("Create", mock.Anything, alice, "Big lots", tt.filters).Return(saved, nil)

			// Act
			w := api.do(http.MethodPost, "/api/v1/searches", tt.body)

			// Assert
			require.Equal(t, http.StatusCreated, w.Code)
			var resp SearchResponse
			require.NoError(t, decode(w, &resp))
			assert.Equal(t, "s1", resp.Search.ID)
			api.searches.AssertExpectations(t)
		})
	}
}

func TestSearchHandler_ListApplyDelete(t *testing.T) {
	api := newTestAPI()
	api.searches.On("List", mock.Anything, alice).Return([]models.SavedSearch{{ID: "s1"}, {ID: "s0"}}, nil)
	api.searches.On("Apply", mock.Anything, alice, "s1").Return(austin, nil)
	api.searches.On("Apply", mock.Anything, alice, "gone").Return(models.MapState{}, services.ErrSearchNotFound)
	api.searches.On("Delete", mock.Anything, alice, "s1").Return(nil)

	w := api.do(http.MethodGet, "/api/v1/searches", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list SearchListResponse
	require.NoError(t, decode(w, &list))
	assert.Len(t, list.Searches, 2)

	w = api.do(http.MethodPost, "/api/v1/searches/s1/apply", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodPost, "/api/v1/searches/gone/apply", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodDelete, "/api/v1/searches/s1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
