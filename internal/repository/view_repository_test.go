package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

func newView(name string, scope models.Scope, createdBy, orgID string, at time.Time) *models.SavedView {
	return &models.SavedView{
		ID:        uuid.NewString(),
		Name:      name,
		Scope:     scope,
		CreatedBy: createdBy,
		OrgID:     orgID,
		Center:    models.LatLng{Lat: 30.2672, Lng: -97.7431},
		Zoom:      11,
		Filters:   models.FilterSet{MinPrice: models.Float(1e6), Location: "Travis"},
		Layers:    models.LayerFlags{Clusters: true, Heatmap: true},
		CreatedAt: at.UTC().Truncate(time.Microsecond),
	}
}

func TestViewRepository_CreateAndFind(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewViewRepository(db)
	ctx := context.Background()

	v := newView("Downtown", models.ScopePrivate, testUser(), "", time.Now())
	require.NoError(t, repo.Create(ctx, v))

	got, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, v.Name, got.Name)
	assert.Equal(t, v.Center, got.Center)
	assert.Equal(t, v.Zoom, got.Zoom)
	assert.Equal(t, v.Layers, got.Layers)
	assert.Equal(t, v.Filters, got.Filters)
	assert.Empty(t, got.OrgID)
	assert.True(t, v.CreatedAt.Equal(got.CreatedAt))
}

func TestViewRepository_ListVisible(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewViewRepository(db)
	ctx := context.Background()

	alice, bob := testUser(), testUser()
	org := "org-" + uuid.NewString()
	now := time.Now()

	mine := newView("mine", models.ScopePrivate, alice, org, now.Add(-2*time.Minute))
	shared := newView("shared", models.ScopeCompany, bob, org, now.Add(-time.Minute))
	hidden := newView("bob private", models.ScopePrivate, bob, org, now)
	for _, v := range []*models.SavedView{mine, shared, hidden} {
		require.NoError(t, repo.Create(ctx, v))
	}

	views, err := repo.ListVisible(ctx, alice, org)
	require.NoError(t, err)

	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{shared.ID, mine.ID}, ids, "newest first, without other users' private views")

	noOrg, err := repo.ListVisible(ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, noOrg, 1)
	assert.Equal(t, mine.ID, noOrg[0].ID)
}

func TestViewRepository_DeleteOnlyByCreator(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewViewRepository(db)
	ctx := context.Background()

	owner := testUser()
	v := newView("shared", models.ScopeCompany, owner, "org-1", time.Now())
	require.NoError(t, repo.Create(ctx, v))

	deleted, err := repo.Delete(ctx, v.ID, testUser())
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.Delete(ctx, v.ID, owner)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
