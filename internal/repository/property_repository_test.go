package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

func TestBuildFetchQuery(t *testing.T) {
	t.Run("no constraints", func(t *testing.T) {
		query, args := buildFetchQuery(models.PropertyQuery{})

		assert.NotContains(t, query, "WHERE")
		assert.Contains(t, query, "LIMIT $1")
		assert.Equal(t, []interface{}{maxPropertyResults}, args)
	})

	t.Run("bbox only", func(t *testing.T) {
		query, args := buildFetchQuery(models.PropertyQuery{
			BBox: &models.BBox{MinLng: -98, MinLat: 30, MaxLng: -97, MaxLat: 31},
		})

		assert.Contains(t, query, "geom && ST_MakeEnvelope($1, $2, $3, $4, 4326)")
		assert.Contains(t, query, "LIMIT $5")
		assert.Equal(t, []interface{}{-98.0, 30.0, -97.0, 31.0, maxPropertyResults}, args)
	})

	t.Run("bbox and value range", func(t *testing.T) {
		query, args := buildFetchQuery(models.PropertyQuery{
			BBox:     &models.BBox{MinLng: -98, MinLat: 30, MaxLng: -97, MaxLat: 31},
			MinValue: models.Float(500000),
			MaxValue: models.Float(2000000),
		})

		assert.Contains(t, query, "estimated_value >= $5")
		assert.Contains(t, query, "estimated_value <= $6")
		assert.Equal(t, 2, strings.Count(query, " AND "))
		assert.Equal(t, []interface{}{-98.0, 30.0, -97.0, 31.0, 500000.0, 2000000.0, maxPropertyResults}, args)
	})

	t.Run("max value only", func(t *testing.T) {
		query, args := buildFetchQuery(models.PropertyQuery{MaxValue: models.Float(1e6)})

		assert.Contains(t, query, "WHERE estimated_value <= $1")
		assert.Equal(t, []interface{}{1e6, maxPropertyResults}, args)
	})
}

func sampleProperty(id string, lat, lng, price float64) models.Property {
	return models.Property{
		ID:          id,
		Address:     "100 Congress Ave",
		County:      "Travis",
		Region:      "TX",
		Zip:         "78701",
		Latitude:    lat,
		Longitude:   lng,
		Price:       price,
		LivingSpace: 2400,
		Beds:        4,
		Baths:       2.5,
		Valuations: []models.Valuation{
			{Year: 2024, Value: price * 1.05},
			{Year: 2023, Value: price},
		},
	}
}

func TestPropertyRepository_UpsertAndFind(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()

	// Arrange: two properties far out at sea so real data never overlaps
	prefix := uuid.NewString()
	near := sampleProperty(prefix+"-near", -45.001, -140.001, 1200000)
	far := sampleProperty(prefix+"-far", -45.5, -140.5, 3000000)
	far.OwnerNetWorth = models.Float(5e7)

	// Act
	n, err := repo.Upsert(ctx, []models.Property{near, far})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.FindByID(ctx, near.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, near.Address, got.Address)
	assert.InDelta(t, near.Latitude, got.Latitude, 1e-9)
	assert.InDelta(t, near.Longitude, got.Longitude, 1e-9)
	assert.Equal(t, 2023, got.Valuations[0].Year, "valuations come back sorted by year")
	assert.Nil(t, got.OwnerNetWorth)

	inBox, err := repo.Fetch(ctx, models.PropertyQuery{
		BBox: &models.BBox{MinLng: -140.01, MinLat: -45.01, MaxLng: -139.99, MaxLat: -44.99},
	})
	require.NoError(t, err)
	require.Len(t, inBox, 1)
	assert.Equal(t, near.ID, inBox[0].ID)

	byValue, err := repo.Fetch(ctx, models.PropertyQuery{
		BBox:     &models.BBox{MinLng: -141, MinLat: -46, MaxLng: -139, MaxLat: -44},
		MinValue: models.Float(2000000),
	})
	require.NoError(t, err)
	require.Len(t, byValue, 1)
	assert.Equal(t, far.ID, byValue[0].ID)
	require.NotNil(t, byValue[0].OwnerNetWorth)
	assert.Equal(t, 5e7, *byValue[0].OwnerNetWorth)

	byIDs, err := repo.FindByIDs(ctx, []string{near.ID, far.ID, prefix + "-missing"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

func TestPropertyRepository_UpsertReplaces(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()

	p := sampleProperty(uuid.NewString(), -46.2, -141.2, 800000)
	_, err := repo.Upsert(ctx, []models.Property{p})
	require.NoError(t, err)

	p.Price = 900000
	_, err = repo.Upsert(ctx, []models.Property{p})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 900000.0, got.Price)
}

func TestPropertyRepository_FindByID_NotFound(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPropertyRepository(db)

	got, err := repo.FindByID(context.Background(), "does-not-exist-"+uuid.NewString())

	assert.NoError(t, err, "not found is not an error at the repository level")
	assert.Nil(t, got)
}

func TestPropertyRepository_EmptyInputs(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()

	n, err := repo.Upsert(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	props, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, props)
	assert.Empty(t, props)
}

func TestPropertyRepository_ContextTimeout(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPropertyRepository(db)

	// Create a context with very short timeout
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	// Wait for timeout
	time.Sleep(10 * time.Millisecond)

	_, err := repo.Fetch(ctx, models.PropertyQuery{})
	assert.Error(t, err, "Expected error when context is expired")
}
