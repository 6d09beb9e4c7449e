package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/persistence"
)

// MockPropertySource is a mock implementation of PropertySource for testing
type MockPropertySource struct {
	mock.Mock
}

func (m *MockPropertySource) Fetch(ctx context.Context, q models.PropertyQuery) ([]models.Property, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertySource) FindByIDs(ctx context.Context, ids []string) ([]models.Property, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertySource) FindByID(ctx context.Context, id string) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

// MockViewRepository is a mock implementation of ViewRepository for testing
type MockViewRepository struct {
	mock.Mock
}

func (m *MockViewRepository) Create(ctx context.Context, v *models.SavedView) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockViewRepository) ListVisible(ctx context.Context, userID, orgID string) ([]models.SavedView, error) {
	args := m.Called(ctx, userID, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedView), args.Error(1)
}

func (m *MockViewRepository) FindByID(ctx context.Context, id string) (*models.SavedView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedView), args.Error(1)
}

func (m *MockViewRepository) Delete(ctx context.Context, id, createdBy string) (bool, error) {
	args := m.Called(ctx, id, createdBy)
	return args.Bool(0), args.Error(1)
}

// MockSearchRepository is a mock implementation of SearchRepository for testing
type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) Create(ctx context.Context, s *models.SavedSearch) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSearchRepository) ListByUser(ctx context.Context, userID string) ([]models.SavedSearch, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedSearch), args.Error(1)
}

func (m *MockSearchRepository) FindByID(ctx context.Context, id, userID string) (*models.SavedSearch, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedSearch), args.Error(1)
}

func (m *MockSearchRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

// MockFavoriteRepository is a mock implementation of FavoriteRepository for testing
type MockFavoriteRepository struct {
	mock.Mock
}

func (m *MockFavoriteRepository) Add(ctx context.Context, userID, propertyID string, at time.Time) error {
	return m.Called(ctx, userID, propertyID, at).Error(0)
}

func (m *MockFavoriteRepository) Remove(ctx context.Context, userID, propertyID string) error {
	return m.Called(ctx, userID, propertyID).Error(0)
}

func (m *MockFavoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Favorite), args.Error(1)
}

// MockUploader is a mock implementation of Uploader for testing
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

// memGateway is an in-memory persistence.Gateway.
type memGateway struct {
	mu     sync.Mutex
	data   map[string]map[string][]byte
	putErr error
}

func newMemGateway() *memGateway {
	return &memGateway{data: make(map[string]map[string][]byte)}
}

func (g *memGateway) Get(_ context.Context, namespace, key string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.data[namespace][key]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (g *memGateway) Put(_ context.Context, namespace, key string, value []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.putErr != nil {
		return g.putErr
	}
	if g.data[namespace] == nil {
		g.data[namespace] = make(map[string][]byte)
	}
	g.data[namespace][key] = append([]byte(nil), value...)
	return nil
}

func (g *memGateway) Delete(_ context.Context, namespace, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.data[namespace], key)
	return nil
}

func (g *memGateway) List(_ context.Context, namespace string) (map[string][]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string][]byte, len(g.data[namespace]))
	for k, v := range g.data[namespace] {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

func (g *memGateway) keys(namespace string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := make([]string, 0, len(g.data[namespace]))
	for k := range g.data[namespace] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var testDefaults = SessionDefaults{
	Center: models.LatLng{Lat: 39.8283, Lng: -98.5795},
	Zoom:   4,
}

func newTestSessions(t *testing.T, store persistence.Gateway) *Sessions {
	t.Helper()
	return NewSessions(store, testDefaults, logger.NewNop())
}

var (
	alice = models.Caller{UserID: "alice", OrgID: "acme"}
	bob   = models.Caller{UserID: "bob", OrgID: "acme"}
)

func sampleProperties() []models.Property {
	return []models.Property{
		{ID: "p1", Address: "101 Lakeshore Dr", County: "Travis", Price: 1200000, Latitude: 30.29, Longitude: -97.78},
		{ID: "p2", Address: "22 Ridge Rd", County: "Travis", Price: 2500000, Latitude: 30.3, Longitude: -97.8},
		{ID: "p3", Address: "3 Elm St", County: "Williamson", Price: 950000, Latitude: 30.63, Longitude: -97.68},
		{ID: "p4", Address: "44 Bluff View", County: "Harris", Price: 4500000, Latitude: 29.72, Longitude: -95.42},
		{ID: "p5", Address: "500 Preston Rd", County: "Dallas", Price: 3200000, Latitude: 32.83, Longitude: -96.8},
	}
}

func propertyIDs(props []models.Property) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.ID)
	}
	return out
}
