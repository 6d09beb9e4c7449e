package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	apierrors "github.com/stwalsh4118/wealthmap/internal/errors"
	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/maplayer"
	"github.com/stwalsh4118/wealthmap/internal/middleware"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/report"
	"github.com/stwalsh4118/wealthmap/internal/services"
)

var alice = models.Caller{UserID: "alice", OrgID: "acme"}

type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) Search(ctx context.Context, q models.PropertyQuery) ([]models.Property, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyService) Get(ctx context.Context, id string) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) GetMany(ctx context.Context, ids []string) ([]models.Property, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

type MockMapService struct {
	mock.Mock
}

func (m *MockMapService) State(ctx context.Context, caller models.Caller) (models.MapState, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(models.MapState), args.Error(1)
}

func (m *MockMapService) Refresh(ctx context.Context, caller models.Caller, q models.PropertyQuery) (services.RefreshResult, error) {
	args := m.Called(ctx, caller, q)
	return args.Get(0).(services.RefreshResult), args.Error(1)
}

func (m *MockMapService) ApplyFilters(ctx context.Context, caller models.Caller, fs models.FilterSet) (models.MapState, error) {
	args := m.Called(ctx, caller, fs)
	return args.Get(0).(models.MapState), args.Error(1)
}

func (m *MockMapService) SetLayer(ctx context.Context, caller models.Caller, layer maplayer.Layer, visible bool) (models.LayerFlags, error) {
	args := m.Called(ctx, caller, layer, visible)
	return args.Get(0).(models.LayerFlags), args.Error(1)
}

func (m *MockMapService) ToggleLayer(ctx context.Context, caller models.Caller, layer maplayer.Layer) (models.LayerFlags, error) {
	args := m.Called(ctx, caller, layer)
	return args.Get(0).(models.LayerFlags), args.Error(1)
}

func (m *MockMapService) SetView(ctx context.Context, caller models.Caller, center models.LatLng, zoom int) (models.MapState, error) {
	args := m.Called(ctx, caller, center, zoom)
	return args.Get(0).(models.MapState), args.Error(1)
}

func (m *MockMapService) ApplyState(ctx context.Context, caller models.Caller, st models.MapState) (models.MapState, error) {
	args := m.Called(ctx, caller, st)
	return args.Get(0).(models.MapState), args.Error(1)
}

func (m *MockMapService) Scene(ctx context.Context, caller models.Caller) (maplayer.Scene, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(maplayer.Scene), args.Error(1)
}

func (m *MockMapService) Filtered(ctx context.Context, caller models.Caller) ([]models.Property, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockMapService) Sweep(ttl time.Duration) int {
	return m.Called(ttl).Int(0)
}

type MockViewService struct {
	mock.Mock
}

func (m *MockViewService) Save(ctx context.Context, caller models.Caller, name string, scope models.Scope) (*models.SavedView, error) {
	args := m.Called(ctx, caller, name, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedView), args.Error(1)
}

func (m *MockViewService) Load(ctx context.Context, caller models.Caller, id string) (*models.SavedView, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedView), args.Error(1)
}

func (m *MockViewService) Delete(ctx context.Context, caller models.Caller, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

func (m *MockViewService) List(ctx context.Context, caller models.Caller, scope models.Scope) (services.ViewList, error) {
	args := m.Called(ctx, caller, scope)
	return args.Get(0).(services.ViewList), args.Error(1)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Create(ctx context.Context, caller models.Caller, name string, filters *models.FilterSet) (*models.SavedSearch, error) {
	args := m.Called(ctx, caller, name, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedSearch), args.Error(1)
}

func (m *MockSearchService) List(ctx context.Context, caller models.Caller) ([]models.SavedSearch, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedSearch), args.Error(1)
}

func (m *MockSearchService) Delete(ctx context.Context, caller models.Caller, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

func (m *MockSearchService) Apply(ctx context.Context, caller models.Caller, id string) (models.MapState, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(models.MapState), args.Error(1)
}

type MockBookmarkService struct {
	mock.Mock
}

func (m *MockBookmarkService) Add(ctx context.Context, caller models.Caller, propertyID string) (*models.Bookmark, bool, error) {
	args := m.Called(ctx, caller, propertyID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Bookmark), args.Bool(1), args.Error(2)
}

func (m *MockBookmarkService) Remove(ctx context.Context, caller models.Caller, propertyID string) error {
	return m.Called(ctx, caller, propertyID).Error(0)
}

func (m *MockBookmarkService) List(ctx context.Context, caller models.Caller) ([]models.Bookmark, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Bookmark), args.Error(1)
}

type MockFavoriteService struct {
	mock.Mock
}

func (m *MockFavoriteService) Toggle(ctx context.Context, caller models.Caller, propertyID string) (bool, error) {
	args := m.Called(ctx, caller, propertyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteService) List(ctx context.Context, caller models.Caller) ([]models.Favorite, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Favorite), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Summary(ctx context.Context, caller models.Caller, sel services.Selection) (report.Summary, error) {
	args := m.Called(ctx, caller, sel)
	return args.Get(0).(report.Summary), args.Error(1)
}

func (m *MockReportService) CSV(ctx context.Context, caller models.Caller, sel services.Selection, w io.Writer) error {
	args := m.Called(ctx, caller, sel, w)
	return args.Error(0)
}

func (m *MockReportService) PDF(ctx context.Context, caller models.Caller, sel services.Selection) (*services.PDFReport, error) {
	args := m.Called(ctx, caller, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PDFReport), args.Error(1)
}

// testAPI bundles the mocks behind a router wired the way the server wires it.
type testAPI struct {
	router     *gin.Engine
	properties *MockPropertyService
	maps       *MockMapService
	views      *MockViewService
	searches   *MockSearchService
	bookmarks  *MockBookmarkService
	favorites  *MockFavoriteService
	reports    *MockReportService
}

func newTestAPI() *testAPI {
	gin.SetMode(gin.TestMode)
	if err := apierrors.SetupValidator(); err != nil {
		panic(err)
	}

	t := &testAPI{
		properties: new(MockPropertyService),
		maps:       new(MockMapService),
		views:      new(MockViewService),
		searches:   new(MockSearchService),
		bookmarks:  new(MockBookmarkService),
		favorites:  new(MockFavoriteService),
		reports:    new(MockReportService),
	}

	reports := NewReportHandler(t.reports)
	reports.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	api := &API{
		Properties: NewPropertyHandler(t.properties),
		Map:        NewMapHandler(t.maps),
		Views:      NewViewHandler(t.views),
		Searches:   NewSearchHandler(t.searches),
		Saved:      NewSavedHandler(t.bookmarks, t.favorites),
		Reports:    reports,
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.NewNop()))
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity())
	api.Register(v1)

	t.router = router
	return t
}

// do sends a request as alice and records the response.
func (t *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.UserIDHeader, alice.UserID)
	req.Header.Set(middleware.OrgIDHeader, alice.OrgID)

	w := httptest.NewRecorder()
	t.router.ServeHTTP(w, req)
	return w
}

// errorCode extracts error.code from an error envelope.
func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code    string                 `json:"code"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	_ = decode(w, &body)
	return body.Error.Code
}

func decode(w *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}
