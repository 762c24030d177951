package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/storerank/internal/api"
	"github.com/jonesrussell/storerank/internal/audit"
	"github.com/jonesrussell/storerank/internal/breaker"
	"github.com/jonesrussell/storerank/internal/cache"
	"github.com/jonesrussell/storerank/internal/classify"
	"github.com/jonesrussell/storerank/internal/discovery"
	"github.com/jonesrussell/storerank/internal/domain"
	"github.com/jonesrussell/storerank/internal/keywords"
	"github.com/jonesrussell/storerank/internal/logger"
	"github.com/jonesrussell/storerank/internal/ranking"
	"github.com/jonesrussell/storerank/internal/ratelimit"
	"github.com/jonesrussell/storerank/internal/service"
)

type stubProvider struct {
	searchFn func(term, country string, limit int) ([]domain.CatalogEntry, error)
	lookupFn func(id, country string) (*domain.CatalogEntry, error)
}

func (s *stubProvider) Search(_ context.Context, term, country string, limit int) ([]domain.CatalogEntry, error) {
	return s.searchFn(term, country, limit)
}

func (s *stubProvider) Lookup(_ context.Context, id, country string) (*domain.CatalogEntry, error) {
	return s.lookupFn(id, country)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("cache down") }

func newTestRouter(t *testing.T, provider *stubProvider, pinger api.Pinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	brk := breaker.New(breaker.Config{MaxFailures: 5, ResetWindow: time.Minute})
	disco := discovery.NewService(provider, brk,
		discovery.Config{MaxRetries: 0, BaseDelay: time.Millisecond}, nil, log)
	manager := cache.NewManager(cache.NewMemoryStore(), 15*time.Minute, log)
	limits := ratelimit.NewRegistry(600, 100, log)
	t.Cleanup(limits.Close)

	orch := service.NewOrchestrator(service.Deps{
		Classifier: classify.New(),
		Cache:      manager,
		Discovery:  disco,
		Extractor:  keywords.NewExtractor(25),
		Analyzer:   ranking.NewAnalyzer(ranking.NewCalculator(), 2, time.Millisecond, log),
		Limits:     limits,
		Audit:      audit.NewNopRecorder(),
		Logger:     log,
	})

	if pinger == nil {
		pinger = manager
	}
	handler := api.NewHandler(orch, pinger, "test", log)

	router := gin.New()
	api.SetupRoutes(router, handler, nil)
	return router
}

func healthyProvider() *stubProvider {
	return &stubProvider{
		searchFn: func(_, _ string, _ int) ([]domain.CatalogEntry, error) {
			return []domain.CatalogEntry{
				{ID: "1", Name: "Calm", Category: "Health & Fitness"},
				{ID: "2", Name: "Headspace", Category: "Health & Fitness"},
			}, nil
		},
		lookupFn: func(id, _ string) (*domain.CatalogEntry, error) {
			return &domain.CatalogEntry{ID: id, Name: "Headspace", Category: "Health & Fitness"}, nil
		},
	}
}

func TestSearch_GET(t *testing.T) {
	t.Helper()

	router := newTestRouter(t, healthyProvider(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?query=meditation&competitors=true", http.NoBody)
	req.Header.Set("X-Tenant-ID", "tenant-a")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result domain.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Target)
	assert.Equal(t, "1", result.Target.ID)
	assert.Len(t, result.Competitors, 1)
}

func TestSearch_GETShortQueryAlias(t *testing.T) {
	t.Helper()

	router := newTestRouter(t, healthyProvider(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=meditation", http.NoBody)
	req.Header.Set("X-Tenant-ID", "tenant-a")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result domain.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Target)
	assert.Equal(t, "meditation", result.SearchContext.Query)
}

func TestSearch_POST(t *testing.T) {
	t.Helper()

	router := newTestRouter(t, healthyProvider(), nil)

	body, marshalErr := json.Marshal(api.SearchRequest{
		Query:              "meditation",
		IncludeCompetitors: true,
		MaxCompetitors:     5,
		Country:            "gb",
	})
	require.NoError(t, marshalErr)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", "tenant-a")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result domain.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "gb", result.SearchContext.Country)
}

func TestSearch_MissingTenantIsBadRequest(t *testing.T) {
	t.Helper()

	router := newTestRouter(t, healthyProvider(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=meditation", http.NoBody)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func TestSearch_RejectedInputIsBadRequest(t *testing.T) {
	t.Helper()

	router := newTestRouter(t, healthyProvider(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=%3Cscript%3Ealert%281%29%3C%2Fscript%3E", http.NoBody)
	req.Header.Set("X-Tenant-ID", "tenant-a")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_UpstreamFailureStillReturnsResult(t *testing.T) {
	t.Helper()

	provider := &stubProvider{
		searchFn: func(_, _ string, _ int) ([]domain.CatalogEntry, error) {
			return nil, domain.ErrUpstreamUnavailable
		},
	}
	router := newTestRouter(t, provider, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=meditation", http.NoBody)
	req.Header.Set("X-Tenant-ID", "tenant-a")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "degraded results are still 200s")

	var result domain.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.SearchContext.NoMatch)
}

func TestAnalyzeKeywords_POST(t *testing.T) {
	t.Helper()

	router := newTestRouter(t, healthyProvider(), nil)

	body, marshalErr := json.Marshal(api.AnalyzeRequest{Query: "Calm"})
	require.NoError(t, marshalErr)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/keywords/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", "tenant-a")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var analysis service.KeywordAnalysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.Equal(t, "1", analysis.Target.ID)
	assert.NotEmpty(t, analysis.Rankings)
}

func TestHealthCheck(t *testing.T) {
	t.Helper()

	router := newTestRouter(t, healthyProvider(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessCheck_CacheDown(t *testing.T) {
	t.Helper()

	router := newTestRouter(t, healthyProvider(), failingPinger{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
