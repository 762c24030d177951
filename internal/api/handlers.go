// Package api exposes the storerank HTTP surface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/storerank/internal/domain"
	"github.com/jonesrussell/storerank/internal/logger"
	"github.com/jonesrussell/storerank/internal/service"
)

const trueString = "true"

// tenantHeader carries the tenant identifier on every API call.
const tenantHeader = "X-Tenant-ID"

// Pinger reports cache backend liveness for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds HTTP request handlers
type Handler struct {
	orchestrator *service.Orchestrator
	cachePinger  Pinger
	version      string
	logger       logger.Logger
}

// NewHandler creates a new handler instance
func NewHandler(orchestrator *service.Orchestrator, cachePinger Pinger, version string, log logger.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		cachePinger:  cachePinger,
		version:      version,
		logger:       log,
	}
}

// SearchRequest is the POST body for search requests.
type SearchRequest struct {
	TenantID           string `json:"tenant_id"`
	Query              string `json:"query"`
	IncludeCompetitors bool   `json:"include_competitors"`
	MaxCompetitors     int    `json:"max_competitors"`
	Country            string `json:"country"`
}

// AnalyzeRequest is the POST body for keyword analysis requests.
// EntryID addresses a catalog entry directly and takes precedence over
// Query.
type AnalyzeRequest struct {
	TenantID    string `json:"tenant_id"`
	Query       string `json:"query"`
	EntryID     string `json:"entry_id"`
	Country     string `json:"country"`
	MaxKeywords int    `json:"max_keywords"`
}

// Search handles search requests (both GET and POST)
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest

	if c.Request.Method == http.MethodGet {
		req = parseSearchQueryParams(c)
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("Invalid search request body", logger.Error(err))
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:     "Invalid request body: " + err.Error(),
				Code:      "INVALID_REQUEST",
				Timestamp: time.Now(),
			})
			return
		}
	}

	query := domain.Query{
		TenantID: tenantID(c, req.TenantID),
		Raw:      req.Query,
	}
	opts := domain.SearchOptions{
		IncludeCompetitors: req.IncludeCompetitors,
		MaxCompetitors:     req.MaxCompetitors,
		Country:            req.Country,
	}

	result, err := h.orchestrator.Search(c.Request.Context(), query, opts)
	if err != nil {
		h.respondSearchError(c, query, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AnalyzeKeywords handles keyword analysis requests.
func (h *Handler) AnalyzeKeywords(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid analysis request body", logger.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Invalid request body: " + err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
		})
		return
	}

	raw := req.Query
	if req.EntryID != "" {
		// Address the entry directly through the lookup path.
		raw = "https://apps.apple.com/app/id" + req.EntryID
	}

	query := domain.Query{
		TenantID: tenantID(c, req.TenantID),
		Raw:      raw,
	}
	opts := domain.SearchOptions{
		IncludeCompetitors: true,
		Country:            req.Country,
	}

	analysis, err := h.orchestrator.AnalyzeKeywords(c.Request.Context(), query, opts, req.MaxKeywords)
	if err != nil {
		h.respondSearchError(c, query, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (h *Handler) respondSearchError(c *gin.Context, query domain.Query, err error) {
	if service.IsRejection(err) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     err.Error(),
			Code:      "VALIDATION_ERROR",
			Timestamp: time.Now(),
		})
		return
	}

	h.logger.Error("Request failed",
		logger.String("tenant_id", query.TenantID),
		logger.Error(err),
	)
	c.JSON(http.StatusBadGateway, ErrorResponse{
		Error:     err.Error(),
		Code:      "UPSTREAM_ERROR",
		Timestamp: time.Now(),
	})
}

// tenantID resolves the tenant from the request body, falling back to
// the X-Tenant-ID header.
func tenantID(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return c.GetHeader(tenantHeader)
}

func parseSearchQueryParams(c *gin.Context) SearchRequest {
	req := SearchRequest{
		TenantID: c.Query("tenant_id"),
		Query:    c.Query("query"),
		Country:  c.Query("country"),
	}
	// Short alias kept for convenience.
	if req.Query == "" {
		req.Query = c.Query("q")
	}
	if include := c.Query("competitors"); include != "" {
		req.IncludeCompetitors = include == trueString
	}
	if maxStr := c.Query("max_competitors"); maxStr != "" {
		if m, err := parsePositiveInt(maxStr); err == nil {
			req.MaxCompetitors = m
		}
	}
	return req
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: time.Now(),
	})
}

// ReadinessCheck verifies the cache backend is reachable. The upstream
// catalog is intentionally excluded: the pipeline degrades without it.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if err := h.cachePinger.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "unavailable",
			Version:   h.version,
			Timestamp: time.Now(),
		})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Version:   h.version,
		Timestamp: time.Now(),
	})
}
