// Package telemetry exports Prometheus metrics for the storerank
// service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all storerank Prometheus metrics
type Metrics struct {
	// Pipeline metrics
	SearchesTotal  *prometheus.CounterVec
	SearchDuration prometheus.Histogram

	// Cache metrics
	CacheOpsTotal *prometheus.CounterVec

	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	BreakerState     prometheus.Gauge

	// Ranking metrics
	RankChecksTotal *prometheus.CounterVec
}

// NewMetrics registers all metrics on the default registry.
func NewMetrics() *Metrics {
	m := &Metrics{}
	initPipelineMetrics(m)
	initCacheMetrics(m)
	initUpstreamMetrics(m)
	initRankingMetrics(m)
	return m
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

func initPipelineMetrics(m *Metrics) {
	m.SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storerank_searches_total",
		Help: "Total search pipeline invocations by outcome (success, cache_hit, fallback, no_match, rejected)",
	}, []string{"outcome"})

	m.SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storerank_search_duration_seconds",
		Help:    "End-to-end search pipeline latency",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	})
}

func initCacheMetrics(m *Metrics) {
	m.CacheOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storerank_cache_ops_total",
		Help: "Cache operations by op (get, set) and result (hit, miss, error)",
	}, []string{"op", "result"})
}

func initUpstreamMetrics(m *Metrics) {
	m.UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storerank_upstream_requests_total",
		Help: "Catalog provider requests by op (search, lookup) and status (ok, error)",
	}, []string{"op", "status"})

	m.BreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storerank_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	})
}

func initRankingMetrics(m *Metrics) {
	m.RankChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storerank_rank_checks_total",
		Help: "Keyword rank checks by confidence (actual, estimated)",
	}, []string{"confidence"})
}

// RecordSearch records one completed pipeline invocation. All record
// methods are nil-safe so components can run without metrics wired.
func (m *Metrics) RecordSearch(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.Observe(duration.Seconds())
}

// RecordCacheOp records one cache access.
func (m *Metrics) RecordCacheOp(op, result string) {
	if m == nil {
		return
	}
	m.CacheOpsTotal.WithLabelValues(op, result).Inc()
}

// RecordUpstream records one catalog provider request.
func (m *Metrics) RecordUpstream(op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.UpstreamRequests.WithLabelValues(op, status).Inc()
}

// SetBreakerState updates the breaker state gauge.
func (m *Metrics) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.BreakerState.Set(float64(state))
}

// RecordRankCheck records one keyword rank check.
func (m *Metrics) RecordRankCheck(confidence string) {
	if m == nil {
		return
	}
	m.RankChecksTotal.WithLabelValues(confidence).Inc()
}
