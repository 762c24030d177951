// Package service orchestrates the search pipeline: classification,
// caching, discovery, fallback and audit.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/storerank/internal/audit"
	"github.com/jonesrussell/storerank/internal/cache"
	"github.com/jonesrussell/storerank/internal/classify"
	"github.com/jonesrussell/storerank/internal/discovery"
	"github.com/jonesrussell/storerank/internal/domain"
	"github.com/jonesrussell/storerank/internal/keywords"
	"github.com/jonesrussell/storerank/internal/logger"
	"github.com/jonesrussell/storerank/internal/ranking"
	"github.com/jonesrussell/storerank/internal/ratelimit"
	"github.com/jonesrussell/storerank/internal/telemetry"
)

const (
	// fallbackMaxCompetitors keeps the retry-as-keyword pass cheap.
	fallbackMaxCompetitors = 5
	// liveSearchLimit is the result window for live rank checks.
	liveSearchLimit = 50
	// competitorKeywordCap bounds how many competitor names become
	// keyword candidates.
	competitorKeywordCap = 5

	actionSearch  = "search"
	actionAnalyze = "analyze_keywords"
)

// KeywordAnalysis is the outcome of keyword analysis for one target.
type KeywordAnalysis struct {
	Target   domain.CatalogEntry      `json:"target"`
	Rankings []ranking.KeywordRanking `json:"rankings"`
}

// Orchestrator runs the end-to-end pipeline. For recoverable
// conditions Search always returns a structurally valid result; the
// only error surfaces are rejected input and missing request fields.
type Orchestrator struct {
	classifier *classify.Classifier
	cache      *cache.Manager
	discovery  *discovery.Service
	extractor  *keywords.Extractor
	analyzer   *ranking.Analyzer
	limits     *ratelimit.Registry
	audit      audit.Recorder
	metrics    *telemetry.Metrics
	logger     logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Classifier *classify.Classifier
	Cache      *cache.Manager
	Discovery  *discovery.Service
	Extractor  *keywords.Extractor
	Analyzer   *ranking.Analyzer
	Limits     *ratelimit.Registry
	Audit      audit.Recorder
	Metrics    *telemetry.Metrics
	Logger     logger.Logger
}

// NewOrchestrator creates an Orchestrator. Audit may be a NopRecorder
// and Metrics may be nil.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{
		classifier: deps.Classifier,
		cache:      deps.Cache,
		discovery:  deps.Discovery,
		extractor:  deps.Extractor,
		analyzer:   deps.Analyzer,
		limits:     deps.Limits,
		audit:      deps.Audit,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Search runs one pipeline invocation for the tenant's raw query.
// Upstream failures and empty catalogs degrade through a single
// keyword fallback and finally a no-match result rather than erroring.
func (o *Orchestrator) Search(ctx context.Context, query domain.Query, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	opts.Normalize()
	start := o.now()

	if !o.limits.Allow(query.TenantID + ":" + actionSearch) {
		// Soft limit: the request proceeds, the decision is recorded.
		o.logger.Warn("Search over tenant rate limit", logger.String("tenant_id", query.TenantID))
	}

	classified, err := o.classifier.Classify(query.Raw)
	if err != nil {
		o.finish(ctx, query, actionSearch, domain.OutcomeRejected, "", start)
		return nil, err
	}

	if cached, ok := o.cache.Get(ctx, query.TenantID, query.Raw); ok {
		o.metrics.RecordCacheOp("get", "hit")
		cached.SearchContext.CacheHit = true
		o.finish(ctx, query, actionSearch, domain.OutcomeCacheHit, resultSummary(cached), start)
		return cached, nil
	}
	o.metrics.RecordCacheOp("get", "miss")

	set, err := o.discovery.Discover(ctx, *classified, opts)
	if err == nil {
		result := buildResult(set, classified, opts, false)
		if setErr := o.cache.Set(ctx, query.TenantID, query.Raw, result); setErr != nil {
			o.metrics.RecordCacheOp("set", "error")
		} else {
			o.metrics.RecordCacheOp("set", "ok")
		}
		o.finish(ctx, query, actionSearch, domain.OutcomeSuccess, resultSummary(result), start)
		return result, nil
	}

	o.logger.Warn("Primary discovery failed, trying keyword fallback",
		logger.String("tenant_id", query.TenantID),
		logger.String("kind", string(classified.Kind)),
		logger.Error(err),
	)

	result := o.fallback(ctx, classified, opts)
	if result != nil {
		o.finish(ctx, query, actionSearch, domain.OutcomeFallback, resultSummary(result), start)
		return result, nil
	}

	noMatch := domain.NoMatchResult(classified.NormalizedTerm, classified.Kind, opts.Country)
	o.finish(ctx, query, actionSearch, domain.OutcomeNoMatch, "", start)
	return noMatch, nil
}

// fallback reissues the query as a plain keyword with conservative
// parameters. Runs at most once per invocation; nil means it failed.
func (o *Orchestrator) fallback(ctx context.Context, classified *domain.ClassifiedQuery, opts domain.SearchOptions) *domain.SearchResult {
	fallbackOpts := opts
	if fallbackOpts.MaxCompetitors > fallbackMaxCompetitors {
		fallbackOpts.MaxCompetitors = fallbackMaxCompetitors
	}

	cq := domain.ClassifiedQuery{
		NormalizedTerm: classified.NormalizedTerm,
		Kind:           domain.KindKeyword,
		Confidence:     classified.Confidence,
	}
	set, err := o.discovery.Discover(ctx, cq, fallbackOpts)
	if err != nil {
		o.logger.Warn("Keyword fallback failed", logger.Error(err))
		return nil
	}
	return buildResult(set, classified, fallbackOpts, true)
}

// AnalyzeKeywords resolves the query to a target, extracts candidate
// keywords from its metadata and competitor names, and ranks each
// candidate within the live-check budget. maxKeywords caps the
// candidate pool when positive.
func (o *Orchestrator) AnalyzeKeywords(ctx context.Context, query domain.Query, opts domain.SearchOptions, maxKeywords int) (*KeywordAnalysis, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	opts.Normalize()
	start := o.now()

	if !o.limits.Allow(query.TenantID + ":" + actionAnalyze) {
		o.logger.Warn("Analysis over tenant rate limit", logger.String("tenant_id", query.TenantID))
	}

	classified, err := o.classifier.Classify(query.Raw)
	if err != nil {
		o.finish(ctx, query, actionAnalyze, domain.OutcomeRejected, "", start)
		return nil, err
	}

	set, err := o.discovery.Discover(ctx, *classified, opts)
	if err != nil {
		o.finish(ctx, query, actionAnalyze, domain.OutcomeNoMatch, "", start)
		return nil, fmt.Errorf("resolve analysis target: %w", err)
	}

	candidates := o.extractor.Extract(set.Target)
	candidates = appendCompetitorCandidates(candidates, set.Competitors)
	if maxKeywords > 0 && len(candidates) > maxKeywords {
		candidates = candidates[:maxKeywords]
	}

	live := func(ctx context.Context, keyword string) ([]domain.CatalogEntry, error) {
		return o.discovery.LiveSearch(ctx, keyword, opts.Country, liveSearchLimit)
	}
	rankings := o.analyzer.Analyze(ctx, set.Target, candidates, live)
	for _, r := range rankings {
		o.metrics.RecordRankCheck(string(r.Ranking.Confidence))
	}

	summary := fmt.Sprintf("target=%s keywords=%d", set.Target.ID, len(rankings))
	o.finish(ctx, query, actionAnalyze, domain.OutcomeSuccess, summary, start)

	return &KeywordAnalysis{Target: set.Target, Rankings: rankings}, nil
}

// finish records metrics and the audit entry for one invocation.
// Audit failures are logged, never surfaced.
func (o *Orchestrator) finish(ctx context.Context, query domain.Query, action string, outcome domain.Outcome, summary string, start time.Time) {
	o.metrics.RecordSearch(string(outcome), o.now().Sub(start))

	record := domain.AuditRecord{
		TenantID:      query.TenantID,
		Action:        action,
		Query:         query.Raw,
		ResultSummary: summary,
		Outcome:       outcome,
	}
	if err := o.audit.Record(ctx, record); err != nil {
		o.logger.Warn("Audit record failed",
			logger.String("tenant_id", query.TenantID),
			logger.Error(err),
		)
	}
}

func buildResult(set *domain.ResultSet, classified *domain.ClassifiedQuery, opts domain.SearchOptions, fallback bool) *domain.SearchResult {
	target := set.Target
	competitors := set.Competitors
	if competitors == nil {
		competitors = []domain.CatalogEntry{}
	}
	return &domain.SearchResult{
		Target:      &target,
		Competitors: competitors,
		SearchContext: domain.SearchContext{
			Query:        classified.NormalizedTerm,
			Kind:         classified.Kind,
			TotalResults: 1 + len(competitors),
			Category:     set.Category,
			Country:      opts.Country,
			Fallback:     fallback,
		},
	}
}

func resultSummary(result *domain.SearchResult) string {
	if result.Target == nil {
		return "no target"
	}
	return fmt.Sprintf("target=%s competitors=%d", result.Target.ID, len(result.Competitors))
}

// appendCompetitorCandidates adds competitor names as candidates,
// skipping duplicates of already extracted terms.
func appendCompetitorCandidates(candidates []domain.CandidateKeyword, competitors []domain.CatalogEntry) []domain.CandidateKeyword {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		seen[c.Text] = struct{}{}
	}

	added := 0
	for _, comp := range competitors {
		if added >= competitorKeywordCap {
			break
		}
		text := domain.NormalizeTerm(comp.Name)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		candidates = append(candidates, domain.CandidateKeyword{
			Text:           text,
			Source:         domain.SourceCompetitor,
			RelevanceScore: 0.5,
		})
		added++
	}
	return candidates
}

// IsRejection reports whether err is a validation failure the caller
// should see as a 4xx rather than a degraded result.
func IsRejection(err error) bool {
	return errors.Is(err, domain.ErrInputRejected) ||
		errors.Is(err, domain.ErrMissingTenant)
}
