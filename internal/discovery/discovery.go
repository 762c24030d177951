// Package discovery resolves a classified query into a target catalog
// entry and its competitor set, guarding every upstream call with a
// circuit breaker and bounded retries.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jonesrussell/storerank/internal/breaker"
	"github.com/jonesrussell/storerank/internal/domain"
	"github.com/jonesrussell/storerank/internal/logger"
	"github.com/jonesrussell/storerank/internal/retry"
	"github.com/jonesrussell/storerank/internal/telemetry"
)

// Provider is the upstream catalog API surface.
type Provider interface {
	Search(ctx context.Context, term, country string, limit int) ([]domain.CatalogEntry, error)
	Lookup(ctx context.Context, id, country string) (*domain.CatalogEntry, error)
}

// idPattern extracts the numeric product identifier from a storefront
// URL path, e.g. /us/app/headspace/id493145008.
var idPattern = regexp.MustCompile(`/id(\d+)`)

// Config configures the discovery service.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Service performs catalog discovery.
type Service struct {
	provider Provider
	brk      *breaker.Breaker
	retryCfg retry.Config
	metrics  *telemetry.Metrics
	logger   logger.Logger
}

// NewService creates a discovery Service. metrics may be nil.
func NewService(provider Provider, brk *breaker.Breaker, cfg Config, metrics *telemetry.Metrics, log logger.Logger) *Service {
	return &Service{
		provider: provider,
		brk:      brk,
		retryCfg: retry.Config{
			MaxRetries:  cfg.MaxRetries,
			BaseDelay:   cfg.BaseDelay,
			MaxDelay:    cfg.MaxDelay,
			IsRetryable: isRetryable,
		},
		metrics: metrics,
		logger:  log,
	}
}

func isRetryable(err error) bool {
	return errors.Is(err, domain.ErrUpstreamUnavailable)
}

// Discover resolves the classified query into a result set. URL queries
// look up the exact product then search its category for competitors;
// brand and keyword queries take the first result as the target and the
// remainder as competitors. A country hint extracted from a URL takes
// precedence over the requested country.
func (s *Service) Discover(ctx context.Context, cq domain.ClassifiedQuery, opts domain.SearchOptions) (*domain.ResultSet, error) {
	country := opts.Country
	if cq.CountryHint != "" {
		country = cq.CountryHint
	}

	if cq.Kind == domain.KindURL {
		return s.discoverByURL(ctx, cq.NormalizedTerm, country, opts)
	}
	return s.discoverByTerm(ctx, cq.NormalizedTerm, country, opts)
}

func (s *Service) discoverByURL(ctx context.Context, rawURL, country string, opts domain.SearchOptions) (*domain.ResultSet, error) {
	match := idPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return nil, fmt.Errorf("no product id in url %q: %w", rawURL, domain.ErrNotFound)
	}
	id := match[1]

	var target *domain.CatalogEntry
	err := s.guarded(ctx, "lookup", func() error {
		var lookupErr error
		target, lookupErr = s.provider.Lookup(ctx, id, country)
		return lookupErr
	})
	if err != nil {
		return nil, err
	}

	set := &domain.ResultSet{Target: *target, Category: target.Category}
	if !opts.IncludeCompetitors || target.Category == "" {
		return set, nil
	}

	var entries []domain.CatalogEntry
	err = s.guarded(ctx, "search", func() error {
		var searchErr error
		entries, searchErr = s.provider.Search(ctx, target.Category, country, opts.MaxCompetitors+1)
		return searchErr
	})
	if err != nil {
		// The target resolved; losing competitors degrades the result
		// instead of failing it.
		s.logger.Warn("Competitor search failed after lookup",
			logger.String("category", target.Category),
			logger.Error(err),
		)
		return set, nil
	}

	for _, e := range entries {
		if e.ID == target.ID {
			continue
		}
		if len(set.Competitors) >= opts.MaxCompetitors {
			break
		}
		set.Competitors = append(set.Competitors, e)
	}
	return set, nil
}

func (s *Service) discoverByTerm(ctx context.Context, term, country string, opts domain.SearchOptions) (*domain.ResultSet, error) {
	var entries []domain.CatalogEntry
	err := s.guarded(ctx, "search", func() error {
		var searchErr error
		entries, searchErr = s.provider.Search(ctx, term, country, opts.MaxCompetitors+1)
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("term %q: %w", term, domain.ErrNotFound)
	}

	set := &domain.ResultSet{Target: entries[0], Category: entries[0].Category}
	if opts.IncludeCompetitors {
		for _, e := range entries[1:] {
			if e.ID == set.Target.ID {
				continue
			}
			if len(set.Competitors) >= opts.MaxCompetitors {
				break
			}
			set.Competitors = append(set.Competitors, e)
		}
	}
	return set, nil
}

// LiveSearch issues one guarded catalog search. The keyword analyzer
// uses it for live rank checks.
func (s *Service) LiveSearch(ctx context.Context, term, country string, limit int) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	err := s.guarded(ctx, "search", func() error {
		var searchErr error
		entries, searchErr = s.provider.Search(ctx, term, country, limit)
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// guarded runs one upstream operation behind the breaker and retry
// policy. The breaker observes post-retry outcomes: a call that
// recovers on a later attempt counts as a success.
func (s *Service) guarded(ctx context.Context, op string, fn func() error) error {
	if s.brk.IsOpen() {
		s.metrics.RecordUpstream(op, breaker.ErrOpen)
		return fmt.Errorf("%s: %w: %w", op, breaker.ErrOpen, domain.ErrUpstreamUnavailable)
	}

	err := retry.Do(ctx, s.retryCfg, fn)
	s.metrics.RecordUpstream(op, err)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			s.brk.RecordFailure()
		}
		return err
	}

	s.brk.RecordSuccess()
	return nil
}
