package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/storerank/internal/breaker"
	"github.com/jonesrussell/storerank/internal/discovery"
	"github.com/jonesrussell/storerank/internal/domain"
	"github.com/jonesrussell/storerank/internal/logger"
)

type stubProvider struct {
	searchFn    func(term, country string, limit int) ([]domain.CatalogEntry, error)
	lookupFn    func(id, country string) (*domain.CatalogEntry, error)
	searchCalls int
	lookupCalls int
}

func (s *stubProvider) Search(_ context.Context, term, country string, limit int) ([]domain.CatalogEntry, error) {
	s.searchCalls++
	return s.searchFn(term, country, limit)
}

func (s *stubProvider) Lookup(_ context.Context, id, country string) (*domain.CatalogEntry, error) {
	s.lookupCalls++
	return s.lookupFn(id, country)
}

func catalogEntries(n int) []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.CatalogEntry{
			ID:       string(rune('a' + i)),
			Name:     "App " + string(rune('A'+i)),
			Category: "Health & Fitness",
		})
	}
	return out
}

func newTestService(provider discovery.Provider) *discovery.Service {
	brk := breaker.New(breaker.Config{MaxFailures: 5, ResetWindow: time.Minute})
	cfg := discovery.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	return discovery.NewService(provider, brk, cfg, nil, logger.NewNop())
}

func TestDiscover_KeywordTakesFirstResultAsTarget(t *testing.T) {
	t.Helper()

	provider := &stubProvider{
		searchFn: func(_, _ string, _ int) ([]domain.CatalogEntry, error) {
			return catalogEntries(10), nil
		},
	}
	svc := newTestService(provider)

	opts := domain.SearchOptions{IncludeCompetitors: true, MaxCompetitors: 10, Country: "us"}
	set, err := svc.Discover(context.Background(),
		domain.ClassifiedQuery{NormalizedTerm: "meditation", Kind: domain.KindKeyword}, opts)

	require.NoError(t, err)
	assert.Equal(t, "a", set.Target.ID)
	assert.Len(t, set.Competitors, 9, "all non-target results become competitors")
	assert.Equal(t, "Health & Fitness", set.Category)
}

func TestDiscover_CompetitorsCapped(t *testing.T) {
	t.Helper()

	provider := &stubProvider{
		searchFn: func(_, _ string, _ int) ([]domain.CatalogEntry, error) {
			return catalogEntries(10), nil
		},
	}
	svc := newTestService(provider)

	opts := domain.SearchOptions{IncludeCompetitors: true, MaxCompetitors: 3, Country: "us"}
	set, err := svc.Discover(context.Background(),
		domain.ClassifiedQuery{NormalizedTerm: "meditation", Kind: domain.KindKeyword}, opts)

	require.NoError(t, err)
	assert.Len(t, set.Competitors, 3)
}

func TestDiscover_KeywordFiltersTargetFromCompetitors(t *testing.T) {
	t.Helper()

	provider := &stubProvider{
		searchFn: func(_, _ string, _ int) ([]domain.CatalogEntry, error) {
			return []domain.CatalogEntry{
				{ID: "dup", Name: "Calm", Category: "Health & Fitness"},
				{ID: "b", Name: "Headspace", Category: "Health & Fitness"},
				{ID: "dup", Name: "Calm", Category: "Health & Fitness"},
			}, nil
		},
	}
	svc := newTestService(provider)

	opts := domain.SearchOptions{IncludeCompetitors: true, MaxCompetitors: 10, Country: "us"}
	set, err := svc.Discover(context.Background(),
		domain.ClassifiedQuery{NormalizedTerm: "meditation", Kind: domain.KindKeyword}, opts)

	require.NoError(t, err)
	assert.Equal(t, "dup", set.Target.ID)
	require.Len(t, set.Competitors, 1, "repeated target entries are dropped")
	for _, c := range set.Competitors {
		assert.NotEqual(t, set.Target.ID, c.ID)
	}
}

func TestDiscover_URLLooksUpProductThenCategory(t *testing.T) {
	t.Helper()

	target := domain.CatalogEntry{ID: "123456789", Name: "Headspace", Category: "Health & Fitness"}
	provider := &stubProvider{
		lookupFn: func(id, country string) (*domain.CatalogEntry, error) {
			assert.Equal(t, "123456789", id)
			assert.Equal(t, "gb", country)
			return &target, nil
		},
		searchFn: func(term, _ string, _ int) ([]domain.CatalogEntry, error) {
			assert.Equal(t, "Health & Fitness", term)
			entries := catalogEntries(4)
			entries[1].ID = "123456789"
			return entries, nil
		},
	}
	svc := newTestService(provider)

	opts := domain.SearchOptions{IncludeCompetitors: true, MaxCompetitors: 10, Country: "us"}
	set, err := svc.Discover(context.Background(), domain.ClassifiedQuery{
		NormalizedTerm: "https://apps.apple.com/gb/app/headspace/id123456789",
		Kind:           domain.KindURL,
		CountryHint:    "gb",
	}, opts)

	require.NoError(t, err)
	assert.Equal(t, "123456789", set.Target.ID)
	assert.Len(t, set.Competitors, 3, "the target itself is filtered from competitors")
	for _, c := range set.Competitors {
		assert.NotEqual(t, set.Target.ID, c.ID)
	}
}

func TestDiscover_URLWithoutProductID(t *testing.T) {
	t.Helper()

	svc := newTestService(&stubProvider{})

	_, err := svc.Discover(context.Background(), domain.ClassifiedQuery{
		NormalizedTerm: "https://apps.apple.com/us/charts",
		Kind:           domain.KindURL,
	}, domain.SearchOptions{Country: "us"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDiscover_CompetitorFailureDegradesToTargetOnly(t *testing.T) {
	t.Helper()

	target := domain.CatalogEntry{ID: "123456789", Name: "Headspace", Category: "Health & Fitness"}
	provider := &stubProvider{
		lookupFn: func(_, _ string) (*domain.CatalogEntry, error) {
			return &target, nil
		},
		searchFn: func(_, _ string, _ int) ([]domain.CatalogEntry, error) {
			return nil, domain.ErrUpstreamUnavailable
		},
	}
	svc := newTestService(provider)

	opts := domain.SearchOptions{IncludeCompetitors: true, MaxCompetitors: 10, Country: "us"}
	set, err := svc.Discover(context.Background(), domain.ClassifiedQuery{
		NormalizedTerm: "https://apps.apple.com/us/app/headspace/id123456789",
		Kind:           domain.KindURL,
	}, opts)

	require.NoError(t, err, "a resolved target survives a failed competitor search")
	assert.Equal(t, "123456789", set.Target.ID)
	assert.Empty(t, set.Competitors)
}

func TestDiscover_ZeroResultsIsNotFound(t *testing.T) {
	t.Helper()

	provider := &stubProvider{
		searchFn: func(_, _ string, _ int) ([]domain.CatalogEntry, error) {
			return nil, nil
		},
	}
	svc := newTestService(provider)

	_, err := svc.Discover(context.Background(),
		domain.ClassifiedQuery{NormalizedTerm: "zxqv unfindable", Kind: domain.KindKeyword},
		domain.SearchOptions{Country: "us"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDiscover_RetriesTransientFailures(t *testing.T) {
	t.Helper()

	provider := &stubProvider{
		searchFn: func(_, _ string, _ int) ([]domain.CatalogEntry, error) {
			return nil, domain.ErrUpstreamUnavailable
		},
	}
	svc := newTestService(provider)

	_, err := svc.Discover(context.Background(),
		domain.ClassifiedQuery{NormalizedTerm: "meditation", Kind: domain.KindKeyword},
		domain.SearchOptions{Country: "us"})

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 3, provider.searchCalls, "initial attempt plus two retries")
}

func TestDiscover_NotFoundIsNotRetried(t *testing.T) {
	t.Helper()

	provider := &stubProvider{
		lookupFn: func(_, _ string) (*domain.CatalogEntry, error) {
			return nil, domain.ErrNotFound
		},
	}
	svc := newTestService(provider)

	_, err := svc.Discover(context.Background(), domain.ClassifiedQuery{
		NormalizedTerm: "https://apps.apple.com/us/app/gone/id999",
		Kind:           domain.KindURL,
	}, domain.SearchOptions{Country: "us"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, provider.lookupCalls)
}

func TestDiscover_OpenBreakerShortCircuits(t *testing.T) {
	t.Helper()

	provider := &stubProvider{
		searchFn: func(_, _ string, _ int) ([]domain.CatalogEntry, error) {
			return nil, domain.ErrUpstreamUnavailable
		},
	}
	brk := breaker.New(breaker.Config{MaxFailures: 1, ResetWindow: time.Minute})
	cfg := discovery.Config{MaxRetries: 0, BaseDelay: time.Millisecond}
	svc := discovery.NewService(provider, brk, cfg, nil, logger.NewNop())

	cq := domain.ClassifiedQuery{NormalizedTerm: "meditation", Kind: domain.KindKeyword}
	opts := domain.SearchOptions{Country: "us"}

	_, firstErr := svc.Discover(context.Background(), cq, opts)
	require.ErrorIs(t, firstErr, domain.ErrUpstreamUnavailable)
	require.True(t, brk.IsOpen())

	_, secondErr := svc.Discover(context.Background(), cq, opts)
	assert.ErrorIs(t, secondErr, breaker.ErrOpen)
	assert.Equal(t, 1, provider.searchCalls, "open circuit must not reach the provider")
}

func TestLiveSearch_PassesThroughEntries(t *testing.T) {
	t.Helper()

	provider := &stubProvider{
		searchFn: func(term, country string, limit int) ([]domain.CatalogEntry, error) {
			assert.Equal(t, "budget tracker", term)
			assert.Equal(t, "us", country)
			assert.Equal(t, 50, limit)
			return catalogEntries(5), nil
		},
	}
	svc := newTestService(provider)

	entries, err := svc.LiveSearch(context.Background(), "budget tracker", "us", 50)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}
