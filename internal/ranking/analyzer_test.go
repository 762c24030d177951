package ranking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/storerank/internal/domain"
	"github.com/jonesrussell/storerank/internal/logger"
	"github.com/jonesrussell/storerank/internal/ranking"
)

func newTestAnalyzer(maxLiveChecks int) *ranking.Analyzer {
	return ranking.NewAnalyzer(ranking.NewCalculator(), maxLiveChecks, time.Millisecond, logger.NewNop())
}

func candidates(texts ...string) []domain.CandidateKeyword {
	out := make([]domain.CandidateKeyword, 0, len(texts))
	for _, text := range texts {
		out = append(out, domain.CandidateKeyword{
			Text:           text,
			Source:         domain.SourceMetadata,
			RelevanceScore: 1.0,
		})
	}
	return out
}

func TestAnalyze_LiveCheckBudget(t *testing.T) {
	t.Helper()

	target := domain.CatalogEntry{ID: "target-1", Name: "Acme Budget Tracker", Category: "Finance"}
	analyzer := newTestAnalyzer(3)

	liveCalls := 0
	live := func(_ context.Context, _ string) ([]domain.CatalogEntry, error) {
		liveCalls++
		return []domain.CatalogEntry{target}, nil
	}

	results := analyzer.Analyze(context.Background(), target,
		candidates("budget", "tracker", "expense", "finance", "money"), live)

	require.Len(t, results, 5)
	assert.Equal(t, 3, liveCalls, "live checks must stop at the budget")

	for i, r := range results {
		if i < 3 {
			assert.Equal(t, domain.ConfidenceActual, r.Ranking.Confidence, "budgeted candidate %d", i)
		} else {
			assert.Equal(t, domain.ConfidenceEstimated, r.Ranking.Confidence, "over-budget candidate %d", i)
		}
	}
}

func TestAnalyze_LiveFailureFallsBackToEstimate(t *testing.T) {
	t.Helper()

	target := domain.CatalogEntry{ID: "target-1", Name: "Acme Budget Tracker", Category: "Finance"}
	analyzer := newTestAnalyzer(3)

	live := func(_ context.Context, _ string) ([]domain.CatalogEntry, error) {
		return nil, errors.New("upstream exploded")
	}

	results := analyzer.Analyze(context.Background(), target, candidates("budget"), live)

	require.Len(t, results, 1)
	got := results[0].Ranking
	assert.Equal(t, domain.ConfidenceEstimated, got.Confidence)
	require.NotNil(t, got.Position)
}

func TestAnalyze_TargetAbsentIsMeasured(t *testing.T) {
	t.Helper()

	target := domain.CatalogEntry{ID: "target-1", Name: "Acme Budget Tracker", Category: "Finance"}
	analyzer := newTestAnalyzer(3)

	live := func(_ context.Context, _ string) ([]domain.CatalogEntry, error) {
		return []domain.CatalogEntry{
			{ID: "other-1", Name: "Mint"},
			{ID: "other-2", Name: "YNAB"},
		}, nil
	}

	results := analyzer.Analyze(context.Background(), target, candidates("budget"), live)

	require.Len(t, results, 1)
	got := results[0].Ranking
	assert.Nil(t, got.Position, "unranked is a measured outcome, not an estimate")
	assert.Equal(t, domain.ConfidenceActual, got.Confidence)
}

func TestAnalyze_NilLiveFuncEstimatesEverything(t *testing.T) {
	t.Helper()

	target := domain.CatalogEntry{ID: "target-1", Name: "Acme Budget Tracker", Category: "Finance"}
	analyzer := newTestAnalyzer(3)

	results := analyzer.Analyze(context.Background(), target, candidates("budget", "tracker"), nil)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, domain.ConfidenceEstimated, r.Ranking.Confidence)
		require.NotNil(t, r.Ranking.Position)
	}
}
