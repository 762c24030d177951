package ranking

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/storerank/internal/domain"
	"github.com/jonesrussell/storerank/internal/logger"
)

// LiveSearchFunc issues a live catalog search for exactly the given
// keyword and returns the entries in upstream rank order.
type LiveSearchFunc func(ctx context.Context, keyword string) ([]domain.CatalogEntry, error)

// KeywordRanking pairs one candidate with its computed ranking.
type KeywordRanking struct {
	Candidate domain.CandidateKeyword `json:"candidate"`
	Ranking   domain.Ranking          `json:"ranking"`
}

// Analyzer ranks a batch of candidate keywords for one target. Live
// checks are throttled: a hard cap per analysis plus an inter-call
// delay, to respect upstream rate limits. Candidates beyond the budget
// receive deterministic estimated rankings.
type Analyzer struct {
	calc          *Calculator
	maxLiveChecks int
	limiter       *rate.Limiter
	logger        logger.Logger
}

// NewAnalyzer creates an Analyzer with the given live-check budget and
// minimum delay between live calls.
func NewAnalyzer(calc *Calculator, maxLiveChecks int, liveCheckDelay time.Duration, log logger.Logger) *Analyzer {
	if liveCheckDelay <= 0 {
		liveCheckDelay = 500 * time.Millisecond
	}
	return &Analyzer{
		calc:          calc,
		maxLiveChecks: maxLiveChecks,
		limiter:       rate.NewLimiter(rate.Every(liveCheckDelay), 1),
		logger:        log,
	}
}

// Analyze computes one ranking per candidate. Candidates arrive in
// relevance order, so the live-check budget is spent on the most
// relevant terms first. A live ranking is labelled actual, everything
// else estimated; the two are never conflated.
func (a *Analyzer) Analyze(ctx context.Context, target domain.CatalogEntry, candidates []domain.CandidateKeyword, live LiveSearchFunc) []KeywordRanking {
	out := make([]KeywordRanking, 0, len(candidates))
	liveChecks := 0

	for _, candidate := range candidates {
		var ranked *domain.Ranking

		if live != nil && liveChecks < a.maxLiveChecks {
			liveChecks++
			ranked = a.liveRank(ctx, target, candidate.Text, live)
		}

		if ranked == nil {
			ranked = a.calc.Estimate(candidate.Text, target.Category)
		}

		out = append(out, KeywordRanking{Candidate: candidate, Ranking: *ranked})
	}

	a.logger.Debug("Keyword analysis completed",
		logger.Int("candidates", len(candidates)),
		logger.Int("live_checks", liveChecks),
	)
	return out
}

// liveRank performs one throttled live check. Any failure falls back
// to the estimator via the nil return.
func (a *Analyzer) liveRank(ctx context.Context, target domain.CatalogEntry, keyword string, live LiveSearchFunc) *domain.Ranking {
	if err := a.limiter.Wait(ctx); err != nil {
		a.logger.Warn("Live check throttle interrupted", logger.Error(err))
		return nil
	}

	entries, err := live(ctx, keyword)
	if err != nil {
		a.logger.Warn("Live rank check failed, falling back to estimate",
			logger.String("keyword", keyword),
			logger.Error(err),
		)
		return nil
	}

	ranked := a.calc.Calculate(keyword, target.ID, entries, domain.ConfidenceActual)
	if ranked == nil {
		// The target genuinely does not rank for this keyword; that is
		// a measured fact, not an estimation case.
		return &domain.Ranking{
			Keyword:      keyword,
			Position:     nil,
			VolumeBucket: estimateVolume(len(entries), wordCount(keyword)),
			Trend:        domain.TrendStable,
			Confidence:   domain.ConfidenceActual,
			CheckedAt:    a.calc.now(),
		}
	}
	return ranked
}
