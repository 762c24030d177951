// Package ranking determines a target's ordinal position for candidate
// keywords, with an explicit measured-vs-estimated confidence label.
package ranking

import (
	"hash/fnv"
	"strings"
	"time"

	"github.com/jonesrussell/storerank/internal/domain"
)

// Volume heuristic thresholds: more competitors and shorter keywords
// imply higher assumed search volume.
const (
	singleWordHighCount   = 20
	singleWordMediumCount = 8
	twoWordHighCount      = 30
	twoWordMediumCount    = 12
	longTailMediumCount   = 40
)

// Estimator bounds for positions produced without a live search.
const (
	estimatedPositionRange = 50
	estimatedWordPenalty   = 7
)

// Calculator computes rankings from result sets and produces
// deterministic estimates when no live search is available.
type Calculator struct {
	// now is swappable for tests.
	now func() time.Time
}

// NewCalculator creates a Calculator.
func NewCalculator() *Calculator {
	return &Calculator{now: time.Now}
}

// Calculate locates targetID within entries and builds a Ranking. A
// nil return means the target is absent from the result set, which is
// a normal outcome rather than an error. The confidence label must
// reflect how entries was obtained: ConfidenceActual only for a live
// search issued for exactly this keyword.
func (c *Calculator) Calculate(keyword, targetID string, entries []domain.CatalogEntry, confidence domain.Confidence) *domain.Ranking {
	idx := locate(targetID, entries)
	if idx < 0 {
		return nil
	}

	position := idx + 1
	return &domain.Ranking{
		Keyword:      keyword,
		Position:     &position,
		VolumeBucket: estimateVolume(len(entries), wordCount(keyword)),
		Trend:        domain.TrendStable,
		Confidence:   confidence,
		CheckedAt:    c.now(),
	}
}

// Estimate produces a purely heuristic ranking from keyword and
// category shape alone, labelled estimated. The estimate is seeded
// from its inputs so repeated runs are reproducible.
func (c *Calculator) Estimate(keyword, category string) *domain.Ranking {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(keyword)))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(strings.ToLower(category)))
	seed := h.Sum32()

	words := wordCount(keyword)
	position := 1 + int((seed+uint32(words*estimatedWordPenalty))%estimatedPositionRange)

	return &domain.Ranking{
		Keyword:      keyword,
		Position:     &position,
		VolumeBucket: estimatedBucket(seed, words),
		Trend:        estimatedTrend(seed),
		Confidence:   domain.ConfidenceEstimated,
		CheckedAt:    c.now(),
	}
}

// locate finds the target by identity first, then by case-insensitive
// substring match on the entry name.
func locate(targetID string, entries []domain.CatalogEntry) int {
	for i, e := range entries {
		if e.ID == targetID {
			return i
		}
	}

	needle := strings.ToLower(targetID)
	for i, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			return i
		}
	}
	return -1
}

func estimateVolume(resultCount, words int) domain.VolumeBucket {
	switch {
	case words <= 1:
		if resultCount >= singleWordHighCount {
			return domain.VolumeHigh
		}
		if resultCount >= singleWordMediumCount {
			return domain.VolumeMedium
		}
		return domain.VolumeLow
	case words == 2:
		if resultCount >= twoWordHighCount {
			return domain.VolumeHigh
		}
		if resultCount >= twoWordMediumCount {
			return domain.VolumeMedium
		}
		return domain.VolumeLow
	default:
		if resultCount >= longTailMediumCount {
			return domain.VolumeMedium
		}
		return domain.VolumeLow
	}
}

func estimatedBucket(seed uint32, words int) domain.VolumeBucket {
	switch {
	case words <= 1:
		if seed%3 == 0 {
			return domain.VolumeMedium
		}
		return domain.VolumeHigh
	case words == 2:
		if seed%2 == 0 {
			return domain.VolumeMedium
		}
		return domain.VolumeLow
	default:
		return domain.VolumeLow
	}
}

func estimatedTrend(seed uint32) domain.Trend {
	switch seed % 5 {
	case 0:
		return domain.TrendUp
	case 1:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

func wordCount(keyword string) int {
	return len(strings.Fields(keyword))
}
