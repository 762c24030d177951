package domain

import "time"

// VolumeBucket is a coarse search-volume estimate for a keyword.
type VolumeBucket string

const (
	// VolumeLow marks low assumed search volume.
	VolumeLow VolumeBucket = "low"
	// VolumeMedium marks medium assumed search volume.
	VolumeMedium VolumeBucket = "medium"
	// VolumeHigh marks high assumed search volume.
	VolumeHigh VolumeBucket = "high"
)

// Trend is the direction a keyword's ranking is moving.
type Trend string

const (
	// TrendUp means the ranking is improving.
	TrendUp Trend = "up"
	// TrendDown means the ranking is declining.
	TrendDown Trend = "down"
	// TrendStable means no movement detected.
	TrendStable Trend = "stable"
)

// Confidence labels how a ranking was obtained.
type Confidence string

const (
	// ConfidenceActual means the position came from a live search for
	// exactly this keyword with the target located in the result set.
	ConfidenceActual Confidence = "actual"
	// ConfidenceEstimated means the position was inferred heuristically
	// without a live search.
	ConfidenceEstimated Confidence = "estimated"
)

// Ranking is the target's discoverability result for one keyword.
// Immutable once produced; a new analysis produces a new Ranking.
type Ranking struct {
	Keyword      string       `json:"keyword"`
	Position     *int         `json:"position"` // nil when the target is absent
	VolumeBucket VolumeBucket `json:"volume_bucket"`
	Trend        Trend        `json:"trend"`
	Confidence   Confidence   `json:"confidence"`
	CheckedAt    time.Time    `json:"checked_at"`
}
