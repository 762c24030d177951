// Package classify normalizes and classifies raw query text into one
// of {url, brand, keyword}. Classification is a pure function over the
// input plus a static lexicon.
package classify

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonesrussell/storerank/internal/domain"
)

// Input length bounds. Anything outside is rejected before any other
// processing.
const (
	minQueryLength = 2
	maxQueryLength = 100
)

// Classification confidence constants.
const (
	urlConfidence         = 0.95
	brandConfidence       = 0.8
	keywordConfidence     = 0.6
	downgradedConfidence  = 0.5
	keywordLongConfidence = 0.7
	longPhraseTokenCount  = 3
)

// injectionPatterns is the denylist of script/markup injection shapes.
// Matching input is rejected outright.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<\s*iframe`),
	regexp.MustCompile(`(?i)data\s*:\s*text/html`),
}

// storefrontHosts are the known catalog storefront domains.
var storefrontHosts = map[string]bool{
	"apps.apple.com":   true,
	"itunes.apple.com": true,
	"play.google.com":  true,
}

// countryPathSegment matches a two-letter locale segment in a
// storefront URL path, e.g. /us/app/... or /gb/app/...
var countryPathSegment = regexp.MustCompile(`^/([a-z]{2})/`)

// productSuffixes are words that mark a token sequence as a product
// name rather than a generic search term.
var productSuffixes = map[string]bool{
	"app": true, "pro": true, "plus": true, "hd": true, "lite": true,
}

// genericCategoryTerms downgrade a brand-looking query to keyword:
// "Meditation Apps" is a category search, not a brand.
var genericCategoryTerms = map[string]bool{
	"apps": true, "games": true, "tools": true, "best": true,
	"free": true, "top": true, "tracker": true, "trackers": true,
	"meditation": true, "fitness": true, "finance": true, "budget": true,
	"weather": true, "music": true, "photo": true, "editor": true,
}

// Classifier classifies raw queries. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct{}

// New creates a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify normalizes and classifies raw input. Unsafe or out-of-bounds
// input returns domain.ErrInputRejected.
func (c *Classifier) Classify(raw string) (*domain.ClassifiedQuery, error) {
	trimmed := strings.TrimSpace(raw)

	if len(trimmed) < minQueryLength {
		return nil, fmt.Errorf("%w: query too short", domain.ErrInputRejected)
	}
	if len(trimmed) > maxQueryLength {
		return nil, fmt.Errorf("%w: query too long", domain.ErrInputRejected)
	}
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(trimmed) {
			return nil, fmt.Errorf("%w: disallowed pattern", domain.ErrInputRejected)
		}
	}

	if classified, ok := c.classifyURL(trimmed); ok {
		return classified, nil
	}

	normalized := domain.NormalizeTerm(trimmed)

	if c.looksLikeBrand(trimmed) && !c.containsGenericTerm(normalized) {
		return &domain.ClassifiedQuery{
			NormalizedTerm: normalized,
			Kind:           domain.KindBrand,
			Confidence:     brandConfidence,
		}, nil
	}

	confidence := keywordConfidence
	if c.looksLikeBrand(trimmed) {
		// Brand shape overridden by a generic-category term.
		confidence = downgradedConfidence
	} else if len(strings.Fields(normalized)) >= longPhraseTokenCount {
		confidence = keywordLongConfidence
	}

	return &domain.ClassifiedQuery{
		NormalizedTerm: normalized,
		Kind:           domain.KindKeyword,
		Confidence:     confidence,
	}, nil
}

// classifyURL detects storefront product URLs and extracts a country
// hint from the locale path segment when present.
func (c *Classifier) classifyURL(raw string) (*domain.ClassifiedQuery, bool) {
	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "www.") {
		return nil, false
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Host == "" {
		return nil, false
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	if !storefrontHosts[host] {
		return nil, false
	}

	countryHint := ""
	if m := countryPathSegment.FindStringSubmatch(parsed.Path); m != nil {
		countryHint = m[1]
	}

	return &domain.ClassifiedQuery{
		NormalizedTerm: strings.TrimSpace(raw),
		Kind:           domain.KindURL,
		Confidence:     urlConfidence,
		CountryHint:    countryHint,
	}, true
}

// looksLikeBrand applies the capitalization/suffix heuristic: a
// capitalized token or a product-suffix word marks brand shape.
func (c *Classifier) looksLikeBrand(raw string) bool {
	fields := strings.Fields(raw)
	if len(fields) == 0 || len(fields) > 4 {
		return false
	}

	for _, f := range fields {
		if productSuffixes[strings.ToLower(f)] {
			return true
		}
	}

	capitalized := 0
	for _, f := range fields {
		r := []rune(f)
		if unicode.IsUpper(r[0]) {
			capitalized++
		}
	}
	return capitalized == len(fields)
}

// containsGenericTerm reports whether any normalized token is a known
// generic-category word.
func (c *Classifier) containsGenericTerm(normalized string) bool {
	for _, f := range strings.Fields(normalized) {
		if genericCategoryTerms[f] {
			return true
		}
	}
	return false
}
