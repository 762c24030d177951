package domain

import "fmt"

// Default and ceiling values for search options.
const (
	DefaultMaxCompetitors = 10
	MaxAllowedCompetitors = 50
	DefaultCountry        = "us"
)

// SearchOptions controls one pipeline invocation.
type SearchOptions struct {
	IncludeCompetitors bool   `json:"include_competitors"`
	MaxCompetitors     int    `json:"max_competitors"`
	Country            string `json:"country"`
}

// Normalize applies defaults and clamps out-of-range values.
func (o *SearchOptions) Normalize() {
	if o.MaxCompetitors <= 0 {
		o.MaxCompetitors = DefaultMaxCompetitors
	}
	if o.MaxCompetitors > MaxAllowedCompetitors {
		o.MaxCompetitors = MaxAllowedCompetitors
	}
	if o.Country == "" {
		o.Country = DefaultCountry
	}
}

// SearchContext describes how a result was produced.
type SearchContext struct {
	Query        string    `json:"query"`
	Kind         QueryKind `json:"kind"`
	TotalResults int       `json:"total_results"`
	Category     string    `json:"category,omitempty"`
	Country      string    `json:"country"`
	CacheHit     bool      `json:"cache_hit"`
	Fallback     bool      `json:"fallback"`
	NoMatch      bool      `json:"no_match"`
}

// SearchResult is the caller-facing outcome of the pipeline. The
// pipeline always returns a structurally valid result for recoverable
// conditions; "nothing found" is encoded via NoMatch and zero fields,
// never via an error.
type SearchResult struct {
	Target        *CatalogEntry  `json:"target"`
	Competitors   []CatalogEntry `json:"competitors"`
	SearchContext SearchContext  `json:"search_context"`
}

// NoMatchResult builds the minimal synthetic result used when both the
// primary path and the fallback failed.
func NoMatchResult(query string, kind QueryKind, country string) *SearchResult {
	return &SearchResult{
		Competitors: []CatalogEntry{},
		SearchContext: SearchContext{
			Query:    query,
			Kind:     kind,
			Country:  country,
			Fallback: true,
			NoMatch:  true,
		},
	}
}

// Validate checks request-level preconditions that are programmer
// errors rather than pipeline failures.
func (q Query) Validate() error {
	if q.TenantID == "" {
		return ErrMissingTenant
	}
	if q.Raw == "" {
		return fmt.Errorf("query text is required")
	}
	return nil
}
