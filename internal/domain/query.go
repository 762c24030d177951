package domain

import (
	"errors"
	"strings"
)

// QueryKind is the classified shape of a raw query.
type QueryKind string

const (
	// KindURL means the query is a storefront product URL.
	KindURL QueryKind = "url"
	// KindBrand means the query looks like an app or vendor name.
	KindBrand QueryKind = "brand"
	// KindKeyword means the query is a generic search term.
	KindKeyword QueryKind = "keyword"
)

// ErrMissingTenant indicates the caller omitted the tenant identifier.
// This is a programmer error, not a pipeline failure.
var ErrMissingTenant = errors.New("tenant id is required")

// Query is one raw pipeline input. Immutable once received.
type Query struct {
	TenantID string
	Raw      string
}

// ClassifiedQuery is the classifier's view of a raw query.
type ClassifiedQuery struct {
	NormalizedTerm string    `json:"normalized_term"`
	Kind           QueryKind `json:"kind"`
	Confidence     float64   `json:"confidence"`
	CountryHint    string    `json:"country_hint,omitempty"`
}

// NormalizeTerm lowercases, trims and collapses internal whitespace.
// Cache keys and classifier output share this normalization.
func NormalizeTerm(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), " ")
}
