package domain

import "errors"

// Pipeline error taxonomy. The orchestrator maps these onto the
// caller-facing degradation contract; only ErrInputRejected surfaces
// as a validation failure.
var (
	// ErrInputRejected marks malicious or malformed input. Terminal,
	// never retried.
	ErrInputRejected = errors.New("input rejected")
	// ErrUpstreamUnavailable marks transport failures and 5xx responses
	// from the catalog provider. Retryable up to the backoff ceiling.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNotFound marks a legitimate zero-result outcome. Terminal for
	// the query, eligible for the keyword fallback path.
	ErrNotFound = errors.New("no results found")
)

// Outcome labels how a pipeline invocation concluded, for the audit
// sink and metrics.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeCacheHit Outcome = "cache_hit"
	OutcomeFallback Outcome = "fallback"
	OutcomeNoMatch  Outcome = "no_match"
	OutcomeRejected Outcome = "rejected"
)
