// Package ratelimit provides a keyed token-bucket registry used to
// soft-limit search activity per tenant and action.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/storerank/internal/logger"
)

// Idle keys are evicted so the registry does not grow without bound.
const (
	cleanupInterval = 10 * time.Minute
	idleEviction    = 30 * time.Minute
)

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Registry keeps one token bucket per key, typically "tenant:action".
// Limits are soft: callers record an over-limit decision and may still
// proceed, so a burst of traffic degrades gracefully instead of
// failing requests.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	rps      rate.Limit
	burst    int
	logger   logger.Logger
	stop     chan struct{}
	stopOnce sync.Once

	// now is swappable for tests.
	now func() time.Time
}

// NewRegistry creates a Registry allowing requestsPerMinute sustained
// requests per tenant with the given burst, and starts a background
// cleanup loop for idle keys.
func NewRegistry(requestsPerMinute, burst int, log logger.Logger) *Registry {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}

	r := &Registry{
		limiters: make(map[string]*keyedLimiter),
		rps:      rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
		logger:   log,
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	go r.cleanupLoop()
	return r
}

// Allow reports whether the key is within its limit and consumes a
// token when it is. Over-limit keys are logged once per decision.
func (r *Registry) Allow(key string) bool {
	r.mu.Lock()
	entry, ok := r.limiters[key]
	if !ok {
		entry = &keyedLimiter{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.limiters[key] = entry
	}
	entry.lastSeen = r.now()
	r.mu.Unlock()

	allowed := entry.limiter.Allow()
	if !allowed {
		r.logger.Warn("Caller over soft rate limit", logger.String("key", key))
	}
	return allowed
}

// Keys returns the number of tracked buckets.
func (r *Registry) Keys() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// Close stops the background cleanup loop.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Registry) evictIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idleEviction)
	for key, entry := range r.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(r.limiters, key)
		}
	}
}
