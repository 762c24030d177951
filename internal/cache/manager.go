package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonesrussell/storerank/internal/domain"
	"github.com/jonesrussell/storerank/internal/logger"
)

const keyPrefix = "storerank:result"

// Manager is the cache manager for computed search results, keyed by
// (tenant, normalized query). A backend failure on read degrades to a
// miss; a failure on write is logged and reported to the caller, which
// must not fail the overall request on it.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger logger.Logger
}

// NewManager creates a cache manager over the given store.
func NewManager(store Store, ttl time.Duration, log logger.Logger) *Manager {
	return &Manager{
		store:  store,
		ttl:    ttl,
		logger: log,
	}
}

// key builds the tenant-scoped cache key from normalized query text.
func (m *Manager) key(tenantID, query string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, tenantID, domain.NormalizeTerm(query))
}

// Get returns the cached result for (tenant, query), or found=false on
// a miss, an expired entry, or any backend failure.
func (m *Manager) Get(ctx context.Context, tenantID, query string) (*domain.SearchResult, bool) {
	key := m.key(tenantID, query)

	raw, found, err := m.store.Get(ctx, key)
	if err != nil {
		m.logger.Warn("Cache read failed, treating as miss",
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var result domain.SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		m.logger.Warn("Cache entry corrupted, treating as miss",
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, false
	}
	return &result, true
}

// Set stores a computed result for (tenant, query). Failures are
// logged and returned so callers can observe the write outcome;
// callers must not fail the overall request on a cache write error.
func (m *Manager) Set(ctx context.Context, tenantID, query string, result *domain.SearchResult) error {
	key := m.key(tenantID, query)

	raw, err := json.Marshal(result)
	if err != nil {
		m.logger.Warn("Cache encode failed",
			logger.String("key", key),
			logger.Error(err),
		)
		return fmt.Errorf("encode cached result: %w", err)
	}

	if err := m.store.Set(ctx, key, raw, m.ttl); err != nil {
		m.logger.Warn("Cache write failed",
			logger.String("key", key),
			logger.Error(err),
		)
		return fmt.Errorf("write cached result: %w", err)
	}
	return nil
}

// Ping reports backend reachability for health checks.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}
