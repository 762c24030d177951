// Package cache implements the TTL-bound result cache. The Manager
// owns the backing store exclusively; the pipeline never touches the
// store directly.
package cache

import (
	"context"
	"time"
)

// Store is a key-scoped byte store with per-entry TTL. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or found=false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set overwrites key with value for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}
