// Package retry provides a retry loop with exponential backoff for
// transient upstream failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAttemptsExhausted is returned when the retry budget is spent.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Config configures retry behavior.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt,
	// so MaxRetries+1 calls happen in the worst case.
	MaxRetries int
	// BaseDelay is the delay before the first retry; it doubles on
	// each subsequent attempt.
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// IsRetryable decides whether an error is worth retrying. A nil
	// function retries everything.
	IsRetryable func(error) bool
}

// Do executes fn with retry and exponential backoff. Non-retryable
// errors short-circuit the loop and are returned as-is; exhausting the
// budget wraps the last error in ErrAttemptsExhausted.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.IsRetryable != nil && !cfg.IsRetryable(err) {
			return err
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, cfg.MaxRetries+1, lastErr)
}
