// Package breaker provides a circuit breaker guarding calls to the
// upstream catalog provider. One Breaker instance is shared by all
// concurrent requests within the process.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the circuit is open and calls are
// short-circuited without contacting upstream.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the state of the circuit breaker.
type State int

const (
	// StateClosed means calls pass through.
	StateClosed State = iota
	// StateOpen means calls are blocked.
	StateOpen
	// StateHalfOpen means a probe call is allowed to test recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures a circuit breaker.
type Config struct {
	// MaxFailures is the number of consecutive failures before the
	// circuit opens.
	MaxFailures int
	// ResetWindow is how long the circuit stays open after the last
	// recorded failure before calls are allowed again.
	ResetWindow time.Duration
	// OnStateChange is an optional callback invoked on transitions.
	OnStateChange func(from, to State)
}

// Breaker implements the circuit breaker state machine.
type Breaker struct {
	mu            sync.Mutex
	state         State
	failureCount  int
	lastFailureAt time.Time
	cfg           Config

	// now is swappable for tests.
	now func() time.Time
}

// New creates a circuit breaker with the given configuration.
func New(cfg Config) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetWindow <= 0 {
		cfg.ResetWindow = 60 * time.Second
	}
	return &Breaker{
		state: StateClosed,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Execute runs fn with circuit breaker protection. When the circuit is
// open it returns ErrOpen without invoking fn. The fn result is
// recorded as a success or failure.
func (b *Breaker) Execute(_ context.Context, fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn()
	if err != nil {
		b.RecordFailure()
	} else {
		b.RecordSuccess()
	}
	return err
}

// IsOpen reports whether calls are currently blocked. An open circuit
// whose reset window has elapsed transitions to half-open and reports
// false, so callers probe upstream again without an explicit success.
func (b *Breaker) IsOpen() bool {
	return b.allow() != nil
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RecordSuccess resets the failure counter and closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.transitionTo(StateClosed)
}

// RecordFailure counts a consecutive failure, opening the circuit once
// MaxFailures is reached. Any failure during a half-open probe
// immediately reopens it.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureAt = b.now()

	switch b.state {
	case StateClosed:
		if b.failureCount >= b.cfg.MaxFailures {
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		b.transitionTo(StateOpen)
	case StateOpen:
		// Already open, failure time updated above.
	}
}

// allow checks whether a call may proceed, handling the open→half-open
// transition once the reset window has elapsed.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.lastFailureAt) >= b.cfg.ResetWindow {
			b.failureCount = 0
			b.transitionTo(StateHalfOpen)
		} else {
			return ErrOpen
		}
	}
	return nil
}

func (b *Breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}
	oldState := b.state
	b.state = newState
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(oldState, newState)
	}
}
