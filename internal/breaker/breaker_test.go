package breaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/storerank/internal/breaker"
)

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	t.Helper()

	b := breaker.New(breaker.Config{MaxFailures: 3, ResetWindow: time.Minute})

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen(), "should stay closed below the threshold")

	b.RecordFailure()
	assert.True(t, b.IsOpen(), "should open at the threshold")
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Helper()

	b := breaker.New(breaker.Config{MaxFailures: 2, ResetWindow: time.Minute})

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.False(t, b.IsOpen(), "success in between must reset the counter")

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_ClosesAfterResetWindow(t *testing.T) {
	t.Helper()

	b := breaker.New(breaker.Config{MaxFailures: 1, ResetWindow: 50 * time.Millisecond})

	b.RecordFailure()
	require.True(t, b.IsOpen())

	time.Sleep(60 * time.Millisecond)

	// No RecordSuccess call: the elapsed window alone re-admits calls.
	assert.False(t, b.IsOpen())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Helper()

	b := breaker.New(breaker.Config{MaxFailures: 2, ResetWindow: 20 * time.Millisecond})

	b.RecordFailure()
	b.RecordFailure()
	require.True(t, b.IsOpen())

	time.Sleep(30 * time.Millisecond)
	require.False(t, b.IsOpen())

	// A single probe failure reopens the circuit immediately.
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_ExecuteShortCircuitsWhenOpen(t *testing.T) {
	t.Helper()

	b := breaker.New(breaker.Config{MaxFailures: 1, ResetWindow: time.Minute})
	ctx := context.Background()

	calls := 0
	failing := func() error {
		calls++
		return errors.New("boom")
	}

	require.Error(t, b.Execute(ctx, failing))
	require.Equal(t, 1, calls)

	err := b.Execute(ctx, failing)
	require.ErrorIs(t, err, breaker.ErrOpen)
	assert.Equal(t, 1, calls, "open circuit must not invoke the function")
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	t.Helper()

	var transitions []string
	b := breaker.New(breaker.Config{
		MaxFailures: 1,
		ResetWindow: time.Minute,
		OnStateChange: func(from, to breaker.State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	b.RecordFailure()
	b.RecordSuccess()

	assert.Equal(t, []string{"closed->open", "open->closed"}, transitions)
}
