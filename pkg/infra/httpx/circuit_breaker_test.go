package httpx

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_Success(t *testing.T) {
	breaker := NewCircuitBreaker("ok", 30*time.Second, 3)

	assert.NoError(t, breaker.Execute(func() error { return nil }))
}

func TestCircuitBreaker_WrapsFailure(t *testing.T) {
	breaker := NewCircuitBreaker("failing", 30*time.Second, 3)
	cause := errors.New("boom")

	err := breaker.Execute(func() error { return cause })

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failing")
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	breaker := NewCircuitBreaker("opens", time.Minute, 2)

	for i := 0; i < 2; i++ {
		require.Error(t, breaker.Execute(func() error { return errors.New("fail") }))
	}

	calls := 0
	err := breaker.Execute(func() error {
		calls++
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, calls, "an open breaker must not invoke the function")
}

func TestCircuitBreaker_RecoversAfterCooldown(t *testing.T) {
	breaker := NewCircuitBreaker("recovers", 50*time.Millisecond, 1)

	require.Error(t, breaker.Execute(func() error { return errors.New("fail") }))

	err := breaker.Execute(func() error { return nil })
	require.Error(t, err)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)

	time.Sleep(100 * time.Millisecond)

	assert.NoError(t, breaker.Execute(func() error { return nil }))
}
