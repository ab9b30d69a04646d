package deviceapi_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/adapters/deviceapi"
	"github.com/print-farm/farm-go/internal/domain/shared"
	"github.com/print-farm/farm-go/internal/domain/shared/apperr"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	cb := deviceapi.NewCircuitBreaker(2, time.Minute, 1, clock)
	failing := func() error { return errors.New("boom") }

	// Act
	err1 := cb.Call(failing)
	err2 := cb.Call(failing)

	// Assert
	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, deviceapi.CircuitOpen, cb.State())

	// Act - circuit is open, call never runs
	called := false
	err3 := cb.Call(func() error { called = true; return nil })

	// Assert
	require.ErrorIs(t, err3, apperr.ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	cb := deviceapi.NewCircuitBreaker(1, time.Minute, 2, clock)
	_ = cb.Call(func() error { return errors.New("boom") })
	require.Equal(t, deviceapi.CircuitOpen, cb.State())

	clock.Advance(2 * time.Minute)

	// Act - first probe succeeds but threshold is 2, so stays half-open
	err := cb.Call(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, deviceapi.CircuitHalfOpen, cb.State())

	// Act - second consecutive success closes it
	err = cb.Call(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, deviceapi.CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	cb := deviceapi.NewCircuitBreaker(1, time.Minute, 1, clock)
	_ = cb.Call(func() error { return errors.New("boom") })
	clock.Advance(2 * time.Minute)

	// Act
	err := cb.Call(func() error { return errors.New("still broken") })

	// Assert
	require.Error(t, err)
	assert.Equal(t, deviceapi.CircuitOpen, cb.State())
}
