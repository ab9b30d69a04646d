package deviceapi

import (
	"sync"
	"time"

	"github.com/print-farm/farm-go/internal/domain/shared"
	"github.com/print-farm/farm-go/internal/domain/shared/apperr"
)

// CircuitState is the circuit breaker's current mode.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker protects one printer-host endpoint from repeated failed
// calls, grounded on the teacher's api.CircuitBreaker.
type CircuitBreaker struct {
	maxFailures      int
	timeout          time.Duration
	successThreshold int
	state            CircuitState
	failureCount     int
	successCount     int
	lastFailureTime  time.Time
	mu               sync.RWMutex
	clock            shared.Clock
}

// NewCircuitBreaker constructs a closed circuit breaker. successThreshold
// is the number of consecutive half-open successes required before the
// breaker closes again; values below 1 are treated as 1.
func NewCircuitBreaker(maxFailures int, timeout time.Duration, successThreshold int, clock shared.Clock) *CircuitBreaker {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if successThreshold < 1 {
		successThreshold = 1
	}
	return &CircuitBreaker{maxFailures: maxFailures, timeout: timeout, successThreshold: successThreshold, clock: clock}
}

// Call executes fn under circuit breaker protection.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == CircuitOpen {
		if cb.clock.Now().Sub(cb.lastFailureTime) >= cb.timeout {
			cb.state = CircuitHalfOpen
		} else {
			cb.mu.Unlock()
			return apperr.ErrCircuitOpen
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onFailure() {
	cb.failureCount++
	cb.successCount = 0
	cb.lastFailureTime = cb.clock.Now()
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
		return
	}
	if cb.failureCount >= cb.maxFailures {
		cb.state = CircuitOpen
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.failureCount = 0
	if cb.state == CircuitHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = CircuitClosed
			cb.successCount = 0
		}
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
