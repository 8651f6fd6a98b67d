package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gemcade/platform/internal/domain"
)

// CircuitState represents the state of the circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker guards the one external call on the wager path, the
// random.org entropy fetch. Open means callers skip the upstream and
// seeds come from crypto/rand alone; after the cool-down the next
// request probes, and its outcome decides between re-close and re-open.
type CircuitBreaker struct {
	mu            sync.Mutex
	state         CircuitState
	failures      int
	lastFailure   time.Time
	failThreshold int
	resetTimeout  time.Duration
}

// NewCircuitBreaker creates a closed breaker that opens after
// failThreshold consecutive failures and probes again after resetTimeout.
func NewCircuitBreaker(failThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failThreshold: failThreshold,
		resetTimeout:  resetTimeout,
	}
}

// Check reports whether a call may proceed right now.
func (cb *CircuitBreaker) Check(_ context.Context) domain.GuardResult {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen {
		if time.Since(cb.lastFailure) <= cb.resetTimeout {
			return domain.GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("entropy circuit open, resets in %s", cb.resetTimeout-time.Since(cb.lastFailure)),
				Guard:   "circuit_breaker",
			}
		}
		cb.state = CircuitHalfOpen
	}
	return domain.GuardResult{Allowed: true}
}

// RecordSuccess closes the circuit and clears the failure streak.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = CircuitClosed
	cb.failures = 0
}

// RecordFailure notes a failed call. A failed half-open probe reopens
// immediately; in the closed state the threshold applies.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.state == CircuitHalfOpen || cb.failures >= cb.failThreshold {
		cb.state = CircuitOpen
	}
}
