package guard

import (
	"context"
	"sync"

	"github.com/gemcade/platform/internal/domain"
)

// IdempotencyGuard deduplicates in-flight requests by client token. It
// catches double-submitted wagers before any row lock is taken; the
// ledger's idempotency key remains the durable barrier. Keys live only
// for the duration of their request, so the map stays small.
type IdempotencyGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewIdempotencyGuard creates a new in-memory idempotency guard.
func NewIdempotencyGuard() *IdempotencyGuard {
	return &IdempotencyGuard{
		seen: make(map[string]bool),
	}
}

// Check claims the key for the calling request. A second claim before
// Remove is the double-submit this guard exists to stop.
func (ig *IdempotencyGuard) Check(_ context.Context, key string) domain.GuardResult {
	if key == "" {
		return domain.GuardResult{Allowed: true}
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	if ig.seen[key] {
		return domain.GuardResult{
			Allowed: false,
			Reason:  "duplicate request: idempotency key already processed",
			Guard:   "idempotency",
		}
	}

	ig.seen[key] = true
	return domain.GuardResult{Allowed: true}
}

// Remove releases a key when its request completes.
func (ig *IdempotencyGuard) Remove(key string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.seen, key)
}
