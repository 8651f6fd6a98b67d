package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gemcade/platform/internal/domain"
)

// Keys are client addresses, so the map grows with whoever hits the
// public endpoints. Every sweepEvery checks, keys whose whole window
// has expired are dropped.
const sweepEvery = 4096

// RateLimiter implements a sliding window rate limiter, keyed per
// address. Auth and game endpoints hold separate instances with their
// own windows.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	checks  int
}

// NewRateLimiter creates a rate limiter with the given limit per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Check records an attempt for the key and reports whether it fits the
// window. Denied attempts do not consume quota.
func (rl *RateLimiter) Check(_ context.Context, key string) domain.GuardResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.checks++
	if rl.checks%sweepEvery == 0 {
		rl.sweep(cutoff)
	}

	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit exceeded: %d/%s", rl.limit, rl.window),
			Guard:   "rate_limiter",
		}
	}

	rl.windows[key] = append(valid, now)
	return domain.GuardResult{Allowed: true}
}

func (rl *RateLimiter) sweep(cutoff time.Time) {
	for key, entries := range rl.windows {
		if len(entries) == 0 || !entries[len(entries)-1].After(cutoff) {
			delete(rl.windows, key)
		}
	}
}
