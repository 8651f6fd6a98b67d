package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := rl.Check(ctx, "acct-1")
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	ctx := context.Background()

	rl.Check(ctx, "acct-1")
	rl.Check(ctx, "acct-1")
	result := rl.Check(ctx, "acct-1")

	assert.False(t, result.Allowed)
	assert.Equal(t, "rate_limiter", result.Guard)
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	r1 := rl.Check(ctx, "acct-a")
	r2 := rl.Check(ctx, "acct-b")

	assert.True(t, r1.Allowed)
	assert.True(t, r2.Allowed)
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	ctx := context.Background()

	rl.Check(ctx, "acct-1")
	time.Sleep(15 * time.Millisecond)

	result := rl.Check(ctx, "acct-1")
	assert.True(t, result.Allowed)
}

func TestCircuitBreaker_ClosedByDefault(t *testing.T) {
	cb := NewCircuitBreaker(3, 5*time.Second)

	result := cb.Check(context.Background())
	assert.True(t, result.Allowed)
}

func TestCircuitBreaker_OpensOnThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 5*time.Second)
	ctx := context.Background()

	cb.RecordFailure()
	cb.RecordFailure()

	result := cb.Check(ctx)
	assert.False(t, result.Allowed)
	assert.Equal(t, "circuit_breaker", result.Guard)
}

func TestCircuitBreaker_SuccessClearsStreak(t *testing.T) {
	cb := NewCircuitBreaker(2, 5*time.Second)
	ctx := context.Background()

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	result := cb.Check(ctx)
	assert.True(t, result.Allowed)
}

func TestCircuitBreaker_ProbeClosesOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	ctx := context.Background()

	cb.RecordFailure()
	assert.False(t, cb.Check(ctx).Allowed)

	time.Sleep(15 * time.Millisecond)

	assert.True(t, cb.Check(ctx).Allowed)
	cb.RecordSuccess()
	assert.True(t, cb.Check(ctx).Allowed)
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	ctx := context.Background()

	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)

	assert.True(t, cb.Check(ctx).Allowed)
	cb.RecordFailure()

	// The failed probe reopens without a fresh streak.
	assert.False(t, cb.Check(ctx).Allowed)
}

func TestIdempotencyGuard_AllowsFirst(t *testing.T) {
	ig := NewIdempotencyGuard()
	ctx := context.Background()

	result := ig.Check(ctx, "wager-123")
	assert.True(t, result.Allowed)
}

func TestIdempotencyGuard_BlocksDuplicate(t *testing.T) {
	ig := NewIdempotencyGuard()
	ctx := context.Background()

	ig.Check(ctx, "wager-123")
	result := ig.Check(ctx, "wager-123")

	assert.False(t, result.Allowed)
	assert.Equal(t, "idempotency", result.Guard)
}

func TestIdempotencyGuard_EmptyKeyAllowed(t *testing.T) {
	ig := NewIdempotencyGuard()
	ctx := context.Background()

	r1 := ig.Check(ctx, "")
	r2 := ig.Check(ctx, "")

	assert.True(t, r1.Allowed)
	assert.True(t, r2.Allowed)
}

func TestIdempotencyGuard_RemoveAllowsRetry(t *testing.T) {
	ig := NewIdempotencyGuard()
	ctx := context.Background()

	ig.Check(ctx, "wager-456")
	ig.Remove("wager-456")

	result := ig.Check(ctx, "wager-456")
	require.True(t, result.Allowed)
}
