package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateWagerLimits_AllowsWithinLimits(t *testing.T) {
	policy := DefaultWagerLimits()
	result := EvaluateWagerLimits(policy, 50_000, 0, 0)
	assert.True(t, result.Allowed)
}

func TestEvaluateWagerLimits_BlocksSingleWagerOverLimit(t *testing.T) {
	policy := DefaultWagerLimits()
	result := EvaluateWagerLimits(policy, 150_000, 0, 0)
	assert.False(t, result.Allowed)
	assert.Equal(t, "single_wager", result.BreachedLimit)
	assert.Equal(t, int64(100_000), result.LimitValue)
	assert.Equal(t, int64(150_000), result.RequestedAmt)
}

func TestEvaluateWagerLimits_BlocksDailyStakeOverLimit(t *testing.T) {
	policy := DefaultWagerLimits()
	// Already staked 480_000, trying 30_000 more (total 510_000 > 500_000)
	result := EvaluateWagerLimits(policy, 30_000, 480_000, 0)
	assert.False(t, result.Allowed)
	assert.Equal(t, "daily_stake", result.BreachedLimit)
}

func TestEvaluateWagerLimits_BlocksDailyLossOverLimit(t *testing.T) {
	policy := DefaultWagerLimits()
	// Already lost 240_000, staking 20_000 more (total 260_000 > 250_000)
	result := EvaluateWagerLimits(policy, 20_000, 0, 240_000)
	assert.False(t, result.Allowed)
	assert.Equal(t, "daily_loss", result.BreachedLimit)
}

func TestEvaluateWagerLimits_AllowsStakeWithinDailyLoss(t *testing.T) {
	policy := DefaultWagerLimits()
	result := EvaluateWagerLimits(policy, 50_000, 0, 50_000)
	assert.True(t, result.Allowed)
}

func TestEvaluateWagerLimits_ZeroLimitDisablesCheck(t *testing.T) {
	policy := WagerLimitPolicy{}
	result := EvaluateWagerLimits(policy, 10_000_000, 10_000_000, 10_000_000)
	assert.True(t, result.Allowed)
}

func TestEvaluateWagerLimits_ExactlyAtDailyStake(t *testing.T) {
	policy := DefaultWagerLimits()
	result := EvaluateWagerLimits(policy, 20_000, 480_000, 0)
	assert.True(t, result.Allowed)
}
