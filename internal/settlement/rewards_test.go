package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckRewardCooldown_NoPreviousReward(t *testing.T) {
	assert.True(t, CheckRewardCooldown(nil, 60))
}

func TestCheckRewardCooldown_CooldownActive(t *testing.T) {
	recent := time.Now().Add(-30 * time.Minute) // 30 min ago
	assert.False(t, CheckRewardCooldown(&recent, 60))
}

func TestCheckRewardCooldown_CooldownExpired(t *testing.T) {
	old := time.Now().Add(-90 * time.Minute) // 90 min ago
	assert.True(t, CheckRewardCooldown(&old, 60))
}

func TestCheckRewardBudget_WithinBudget(t *testing.T) {
	assert.True(t, CheckRewardBudget(100_000, 50_000, 250_000))
}

func TestCheckRewardBudget_ExceedsBudget(t *testing.T) {
	assert.False(t, CheckRewardBudget(200_000, 60_000, 250_000))
}

func TestCheckRewardBudget_ExactlyAtBudget(t *testing.T) {
	assert.True(t, CheckRewardBudget(200_000, 50_000, 250_000))
}
