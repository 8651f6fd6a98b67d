package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/ledger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RewardSettlement handles the 3-gate daily reward evaluation and crediting.
type RewardSettlement struct {
	engine *ledger.Engine
}

// NewRewardSettlement creates a reward settlement handler.
func NewRewardSettlement(engine *ledger.Engine) *RewardSettlement {
	return &RewardSettlement{engine: engine}
}

// GateResult captures which gates passed/failed.
type GateResult struct {
	StandingPassed bool       `json:"standing_passed"`
	CooldownPassed bool       `json:"cooldown_passed"`
	BudgetPassed   bool       `json:"budget_passed"`
	AllPassed      bool       `json:"all_passed"`
	NextClaimAt    *time.Time `json:"next_claim_at,omitempty"`
}

// EvaluateAndCreditDaily runs the 3-gate evaluation and credits the daily
// reward if all pass.
//
// Gate 1: Standing (account not banned)
// Gate 2: Cooldown (configured minutes since the last daily reward)
// Gate 3: Budget (site-wide daily reward budget not exceeded)
//
// On a gate failure the result reports which gate blocked and, for the
// cooldown gate, when the next claim opens. No error is returned; a
// blocked claim is a normal outcome.
func (s *RewardSettlement) EvaluateAndCreditDaily(
	ctx context.Context,
	tx pgx.Tx,
	account *domain.Account,
	settings domain.SiteSettings,
	lastRewardAt *time.Time,
	dailySpent int64,
) (*GateResult, *domain.CommandResult, error) {
	gate := &GateResult{}

	// Gate 1: Standing
	gate.StandingPassed = !account.Banned

	// Gate 2: Cooldown
	gate.CooldownPassed = CheckRewardCooldown(lastRewardAt, settings.DailyRewardCooldownMin)
	if !gate.CooldownPassed && lastRewardAt != nil {
		next := lastRewardAt.Add(time.Duration(settings.DailyRewardCooldownMin) * time.Minute)
		gate.NextClaimAt = &next
	}

	// Gate 3: Budget
	gate.BudgetPassed = CheckRewardBudget(dailySpent, settings.DailyRewardGems, settings.DailyRewardBudget)

	gate.AllPassed = gate.StandingPassed && gate.CooldownPassed && gate.BudgetPassed
	if !gate.AllPassed {
		return gate, nil, nil
	}

	meta, _ := json.Marshal(map[string]interface{}{
		"reward_type": "daily",
	})
	result, err := s.engine.ExecuteGrantReward(ctx, tx, domain.GrantRewardParams{
		AccountID:      account.ID,
		Type:           domain.EntryDailyReward,
		Gems:           settings.DailyRewardGems,
		Crystals:       settings.DailyRewardCrystals,
		IdempotencyKey: dailyRewardKey(account.ID, time.Now()),
		Metadata:       meta,
	})
	if err != nil {
		return gate, nil, fmt.Errorf("credit daily reward: %w", err)
	}

	return gate, result, nil
}

func dailyRewardKey(accountID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("daily-%s-%d", accountID, now.UnixNano())
}

// CheckRewardCooldown checks if enough time has passed since the last reward.
func CheckRewardCooldown(lastRewardAt *time.Time, cooldownMinutes int) bool {
	if lastRewardAt == nil {
		return true
	}
	cooldownEnd := lastRewardAt.Add(time.Duration(cooldownMinutes) * time.Minute)
	return time.Now().After(cooldownEnd)
}

// CheckRewardBudget checks if the daily budget allows this reward.
func CheckRewardBudget(dailySpent, rewardAmount, dailyBudget int64) bool {
	return (dailySpent + rewardAmount) <= dailyBudget
}
