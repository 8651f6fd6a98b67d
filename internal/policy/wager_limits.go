package policy

// WagerLimitPolicy defines play limits for an account, denominated in gems.
type WagerLimitPolicy struct {
	SingleWagerMax int64 `json:"single_wager_max"`
	DailyStakeMax  int64 `json:"daily_stake_max"`
	DailyLossMax   int64 `json:"daily_loss_max"`
}

// DefaultWagerLimits returns the site-wide default limits.
func DefaultWagerLimits() WagerLimitPolicy {
	return WagerLimitPolicy{
		SingleWagerMax: 100_000,
		DailyStakeMax:  500_000,
		DailyLossMax:   250_000,
	}
}

// LimitEvaluation holds the result of a wager limits check.
type LimitEvaluation struct {
	Allowed       bool   `json:"allowed"`
	BreachedLimit string `json:"breached_limit,omitempty"`
	LimitValue    int64  `json:"limit_value,omitempty"`
	RequestedAmt  int64  `json:"requested_amount,omitempty"`
}

// EvaluateWagerLimits checks a stake against the account's play limits.
// dailyStaked and dailyLost are the running totals for the current UTC day.
// A zero limit disables that check.
func EvaluateWagerLimits(policy WagerLimitPolicy, stake, dailyStaked, dailyLost int64) LimitEvaluation {
	if policy.SingleWagerMax > 0 && stake > policy.SingleWagerMax {
		return LimitEvaluation{
			Allowed:       false,
			BreachedLimit: "single_wager",
			LimitValue:    policy.SingleWagerMax,
			RequestedAmt:  stake,
		}
	}

	if policy.DailyStakeMax > 0 && dailyStaked+stake > policy.DailyStakeMax {
		return LimitEvaluation{
			Allowed:       false,
			BreachedLimit: "daily_stake",
			LimitValue:    policy.DailyStakeMax,
			RequestedAmt:  dailyStaked + stake,
		}
	}

	// The whole stake counts as potential loss until the wager settles.
	if policy.DailyLossMax > 0 && dailyLost+stake > policy.DailyLossMax {
		return LimitEvaluation{
			Allowed:       false,
			BreachedLimit: "daily_loss",
			LimitValue:    policy.DailyLossMax,
			RequestedAmt:  dailyLost + stake,
		}
	}

	return LimitEvaluation{Allowed: true}
}
