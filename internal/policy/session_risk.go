package policy

// RiskLevel classifies login risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// SessionRiskSignals holds the raw inputs for login risk evaluation.
type SessionRiskSignals struct {
	AuthFailures     int  `json:"auth_failures"`      // failed logins in the lockout window
	SharedIPSessions int  `json:"shared_ip_sessions"` // live sessions already on this IP
	NewDevice        bool `json:"new_device"`         // user agent never seen on this account
	YoungAccount     bool `json:"young_account"`      // account younger than a day
}

// SessionRiskResult holds the evaluated risk.
type SessionRiskResult struct {
	Level RiskLevel `json:"level"`
	Score int       `json:"score"`
	Flags []string  `json:"flags,omitempty"`
}

// EvaluateSessionRisk computes a risk score from login signals. The level
// is stored on the session; high risk trims the session lifetime.
func EvaluateSessionRisk(signals SessionRiskSignals) SessionRiskResult {
	var score int
	var flags []string

	if signals.AuthFailures > 5 {
		score += 40
		flags = append(flags, "auth_failures")
	} else if signals.AuthFailures > 2 {
		score += 20
		flags = append(flags, "auth_failures_moderate")
	}

	if signals.SharedIPSessions > 5 {
		score += 30
		flags = append(flags, "shared_ip_heavy")
	} else if signals.SharedIPSessions > 2 {
		score += 15
		flags = append(flags, "shared_ip")
	}

	if signals.NewDevice {
		score += 15
		flags = append(flags, "new_device")
	}

	if signals.YoungAccount {
		score += 10
		flags = append(flags, "young_account")
	}

	level := RiskLow
	if score >= 60 {
		level = RiskHigh
	} else if score >= 30 {
		level = RiskMedium
	}

	return SessionRiskResult{Level: level, Score: score, Flags: flags}
}
