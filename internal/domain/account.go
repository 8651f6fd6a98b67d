package domain

import (
	"time"

	"github.com/google/uuid"
)

// Balances holds the two currency balances plus lifetime experience.
// All three are non-negative numeric(15,0) columns at rest.
type Balances struct {
	Gems     Amount `json:"gems"`
	Crystals Amount `json:"crystals"`
	XP       Amount `json:"xp"`
}

// Account represents an accounts row.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Balances
	Banned    bool      `json:"banned"`
	BanReason string    `json:"ban_reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Level derives the account's level from lifetime XP. Levels follow a
// quadratic curve: level n starts at 500*n*(n-1) XP, so 0 XP is level 1,
// 1000 XP level 2, 3000 XP level 3 and so on.
func (a *Account) Level() int {
	return LevelForXP(int64(a.XP))
}

// LevelForXP computes the level reached at a given lifetime XP.
func LevelForXP(xp int64) int {
	if xp < 0 {
		return 1
	}
	level := 1
	for xpForLevel(level+1) <= xp {
		level++
	}
	return level
}

// XPForNextLevel returns the XP threshold at which the next level starts.
func XPForNextLevel(xp int64) int64 {
	return xpForLevel(LevelForXP(xp) + 1)
}

func xpForLevel(level int) int64 {
	n := int64(level)
	return 500 * n * (n - 1)
}

// Session represents a sessions row. Tokens are opaque 256-bit values;
// validity is re-checked against this row on every request.
type Session struct {
	Token     string    `json:"-"`
	AccountID uuid.UUID `json:"account_id"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	RiskLevel string    `json:"risk_level,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// ValidateUsername enforces the account naming rules: 3-20 chars,
// letters, digits and underscore. Uniqueness is case-insensitive and
// enforced by the database.
func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 20 {
		return ErrValidation("username must be 3-20 characters")
	}
	for _, c := range username {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return ErrValidation("username may contain only letters, digits and underscore")
		}
	}
	return nil
}

// ValidatePassword enforces the minimum credential policy.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrValidation("password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes
		return ErrValidation("password must be at most 72 characters")
	}
	return nil
}
