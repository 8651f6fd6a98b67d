package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRoleTransition(t *testing.T) {
	tests := []struct {
		name          string
		actor         Role
		target        Role
		desired       Role
		actorIsTarget bool
		wantAllowed   bool
		wantReason    string
	}{
		{
			name:        "owner demotes admin to user",
			actor:       RoleOwner,
			target:      RoleAdmin,
			desired:     RoleUser,
			wantAllowed: true,
		},
		{
			name:        "owner promotes user to admin",
			actor:       RoleOwner,
			target:      RoleUser,
			desired:     RoleAdmin,
			wantAllowed: true,
		},
		{
			name:          "owner cannot demote itself outside transfer",
			actor:         RoleOwner,
			target:        RoleOwner,
			desired:       RoleAdmin,
			actorIsTarget: true,
			wantAllowed:   false,
			wantReason:    "ownership transfer",
		},
		{
			name:          "owner keeping its own role is a no-op",
			actor:         RoleOwner,
			target:        RoleOwner,
			desired:       RoleOwner,
			actorIsTarget: true,
			wantAllowed:   true,
		},
		{
			name:        "owner cannot mint a second owner",
			actor:       RoleOwner,
			target:      RoleUser,
			desired:     RoleOwner,
			wantAllowed: false,
			wantReason:  "ownership transfer",
		},
		{
			name:        "admin demotes peer rejected",
			actor:       RoleAdmin,
			target:      RoleAdmin,
			desired:     RoleUser,
			wantAllowed: false,
			wantReason:  "cannot modify admin or owner",
		},
		{
			name:        "admin promotes user rejected",
			actor:       RoleAdmin,
			target:      RoleUser,
			desired:     RoleAdmin,
			wantAllowed: false,
			wantReason:  "only assign the user role",
		},
		{
			name:        "admin sets user role to user",
			actor:       RoleAdmin,
			target:      RoleUser,
			desired:     RoleUser,
			wantAllowed: true,
		},
		{
			name:        "admin targets owner rejected",
			actor:       RoleAdmin,
			target:      RoleOwner,
			desired:     RoleUser,
			wantAllowed: false,
			wantReason:  "cannot modify the owner",
		},
		{
			name:        "user targets user rejected",
			actor:       RoleUser,
			target:      RoleUser,
			desired:     RoleUser,
			wantAllowed: false,
			wantReason:  "insufficient privileges",
		},
		{
			name:        "user targets admin rejected",
			actor:       RoleUser,
			target:      RoleAdmin,
			desired:     RoleUser,
			wantAllowed: false,
		},
		{
			name:        "unknown desired role rejected",
			actor:       RoleOwner,
			target:      RoleUser,
			desired:     Role("superuser"),
			wantAllowed: false,
			wantReason:  "unknown role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateRoleTransition(tt.actor, tt.target, tt.desired, tt.actorIsTarget)
			assert.Equal(t, tt.wantAllowed, got.Allowed)
			if tt.wantReason != "" {
				assert.Contains(t, got.Reason, tt.wantReason)
			}
		})
	}
}

func TestValidateBanChange(t *testing.T) {
	tests := []struct {
		name          string
		actor         Role
		target        Role
		actorIsTarget bool
		wantAllowed   bool
	}{
		{name: "owner bans user", actor: RoleOwner, target: RoleUser, wantAllowed: true},
		{name: "owner bans admin", actor: RoleOwner, target: RoleAdmin, wantAllowed: true},
		{name: "admin bans user", actor: RoleAdmin, target: RoleUser, wantAllowed: true},
		{name: "admin bans admin rejected", actor: RoleAdmin, target: RoleAdmin, wantAllowed: false},
		{name: "admin bans owner rejected", actor: RoleAdmin, target: RoleOwner, wantAllowed: false},
		{name: "nobody bans the owner", actor: RoleOwner, target: RoleOwner, wantAllowed: false},
		{name: "user bans nobody", actor: RoleUser, target: RoleUser, wantAllowed: false},
		{name: "self ban rejected", actor: RoleOwner, target: RoleOwner, actorIsTarget: true, wantAllowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateBanChange(tt.actor, tt.target, tt.actorIsTarget)
			assert.Equal(t, tt.wantAllowed, got.Allowed)
			if !tt.wantAllowed {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleUser))
	assert.True(t, RoleOwner.AtLeast(RoleUser))
	assert.False(t, RoleUser.AtLeast(RoleAdmin))
	assert.False(t, RoleAdmin.AtLeast(RoleOwner))
	assert.True(t, RoleUser.AtLeast(RoleUser))

	assert.Less(t, RoleUser.Level(), RoleAdmin.Level())
	assert.Less(t, RoleAdmin.Level(), RoleOwner.Level())
	assert.Equal(t, 0, Role("poweruser").Level())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestAmountJSON(t *testing.T) {
	type payload struct {
		Gems Amount `json:"gems"`
	}

	t.Run("marshals as decimal string", func(t *testing.T) {
		out, err := json.Marshal(payload{Gems: 9007199254740993})
		require.NoError(t, err)
		assert.JSONEq(t, `{"gems":"9007199254740993"}`, string(out))
	})

	t.Run("negative amounts keep their sign", func(t *testing.T) {
		out, err := json.Marshal(payload{Gems: -250})
		require.NoError(t, err)
		assert.JSONEq(t, `{"gems":"-250"}`, string(out))
	})

	t.Run("unmarshals string input", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"gems":"12345"}`), &p))
		assert.Equal(t, Amount(12345), p.Gems)
	})

	t.Run("unmarshals numeric input", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"gems":500}`), &p))
		assert.Equal(t, Amount(500), p.Gems)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		var p payload
		err := json.Unmarshal([]byte(`{"gems":"1e5"}`), &p)
		require.Error(t, err)
	})

	t.Run("null leaves zero value", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"gems":null}`), &p))
		assert.Equal(t, Amount(0), p.Gems)
	})
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid", username: "high_roller99", wantErr: false},
		{name: "minimum length", username: "abc", wantErr: false},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: "abcdefghijklmnopqrstu", wantErr: true},
		{name: "spaces rejected", username: "high roller", wantErr: true},
		{name: "unicode rejected", username: "gämbler", wantErr: true},
		{name: "dash rejected", username: "high-roller", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	require.Error(t, ValidatePassword("short"))
	require.NoError(t, ValidatePassword("longenough"))
	require.Error(t, ValidatePassword(string(make([]byte, 73))))
}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{xp: 0, want: 1},
		{xp: 999, want: 1},
		{xp: 1000, want: 2},
		{xp: 2999, want: 2},
		{xp: 3000, want: 3},
		{xp: 6000, want: 4},
		{xp: -5, want: 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}

	assert.Equal(t, int64(1000), XPForNextLevel(0))
	assert.Equal(t, int64(3000), XPForNextLevel(1000))
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(2*time.Hour)))
	assert.True(t, s.Expired(s.ExpiresAt))
}

func TestMinesState(t *testing.T) {
	s := MinesState{GridSize: 5, MineCount: 3, Mines: []int{2, 7, 11}, Revealed: []int{0, 1}}
	assert.True(t, s.IsMine(7))
	assert.False(t, s.IsMine(3))
	assert.True(t, s.IsRevealed(1))
	assert.False(t, s.IsRevealed(7))
	assert.Equal(t, 2, s.SafeRevealed())
}

func TestAppError(t *testing.T) {
	t.Run("formats without cause", func(t *testing.T) {
		err := ErrValidation("stake must be positive")
		assert.Equal(t, "VALIDATION_ERROR: stake must be positive", err.Error())
		assert.Equal(t, 400, err.Status)
	})

	t.Run("wraps cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := ErrInternal("query accounts", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("already settled carries conflict status", func(t *testing.T) {
		err := ErrAlreadySettled("w-123")
		assert.Equal(t, 409, err.Status)
		assert.Contains(t, err.Message, "w-123")
	})

	t.Run("banned maps to forbidden class", func(t *testing.T) {
		assert.Equal(t, 403, ErrAccountBanned().Status)
	})
}

func TestSiteSettingsValidate(t *testing.T) {
	s := DefaultSiteSettings()
	require.NoError(t, s.Validate())

	s.ExchangeRate = 0
	require.Error(t, s.Validate())

	s = DefaultSiteSettings()
	s.DailyRewardCooldownMin = 0
	require.Error(t, s.Validate())

	s = DefaultSiteSettings()
	s.RegistrationGems = -1
	require.Error(t, s.Validate())
}
