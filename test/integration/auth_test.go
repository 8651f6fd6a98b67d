//go:build integration

package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemcade/platform/internal/auth"
	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/test/integration/testutil"
)

// ─── Registration Tests (9) ─────────────────────────────────────────────────

func TestRegister_Success(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.POST("/auth/register", map[string]string{
		"username": "first_player", "password": "securepass123",
	}, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusCreated)

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
		RiskLevel string    `json:"risk_level"`
		Account   struct {
			ID       uuid.UUID     `json:"id"`
			Username string        `json:"username"`
			Role     string        `json:"role"`
			Gems     domain.Amount `json:"gems"`
			Crystals domain.Amount `json:"crystals"`
			XP       domain.Amount `json:"xp"`
			Banned   bool          `json:"banned"`
		} `json:"account"`
	}
	testutil.DecodeJSON(t, resp, &result)

	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))
	assert.NotEmpty(t, result.RiskLevel)
	assert.NotEqual(t, uuid.Nil, result.Account.ID)
	assert.Equal(t, "first_player", result.Account.Username)
	assert.Equal(t, domain.Amount(1000), result.Account.Gems)
	assert.Equal(t, domain.Amount(50), result.Account.Crystals)
	assert.Equal(t, domain.Amount(0), result.Account.XP)
	assert.False(t, result.Account.Banned)
}

func TestRegister_FirstAccountBecomesOwner(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, accountID := env.RegisterAccount("founder", "securepass123")

	var role string
	err := env.Pool.QueryRow(context.Background(), "SELECT role FROM accounts WHERE id = $1", accountID).Scan(&role)
	require.NoError(t, err)
	assert.Equal(t, "owner", role)
}

func TestRegister_LaterAccountsAreUsers(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.RegisterAccount("founder", "securepass123")
	_, secondID := env.RegisterAccount("regular_joe", "securepass123")

	var role string
	err := env.Pool.QueryRow(context.Background(), "SELECT role FROM accounts WHERE id = $1", secondID).Scan(&role)
	require.NoError(t, err)
	assert.Equal(t, "user", role)
}

func TestRegister_WritesSignupBonusEntry(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, accountID := env.RegisterAccount("bonus_hunter", "securepass123")

	var gems, crystals int64
	var key string
	err := env.Pool.QueryRow(context.Background(), `
		SELECT gems::bigint, crystals::bigint, idempotency_key
		FROM ledger_entries
		WHERE account_id = $1 AND type = 'registration_bonus'`, accountID).Scan(&gems, &crystals, &key)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), gems)
	assert.Equal(t, int64(50), crystals)
	assert.Equal(t, "register-"+accountID.String(), key)
	testutil.AssertBalance(t, env, accountID, 1000, 50)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.RegisterAccount("taken_name", "securepass123")

	resp := env.POST("/auth/register", map[string]string{
		"username": "taken_name", "password": "differentpass1",
	}, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusConflict)
	testutil.AssertErrorCode(t, resp, "CONFLICT")
}

func TestRegister_DuplicateUsernameIgnoresCase(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.RegisterAccount("HighRoller", "securepass123")

	resp := env.POST("/auth/register", map[string]string{
		"username": "highroller", "password": "securepass123",
	}, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusConflict)
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.POST("/auth/register", map[string]string{
		"username": "impatient", "password": "short",
	}, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
}

func TestRegister_RejectsInvalidUsername(t *testing.T) {
	env := testutil.NewTestEnv(t)

	for _, username := range []string{"ab", "has space", "way_too_long_for_a_username_here"} {
		resp := env.POST("/auth/register", map[string]string{
			"username": username, "password": "securepass123",
		}, "")
		testutil.AssertStatus(t, resp, http.StatusBadRequest)
		resp.Body.Close()
	}
}

func TestRegister_RejectsEmptyBody(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.POST("/auth/register", nil, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}

// ─── Login Tests (6) ────────────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.RegisterAccount("night_owl", "securepass123")

	token := env.Login("night_owl", "securepass123")

	resp := env.AuthGET("/me", token)
	defer resp.Body.Close()
	testutil.AssertStatus(t, resp, http.StatusOK)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.RegisterAccount("careful_carl", "securepass123")

	resp := env.POST("/auth/login", map[string]string{
		"username": "careful_carl", "password": "wrongpass123",
	}, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
	testutil.AssertErrorCode(t, resp, "UNAUTHORIZED")
}

func TestLogin_UnknownUsername(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.POST("/auth/login", map[string]string{
		"username": "ghost_user", "password": "securepass123",
	}, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestLogin_UsernameCaseInsensitive(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.RegisterAccount("MixedCase", "securepass123")

	token := env.Login("mixedcase", "securepass123")
	assert.NotEmpty(t, token)
}

func TestLogin_RejectsEmptyBody(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.POST("/auth/login", nil, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}

func TestLogin_RecordsAttempts(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.RegisterAccount("audited_amy", "securepass123")
	env.Login("audited_amy", "securepass123")

	resp := env.POST("/auth/login", map[string]string{
		"username": "audited_amy", "password": "wrongpass123",
	}, "")
	resp.Body.Close()

	var successes, failures int
	err := env.Pool.QueryRow(context.Background(), `
		SELECT
		  COUNT(*) FILTER (WHERE success),
		  COUNT(*) FILTER (WHERE NOT success)
		FROM login_attempts WHERE lower(username) = 'audited_amy'`).Scan(&successes, &failures)
	require.NoError(t, err)
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
}

// ─── Session Tests (7) ──────────────────────────────────────────────────────

func TestSessions_CookieAuthenticates(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterAccount("cookie_fan", "securepass123")

	resp := env.GETWithCookie("/me", token)
	defer resp.Body.Close()
	testutil.AssertStatus(t, resp, http.StatusOK)
}

func TestSessions_TokensStoredHashed(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterAccount("hash_checker", "securepass123")

	var rawHits, digestHits int
	env.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM sessions WHERE token = $1", token).Scan(&rawHits)
	env.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM sessions WHERE token = $1", auth.HashToken(token)).Scan(&digestHits)

	assert.Equal(t, 0, rawHits, "raw token must never be stored")
	assert.Equal(t, 1, digestHits)
}

func TestSessions_RecordsClientMetadata(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, accountID := env.RegisterAccount("tracked_tom", "securepass123")

	var ip, userAgent, riskLevel string
	err := env.Pool.QueryRow(context.Background(), `
		SELECT ip_address, user_agent, risk_level
		FROM sessions WHERE account_id = $1`, accountID).Scan(&ip, &userAgent, &riskLevel)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)
	assert.NotEmpty(t, userAgent)
	assert.Contains(t, []string{"low", "medium", "high"}, riskLevel)
}

func TestSessions_MissingTokenRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.GET("/me")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
	testutil.AssertErrorCode(t, resp, "UNAUTHORIZED")
}

func TestSessions_GarbageTokenRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.AuthGET("/me", strings.Repeat("f", 64))
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestLogout_RevokesSession(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, accountID := env.RegisterAccount("quick_visit", "securepass123")

	resp := env.AuthPOST("/auth/logout", nil, token)
	defer resp.Body.Close()
	testutil.AssertStatus(t, resp, http.StatusOK)

	assert.Equal(t, 0, testutil.CountSessions(t, env, accountID))

	second := env.AuthGET("/me", token)
	defer second.Body.Close()
	testutil.AssertStatus(t, second, http.StatusUnauthorized)
}

func TestLogout_RequiresSession(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.POST("/auth/logout", nil, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
}

// ─── Platform Tests (2) ─────────────────────────────────────────────────────

func TestHealth_ReportsHealthy(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.GET("/health")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusOK)

	var body struct {
		Status string `json:"status"`
	}
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.OPTIONS("/auth/login")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Idempotency-Key")
}
