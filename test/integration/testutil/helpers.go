//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gemcade/platform/internal/auth"
	"github.com/gemcade/platform/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterAccount creates an account through the API and returns the
// session token and account ID. In an empty database the first call of a
// test creates the owner.
func (env *TestEnv) RegisterAccount(username, password string) (token string, accountID uuid.UUID) {
	env.t.Helper()
	resp := env.POST("/auth/register", map[string]string{
		"username": username, "password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("RegisterAccount %s: expected 201, got %d", username, resp.StatusCode)
	}

	var result struct {
		Token   string `json:"token"`
		Account struct {
			ID uuid.UUID `json:"id"`
		} `json:"account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("RegisterAccount: decode: %v", err)
	}
	return result.Token, result.Account.ID
}

// Login authenticates an existing account and returns the session token.
func (env *TestEnv) Login(username, password string) string {
	env.t.Helper()
	resp := env.POST("/auth/login", map[string]string{
		"username": username, "password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("Login %s: expected 200, got %d", username, resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("Login: decode: %v", err)
	}
	return result.Token
}

// SeedAccount inserts an account row directly with the given role and
// balances, mints a session for it and returns the raw token. Bypasses the
// registration flow, so no bonus is credited and the first-account-owner
// rule does not apply. The password is SeededPassword.
func (env *TestEnv) SeedAccount(username string, role domain.Role, gems, crystals int64) (token string, accountID uuid.UUID) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(SeededPassword), bcrypt.MinCost)
	if err != nil {
		env.t.Fatalf("SeedAccount: hash: %v", err)
	}

	accountID = uuid.New()
	_, err = env.Pool.Exec(ctx, `
		INSERT INTO accounts (id, username, password_hash, role, gems, crystals, xp)
		VALUES ($1, $2, $3, $4, $5, $6, 0)`,
		accountID, username, string(hash), string(role), gems, crystals)
	if err != nil {
		env.t.Fatalf("SeedAccount: insert: %v", err)
	}

	return env.SeedSession(accountID), accountID
}

// SeedSession mints a session row for an account and returns the raw
// bearer token.
func (env *TestEnv) SeedSession(accountID uuid.UUID) string {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := auth.NewToken()
	if err != nil {
		env.t.Fatalf("SeedSession: token: %v", err)
	}
	_, err = env.Pool.Exec(ctx, `
		INSERT INTO sessions (token, account_id, ip_address, user_agent, risk_level, created_at, expires_at)
		VALUES ($1, $2, '127.0.0.1', 'testutil', 'low', now(), now() + interval '1 hour')`,
		auth.HashToken(raw), accountID)
	if err != nil {
		env.t.Fatalf("SeedSession: insert: %v", err)
	}
	return raw
}

// DirectCredit credits an account's balances directly, writing the same
// ledger entry and outbox event the engine would.
func (env *TestEnv) DirectCredit(accountID uuid.UUID, gems, crystals int64) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := env.Pool.Begin(ctx)
	if err != nil {
		env.t.Fatalf("DirectCredit: begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	// Lock account
	_, err = tx.Exec(ctx, "SELECT id FROM accounts WHERE id = $1 FOR UPDATE", accountID)
	if err != nil {
		env.t.Fatalf("DirectCredit: lock: %v", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts SET gems = gems + $2, crystals = crystals + $3, updated_at = now()
		WHERE id = $1`,
		accountID, gems, crystals)
	if err != nil {
		env.t.Fatalf("DirectCredit: update balances: %v", err)
	}

	var gemsAfter, crystalsAfter int64
	err = tx.QueryRow(ctx,
		"SELECT gems::bigint, crystals::bigint FROM accounts WHERE id = $1",
		accountID).Scan(&gemsAfter, &crystalsAfter)
	if err != nil {
		env.t.Fatalf("DirectCredit: read balances: %v", err)
	}

	key := fmt.Sprintf("test-credit-%s", uuid.New().String()[:8])
	_, err = tx.Exec(ctx, `
		INSERT INTO ledger_entries
		  (id, account_id, type, gems, crystals, gems_after, crystals_after, idempotency_key)
		VALUES ($1, $2, 'admin_adjust', $3, $4, $5, $6, $7)`,
		uuid.New(), accountID, gems, crystals, gemsAfter, crystalsAfter, key)
	if err != nil {
		env.t.Fatalf("DirectCredit: insert entry: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO event_outbox
		  (event_id, aggregate_type, aggregate_id, event_type, partition_key, payload, occurred_at)
		VALUES ($1, 'account', $2, 'casino.balance.adjusted', $2, '{}', now())`,
		uuid.New(), accountID.String())
	if err != nil {
		env.t.Fatalf("DirectCredit: insert outbox: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		env.t.Fatalf("DirectCredit: commit: %v", err)
	}
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional bearer token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.request("POST", path, body, token, nil)
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	return env.request("GET", path, nil, token, nil)
}

// AuthPOST performs an authenticated POST request.
func (env *TestEnv) AuthPOST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.request("POST", path, body, token, nil)
}

// AuthPOSTWithHeaders performs an authenticated POST with extra headers.
func (env *TestEnv) AuthPOSTWithHeaders(path string, body interface{}, token string, headers map[string]string) *http.Response {
	env.t.Helper()
	return env.request("POST", path, body, token, headers)
}

// AuthPATCH performs an authenticated PATCH request.
func (env *TestEnv) AuthPATCH(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.request("PATCH", path, body, token, nil)
}

// AuthPUT performs an authenticated PUT request.
func (env *TestEnv) AuthPUT(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.request("PUT", path, body, token, nil)
}

// GETWithCookie performs a GET request authenticated by session cookie
// instead of a bearer token.
func (env *TestEnv) GETWithCookie(path, rawToken string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("GETWithCookie %s: new request: %v", path, err)
	}
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: rawToken})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("GETWithCookie %s: %v", path, err)
	}
	return resp
}

// OPTIONS performs an OPTIONS request.
func (env *TestEnv) OPTIONS(path string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("OPTIONS", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("OPTIONS %s: new request: %v", path, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("OPTIONS %s: %v", path, err)
	}
	return resp
}

func (env *TestEnv) request(method, path string, body interface{}, token string, headers map[string]string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// FakeUUID returns a random UUID string for test placeholders.
func FakeUUID() string {
	return uuid.New().String()
}
