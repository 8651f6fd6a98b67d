//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body contains the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// AssertBalance queries the accounts table and asserts the balances.
func AssertBalance(t *testing.T, env *TestEnv, accountID uuid.UUID, gems, crystals int64) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var g, c int64
	err := env.Pool.QueryRow(ctx,
		"SELECT gems::bigint, crystals::bigint FROM accounts WHERE id = $1",
		accountID).Scan(&g, &c)
	if err != nil {
		t.Fatalf("AssertBalance: query: %v", err)
	}
	if g != gems {
		t.Errorf("gems: expected %d, got %d", gems, g)
	}
	if c != crystals {
		t.Errorf("crystals: expected %d, got %d", crystals, c)
	}
}

// AccountXP returns the account's lifetime XP.
func AccountXP(t *testing.T, env *TestEnv, accountID uuid.UUID) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var xp int64
	err := env.Pool.QueryRow(ctx,
		"SELECT xp::bigint FROM accounts WHERE id = $1", accountID).Scan(&xp)
	if err != nil {
		t.Fatalf("AccountXP: %v", err)
	}
	return xp
}

// CountLedgerEntries returns the number of ledger entries for an account.
func CountLedgerEntries(t *testing.T, env *TestEnv, accountID uuid.UUID) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1", accountID).Scan(&count)
	if err != nil {
		t.Fatalf("CountLedgerEntries: %v", err)
	}
	return count
}

// CountOutboxEvents returns the number of outbox events for an aggregate.
func CountOutboxEvents(t *testing.T, env *TestEnv, aggregateID string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM event_outbox WHERE aggregate_id = $1", aggregateID).Scan(&count)
	if err != nil {
		t.Fatalf("CountOutboxEvents: %v", err)
	}
	return count
}

// CountSessions returns the number of session rows for an account.
func CountSessions(t *testing.T, env *TestEnv, accountID uuid.UUID) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM sessions WHERE account_id = $1", accountID).Scan(&count)
	if err != nil {
		t.Fatalf("CountSessions: %v", err)
	}
	return count
}
