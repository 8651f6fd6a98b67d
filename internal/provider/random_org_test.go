package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gemcade/platform/internal/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestSeedEntropy_NoAPIKeyReturnsNil(t *testing.T) {
	client := NewRandomOrgClient("", testLogger(), guard.NewCircuitBreaker(3, time.Second))

	buf := client.SeedEntropy(context.Background(), 32)
	assert.Nil(t, buf)
}

func TestSeedEntropy_ZeroBytesReturnsNil(t *testing.T) {
	client := NewRandomOrgClient("key", testLogger(), guard.NewCircuitBreaker(3, time.Second))

	buf := client.SeedEntropy(context.Background(), 0)
	assert.Nil(t, buf)
}

func TestSeedEntropy_FetchesFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":{"random":{"data":[1,2,3,255]}}}`)
	}))
	defer srv.Close()

	client := NewRandomOrgClient("key", testLogger(), guard.NewCircuitBreaker(3, time.Second))
	client.apiURL = srv.URL

	buf := client.SeedEntropy(context.Background(), 4)
	require.NotNil(t, buf)
	assert.Equal(t, []byte{1, 2, 3, 255}, buf)
}

func TestSeedEntropy_APIErrorReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"error":{"message":"key invalid"}}`)
	}))
	defer srv.Close()

	client := NewRandomOrgClient("key", testLogger(), guard.NewCircuitBreaker(3, time.Second))
	client.apiURL = srv.URL

	buf := client.SeedEntropy(context.Background(), 4)
	assert.Nil(t, buf)
}

func TestSeedEntropy_WrongCountReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":{"random":{"data":[1,2]}}}`)
	}))
	defer srv.Close()

	client := NewRandomOrgClient("key", testLogger(), guard.NewCircuitBreaker(3, time.Second))
	client.apiURL = srv.URL

	buf := client.SeedEntropy(context.Background(), 4)
	assert.Nil(t, buf)
}

func TestSeedEntropy_BreakerOpensAfterFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewRandomOrgClient("key", testLogger(), guard.NewCircuitBreaker(2, time.Minute))
	client.apiURL = srv.URL

	ctx := context.Background()
	client.SeedEntropy(ctx, 4)
	client.SeedEntropy(ctx, 4)
	// Circuit is open now; this call should not reach the server.
	client.SeedEntropy(ctx, 4)

	assert.Equal(t, 2, calls)
}
