package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gemcade/platform/internal/guard"
)

// RandomOrgClient fetches external entropy from RANDOM.ORG to mix into
// server seeds. The upstream is optional: every failure path returns nil
// bytes and the seed falls back to crypto/rand alone. A circuit breaker
// keeps a down upstream from adding latency to every wager placement.
type RandomOrgClient struct {
	apiKey  string
	logger  *slog.Logger
	client  *http.Client
	breaker *guard.CircuitBreaker
	apiURL  string
}

// NewRandomOrgClient creates a new RANDOM.ORG entropy client.
func NewRandomOrgClient(apiKey string, logger *slog.Logger, breaker *guard.CircuitBreaker) *RandomOrgClient {
	return &RandomOrgClient{
		apiKey:  apiKey,
		logger:  logger,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: breaker,
		apiURL:  "https://api.random.org/json-rpc/4/invoke",
	}
}

// SeedEntropy returns n bytes of external entropy, or nil when the
// upstream is unconfigured, broken open, or erroring. Callers always mix
// the result into locally generated randomness, never replace it.
func (c *RandomOrgClient) SeedEntropy(ctx context.Context, n int) []byte {
	if c.apiKey == "" || n <= 0 {
		return nil
	}

	if res := c.breaker.Check(ctx); !res.Allowed {
		c.logger.Debug("random.org circuit open, skipping external entropy")
		return nil
	}

	data, err := c.fetchFromAPI(ctx, n)
	if err != nil {
		c.breaker.RecordFailure()
		c.logger.Warn("random.org unavailable, using local entropy only", "error", err)
		return nil
	}
	c.breaker.RecordSuccess()

	buf := make([]byte, len(data))
	for i, v := range data {
		buf[i] = byte(v)
	}
	return buf
}

func (c *RandomOrgClient) fetchFromAPI(ctx context.Context, n int) ([]int, error) {
	reqBody := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]interface{}{
			"apiKey":      c.apiKey,
			"n":           n,
			"min":         0,
			"max":         255,
			"replacement": true,
		},
		"id": 1,
	}

	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var response struct {
		Result struct {
			Random struct {
				Data []int `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("api error: %s", response.Error.Message)
	}

	if len(response.Result.Random.Data) != n {
		return nil, fmt.Errorf("expected %d integers, got %d", n, len(response.Result.Random.Data))
	}

	return response.Result.Random.Data, nil
}
