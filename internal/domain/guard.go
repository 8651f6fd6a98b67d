package domain

// GuardResult is the outcome of an admission guard check: rate limits,
// duplicate suppression, circuit breakers.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"` // which guard blocked
}
