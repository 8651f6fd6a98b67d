// Package games holds the outcome calculators for the three wager games.
// Every calculator is a pure function over a RandomSource, so outcomes are
// reproducible from a revealed fairness seed.
package games

import "math"

// Payout converts a stake and multiplier into the gross amount returned to
// the account. Always rounds down.
func Payout(stake int64, multiplier float64) int64 {
	if stake <= 0 || multiplier <= 0 {
		return 0
	}
	return int64(math.Floor(float64(stake) * multiplier))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
