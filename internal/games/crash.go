package games

import (
	"fmt"
	"math"
)

// CrashMode selects the multiplier growth curve.
type CrashMode string

const (
	// CrashModeNormal grows as e^(t/10).
	CrashModeNormal CrashMode = "normal"
	// CrashModeTurbo grows as e^(t/5).
	CrashModeTurbo CrashMode = "turbo"
)

// CrashMinPoint floors the drawn crash point; the maximum multiplier and
// the house edge come from configuration.
const CrashMinPoint = 1.01

// ParseCrashMode validates a wire-supplied mode, defaulting empty to normal.
func ParseCrashMode(s string) (CrashMode, error) {
	switch s {
	case "", string(CrashModeNormal):
		return CrashModeNormal, nil
	case string(CrashModeTurbo):
		return CrashModeTurbo, nil
	}
	return "", fmt.Errorf("unknown crash mode %q", s)
}

func (m CrashMode) timeScale() float64 {
	if m == CrashModeTurbo {
		return 5.0
	}
	return 10.0
}

// CrashMultiplierAt evaluates the growth curve at elapsed seconds:
// e^(t/10), or e^(t/5) in turbo mode. Monotone increasing, 1.0 at t=0.
func CrashMultiplierAt(elapsed float64, mode CrashMode) float64 {
	if elapsed <= 0 {
		return 1.0
	}
	return math.Exp(elapsed / mode.timeScale())
}

// CrashTimeToReach inverts the curve: the elapsed seconds at which the
// multiplier first reaches m.
func CrashTimeToReach(m float64, mode CrashMode) float64 {
	if m <= 1.0 {
		return 0
	}
	return math.Log(m) * mode.timeScale()
}

// DrawCrashPoint draws the round's crash point: uniform in
// [1, maxMultiplier], scaled by (1 - houseEdge), clamped to
// [1.01, maxMultiplier].
func DrawCrashPoint(src RandomSource, maxMultiplier, houseEdge float64) float64 {
	raw := 1.0 + src.Float64()*(maxMultiplier-1.0)
	point := raw * (1.0 - houseEdge)
	return clampFloat(point, CrashMinPoint, maxMultiplier)
}

// ValidateAutoCashout checks an optional auto-cashout threshold. Zero means
// no auto-cashout.
func ValidateAutoCashout(threshold, maxMultiplier float64) error {
	if threshold == 0 {
		return nil
	}
	if threshold < CrashMinPoint || threshold > maxMultiplier {
		return fmt.Errorf("auto cashout must be %.2f-%.2f, got %.2f", CrashMinPoint, maxMultiplier, threshold)
	}
	return nil
}
