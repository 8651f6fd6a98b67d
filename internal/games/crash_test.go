package games

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrashMultiplierAt(t *testing.T) {
	t.Run("starts at 1", func(t *testing.T) {
		assert.Equal(t, 1.0, CrashMultiplierAt(0, CrashModeNormal))
		assert.Equal(t, 1.0, CrashMultiplierAt(-3, CrashModeNormal))
	})

	t.Run("follows e to the t over 10", func(t *testing.T) {
		for _, elapsed := range []float64{0.5, 1, 5, 10, 23.7} {
			assert.InDelta(t, math.Exp(elapsed/10), CrashMultiplierAt(elapsed, CrashModeNormal), 1e-12)
		}
	})

	t.Run("turbo doubles the exponent", func(t *testing.T) {
		for _, elapsed := range []float64{1, 5, 10} {
			assert.InDelta(t, math.Exp(elapsed/5), CrashMultiplierAt(elapsed, CrashModeTurbo), 1e-12)
		}
	})

	t.Run("monotone increasing", func(t *testing.T) {
		prev := 0.0
		for elapsed := 0.0; elapsed <= 60; elapsed += 0.25 {
			m := CrashMultiplierAt(elapsed, CrashModeNormal)
			assert.Greater(t, m, prev)
			prev = m
		}
	})
}

func TestCrashTimeToReach(t *testing.T) {
	for _, mode := range []CrashMode{CrashModeNormal, CrashModeTurbo} {
		for _, mult := range []float64{1.01, 2, 10, 99.5} {
			elapsed := CrashTimeToReach(mult, mode)
			assert.InDelta(t, mult, CrashMultiplierAt(elapsed, mode), 1e-9, "mode=%s mult=%v", mode, mult)
		}
	}
	assert.Equal(t, 0.0, CrashTimeToReach(1.0, CrashModeNormal))
	assert.Equal(t, 0.0, CrashTimeToReach(0.5, CrashModeNormal))
}

func TestParseCrashMode(t *testing.T) {
	mode, err := ParseCrashMode("")
	require.NoError(t, err)
	assert.Equal(t, CrashModeNormal, mode)

	mode, err = ParseCrashMode("turbo")
	require.NoError(t, err)
	assert.Equal(t, CrashModeTurbo, mode)

	_, err = ParseCrashMode("hyper")
	require.Error(t, err)
}

func TestDrawCrashPoint(t *testing.T) {
	const (
		maxMult = 100.0
		edge    = 0.04
	)

	t.Run("stays inside the clamp", func(t *testing.T) {
		for i := 0; i < 5000; i++ {
			p := DrawCrashPoint(testSource(fmt.Sprintf("crash-%d", i)), maxMult, edge)
			assert.GreaterOrEqual(t, p, CrashMinPoint)
			assert.LessOrEqual(t, p, maxMult)
		}
	})

	t.Run("house edge shifts the draw", func(t *testing.T) {
		src := testSource("edge-check")
		u := src.Float64()
		raw := 1.0 + u*(maxMult-1.0)
		want := clampFloat(raw*(1-edge), CrashMinPoint, maxMult)

		got := DrawCrashPoint(testSource("edge-check"), maxMult, edge)
		assert.InDelta(t, want, got, 1e-12)
	})

	t.Run("deterministic per seed", func(t *testing.T) {
		a := DrawCrashPoint(testSource("round-9"), maxMult, edge)
		b := DrawCrashPoint(testSource("round-9"), maxMult, edge)
		c := DrawCrashPoint(testSource("round-10"), maxMult, edge)
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, c)
	})

	t.Run("low draws clamp up to the floor", func(t *testing.T) {
		// Scan seeds until a raw draw lands below the floor after the edge
		// cut, then check the clamp held.
		found := false
		for i := 0; i < 20000 && !found; i++ {
			tag := fmt.Sprintf("low-%d", i)
			u := testSource(tag).Float64()
			raw := (1.0 + u*(maxMult-1.0)) * (1 - edge)
			if raw < CrashMinPoint {
				found = true
				assert.Equal(t, CrashMinPoint, DrawCrashPoint(testSource(tag), maxMult, edge))
			}
		}
		assert.True(t, found, "expected at least one sub-floor draw in 20k samples")
	})
}

func TestValidateAutoCashout(t *testing.T) {
	require.NoError(t, ValidateAutoCashout(0, 100))
	require.NoError(t, ValidateAutoCashout(1.5, 100))
	require.NoError(t, ValidateAutoCashout(100, 100))
	require.Error(t, ValidateAutoCashout(1.005, 100))
	require.Error(t, ValidateAutoCashout(101, 100))
	require.Error(t, ValidateAutoCashout(-2, 100))
}
