package games

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerSeed(t *testing.T) {
	t.Run("fresh seeds differ", func(t *testing.T) {
		a, err := NewServerSeed()
		require.NoError(t, err)
		b, err := NewServerSeed()
		require.NoError(t, err)

		assert.Len(t, a, ServerSeedSize)
		assert.NotEqual(t, a, b)
	})

	t.Run("extra entropy changes the seed but not its size", func(t *testing.T) {
		seed, err := NewServerSeed([]byte("beacon-bytes"), []byte("more"))
		require.NoError(t, err)
		assert.Len(t, seed, ServerSeedSize)
	})
}

func TestCommitment(t *testing.T) {
	seed := []byte("0123456789abcdef0123456789abcdef")
	c := Commitment(seed)

	assert.Len(t, c, 64)
	assert.Equal(t, strings.ToLower(c), c)
	assert.True(t, VerifyCommitment(c, seed))
	assert.False(t, VerifyCommitment(c, []byte("another-seed-another-seed-anothe")))
	assert.False(t, VerifyCommitment("zz", seed))
	assert.False(t, VerifyCommitment("", seed))

	// Commitments are stable: the client stores one at placement and
	// checks it after the reveal.
	assert.Equal(t, c, Commitment(seed))
}

func TestFairSourceDeterminism(t *testing.T) {
	seed := []byte("0123456789abcdef0123456789abcdef")

	a := NewFairSource(seed, "client", 7)
	b := NewFairSource(seed, "client", 7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64(), "draw %d diverged", i)
	}

	t.Run("nonce separates streams", func(t *testing.T) {
		x := NewFairSource(seed, "client", 7)
		y := NewFairSource(seed, "client", 8)
		same := true
		for i := 0; i < 10; i++ {
			if x.Float64() != y.Float64() {
				same = false
				break
			}
		}
		assert.False(t, same)
	})

	t.Run("client seed separates streams", func(t *testing.T) {
		x := NewFairSource(seed, "alice", 1)
		y := NewFairSource(seed, "bob", 1)
		assert.NotEqual(t, x.Float64(), y.Float64())
	})

	t.Run("server seed separates streams", func(t *testing.T) {
		x := NewFairSource(seed, "client", 1)
		y := NewFairSource([]byte("fedcba9876543210fedcba9876543210"), "client", 1)
		assert.NotEqual(t, x.Float64(), y.Float64())
	})
}

func TestFairSourceRanges(t *testing.T) {
	src := NewFairSource([]byte("0123456789abcdef0123456789abcdef"), "ranges", 1)

	for i := 0; i < 1000; i++ {
		f := src.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}

	counts := make(map[int]int)
	for i := 0; i < 1000; i++ {
		v := src.Intn(5)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 5)
		counts[v]++
	}
	// Every residue should appear; a missing one means the stream is stuck.
	for v := 0; v < 5; v++ {
		assert.Greater(t, counts[v], 0, "value %d never drawn", v)
	}

	assert.Panics(t, func() { src.Intn(0) })
}

func TestCryptoSource(t *testing.T) {
	src := NewCryptoSource()

	for i := 0; i < 100; i++ {
		f := src.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}

	for i := 0; i < 100; i++ {
		v := src.Intn(10)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 10)
	}

	assert.Panics(t, func() { src.Intn(-1) })
}
