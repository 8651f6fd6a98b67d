package games

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// RandomSource yields uniform randomness for outcome generation.
// Implementations must be safe to treat as a stream: repeated calls draw
// successive values.
type RandomSource interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Intn returns a uniform value in [0, n). Panics if n <= 0.
	Intn(n int) int
}

// CryptoSource draws from crypto/rand. It backs everything that is not tied
// to a fairness seed (and the seeds themselves).
type CryptoSource struct{}

// NewCryptoSource returns the process-wide CSPRNG source.
func NewCryptoSource() CryptoSource { return CryptoSource{} }

func (CryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	// 53-bit mantissa over [0,1)
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}

func (c CryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("games: Intn with non-positive n")
	}
	return int(uniformUint64(c.uint64, uint64(n)))
}

func (CryptoSource) uint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return binary.BigEndian.Uint64(buf[:])
}

// uniformUint64 maps a raw 64-bit stream onto [0, n) without modulo bias
// by rejection sampling the tail of the range.
func uniformUint64(next func() uint64, n uint64) uint64 {
	if n&(n-1) == 0 {
		return next() & (n - 1)
	}
	limit := ^uint64(0) - (^uint64(0) % n)
	for {
		v := next()
		if v < limit {
			return v % n
		}
	}
}
