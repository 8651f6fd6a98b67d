package games

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// ServerSeedSize is the byte length of a fairness server seed.
const ServerSeedSize = 32

// NewServerSeed draws a fresh server seed from crypto/rand, folding any
// extra entropy (an external beacon, for instance) into the result. The
// fold is a hash so a weak or adversarial extra input can never reduce the
// seed below crypto/rand strength.
func NewServerSeed(extra ...[]byte) ([]byte, error) {
	seed := make([]byte, ServerSeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	if len(extra) == 0 {
		return seed, nil
	}
	h := sha256.New()
	h.Write(seed)
	for _, e := range extra {
		h.Write(e)
	}
	return h.Sum(nil), nil
}

// Commitment returns the value published to the player before the round:
// the hex SHA-256 of the server seed. Revealing the seed after settlement
// lets the player check the commitment and replay the outcome.
func Commitment(serverSeed []byte) string {
	sum := sha256.Sum256(serverSeed)
	return hex.EncodeToString(sum[:])
}

// VerifyCommitment checks a revealed seed against a published commitment.
func VerifyCommitment(commitment string, serverSeed []byte) bool {
	want, err := hex.DecodeString(commitment)
	if err != nil || len(want) != sha256.Size {
		return false
	}
	sum := sha256.Sum256(serverSeed)
	return subtle.ConstantTimeCompare(sum[:], want) == 1
}

// FairSource is a deterministic RandomSource derived from
// (serverSeed, clientSeed, nonce). The stream is HMAC-SHA256 in counter
// mode keyed by the server seed, so the same triple always replays the
// same outcome and nothing about the stream is predictable without the
// server seed.
type FairSource struct {
	mac func() []byte
	buf []byte
}

// NewFairSource builds the outcome stream for one round.
func NewFairSource(serverSeed []byte, clientSeed string, nonce int64) *FairSource {
	prefix := fmt.Sprintf("%s:%d:", clientSeed, nonce)
	var counter uint64
	f := &FairSource{}
	f.mac = func() []byte {
		mac := hmac.New(sha256.New, serverSeed)
		mac.Write([]byte(prefix))
		var cb [8]byte
		binary.BigEndian.PutUint64(cb[:], counter)
		counter++
		mac.Write(cb[:])
		return mac.Sum(nil)
	}
	return f
}

func (f *FairSource) next8() []byte {
	if len(f.buf) < 8 {
		f.buf = append(f.buf, f.mac()...)
	}
	out := f.buf[:8]
	f.buf = f.buf[8:]
	return out
}

func (f *FairSource) uint64() uint64 {
	return binary.BigEndian.Uint64(f.next8())
}

func (f *FairSource) Float64() float64 {
	return float64(f.uint64()>>11) / (1 << 53)
}

func (f *FairSource) Intn(n int) int {
	if n <= 0 {
		panic("games: Intn with non-positive n")
	}
	return int(uniformUint64(f.uint64, uint64(n)))
}
