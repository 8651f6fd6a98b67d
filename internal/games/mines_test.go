package games

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource(tag string) *FairSource {
	seed := []byte("0123456789abcdef0123456789abcdef")
	return NewFairSource(seed, tag, 1)
}

func TestValidateMinesParams(t *testing.T) {
	tests := []struct {
		name      string
		gridSize  int
		mineCount int
		wantErr   bool
	}{
		{name: "smallest board", gridSize: 3, mineCount: 1, wantErr: false},
		{name: "largest board", gridSize: 8, mineCount: 63, wantErr: false},
		{name: "typical", gridSize: 5, mineCount: 5, wantErr: false},
		{name: "grid too small", gridSize: 2, mineCount: 1, wantErr: true},
		{name: "grid too large", gridSize: 9, mineCount: 5, wantErr: true},
		{name: "zero mines", gridSize: 5, mineCount: 0, wantErr: true},
		{name: "all cells mined", gridSize: 4, mineCount: 16, wantErr: true},
		{name: "more mines than cells", gridSize: 3, mineCount: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMinesParams(tt.gridSize, tt.mineCount)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPlaceMinesDistinctAndInRange(t *testing.T) {
	for gridSize := MinGridSize; gridSize <= MaxGridSize; gridSize++ {
		cells := gridSize * gridSize
		for _, mineCount := range []int{1, cells / 2, cells - 1} {
			src := testSource(fmt.Sprintf("mines-%d-%d", gridSize, mineCount))
			mines := PlaceMines(src, gridSize, mineCount)

			require.Len(t, mines, mineCount, "grid %d mines %d", gridSize, mineCount)
			seen := make(map[int]bool, mineCount)
			for _, m := range mines {
				assert.GreaterOrEqual(t, m, 0)
				assert.Less(t, m, cells)
				assert.False(t, seen[m], "duplicate mine at %d", m)
				seen[m] = true
			}
		}
	}
}

func TestPlaceMinesDeterministicPerSeed(t *testing.T) {
	a := PlaceMines(testSource("round"), 6, 8)
	b := PlaceMines(testSource("round"), 6, 8)
	c := PlaceMines(testSource("other-round"), 6, 8)

	assert.Equal(t, a, b, "same seed must replay the same placement")
	assert.NotEqual(t, a, c, "different client seed should move the mines")
}

func TestMinesMultiplier(t *testing.T) {
	t.Run("matches the closed form", func(t *testing.T) {
		for gridSize := MinGridSize; gridSize <= MaxGridSize; gridSize++ {
			cells := gridSize * gridSize
			for mineCount := 1; mineCount < cells; mineCount++ {
				safe := cells - mineCount
				for k := 1; k < safe; k++ {
					want := 1.0 / (1.0 - float64(k)/float64(safe))
					if want > MinesMaxMultiplier {
						want = MinesMaxMultiplier
					}
					got := MinesMultiplier(k, gridSize, mineCount)
					assert.InDelta(t, want, got, 1e-12, "N=%d M=%d k=%d", gridSize, mineCount, k)
				}
			}
		}
	})

	t.Run("zero reveals pay even", func(t *testing.T) {
		assert.Equal(t, 1.0, MinesMultiplier(0, 5, 5))
	})

	t.Run("final safe cell rides the clamp", func(t *testing.T) {
		assert.Equal(t, MinesMaxMultiplier, MinesMultiplier(20, 5, 5))
		assert.Equal(t, MinesMaxMultiplier, MinesMultiplier(1, 3, 8))
	})

	t.Run("never exceeds the cap", func(t *testing.T) {
		for k := 0; k <= 63; k++ {
			assert.LessOrEqual(t, MinesMultiplier(k, 8, 1), MinesMaxMultiplier)
		}
	})

	t.Run("monotone in reveals", func(t *testing.T) {
		prev := 0.0
		for k := 0; k <= 20; k++ {
			m := MinesMultiplier(k, 5, 5)
			assert.Greater(t, m, prev-1e-15)
			prev = m
		}
	})
}

func TestMinesCashOutEndToEnd(t *testing.T) {
	// stake 100 on a 5x5 grid with 5 mines, one safe reveal: the
	// multiplier is 1/(1-1/20) = 20/19 and the payout floors to 105.
	m := MinesMultiplier(1, 5, 5)
	assert.InDelta(t, 20.0/19.0, m, 1e-12)
	assert.Equal(t, int64(105), Payout(100, m))
}

func TestPayout(t *testing.T) {
	tests := []struct {
		stake      int64
		multiplier float64
		want       int64
	}{
		{stake: 100, multiplier: 1.0, want: 100},
		{stake: 100, multiplier: 2.5, want: 250},
		{stake: 100, multiplier: 1.999, want: 199},
		{stake: 3, multiplier: 0.5, want: 1},
		{stake: 0, multiplier: 10, want: 0},
		{stake: 100, multiplier: 0, want: 0},
		{stake: 1000000000, multiplier: 29, want: 29000000000},
	}

	for _, tt := range tests {
		got := Payout(tt.stake, tt.multiplier)
		assert.Equal(t, tt.want, got, "stake=%d mult=%v", tt.stake, tt.multiplier)
		assert.LessOrEqual(t, float64(got), float64(tt.stake)*tt.multiplier+1e-9, "payout must round down")
	}

	if math.Floor(100*(20.0/19.0)) != 105 {
		t.Fatal("floor identity drifted")
	}
}
