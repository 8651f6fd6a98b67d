package games

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlinkoTables(t *testing.T) {
	for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
		t.Run(string(risk), func(t *testing.T) {
			table := PlinkoTable(risk)

			require.Len(t, table, plinkoBuckets)
			assert.Equal(t, 1, len(table)%2, "table length must be odd")

			center := len(table) / 2
			assert.Less(t, table[center], 1.0, "center slot must pay under 1x")

			edge := table[0]
			for i, v := range table {
				assert.Equal(t, table[len(table)-1-i], v, "slot %d breaks symmetry", i)
				assert.LessOrEqual(t, v, edge, "edges must be the maximum")
				assert.Greater(t, v, 0.0)
			}
		})
	}

	// The high tier carries the advertised top multiplier.
	assert.Equal(t, 29.0, PlinkoTable(RiskHigh)[0])
}

func TestParseRisk(t *testing.T) {
	r, err := ParseRisk("medium")
	require.NoError(t, err)
	assert.Equal(t, RiskMedium, r)

	_, err = ParseRisk("extreme")
	require.Error(t, err)
}

func TestValidateDropParams(t *testing.T) {
	require.NoError(t, ValidateDropParams(8))
	require.NoError(t, ValidateDropParams(16))
	require.Error(t, ValidateDropParams(7))
	require.Error(t, ValidateDropParams(17))
}

func TestBucketFor(t *testing.T) {
	for rows := MinPlinkoRows; rows <= MaxPlinkoRows; rows++ {
		assert.Equal(t, 0, bucketFor(0, rows), "rows=%d", rows)
		assert.Equal(t, plinkoBuckets-1, bucketFor(rows, rows), "rows=%d", rows)

		prev := -1
		for r := 0; r <= rows; r++ {
			b := bucketFor(r, rows)
			assert.GreaterOrEqual(t, b, 0)
			assert.Less(t, b, plinkoBuckets)
			assert.GreaterOrEqual(t, b, prev, "buckets must be monotone in rightward count")
			prev = b

			mirrored := bucketFor(rows-r, rows)
			assert.Equal(t, plinkoBuckets-1-b, mirrored, "rows=%d rights=%d breaks mirror", rows, r)
		}
	}

	// A 16-row board maps one-to-one onto the buckets.
	for r := 0; r <= 16; r++ {
		assert.Equal(t, r, bucketFor(r, 16))
	}
}

func TestDrop(t *testing.T) {
	t.Run("path length and slot bounds", func(t *testing.T) {
		for rows := MinPlinkoRows; rows <= MaxPlinkoRows; rows++ {
			src := testSource(fmt.Sprintf("plinko-%d", rows))
			path, slot := Drop(src, rows)

			require.Len(t, path, rows)
			rights := 0
			for _, step := range path {
				assert.Contains(t, []int{0, 1}, step)
				rights += step
			}
			assert.Equal(t, bucketFor(rights, rows), slot)
		}
	})

	t.Run("deterministic per seed", func(t *testing.T) {
		pathA, slotA := Drop(testSource("drop"), 12)
		pathB, slotB := Drop(testSource("drop"), 12)
		assert.Equal(t, pathA, pathB)
		assert.Equal(t, slotA, slotB)
	})

	t.Run("center-heavy over many drops", func(t *testing.T) {
		center := 0
		const n = 2000
		for i := 0; i < n; i++ {
			_, slot := Drop(testSource(fmt.Sprintf("dist-%d", i)), 16)
			if slot >= 6 && slot <= 10 {
				center++
			}
		}
		// The binomial mass inside +/-2 of center is ~73% at 16 rows;
		// anything above half catches a broken walk.
		assert.Greater(t, center, n/2, "distribution should concentrate at the center")
	})
}

func TestPlinkoMultiplier(t *testing.T) {
	assert.Equal(t, 29.0, PlinkoMultiplier(RiskHigh, 0))
	assert.Equal(t, 29.0, PlinkoMultiplier(RiskHigh, 16))
	assert.Equal(t, 0.2, PlinkoMultiplier(RiskHigh, 8))
	assert.Equal(t, 0.0, PlinkoMultiplier(RiskHigh, -1))
	assert.Equal(t, 0.0, PlinkoMultiplier(RiskHigh, 17))
}
