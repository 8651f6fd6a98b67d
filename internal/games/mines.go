package games

import (
	"fmt"
	"sort"
)

// Grid and multiplier bounds for the mines game.
const (
	MinGridSize        = 3
	MaxGridSize        = 8
	MinesMaxMultiplier = 1000.0
)

// ValidateMinesParams checks grid size and mine count bounds: the grid edge
// is 3-8 and 1 <= mines < gridSize².
func ValidateMinesParams(gridSize, mineCount int) error {
	if gridSize < MinGridSize || gridSize > MaxGridSize {
		return fmt.Errorf("grid size must be %d-%d, got %d", MinGridSize, MaxGridSize, gridSize)
	}
	cells := gridSize * gridSize
	if mineCount < 1 || mineCount >= cells {
		return fmt.Errorf("mine count must be 1-%d for a %dx%d grid, got %d", cells-1, gridSize, gridSize, mineCount)
	}
	return nil
}

// PlaceMines draws mineCount distinct cells uniformly from the
// gridSize×gridSize board. The returned cells are sorted; positions index
// the board row-major from zero.
func PlaceMines(src RandomSource, gridSize, mineCount int) []int {
	cells := gridSize * gridSize
	deck := make([]int, cells)
	for i := range deck {
		deck[i] = i
	}
	// Partial Fisher-Yates: the first mineCount entries end up a uniform
	// distinct sample.
	for i := 0; i < mineCount; i++ {
		j := i + src.Intn(cells-i)
		deck[i], deck[j] = deck[j], deck[i]
	}
	mines := deck[:mineCount]
	sort.Ints(mines)
	return mines
}

// MinesMultiplier computes the cash-out multiplier after revealedSafe safe
// reveals: 1 / (1 - k/(cells-mines)), clamped to [1, 1000]. Revealing every
// safe cell rides the clamp (the raw formula diverges there).
func MinesMultiplier(revealedSafe, gridSize, mineCount int) float64 {
	safeCells := gridSize*gridSize - mineCount
	if revealedSafe <= 0 {
		return 1.0
	}
	if revealedSafe >= safeCells {
		return MinesMaxMultiplier
	}
	m := 1.0 / (1.0 - float64(revealedSafe)/float64(safeCells))
	return clampFloat(m, 1.0, MinesMaxMultiplier)
}
