package eval

import "github.com/hailam/tetrisplay/internal/board"

// Grid is the read side of a board: column heights and cell occupancy.
type Grid interface {
	ColumnHeights() [board.Width]int
	Occupied(x, y int) bool
}

// LowestColumn returns the well: the lowest column, the leftmost on ties.
func LowestColumn(heights [board.Width]int) int {
	well := 0
	for x := 1; x < board.Width; x++ {
		if heights[x] < heights[well] {
			well = x
		}
	}
	return well
}

// Bumpiness sums height steps between neighbouring columns, stepping over
// the well, as a linear and a squared total. Both totals start from -1
// and are returned as absolute values, so a flat stack scores 1.
func Bumpiness(heights [board.Width]int, well int) (bump, bumpSq int) {
	bump, bumpSq = -1, -1
	prev := 0
	if well == 0 {
		prev = 1
	}
	for i := 1; i < board.Width; i++ {
		if i == well {
			continue
		}
		dh := abs(heights[prev] - heights[i])
		bump += dh
		bumpSq += dh * dh
		prev = i
	}
	return abs(bump), abs(bumpSq)
}

// CavitiesAndOverhangs counts the empty cells under the surface. A cell
// whose neighbours drop away on one side within two columns is an
// overhang; anything else is a cavity.
func CavitiesAndOverhangs(g Grid) (cavities, overhangs int) {
	h := g.ColumnHeights()
	top := 0
	for _, c := range h {
		top = max(top, c)
	}
	for y := 0; y < top; y++ {
		for x := 0; x < board.Width; x++ {
			if g.Occupied(x, y) || y >= h[x] {
				continue
			}
			if x > 1 && h[x-1] <= y-1 && h[x-2] <= y {
				overhangs++
				continue
			}
			if x < 8 && h[x+1] <= y-1 && h[x+2] <= y {
				overhangs++
				continue
			}
			cavities++
		}
	}
	return cavities, overhangs
}

// CoveredCells weighs each hole by how many cells sit above it, capped
// at 6, as a linear and a squared total. The two rows under a column's
// top are not scanned.
func CoveredCells(g Grid) (covered, coveredSq int) {
	h := g.ColumnHeights()
	for x := 0; x < board.Width; x++ {
		for y := h[x] - 3; y >= 0; y-- {
			if g.Occupied(x, y) {
				continue
			}
			cells := min(6, h[x]-y-1)
			covered += cells
			coveredSq += cells * cells
		}
	}
	return covered, coveredSq
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
