// Package eval scores boards for the placement search.
//
// A score has two parts. Accumulated rewards the lock that just happened
// (clears, spins, combo, perfect clear, time spent). Transient describes
// the resulting stack (height, bumpiness, holes, T-slot potential) and
// depends only on the board, which is what lets it be cached.
package eval

import "github.com/hailam/tetrisplay/internal/board"

// lineClearTime is added to the move time of any lock that clears lines.
const lineClearTime = 40

// Score is the split result of an evaluation.
type Score struct {
	Transient   int `json:"transient"`
	Accumulated int `json:"accumulated"`
}

// Total is the ranking value.
func (s Score) Total() int {
	return s.Transient + s.Accumulated
}

// Evaluate scores b, the board after a lock that produced lock. moveTime
// is the input count spent on the placement and placed the piece kind.
func (w *Weights) Evaluate(b *board.Board, lock board.LockResult, moveTime int, placed board.Piece) Score {
	return Score{
		Transient:   w.Transient(b),
		Accumulated: w.Accumulated(lock, moveTime, placed, b.MaxHeight()),
	}
}

// Accumulated scores the lock event. maxHeight is the tallest column of
// the resulting board, which feeds the jeopardy term.
func (w *Weights) Accumulated(lock board.LockResult, moveTime int, placed board.Piece, maxHeight int) int {
	if lock.PerfectClear {
		return w.PerfectClear
	}

	acc := 0
	if lock.B2B {
		acc += w.B2BClear
	}
	if lock.HasCombo {
		acc += w.ComboGarbage * board.ComboBonus(lock.Combo)
	}
	switch lock.PlacementKind {
	case board.Clear1:
		acc += w.Clear1
	case board.Clear2:
		acc += w.Clear2
	case board.Clear3:
		acc += w.Clear3
	case board.Clear4:
		acc += w.Clear4
	case board.Tspin1:
		acc += w.Tspin1
	case board.Tspin2:
		acc += w.Tspin2
	case board.Tspin3:
		acc += w.Tspin3
	case board.MiniTspin1:
		acc += w.MiniTspin1
	case board.MiniTspin2:
		acc += w.MiniTspin2
	}

	if placed == board.T && !lock.PlacementKind.IsTspin() {
		acc += w.WastedT
	}

	if lock.PlacementKind.IsClear() {
		moveTime += lineClearTime
	}
	acc += w.MoveTime * moveTime

	danger := 10
	if w.TimedJeopardy {
		danger = moveTime
	}
	acc += w.Jeopardy * max(maxHeight-10, 0) * danger / 10
	return acc
}

// Transient scores the shape of b. The pairing of weights and terms below
// is the one the presets were tuned against: the squared bumpiness reuses
// the linear weight, the squared cavity count is unweighted and the
// linear overhang count takes the squared-cavity weight.
func (w *Weights) Transient(b *board.Board) int {
	t := 0
	if b.B2B {
		t += w.BackToBack
	}

	heights := b.ColumnHeights()
	top := b.MaxHeight()
	t += w.TopQuarter * max(top-15, 0)
	t += w.TopHalf * max(top-10, 0)
	t += w.Height * top

	bump, bumpSq := Bumpiness(heights, LowestColumn(heights))
	t += w.Bumpiness * bump
	t += w.Bumpiness * bumpSq

	cavities, overhangs := CavitiesAndOverhangs(b)
	t += cavities * w.CavityCells
	t += cavities * cavities
	t += overhangs * w.CavityCellsSq
	t += overhangs * overhangs * w.OverhangCellsSq

	covered, coveredSq := CoveredCells(b)
	t += covered * w.CoveredCells
	t += coveredSq * w.CoveredCellsSq

	bonus, _ := w.TslotBonus(b)
	return t + bonus
}
