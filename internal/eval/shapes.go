package eval

import "github.com/hailam/tetrisplay/internal/board"

// shape is one T-slot setup, matched over a window of column heights.
//
// The template is read top-down starting at row h[anchor]+startDY, one
// row lower per line. Within a line, character i checks column x+i:
// '#' must be filled, '.' must be empty, '?' is not checked. On a match
// the T is placed at (x+dx, h[anchor]+dy) facing rot.
type shape struct {
	name     string
	window   int
	fits     func(b *board.Board, x int, h []int) bool
	anchor   int
	startDY  int
	template []string
	dx, dy   int
	rot      board.Rotation
}

var (
	skyLeft = shape{
		name:   "sky-left",
		window: 3,
		fits: func(_ *board.Board, _ int, h []int) bool {
			return h[1] <= h[0]-1
		},
		anchor:  0,
		startDY: 1,
		template: []string{
			"??#",
			"??.",
			"??#",
		},
		dx: 1, dy: 0, rot: board.South,
	}

	skyRight = shape{
		name:   "sky-right",
		window: 3,
		fits: func(_ *board.Board, _ int, h []int) bool {
			return h[1] <= h[2]-1
		},
		anchor:  2,
		startDY: 1,
		template: []string{
			"#",
			".",
			"#",
		},
		dx: 1, dy: 0, rot: board.South,
	}

	tstLeft = shape{
		name:   "tst-left",
		window: 3,
		fits: func(b *board.Board, x int, h []int) bool {
			return h[0] <= h[1] && b.Occupied(x-1, h[1]) == b.Occupied(x-1, h[1]+1)
		},
		anchor:  1,
		startDY: 1,
		template: []string{
			"??#",
			"??.",
			"??.",
			"?..",
			"??.",
		},
		dx: 2, dy: -2, rot: board.West,
	}

	tstRight = shape{
		name:   "tst-right",
		window: 3,
		fits: func(b *board.Board, x int, h []int) bool {
			return h[2] <= h[1] && b.Occupied(x+3, h[1]) == b.Occupied(x+3, h[1]+1)
		},
		anchor:  1,
		startDY: 1,
		template: []string{
			"#",
			".",
			".",
			"..",
			".",
		},
		dx: 0, dy: -2, rot: board.East,
	}

	finLeft = shape{
		name:   "fin-left",
		window: 4,
		fits: func(_ *board.Board, _ int, h []int) bool {
			return h[0] <= h[1]+1
		},
		anchor:  1,
		startDY: 2,
		template: []string{
			"??##",
			"??..",
			"??..#",
			"??..",
			"??#.#",
		},
		dx: 3, dy: -1, rot: board.West,
	}

	finRight = shape{
		name:   "fin-right",
		window: 4,
		fits: func(b *board.Board, x int, h []int) bool {
			return h[3] <= h[2]+1 && b.Occupied(x-1, h[2]) && b.Occupied(x-1, h[2]-2)
		},
		anchor:  2,
		startDY: 2,
		template: []string{
			"##",
			"..",
			"..",
			"..",
			".#",
		},
		dx: 0, dy: -1, rot: board.East,
	}
)

// match slides the window left to right and returns the T placement of
// the first position whose heights and template both match.
func (s *shape) match(b *board.Board) (board.FallingPiece, bool) {
	heights := b.ColumnHeights()
	for x := 0; x+s.window <= board.Width; x++ {
		h := heights[x : x+s.window]
		if !s.fits(b, x, h) {
			continue
		}
		if !s.templateMatches(b, x, h[s.anchor]+s.startDY) {
			continue
		}
		return board.FallingPiece{
			Kind: board.T,
			Rot:  s.rot,
			X:    x + s.dx,
			Y:    h[s.anchor] + s.dy,
		}, true
	}
	return board.FallingPiece{}, false
}

func (s *shape) templateMatches(b *board.Board, x, y int) bool {
	for _, row := range s.template {
		for i := 0; i < len(row); i++ {
			switch row[i] {
			case '#':
				if !b.Occupied(x+i, y) {
					return false
				}
			case '.':
				if b.Occupied(x+i, y) {
					return false
				}
			}
		}
		y--
	}
	return true
}

// caveSlot refines a TST seed: the T is dropped straight down and the
// surroundings are checked for a cave it could be spun into, either in
// place or one column over and one row down.
func caveSlot(b *board.Board, seed board.FallingPiece) (board.FallingPiece, bool) {
	seed.SonicDrop(b)
	x, y := seed.X, seed.Y
	occ := b.Occupied
	south := func(x, y int) (board.FallingPiece, bool) {
		return board.FallingPiece{Kind: board.T, Rot: board.South, X: x, Y: y}, true
	}

	switch seed.Rot {
	case board.East:
		if !occ(x-1, y) && occ(x-1, y-1) && occ(x+1, y-1) && occ(x-1, y+1) {
			return south(x, y)
		}
		if !occ(x+1, y-1) && !occ(x+2, y-1) && !occ(x+1, y-2) &&
			occ(x-1, y) && occ(x+2, y) && occ(x, y-2) && occ(x+2, y-2) {
			return south(x+1, y-1)
		}
	case board.West:
		if !occ(x+1, y) && occ(x+1, y+1) && occ(x+1, y-1) && occ(x-1, y-1) {
			return south(x, y)
		}
		if !occ(x-1, y-1) && !occ(x-2, y-1) && !occ(x-1, y-2) &&
			occ(x+1, y) && occ(x-2, y) && occ(x-2, y-2) && occ(x, y-2) {
			return south(x-1, y-1)
		}
	}
	return board.FallingPiece{}, false
}

// twistSlot tries the TST shapes, left before right. A seed that is not
// a cave is still taken when three of its corners are filled and it
// rests on the stack.
func twistSlot(b *board.Board) (board.FallingPiece, bool) {
	seed, ok := tstLeft.match(b)
	if !ok {
		seed, ok = tstRight.match(b)
	}
	if !ok {
		return board.FallingPiece{}, false
	}
	if cave, ok := caveSlot(b, seed); ok {
		return cave, true
	}
	if board.CornerCount(b, seed.X, seed.Y) >= 3 && seed.OnStack(b) {
		return seed, true
	}
	return board.FallingPiece{}, false
}

// FindTslot returns the first T-slot found, trying sky slots, then twist
// and cave slots, then fins.
func FindTslot(b *board.Board) (board.FallingPiece, bool) {
	if p, ok := skyLeft.match(b); ok {
		return p, true
	}
	if p, ok := skyRight.match(b); ok {
		return p, true
	}
	if p, ok := twistSlot(b); ok {
		return p, true
	}
	if p, ok := finLeft.match(b); ok {
		return p, true
	}
	return finRight.match(b)
}
