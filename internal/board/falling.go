package board

import "fmt"

// Cell is an (x, y) board coordinate. Row 0 is the floor.
type Cell struct {
	X, Y int
}

// northCells holds the SRS cell offsets of each piece facing North,
// relative to the rotation anchor.
var northCells = [7][4]Cell{
	I: {{-1, 0}, {0, 0}, {1, 0}, {2, 0}},
	O: {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	T: {{-1, 0}, {0, 0}, {1, 0}, {0, 1}},
	L: {{-1, 0}, {0, 0}, {1, 0}, {1, 1}},
	J: {{-1, 0}, {0, 0}, {1, 0}, {-1, 1}},
	S: {{-1, 0}, {0, 0}, {0, 1}, {1, 1}},
	Z: {{-1, 1}, {0, 1}, {0, 0}, {1, 0}},
}

// pieceCells is [piece][rotation] -> cell offsets, built at init by
// rotating the North offsets about the anchor.
var pieceCells [7][4][4]Cell

func init() {
	for p := I; p < NoPiece; p++ {
		for r := North; r <= West; r++ {
			for i, c := range northCells[p] {
				pieceCells[p][r][i] = rotateCell(c, r)
			}
		}
	}
}

func rotateCell(c Cell, r Rotation) Cell {
	switch r {
	case East:
		return Cell{c.Y, -c.X}
	case South:
		return Cell{-c.X, -c.Y}
	case West:
		return Cell{-c.Y, c.X}
	default:
		return c
	}
}

// FallingPiece is a piece with a facing and anchor position, plus the
// T-spin tag used when it locks.
type FallingPiece struct {
	Kind  Piece
	Rot   Rotation
	X, Y  int
	Tspin TspinStatus
}

// Cells returns the absolute board cells covered by the piece.
func (p FallingPiece) Cells() [4]Cell {
	var out [4]Cell
	for i, c := range pieceCells[p.Kind][p.Rot] {
		out[i] = Cell{p.X + c.X, p.Y + c.Y}
	}
	return out
}

// Collides reports whether any cell of p overlaps the board or its walls.
func (p FallingPiece) Collides(b *Board) bool {
	for _, c := range p.Cells() {
		if b.Occupied(c.X, c.Y) {
			return true
		}
	}
	return false
}

// Shift moves the piece by (dx, dy) if the target is free.
func (p *FallingPiece) Shift(b *Board, dx, dy int) bool {
	moved := *p
	moved.X += dx
	moved.Y += dy
	if moved.Collides(b) {
		return false
	}
	p.X, p.Y = moved.X, moved.Y
	p.Tspin = TspinNone
	return true
}

// SonicDrop moves the piece straight down until it rests.
// Returns true if the piece moved.
func (p *FallingPiece) SonicDrop(b *Board) bool {
	dropped := false
	for p.Shift(b, 0, -1) {
		dropped = true
	}
	return dropped
}

// OnStack reports whether the piece cannot move one row down.
func (p FallingPiece) OnStack(b *Board) bool {
	p.Y--
	return p.Collides(b)
}

// String returns a compact description such as "T South (4,1)".
func (p FallingPiece) String() string {
	return fmt.Sprintf("%s %s (%d,%d)", p.Kind, p.Rot, p.X, p.Y)
}
