package board

import (
	"math/bits"
	"strings"
)

// Board dimensions. Rows above the visible 20 are the spawn buffer.
const (
	Width  = 10
	Height = 40
)

const fullRow uint16 = 1<<Width - 1

// Board is the playfield plus the bag, hold and chain state that
// affect how a placement is scored.
type Board struct {
	rows    [Height]uint16
	heights [Width]int

	Bag   PieceSet // pieces still to come out of the current bag
	Hold  Piece
	B2B   bool
	Combo int
	Queue []Piece // visible next pieces, front first
}

// New returns an empty board with a full bag and no hold piece.
func New() *Board {
	return &Board{Bag: AllPieces, Hold: NoPiece}
}

// Occupied reports whether (x, y) is blocked. Cells beside the walls and
// below the floor are always blocked; cells above the top are always free.
func (b *Board) Occupied(x, y int) bool {
	if x < 0 || x >= Width || y < 0 {
		return true
	}
	if y >= Height {
		return false
	}
	return b.rows[y]&(1<<x) != 0
}

// Set marks or clears one cell and keeps the height cache current.
func (b *Board) Set(x, y int, filled bool) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	if filled {
		b.rows[y] |= 1 << x
	} else {
		b.rows[y] &^= 1 << x
	}
	b.recomputeHeight(x)
}

// Row returns the occupancy bits of row y, bit x set for column x.
func (b *Board) Row(y int) uint16 {
	if y < 0 || y >= Height {
		return 0
	}
	return b.rows[y]
}

// ColumnHeights returns one plus the highest filled row per column,
// 0 for an empty column.
func (b *Board) ColumnHeights() [Width]int {
	return b.heights
}

// MaxHeight returns the tallest column height.
func (b *Board) MaxHeight() int {
	h := 0
	for _, c := range b.heights {
		if c > h {
			h = c
		}
	}
	return h
}

// NextBag returns the pieces remaining in the current bag.
func (b *Board) NextBag() PieceSet {
	return b.Bag
}

// HoldPiece returns the held piece, or NoPiece.
func (b *Board) HoldPiece() Piece {
	return b.Hold
}

// PopNext takes the first queued piece, or returns NoPiece.
func (b *Board) PopNext() Piece {
	if len(b.Queue) == 0 {
		return NoPiece
	}
	p := b.Queue[0]
	b.Queue = b.Queue[1:]
	return p
}

// IsEmpty reports whether no cell is occupied.
func (b *Board) IsEmpty() bool {
	for _, r := range b.rows {
		if r != 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	if b.Queue != nil {
		c.Queue = append([]Piece(nil), b.Queue...)
	}
	return &c
}

func (b *Board) recomputeHeight(x int) {
	for y := Height - 1; y >= 0; y-- {
		if b.rows[y]&(1<<x) != 0 {
			b.heights[x] = y + 1
			return
		}
	}
	b.heights[x] = 0
}

func (b *Board) recomputeHeights() {
	for x := 0; x < Width; x++ {
		b.recomputeHeight(x)
	}
}

// CountCells returns the number of occupied cells.
func (b *Board) CountCells() int {
	n := 0
	for _, r := range b.rows {
		n += bits.OnesCount16(r)
	}
	return n
}

// String renders the board top-down, trimmed to the stack, '#' for filled.
func (b *Board) String() string {
	var sb strings.Builder
	top := b.MaxHeight()
	if top == 0 {
		top = 1
	}
	for y := top - 1; y >= 0; y-- {
		for x := 0; x < Width; x++ {
			if b.Occupied(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FromRows builds a board from text rows given top-down, '#' or 'x' for
// filled cells. The last row is row 0.
func FromRows(lines ...string) *Board {
	b := New()
	for i, line := range lines {
		y := len(lines) - 1 - i
		for x, ch := range line {
			if x >= Width {
				break
			}
			if ch == '#' || ch == 'x' || ch == 'X' {
				b.rows[y] |= 1 << x
			}
		}
	}
	b.recomputeHeights()
	return b
}
