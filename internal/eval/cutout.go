package eval

import (
	"fmt"

	"github.com/hailam/tetrisplay/internal/board"
)

// cutout is the outcome of spinning a T into a slot on a scratch board.
// next is set only for doubles and triples, whose board may hold
// another slot.
type cutout struct {
	lines int
	next  *board.Board
}

// cutoutSlot locks p as a full T-spin on a clone of b.
func cutoutSlot(b *board.Board, p board.FallingPiece) cutout {
	scratch := b.Clone()
	p.Tspin = board.TspinFull
	res := scratch.LockPiece(p)

	switch res.PlacementKind {
	case board.Tspin:
		return cutout{lines: 0}
	case board.Tspin1:
		return cutout{lines: 1}
	case board.Tspin2:
		return cutout{lines: 2, next: scratch}
	case board.Tspin3:
		return cutout{lines: 3, next: scratch}
	}
	panic(fmt.Sprintf("eval: cutout of %v locked as %v", p, res.PlacementKind))
}

// tAvailability is how many T pieces the slot chain may spend.
func (w *Weights) tAvailability(b *board.Board) int {
	held := 0
	if b.HoldPiece() == board.T {
		held = 1
	}
	if !w.UseBag {
		return 1 + held
	}
	n := held
	bag := b.NextBag()
	if bag.Contains(board.T) {
		n++
	}
	if bag.Len() <= 3 {
		n++
	}
	return n
}

// slotChain is the state folded over the T-slot search.
type slotChain struct {
	remaining int
	board     *board.Board
	bonus     int
	steps     int
}

// step finds and cuts out one slot. done is true when the chain ends.
func (w *Weights) step(c slotChain) (next slotChain, done bool) {
	if c.remaining <= 0 {
		return c, true
	}
	loc, ok := FindTslot(c.board)
	if !ok {
		return c, true
	}
	cut := cutoutSlot(c.board, loc)
	c.bonus += w.Tslot[cut.lines]
	c.steps++
	c.remaining--
	if cut.next == nil {
		return c, true
	}
	c.board = cut.next
	return c, false
}

// TslotBonus runs the slot chain on b and returns the summed bonus and
// the number of slots cut out. b is not modified.
func (w *Weights) TslotBonus(b *board.Board) (bonus, steps int) {
	c := slotChain{remaining: w.tAvailability(b), board: b}
	for done := false; !done; {
		c, done = w.step(c)
	}
	return c.bonus, c.steps
}
