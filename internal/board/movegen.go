package board

import (
	"fmt"
	"sort"
)

// Movement is a single controller input.
type Movement uint8

const (
	Left Movement = iota
	Right
	Cw
	Ccw
	SonicDrop
	HoldInput
)

var movementNames = [...]string{"Left", "Right", "Cw", "Ccw", "SonicDrop", "Hold"}

func (m Movement) String() string {
	if int(m) < len(movementNames) {
		return movementNames[m]
	}
	return "Unknown"
}

// MarshalText encodes the input by name.
func (m Movement) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes an input name.
func (m *Movement) UnmarshalText(text []byte) error {
	for i, name := range movementNames {
		if name == string(text) {
			*m = Movement(i)
			return nil
		}
	}
	return fmt.Errorf("unknown movement %q", text)
}

// Placement is a reachable resting position and the inputs that reach it.
type Placement struct {
	Location FallingPiece
	Inputs   []Movement
	MoveTime int
}

// Spawn returns the piece at its spawn position: x=4 facing North on
// row 19, or row 20 if row 19 is blocked. ok is false when both are.
func Spawn(b *Board, kind Piece) (FallingPiece, bool) {
	p := FallingPiece{Kind: kind, Rot: North, X: 4, Y: 19}
	if !p.Collides(b) {
		return p, true
	}
	p.Y = 20
	if !p.Collides(b) {
		return p, true
	}
	return p, false
}

type rotationPath struct {
	rot    Rotation
	inputs []Movement
}

// Rotations tried at spawn, fewest inputs first. No kicks are applied.
var rotationPaths = []rotationPath{
	{North, nil},
	{East, []Movement{Cw}},
	{West, []Movement{Ccw}},
	{South, []Movement{Cw, Cw}},
}

type placementKey struct {
	cells [4]Cell
	tspin TspinStatus
}

func keyOf(p FallingPiece) placementKey {
	cells := p.Cells()
	sort.Slice(cells[:], func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})
	return placementKey{cells: cells, tspin: p.Tspin}
}

// FindPlacements enumerates the placements reachable from spawn by
// rotating in place, shifting sideways and sonic dropping. A T piece may
// additionally turn once after the drop, which can make it a T-spin.
// Placements that fill the same cells are reported once, with the
// shortest input sequence found first.
func FindPlacements(b *Board, kind Piece) []Placement {
	spawn, ok := Spawn(b, kind)
	if !ok {
		return nil
	}

	seen := make(map[placementKey]bool)
	var out []Placement
	add := func(p FallingPiece, inputs []Movement) {
		k := keyOf(p)
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, Placement{
			Location: p,
			Inputs:   inputs,
			MoveTime: len(inputs),
		})
	}

	for _, path := range rotationPaths {
		start := spawn
		start.Rot = path.rot
		if start.Collides(b) {
			continue
		}
		for _, dir := range []int{0, -1, 1} {
			p := start
			var shifts []Movement
			for {
				if dir != 0 {
					if !p.Shift(b, dir, 0) {
						break
					}
					if dir < 0 {
						shifts = append(shifts, Left)
					} else {
						shifts = append(shifts, Right)
					}
				}
				dropped := p
				dropped.SonicDrop(b)
				inputs := make([]Movement, 0, len(path.inputs)+len(shifts)+2)
				inputs = append(inputs, path.inputs...)
				inputs = append(inputs, shifts...)
				inputs = append(inputs, SonicDrop)
				add(dropped, inputs)
				if kind == T {
					for _, spin := range []Movement{Cw, Ccw} {
						if spun, ok := spinInPlace(b, dropped, spin); ok {
							add(spun, append(append([]Movement(nil), inputs...), spin))
						}
					}
				}
				if dir == 0 {
					break
				}
			}
		}
	}
	return out
}

// spinInPlace turns a resting T without kicks and tags it by the
// three-corner rule.
func spinInPlace(b *Board, p FallingPiece, spin Movement) (FallingPiece, bool) {
	if spin == Cw {
		p.Rot = p.Rot.Cw()
	} else {
		p.Rot = p.Rot.Ccw()
	}
	if p.Collides(b) || !p.OnStack(b) {
		return p, false
	}
	p.Tspin = ThreeCornerStatus(b, p)
	return p, true
}

// ThreeCornerStatus classifies a T by its occupied diagonal corners:
// three or more is a spin, Full when both corners it points at are filled.
func ThreeCornerStatus(b *Board, p FallingPiece) TspinStatus {
	if p.Kind != T {
		return TspinNone
	}
	if CornerCount(b, p.X, p.Y) < 3 {
		return TspinNone
	}
	var front [2]Cell
	switch p.Rot {
	case North:
		front = [2]Cell{{p.X - 1, p.Y + 1}, {p.X + 1, p.Y + 1}}
	case East:
		front = [2]Cell{{p.X + 1, p.Y + 1}, {p.X + 1, p.Y - 1}}
	case South:
		front = [2]Cell{{p.X - 1, p.Y - 1}, {p.X + 1, p.Y - 1}}
	default:
		front = [2]Cell{{p.X - 1, p.Y + 1}, {p.X - 1, p.Y - 1}}
	}
	if b.Occupied(front[0].X, front[0].Y) && b.Occupied(front[1].X, front[1].Y) {
		return TspinFull
	}
	return TspinMini
}

// CornerCount returns how many of the four diagonal neighbours of
// (x, y) are occupied.
func CornerCount(b *Board, x, y int) int {
	n := 0
	for _, d := range [4]Cell{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		if b.Occupied(x+d.X, y+d.Y) {
			n++
		}
	}
	return n
}
