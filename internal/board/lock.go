package board

// PlacementKind classifies a lock by lines cleared and T-spin status.
type PlacementKind uint8

const (
	PlacementNone PlacementKind = iota
	Clear1
	Clear2
	Clear3
	Clear4
	MiniTspin
	MiniTspin1
	MiniTspin2
	Tspin
	Tspin1
	Tspin2
	Tspin3
)

var placementNames = [...]string{
	"None", "Clear1", "Clear2", "Clear3", "Clear4",
	"MiniTspin", "MiniTspin1", "MiniTspin2",
	"Tspin", "Tspin1", "Tspin2", "Tspin3",
}

func (k PlacementKind) String() string {
	if int(k) < len(placementNames) {
		return placementNames[k]
	}
	return "Unknown"
}

// IsClear reports whether the placement cleared at least one line.
func (k PlacementKind) IsClear() bool {
	switch k {
	case PlacementNone, MiniTspin, Tspin:
		return false
	}
	return true
}

// IsHard reports whether a clear of this kind keeps back-to-back alive.
func (k PlacementKind) IsHard() bool {
	switch k {
	case Clear4, MiniTspin1, MiniTspin2, Tspin1, Tspin2, Tspin3:
		return true
	}
	return false
}

// IsTspin reports whether the placement was any T-spin variant.
func (k PlacementKind) IsTspin() bool {
	return k >= MiniTspin
}

func classify(lines int, tspin TspinStatus) PlacementKind {
	switch tspin {
	case TspinFull:
		switch lines {
		case 0:
			return Tspin
		case 1:
			return Tspin1
		case 2:
			return Tspin2
		default:
			return Tspin3
		}
	case TspinMini:
		switch lines {
		case 0:
			return MiniTspin
		case 1:
			return MiniTspin1
		case 2:
			return MiniTspin2
		default:
			return Tspin3
		}
	}
	switch lines {
	case 0:
		return PlacementNone
	case 1:
		return Clear1
	case 2:
		return Clear2
	case 3:
		return Clear3
	default:
		return Clear4
	}
}

// ComboGarbage is the garbage bonus per combo count, saturating at 11.
var ComboGarbage = [12]int{0, 0, 1, 1, 1, 2, 2, 3, 3, 4, 4, 4}

// ComboBonus returns ComboGarbage for a combo count, clamped to the table.
func ComboBonus(combo int) int {
	if combo < 0 {
		return 0
	}
	if combo >= len(ComboGarbage) {
		combo = len(ComboGarbage) - 1
	}
	return ComboGarbage[combo]
}

var baseGarbage = [...]int{
	PlacementNone: 0, Clear1: 0, Clear2: 1, Clear3: 2, Clear4: 4,
	MiniTspin: 0, MiniTspin1: 0, MiniTspin2: 1,
	Tspin: 0, Tspin1: 2, Tspin2: 4, Tspin3: 6,
}

// LockResult describes what a single lock did to the board.
type LockResult struct {
	PlacementKind PlacementKind
	ClearedLines  []int // cleared row indices, highest first
	B2B           bool  // the clear was a hard clear on an active back-to-back
	Combo         int   // combo counter before this clear
	HasCombo      bool  // true when the lock cleared lines
	PerfectClear  bool
	GarbageSent   int
}

// LockPiece places p, clears full rows and updates the chain state.
func (b *Board) LockPiece(p FallingPiece) LockResult {
	for _, c := range p.Cells() {
		if c.X >= 0 && c.X < Width && c.Y >= 0 && c.Y < Height {
			b.rows[c.Y] |= 1 << c.X
		}
	}

	var cleared []int
	for y := Height - 1; y >= 0; y-- {
		if b.rows[y] == fullRow {
			cleared = append(cleared, y)
		}
	}
	// Highest first, so removing one row never shifts a pending index.
	for _, y := range cleared {
		copy(b.rows[y:], b.rows[y+1:])
		b.rows[Height-1] = 0
	}
	b.recomputeHeights()

	res := LockResult{
		PlacementKind: classify(len(cleared), p.Tspin),
		ClearedLines:  cleared,
	}
	res.PerfectClear = len(cleared) > 0 && b.IsEmpty()
	res.GarbageSent = baseGarbage[res.PlacementKind]

	if res.PlacementKind.IsClear() {
		if res.PlacementKind.IsHard() {
			res.B2B = b.B2B
			if b.B2B {
				res.GarbageSent++
			}
			b.B2B = true
		} else {
			b.B2B = false
		}
		res.Combo = b.Combo
		res.HasCombo = true
		res.GarbageSent += ComboBonus(b.Combo)
		b.Combo++
	} else {
		b.Combo = 0
	}

	if res.PerfectClear {
		res.GarbageSent = 10
	}
	return res
}
