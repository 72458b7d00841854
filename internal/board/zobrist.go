package board

// Zobrist keys for board hashing. Only the inputs of the transient
// score are hashed: cells, bag, hold and the back-to-back flag.
var (
	zobristCell [Height][Width]uint64
	zobristBag  [7]uint64
	zobristHold [8]uint64 // index 7 is NoPiece
	zobristB2B  uint64
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64*
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x7E7A15B0A2D51234)

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			zobristCell[y][x] = rng.next()
		}
	}
	for p := range zobristBag {
		zobristBag[p] = rng.next()
	}
	for p := range zobristHold {
		zobristHold[p] = rng.next()
	}
	zobristB2B = rng.next()
}

// Hash returns the Zobrist hash of the board's scoring inputs.
func (b *Board) Hash() uint64 {
	var h uint64
	for y := 0; y < Height; y++ {
		row := b.rows[y]
		if row == 0 {
			continue
		}
		for x := 0; x < Width; x++ {
			if row&(1<<x) != 0 {
				h ^= zobristCell[y][x]
			}
		}
	}
	for p := I; p < NoPiece; p++ {
		if b.Bag.Contains(p) {
			h ^= zobristBag[p]
		}
	}
	hold := b.Hold
	if hold > NoPiece {
		hold = NoPiece
	}
	h ^= zobristHold[hold]
	if b.B2B {
		h ^= zobristB2B
	}
	return h
}
