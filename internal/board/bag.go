package board

import "math/rand/v2"

// Randomizer deals pieces from shuffled seven-piece bags.
type Randomizer struct {
	rng  *rand.Rand
	bag  []Piece
	left PieceSet
}

// NewRandomizer returns a randomizer with a fixed seed, so games replay.
func NewRandomizer(seed uint64) *Randomizer {
	return &Randomizer{rng: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

// Next deals one piece, refilling the bag when it runs dry.
func (r *Randomizer) Next() Piece {
	if len(r.bag) == 0 {
		r.bag = AllPieces.Pieces()
		r.rng.Shuffle(len(r.bag), func(i, j int) { r.bag[i], r.bag[j] = r.bag[j], r.bag[i] })
		r.left = AllPieces
	}
	p := r.bag[0]
	r.bag = r.bag[1:]
	r.left = r.left.Remove(p)
	if r.left == 0 {
		r.left = AllPieces
	}
	return p
}

// Remaining returns the pieces not yet dealt from the current bag.
// An exhausted bag reports the full set, since the next deal starts one.
func (r *Randomizer) Remaining() PieceSet {
	if len(r.bag) == 0 {
		return AllPieces
	}
	return r.left
}
