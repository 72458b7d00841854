package board

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrUnknownPiece is returned when a piece name cannot be parsed.
var ErrUnknownPiece = errors.New("unknown piece")

// Piece represents a tetromino kind.
type Piece uint8

const (
	I Piece = iota
	O
	T
	L
	J
	S
	Z
	NoPiece Piece = 7
)

// String returns the single-letter piece name.
func (p Piece) String() string {
	switch p {
	case I:
		return "I"
	case O:
		return "O"
	case T:
		return "T"
	case L:
		return "L"
	case J:
		return "J"
	case S:
		return "S"
	case Z:
		return "Z"
	default:
		return "-"
	}
}

// ParsePiece converts a piece letter into a Piece.
func ParsePiece(s string) (Piece, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "I":
		return I, nil
	case "O":
		return O, nil
	case "T":
		return T, nil
	case "L":
		return L, nil
	case "J":
		return J, nil
	case "S":
		return S, nil
	case "Z":
		return Z, nil
	}
	return NoPiece, fmt.Errorf("%w: %q", ErrUnknownPiece, s)
}

// Rotation is one of the four cardinal facings.
type Rotation uint8

const (
	North Rotation = iota
	East
	South
	West
)

// Cw returns the facing after a clockwise turn.
func (r Rotation) Cw() Rotation {
	return (r + 1) & 3
}

// Ccw returns the facing after a counter-clockwise turn.
func (r Rotation) Ccw() Rotation {
	return (r + 3) & 3
}

// String returns the facing name.
func (r Rotation) String() string {
	switch r {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	default:
		return "West"
	}
}

// TspinStatus tags a placement with its T-spin classification.
type TspinStatus uint8

const (
	TspinNone TspinStatus = iota
	TspinMini
	TspinFull
)

// String returns the tag name.
func (t TspinStatus) String() string {
	switch t {
	case TspinMini:
		return "Mini"
	case TspinFull:
		return "Full"
	default:
		return "None"
	}
}

// PieceSet is a set of piece kinds, one bit per piece.
type PieceSet uint8

// AllPieces is the full seven-piece bag.
const AllPieces PieceSet = 1<<7 - 1

// NewPieceSet builds a set from the given pieces.
func NewPieceSet(pieces ...Piece) PieceSet {
	var s PieceSet
	for _, p := range pieces {
		s = s.Add(p)
	}
	return s
}

// Contains reports whether p is in the set.
func (s PieceSet) Contains(p Piece) bool {
	return p < NoPiece && s&(1<<p) != 0
}

// Add returns the set with p added.
func (s PieceSet) Add(p Piece) PieceSet {
	if p >= NoPiece {
		return s
	}
	return s | 1<<p
}

// Remove returns the set without p.
func (s PieceSet) Remove(p Piece) PieceSet {
	if p >= NoPiece {
		return s
	}
	return s &^ (1 << p)
}

// Len returns the number of pieces in the set.
func (s PieceSet) Len() int {
	return bits.OnesCount8(uint8(s & AllPieces))
}

// Pieces returns the members in I, O, T, L, J, S, Z order.
func (s PieceSet) Pieces() []Piece {
	out := make([]Piece, 0, s.Len())
	for p := I; p < NoPiece; p++ {
		if s.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// String returns the member letters, e.g. "ITZ".
func (s PieceSet) String() string {
	var sb strings.Builder
	for _, p := range s.Pieces() {
		sb.WriteString(p.String())
	}
	return sb.String()
}
