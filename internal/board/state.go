package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrBadField is returned when a state's field is malformed.
var ErrBadField = errors.New("bad field")

// StateJSON is the wire form of a game state. Field rows run bottom to
// top; any non-zero cell is filled.
type StateJSON struct {
	Piece string    `json:"piece"`
	Field [][]uint8 `json:"field"`
	Bag   []string  `json:"bag"`
	Hold  *string   `json:"hold"`
	Next  []string  `json:"next"`
	B2B   bool      `json:"b2b"`
	Combo int       `json:"combo"`
}

// State is a parsed game state: the board and the piece to place.
type State struct {
	Board   *Board
	Current Piece
}

// ReadState decodes a JSON state from r.
func ReadState(r io.Reader) (*State, error) {
	var raw StateJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return raw.State()
}

// ParseState decodes a JSON state.
func ParseState(data []byte) (*State, error) {
	var raw StateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return raw.State()
}

// State converts the wire form into a board. Rows beyond 40 and columns
// beyond 10 are rejected.
func (s *StateJSON) State() (*State, error) {
	current, err := ParsePiece(s.Piece)
	if err != nil {
		return nil, fmt.Errorf("piece: %w", err)
	}
	if len(s.Field) > Height {
		return nil, fmt.Errorf("%w: %d rows, max %d", ErrBadField, len(s.Field), Height)
	}

	b := New()
	for y, row := range s.Field {
		if len(row) > Width {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrBadField, y, len(row))
		}
		for x, v := range row {
			if v != 0 {
				b.rows[y] |= 1 << x
			}
		}
	}
	b.recomputeHeights()

	b.Bag = 0
	for _, name := range s.Bag {
		p, err := ParsePiece(name)
		if err != nil {
			return nil, fmt.Errorf("bag: %w", err)
		}
		b.Bag = b.Bag.Add(p)
	}
	if s.Hold != nil && *s.Hold != "" {
		if b.Hold, err = ParsePiece(*s.Hold); err != nil {
			return nil, fmt.Errorf("hold: %w", err)
		}
	}
	for _, name := range s.Next {
		p, err := ParsePiece(name)
		if err != nil {
			return nil, fmt.Errorf("next: %w", err)
		}
		b.Queue = append(b.Queue, p)
	}
	b.B2B = s.B2B
	b.Combo = s.Combo
	return &State{Board: b, Current: current}, nil
}

// ToJSON converts a state back into its wire form.
func (s *State) ToJSON() StateJSON {
	out := StateJSON{
		Piece: s.Current.String(),
		Field: make([][]uint8, Height),
		Bag:   []string{},
		Next:  []string{},
		B2B:   s.Board.B2B,
		Combo: s.Board.Combo,
	}
	for y := 0; y < Height; y++ {
		row := make([]uint8, Width)
		for x := 0; x < Width; x++ {
			if s.Board.Occupied(x, y) {
				row[x] = 1
			}
		}
		out.Field[y] = row
	}
	for _, p := range s.Board.Bag.Pieces() {
		out.Bag = append(out.Bag, p.String())
	}
	if s.Board.Hold != NoPiece {
		h := s.Board.Hold.String()
		out.Hold = &h
	}
	for _, p := range s.Board.Queue {
		out.Next = append(out.Next, p.String())
	}
	return out
}
