package engine

import (
	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/eval"
)

// Scorer evaluates a board after a lock. *eval.Weights and
// *eval.Evaluator both satisfy it.
type Scorer interface {
	Evaluate(b *board.Board, lock board.LockResult, moveTime int, placed board.Piece) eval.Score
}

// Candidate is one placement applied to its own copy of the board.
type Candidate struct {
	Board     *board.Board
	Lock      board.LockResult
	Placement board.Placement
	Piece     board.Piece
	UsedHold  bool
}

// Scored is a candidate with its evaluation.
type Scored struct {
	Candidate
	Score eval.Score
}

// ApplyPlacements locks each placement onto a fresh clone of b. The
// input board is never modified and no two candidates share a board.
func ApplyPlacements(b *board.Board, piece board.Piece, placements []board.Placement, usedHold bool) []Candidate {
	out := make([]Candidate, 0, len(placements))
	for _, p := range placements {
		nb := b.Clone()
		lock := nb.LockPiece(p.Location)
		out = append(out, Candidate{
			Board:     nb,
			Lock:      lock,
			Placement: p,
			Piece:     piece,
			UsedHold:  usedHold,
		})
	}
	return out
}

// ScoreCandidate evaluates one candidate with s.
func ScoreCandidate(s Scorer, c Candidate) Scored {
	return Scored{
		Candidate: c,
		Score:     s.Evaluate(c.Board, c.Lock, c.Placement.MoveTime, c.Piece),
	}
}

// ChooseBest scores every candidate in order and returns the one with
// the highest total. Among equal totals the candidate that comes last
// wins. ok is false for an empty list.
func ChooseBest(s Scorer, candidates []Candidate) (best Scored, ok bool) {
	for _, c := range candidates {
		sc := ScoreCandidate(s, c)
		if !ok || sc.Score.Total() >= best.Score.Total() {
			best, ok = sc, true
		}
	}
	return best, ok
}

// bestIndex reduces precomputed scores with the ChooseBest rule.
func bestIndex(scores []eval.Score) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s.Total() >= scores[best].Total() {
			best = i
		}
	}
	return best
}

// Spawn is a piece the engine may play this turn and the board it is
// played on. When the hold is used, the board already holds the
// displaced piece.
type Spawn struct {
	Piece    board.Piece
	Board    *board.Board
	UsedHold bool
}

// SpawnOptions lists the pieces playable from b with current in hand:
// current itself, then the held piece if it differs, or the first queued
// piece when nothing is held yet, which is then taken off the queue. Options that cannot spawn are dropped.
func SpawnOptions(b *board.Board, current board.Piece) []Spawn {
	opts := []Spawn{{Piece: current, Board: b}}

	var alt board.Piece = board.NoPiece
	switch {
	case b.Hold != board.NoPiece && b.Hold != current:
		alt = b.Hold
	case b.Hold == board.NoPiece && len(b.Queue) > 0:
		alt = b.Queue[0]
	}
	if alt == board.NoPiece {
		return opts
	}

	swapped := b.Clone()
	if swapped.Hold == board.NoPiece {
		swapped.PopNext()
	}
	swapped.Hold = current
	if _, ok := board.Spawn(swapped, alt); ok {
		opts = append(opts, Spawn{Piece: alt, Board: swapped, UsedHold: true})
	}
	return opts
}

// GenerateCandidates enumerates and applies every placement of every
// spawn option, in spawn option order.
func GenerateCandidates(b *board.Board, current board.Piece) []Candidate {
	var out []Candidate
	for _, opt := range SpawnOptions(b, current) {
		placements := board.FindPlacements(opt.Board, opt.Piece)
		out = append(out, ApplyPlacements(opt.Board, opt.Piece, placements, opt.UsedHold)...)
	}
	return out
}
