// Package game runs self-play sessions: a seeded randomizer deals the
// pieces and the engine places every one of them.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/engine"
)

var (
	// ErrGameOver is returned by Step once the stack has topped out.
	ErrGameOver = errors.New("game over")
	// ErrFinished is returned by Step once a sprint or blitz has ended.
	ErrFinished = errors.New("finished")
)

const (
	// DefaultPreview is the number of queued pieces the engine sees.
	DefaultPreview = 5

	SprintLines   = 40              // lines to clear in a sprint
	BlitzDuration = 3 * time.Minute // length of a blitz
)

// Mode decides when a game ends other than by topping out.
type Mode uint8

const (
	Endless Mode = iota
	Sprint       // ends once SprintLines lines are cleared
	Blitz        // ends BlitzDuration after the first piece
)

var modeNames = [...]string{"endless", "sprint", "blitz"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode parses a mode name, ignoring case.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(s, n) {
			return Mode(i), nil
		}
	}
	return Endless, fmt.Errorf("unknown mode %q", s)
}

// Counters tracks what a session has achieved.
type Counters struct {
	Pieces        int
	Lines         int
	Tspins        int
	PerfectClears int
	Holds         int
	GarbageSent   int
	MaxCombo      int
}

// Session is one self-play game. It is not safe for concurrent use.
type Session struct {
	engine  *engine.Engine
	rng     *board.Randomizer
	preview int
	seed    uint64

	mode  Mode
	now   func() time.Time
	start time.Time

	state *board.State
	last  *engine.Decision
	end   error // ErrGameOver or ErrFinished once the game has ended

	Counters
}

// NewSession starts a game dealt from seed with preview queued pieces.
func NewSession(eng *engine.Engine, seed uint64, preview int) *Session {
	if preview <= 0 {
		preview = DefaultPreview
	}
	s := &Session{engine: eng, preview: preview, now: time.Now}
	s.Reset(seed)
	return s
}

// Reset starts over from an empty board.
func (s *Session) Reset(seed uint64) {
	s.seed = seed
	s.rng = board.NewRandomizer(seed)
	b := board.New()
	current := s.rng.Next()
	s.state = &board.State{Board: b, Current: current}
	s.refill()
	s.last = nil
	s.end = nil
	s.start = time.Time{}
	s.Counters = Counters{}
}

// SetMode switches the end condition. It takes effect from the next step;
// call Reset to replay from an empty board.
func (s *Session) SetMode(m Mode) { s.mode = m }

// Mode returns the session's mode.
func (s *Session) Mode() Mode { return s.mode }

// LinesLeft is how many lines a sprint still needs, 0 in other modes.
func (s *Session) LinesLeft() int {
	if s.mode != Sprint {
		return 0
	}
	return max(SprintLines-s.Lines, 0)
}

// TimeLeft is the remaining blitz time, 0 in other modes.
func (s *Session) TimeLeft() time.Duration {
	if s.mode != Blitz {
		return 0
	}
	if s.start.IsZero() {
		return BlitzDuration
	}
	return max(BlitzDuration-s.now().Sub(s.start), 0)
}

// Seed returns the seed of the current game.
func (s *Session) Seed() uint64 { return s.seed }

// State returns the current state. Callers must not modify it.
func (s *Session) State() *board.State { return s.state }

// Last returns the previous decision, or nil.
func (s *Session) Last() *engine.Decision { return s.last }

// Over reports whether the game has ended.
func (s *Session) Over() bool { return s.end != nil }

// Finished reports whether the game ended by reaching its goal.
func (s *Session) Finished() bool { return errors.Is(s.end, ErrFinished) }

func (s *Session) refill() {
	b := s.state.Board
	for len(b.Queue) < s.preview {
		b.Queue = append(b.Queue, s.rng.Next())
	}
	b.Bag = s.rng.Remaining()
}

// Step places the current piece and deals the next one.
func (s *Session) Step(ctx context.Context) (engine.Decision, error) {
	if s.end != nil {
		return engine.Decision{}, s.end
	}
	if s.mode == Blitz {
		if s.start.IsZero() {
			s.start = s.now()
		} else if s.TimeLeft() == 0 {
			s.finish()
			return engine.Decision{}, s.end
		}
	}

	best, _, err := s.engine.Search(ctx, s.state.Board, s.state.Current)
	if errors.Is(err, engine.ErrNoPlacements) {
		s.end = ErrGameOver
		log.Info().Int("pieces", s.Pieces).Int("lines", s.Lines).Msg("topped out")
		return engine.Decision{}, fmt.Errorf("%w: %v", ErrGameOver, err)
	}
	if err != nil {
		return engine.Decision{}, err
	}

	lock := best.Lock
	s.Pieces++
	s.Lines += len(lock.ClearedLines)
	s.GarbageSent += lock.GarbageSent
	if lock.PlacementKind.IsTspin() {
		s.Tspins++
	}
	if lock.PerfectClear {
		s.PerfectClears++
	}
	if best.UsedHold {
		s.Holds++
	}
	if lock.HasCombo {
		s.MaxCombo = max(s.MaxCombo, lock.Combo)
	}

	d := engine.NewDecision(best)
	next := best.Board.Clone()
	s.state = &board.State{Board: next, Current: next.PopNext()}
	s.refill()
	s.last = &d
	if s.mode == Sprint && s.Lines >= SprintLines {
		s.finish()
	}
	return d, nil
}

func (s *Session) finish() {
	s.end = ErrFinished
	log.Info().Str("mode", s.mode.String()).Int("pieces", s.Pieces).Int("lines", s.Lines).Msg("finished")
}
