package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/eval"
)

// ErrNoPlacements is returned when no piece can be placed.
var ErrNoPlacements = errors.New("no placements")

// SearchInfo reports on a finished decision.
type SearchInfo struct {
	Candidates   int
	Best         eval.Score
	Time         time.Duration
	Workers      int
	CacheHitRate float64
}

// Decision is the chosen move and what it does.
type Decision struct {
	Piece         string       `json:"piece"`
	X             int          `json:"x"`
	Y             int          `json:"y"`
	Rotation      uint8        `json:"rotation"`
	Inputs        []string     `json:"inputs"`
	Tspin         string       `json:"tspin"`
	LinesCleared  int          `json:"lines_cleared"`
	ClearedRows   []int        `json:"cleared_rows"`
	UsedHold      bool         `json:"used_hold"`
	PlacementKind string       `json:"placement_kind"`
	B2B           bool         `json:"b2b"`
	Combo         *int         `json:"combo"`
	Score         eval.Score   `json:"score"`
	Total         int          `json:"total"`
	Board         *board.Board `json:"-"`
}

// NewDecision describes a scored candidate. The input list gets a
// leading Hold when the hold was used.
func NewDecision(s Scored) Decision {
	loc := s.Placement.Location
	inputs := make([]string, 0, len(s.Placement.Inputs)+1)
	if s.UsedHold {
		inputs = append(inputs, board.HoldInput.String())
	}
	for _, m := range s.Placement.Inputs {
		inputs = append(inputs, m.String())
	}
	rows := s.Lock.ClearedLines
	if rows == nil {
		rows = []int{}
	}
	d := Decision{
		Piece:         s.Piece.String(),
		X:             loc.X,
		Y:             loc.Y,
		Rotation:      uint8(loc.Rot),
		Inputs:        inputs,
		Tspin:         loc.Tspin.String(),
		LinesCleared:  len(s.Lock.ClearedLines),
		ClearedRows:   rows,
		UsedHold:      s.UsedHold,
		PlacementKind: s.Lock.PlacementKind.String(),
		B2B:           s.Lock.B2B,
		Score:         s.Score,
		Total:         s.Score.Total(),
		Board:         s.Board,
	}
	if s.Lock.HasCombo {
		combo := s.Lock.Combo
		d.Combo = &combo
	}
	return d
}

// Options configures an Engine.
type Options struct {
	Workers int // scoring goroutines, 0 = GOMAXPROCS
	CacheMB int // transient cache per worker, 0 = uncached
}

// Engine scores every placement of the current or held piece and picks
// the best. Decisions are serialised; an Engine may be shared.
type Engine struct {
	mu      sync.Mutex
	weights eval.Weights
	workers []*Worker
	cacheMB int

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine scoring with w.
func NewEngine(w eval.Weights, opts Options) *Engine {
	n := opts.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	e := &Engine{weights: w, cacheMB: opts.CacheMB}
	e.workers = make([]*Worker, n)
	for i := range e.workers {
		e.workers[i] = NewWorker(i, w, opts.CacheMB)
	}
	return e
}

// Weights returns the weights in use.
func (e *Engine) Weights() eval.Weights {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.weights
}

// SetWeights replaces the weights. Cached transient scores belong to the
// old weights, so every worker starts with a fresh cache.
func (e *Engine) SetWeights(w eval.Weights) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.weights = w
	for i := range e.workers {
		e.workers[i] = NewWorker(i, w, e.cacheMB)
	}
}

// Clear empties the workers' caches.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, w := range e.workers {
		if c := w.evaluator.Cache(); c != nil {
			c.Clear()
		}
	}
}

// Decide picks the best placement for state.
func (e *Engine) Decide(ctx context.Context, state *board.State) (Decision, error) {
	best, _, err := e.Search(ctx, state.Board, state.Current)
	if err != nil {
		return Decision{}, err
	}
	return NewDecision(best), nil
}

// Search scores every candidate for current on b and returns the best
// along with the full scored list in generation order.
func (e *Engine) Search(ctx context.Context, b *board.Board, current board.Piece) (Scored, []Scored, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	candidates := GenerateCandidates(b, current)
	if len(candidates) == 0 {
		return Scored{}, nil, fmt.Errorf("%v: %w", current, ErrNoPlacements)
	}

	scores, err := scoreAll(ctx, e.workers, candidates)
	if err != nil {
		return Scored{}, nil, fmt.Errorf("score candidates: %w", err)
	}

	all := make([]Scored, len(candidates))
	for i, c := range candidates {
		all[i] = Scored{Candidate: c, Score: scores[i]}
	}
	best := all[bestIndex(scores)]

	info := SearchInfo{
		Candidates:   len(candidates),
		Best:         best.Score,
		Time:         time.Since(start),
		Workers:      len(e.workers),
		CacheHitRate: e.hitRate(),
	}
	log.Debug().
		Str("piece", best.Piece.String()).
		Str("location", best.Placement.Location.String()).
		Str("kind", best.Lock.PlacementKind.String()).
		Int("score", best.Score.Total()).
		Int("candidates", info.Candidates).
		Dur("elapsed", info.Time).
		Msg("decision")
	if e.OnInfo != nil {
		e.OnInfo(info)
	}
	return best, all, nil
}

// Evaluate scores b as the result of lock without searching.
func (e *Engine) Evaluate(b *board.Board, lock board.LockResult, moveTime int, placed board.Piece) eval.Score {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workers[0].evaluator.Evaluate(b, lock, moveTime, placed)
}

func (e *Engine) hitRate() float64 {
	var hits, probes uint64
	for _, w := range e.workers {
		if c := w.evaluator.Cache(); c != nil {
			h, p := c.Stats()
			hits += h
			probes += p
		}
	}
	if probes == 0 {
		return 0
	}
	return float64(hits) / float64(probes)
}
