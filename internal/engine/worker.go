package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/tetrisplay/internal/eval"
)

// Worker scores a share of the candidates with its own evaluator, so its
// transient cache is never shared.
type Worker struct {
	id        int
	evaluator *eval.Evaluator

	// Per-decision counters
	scored int
}

// NewWorker creates a scoring worker with a cache of cacheMB megabytes.
func NewWorker(id int, w eval.Weights, cacheMB int) *Worker {
	var cache *eval.TransientCache
	if cacheMB > 0 {
		cache = eval.NewTransientCache(cacheMB)
	}
	return &Worker{
		id:        id,
		evaluator: eval.NewEvaluator(w, cache),
	}
}

// ID returns the worker's ID.
func (w *Worker) ID() int {
	return w.id
}

// Scored returns how many candidates the worker scored in the last run.
func (w *Worker) Scored() int {
	return w.scored
}

// Evaluator returns the worker's evaluator.
func (w *Worker) Evaluator() *eval.Evaluator {
	return w.evaluator
}

// run scores candidates[lo:hi] into scores[lo:hi].
func (w *Worker) run(ctx context.Context, candidates []Candidate, scores []eval.Score, lo, hi int) error {
	for i := lo; i < hi; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		c := candidates[i]
		scores[i] = w.evaluator.Evaluate(c.Board, c.Lock, c.Placement.MoveTime, c.Piece)
		w.scored++
	}
	return nil
}

// scoreAll splits candidates into contiguous chunks, one per worker, and
// returns the scores in candidate order. Each index is written by exactly
// one worker, so the slice needs no locking.
func scoreAll(ctx context.Context, workers []*Worker, candidates []Candidate) ([]eval.Score, error) {
	scores := make([]eval.Score, len(candidates))
	for _, w := range workers {
		w.scored = 0
	}
	if len(candidates) == 0 {
		return scores, nil
	}

	n := min(len(workers), len(candidates))
	chunk := (len(candidates) + n - 1) / n

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		lo := i * chunk
		hi := min(lo+chunk, len(candidates))
		if lo >= hi {
			break
		}
		w := workers[i]
		g.Go(func() error {
			return w.run(ctx, candidates, scores, lo, hi)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}
