package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/eval"
)

type constScorer struct{ score eval.Score }

func (c constScorer) Evaluate(*board.Board, board.LockResult, int, board.Piece) eval.Score {
	return c.score
}

func TestApplyPlacementsClones(t *testing.T) {
	b := board.FromRows("####..####")
	before := b.Hash()
	placements := board.FindPlacements(b, board.O)
	cands := ApplyPlacements(b, board.O, placements, false)

	if len(cands) != len(placements) {
		t.Fatalf("%d candidates for %d placements", len(cands), len(placements))
	}
	if b.Hash() != before {
		t.Error("ApplyPlacements modified the input board")
	}
	seen := make(map[*board.Board]bool)
	for _, c := range cands {
		if seen[c.Board] {
			t.Fatal("two candidates share a board")
		}
		seen[c.Board] = true
	}

	// O into the gap clears the bottom row.
	cleared := 0
	for _, c := range cands {
		if c.Lock.PlacementKind == board.Clear1 {
			cleared++
		}
	}
	if cleared != 1 {
		t.Errorf("%d candidates cleared a line, want 1", cleared)
	}
}

func TestChooseBestTieLastWins(t *testing.T) {
	cands := ApplyPlacements(board.New(), board.T, board.FindPlacements(board.New(), board.T), false)
	best, ok := ChooseBest(constScorer{eval.Score{Transient: 5}}, cands)
	if !ok {
		t.Fatal("no best for a non-empty list")
	}
	last := cands[len(cands)-1].Placement.Location
	if best.Placement.Location != last {
		t.Errorf("tie went to %v, want last candidate %v", best.Placement.Location, last)
	}

	if _, ok := ChooseBest(constScorer{}, nil); ok {
		t.Error("empty list produced a best")
	}
}

func TestBestIndex(t *testing.T) {
	tests := []struct {
		name   string
		totals []int
		want   int
	}{
		{"single", []int{3}, 0},
		{"max", []int{1, 9, 4}, 1},
		{"tie goes last", []int{9, 1, 9, 2}, 2},
		{"all negative", []int{-5, -3, -4}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scores := make([]eval.Score, len(tc.totals))
			for i, v := range tc.totals {
				scores[i] = eval.Score{Accumulated: v}
			}
			if got := bestIndex(scores); got != tc.want {
				t.Errorf("bestIndex = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSpawnOptions(t *testing.T) {
	tests := []struct {
		name    string
		hold    board.Piece
		queue   []board.Piece
		current board.Piece
		want    []board.Piece
	}{
		{"nothing to swap", board.NoPiece, nil, board.T, []board.Piece{board.T}},
		{"hold same piece", board.T, []board.Piece{board.I}, board.T, []board.Piece{board.T}},
		{"hold other piece", board.I, nil, board.T, []board.Piece{board.T, board.I}},
		{"empty hold takes next", board.NoPiece, []board.Piece{board.S, board.Z}, board.T, []board.Piece{board.T, board.S}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := board.New()
			b.Hold = tc.hold
			b.Queue = tc.queue
			opts := SpawnOptions(b, tc.current)
			if len(opts) != len(tc.want) {
				t.Fatalf("%d options, want %d", len(opts), len(tc.want))
			}
			for i, o := range opts {
				if o.Piece != tc.want[i] {
					t.Errorf("option %d = %v, want %v", i, o.Piece, tc.want[i])
				}
				if o.UsedHold != (i == 1) {
					t.Errorf("option %d UsedHold = %v", i, o.UsedHold)
				}
				if o.UsedHold && o.Board.Hold != tc.current {
					t.Errorf("swapped board holds %v, want %v", o.Board.Hold, tc.current)
				}
				if o.UsedHold && tc.hold == board.NoPiece && len(o.Board.Queue) != len(tc.queue)-1 {
					t.Errorf("queue %v was not advanced", o.Board.Queue)
				}
			}
			if b.Hold != tc.hold {
				t.Error("SpawnOptions modified the input board")
			}
		})
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	b := board.FromRows(
		"...#......",
		"###...####",
		"####.#####",
	)
	b.Hold = board.L
	w := eval.Default()

	want, ok := ChooseBest(&w, GenerateCandidates(b, board.T))
	if !ok {
		t.Fatal("no sequential best")
	}
	for _, workers := range []int{1, 3, 8} {
		e := NewEngine(w, Options{Workers: workers, CacheMB: 1})
		got, all, err := e.Search(context.Background(), b, board.T)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if got.Placement.Location != want.Placement.Location || got.UsedHold != want.UsedHold || got.Score != want.Score {
			t.Errorf("workers=%d: best %v (hold %v, %+v), want %v (hold %v, %+v)", workers,
				got.Placement.Location, got.UsedHold, got.Score,
				want.Placement.Location, want.UsedHold, want.Score)
		}
		if len(all) != len(GenerateCandidates(b, board.T)) {
			t.Errorf("workers=%d: %d scored candidates", workers, len(all))
		}
	}
}

func TestDecideTspinDouble(t *testing.T) {
	b := board.FromRows(
		"...#......",
		"###...####",
		"####.#####",
	)
	e := NewEngine(eval.Default(), Options{Workers: 2})
	d, err := e.Decide(context.Background(), &board.State{Board: b, Current: board.T})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.PlacementKind != "Tspin2" {
		t.Errorf("PlacementKind = %s, want Tspin2 (decision %+v)", d.PlacementKind, d)
	}
	if d.LinesCleared != 2 || d.Tspin != "Full" {
		t.Errorf("lines=%d tspin=%s", d.LinesCleared, d.Tspin)
	}
	if d.Inputs[len(d.Inputs)-1] != "Cw" && d.Inputs[len(d.Inputs)-1] != "Ccw" {
		t.Errorf("inputs %v do not end with a spin", d.Inputs)
	}
}

func TestDecideHoldTetris(t *testing.T) {
	b := board.FromRows(
		"#########.",
		"#########.",
		"#########.",
		"#########.",
	)
	b.Hold = board.I
	e := NewEngine(eval.Default(), Options{Workers: 4, CacheMB: 1})
	d, err := e.Decide(context.Background(), &board.State{Board: b, Current: board.S})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !d.UsedHold || d.Piece != "I" {
		t.Fatalf("decision %+v does not play the held I", d)
	}
	if d.Inputs[0] != "Hold" {
		t.Errorf("inputs %v do not start with Hold", d.Inputs)
	}
	if d.PlacementKind != "Clear4" || d.LinesCleared != 4 {
		t.Errorf("kind=%s lines=%d", d.PlacementKind, d.LinesCleared)
	}
	if d.Score.Accumulated != eval.Default().PerfectClear {
		t.Errorf("accumulated = %d, want perfect clear bonus", d.Score.Accumulated)
	}
	if d.Board == nil || d.Board.CountCells() != 0 {
		t.Error("decision board is not the cleared board")
	}
}

func TestDecideNoPlacements(t *testing.T) {
	b := board.New()
	for y := 0; y < 22; y++ {
		for x := 0; x < board.Width; x++ {
			b.Set(x, y, true)
		}
	}
	e := NewEngine(eval.Default(), Options{Workers: 1})
	_, err := e.Decide(context.Background(), &board.State{Board: b, Current: board.T})
	if !errors.Is(err, ErrNoPlacements) {
		t.Errorf("err = %v, want ErrNoPlacements", err)
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEngine(eval.Default(), Options{Workers: 2})
	_, _, err := e.Search(ctx, board.New(), board.T)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestOnInfo(t *testing.T) {
	e := NewEngine(eval.Default(), Options{Workers: 2, CacheMB: 1})
	var got []SearchInfo
	e.OnInfo = func(info SearchInfo) { got = append(got, info) }

	for i := 0; i < 2; i++ {
		if _, _, err := e.Search(context.Background(), board.New(), board.T); err != nil {
			t.Fatal(err)
		}
	}
	if len(got) != 2 {
		t.Fatalf("OnInfo called %d times, want 2", len(got))
	}
	if got[0].Candidates != 34 || got[0].Workers != 2 {
		t.Errorf("info = %+v", got[0])
	}
	if got[1].CacheHitRate <= 0 {
		t.Errorf("second search hit rate = %v, want > 0", got[1].CacheHitRate)
	}
}

func TestSetWeights(t *testing.T) {
	e := NewEngine(eval.Default(), Options{Workers: 1, CacheMB: 1})
	b := board.FromRows("##########")
	before := e.Evaluate(b, board.LockResult{}, 0, board.I)

	w := eval.Default()
	w.Height = 0
	e.SetWeights(w)
	after := e.Evaluate(b, board.LockResult{}, 0, board.I)
	if after.Transient == before.Transient {
		t.Error("cached score survived a weight change")
	}
	if e.Weights().Height != 0 {
		t.Error("Weights() does not report the new weights")
	}
}
