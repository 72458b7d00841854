package game

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/engine"
	"github.com/hailam/tetrisplay/internal/eval"
)

func newSession(seed uint64) *Session {
	return NewSession(engine.NewEngine(eval.Default(), engine.Options{Workers: 2, CacheMB: 1}), seed, 0)
}

func TestSessionConservesCells(t *testing.T) {
	s := newSession(7)
	for i := 0; i < 30; i++ {
		if _, err := s.Step(context.Background()); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		b := s.State().Board
		if got, want := b.CountCells(), 4*s.Pieces-board.Width*s.Lines; got != want {
			t.Fatalf("step %d: %d cells, want %d", i, got, want)
		}
		if len(b.Queue) != DefaultPreview {
			t.Fatalf("step %d: queue %v", i, b.Queue)
		}
	}
	if s.Pieces != 30 || s.Last() == nil {
		t.Errorf("pieces = %d", s.Pieces)
	}
}

func TestSessionDeterministic(t *testing.T) {
	play := func() [][]string {
		s := newSession(42)
		var moves [][]string
		for i := 0; i < 15; i++ {
			d, err := s.Step(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			moves = append(moves, d.Inputs)
		}
		return moves
	}
	a, b := play(), play()
	for i := range a {
		if !slices.Equal(a[i], b[i]) {
			t.Fatalf("move %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSessionFirstPieceFromSeed(t *testing.T) {
	s := newSession(3)
	r := board.NewRandomizer(3)
	if first := r.Next(); s.State().Current != first {
		t.Errorf("current = %v, want %v", s.State().Current, first)
	}
	for i, q := range s.State().Board.Queue {
		if want := r.Next(); q != want {
			t.Errorf("queue[%d] = %v, want %v", i, q, want)
		}
	}
	if s.State().Board.Bag != r.Remaining() {
		t.Errorf("bag = %v, want %v", s.State().Board.Bag, r.Remaining())
	}
}

func TestSessionGameOver(t *testing.T) {
	s := newSession(1)
	b := s.State().Board
	for y := 0; y < 22; y++ {
		for x := 0; x < board.Width; x++ {
			b.Set(x, y, true)
		}
	}
	if _, err := s.Step(context.Background()); !errors.Is(err, ErrGameOver) {
		t.Fatalf("err = %v, want ErrGameOver", err)
	}
	if !s.Over() {
		t.Error("session not over")
	}
	if _, err := s.Step(context.Background()); !errors.Is(err, ErrGameOver) {
		t.Errorf("second step err = %v", err)
	}

	s.Reset(1)
	if s.Over() || s.Pieces != 0 || s.State().Board.CountCells() != 0 {
		t.Error("Reset did not start a fresh game")
	}
}

func TestSprintEndsAtGoal(t *testing.T) {
	s := newSession(5)
	s.SetMode(Sprint)
	if s.LinesLeft() != SprintLines {
		t.Fatalf("LinesLeft = %d, want %d", s.LinesLeft(), SprintLines)
	}

	b := board.FromRows(
		"#########.",
		"#########.",
		"#########.",
		"#########.",
	)
	b.Queue = []board.Piece{board.I, board.I, board.I, board.I, board.I}
	s.state = &board.State{Board: b, Current: board.I}
	s.Lines = SprintLines - 1

	d, err := s.Step(context.Background())
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if d.LinesCleared == 0 {
		t.Fatalf("decision %+v cleared nothing", d)
	}
	if !s.Over() || !s.Finished() || s.LinesLeft() != 0 {
		t.Errorf("over=%v finished=%v left=%d", s.Over(), s.Finished(), s.LinesLeft())
	}
	if _, err := s.Step(context.Background()); !errors.Is(err, ErrFinished) {
		t.Errorf("step after the goal: err = %v, want ErrFinished", err)
	}
}

func TestBlitzEndsOnClock(t *testing.T) {
	s := newSession(9)
	s.SetMode(Blitz)
	clock := time.Unix(1000, 0)
	s.now = func() time.Time { return clock }

	if s.TimeLeft() != BlitzDuration {
		t.Fatalf("TimeLeft before start = %v", s.TimeLeft())
	}
	if _, err := s.Step(context.Background()); err != nil {
		t.Fatalf("first step: %v", err)
	}
	clock = clock.Add(time.Minute)
	if got := s.TimeLeft(); got != BlitzDuration-time.Minute {
		t.Errorf("TimeLeft = %v, want %v", got, BlitzDuration-time.Minute)
	}
	if _, err := s.Step(context.Background()); err != nil {
		t.Fatalf("step in time: %v", err)
	}

	clock = clock.Add(BlitzDuration)
	if _, err := s.Step(context.Background()); !errors.Is(err, ErrFinished) {
		t.Fatalf("err = %v, want ErrFinished", err)
	}
	if s.Pieces != 2 || !s.Finished() {
		t.Errorf("pieces=%d finished=%v", s.Pieces, s.Finished())
	}

	s.Reset(9)
	if s.Over() || s.Mode() != Blitz || s.TimeLeft() != BlitzDuration {
		t.Error("Reset did not restart the blitz")
	}
}

func TestEndlessIgnoresGoals(t *testing.T) {
	s := newSession(5)
	s.Lines = SprintLines
	if _, err := s.Step(context.Background()); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.Over() || s.LinesLeft() != 0 || s.TimeLeft() != 0 {
		t.Errorf("endless session over=%v left=%d time=%v", s.Over(), s.LinesLeft(), s.TimeLeft())
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"endless", Endless, false},
		{"Sprint", Sprint, false},
		{"BLITZ", Blitz, false},
		{"marathon", Endless, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMode(tc.in)
			if (err != nil) != tc.wantErr || got != tc.want {
				t.Errorf("ParseMode(%q) = %v, %v", tc.in, got, err)
			}
		})
	}
}
