package protocol

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hailam/tetrisplay/internal/engine"
	"github.com/hailam/tetrisplay/internal/eval"
)

const tspinState = `{"piece":"T","field":[[1,1,1,1,0,1,1,1,1,1],[1,1,1,0,0,0,1,1,1,1],[0,0,0,1,0,0,0,0,0,0]],` +
	`"bag":["I","O","T","L","J","S","Z"],"hold":null,"next":[],"b2b":false,"combo":0}`

func run(t *testing.T, script string) (*Protocol, string) {
	t.Helper()
	var out bytes.Buffer
	p := New(engine.NewEngine(eval.Default(), engine.Options{Workers: 2, CacheMB: 1}), &out)
	if err := p.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return p, out.String()
}

func lines(out string) []string {
	return strings.Split(strings.TrimRight(out, "\n"), "\n")
}

func TestHandshake(t *testing.T) {
	_, out := run(t, "tbp\nisready\nquit\nisready\n")
	if !strings.Contains(out, "id name TetrisPlay") || !strings.Contains(out, "tbpok") {
		t.Errorf("handshake output:\n%s", out)
	}
	if !strings.Contains(out, "var fast") {
		t.Errorf("presets not listed:\n%s", out)
	}
	if n := strings.Count(out, "readyok"); n != 1 {
		t.Errorf("%d readyok, want 1 (commands after quit are ignored)", n)
	}
}

func TestGoPlaysTspin(t *testing.T) {
	var decided []engine.Decision
	var out bytes.Buffer
	p := New(engine.NewEngine(eval.Default(), engine.Options{Workers: 2}), &out)
	p.OnDecision = func(d engine.Decision) { decided = append(decided, d) }

	script := "state " + tspinState + "\ngo\ngo\nd\n"
	if err := p.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatal(err)
	}

	ls := lines(out.String())
	var best []string
	for _, l := range ls {
		if strings.HasPrefix(l, "bestmove ") {
			best = append(best, strings.TrimPrefix(l, "bestmove "))
		}
	}
	if len(best) != 2 {
		t.Fatalf("bestmove lines %v\n%s", best, out.String())
	}
	if !strings.HasSuffix(best[0], "Cw") && !strings.HasSuffix(best[0], "Ccw") {
		t.Errorf("first move %q does not end in a spin", best[0])
	}
	if best[1] != "none" {
		t.Errorf("second move %q, want none with an empty queue", best[1])
	}
	if !strings.Contains(out.String(), "kind Tspin2") {
		t.Errorf("info line missing kind:\n%s", out.String())
	}
	if len(decided) != 1 {
		t.Fatalf("OnDecision called %d times", len(decided))
	}

	// Two rows cleared leaves the lone block at row 0.
	s := p.State()
	if s == nil || s.Board.CountCells() != 1 || !s.Board.Occupied(3, 0) {
		t.Errorf("state after go:\n%v", s.Board)
	}
	if !s.Board.B2B {
		t.Error("back-to-back not set after a T-spin double")
	}
	if !strings.Contains(out.String(), "piece - hold - next []") {
		t.Errorf("d output:\n%s", out.String())
	}
}

func TestWeightsAndPreset(t *testing.T) {
	p, out := run(t, "preset fast\nweights {\"clear4\": 5, \"sub_name\": \"mine\"}\nd\n")
	w := p.engine.Weights()
	if w.Clear4 != 5 || w.Tspin3 != eval.Fast().Tspin3 {
		t.Errorf("weights = %+v", w)
	}
	if p.weights != "mine" {
		t.Errorf("label = %q", p.weights)
	}
	if !strings.Contains(out, "no state") {
		t.Errorf("d without state:\n%s", out)
	}
}

func TestErrorsKeepSession(t *testing.T) {
	_, out := run(t, "preset nope\nweights {bad\nstate {\"piece\":\"Q\"}\nfrobnicate\neval\nisready\n")
	if n := strings.Count(out, "info string error:"); n != 5 {
		t.Errorf("%d errors reported, want 5:\n%s", n, out)
	}
	if !strings.HasSuffix(out, "readyok\n") {
		t.Errorf("session did not continue:\n%s", out)
	}
}

func TestEvalAndMarshal(t *testing.T) {
	p, out := run(t, "state "+tspinState+"\neval\n")
	if !strings.Contains(out, "eval transient ") || !strings.Contains(out, "height 3") {
		t.Errorf("eval output:\n%s", out)
	}
	data, err := p.MarshalState()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"piece":"T"`) {
		t.Errorf("MarshalState = %s", data)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(engine.NewEngine(eval.Default(), engine.Options{Workers: 1}), &bytes.Buffer{})
	if err := p.Run(ctx, strings.NewReader("isready\n")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
