// Package protocol implements the bot's line protocol, a UCI-style text
// dialogue on a pair of streams:
//
//	tbp                 identify, list options, reply tbpok
//	isready             reply readyok
//	newgame             clear caches and forget the state
//	preset <name>       switch to a named weight preset
//	weights <json>      overlay weight fields on the current weights
//	state <json>        set the game state (input.json format)
//	go                  decide, print the move and advance the state
//	eval                print the evaluation of the current board
//	d                   print the state
//	quit                stop reading
package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/engine"
	"github.com/hailam/tetrisplay/internal/eval"
)

// Protocol is one protocol session.
type Protocol struct {
	engine *engine.Engine
	out    io.Writer

	state   *board.State
	weights string // name reported by "d"

	// OnDecision is called after every "go" that produced a move.
	OnDecision func(engine.Decision)
}

// New creates a protocol handler writing replies to out.
func New(eng *engine.Engine, out io.Writer) *Protocol {
	return &Protocol{
		engine:  eng,
		out:     out,
		weights: label(eng.Weights()),
	}
}

func label(w eval.Weights) string {
	if name := w.Name(); name != "" {
		return name
	}
	return "custom"
}

// State returns the current state, or nil before "state".
func (p *Protocol) State() *board.State {
	return p.state
}

// Run reads commands from in until "quit", EOF or ctx is done.
func (p *Protocol) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "tbp":
			p.handleTBP()
		case "isready":
			p.println("readyok")
		case "newgame":
			p.engine.Clear()
			p.state = nil
		case "preset":
			p.handlePreset(rest)
		case "weights":
			p.handleWeights(rest)
		case "state":
			p.handleState(rest)
		case "go":
			p.handleGo(ctx)
		case "eval":
			p.handleEval()
		case "d":
			p.handleD()
		case "quit":
			return nil
		default:
			p.errorf("unknown command %q", cmd)
		}
	}
	return scanner.Err()
}

func (p *Protocol) println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// errorf reports a failed command without ending the session.
func (p *Protocol) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Warn().Msg(msg)
	fmt.Fprintf(p.out, "info string error: %s\n", msg)
}

func (p *Protocol) handleTBP() {
	p.println("id name TetrisPlay")
	p.println("id author TetrisPlay Team")
	p.println()
	p.println("option name preset type combo default default var " + strings.Join(eval.PresetNames(), " var "))
	p.println("option name weights type json")
	p.println("tbpok")
}

func (p *Protocol) handlePreset(name string) {
	w, err := eval.Preset(name)
	if err != nil {
		p.errorf("%v", err)
		return
	}
	p.engine.SetWeights(w)
	p.weights = name
}

func (p *Protocol) handleWeights(data string) {
	w, err := eval.ParseWeightsOver(p.engine.Weights(), []byte(data))
	if err != nil {
		p.errorf("weights: %v", err)
		return
	}
	p.engine.SetWeights(w)
	p.weights = label(w)
}

func (p *Protocol) handleState(data string) {
	s, err := board.ParseState([]byte(data))
	if err != nil {
		p.errorf("state: %v", err)
		return
	}
	p.state = s
}

// handleGo decides for the current state, prints
//
//	info candidates <n> score <total> kind <kind> time <ms> hitrate <r>
//	bestmove <input> ...
//
// and then plays the move: the board becomes the resulting board and the
// next queued piece comes into hand.
func (p *Protocol) handleGo(ctx context.Context) {
	if p.state == nil || p.state.Current == board.NoPiece {
		p.println("bestmove none")
		p.errorf("go: no piece in hand")
		return
	}

	var info engine.SearchInfo
	p.engine.OnInfo = func(i engine.SearchInfo) { info = i }
	defer func() { p.engine.OnInfo = nil }()

	d, err := p.engine.Decide(ctx, p.state)
	if err != nil {
		p.println("bestmove none")
		if !errors.Is(err, engine.ErrNoPlacements) {
			p.errorf("go: %v", err)
		}
		return
	}

	fmt.Fprintf(p.out, "info candidates %d score %d kind %s time %d hitrate %.2f\n",
		info.Candidates, d.Total, d.PlacementKind, info.Time.Milliseconds(), info.CacheHitRate)
	p.println("bestmove " + strings.Join(d.Inputs, " "))

	if p.OnDecision != nil {
		p.OnDecision(d)
	}
	next := d.Board.Clone()
	p.state = &board.State{Board: next, Current: next.PopNext()}
}

func (p *Protocol) handleEval() {
	if p.state == nil {
		p.errorf("eval: no state")
		return
	}
	b := p.state.Board
	w := p.engine.Weights()
	score := p.engine.Evaluate(b, board.LockResult{}, 0, board.NoPiece)
	bonus, steps := w.TslotBonus(b)
	fmt.Fprintf(p.out, "eval transient %d tslot %d chain %d height %d\n",
		score.Transient, bonus, steps, b.MaxHeight())
}

func (p *Protocol) handleD() {
	if p.state == nil {
		p.println("no state")
		return
	}
	b := p.state.Board
	fmt.Fprint(p.out, b.String())
	queue := make([]string, len(b.Queue))
	for i, q := range b.Queue {
		queue[i] = q.String()
	}
	fmt.Fprintf(p.out, "piece %v hold %v next [%s] bag %v b2b %v combo %d weights %s\n",
		p.state.Current, b.Hold, strings.Join(queue, " "), b.Bag, b.B2B, b.Combo, p.weights)
}

// MarshalState returns the current state in input.json form.
func (p *Protocol) MarshalState() ([]byte, error) {
	if p.state == nil {
		return nil, errors.New("no state")
	}
	return json.Marshal(p.state.ToJSON())
}
