package ui

import (
	"context"
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/engine"
	"github.com/hailam/tetrisplay/internal/eval"
	"github.com/hailam/tetrisplay/internal/game"
	"github.com/hailam/tetrisplay/internal/storage"
)

// UI Constants
const (
	CellSize     = 28
	VisibleRows  = 22
	WellX        = 20
	WellY        = 12
	PanelX       = WellX + board.Width*CellSize + 20
	ScreenWidth  = PanelX + 240
	ScreenHeight = WellY + VisibleRows*CellSize + 12
)

const (
	minSpeed = 1
	maxSpeed = 30
)

// Options configures the viewer.
type Options struct {
	Seed    uint64
	Preset  string
	Weights *eval.Weights // overrides Preset when set
	Workers int
	CacheMB int
	Speed   int              // pieces per second
	Store   *storage.Storage // optional, receives decision stats
	Mode    game.Mode
}

// Game implements ebiten.Game: the engine plays, the viewer watches.
type Game struct {
	engine     *engine.Engine
	session    *game.Session
	store      *storage.Storage
	presetName string

	speed    int
	paused   bool
	lastStep time.Time
	prev     *board.Board // board before the last placement

	renderer *Renderer
	input    *InputHandler
	panel    *Panel
	feedback *FeedbackManager

	scale float64
}

// NewGame creates a viewer for a fresh self-play game.
func NewGame(opts Options) *Game {
	name := opts.Preset
	if name == "" {
		name = "default"
	}
	w, err := eval.Preset(name)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to the default preset")
		name, w = "default", eval.Default()
	}
	if opts.Weights != nil {
		name, w = "custom", *opts.Weights
	}
	speed := opts.Speed
	if speed <= 0 {
		speed = 4
	}

	eng := engine.NewEngine(w, engine.Options{Workers: opts.Workers, CacheMB: opts.CacheMB})
	g := &Game{
		engine:     eng,
		session:    game.NewSession(eng, opts.Seed, game.DefaultPreview),
		store:      opts.Store,
		presetName: name,
		speed:      max(minSpeed, min(maxSpeed, speed)),
		renderer:   NewRenderer(WellX, WellY, CellSize),
		input:      NewInputHandler(),
		feedback:   NewFeedbackManager(),
		scale:      1,
	}
	g.session.SetMode(opts.Mode)
	g.panel = NewPanel(g, PanelX)
	return g
}

// Update handles input and steps the game at the configured speed.
func (g *Game) Update() error {
	g.input.Update()
	g.feedback.Update()

	for _, a := range g.input.Actions() {
		switch a {
		case ActionPause:
			g.paused = !g.paused
		case ActionStep:
			if g.paused {
				g.step()
			}
		case ActionRestart:
			g.session.Reset(g.session.Seed() + 1)
			g.prev = nil
			g.engine.Clear()
		case ActionFaster:
			g.speed = min(maxSpeed, g.speed+1)
		case ActionSlower:
			g.speed = max(minSpeed, g.speed-1)
		case ActionPreset:
			g.nextPreset()
		case ActionMute:
			am := g.feedback.Audio()
			am.SetEnabled(!am.IsEnabled())
		}
	}

	if !g.paused && !g.session.Over() && time.Since(g.lastStep) >= time.Second/time.Duration(g.speed) {
		g.step()
	}
	return nil
}

func (g *Game) nextPreset() {
	names := eval.PresetNames()
	next := names[0]
	for i, n := range names {
		if n == g.presetName && i+1 < len(names) {
			next = names[i+1]
		}
	}
	w, _ := eval.Preset(next)
	g.engine.SetWeights(w)
	g.presetName = next
}

// step plays one piece. Decisions take milliseconds, so they run on the
// update goroutine and Draw never sees a half-applied state.
func (g *Game) step() {
	g.lastStep = time.Now()
	before := g.session.State().Board

	d, err := g.session.Step(context.Background())
	if errors.Is(err, game.ErrGameOver) {
		g.feedback.OnTopOut(g.session.Pieces)
		return
	}
	if errors.Is(err, game.ErrFinished) {
		g.feedback.OnFinished(g.session.Mode(), g.session.Pieces, g.session.Lines)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("step")
		return
	}
	g.prev = before

	perfect := d.LinesCleared > 0 && d.Board.IsEmpty()
	g.feedback.OnDecision(d, perfect)

	if g.store != nil {
		rec := storage.DecisionRecord{
			Kind:         d.PlacementKind,
			Lines:        d.LinesCleared,
			Tspin:        d.Tspin != board.TspinNone.String(),
			PerfectClear: perfect,
			UsedHold:     d.UsedHold,
			Total:        d.Total,
		}
		if err := g.store.RecordDecision(rec); err != nil {
			log.Warn().Err(err).Msg("record decision")
		}
	}
}

// Draw renders the well, the last placement and the panel.
func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.SetScale(g.scale)
	g.panel.SetScale(g.scale)

	screen.Fill(g.renderer.Theme().Background)
	g.renderer.DrawWell(screen)

	// Show the last piece where it landed; after a clear the rows have
	// moved, so show the pre-clear board with the piece instead.
	if d := g.session.Last(); d != nil && d.LinesCleared > 0 && g.prev != nil {
		g.renderer.DrawBoard(screen, g.prev)
		g.renderer.DrawPiece(screen, lastPiece(d), 255)
	} else {
		g.renderer.DrawBoard(screen, g.session.State().Board)
		if d != nil {
			g.renderer.DrawPiece(screen, lastPiece(d), 255)
		}
	}

	g.feedback.Draw(screen, float64(WellX+board.Width*CellSize/2), g.scale)
	g.panel.Draw(screen, g.renderer)
}

func lastPiece(d *engine.Decision) board.FallingPiece {
	kind, _ := board.ParsePiece(d.Piece)
	return board.FallingPiece{Kind: kind, Rot: board.Rotation(d.Rotation), X: d.X, Y: d.Y}
}

// Layout returns the game's screen dimensions, scaled for HiDPI displays.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.scale = ebiten.Monitor().DeviceScaleFactor()
	if g.scale < 1.0 {
		g.scale = 1.0
	}
	return int(float64(ScreenWidth) * g.scale), int(float64(ScreenHeight) * g.scale)
}
