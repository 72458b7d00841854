package ui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/hailam/tetrisplay/internal/game"
)

// Panel dimensions
const (
	PanelPadding   = 20
	SectionSpacing = 26
	LineHeight     = 20
)

// Panel colors
var (
	panelBg        = color.RGBA{38, 40, 45, 255}
	textPrimary    = color.RGBA{240, 240, 245, 255}
	textSecondary  = color.RGBA{160, 165, 175, 255}
	textMuted      = color.RGBA{120, 125, 135, 255}
	dividerColor   = color.RGBA{60, 65, 72, 255}
	statusGameOver = color.RGBA{255, 200, 80, 255}
)

// Panel is the side panel: hold, queue, counters and the last decision.
type Panel struct {
	game  *Game
	x     int
	scale float64
}

// NewPanel creates a panel starting at screen x.
func NewPanel(g *Game, x int) *Panel {
	return &Panel{game: g, x: x, scale: 1}
}

// SetScale sets the HiDPI scale factor.
func (p *Panel) SetScale(scale float64) {
	p.scale = scale
}

// Draw renders the panel.
func (p *Panel) Draw(screen *ebiten.Image, r *Renderer) {
	g := p.game
	sc := float32(p.scale)
	vector.DrawFilledRect(screen, float32(p.x)*sc, 0, float32(ScreenWidth-p.x)*sc, float32(ScreenHeight)*sc, panelBg, false)

	x := p.x + PanelPadding
	y := PanelPadding
	state := g.session.State()
	sprites := r.Sprites()

	p.drawTitle(screen, "HOLD", x, y)
	y += LineHeight + 4
	sprites.DrawPieceAt(screen, state.Board.Hold, int(float64(x)*p.scale), int(float64(y)*p.scale), false)
	y += sprites.Height() + SectionSpacing

	p.drawTitle(screen, "NEXT", x, y)
	y += LineHeight + 4
	sprites.DrawPieceAt(screen, state.Current, int(float64(x)*p.scale), int(float64(y)*p.scale), false)
	y += sprites.Height() + 6
	for _, q := range state.Board.Queue {
		sprites.DrawPieceAt(screen, q, int(float64(x)*p.scale), int(float64(y)*p.scale), true)
		y += sprites.Height() + 6
	}
	y += SectionSpacing - 6

	p.drawDivider(screen, y-SectionSpacing/2)
	c := g.session.Counters
	rows := []string{
		fmt.Sprintf("Pieces   %d", c.Pieces),
		fmt.Sprintf("Lines    %d", c.Lines),
		fmt.Sprintf("T-spins  %d", c.Tspins),
		fmt.Sprintf("PCs      %d", c.PerfectClears),
		fmt.Sprintf("Garbage  %d", c.GarbageSent),
		fmt.Sprintf("Combo    %d", c.MaxCombo),
	}
	for _, row := range rows {
		p.drawText(screen, row, x, y, textPrimary)
		y += LineHeight
	}
	y += SectionSpacing / 2

	if d := g.session.Last(); d != nil {
		p.drawText(screen, fmt.Sprintf("%s %s", d.Piece, d.PlacementKind), x, y, textSecondary)
		y += LineHeight
		p.drawText(screen, fmt.Sprintf("score %d (%d / %d)", d.Total, d.Score.Transient, d.Score.Accumulated), x, y, textSecondary)
		y += LineHeight
		p.drawText(screen, strings.Join(d.Inputs, " "), x, y, textMuted)
	}

	p.drawStatusBar(screen)
}

func (p *Panel) drawStatusBar(screen *ebiten.Image) {
	g := p.game
	x := p.x + PanelPadding
	y := ScreenHeight - 64
	p.drawDivider(screen, y-10)

	p.drawText(screen, fmt.Sprintf("%s  seed %d  %d/s", g.presetName, g.session.Seed(), g.speed), x, y, textSecondary)

	var status string
	var c color.RGBA
	switch {
	case g.session.Finished():
		status, c = "Finished (R to restart)", textPrimary
	case g.session.Over():
		status, c = "Game over (R to restart)", statusGameOver
	case g.paused:
		status, c = "Paused (space, N to step)", textPrimary
	case g.session.Mode() == game.Sprint:
		status, c = fmt.Sprintf("Sprint, %d lines left", g.session.LinesLeft()), textPrimary
	case g.session.Mode() == game.Blitz:
		status, c = fmt.Sprintf("Blitz, %s left", g.session.TimeLeft().Truncate(time.Second)), textPrimary
	default:
		status, c = "Playing", textPrimary
	}
	p.drawText(screen, status, x, y+22, c)
}

func (p *Panel) drawDivider(screen *ebiten.Image, y int) {
	sc := float32(p.scale)
	vector.DrawFilledRect(screen, float32(p.x+PanelPadding)*sc, float32(y)*sc,
		float32(ScreenWidth-p.x-2*PanelPadding)*sc, sc, dividerColor, false)
}

func (p *Panel) drawTitle(screen *ebiten.Image, s string, x, y int) {
	p.drawWith(screen, GetBoldFace(), s, x, y, textMuted)
}

func (p *Panel) drawText(screen *ebiten.Image, s string, x, y int, c color.Color) {
	p.drawWith(screen, GetRegularFace(), s, x, y, c)
}

func (p *Panel) drawWith(screen *ebiten.Image, face *text.GoTextFace, s string, x, y int, c color.Color) {
	if face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.GeoM.Scale(p.scale, p.scale)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, face, op)
}
