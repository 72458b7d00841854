package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/render"
)

// Theme defines the colour scheme of the playfield.
type Theme struct {
	Background color.RGBA
	Well       color.RGBA
	Grid       color.RGBA
	Filled     color.RGBA
	Danger     color.RGBA
	TextColor  color.RGBA
}

// DefaultTheme returns the default color theme.
func DefaultTheme() *Theme {
	return &Theme{
		Background: color.RGBA{40, 44, 52, 255},
		Well:       render.Background,
		Grid:       color.RGBA{36, 36, 44, 255},
		Filled:     render.Filled,
		Danger:     color.RGBA{255, 100, 100, 40},
		TextColor:  color.RGBA{220, 220, 220, 255},
	}
}

// Renderer draws the well and its contents.
type Renderer struct {
	sprites  *SpriteManager
	theme    *Theme
	cellSize int
	x, y     int // top-left corner of the well
	scale    float64
}

// NewRenderer creates a renderer for a well at (x, y).
func NewRenderer(x, y, cellSize int) *Renderer {
	return &Renderer{
		sprites:  NewSpriteManager(cellSize / 2),
		theme:    DefaultTheme(),
		cellSize: cellSize,
		x:        x,
		y:        y,
		scale:    1.0,
	}
}

// SetScale sets the HiDPI scale factor for rendering.
func (r *Renderer) SetScale(scale float64) {
	r.scale = scale
	r.sprites.SetScale(scale)
}

// Theme returns the current theme.
func (r *Renderer) Theme() *Theme {
	return r.theme
}

// Sprites returns the preview sprites.
func (r *Renderer) Sprites() *SpriteManager {
	return r.sprites
}

func (r *Renderer) s(v int) float32 {
	return float32(float64(v) * r.scale)
}

// cellRect returns the screen rectangle of board cell (x, y).
func (r *Renderer) cellRect(x, y int) (float32, float32, float32) {
	px := r.x + x*r.cellSize
	py := r.y + (VisibleRows-1-y)*r.cellSize
	return r.s(px + 1), r.s(py + 1), r.s(r.cellSize - 2)
}

// DrawWell draws the empty well, shading the rows above the danger line.
func (r *Renderer) DrawWell(screen *ebiten.Image) {
	w, h := board.Width*r.cellSize, VisibleRows*r.cellSize
	vector.DrawFilledRect(screen, r.s(r.x), r.s(r.y), r.s(w), r.s(h), r.theme.Well, false)
	for y := 0; y < VisibleRows; y++ {
		for x := 0; x < board.Width; x++ {
			px, py, size := r.cellRect(x, y)
			c := r.theme.Grid
			if y >= 20 {
				c = r.theme.Danger
			}
			vector.DrawFilledRect(screen, px+size/2-1, py+size/2-1, 2, 2, c, false)
		}
	}
}

// DrawBoard draws the filled cells of b.
func (r *Renderer) DrawBoard(screen *ebiten.Image, b *board.Board) {
	for y := 0; y < VisibleRows; y++ {
		for x := 0; x < board.Width; x++ {
			if b.Occupied(x, y) {
				px, py, size := r.cellRect(x, y)
				vector.DrawFilledRect(screen, px, py, size, size, r.theme.Filled, false)
			}
		}
	}
}

// DrawPiece draws p in its colour. alpha fades it for ghosts.
func (r *Renderer) DrawPiece(screen *ebiten.Image, p board.FallingPiece, alpha uint8) {
	pc := render.PieceColor(p.Kind)
	c := color.NRGBA{pc.R, pc.G, pc.B, alpha}
	for _, cell := range p.Cells() {
		if cell.Y < 0 || cell.Y >= VisibleRows {
			continue
		}
		px, py, size := r.cellRect(cell.X, cell.Y)
		vector.DrawFilledRect(screen, px, py, size, size, c, false)
	}
}
