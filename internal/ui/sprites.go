package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/render"
)

// SpriteManager holds the hold and queue preview sprites.
type SpriteManager struct {
	pieces      [board.NoPiece]*ebiten.Image
	cell        int     // display size of one cell
	renderScale float64 // render at higher resolution for quality
	scale       float64 // HiDPI scale factor
}

// NewSpriteManager rasterises a preview of every piece kind.
func NewSpriteManager(cell int) *SpriteManager {
	sm := &SpriteManager{cell: cell, renderScale: 3.0, scale: 1.0}
	sm.loadPieces()
	return sm
}

func (sm *SpriteManager) loadPieces() {
	renderCell := int(float64(sm.cell) * sm.renderScale)
	for _, kind := range board.AllPieces.Pieces() {
		rgba, err := render.Rasterize(render.PieceSVG(kind, renderCell), 4*renderCell, 2*renderCell)
		if err != nil {
			log.Error().Err(err).Stringer("piece", kind).Msg("rasterise sprite")
			continue
		}
		sm.pieces[kind] = ebiten.NewImageFromImage(rgba)
	}
}

// SetScale sets the HiDPI scale factor.
func (sm *SpriteManager) SetScale(scale float64) {
	sm.scale = scale
}

// Width and Height return the display size of a sprite.
func (sm *SpriteManager) Width() int  { return 4 * sm.cell }
func (sm *SpriteManager) Height() int { return 2 * sm.cell }

// DrawPieceAt draws the preview of p with its top-left corner at (x, y).
func (sm *SpriteManager) DrawPieceAt(screen *ebiten.Image, p board.Piece, x, y int, dim bool) {
	if p >= board.NoPiece || sm.pieces[p] == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	scale := sm.scale / sm.renderScale
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(x), float64(y))
	op.Filter = ebiten.FilterLinear
	if dim {
		op.ColorScale.ScaleAlpha(0.4)
	}
	screen.DrawImage(sm.pieces[p], op)
}
