// Package render draws boards as SVG and rasterises them with oksvg.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"

	"github.com/hailam/tetrisplay/internal/board"
)

const (
	DefaultCell = 24
	minRows     = 20
)

// Palette
var (
	Background = color.RGBA{0x1b, 0x1b, 0x22, 0xff}
	Filled     = color.RGBA{0x8a, 0x8a, 0x96, 0xff}
	pieceColor = [7]color.RGBA{
		board.I: {0x31, 0xc7, 0xef, 0xff},
		board.O: {0xf7, 0xd3, 0x08, 0xff},
		board.T: {0xad, 0x4d, 0x9c, 0xff},
		board.L: {0xef, 0x79, 0x21, 0xff},
		board.J: {0x5a, 0x65, 0xad, 0xff},
		board.S: {0x42, 0xb6, 0x42, 0xff},
		board.Z: {0xef, 0x20, 0x29, 0xff},
	}
)

// PieceColor returns the display colour of a piece kind.
func PieceColor(p board.Piece) color.RGBA {
	if p >= board.NoPiece {
		return Filled
	}
	return pieceColor[p]
}

// Options controls what is drawn.
type Options struct {
	Cell  int                 // pixels per cell, 0 = DefaultCell
	Rows  int                 // rows shown from the floor, 0 = fit the stack
	Piece *board.FallingPiece // overlaid in its own colour
}

func (o Options) cell() int {
	if o.Cell <= 0 {
		return DefaultCell
	}
	return o.Cell
}

// VisibleRows returns how many rows are drawn for b.
func (o Options) VisibleRows(b *board.Board) int {
	if o.Rows > 0 {
		return min(o.Rows, board.Height)
	}
	rows := max(minRows, b.MaxHeight()+2)
	if o.Piece != nil {
		for _, c := range o.Piece.Cells() {
			rows = max(rows, c.Y+2)
		}
	}
	return min(rows, board.Height)
}

// Size returns the pixel size of the drawing.
func (o Options) Size(b *board.Board) (w, h int) {
	return board.Width * o.cell(), o.VisibleRows(b) * o.cell()
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// SVG draws b with one rect per filled cell.
func SVG(b *board.Board, opts Options) []byte {
	cell := opts.cell()
	rows := opts.VisibleRows(b)
	w, h := opts.Size(b)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`+"\n", w, h, hex(Background))

	rect := func(x, y int, c color.RGBA) {
		if y < 0 || y >= rows {
			return
		}
		fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n",
			x*cell+1, (rows-1-y)*cell+1, cell-2, cell-2, hex(c))
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < board.Width; x++ {
			if b.Occupied(x, y) {
				rect(x, y, Filled)
			}
		}
	}
	if opts.Piece != nil {
		for _, c := range opts.Piece.Cells() {
			rect(c.X, c.Y, PieceColor(opts.Piece.Kind))
		}
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// PieceSVG draws a lone North-facing piece in a 4x2 cell box, as used
// for hold and queue previews.
func PieceSVG(kind board.Piece, cell int) []byte {
	if cell <= 0 {
		cell = DefaultCell
	}
	w, h := 4*cell, 2*cell
	p := board.FallingPiece{Kind: kind, Rot: board.North, X: 1, Y: 0}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", w, h, w, h)
	for _, c := range p.Cells() {
		fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n",
			c.X*cell+1, (1-c.Y)*cell+1, cell-2, cell-2, hex(PieceColor(kind)))
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// Rasterize renders an SVG document at w x h pixels.
func Rasterize(svg []byte, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return rgba, nil
}

// Image renders b at its natural size.
func Image(b *board.Board, opts Options) (*image.RGBA, error) {
	w, h := opts.Size(b)
	return Rasterize(SVG(b, opts), w, h)
}

// Thumbnail scales src to the given width, keeping its aspect ratio.
func Thumbnail(src image.Image, width int) *image.RGBA {
	sb := src.Bounds()
	if width <= 0 || sb.Dx() == 0 {
		width = sb.Dx()
	}
	height := max(1, sb.Dy()*width/max(1, sb.Dx()))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	return dst
}

// WritePNG renders b and writes it as a PNG, scaled to width when width > 0.
func WritePNG(w io.Writer, b *board.Board, opts Options, width int) error {
	img, err := Image(b, opts)
	if err != nil {
		return err
	}
	var out image.Image = img
	if width > 0 && width != img.Bounds().Dx() {
		out = Thumbnail(img, width)
	}
	return png.Encode(w, out)
}
