package render

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/hailam/tetrisplay/internal/board"
)

func near(a, b color.RGBA) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) <= 2 && d(a.G, b.G) <= 2 && d(a.B, b.B) <= 2
}

func TestVisibleRows(t *testing.T) {
	tests := []struct {
		name string
		b    *board.Board
		opts Options
		want int
	}{
		{"empty", board.New(), Options{}, 20},
		{"fixed", board.New(), Options{Rows: 8}, 8},
		{"capped", board.New(), Options{Rows: 99}, board.Height},
		{"tall stack", tower(25), Options{}, 27},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.opts.VisibleRows(tc.b); got != tc.want {
				t.Errorf("VisibleRows = %d, want %d", got, tc.want)
			}
		})
	}
}

func tower(h int) *board.Board {
	b := board.New()
	for y := 0; y < h; y++ {
		b.Set(0, y, true)
	}
	return b
}

func TestSVGRects(t *testing.T) {
	b := board.FromRows("##.....###")
	p := board.FallingPiece{Kind: board.T, Rot: board.North, X: 4, Y: 1}
	svg := string(SVG(b, Options{Piece: &p}))

	// background + 5 filled cells + 4 piece cells
	if n := strings.Count(svg, "<rect"); n != 10 {
		t.Errorf("%d rects, want 10", n)
	}
	if !strings.Contains(svg, hex(PieceColor(board.T))) {
		t.Error("piece colour missing")
	}
}

func TestImagePixels(t *testing.T) {
	b := board.FromRows("#.........")
	opts := Options{Cell: 10, Rows: 4}
	img, err := Image(b, opts)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 40 {
		t.Fatalf("size %v", img.Bounds())
	}
	// Cell (0,0) is the bottom-left square.
	if got := img.RGBAAt(5, 35); !near(got, Filled) {
		t.Errorf("filled cell = %v, want %v", got, Filled)
	}
	if got := img.RGBAAt(15, 35); !near(got, Background) {
		t.Errorf("empty cell = %v, want %v", got, Background)
	}
}

func TestThumbnail(t *testing.T) {
	img, err := Image(board.New(), Options{Cell: 20})
	if err != nil {
		t.Fatal(err)
	}
	th := Thumbnail(img, 50)
	if th.Bounds().Dx() != 50 || th.Bounds().Dy() != 100 {
		t.Errorf("thumbnail %v, want 50x100", th.Bounds())
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, board.FromRows("####..####"), Options{Cell: 8}, 40); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 40 {
		t.Errorf("width %d, want 40", img.Bounds().Dx())
	}
}

func TestPieceSVG(t *testing.T) {
	for _, kind := range board.AllPieces.Pieces() {
		svg := PieceSVG(kind, 10)
		if n := strings.Count(string(svg), "<rect"); n != 4 {
			t.Errorf("%v: %d rects", kind, n)
		}
		img, err := Rasterize(svg, 40, 20)
		if err != nil {
			t.Fatalf("%v: %v", kind, err)
		}
		// Every North piece covers the anchor cell, column 1 of the bottom row.
		if got := img.RGBAAt(15, 15); !near(got, PieceColor(kind)) {
			t.Errorf("%v: anchor pixel %v", kind, got)
		}
	}
}
