package img2glyph

import (
	"image"
	"testing"

	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/wbrown/img2glyph/imageutil"
)

const testGlyphHeight = 14

// blankGlyph returns a white glyph bitmap.
func blankGlyph(w int) *imageutil.GrayImage {
	return imageutil.NewFilledGrayImage(w, testGlyphHeight, 255)
}

// barGlyph returns a white glyph with black columns [x0, x1).
func barGlyph(w, x0, x1 int) *imageutil.GrayImage {
	g := blankGlyph(w)
	for y := 0; y < testGlyphHeight; y++ {
		for x := x0; x < x1; x++ {
			g.SetGrayValue(x, y, 0)
		}
	}
	return g
}

// scenarioLibrary is {space w=8, 'A' w=10, solo filler w=20}.
func scenarioLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := NewLibrary(
		[]*imageutil.GrayImage{blankGlyph(8), barGlyph(10, 3, 7), barGlyph(20, 2, 18)},
		[]Flag{{Kind: FlagDefault}, {Kind: FlagDefault}, {Kind: FlagFillerSolo}},
		[]rune{' ', 'A', '#'},
	)
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	return lib
}

// renderRune rasterises r from Go Regular into a white w x 14 bitmap.
func renderRune(t *testing.T, r rune, w int) *imageutil.GrayImage {
	t.Helper()
	ttf, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseFont failed: %v", err)
	}
	alpha := image.NewAlpha(image.Rect(0, 0, w, testGlyphHeight))
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(ttf)
	ctx.SetFontSize(12)
	ctx.SetClip(alpha.Bounds())
	ctx.SetDst(alpha)
	ctx.SetSrc(image.White)
	ctx.SetHinting(font.HintingFull)
	if _, err := ctx.DrawString(string(r), freetype.Pt(0, 11)); err != nil {
		t.Fatalf("DrawString failed: %v", err)
	}

	g := imageutil.NewGrayImage(w, testGlyphHeight)
	for y := 0; y < testGlyphHeight; y++ {
		for x := 0; x < w; x++ {
			g.SetGrayValue(x, y, 255-alpha.AlphaAt(x, y).A)
		}
	}
	return g
}

func inkPixels(g *imageutil.GrayImage) int {
	n := 0
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.GetGray(x, y) < 128 {
				n++
			}
		}
	}
	return n
}
