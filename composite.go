package img2glyph

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/wbrown/img2glyph/imageutil"
)

// draw copies sym into the line at column pos. Fillers go to the fill
// strip when split fill is on, and take the local source colour when
// colour output is on.
func (m *lineMatcher) draw(sym *imageutil.GrayImage, pos int, filler bool) {
	dst := m.rendered
	if filler && m.fill != nil {
		dst = m.fill
	}
	dark := m.cfg.DarkBackground

	tinted := filler && m.cfg.Colored && m.in.Color != nil
	var tint imageutil.RGB
	if tinted {
		tint = footprintColor(m.in.Color, pos, sym.Width(), m.cfg.ColorBias)
	}

	w := min(sym.Width(), m.width-pos)
	for y := 0; y < sym.Height() && y < m.rows; y++ {
		for x := 0; x < w; x++ {
			v := sym.GetGray(x, y)
			if dark {
				v = 255 - v
			}
			px := imageutil.RGB{R: v, G: v, B: v}
			if tinted {
				px = combineInk(px, tint, dark)
			}
			dst.SetRGB(pos+x, y, px)
		}
	}
}

// combineInk keeps the glyph's shape while adopting tint. On a dark
// background ink is white, so AND passes the tint through the ink only;
// on a light background ink is black, so OR does the same.
func combineInk(px, tint imageutil.RGB, dark bool) imageutil.RGB {
	if dark {
		return imageutil.RGB{R: px.R & tint.R, G: px.G & tint.G, B: px.B & tint.B}
	}
	return imageutil.RGB{R: px.R | tint.R, G: px.G | tint.G, B: px.B | tint.B}
}

// footprintColor averages the source colour under columns [x, x+w) of
// the line and brightens it by bias.
func footprintColor(src *imageutil.RGBAImage, x, w int, bias uint8) imageutil.RGB {
	x1 := min(x+w, src.Width())
	var sum colorful.Color
	n := 0
	for y := 0; y < src.Height(); y++ {
		for cx := max(x, 0); cx < x1; cx++ {
			c, _ := colorful.MakeColor(src.RGBAAt(cx, y))
			sum.R += c.R
			sum.G += c.G
			sum.B += c.B
			n++
		}
	}
	if n == 0 {
		return imageutil.RGB{}
	}
	b := float64(bias) / 255
	avg := colorful.Color{
		R: sum.R/float64(n) + b,
		G: sum.G/float64(n) + b,
		B: sum.B/float64(n) + b,
	}.Clamped()
	r, g, bl := avg.RGB255()
	return imageutil.RGB{R: r, G: g, B: bl}
}

// grayColor is the RGBA of gray level v.
func grayColor(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}
