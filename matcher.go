package img2glyph

import (
	"fmt"
	"math"

	"github.com/wbrown/img2glyph/imageutil"
)

// LineInput is one horizontal strip of a frame. Threshold is required;
// Gray enables filler substitution, Secondary suppresses it over
// contours, Color tints fillers when colour output is enabled.
type LineInput struct {
	Threshold *imageutil.GrayImage
	Gray      *imageutil.GrayImage
	Secondary *imageutil.GrayImage
	Color     *imageutil.RGBAImage
	Frame     int
	Line      int
}

// Placement records one glyph drawn into a line.
type Placement struct {
	X       int
	Glyph   int
	Variant Variant
	Filler  bool
}

// LineResult holds the outputs of one strip. Fill is nil unless split
// fill output is enabled; Text is empty when the library has no code
// points.
type LineResult struct {
	Rendered   *imageutil.RGBAImage
	Fill       *imageutil.RGBAImage
	Text       string
	Placements []Placement
}

// lineMatcher is the working state of one strip. It is created per
// strip and used by a single goroutine.
type lineMatcher struct {
	lib   *Library
	cfg   *Config
	rings []*FillerRing
	in    LineInput

	width, rows int

	rendered *imageutil.RGBAImage
	fill     *imageutil.RGBAImage
	text     []rune
	placed   []Placement
}

// ProcessLine greedily covers one strip with glyphs from lib, left to
// right. rings are the line's own phased filler rings, one per filler
// group, and must not be shared with another line.
func ProcessLine(lib *Library, rings []*FillerRing, cfg *Config, in LineInput) (*LineResult, error) {
	if err := checkLine(lib, cfg, in); err != nil {
		return nil, err
	}
	m := &lineMatcher{
		lib:   lib,
		cfg:   cfg,
		rings: rings,
		in:    in,
		width: in.Threshold.Width(),
		rows:  in.Threshold.Height(),
	}
	bg := m.background()
	m.rendered = imageutil.NewFilledRGBAImage(m.width, m.rows, bg)
	if cfg.SplitFill {
		m.fill = imageutil.NewFilledRGBAImage(m.width, m.rows, bg)
	}
	if lib.HasCodePoints() {
		m.text = make([]rune, 0, m.width/max(m.rows, 1)/2+1)
	}
	m.run()
	return &LineResult{
		Rendered:   m.rendered,
		Fill:       m.fill,
		Text:       string(m.text),
		Placements: m.placed,
	}, nil
}

func checkLine(lib *Library, cfg *Config, in LineInput) error {
	t := in.Threshold
	if t == nil {
		return fmt.Errorf("%w: no threshold line", ErrPrecondition)
	}
	if t.Height() != lib.Height() {
		return fmt.Errorf("%w: line is %d rows high, glyphs are %d",
			ErrPrecondition, t.Height(), lib.Height())
	}
	if t.Width() < cfg.MinStripWidth {
		return fmt.Errorf("%w: line is %d pixels wide, minimum is %d",
			ErrPrecondition, t.Width(), cfg.MinStripWidth)
	}
	if err := sameSize("gray", in.Gray, t); err != nil {
		return err
	}
	if err := sameSize("secondary", in.Secondary, t); err != nil {
		return err
	}
	if c := in.Color; c != nil && (c.Width() != t.Width() || c.Height() != t.Height()) {
		return fmt.Errorf("%w: color line is %dx%d, threshold line is %dx%d",
			ErrPrecondition, c.Width(), c.Height(), t.Width(), t.Height())
	}
	return nil
}

func sameSize(name string, img, t *imageutil.GrayImage) error {
	if img != nil && (img.Width() != t.Width() || img.Height() != t.Height()) {
		return fmt.Errorf("%w: %s line is %dx%d, threshold line is %dx%d",
			ErrPrecondition, name, img.Width(), img.Height(), t.Width(), t.Height())
	}
	return nil
}

func (m *lineMatcher) background() uint8 {
	if m.cfg.DarkBackground {
		return 0
	}
	return 255
}

func (m *lineMatcher) run() {
	cfg := m.cfg
	lib := m.lib
	spaceW := lib.Width(SpaceIndex)
	wideLimit := math.Ceil(float64(spaceW) * cfg.WideFillerFactor)
	mid := m.rows / 2

	// pending is set while a wide filler waits for a second blank slot.
	pending := false
	pos := cfg.LeftMargin
	for m.width-pos > cfg.MinRemaining {
		u, v, ok := m.selectGlyph(pos)
		if !ok {
			break
		}
		sym := lib.IncrementUsageAndFetch(u)
		isFill := false

		if m.in.Gray != nil && u == SpaceIndex {
			cx := pos + sym.Width()/2
			sample := float64(m.in.Gray.GetGray(cx, mid))
			if sample < cfg.FillDepth && len(m.rings) > 0 &&
				(m.in.Secondary == nil || m.in.Secondary.GetGray(cx, mid) < cfg.SecondaryFillLevel) {
				if pending {
					pos -= spaceW
				}
				ring := m.rings[int(float64(len(m.rings))*sample/cfg.FillDepth)]
				overhang, fu := ring.NextAt(pos)
				u, v = fu, VariantNormal
				sym = lib.Canonical(fu)
				if !pending && float64(sym.Width()) > wideLimit {
					pending = true
					u = SpaceIndex
					sym = lib.Canonical(SpaceIndex)
				} else {
					pos += overhang
				}
				if m.width-pos-sym.Width() < cfg.MinTail {
					break
				}
				isFill = true
			} else {
				pending = false
			}
		} else {
			pending = false
		}

		if m.text != nil {
			if u != SpaceIndex && pending && len(m.text) > 0 {
				m.text = m.text[:len(m.text)-1]
			}
			cp, _ := lib.CodePoint(u)
			m.text = append(m.text, cp)
		}

		if u != SpaceIndex {
			m.draw(sym, pos, isFill)
			m.placed = append(m.placed, Placement{X: pos, Glyph: u, Variant: v, Filler: isFill})
			pos += cfg.SymbolSpacing
			pending = false
		}
		pos += sym.Width()
	}
}

// selectGlyph returns the best scoring glyph and variant at pos. ok is
// false when nothing fits in the remaining width.
func (m *lineMatcher) selectGlyph(pos int) (best int, variant Variant, ok bool) {
	cfg := m.cfg
	lib := m.lib
	remaining := m.width - pos
	if remaining < cfg.MinCandidateWidth {
		return 0, 0, false
	}
	best = -1
	bestScore := math.MaxFloat64
	for u := 0; u < lib.Len(); u++ {
		if !lib.IsValid(u) {
			continue
		}
		g := lib.Glyph(u)
		if remaining-g.Width() <= cfg.HorizontalShift+1 {
			continue
		}
		if u == SpaceIndex {
			score := m.compare(pos, g.Bitmaps[VariantNormal], g.Correction, g.Coefficient, 0)
			if score < cfg.FastAcceptScore {
				return u, VariantNormal, true
			}
			best, variant, bestScore = u, VariantNormal, score
			continue
		}
		for v := 0; v < lib.Variants(); v++ {
			if v != int(VariantNormal) && (g.Flag.Kind == FlagNoRotate || g.Flag.Kind == FlagNoMove) {
				continue
			}
			score := m.multiPositionCompare(pos, g, Variant(v))
			if score == 0 {
				return u, Variant(v), true
			}
			if score < bestScore {
				best, variant, bestScore = u, Variant(v), score
			}
		}
	}
	return best, variant, best >= 0
}

var nudges = [3]int{0, 1, -1}

// multiPositionCompare scores glyph g at pos with the placements its
// flag allows and returns the lowest score. Centered placements are
// tried first, then the left shift, then the right shift.
func (m *lineMatcher) multiPositionCompare(pos int, g *Glyph, v Variant) float64 {
	b := g.Bitmaps[v]
	corr, coef := g.Correction, g.Coefficient
	if g.Flag.Kind == FlagNoMove {
		return m.compare(pos, b, corr, coef, 0)
	}
	xs := []int{pos}
	if g.Flag.Kind != FlagNoHorizontalMove {
		xs = append(xs, pos-m.cfg.HorizontalShift, pos+m.cfg.HorizontalShift)
	}
	best := math.MaxFloat64
	for _, x := range xs {
		for _, n := range nudges {
			if s := m.compare(x, b, corr, coef, n); s < best {
				best = s
			}
		}
	}
	return best
}

// compare scores bitmap b placed at column pos against the threshold
// line. nudge moves the glyph down (1) or up (-1) one row; rows shifted
// in from outside the bitmap are background.
func (m *lineMatcher) compare(pos int, b *imageutil.GrayImage, corr, coef float64, nudge int) float64 {
	t := m.in.Threshold
	rows, cols := b.Height(), b.Width()
	deadband := m.cfg.Deadband
	var tooDark, tooLight int
	for i := 0; i < rows; i++ {
		src := i - nudge
		to := t.PixOffset(t.Rect.Min.X+pos, t.Rect.Min.Y+i)
		target := t.Pix[to : to+cols]
		var glyphRow []uint8
		if src >= 0 && src < rows {
			bo := b.PixOffset(b.Rect.Min.X, b.Rect.Min.Y+src)
			glyphRow = b.Pix[bo : bo+cols]
		}
		for j, tv := range target {
			s := 255
			if glyphRow != nil {
				s = int(glyphRow[j])
			}
			d := s - int(tv)
			switch {
			case d > deadband:
				tooLight += d
			case d < -deadband:
				tooDark -= d
			}
		}
	}
	return (float64(tooDark)/corr + float64(tooLight)) / coef
}
