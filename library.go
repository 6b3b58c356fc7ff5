package img2glyph

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync/atomic"

	"github.com/wbrown/img2glyph/imageutil"
)

// Variant selects one bitmap of a glyph's rotation triple.
type Variant int

const (
	VariantNormal Variant = iota
	VariantRotatedLeft
	VariantRotatedRight
)

// SpaceIndex is the index of the space glyph. It is never pruned.
const SpaceIndex = 0

// Glyph is one unique library entry. Without rotation only
// Bitmaps[VariantNormal] is set.
type Glyph struct {
	Bitmaps     [3]*imageutil.GrayImage
	Flag        Flag
	CodePoint   rune
	Coefficient float64
	Correction  float64
}

// Width returns the glyph's bitmap width in pixels.
func (g *Glyph) Width() int {
	return g.Bitmaps[VariantNormal].Width()
}

// Library holds the glyph bitmaps and their scoring metadata. Bitmaps,
// flags and coefficients never change after construction. Usage
// counters may be bumped from any goroutine; validity may only change
// while no line is being matched.
type Library struct {
	glyphs   []Glyph
	variants int
	height   int

	usage      []atomic.Int64
	valid      []bool
	validCount int

	hasCodePoints bool
	byCodePoint   map[rune]int

	rotation        bool
	widthExponent   float64
	spaceCorrection float64
}

// LibraryOption is a functional option for configuring a Library.
type LibraryOption func(*Library)

// WithRotation makes NewLibrary read the bitmap list as triples of
// {normal, rotated left, rotated right}.
func WithRotation(enabled bool) LibraryOption {
	return func(l *Library) {
		l.rotation = enabled
	}
}

// WithWidthExponent sets the exponent applied to glyph width when
// normalising ink density.
func WithWidthExponent(exp float64) LibraryOption {
	return func(l *Library) {
		l.widthExponent = exp
	}
}

// WithSpaceCorrection sets the correction factor of the space glyph.
func WithSpaceCorrection(c float64) LibraryOption {
	return func(l *Library) {
		l.spaceCorrection = c
	}
}

// NewLibrary builds a library from bitmaps in index order. flags holds
// one entry per unique glyph; codePoints is either nil or also one entry
// per unique glyph. Glyph 0 must be the space.
func NewLibrary(bitmaps []*imageutil.GrayImage, flags []Flag, codePoints []rune, opts ...LibraryOption) (*Library, error) {
	l := &Library{
		variants:        1,
		widthExponent:   0.75,
		spaceCorrection: 1.0,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rotation {
		l.variants = 3
	}

	if len(bitmaps) == 0 {
		return nil, fmt.Errorf("%w: no glyph bitmaps", ErrConfiguration)
	}
	if l.rotation && len(bitmaps)%3 != 0 {
		return nil, fmt.Errorf("%w: rotation enabled but %d bitmaps is not a multiple of 3",
			ErrConfiguration, len(bitmaps))
	}
	unique := len(bitmaps) / l.variants
	if len(flags) != unique {
		return nil, fmt.Errorf("%w: %d flags for %d unique glyphs", ErrConfiguration, len(flags), unique)
	}
	if codePoints != nil && len(codePoints) != unique {
		return nil, fmt.Errorf("%w: %d code points for %d unique glyphs",
			ErrConfiguration, len(codePoints), unique)
	}

	l.height = -1
	for i, b := range bitmaps {
		if b == nil {
			return nil, fmt.Errorf("%w: bitmap %d is nil", ErrConfiguration, i)
		}
		if b.Width() < 1 || b.Height() < 1 {
			return nil, fmt.Errorf("%w: bitmap %d is empty", ErrConfiguration, i)
		}
		if l.height == -1 {
			l.height = b.Height()
		} else if b.Height() != l.height {
			return nil, fmt.Errorf("%w: bitmap %d is %d rows high, want %d",
				ErrConfiguration, i, b.Height(), l.height)
		}
	}

	l.glyphs = make([]Glyph, unique)
	l.usage = make([]atomic.Int64, unique)
	l.valid = make([]bool, unique)
	if codePoints != nil {
		l.hasCodePoints = true
		l.byCodePoint = make(map[rune]int, unique)
	}

	log := Logger()
	for u := range l.glyphs {
		g := &l.glyphs[u]
		for v := 0; v < l.variants; v++ {
			g.Bitmaps[v] = bitmaps[u*l.variants+v]
		}
		g.Flag = flags[u]
		canonical := g.Bitmaps[VariantNormal]
		g.Coefficient = widthCoefficient(canonical, l.widthExponent)
		if u == SpaceIndex {
			g.Correction = l.spaceCorrection
		} else {
			g.Correction = inkCorrection(canonical, l.widthExponent)
		}
		l.valid[u] = g.Flag.selectable()
		if codePoints != nil {
			g.CodePoint = codePoints[u]
			if _, dup := l.byCodePoint[g.CodePoint]; !dup {
				l.byCodePoint[g.CodePoint] = u
			}
		}
		log.Debug("glyph loaded", "index", u, "flag", g.Flag.String(),
			"width", canonical.Width(), "coefficient", g.Coefficient, "correction", g.Correction)
	}

	l.recount()
	log.Info("glyph library ready", "unique", unique, "bitmaps", len(bitmaps), "valid", l.validCount)
	return l, nil
}

// widthCoefficient normalises scores by glyph width so wide glyphs are
// not penalised for covering more pixels. Narrow glyphs are mapped onto
// a cosine curve that keeps the coefficient near 1.
func widthCoefficient(b *imageutil.GrayImage, exp float64) float64 {
	c := math.Pow(float64(b.Width()), exp) / (float64(b.Height()) / 2)
	if c < 1 {
		c = -math.Cos(c+0.2) + 1.36
	}
	return c
}

// inkCorrection grows with the amount of ink in the bitmap.
func inkCorrection(b *imageutil.GrayImage, exp float64) float64 {
	var sum float64
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			sum += 255 - float64(b.GetGray(x, y))
		}
	}
	rows := float64(b.Height())
	cols := float64(b.Width())
	return 0.4 + sum/(rows*math.Pow(cols, exp)*127) + sum*sum/(math.Pow(rows, 7)*2)
}

// Len returns the number of unique glyphs.
func (l *Library) Len() int {
	return len(l.glyphs)
}

// Variants returns 3 when rotation triples are loaded, 1 otherwise.
func (l *Library) Variants() int {
	return l.variants
}

// Size returns the total number of bitmaps, rotation variants included.
func (l *Library) Size() int {
	return len(l.glyphs) * l.variants
}

// Height returns the common bitmap height.
func (l *Library) Height() int {
	return l.height
}

// Rotation reports whether the library holds rotation triples.
func (l *Library) Rotation() bool {
	return l.rotation
}

// Glyph returns the glyph entry at unique index u.
func (l *Library) Glyph(u int) *Glyph {
	return &l.glyphs[u]
}

// Get returns the bitmap of variant v of glyph u.
func (l *Library) Get(u int, v Variant) *imageutil.GrayImage {
	return l.glyphs[u].Bitmaps[v]
}

// Canonical returns the unrotated bitmap of glyph u.
func (l *Library) Canonical(u int) *imageutil.GrayImage {
	return l.glyphs[u].Bitmaps[VariantNormal]
}

// Width returns the bitmap width of glyph u.
func (l *Library) Width(u int) int {
	return l.glyphs[u].Width()
}

// IncrementUsageAndFetch counts one placement of glyph u and returns
// its canonical bitmap. Safe for concurrent use.
func (l *Library) IncrementUsageAndFetch(u int) *imageutil.GrayImage {
	l.usage[u].Add(1)
	return l.glyphs[u].Bitmaps[VariantNormal]
}

// Usage returns how many times glyph u has been placed.
func (l *Library) Usage(u int) int64 {
	return l.usage[u].Load()
}

// IsValid reports whether glyph u may currently be selected.
func (l *Library) IsValid(u int) bool {
	return l.valid[u]
}

func (l *Library) Flag(u int) Flag {
	return l.glyphs[u].Flag
}

func (l *Library) Correction(u int) float64 {
	return l.glyphs[u].Correction
}

func (l *Library) Coefficient(u int) float64 {
	return l.glyphs[u].Coefficient
}

// HasCodePoints reports whether text transcription is available.
func (l *Library) HasCodePoints() bool {
	return l.hasCodePoints
}

// ValidCount returns the number of currently valid glyphs, space
// included.
func (l *Library) ValidCount() int {
	return l.validCount
}

// CodePoint returns the code point of glyph u. ok is false when the
// library was built without code points.
func (l *Library) CodePoint(u int) (r rune, ok bool) {
	if !l.hasCodePoints {
		return 0, false
	}
	return l.glyphs[u].CodePoint, true
}

// ByCodePoint returns the first glyph carrying code point r.
func (l *Library) ByCodePoint(r rune) (int, bool) {
	if l.byCodePoint == nil {
		return 0, false
	}
	u, ok := l.byCodePoint[r]
	return u, ok
}

// IndicesWhere returns, in index order, the unique glyphs whose flag
// satisfies pred.
func (l *Library) IndicesWhere(pred func(Flag) bool) []int {
	var out []int
	for u := range l.glyphs {
		if pred(l.glyphs[u].Flag) {
			out = append(out, u)
		}
	}
	return out
}

func (l *Library) recount() {
	n := 0
	for _, v := range l.valid {
		if v {
			n++
		}
	}
	l.validCount = n
}

// rankValid returns the valid glyphs other than the space, ordered by
// usage (ascending, or descending when desc is set). Equal usage keeps
// index order.
func (l *Library) rankValid(desc bool) []int {
	var idx []int
	counts := make(map[int]int64)
	for u := 1; u < len(l.glyphs); u++ {
		if l.valid[u] {
			idx = append(idx, u)
			counts[u] = l.usage[u].Load()
		}
	}
	sort.SliceStable(idx, func(i, j int) bool {
		if desc {
			return counts[idx[i]] > counts[idx[j]]
		}
		return counts[idx[i]] < counts[idx[j]]
	})
	return idx
}

func (l *Library) prune(ranked []int, percent float64) int {
	n := int(float64(l.validCount) * percent / 100)
	if n > len(ranked) {
		n = len(ranked)
	}
	for _, u := range ranked[:max(n, 0)] {
		l.valid[u] = false
	}
	return l.finishPrune()
}

func (l *Library) finishPrune() int {
	before := l.validCount
	l.recount()
	ignored := before - l.validCount
	Logger().Info("ignored glyphs", "count", ignored, "valid", l.validCount)
	return ignored
}

// PruneRarelyUsed invalidates the least used percent of currently
// valid glyphs. It returns how many glyphs were invalidated. Must not
// run while lines are being matched.
func (l *Library) PruneRarelyUsed(percent float64) int {
	return l.prune(l.rankValid(false), percent)
}

// PruneOftenUsed invalidates the most used percent of currently valid
// glyphs. Must not run while lines are being matched.
func (l *Library) PruneOftenUsed(percent float64) int {
	return l.prune(l.rankValid(true), percent)
}

// PruneUnused invalidates every glyph placed at most minUsage times.
// Must not run while lines are being matched.
func (l *Library) PruneUnused(minUsage int64) int {
	for u := 1; u < len(l.glyphs); u++ {
		if l.valid[u] && l.usage[u].Load() <= minUsage {
			l.valid[u] = false
		}
	}
	return l.finishPrune()
}

// Report writes one line per unique glyph with its usage and scoring
// metadata.
func (l *Library) Report(w io.Writer) error {
	for u := range l.glyphs {
		g := &l.glyphs[u]
		char := "-"
		if l.hasCodePoints {
			char = fmt.Sprintf("%q", g.CodePoint)
		}
		_, err := fmt.Fprintf(w, "char=%s number=%d used=%d valid=%t c=%f cCr=%f flag=%s\n",
			char, u, l.usage[u].Load(), l.valid[u], g.Coefficient, g.Correction, g.Flag)
		if err != nil {
			return err
		}
	}
	return nil
}
