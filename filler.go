package img2glyph

import (
	"fmt"
	"sync"
)

// FillerPolicy selects how filler rings change from frame to frame.
type FillerPolicy string

const (
	// PolicyLines keeps each group's order and slides the start member
	// along alternate directions on even and odd lines.
	PolicyLines FillerPolicy = "lines"
	// PolicySymbols additionally permutes the group's members over time,
	// keeping the last member pinned.
	PolicySymbols FillerPolicy = "symbols"
)

func (p FillerPolicy) valid() bool {
	return p == PolicyLines || p == PolicySymbols
}

// FillerMember is one glyph of a filler group.
type FillerMember struct {
	Width int
	Glyph int
}

// fillerLayout is an ordered member list with its pixel lookup table.
// Layouts are immutable once built and shared by every ring using them.
type fillerLayout struct {
	members   []FillerMember
	table     []int
	pixLength int
}

func newFillerLayout(members []FillerMember, spacing int) *fillerLayout {
	pix := 0
	for _, m := range members {
		pix += m.Width + spacing
	}
	table := make([]int, pix)
	el, next := -1, 0
	for i := range table {
		if next <= i {
			el++
			next += members[el].Width + spacing
		}
		table[i] = el
	}
	return &fillerLayout{members: members, table: table, pixLength: pix}
}

// offsetOf returns the pixel offset of member i within one period.
func (fl *fillerLayout) offsetOf(i, spacing int) int {
	off := 0
	for _, m := range fl.members[:i] {
		off += m.Width + spacing
	}
	return off
}

type layoutKey struct {
	shift, move int
}

// FillerGroup is one visual fill layer: a non-empty ordered list of
// filler glyphs. Groups are built once per library and shared by all
// lines; per-line state lives in FillerRing.
type FillerGroup struct {
	base    *fillerLayout
	spacing int
	aligned bool

	mu       sync.Mutex
	permuted map[layoutKey]*fillerLayout
}

func newFillerGroup(first FillerMember, spacing int, aligned bool) *FillerGroup {
	return &FillerGroup{
		base:    &fillerLayout{members: []FillerMember{first}},
		spacing: spacing,
		aligned: aligned,
	}
}

func (g *FillerGroup) add(m FillerMember) {
	g.base.members = append(g.base.members, m)
}

func (g *FillerGroup) seal() {
	g.base = newFillerLayout(g.base.members, g.spacing)
}

// Len returns the number of members.
func (g *FillerGroup) Len() int {
	return len(g.base.members)
}

// Members returns the members in library order. The slice is shared
// and must not be modified.
func (g *FillerGroup) Members() []FillerMember {
	return g.base.members
}

// PixelLength returns the width of one period of the group, spacing
// included.
func (g *FillerGroup) PixelLength() int {
	return g.base.pixLength
}

func (g *FillerGroup) String() string {
	return fmt.Sprintf("FillerGroup%v", g.base.members)
}

// BuildFillerGroups collects the library's filler glyphs into groups.
// Every solo filler is a group of its own. Consecutive layer fillers
// with the same layer id share a group; glyphs that are not fillers do
// not interrupt a run. spacing is the gap after each member and only
// applies when aligned is set. The result is empty when the library
// has no fillers.
func BuildFillerGroups(lib *Library, spacing int, aligned bool) []*FillerGroup {
	if !aligned {
		spacing = 0
	}
	var (
		groups  []*FillerGroup
		current *FillerGroup
		layer   = -1
	)
	for u := 0; u < lib.Len(); u++ {
		f := lib.Flag(u)
		m := FillerMember{Width: lib.Width(u), Glyph: u}
		switch f.Kind {
		case FlagFillerSolo:
			groups = append(groups, newFillerGroup(m, spacing, aligned))
			current, layer = nil, -1
		case FlagFillerLayer:
			if current != nil && f.Layer == layer {
				current.add(m)
				continue
			}
			current, layer = newFillerGroup(m, spacing, aligned), f.Layer
			groups = append(groups, current)
		}
	}
	for _, g := range groups {
		g.seal()
	}
	Logger().Debug("filler groups built", "groups", len(groups))
	return groups
}

// permutedLayout returns the member order after left-rotating the
// unpinned members by shift and then moving the first of them to
// position move. The result is memoised per (shift, move).
func (g *FillerGroup) permutedLayout(shift, move int) *fillerLayout {
	key := layoutKey{shift, move}
	g.mu.Lock()
	defer g.mu.Unlock()
	if fl, ok := g.permuted[key]; ok {
		return fl
	}

	base := g.base.members
	n := len(base) - 1
	rot := make([]FillerMember, len(base))
	for i := 0; i < n; i++ {
		rot[i] = base[(i+shift)%n]
	}
	rot[n] = base[n]

	out := make([]FillerMember, 0, len(base))
	out = append(out, rot[1:move+1]...)
	out = append(out, rot[0])
	out = append(out, rot[move+1:]...)

	fl := newFillerLayout(out, g.spacing)
	if g.permuted == nil {
		g.permuted = make(map[layoutKey]*fillerLayout)
	}
	g.permuted[key] = fl
	return fl
}

// FillerRing is a per-line phased view of a FillerGroup. It shares the
// group's layout and owns only its start offset and iterator, so one
// ring must be used by one line at a time.
type FillerRing struct {
	layout   *fillerLayout
	spacing  int
	aligned  bool
	start    int
	startPix int
	iter     int
}

// DerivePhase returns a ring over g phased for the given frame and line.
// k is the frame divisor of the line drift; r is the frame divisor of
// the member permutation used by PolicySymbols.
func DerivePhase(g *FillerGroup, frame, line int, policy FillerPolicy, k, r int) *FillerRing {
	k = max(k, 1)
	r = max(r, 1)
	if policy != PolicySymbols {
		return g.drift(g.base, frame/k, line)
	}

	size := g.Len()
	if size < 2 {
		return &FillerRing{
			layout:   g.base,
			spacing:  g.spacing,
			aligned:  g.aligned,
			startPix: g.base.members[0].Width,
		}
	}
	n := size - 1
	step := frame / r
	layout := g.permutedLayout(mod(step/n, n), mod(step, n))
	return g.drift(layout, frame/(n*r), line)
}

// drift starts the ring line members in, moving by slow members to the
// right on even lines and to the left on odd ones.
func (g *FillerGroup) drift(layout *fillerLayout, slow, line int) *FillerRing {
	size := len(layout.members)
	d := mod(slow, size)
	start := mod(line, size)
	if line%2 == 0 {
		start += d
	} else {
		start -= d
	}
	start = mod(start, size)
	return &FillerRing{
		layout:   layout,
		spacing:  g.spacing,
		aligned:  g.aligned,
		start:    start,
		startPix: layout.offsetOf(start, g.spacing),
		iter:     start,
	}
}

// DeriveRings phases every group for one line.
func DeriveRings(groups []*FillerGroup, frame, line int, policy FillerPolicy, k, r int) []*FillerRing {
	if len(groups) == 0 {
		return nil
	}
	rings := make([]*FillerRing, len(groups))
	for i, g := range groups {
		rings[i] = DerivePhase(g, frame, line, policy, k, r)
	}
	return rings
}

// Len returns the number of members in the ring.
func (r *FillerRing) Len() int {
	return len(r.layout.members)
}

// Members returns the ring's current member order. The slice is shared
// and must not be modified.
func (r *FillerRing) Members() []FillerMember {
	return r.layout.members
}

// Start returns the index of the member the ring starts at.
func (r *FillerRing) Start() int {
	return r.start
}

// StartPixel returns the pixel offset added to cursor positions.
func (r *FillerRing) StartPixel() int {
	return r.startPix
}

// PixelLength returns the ring's period in pixels.
func (r *FillerRing) PixelLength() int {
	return r.layout.pixLength
}

// Next returns the next member in round-robin order.
func (r *FillerRing) Next() FillerMember {
	m := r.layout.members[r.iter]
	r.iter = (r.iter + 1) % len(r.layout.members)
	return m
}

// NextAt returns the filler glyph for cursor position pos, as if the
// whole line before pos had been tiled with this ring. With alignment,
// a position inside a member's run yields the following member and the
// number of pixels the cursor must advance to reach its start.
func (r *FillerRing) NextAt(pos int) (overhang, glyph int) {
	members := r.layout.members
	if !r.aligned && len(members) == 1 {
		return r.spacing, members[0].Glyph
	}
	table := r.layout.table
	p := mod(pos+r.startPix, r.layout.pixLength)
	s := table[p]
	if !r.aligned {
		return 0, members[s].Glyph
	}
	plus := 0
	if p > 0 && table[p-1] == s {
		plus = 1
		for p+plus < len(table) && table[p+plus] == s {
			plus++
		}
		if p+plus == len(table) {
			s = 0
		} else {
			s++
		}
	}
	return plus, members[s].Glyph
}

// mod returns a modulo n in [0, n).
func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
