package img2glyph

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FlagKind classifies how a glyph takes part in matching.
type FlagKind int

const (
	// FlagDefault glyphs are tried at every placement and rotation.
	FlagDefault FlagKind = iota
	// FlagRejected glyphs are loaded but never selected.
	FlagRejected
	// FlagNoHorizontalMove glyphs are only nudged vertically.
	FlagNoHorizontalMove
	// FlagNoRotate glyphs are only tried unrotated.
	FlagNoRotate
	// FlagNoMove glyphs are tried unrotated, centered, without nudges.
	FlagNoMove
	// FlagFillerSolo glyphs form a filler group of their own.
	FlagFillerSolo
	// FlagFillerLayer glyphs belong to the filler group named by Flag.Layer.
	FlagFillerLayer
)

// Flag is the per-glyph category derived from the glyph's file name.
// Layer is meaningful only for FlagFillerLayer.
type Flag struct {
	Kind  FlagKind
	Layer int
}

// FillerLayer returns the flag of a member of layered filler group id.
func FillerLayer(id int) Flag {
	return Flag{Kind: FlagFillerLayer, Layer: id}
}

// IsFiller reports whether the glyph textures blank regions instead of
// tracing contours.
func (f Flag) IsFiller() bool {
	return f.Kind == FlagFillerSolo || f.Kind == FlagFillerLayer
}

// selectable reports whether a glyph with this flag starts out valid.
func (f Flag) selectable() bool {
	return f.Kind != FlagRejected && !f.IsFiller()
}

func (f Flag) String() string {
	switch f.Kind {
	case FlagDefault:
		return "default"
	case FlagRejected:
		return "rejected"
	case FlagNoHorizontalMove:
		return "dont_move_x"
	case FlagNoRotate:
		return "dont_spin"
	case FlagNoMove:
		return "dont_move"
	case FlagFillerSolo:
		return "filling"
	case FlagFillerLayer:
		return fmt.Sprintf("filling_layer(%03d)", f.Layer)
	}
	return fmt.Sprintf("FlagKind(%d)", int(f.Kind))
}

var fillerLayerName = regexp.MustCompile(`^(\d{3})_filling_\d{2}\D*$`)

// ParseFlag derives a glyph's flag from its file name. The checks run
// in a fixed order, so "_dont_move_x" wins over "_dont_move" and a
// layered filler name wins over a plain "_filling".
func ParseFlag(name string) Flag {
	switch {
	case strings.Contains(name, "_false"):
		return Flag{Kind: FlagRejected}
	case strings.Contains(name, "_dont_move_x"):
		return Flag{Kind: FlagNoHorizontalMove}
	}
	if m := fillerLayerName.FindStringSubmatch(name); m != nil {
		id, _ := strconv.Atoi(m[1])
		return FillerLayer(id)
	}
	switch {
	case strings.Contains(name, "_filling"):
		return Flag{Kind: FlagFillerSolo}
	case strings.Contains(name, "_dont_move"):
		return Flag{Kind: FlagNoMove}
	case strings.Contains(name, "_dont_spin"):
		return Flag{Kind: FlagNoRotate}
	}
	return Flag{Kind: FlagDefault}
}
