package img2glyph

import "errors"

var (
	// ErrConfiguration is returned when a glyph library or configuration
	// cannot be built from its inputs. Nothing should be processed after it.
	ErrConfiguration = errors.New("img2glyph: configuration error")

	// ErrPrecondition is returned when a strip handed to the line matcher
	// has the wrong geometry. It signals a bug in strip partitioning.
	ErrPrecondition = errors.New("img2glyph: precondition violation")
)
