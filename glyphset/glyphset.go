// Package glyphset loads a glyph folder: one PNG per glyph, sorted by
// path, with categories encoded in the file names and an optional
// chars.txt listing the code point of each glyph in the same order.
package glyphset

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wbrown/img2glyph"
	"github.com/wbrown/img2glyph/imageutil"
)

// CharsFile is the code point sidecar looked up in a glyph folder.
const CharsFile = "chars.txt"

// Set is a loaded glyph folder, ready to become a Library.
type Set struct {
	// Names are the glyph file names in index order.
	Names []string
	// Bitmaps holds one bitmap per glyph, or a rotation triple per
	// glyph when Rotated is set.
	Bitmaps    []*imageutil.GrayImage
	Flags      []img2glyph.Flag
	CodePoints []rune
	Rotated    bool
}

type options struct {
	rotate  bool
	degrees float64
}

// Option configures Load.
type Option func(*options)

// WithRotation expands every glyph into {normal, rotated left, rotated
// right}, rotating by degrees.
func WithRotation(degrees float64) Option {
	return func(o *options) {
		o.rotate = true
		o.degrees = degrees
	}
}

// Load reads every PNG under dir.
func Load(dir string, opts ...Option) (*Set, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	paths, err := pngFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no glyph images in %s", img2glyph.ErrConfiguration, dir)
	}

	log := img2glyph.Logger()
	s := &Set{Rotated: o.rotate}
	for _, p := range paths {
		name := filepath.Base(p)
		bmp, err := imageutil.LoadGray(p)
		if err != nil {
			return nil, err
		}
		flag := img2glyph.ParseFlag(name)
		if flag.Kind != img2glyph.FlagDefault {
			log.Debug("glyph flag", "file", name, "flag", flag.String())
		}
		s.Names = append(s.Names, name)
		s.Flags = append(s.Flags, flag)
		if !o.rotate {
			s.Bitmaps = append(s.Bitmaps, bmp)
			continue
		}
		triple, err := Triple(bmp, o.degrees)
		if err != nil {
			return nil, fmt.Errorf("failed to rotate %s: %w", name, err)
		}
		s.Bitmaps = append(s.Bitmaps, triple[:]...)
	}

	cps, err := loadCodePoints(filepath.Join(dir, CharsFile))
	if err != nil {
		return nil, err
	}
	switch {
	case len(cps) == 0:
		log.Info("no code points, text output disabled", "dir", dir)
	case len(cps) != len(s.Names):
		return nil, fmt.Errorf("%w: %s lists %d code points for %d glyphs",
			img2glyph.ErrConfiguration, CharsFile, len(cps), len(s.Names))
	default:
		s.CodePoints = cps
	}
	return s, nil
}

// Library builds the glyph library of the set. Rotation follows the
// set; opts may tune the remaining library settings.
func (s *Set) Library(opts ...img2glyph.LibraryOption) (*img2glyph.Library, error) {
	opts = append(opts, img2glyph.WithRotation(s.Rotated))
	return img2glyph.NewLibrary(s.Bitmaps, s.Flags, s.CodePoints, opts...)
}

func pngFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(p), ".png") {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list glyph folder: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func loadCodePoints(path string) ([]rune, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", CharsFile, err)
	}
	defer f.Close()
	return ReadCodePoints(f)
}

// ReadCodePoints parses a chars.txt stream: the code point of each
// glyph is the last rune of its line. Empty lines are skipped.
func ReadCodePoints(r io.Reader) ([]rune, error) {
	var cps []rune
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := []rune(sc.Text())
		if len(line) == 0 {
			continue
		}
		cps = append(cps, line[len(line)-1])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read code points: %w", err)
	}
	return cps, nil
}
