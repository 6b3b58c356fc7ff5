package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/wbrown/img2glyph"
	"github.com/wbrown/img2glyph/imageutil"
)

type writer struct {
	dir      string
	runID    string
	compress bool
	enc      *zstd.Encoder
}

func (w *writer) frame(res *img2glyph.FrameResult) error {
	base := filepath.Join(w.dir, fmt.Sprintf("frame-%03d", res.Number))
	if err := imageutil.SaveImage(res.Rendered, base+".png"); err != nil {
		return err
	}
	if res.Fill != nil {
		if err := imageutil.SaveImage(res.Fill, base+"-fill.png"); err != nil {
			return err
		}
	}
	if res.Text == nil {
		return nil
	}
	return w.text(res.Number, strings.Join(res.Text, "\n")+"\n")
}

func (w *writer) text(number int, s string) error {
	name := filepath.Join(w.dir, fmt.Sprintf("text-%03d.txt", number))
	if !w.compress {
		return os.WriteFile(name, []byte(s), 0644)
	}
	if w.enc == nil {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		w.enc = enc
	}
	return os.WriteFile(name+".zst", w.enc.EncodeAll([]byte(s), nil), 0644)
}

// stats rewrites the usage report of the run.
func (w *writer) stats(lib *img2glyph.Library) error {
	f, err := os.Create(filepath.Join(w.dir, "stats-"+w.runID+".txt"))
	if err != nil {
		return fmt.Errorf("failed to create stats file: %w", err)
	}
	defer f.Close()
	return lib.Report(f)
}

func (w *writer) close() {
	if w.enc != nil {
		w.enc.Close()
	}
}
