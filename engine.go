package img2glyph

import (
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/wbrown/img2glyph/imageutil"
	"github.com/wbrown/img2glyph/internal/parallel"
)

// Frame is one pre-processed input frame. Threshold is required; the
// other images are optional and must match its size.
type Frame struct {
	Threshold *imageutil.GrayImage
	Gray      *imageutil.GrayImage
	Secondary *imageutil.GrayImage
	Color     *imageutil.RGBAImage
	Number    int
}

// FrameResult is the assembled output of one frame.
type FrameResult struct {
	Number   int
	Rendered *imageutil.RGBAImage
	// Fill holds the filler glyphs alone. Nil unless split fill is on.
	Fill *imageutil.RGBAImage
	// Text has one entry per strip, top to bottom. Nil when the library
	// has no code points.
	Text []string
	// ReportDue is set on frames where the usage report should be
	// exported.
	ReportDue bool
	// Pruned is the number of glyphs invalidated after this frame.
	Pruned int
}

// Engine cuts frames into glyph-high strips, matches the strips in
// parallel and assembles the results. One Engine owns its library's
// validity: it prunes between frames, never during one.
type Engine struct {
	lib    *Library
	cfg    *Config
	groups []*FillerGroup
	pool   *parallel.WorkerPool

	mu     sync.Mutex
	frames int
}

// NewEngine validates cfg and starts the worker pool. Close releases
// the pool.
func NewEngine(lib *Library, cfg *Config) (*Engine, error) {
	if lib == nil {
		return nil, fmt.Errorf("%w: nil library", ErrConfiguration)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lib.Rotation() != cfg.Rotation {
		return nil, fmt.Errorf("%w: library rotation %t does not match config rotation %t",
			ErrConfiguration, lib.Rotation(), cfg.Rotation)
	}
	e := &Engine{
		lib:    lib,
		cfg:    cfg,
		groups: BuildFillerGroups(lib, cfg.FillSpacing, cfg.FillAlignment),
		pool:   parallel.NewWorkerPool(cfg.WorkerCount()),
	}
	Logger().Info("engine started", "workers", e.pool.Workers(), "filler_groups", len(e.groups),
		"policy", string(cfg.FillerPolicy))
	return e, nil
}

// Library returns the engine's glyph library.
func (e *Engine) Library() *Library {
	return e.lib
}

// Groups returns the filler groups built from the library.
func (e *Engine) Groups() []*FillerGroup {
	return e.groups
}

// Frames returns how many frames have been processed.
func (e *Engine) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

// Close stops the worker pool.
func (e *Engine) Close() {
	e.pool.Close()
}

// ProcessFrame matches every strip of f and assembles the frame. Calls
// are serialised. A precondition failure in any strip fails the frame.
func (e *Engine) ProcessFrame(f Frame) (*FrameResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkFrame(f); err != nil {
		return nil, err
	}
	start := time.Now()
	glyphH := e.lib.Height()
	pitch := glyphH + e.cfg.LineSpacing
	strips := f.Threshold.Height() / pitch

	results := make([]*LineResult, strips)
	errs := make([]error, strips)
	work := make([]func(), strips)
	for i := range work {
		in := LineInput{
			Threshold: f.Threshold.Strip(i*pitch, glyphH),
			Frame:     f.Number,
			Line:      i + 1,
		}
		if f.Gray != nil {
			in.Gray = f.Gray.Strip(i*pitch, glyphH)
		}
		if f.Secondary != nil {
			in.Secondary = f.Secondary.Strip(i*pitch, glyphH)
		}
		if f.Color != nil {
			in.Color = f.Color.Strip(i*pitch, glyphH)
		}
		work[i] = func() {
			rings := DeriveRings(e.groups, in.Frame, in.Line, e.cfg.FillerPolicy,
				e.cfg.SlowFrameDivisor, e.cfg.SwapFrameDivisor)
			results[i], errs[i] = ProcessLine(e.lib, rings, e.cfg, in)
		}
	}
	e.pool.ExecuteAll(work)

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("frame %d strip %d: %w", f.Number, i, err)
		}
	}

	res := e.assemble(f, results, pitch)
	e.afterFrame(res)
	Logger().Debug("frame done", "frame", f.Number, "strips", strips, "duration", time.Since(start))
	return res, nil
}

func (e *Engine) checkFrame(f Frame) error {
	t := f.Threshold
	if t == nil {
		return fmt.Errorf("%w: frame %d has no threshold image", ErrPrecondition, f.Number)
	}
	for _, img := range []*imageutil.GrayImage{f.Gray, f.Secondary} {
		if img != nil && img.Bounds().Size() != t.Bounds().Size() {
			return fmt.Errorf("%w: frame %d images differ in size", ErrPrecondition, f.Number)
		}
	}
	if f.Color != nil && f.Color.Bounds().Size() != t.Bounds().Size() {
		return fmt.Errorf("%w: frame %d color image differs in size", ErrPrecondition, f.Number)
	}
	return nil
}

// assemble copies strip results into full frames in strip order.
func (e *Engine) assemble(f Frame, results []*LineResult, pitch int) *FrameResult {
	w, h := f.Threshold.Width(), f.Threshold.Height()
	glyphH := e.lib.Height()
	out := imageutil.NewFilledRGBAImage(w, h, 0)
	res := &FrameResult{Number: f.Number, Rendered: out}

	if e.cfg.SplitFill {
		bg := uint8(255)
		if e.cfg.DarkBackground {
			bg = 0
		}
		res.Fill = imageutil.NewFilledRGBAImage(w, h, bg)
	}
	if e.lib.HasCodePoints() {
		res.Text = make([]string, len(results))
	}

	band := e.cfg.LineSpacing / 2
	for i, lr := range results {
		y := i * pitch
		out.Strip(y, glyphH).Paste(lr.Rendered, 0, 0)
		if !e.cfg.DarkBackground && band > 0 {
			// notebook rule under each light line
			r := image.Rect(0, y+glyphH, w, min(y+glyphH+band, h))
			draw.Draw(out.RGBA, r, image.NewUniform(grayColor(255)), image.Point{}, draw.Src)
		}
		if res.Fill != nil && lr.Fill != nil {
			res.Fill.Strip(y, glyphH).Paste(lr.Fill, 0, 0)
		}
		if res.Text != nil {
			res.Text[i] = lr.Text
		}
	}
	return res
}

// afterFrame runs the maintenance schedule: one pruning pass of rarely
// placed glyphs once enough frames have been seen, and the report
// cadence.
func (e *Engine) afterFrame(res *FrameResult) {
	e.frames++
	if e.cfg.PruneAfterFrames > 0 && e.frames == e.cfg.PruneAfterFrames {
		res.Pruned = e.lib.PruneUnused(e.cfg.PruneMinUsage)
	}
	if e.cfg.StatsEvery > 0 && e.frames%e.cfg.StatsEvery == 0 {
		res.ReportDue = true
	}
}
