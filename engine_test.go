package img2glyph

import (
	"errors"
	"strings"
	"testing"

	"github.com/wbrown/img2glyph/imageutil"
)

func newTestEngine(t *testing.T, lib *Library, cfg *Config) *Engine {
	t.Helper()
	e, err := NewEngine(lib, cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func whiteFrame(w, h, number int) Frame {
	return Frame{
		Threshold: imageutil.NewFilledGrayImage(w, h, 255),
		Gray:      imageutil.NewFilledGrayImage(w, h, 255),
		Number:    number,
	}
}

func TestEngineProcessFrame(t *testing.T) {
	lib := scenarioLibrary(t)
	e := newTestEngine(t, lib, scenarioConfig())

	res, err := e.ProcessFrame(whiteFrame(200, 28, 1))
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if len(res.Text) != 2 {
		t.Fatalf("Expected 2 text lines, got %d", len(res.Text))
	}
	for i, line := range res.Text {
		if line != strings.Repeat(" ", 23) {
			t.Errorf("line %d = %q, want 23 spaces", i, line)
		}
	}
	if res.Rendered.Width() != 200 || res.Rendered.Height() != 28 {
		t.Errorf("Rendered is %dx%d, want 200x28", res.Rendered.Width(), res.Rendered.Height())
	}
	if res.Fill != nil {
		t.Error("Fill frame should be nil without split fill")
	}
	if got := lib.Usage(SpaceIndex); got != 2*23 {
		t.Errorf("Space usage = %d, want %d", got, 2*23)
	}
	if e.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", e.Frames())
	}
}

func TestEngineLightBackgroundBands(t *testing.T) {
	cfg := scenarioConfig()
	cfg.DarkBackground = false
	cfg.LineSpacing = 2
	cfg.SplitFill = true
	e := newTestEngine(t, scenarioLibrary(t), cfg)

	res, err := e.ProcessFrame(whiteFrame(200, 32, 1))
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	white := imageutil.RGB{R: 255, G: 255, B: 255}
	tests := []struct {
		y    int
		want imageutil.RGB
	}{
		{0, white},
		{13, white},
		{14, white}, // notebook band
		{15, imageutil.RGB{}},
		{16, white},
		{30, white},
		{31, imageutil.RGB{}},
	}
	for _, tt := range tests {
		if got := res.Rendered.GetRGB(100, tt.y); got != tt.want {
			t.Errorf("row %d = %v, want %v", tt.y, got, tt.want)
		}
	}
	if res.Fill == nil || res.Fill.GetRGB(100, 15) != white {
		t.Error("Fill frame should start as the background colour")
	}
}

func TestEngineRejectsBadFrames(t *testing.T) {
	e := newTestEngine(t, scenarioLibrary(t), scenarioConfig())

	tests := []struct {
		name  string
		frame Frame
	}{
		{"no threshold", Frame{Number: 1}},
		{"too narrow", whiteFrame(90, 28, 1)},
		{"size mismatch", Frame{
			Threshold: imageutil.NewFilledGrayImage(200, 28, 255),
			Gray:      imageutil.NewFilledGrayImage(200, 14, 255),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.ProcessFrame(tt.frame); !errors.Is(err, ErrPrecondition) {
				t.Errorf("Expected precondition violation, got %v", err)
			}
		})
	}
	if e.Frames() != 0 {
		t.Errorf("Failed frames were counted: %d", e.Frames())
	}
}

func TestEnginePruneSchedule(t *testing.T) {
	lib := scenarioLibrary(t)
	cfg := scenarioConfig()
	cfg.PruneAfterFrames = 2
	cfg.PruneMinUsage = 0
	cfg.StatsEvery = 2
	e := newTestEngine(t, lib, cfg)

	first, err := e.ProcessFrame(whiteFrame(200, 14, 1))
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if first.Pruned != 0 || first.ReportDue {
		t.Errorf("frame 1: pruned %d, report %t", first.Pruned, first.ReportDue)
	}

	second, err := e.ProcessFrame(whiteFrame(200, 14, 2))
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	// 'A' was never placed; fillers are not candidates to begin with
	if second.Pruned != 1 {
		t.Errorf("frame 2 pruned %d glyphs, want 1", second.Pruned)
	}
	if !second.ReportDue {
		t.Error("frame 2 should be a report frame")
	}
	if lib.IsValid(1) || !lib.IsValid(SpaceIndex) {
		t.Error("Unused glyph should be invalid, space should stay valid")
	}
}

func TestNewEngineErrors(t *testing.T) {
	if _, err := NewEngine(nil, nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("nil library: got %v", err)
	}
	cfg := scenarioConfig()
	cfg.Rotation = true
	if _, err := NewEngine(scenarioLibrary(t), cfg); !errors.Is(err, ErrConfiguration) {
		t.Errorf("rotation mismatch: got %v", err)
	}
	cfg = scenarioConfig()
	cfg.FillerPolicy = "none"
	if _, err := NewEngine(scenarioLibrary(t), cfg); !errors.Is(err, ErrConfiguration) {
		t.Errorf("invalid config: got %v", err)
	}
}

func TestEngineDarkFrameUsesFillers(t *testing.T) {
	e := newTestEngine(t, scenarioLibrary(t), scenarioConfig())
	f := whiteFrame(200, 42, 3)
	f.Gray = imageutil.NewFilledGrayImage(200, 42, 0)

	res, err := e.ProcessFrame(f)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	for i, line := range res.Text {
		if line == "" || strings.Trim(line, "#") != "" {
			t.Errorf("line %d = %q, want fillers only", i, line)
		}
	}
}
