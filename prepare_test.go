package img2glyph

import (
	"errors"
	"testing"

	"github.com/wbrown/img2glyph/imageutil"
)

func TestPrepareFrame(t *testing.T) {
	src := imageutil.NewFilledRGBAImage(120, 28, 255)
	for y := 0; y < 28; y++ {
		for x := 60; x < 120; x++ {
			src.SetRGB(x, y, imageutil.RGB{})
		}
	}

	tests := []struct {
		name      string
		second    bool
		colored   bool
		secondary bool
	}{
		{"adaptive", false, false, false},
		{"adaptive colored", false, true, false},
		{"second threshold", true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SecondThreshold = tt.second
			cfg.Colored = tt.colored

			f, err := PrepareFrame(src, 7, cfg)
			if err != nil {
				t.Fatalf("PrepareFrame failed: %v", err)
			}
			if f.Number != 7 {
				t.Errorf("Number = %d, want 7", f.Number)
			}
			if f.Threshold.Width() != 120 || f.Threshold.Height() != 28 {
				t.Errorf("Threshold is %dx%d", f.Threshold.Width(), f.Threshold.Height())
			}
			if (f.Secondary != nil) != tt.secondary {
				t.Errorf("Secondary present = %t, want %t", f.Secondary != nil, tt.secondary)
			}
			if (f.Color != nil) != tt.colored {
				t.Errorf("Color present = %t, want %t", f.Color != nil, tt.colored)
			}
			if f.Gray.GetGray(10, 10) != 255 || f.Gray.GetGray(100, 10) != 0 {
				t.Error("Gray image does not follow the source")
			}
			// flat regions pass the adaptive threshold
			if f.Threshold.GetGray(10, 10) != 255 {
				t.Errorf("Flat bright area threshold = %d, want 255", f.Threshold.GetGray(10, 10))
			}
		})
	}
}

func TestPrepareFrameLiftsThreshold(t *testing.T) {
	src := imageutil.NewFilledRGBAImage(120, 14, 255)
	for y := 0; y < 14; y++ {
		src.SetRGB(60, y, imageutil.RGB{})
	}
	cfg := DefaultConfig()
	f, err := PrepareFrame(src, 1, cfg)
	if err != nil {
		t.Fatalf("PrepareFrame failed: %v", err)
	}
	if got := f.Threshold.GetGray(60, 7); got != uint8(cfg.Deadband) {
		t.Errorf("Dark line threshold = %d, want the deadband %d", got, cfg.Deadband)
	}
}

func TestPrepareFrameNilSource(t *testing.T) {
	if _, err := PrepareFrame(nil, 1, DefaultConfig()); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Expected precondition violation, got %v", err)
	}
}
