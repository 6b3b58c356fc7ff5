package img2glyph

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the matcher and the frame engine. The
// numeric defaults were tuned by eye on real footage; they are kept as
// fields so glyph sets with other proportions can be re-tuned.
type Config struct {
	// Scoring
	Deadband        int     `yaml:"deadband"`          // diffs at or below this are ignored
	FastAcceptScore float64 `yaml:"fast_accept_score"` // space is taken at once below this
	WidthExponent   float64 `yaml:"width_exponent"`
	SpaceCorrection float64 `yaml:"space_correction"`
	HorizontalShift int     `yaml:"horizontal_shift"`

	// Layout
	SymbolSpacing     int `yaml:"symbol_spacing"`
	LeftMargin        int `yaml:"left_margin"`
	MinRemaining      int `yaml:"min_remaining"`
	MinCandidateWidth int `yaml:"min_candidate_width"`
	MinTail           int `yaml:"min_tail"`
	MinStripWidth     int `yaml:"min_strip_width"`
	LineSpacing       int `yaml:"line_spacing"`

	// Rotation triples
	Rotation        bool    `yaml:"rotation"`
	RotationDegrees float64 `yaml:"rotation_degrees"`

	// Filler
	FillSpacing        int          `yaml:"fill_spacing"`
	FillAlignment      bool         `yaml:"fill_alignment"`
	FillDepth          float64      `yaml:"fill_depth"`
	WideFillerFactor   float64      `yaml:"wide_filler_factor"`
	SecondaryFillLevel uint8        `yaml:"secondary_fill_level"`
	FillerPolicy       FillerPolicy `yaml:"filler_policy"`
	SlowFrameDivisor   int          `yaml:"slow_frame_divisor"`
	SwapFrameDivisor   int          `yaml:"swap_frame_divisor"`

	// Pre-processing
	ThresholdBlock  int     `yaml:"threshold_block"` // 3 or 5
	ThresholdC      float64 `yaml:"threshold_c"`
	SecondThreshold bool    `yaml:"second_threshold"`

	// Output
	DarkBackground bool  `yaml:"dark_background"`
	SplitFill      bool  `yaml:"split_fill"`
	Colored        bool  `yaml:"colored"`
	ColorBias      uint8 `yaml:"color_bias"`

	// Engine
	Workers          int   `yaml:"workers"`
	WorkerReserve    int   `yaml:"worker_reserve"`
	PruneAfterFrames int   `yaml:"prune_after_frames"` // 0 disables
	PruneMinUsage    int64 `yaml:"prune_min_usage"`
	StatsEvery       int   `yaml:"stats_every"`
}

// DefaultConfig returns the configuration the glyph sets were tuned
// with.
func DefaultConfig() *Config {
	return &Config{
		Deadband:        40,
		FastAcceptScore: 300,
		WidthExponent:   0.75,
		SpaceCorrection: 1.0,
		HorizontalShift: 2,

		SymbolSpacing:     1,
		LeftMargin:        5,
		MinRemaining:      10,
		MinCandidateWidth: 8,
		MinTail:           2,
		MinStripWidth:     100,

		RotationDegrees: 8,

		FillSpacing:        1,
		FillAlignment:      true,
		FillDepth:          100,
		WideFillerFactor:   1.5,
		SecondaryFillLevel: 200,
		FillerPolicy:       PolicyLines,
		SlowFrameDivisor:   22,
		SwapFrameDivisor:   10,

		ThresholdBlock: 3,
		ThresholdC:     3,

		DarkBackground: true,
		ColorBias:      40,

		WorkerReserve:    3,
		PruneAfterFrames: 500,
		PruneMinUsage:    10,
		StatsEvery:       500,
	}
}

// LoadConfig reads a YAML file over the defaults and validates the
// result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.Deadband < 0 || c.Deadband > 255:
		return fmt.Errorf("%w: deadband %d outside 0..255", ErrConfiguration, c.Deadband)
	case c.HorizontalShift < 0:
		return fmt.Errorf("%w: negative horizontal shift", ErrConfiguration)
	case c.HorizontalShift > c.LeftMargin:
		// a left-shifted placement would read before the line start
		return fmt.Errorf("%w: horizontal shift %d exceeds left margin %d",
			ErrConfiguration, c.HorizontalShift, c.LeftMargin)
	case c.SymbolSpacing < 0 || c.FillSpacing < 0 || c.LineSpacing < 0:
		return fmt.Errorf("%w: negative spacing", ErrConfiguration)
	case c.MinStripWidth < 1:
		return fmt.Errorf("%w: min strip width must be positive", ErrConfiguration)
	case c.FillDepth <= 0:
		return fmt.Errorf("%w: fill depth must be positive", ErrConfiguration)
	case c.WidthExponent <= 0:
		return fmt.Errorf("%w: width exponent must be positive", ErrConfiguration)
	case c.SpaceCorrection <= 0:
		return fmt.Errorf("%w: space correction must be positive", ErrConfiguration)
	case c.ThresholdBlock != 3 && c.ThresholdBlock != 5:
		return fmt.Errorf("%w: threshold block %d must be 3 or 5", ErrConfiguration, c.ThresholdBlock)
	case !c.FillerPolicy.valid():
		return fmt.Errorf("%w: unknown filler policy %q", ErrConfiguration, c.FillerPolicy)
	case c.SlowFrameDivisor < 1 || c.SwapFrameDivisor < 1:
		return fmt.Errorf("%w: frame divisors must be positive", ErrConfiguration)
	case c.Workers < 0 || c.WorkerReserve < 0:
		return fmt.Errorf("%w: negative worker count", ErrConfiguration)
	case c.PruneAfterFrames < 0 || c.StatsEvery < 0:
		return fmt.Errorf("%w: negative frame schedule", ErrConfiguration)
	}
	return nil
}

// LibraryOptions returns the options NewLibrary needs to match this
// configuration.
func (c *Config) LibraryOptions() []LibraryOption {
	return []LibraryOption{
		WithRotation(c.Rotation),
		WithWidthExponent(c.WidthExponent),
		WithSpaceCorrection(c.SpaceCorrection),
	}
}

// WorkerCount returns the pool size: Workers when set, otherwise the
// CPU count minus WorkerReserve, never below one.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return max(runtime.NumCPU()-c.WorkerReserve, 1)
}
