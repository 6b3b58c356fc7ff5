// Command glyphify renders images or numbered video frames as glyph art
// using a glyph folder as the alphabet.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wbrown/img2glyph"
	"github.com/wbrown/img2glyph/glyphset"
	"github.com/wbrown/img2glyph/imageutil"
)

func main() {
	glyphDir := flag.String("glyphs", "",
		"Path to the glyph folder (required)")
	input := flag.String("input", "",
		"Input image, or a folder of frames processed in name order (required)")
	configFile := flag.String("config", "",
		"YAML file overriding the default tunables")
	outDir := flag.String("out", "out",
		"Output folder")
	height := flag.Int("height", 0,
		"Scale frames to this height before matching, 0 keeps the source size")
	rotate := flag.Bool("rotate", false,
		"Load rotated variants of every glyph")
	policy := flag.String("policy", "",
		"Filler policy: lines or symbols (default from config)")
	split := flag.Bool("split", false,
		"Write fillers to a separate fill frame")
	colored := flag.Bool("colored", false,
		"Tint fillers with the source colour")
	light := flag.Bool("light", false,
		"Render black glyphs on a white background")
	second := flag.Bool("second", false,
		"Use the Otsu second threshold pass")
	compress := flag.Bool("zstd", false,
		"Compress text frames with zstd")
	verbose := flag.Bool("v", false,
		"Log debug output")
	flag.Parse()

	if *glyphDir == "" || *input == "" {
		fmt.Println("Please provide the glyph folder with -glyphs and the frames with -input")
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	runID := uuid.New().String()
	img2glyph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level})).With("run", runID))

	cfg := img2glyph.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = img2glyph.LoadConfig(*configFile); err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	// flags given on the command line win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rotate":
			cfg.Rotation = *rotate
		case "policy":
			cfg.FillerPolicy = img2glyph.FillerPolicy(strings.ToLower(*policy))
		case "split":
			cfg.SplitFill = *split
		case "colored":
			cfg.Colored = *colored
		case "light":
			cfg.DarkBackground = !*light
		case "second":
			cfg.SecondThreshold = *second
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(runID, *glyphDir, *input, *outDir, *height, *compress, cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(runID, glyphDir, input, outDir string, height int, compress bool, cfg *img2glyph.Config) error {
	begin := time.Now()
	var setOpts []glyphset.Option
	if cfg.Rotation {
		setOpts = append(setOpts, glyphset.WithRotation(cfg.RotationDegrees))
	}
	set, err := glyphset.Load(glyphDir, setOpts...)
	if err != nil {
		return err
	}
	lib, err := set.Library(cfg.LibraryOptions()...)
	if err != nil {
		return err
	}
	engine, err := img2glyph.NewEngine(lib, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	frames, err := framePaths(input)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	out := &writer{dir: outDir, runID: runID, compress: compress}
	defer out.close()

	fmt.Printf("glyphs: %d unique, %d valid, rotation %t\n", lib.Len(), lib.ValidCount(), lib.Rotation())
	fmt.Printf("filler groups: %d, policy %s\n", len(engine.Groups()), cfg.FillerPolicy)
	fmt.Printf("Initialization time: %v\n", time.Since(begin))

	start := time.Now()
	for i, path := range frames {
		src, err := imageutil.LoadImage(path)
		if err != nil {
			return err
		}
		if height > 0 {
			src = imageutil.ResizeToHeight(src, height, imageutil.InterpolationArea)
		}
		frame, err := img2glyph.PrepareFrame(src, i+1, cfg)
		if err != nil {
			return err
		}
		res, err := engine.ProcessFrame(frame)
		if err != nil {
			return err
		}
		if err := out.frame(res); err != nil {
			return err
		}
		if res.Pruned > 0 {
			fmt.Printf("frame %d: pruned %d glyphs\n", res.Number, res.Pruned)
		}
		if res.ReportDue {
			if err := out.stats(lib); err != nil {
				return err
			}
		}
	}
	if err := out.stats(lib); err != nil {
		return err
	}

	fmt.Printf("Frames: %d\n", len(frames))
	fmt.Printf("Computation time: %v\n", time.Since(start))
	fmt.Printf("Output written to %s\n", outDir)
	return nil
}

// framePaths returns input itself, or the images inside it in name
// order when it is a folder.
func framePaths(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}
	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, fmt.Errorf("failed to list input folder: %w", err)
	}
	var paths []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff":
			paths = append(paths, filepath.Join(input, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images in %s", input)
	}
	sort.Strings(paths)
	return paths, nil
}
