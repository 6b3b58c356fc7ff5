package img2glyph

import (
	"fmt"

	"github.com/wbrown/img2glyph/imageutil"
)

// PrepareFrame turns a source image, already scaled to the output size,
// into the images the engine matches against. The threshold image is
// an adaptive threshold lifted by the deadband. With SecondThreshold
// the frame is first binarised with Otsu's level; that binary image
// becomes the secondary image and the threshold is taken from it.
func PrepareFrame(src *imageutil.RGBAImage, number int, cfg *Config) (Frame, error) {
	if src == nil {
		return Frame{}, fmt.Errorf("%w: frame %d has no source image", ErrPrecondition, number)
	}
	gray := imageutil.ToGrayscale(src)
	f := Frame{Gray: gray, Number: number}
	if cfg.Colored {
		f.Color = src
	}

	if !cfg.SecondThreshold {
		th, err := imageutil.AdaptiveThreshold(gray, cfg.ThresholdBlock, cfg.ThresholdC)
		if err != nil {
			return Frame{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		f.Threshold = imageutil.Lift(th, uint8(cfg.Deadband))
		return f, nil
	}

	blurred := imageutil.GaussianBlurGray(gray)
	otsu := imageutil.Binarize(blurred, imageutil.OtsuLevel(blurred))
	th, err := imageutil.AdaptiveThreshold(otsu, 3, 2)
	if err != nil {
		return Frame{}, err
	}
	f.Threshold = imageutil.ConvolveGray(th, imageutil.GaussianKernel3x3())
	f.Secondary = otsu
	return f, nil
}
