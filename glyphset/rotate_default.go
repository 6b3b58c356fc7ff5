//go:build !gocv

package glyphset

import "github.com/wbrown/img2glyph/imageutil"

func rotate(src *imageutil.GrayImage, degrees float64) (*imageutil.GrayImage, error) {
	return rotateAffine(src, degrees), nil
}
