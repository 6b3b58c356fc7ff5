package glyphset

import (
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/wbrown/img2glyph/imageutil"
)

// rotationMatrix returns the source-to-destination affine transform of
// a rotation by degrees counter-clockwise about the bitmap centre, in
// the layout OpenCV's getRotationMatrix2D uses.
func rotationMatrix(w, h int, degrees float64) f64.Aff3 {
	rad := degrees * math.Pi / 180
	a, b := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(w)/2, float64(h)/2
	return f64.Aff3{
		a, b, (1-a)*cx - b*cy,
		-b, a, b*cx + (1-a)*cy,
	}
}

// rotateAffine rotates a glyph bitmap keeping its size. The bitmap is
// inverted around the transform so the corners uncovered by the
// rotation come out as white background.
func rotateAffine(src *imageutil.GrayImage, degrees float64) *imageutil.GrayImage {
	inv := src.Invert()
	dst := imageutil.NewGrayImage(src.Width(), src.Height())
	s2d := rotationMatrix(src.Width(), src.Height(), degrees)
	draw.BiLinear.Transform(dst.Gray, s2d, inv.Gray, inv.Bounds(), draw.Src, nil)
	return dst.Invert()
}

// Triple returns {normal, rotated left, rotated right} for one glyph.
func Triple(src *imageutil.GrayImage, degrees float64) ([3]*imageutil.GrayImage, error) {
	left, err := rotate(src, degrees)
	if err != nil {
		return [3]*imageutil.GrayImage{}, err
	}
	right, err := rotate(src, -degrees)
	if err != nil {
		return [3]*imageutil.GrayImage{}, err
	}
	return [3]*imageutil.GrayImage{src, left, right}, nil
}
