//go:build gocv

package glyphset

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/wbrown/img2glyph/imageutil"
)

func rotate(src *imageutil.GrayImage, degrees float64) (*imageutil.GrayImage, error) {
	return rotateOpenCV(src, degrees)
}

// rotateOpenCV rotates with OpenCV's warpAffine and bilinear
// sampling.
func rotateOpenCV(src *imageutil.GrayImage, degrees float64) (*imageutil.GrayImage, error) {
	w, h := src.Width(), src.Height()
	inv := src.Invert()
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, inv.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap glyph bitmap: %w", err)
	}
	defer mat.Close()

	m := gocv.GetRotationMatrix2D(image.Pt(w/2, h/2), degrees, 1.0)
	defer m.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.WarpAffine(mat, &dst, m, image.Pt(w, h))

	out := imageutil.NewGrayImage(w, h)
	copy(out.Pix, dst.ToBytes())
	return out.Invert(), nil
}
