//go:build gocv

package glyphset

import (
	"testing"

	"github.com/wbrown/img2glyph/imageutil"
)

func meanAbsDiff(a, b *imageutil.GrayImage) float64 {
	var sum float64
	for y := 0; y < a.Height(); y++ {
		for x := 0; x < a.Width(); x++ {
			d := float64(a.GetGray(x, y)) - float64(b.GetGray(x, y))
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}
	return sum / float64(a.Width()*a.Height())
}

// Run with: go test -tags gocv ./glyphset
func TestCompareRotation(t *testing.T) {
	img := imageutil.NewFilledGrayImage(10, 14, 255)
	for y := 2; y < 12; y++ {
		img.SetGrayValue(4, y, 0)
		img.SetGrayValue(5, y, 0)
	}

	for _, deg := range []float64{8, -8} {
		cv, err := rotateOpenCV(img, deg)
		if err != nil {
			t.Fatalf("rotateOpenCV failed: %v", err)
		}
		pure := rotateAffine(img, deg)
		diff := meanAbsDiff(cv, pure)
		t.Logf("rotation %.0f mean abs diff: %f", deg, diff)
		if diff > 20 {
			t.Errorf("rotation %.0f differs too much: %f", deg, diff)
		}
	}
}
