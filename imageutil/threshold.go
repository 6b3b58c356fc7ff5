package imageutil

import "fmt"

// AdaptiveThreshold binarises img against a Gaussian-weighted local mean:
// a pixel becomes 255 when it is brighter than mean-c, 0 otherwise. Only
// block sizes 3 and 5 are supported.
func AdaptiveThreshold(img *GrayImage, blockSize int, c float64) (*GrayImage, error) {
	var kernel *Kernel
	switch blockSize {
	case 3:
		kernel = GaussianKernel3x3()
	case 5:
		kernel = GaussianKernel5x5()
	default:
		return nil, fmt.Errorf("unsupported adaptive threshold block size %d", blockSize)
	}

	mean := ConvolveGrayFloat(img, kernel)
	dst := NewGrayImage(img.Width(), img.Height())
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if float64(img.GetGray(x, y)) > mean[y][x]-c {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst, nil
}

// OtsuLevel returns the global threshold that maximises the between-class
// variance of the histogram of img.
func OtsuLevel(img *GrayImage) uint8 {
	var hist [256]int
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			hist[img.GetGray(x, y)]++
		}
	}

	total := img.Width() * img.Height()
	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var sumB, best float64
	var wB int
	var level uint8
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level
}

// Binarize maps pixels above level to 255 and the rest to 0.
func Binarize(img *GrayImage, level uint8) *GrayImage {
	dst := NewGrayImage(img.Width(), img.Height())
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if img.GetGray(x, y) > level {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// Lift adds amount to every pixel, saturating at 255. Lifting a binary
// threshold image by the matcher's deadband makes its black pixels weigh
// less against glyph ink.
func Lift(img *GrayImage, amount uint8) *GrayImage {
	dst := NewGrayImage(img.Width(), img.Height())
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			v := int(img.GetGray(x, y)) + int(amount)
			if v > 255 {
				v = 255
			}
			dst.Pix[y*dst.Stride+x] = uint8(v)
		}
	}
	return dst
}
