// Package imageutil provides the pixel plumbing around the glyph
// matcher: thin wrappers over image.Gray and image.RGBA, zero-copy
// horizontal strips, and the pre-processing steps that turn a frame into
// threshold and grayscale lines.
package imageutil

import (
	"image"
	"image/color"
)

// RGB represents a color in the RGB color space with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// RGBAImage wraps image.RGBA with convenience methods for pixel access.
type RGBAImage struct {
	*image.RGBA
}

// NewRGBAImage creates a new RGBAImage with the specified dimensions.
func NewRGBAImage(width, height int) *RGBAImage {
	return &RGBAImage{
		RGBA: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// NewFilledRGBAImage creates an RGBAImage with every pixel set to the
// gray level v.
func NewFilledRGBAImage(width, height int, v uint8) *RGBAImage {
	img := NewRGBAImage(width, height)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = v
		img.Pix[i+1] = v
		img.Pix[i+2] = v
		img.Pix[i+3] = 255
	}
	return img
}

// RGBAImageFromImage converts any image.Image to RGBAImage.
func RGBAImageFromImage(img image.Image) *RGBAImage {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return &RGBAImage{RGBA: rgba}
	}
	bounds := img.Bounds()
	rgba := NewRGBAImage(bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x-bounds.Min.X, y-bounds.Min.Y, img.At(x, y))
		}
	}
	return rgba
}

// Width returns the image width.
func (img *RGBAImage) Width() int {
	return img.Bounds().Dx()
}

// Height returns the image height.
func (img *RGBAImage) Height() int {
	return img.Bounds().Dy()
}

// GetRGB returns the RGB value at (x, y).
func (img *RGBAImage) GetRGB(x, y int) RGB {
	c := img.RGBAAt(x, y)
	return RGB{R: c.R, G: c.G, B: c.B}
}

// SetRGB sets the RGB value at (x, y).
func (img *RGBAImage) SetRGB(x, y int, c RGB) {
	img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
}

// Strip returns rows [y, y+h) as an image sharing pixels with img. The
// strip's bounds start at the origin.
func (img *RGBAImage) Strip(y, h int) *RGBAImage {
	off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
	return &RGBAImage{RGBA: &image.RGBA{
		Pix:    img.Pix[off:],
		Stride: img.Stride,
		Rect:   image.Rect(0, 0, img.Width(), h),
	}}
}

// Paste copies src into img with its top-left corner at (x, y). Pixels
// falling outside img are dropped.
func (img *RGBAImage) Paste(src *RGBAImage, x, y int) {
	for sy := 0; sy < src.Height(); sy++ {
		dy := y + sy
		if dy < 0 || dy >= img.Height() {
			continue
		}
		for sx := 0; sx < src.Width(); sx++ {
			dx := x + sx
			if dx < 0 || dx >= img.Width() {
				continue
			}
			img.SetRGBA(dx, dy, src.RGBAAt(sx, sy))
		}
	}
}

// GrayImage wraps image.Gray for single-channel images: glyph bitmaps,
// threshold lines and grayscale lines.
type GrayImage struct {
	*image.Gray
}

// NewGrayImage creates a new GrayImage with the specified dimensions.
func NewGrayImage(width, height int) *GrayImage {
	return &GrayImage{
		Gray: image.NewGray(image.Rect(0, 0, width, height)),
	}
}

// NewFilledGrayImage creates a GrayImage with every pixel set to v.
func NewFilledGrayImage(width, height int, v uint8) *GrayImage {
	img := NewGrayImage(width, height)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// GrayImageFromImage converts any image.Image to GrayImage.
func GrayImageFromImage(img image.Image) *GrayImage {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return &GrayImage{Gray: g}
	}
	bounds := img.Bounds()
	gray := NewGrayImage(bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x-bounds.Min.X, y-bounds.Min.Y, img.At(x, y))
		}
	}
	return gray
}

// Width returns the image width.
func (img *GrayImage) Width() int {
	return img.Bounds().Dx()
}

// Height returns the image height.
func (img *GrayImage) Height() int {
	return img.Bounds().Dy()
}

// GetGray returns the grayscale value at (x, y).
func (img *GrayImage) GetGray(x, y int) uint8 {
	return img.Pix[(y-img.Rect.Min.Y)*img.Stride+(x-img.Rect.Min.X)]
}

// SetGrayValue sets the grayscale value at (x, y).
func (img *GrayImage) SetGrayValue(x, y int, v uint8) {
	img.Pix[(y-img.Rect.Min.Y)*img.Stride+(x-img.Rect.Min.X)] = v
}

// Strip returns rows [y, y+h) as an image sharing pixels with img. The
// strip's bounds start at the origin.
func (img *GrayImage) Strip(y, h int) *GrayImage {
	off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
	return &GrayImage{Gray: &image.Gray{
		Pix:    img.Pix[off:],
		Stride: img.Stride,
		Rect:   image.Rect(0, 0, img.Width(), h),
	}}
}

// Invert returns a copy with every value v replaced by 255-v.
func (img *GrayImage) Invert() *GrayImage {
	dst := NewGrayImage(img.Width(), img.Height())
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			dst.Pix[y*dst.Stride+x] = 255 - img.GetGray(x, y)
		}
	}
	return dst
}

