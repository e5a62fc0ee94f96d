// Package imageops provides elementwise transforms over flat 8-bit pixel
// buffers: inversion and binary thresholding. All functions are pure and
// allocate their output; caller buffers are never mutated.
package imageops

import (
	"fmt"
)

// Size describes the 2D shape of a flat pixel buffer stored row-major.
type Size struct {
	Width  int
	Height int
}

// Pixels returns the number of pixels the size describes.
func (s Size) Pixels() int { return s.Width * s.Height }

// ValidateSize checks that a flat buffer matches the declared shape.
func ValidateSize(pixels []uint8, size Size) error {
	if size.Width < 0 || size.Height < 0 {
		return fmt.Errorf("invalid image size %dx%d", size.Width, size.Height)
	}
	if len(pixels) != size.Pixels() {
		return fmt.Errorf("pixel buffer length %d does not match size %dx%d (%d pixels)",
			len(pixels), size.Width, size.Height, size.Pixels())
	}
	return nil
}

// Invert maps every pixel p to 255-p.
func Invert(pixels []uint8) []uint8 {
	out := make([]uint8, len(pixels))
	for i, p := range pixels {
		out[i] = 255 - p
	}
	return out
}

// InvertSized validates the buffer shape before inverting.
func InvertSized(pixels []uint8, size Size) ([]uint8, error) {
	if err := ValidateSize(pixels, size); err != nil {
		return nil, fmt.Errorf("invert: %w", err)
	}
	return Invert(pixels), nil
}

// Threshold maps every pixel strictly above thresh to maxValue and
// everything else to 0.
func Threshold(pixels []uint8, thresh, maxValue uint8) []uint8 {
	out := make([]uint8, len(pixels))
	for i, p := range pixels {
		if p > thresh {
			out[i] = maxValue
		}
	}
	return out
}

// ThresholdSized validates the buffer shape before thresholding.
func ThresholdSized(pixels []uint8, size Size, thresh, maxValue uint8) ([]uint8, error) {
	if err := ValidateSize(pixels, size); err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	return Threshold(pixels, thresh, maxValue), nil
}
