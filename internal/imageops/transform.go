package imageops

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// Resize methods accepted by ResizeGray.
const (
	ResizeNearest  = "nearest"
	ResizeBilinear = "bilinear"
)

// ResizeGray resamples a grayscale pixel buffer to the target size.
// Method selects the filter, "nearest" or "bilinear"; empty means
// bilinear.
func ResizeGray(pixels []uint8, size, target Size, method string) ([]uint8, error) {
	var filter imaging.ResampleFilter
	switch method {
	case ResizeNearest:
		filter = imaging.NearestNeighbor
	case ResizeBilinear, "":
		filter = imaging.Linear
	default:
		return nil, fmt.Errorf("invalid resize method %q (must be nearest or bilinear)", method)
	}
	if target.Width <= 0 || target.Height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", target.Width, target.Height)
	}

	img, err := GrayToImage(pixels, size)
	if err != nil {
		return nil, err
	}
	out, _ := GrayFromImage(imaging.Resize(img, target.Width, target.Height, filter))
	return out, nil
}

// Normalize min-max scales a pixel buffer into the [minVal, maxVal] float
// range. A constant buffer maps every pixel to minVal.
func Normalize(pixels []uint8, minVal, maxVal float32) []float32 {
	out := make([]float32, len(pixels))
	if len(pixels) == 0 {
		return out
	}

	lo, hi := pixels[0], pixels[0]
	for _, p := range pixels[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi == lo {
		for i := range out {
			out[i] = minVal
		}
		return out
	}

	span := float32(hi - lo)
	scale := maxVal - minVal
	for i, p := range pixels {
		out[i] = float32(p-lo)/span*scale + minVal
	}
	return out
}
