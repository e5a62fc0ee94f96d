package imageops

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// GrayFromImage converts any image to 8-bit grayscale and returns its
// flat row-major pixel buffer with the corresponding size.
func GrayFromImage(img image.Image) ([]uint8, Size) {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	size := Size{Width: bounds.Dx(), Height: bounds.Dy()}
	pixels := make([]uint8, size.Pixels())
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			// NRGBA grayscale: R==G==B, take R.
			pixels[y*size.Width+x] = gray.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y).R
		}
	}
	return pixels, size
}

// GrayToImage wraps a flat pixel buffer into an image.Gray.
func GrayToImage(pixels []uint8, size Size) (*image.Gray, error) {
	if err := ValidateSize(pixels, size); err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, size.Width, size.Height))
	copy(img.Pix, pixels)
	return img, nil
}

// InvertGray returns an inverted copy of a grayscale image.
func InvertGray(img *image.Gray) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x, y, color.Gray{Y: 255 - img.GrayAt(x, y).Y})
		}
	}
	return out
}

// ThresholdGray returns a binarized copy of a grayscale image: pixels
// strictly above thresh become maxValue, everything else 0.
func ThresholdGray(img *image.Gray, thresh, maxValue uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var v uint8
			if img.GrayAt(x, y).Y > thresh {
				v = maxValue
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

// LoadGray loads an image file and returns its grayscale pixel buffer.
func LoadGray(path string) ([]uint8, Size, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, Size{}, fmt.Errorf("loading image %s: %w", path, err)
	}
	pixels, size := GrayFromImage(img)
	return pixels, size, nil
}

// SaveGray writes a flat pixel buffer to an image file; the format follows
// the path extension.
func SaveGray(path string, pixels []uint8, size Size) error {
	img, err := GrayToImage(pixels, size)
	if err != nil {
		return fmt.Errorf("saving image %s: %w", path, err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("saving image %s: %w", path, err)
	}
	return nil
}
