package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Box represents an axis-aligned bounding box with top-left (X1, Y1) and
// bottom-right (X2, Y2) corners in a shared 2D coordinate space.
//
// Area and IoU math assume X2 >= X1 and Y2 >= Y1. Boxes violating this are
// not rejected but yield negative areas; callers that care must validate
// before use (e.g. by constructing through NewBox).
type Box struct {
	X1 float32
	Y1 float32
	X2 float32
	Y2 float32
}

// NewBox constructs a Box from two corners, normalizing coordinate order.
func NewBox(x1, y1, x2, y2 float32) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the box width.
func (b Box) Width() float32 { return b.X2 - b.X1 }

// Height returns the box height.
func (b Box) Height() float32 { return b.Y2 - b.Y1 }

// Area returns the raw width*height product without clamping. For a valid
// box this is non-negative; invalid corner order yields a negative area.
func (b Box) Area() float32 { return b.Width() * b.Height() }

// Valid reports whether the corners are ordered (X2 >= X1 and Y2 >= Y1).
func (b Box) Valid() bool { return b.X2 >= b.X1 && b.Y2 >= b.Y1 }

// Intersection returns the overlap area of two boxes. Negative extents are
// clamped to zero, so disjoint boxes intersect with area 0.
func Intersection(a, b Box) float32 {
	w := math32.Min(a.X2, b.X2) - math32.Max(a.X1, b.X1)
	h := math32.Min(a.Y2, b.Y2) - math32.Max(a.Y1, b.Y1)
	return math32.Max(0, w) * math32.Max(0, h)
}

// IoU computes Intersection over Union for two boxes.
// When the union area is not positive (both boxes degenerate), it returns 0
// so that degenerate boxes never suppress each other and no NaN escapes.
func IoU(a, b Box) float32 {
	inter := Intersection(a, b)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// BoxesFromFlat converts a flat x1,y1,x2,y2,... buffer into boxes.
// The buffer length must be a multiple of 4.
func BoxesFromFlat(data []float32) ([]Box, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("flat box buffer length %d is not a multiple of 4", len(data))
	}
	boxes := make([]Box, 0, len(data)/4)
	for i := 0; i+3 < len(data); i += 4 {
		boxes = append(boxes, Box{X1: data[i], Y1: data[i+1], X2: data[i+2], Y2: data[i+3]})
	}
	return boxes, nil
}

// Flatten writes boxes back into a flat x1,y1,x2,y2,... buffer.
func Flatten(boxes []Box) []float32 {
	out := make([]float32, 0, len(boxes)*4)
	for _, b := range boxes {
		out = append(out, b.X1, b.Y1, b.X2, b.Y2)
	}
	return out
}
