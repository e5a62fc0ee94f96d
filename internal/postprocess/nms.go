package postprocess

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nextcv/nextcv/internal/geometry"
	"github.com/nextcv/nextcv/internal/mempool"
)

// ErrLengthMismatch reports that boxes and scores differ in length.
// Only the strict entry point returns it; NonMaxSuppression treats the
// condition as a defined no-op.
var ErrLengthMismatch = errors.New("boxes and scores length mismatch")

// Detection pairs a bounding box with its confidence score.
type Detection struct {
	Box   geometry.Box `json:"box"`
	Score float32      `json:"score"`
}

// NonMaxSuppression performs greedy Non-Maximum Suppression over parallel
// box and score slices and returns the original indices of the boxes to
// keep, ordered by descending score.
//
// Candidates are ranked by (score descending, original index ascending);
// the stable tie-break makes output deterministic when scores are equal.
// Walking that order, each not-yet-suppressed candidate is kept and every
// lower-ranked candidate whose IoU with it exceeds iouThreshold (strictly)
// is suppressed. Boxes exactly at the threshold survive.
//
// Empty inputs or a length mismatch between boxes and scores yield an
// empty result rather than an error; use NonMaxSuppressionStrict for the
// failing variant. The function is pure and safe for concurrent use.
func NonMaxSuppression(boxes []geometry.Box, scores []float32, iouThreshold float32) []int {
	if len(boxes) == 0 || len(scores) == 0 || len(boxes) != len(scores) {
		return []int{}
	}
	return suppress(boxes, scores, iouThreshold)
}

// NonMaxSuppressionStrict is NonMaxSuppression with strict input
// validation: a length mismatch returns an error wrapping
// ErrLengthMismatch instead of an empty result. Empty inputs are still a
// no-op.
func NonMaxSuppressionStrict(boxes []geometry.Box, scores []float32, iouThreshold float32) ([]int, error) {
	if len(boxes) != len(scores) {
		return nil, fmt.Errorf("%w: %d boxes, %d scores", ErrLengthMismatch, len(boxes), len(scores))
	}
	if len(boxes) == 0 {
		return []int{}, nil
	}
	return suppress(boxes, scores, iouThreshold), nil
}

// suppress runs the greedy suppression walk. Inputs are known non-empty
// and of equal length.
func suppress(boxes []geometry.Box, scores []float32, iouThreshold float32) []int {
	n := len(boxes)

	areas := mempool.GetFloat32(n)
	defer mempool.PutFloat32(areas)
	for i, b := range boxes {
		areas[i] = b.Area()
	}

	// Rank by score descending; the stable sort preserves original index
	// order between equal scores.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	suppressed := mempool.GetBool(n)
	defer mempool.PutBool(suppressed)

	keep := make([]int, 0, n)
	for i, idx := range order {
		if suppressed[idx] {
			continue
		}
		keep = append(keep, idx)

		for _, other := range order[i+1:] {
			if suppressed[other] {
				continue
			}
			if iouWithAreas(boxes[idx], boxes[other], areas[idx], areas[other]) > iouThreshold {
				suppressed[other] = true
			}
		}
	}
	return keep
}

// iouWithAreas computes IoU reusing precomputed box areas. Matches
// geometry.IoU, including the zero-union policy.
func iouWithAreas(a, b geometry.Box, areaA, areaB float32) float32 {
	inter := geometry.Intersection(a, b)
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// FilterDetections applies NonMaxSuppression to a detection slice and
// returns the surviving detections in descending-score order.
func FilterDetections(dets []Detection, iouThreshold float32) []Detection {
	if len(dets) == 0 {
		return nil
	}
	boxes := make([]geometry.Box, len(dets))
	scores := make([]float32, len(dets))
	for i, d := range dets {
		boxes[i] = d.Box
		scores[i] = d.Score
	}
	keep := NonMaxSuppression(boxes, scores, iouThreshold)
	out := make([]Detection, 0, len(keep))
	for _, idx := range keep {
		out = append(out, dets[idx])
	}
	return out
}
