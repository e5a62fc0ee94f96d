package postprocess

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/nextcv/nextcv/internal/geometry"
)

// Soft-NMS decay methods.
const (
	SoftNMSHard     = "hard"
	SoftNMSLinear   = "linear"
	SoftNMSGaussian = "gaussian"
)

// SoftNonMaxSuppression applies Soft-NMS to a detection slice: instead of
// removing overlapping candidates outright, their scores decay according
// to the chosen method ("hard", "linear", "gaussian"). Detections whose
// decayed score falls below scoreThresh are dropped. The input is not
// mutated; survivors are returned in descending-score order.
//
// With the "hard" method this degenerates to classic greedy NMS on the
// score-filtered input.
func SoftNonMaxSuppression(dets []Detection, method string, iouThreshold, sigma, scoreThresh float32) []Detection {
	var work []Detection
	for _, d := range dets {
		if d.Score >= scoreThresh {
			work = append(work, d)
		}
	}
	if len(work) <= 1 {
		return work
	}

	for i := range work {
		// Selection-sort step: bring the highest remaining score to i.
		maxIdx := i
		for j := i + 1; j < len(work); j++ {
			if work[j].Score > work[maxIdx].Score {
				maxIdx = j
			}
		}
		work[i], work[maxIdx] = work[maxIdx], work[i]

		for j := i + 1; j < len(work); j++ {
			iou := geometry.IoU(work[i].Box, work[j].Box)
			work[j].Score *= softNMSWeight(iou, iouThreshold, sigma, method)
		}
	}

	filtered := work[:0]
	for _, d := range work {
		if d.Score >= scoreThresh {
			filtered = append(filtered, d)
		}
	}
	sort.SliceStable(filtered, func(a, b int) bool {
		return filtered[a].Score > filtered[b].Score
	})
	return filtered
}

// softNMSWeight returns the score decay factor for a given overlap.
func softNMSWeight(iou, iouThreshold, sigma float32, method string) float32 {
	switch method {
	case SoftNMSLinear:
		if iou >= iouThreshold {
			return 1.0 - iou
		}
		return 1.0
	case SoftNMSGaussian:
		if sigma <= 0 {
			sigma = 0.5
		}
		return math32.Exp(-(iou * iou) / sigma)
	default: // hard
		if iou >= iouThreshold {
			return 0.0
		}
		return 1.0
	}
}
