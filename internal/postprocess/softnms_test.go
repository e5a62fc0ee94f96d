package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextcv/nextcv/internal/geometry"
)

func TestSoftNonMaxSuppressionLinearKeepsDecayed(t *testing.T) {
	dets := []Detection{
		{Box: geometry.NewBox(0, 0, 10, 10), Score: 0.9},
		{Box: geometry.NewBox(1, 1, 9, 9), Score: 0.8}, // heavy overlap
		{Box: geometry.NewBox(20, 20, 30, 30), Score: 0.7},
	}
	// Linear decay keeps the overlapping detection with a reduced score.
	kept := SoftNonMaxSuppression(dets, SoftNMSLinear, 0.5, 0, 0.1)
	require.Len(t, kept, 3)
	for i := 1; i < len(kept); i++ {
		assert.LessOrEqual(t, kept[i].Score, kept[i-1].Score)
	}

	// The overlapped detection's score must have decayed below the input.
	var overlapped *Detection
	for i := range kept {
		if kept[i].Box == dets[1].Box {
			overlapped = &kept[i]
		}
	}
	require.NotNil(t, overlapped)
	assert.Less(t, overlapped.Score, float32(0.8))
}

func TestSoftNonMaxSuppressionGaussian(t *testing.T) {
	dets := []Detection{
		{Box: geometry.NewBox(0, 0, 10, 10), Score: 0.9},
		{Box: geometry.NewBox(1, 1, 9, 9), Score: 0.8},
		{Box: geometry.NewBox(20, 20, 30, 30), Score: 0.7},
	}
	kept := SoftNonMaxSuppression(dets, SoftNMSGaussian, 0.5, 0.5, 0.1)
	assert.Len(t, kept, 3)
}

func TestSoftNonMaxSuppressionHardMatchesGreedy(t *testing.T) {
	dets := []Detection{
		{Box: geometry.NewBox(10, 10, 60, 60), Score: 0.9},
		{Box: geometry.NewBox(15, 15, 60, 60), Score: 0.8},
		{Box: geometry.NewBox(100, 100, 130, 130), Score: 0.7},
		{Box: geometry.NewBox(20, 20, 60, 60), Score: 0.6},
	}
	kept := SoftNonMaxSuppression(dets, SoftNMSHard, 0.5, 0, 0.01)
	require.Len(t, kept, 2)
	assert.Equal(t, dets[0].Box, kept[0].Box)
	assert.Equal(t, dets[2].Box, kept[1].Box)
}

func TestSoftNonMaxSuppressionScoreThreshold(t *testing.T) {
	dets := []Detection{
		{Box: geometry.NewBox(0, 0, 10, 10), Score: 0.9},
		{Box: geometry.NewBox(50, 50, 60, 60), Score: 0.05},
	}
	kept := SoftNonMaxSuppression(dets, SoftNMSLinear, 0.5, 0, 0.1)
	require.Len(t, kept, 1)
	assert.Equal(t, dets[0].Box, kept[0].Box)
}

func TestSoftNonMaxSuppressionEmpty(t *testing.T) {
	assert.Empty(t, SoftNonMaxSuppression(nil, SoftNMSLinear, 0.5, 0, 0.1))
}

func TestSoftNonMaxSuppressionDoesNotMutateInput(t *testing.T) {
	dets := []Detection{
		{Box: geometry.NewBox(0, 0, 10, 10), Score: 0.9},
		{Box: geometry.NewBox(1, 1, 9, 9), Score: 0.8},
	}
	orig := append([]Detection(nil), dets...)
	SoftNonMaxSuppression(dets, SoftNMSLinear, 0.5, 0, 0.1)
	assert.Equal(t, orig, dets)
}
