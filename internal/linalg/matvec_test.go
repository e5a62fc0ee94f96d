package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMatVec(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	v := mat.NewVecDense(3, []float64{1, 0, -1})

	out, err := MatVec(m, v)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.InDelta(t, -2.0, out.AtVec(0), 1e-12)
	assert.InDelta(t, -2.0, out.AtVec(1), 1e-12)
}

func TestMatVecIdentity(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	v := mat.NewVecDense(3, []float64{7, -3, 2.5})

	out, err := MatVec(m, v)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, v.AtVec(i), out.AtVec(i), 1e-12)
	}
}

func TestMatVecShapeMismatch(t *testing.T) {
	m := mat.NewDense(2, 3, nil)
	v := mat.NewVecDense(2, nil)

	_, err := MatVec(m, v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2x3")
	assert.Contains(t, err.Error(), "vector is 2")
}

func TestMatVecFlat(t *testing.T) {
	out, err := MatVecFlat([]float64{1, 2, 3, 4}, 2, 2, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 7}, out)
}

func TestMatVecFlatBadBuffer(t *testing.T) {
	_, err := MatVecFlat([]float64{1, 2, 3}, 2, 2, []float64{1, 1})
	require.Error(t, err)
}

func TestMatVecFlatVectorMismatch(t *testing.T) {
	_, err := MatVecFlat([]float64{1, 2, 3, 4}, 2, 2, []float64{1})
	require.Error(t, err)
}

func TestMatVecFlatEmpty(t *testing.T) {
	out, err := MatVecFlat(nil, 0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
