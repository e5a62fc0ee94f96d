// Package linalg wraps dense linear-algebra primitives from gonum.
package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MatVec multiplies a dense matrix by a column vector. The vector length
// must equal the matrix column count; a mismatch is an error naming both
// shapes.
func MatVec(m *mat.Dense, v *mat.VecDense) (*mat.VecDense, error) {
	rows, cols := m.Dims()
	if v.Len() != cols {
		return nil, fmt.Errorf("matvec: shape mismatch: matrix is %dx%d, vector is %d", rows, cols, v.Len())
	}
	out := mat.NewVecDense(rows, nil)
	out.MulVec(m, v)
	return out, nil
}

// MatVecFlat multiplies a row-major flat matrix buffer by a vector and
// returns the product as a plain slice. The buffer length must equal
// rows*cols.
func MatVecFlat(data []float64, rows, cols int, vec []float64) ([]float64, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("matvec: matrix buffer length %d does not match shape %dx%d", len(data), rows, cols)
	}
	if len(vec) != cols {
		return nil, fmt.Errorf("matvec: shape mismatch: matrix is %dx%d, vector is %d", rows, cols, len(vec))
	}
	if rows == 0 {
		return []float64{}, nil
	}
	if cols == 0 {
		return make([]float64, rows), nil
	}
	out, err := MatVec(mat.NewDense(rows, cols, data), mat.NewVecDense(cols, vec))
	if err != nil {
		return nil, err
	}
	result := make([]float64, rows)
	copy(result, out.RawVector().Data)
	return result, nil
}
