// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSolveLS(t *testing.T) {
	// Overdetermined: x = 1, y = 2, x + y = 3
	G := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1})
	dr := mat.NewVecDense(3, []float64{1, 2, 3})
	W := mat.NewDiagDense(3, []float64{1, 1, 1})

	dx, cov, err := SolveLS(G, dr, W)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dx.AtVec(0), 1e-12)
	assert.InDelta(t, 2.0, dx.AtVec(1), 1e-12)

	// (G^T G)^-1 = [[2 1] [1 2]]^-1 = [[2 -1] [-1 2]] / 3
	assert.InDelta(t, 2.0/3, cov.At(0, 0), 1e-12)
	assert.InDelta(t, -1.0/3, cov.At(0, 1), 1e-12)
}

func TestSolveLSRankDeficient(t *testing.T) {
	G := mat.NewDense(3, 2, []float64{1, 2, 2, 4, 3, 6})
	dr := mat.NewVecDense(3, []float64{1, 2, 3})
	W := mat.NewDiagDense(3, []float64{1, 1, 1})

	_, _, err := SolveLS(G, dr, W)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestSolveLSSizeMismatch(t *testing.T) {
	G := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1})
	dr := mat.NewVecDense(2, []float64{1, 2})
	W := mat.NewDiagDense(3, []float64{1, 1, 1})

	_, _, err := SolveLS(G, dr, W)
	assert.Error(t, err)
}

func TestMatrixRank(t *testing.T) {
	assert.Equal(t, 2, matrixRank(mat.NewDense(2, 2, []float64{1, 0, 0, 1}), DEGENERACY_RCOND))
	assert.Equal(t, 1, matrixRank(mat.NewDense(2, 2, []float64{1, 2, 2, 4}), DEGENERACY_RCOND))
	assert.Equal(t, 0, matrixRank(mat.NewDense(2, 2, nil), DEGENERACY_RCOND))
}
