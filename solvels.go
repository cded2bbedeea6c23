// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Solve the observation equation using weighted least squares
// - dx = (G^t W G)^-1 G^t W dr
// - Return the error covariance matrix (G^t W G)^-1 as cov
// - A rank deficient normal matrix is reported as ErrDegenerateGeometry
func SolveLS(G mat.Matrix, dr mat.Vector, W mat.Matrix) (dx mat.Vector, cov mat.Matrix, err error) {

	n1, m1 := G.Dims()
	n2, m2 := W.Dims()
	if n1 != n2 {
		return nil, nil, fmt.Errorf("invalid matrix size. G^T(%d x %d), W(%d x %d)", m1, n1, n2, m2)
	}
	l1 := dr.Len()
	if l1 != m2 {
		return nil, nil, fmt.Errorf("invalid matrix size. W(%d x %d), dr(%d x 1)", n2, m2, l1)
	}

	// A（G^t W G)
	var WG mat.Dense
	WG.Mul(W, G)
	var A mat.Dense
	A.Mul(G.T(), &WG)
	if rank := matrixRank(&A, DEGENERACY_RCOND); rank < m1 {
		return nil, nil, fmt.Errorf("%w: rank(G^T W G)=%d < %d", ErrDegenerateGeometry, rank, m1)
	}

	// b（G^t W dr）
	var GtW mat.Dense
	GtW.Mul(G.T(), W)
	var b mat.VecDense
	b.MulVec(&GtW, dr)

	// Solve for x (x = A^-1 b)
	var x mat.VecDense
	err = x.SolveVec(&A, &b)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}
	dx = &x

	// Set (G^T W G)^-1 as the covariance matrix
	var c mat.Dense
	err = c.Inverse(&A)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}
	cov = &c

	return
}

// Number of singular values of A above rcond times the largest one
func matrixRank(A mat.Matrix, rcond float64) int {
	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDNone) {
		return 0
	}

	// Retrieve singular values (descending order)
	s := svd.Values(nil)
	if len(s) == 0 || s[0] == 0 {
		return 0
	}

	// Count singular values that are greater than tol
	rank := 0
	for _, v := range s {
		if v > rcond*s[0] {
			rank++
		}
	}
	return rank
}
