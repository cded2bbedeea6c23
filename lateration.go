// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

// Implements lateration (multilateration) from ranging observations.

package gorpos

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Distance observation to a source with a known position
type RangeObs struct {
	Pos  Point   // Source position [m]
	Dist float64 // Measured distance [m]
	Std  float64 // Standard deviation of Dist [m] (<= 0 treated as 1 when UseStd is set)
}

// LaterationOpt controls weighting and iterations of the lateration solver
type LaterationOpt struct {
	Weights    []float64 // Per observation weight. nil means 1 for every observation
	UseStd     bool      // If true, divide residuals by the observation standard deviation
	InitialPos Point     // Starting point of Gauss-Newton. nil means the linear solution
	MaxLoop    int       // Maximum number of Gauss-Newton loops. 0 returns the linear solution
}

// NewLaterationOpt creates a new LaterationOpt with default values
func NewLaterationOpt() *LaterationOpt {
	return &LaterationOpt{
		Weights:    nil,                 // Unweighted
		UseStd:     false,               // Ignore standard deviations
		InitialPos: nil,                 // Start from the linear solution
		MaxLoop:    LATERATION_MAX_LOOP, // Gauss-Newton loops
	}
}

// LaterationSol contains the result of a lateration solve
type LaterationSol struct {
	Pos       Point      // Estimated position
	Cov       mat.Matrix // Estimation error covariance matrix ((G^T W G)^-1). nil for the linear solution
	Res       []float64  // Residuals d_i - |p - pos_i| at Pos
	Loops     int        // Number of Gauss-Newton loops performed
	Converged bool       // Whether Gauss-Newton converged
}

// LaterationFunc is the contract of a lateration solver: find the point p
// minimising sum w_i ((|p - pos_i| - d_i) / std_i)^2 over at least dims+1
// observations, or fail with ErrDegenerateGeometry.
type LaterationFunc func(obs []RangeObs, opt *LaterationOpt) (*LaterationSol, error)

// SolveLateration computes a position from range observations.
// A linearised solution (range equations differenced against the first
// observation) is refined by Gauss-Newton iterations on the range equations.
// It has no shared state and is safe for concurrent use.
func SolveLateration(obs []RangeObs, opt *LaterationOpt) (*LaterationSol, error) {

	if opt == nil {
		opt = NewLaterationOpt()
	}

	// Check input
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no observations", ErrInvalidConfiguration)
	}
	dims := obs[0].Pos.Dims()
	if len(obs) < dims+1 {
		return nil, fmt.Errorf("%w: not enough observations: %d < %d", ErrInvalidConfiguration, len(obs), dims+1)
	}
	for i, o := range obs {
		if o.Pos.Dims() != dims {
			return nil, fmt.Errorf("%w: observation[%d] has %d coordinates, want %d", ErrInvalidConfiguration, i, o.Pos.Dims(), dims)
		}
	}
	if opt.Weights != nil && len(opt.Weights) != len(obs) {
		return nil, fmt.Errorf("%w: %d weights for %d observations", ErrInvalidConfiguration, len(opt.Weights), len(obs))
	}

	w := observationWeights(obs, opt)

	// Initial value
	var upos Point
	if opt.InitialPos != nil {
		if opt.InitialPos.Dims() != dims {
			return nil, fmt.Errorf("%w: initial position has %d coordinates, want %d", ErrInvalidConfiguration, opt.InitialPos.Dims(), dims)
		}
		upos = opt.InitialPos.Clone()
	} else {
		var err error
		upos, err = solveLinearLateration(obs, w)
		if err != nil {
			return nil, err
		}
	}
	PrintD(4, "\tupos(init): %s\n", upos)

	sol := &LaterationSol{}

	// Solve observation equations iteratively
	for loop := 0; loop < opt.MaxLoop; loop++ {

		// Design matrix and residual vector
		G, dr := rangeEquations(obs, upos)
		W := mat.NewDiagDense(len(w), w)
		if DBG_ >= 4 {
			PrintA("G=\n")
			PrintMat(G)
			PrintA("dr=\n")
			PrintMat(dr)
		}

		dx, cov, err := SolveLS(G, dr, W)
		if err != nil {
			return nil, fmt.Errorf("lateration loop %d: %w", loop+1, err)
		}
		sol.Cov = cov
		sol.Loops = loop + 1

		// Update position
		for j := 0; j < dims; j++ {
			upos[j] += dx.AtVec(j)
		}
		if !upos.IsFinite() {
			return nil, fmt.Errorf("%w: lateration diverged", ErrDegenerateGeometry)
		}

		// Check convergence
		if isLaterationConverged(dx, LATERATION_CONVERGENCE) {
			sol.Converged = true
			break
		}
	}
	PrintAIf(DBG_ >= 4 && opt.MaxLoop > 0 && !sol.Converged, "\tlateration not converged after %d loops\n", sol.Loops)

	sol.Pos = upos
	sol.Res = rangeResiduals(obs, upos)
	return sol, nil
}

// Weight of each observation (quality weight divided by variance when requested)
func observationWeights(obs []RangeObs, opt *LaterationOpt) []float64 {
	w := make([]float64, len(obs))
	for i, o := range obs {
		w[i] = 1.0
		if opt.Weights != nil {
			w[i] = opt.Weights[i]
		}
		if opt.UseStd && o.Std > 0 {
			w[i] /= SQ(o.Std)
		}
	}
	return w
}

// solveLinearLateration solves the range equations differenced against the
// first observation:
//
//	2 (pos_i - pos_0) . p = d_0^2 - d_i^2 + |pos_i|^2 - |pos_0|^2
func solveLinearLateration(obs []RangeObs, w []float64) (Point, error) {
	dims := obs[0].Pos.Dims()
	ref := obs[0]
	refSq := ref.Pos.NormSq()

	n := len(obs) - 1
	A := mat.NewDense(n, dims, nil)
	b := mat.NewVecDense(n, nil)
	for i := 1; i < len(obs); i++ {
		o := obs[i]
		sw := math.Sqrt(w[i])
		for j := 0; j < dims; j++ {
			A.Set(i-1, j, sw*2*(o.Pos[j]-ref.Pos[j]))
		}
		b.SetVec(i-1, sw*(SQ(ref.Dist)-SQ(o.Dist)+o.Pos.NormSq()-refSq))
	}

	// Rank check (collinear sources in 2D, coplanar sources in 3D)
	if rank := matrixRank(A, DEGENERACY_RCOND); rank < dims {
		return nil, fmt.Errorf("%w: rank %d < %d", ErrDegenerateGeometry, rank, dims)
	}

	var qr mat.QR
	qr.Factorize(A)
	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}

	p := make(Point, dims)
	for j := range p {
		p[j] = x.AtVec(j)
	}
	if !p.IsFinite() {
		return nil, fmt.Errorf("%w: non finite linear solution", ErrDegenerateGeometry)
	}
	return p, nil
}

// Design matrix (unit vectors from sources to upos) and residual vector at upos
func rangeEquations(obs []RangeObs, upos Point) (*mat.Dense, *mat.VecDense) {
	dims := upos.Dims()
	G := mat.NewDense(len(obs), dims, nil) // n x dims
	dr := mat.NewVecDense(len(obs), nil)   // n x 1
	for i, o := range obs {
		ri := upos.Dist(o.Pos)
		// The derivative is undefined on top of a source; leave the row zero
		if ri > LATERATION_CONVERGENCE {
			for j := 0; j < dims; j++ {
				G.Set(i, j, (upos[j]-o.Pos[j])/ri)
			}
		}
		dr.SetVec(i, o.Dist-ri)
	}
	return G, dr
}

// Residuals d_i - |p - pos_i|
func rangeResiduals(obs []RangeObs, p Point) []float64 {
	res := make([]float64, len(obs))
	for i, o := range obs {
		res[i] = o.Dist - p.Dist(o.Pos)
	}
	return res
}

// isLaterationConverged checks if every position update is below threshold
func isLaterationConverged(dx mat.Vector, threshold float64) bool {
	for j := 0; j < dx.Len(); j++ {
		if math.Abs(dx.AtVec(j)) >= threshold {
			return false
		}
	}
	return true
}
