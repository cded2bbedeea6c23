// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import (
	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// RANSAC: uniform random subsets, inliers within a fixed distance threshold,
// score = number of inliers.
func newRANSAC(n, m int, opt *EstimatorOpt, src rand.Source) strategy {
	return &robustStrategy{
		subsetSampler:   &uniformSampler{n: n, src: src},
		candidateScorer: &thresholdScorer{threshold: opt.Threshold},
		subSize:         m,
		confidence:      opt.Confidence,
	}
}

// Draws each subset independently and uniformly without replacement
type uniformSampler struct {
	n   int         // Matched set size
	src rand.Source // Shared random source
}

func (s *uniformSampler) selectSubset(_ int, dst []int) {
	sampleuv.WithoutReplacement(dst, s.n, s.src)
	slices.Sort(dst)
}

// Inlier if the residual is within threshold; score is the inlier count
type thresholdScorer struct {
	threshold float64 // [m]
}

func (s *thresholdScorer) score(c *candidate) {
	c.nIn = classifyInliers(c.res, s.threshold, c.inliers)
	c.score = float64(c.nIn)
}

func (s *thresholdScorer) stop(*candidate) bool {
	return false
}

// Mark residuals within threshold and return their number
func classifyInliers(res []float64, threshold float64, inliers []bool) int {
	nIn := 0
	for i, r := range res {
		inliers[i] = r <= threshold
		if inliers[i] {
			nIn++
		}
	}
	return nIn
}
