// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// LMedS: uniform random subsets, score = -median of squared residuals over
// the whole matched set. No threshold is needed for scoring; inliers are
// derived from a robust scale estimate of the residuals.
func newLMedS(n, m int, opt *EstimatorOpt, src rand.Source) strategy {
	return &robustStrategy{
		subsetSampler:   &uniformSampler{n: n, src: src},
		candidateScorer: newMedianScorer(m, opt),
		subSize:         m,
		confidence:      opt.Confidence,
		maxRatio:        MEDIAN_INLIER_RATIO,
	}
}

// Least median of squares scoring
type medianScorer struct {
	subSize       int     // Preliminary subset size
	stopThreshold float64 // Median residual ending sampling early [m]. Also the minimum inlier threshold
	inlierFactor  float64 // Multiple of the robust scale accepted as inlier
}

func newMedianScorer(m int, opt *EstimatorOpt) *medianScorer {
	return &medianScorer{
		subSize:       m,
		stopThreshold: opt.StopThreshold,
		inlierFactor:  opt.InlierFactor,
	}
}

func (s *medianScorer) score(c *candidate) {
	sq := make([]float64, len(c.res))
	for i, r := range c.res {
		sq[i] = r * r
	}
	sort.Float64s(sq)
	med := stat.Quantile(0.5, stat.Empirical, sq, nil)
	c.score = -med
	c.nIn = classifyInliers(c.res, s.inlierThreshold(len(c.res), med), c.inliers)
}

// Robust standard deviation of the residuals (Rousseeuw & Leroy):
//
//	sigma = 1.4826 (1 + 5 / (n - m)) sqrt(median)
func (s *medianScorer) inlierThreshold(n int, med float64) float64 {
	corr := 1.0
	if n > s.subSize {
		corr += 5.0 / float64(n-s.subSize)
	}
	sigma := LMEDS_NORM_CONSTANT * corr * math.Sqrt(med)
	return math.Max(s.inlierFactor*sigma, s.stopThreshold)
}

func (s *medianScorer) stop(best *candidate) bool {
	return math.Sqrt(-best.score) <= s.stopThreshold
}
