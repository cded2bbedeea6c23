// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import (
	"golang.org/x/exp/rand"
)

// MSAC: uniform random subsets like RANSAC, but every item costs its squared
// residual capped at threshold^2 and the score is the negative total cost.
func newMSAC(n, m int, opt *EstimatorOpt, src rand.Source) strategy {
	return &robustStrategy{
		subsetSampler:   &uniformSampler{n: n, src: src},
		candidateScorer: &truncatedScorer{threshold: opt.Threshold},
		subSize:         m,
		confidence:      opt.Confidence,
	}
}

// Truncated quadratic cost
type truncatedScorer struct {
	threshold float64 // [m]
}

func (s *truncatedScorer) score(c *candidate) {
	c.nIn = classifyInliers(c.res, s.threshold, c.inliers)
	thr2 := SQ(s.threshold)
	cost := 0.0
	for _, r := range c.res {
		cost += min(SQ(r), thr2)
	}
	c.score = -cost
}

func (s *truncatedScorer) stop(*candidate) bool {
	return false
}
