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

// PROMedS: progressive sampling of PROSAC with the median scoring of LMedS.
func newPROMedS(n, m int, order []int, opt *EstimatorOpt, src rand.Source) strategy {
	return &robustStrategy{
		subsetSampler:   newProgressiveSampler(n, m, order, opt.MaxIterations, src),
		candidateScorer: newMedianScorer(m, opt),
		subSize:         m,
		confidence:      opt.Confidence,
		maxRatio:        MEDIAN_INLIER_RATIO,
	}
}
