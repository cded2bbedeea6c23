// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Externally supplied confidence of sources and readings (larger is better).
// Sources is parallel to the source slice and Readings to the fingerprint
// readings given to the estimator. A nil vector counts as all ones.
type QualityScores struct {
	Sources  []float64
	Readings []float64
}

// Validate checks lengths against the configured inputs and rejects negative scores
func (q *QualityScores) Validate(nSources, nReadings int) error {
	if q.Sources != nil && len(q.Sources) != nSources {
		return fmt.Errorf("%w: %d source quality scores for %d sources", ErrInvalidConfiguration, len(q.Sources), nSources)
	}
	if q.Readings != nil && len(q.Readings) != nReadings {
		return fmt.Errorf("%w: %d reading quality scores for %d readings", ErrInvalidConfiguration, len(q.Readings), nReadings)
	}
	for _, v := range [][]float64{q.Sources, q.Readings} {
		for i, s := range v {
			if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
				return fmt.Errorf("%w: quality score[%d]=%v", ErrInvalidConfiguration, i, s)
			}
		}
	}
	return nil
}

// One combined score per matched item. Without quality scores every item scores 1.
func combinedScores(q *QualityScores, items []matchedItem, mode CombineMode) []float64 {
	s := make([]float64, len(items))
	for i, it := range items {
		src, rdg := 1.0, 1.0
		if q != nil && q.Sources != nil {
			src = q.Sources[it.SrcIdx]
		}
		if q != nil && q.Readings != nil {
			rdg = q.Readings[it.ReadIdx]
		}
		switch mode {
		case CombineSum:
			s[i] = src + rdg
		case CombineSource:
			s[i] = src
		case CombineReading:
			s[i] = rdg
		default:
			s[i] = src * rdg
		}
	}
	return s
}

// Matched set indices sorted by descending score. Equal scores keep matched order.
func progressiveOrder(scores []float64) []int {
	neg := make([]float64, len(scores))
	for i, v := range scores {
		neg[i] = -v
	}
	order := make([]int, len(scores))
	floats.ArgsortStable(neg, order)
	return order
}

// Refinement weights: scores normalised by the best one, floored at MIN_WEIGHT
func refinementWeights(scores []float64) []float64 {
	w := make([]float64, len(scores))
	smax := 0.0
	if len(scores) > 0 {
		smax = floats.Max(scores)
	}
	for i, s := range scores {
		if smax > 0 {
			w[i] = s / smax
		}
		if w[i] < MIN_WEIGHT {
			w[i] = MIN_WEIGHT
		}
	}
	return w
}
