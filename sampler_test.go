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
)

func TestRemainingBudget(t *testing.T) {
	st := &robustStrategy{subSize: 3, confidence: 0.99}

	// All inliers: one iteration is enough
	all := &candidate{res: make([]float64, 5), nIn: 5}
	assert.Equal(t, 1, st.remainingBudget(all, 5000))

	// w = 0.5, m = 3: log(0.01) / log(0.875) = 34.5
	half := &candidate{res: make([]float64, 10), nIn: 5}
	assert.Equal(t, 35, st.remainingBudget(half, 5000))
	assert.Equal(t, 20, st.remainingBudget(half, 20))

	none := &candidate{res: make([]float64, 10)}
	assert.Equal(t, 5000, st.remainingBudget(none, 5000))

	// Non-increasing with the inlier ratio
	prev := 5000
	for nIn := 1; nIn <= 10; nIn++ {
		b := st.remainingBudget(&candidate{res: make([]float64, 10), nIn: nIn}, 5000)
		assert.LessOrEqual(t, b, prev)
		prev = b
	}
}

func TestRemainingBudgetMedianRatio(t *testing.T) {
	st := &robustStrategy{subSize: 3, confidence: 0.99, maxRatio: MEDIAN_INLIER_RATIO}

	// A loose robust scale may call everything an inlier; the budget stays at w = 0.5
	all := &candidate{res: make([]float64, 6), nIn: 6}
	assert.Equal(t, 35, st.remainingBudget(all, 5000))

	few := &candidate{res: make([]float64, 10), nIn: 2}
	assert.Greater(t, st.remainingBudget(few, 5000), 35)
}

func TestIsBetterTieBreak(t *testing.T) {
	st := &robustStrategy{subSize: 3, confidence: 0.99}
	a := &candidate{subset: []int{0, 2, 3}, score: 4}
	b := &candidate{subset: []int{0, 1, 3}, score: 4}
	c := &candidate{subset: []int{1, 2, 3}, score: 5}

	assert.True(t, st.isBetter(b, a))
	assert.False(t, st.isBetter(a, b))
	assert.True(t, st.isBetter(c, a))
	assert.False(t, st.isBetter(a, c))
}

func TestMedianScorer(t *testing.T) {
	opt := NewEstimatorOpt()
	s := newMedianScorer(3, opt)

	c := &candidate{res: []float64{0, 0, 0, 0, 0, 7}, inliers: make([]bool, 6)}
	s.score(c)
	assert.Equal(t, 5, c.nIn)
	assert.Equal(t, []bool{true, true, true, true, true, false}, c.inliers)
	assert.True(t, s.stop(c))

	c = &candidate{res: []float64{1, 1, 1, 1, 1, 1}, inliers: make([]bool, 6)}
	s.score(c)
	assert.InDelta(t, -1.0, c.score, 1e-12)
	assert.False(t, s.stop(c))
	assert.Equal(t, 6, c.nIn)
}

func TestTruncatedScorer(t *testing.T) {
	s := &truncatedScorer{threshold: 0.5}
	c := &candidate{res: []float64{0.1, 0.2, 3}, inliers: make([]bool, 3)}
	s.score(c)
	assert.InDelta(t, -(0.01 + 0.04 + 0.25), c.score, 1e-12)
	assert.Equal(t, 2, c.nIn)
	assert.False(t, s.stop(c))
}
