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

func testMatchedSet() ([]RadioSource, *Fingerprint) {
	sources := []RadioSource{
		{ID: "a", Pos: NewPoint2D(0, 0)},
		{ID: "b", Pos: NewPoint2D(10, 0)},
		{ID: "c", Pos: NewPoint2D(0, 10)},
		{ID: "d", Pos: NewPoint2D(10, 10)},
	}
	// Readings in another order, one for an unknown source, none for "b"
	fp := &Fingerprint{ID: "fp", Readings: []RangingReading{
		{SourceID: "d", Distance: 1},
		{SourceID: "x", Distance: 2},
		{SourceID: "a", Distance: 3},
		{SourceID: "c", Distance: 4},
	}}
	return sources, fp
}

func TestMatchReadings(t *testing.T) {
	sources, fp := testMatchedSet()
	items := matchReadings(sources, fp)

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.Source.ID
		assert.Equal(t, it.Source.ID, it.Reading.SourceID)
	}
	assert.Equal(t, []string{"a", "c", "d"}, ids)
	assert.Equal(t, []int{0, 2, 3}, []int{items[0].SrcIdx, items[1].SrcIdx, items[2].SrcIdx})
	assert.Equal(t, []int{2, 3, 0}, []int{items[0].ReadIdx, items[1].ReadIdx, items[2].ReadIdx})
}

func TestCombinedScores(t *testing.T) {
	sources, fp := testMatchedSet()
	items := matchReadings(sources, fp)
	q := &QualityScores{
		Sources:  []float64{1, 2, 3, 4},
		Readings: []float64{0.1, 0.2, 0.3, 0.4},
	}

	assert.InDeltaSlice(t, []float64{0.3, 1.2, 0.4}, combinedScores(q, items, CombineProduct), 1e-12)
	assert.InDeltaSlice(t, []float64{1.3, 3.4, 4.1}, combinedScores(q, items, CombineSum), 1e-12)
	assert.InDeltaSlice(t, []float64{1, 3, 4}, combinedScores(q, items, CombineSource), 1e-12)
	assert.InDeltaSlice(t, []float64{0.3, 0.4, 0.1}, combinedScores(q, items, CombineReading), 1e-12)

	assert.Equal(t, []float64{1, 1, 1}, combinedScores(nil, items, CombineProduct))
	assert.Equal(t, []float64{1, 3, 4}, combinedScores(&QualityScores{Sources: q.Sources}, items, CombineProduct))
}

func TestQualityScoresValidate(t *testing.T) {
	q := &QualityScores{Sources: []float64{1, 2}, Readings: []float64{1}}
	assert.NoError(t, q.Validate(2, 1))
	assert.ErrorIs(t, q.Validate(3, 1), ErrInvalidConfiguration)
	assert.ErrorIs(t, q.Validate(2, 2), ErrInvalidConfiguration)
	assert.NoError(t, (&QualityScores{}).Validate(5, 5))
	assert.ErrorIs(t, (&QualityScores{Sources: []float64{-1}}).Validate(1, 0), ErrInvalidConfiguration)
}

func TestProgressiveOrder(t *testing.T) {
	assert.Equal(t, []int{2, 0, 3, 1}, progressiveOrder([]float64{0.5, 0.1, 0.9, 0.5}))
	assert.Equal(t, []int{0, 1, 2}, progressiveOrder([]float64{1, 1, 1}))
}

func TestRefinementWeights(t *testing.T) {
	assert.InDeltaSlice(t, []float64{1, 0.5, MIN_WEIGHT}, refinementWeights([]float64{4, 2, 0}), 1e-12)
	assert.InDeltaSlice(t, []float64{MIN_WEIGHT, MIN_WEIGHT}, refinementWeights([]float64{0, 0}), 1e-12)
}
