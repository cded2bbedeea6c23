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
	"golang.org/x/exp/rand"
)

func TestProgressiveSamplerFirstSubset(t *testing.T) {
	order := []int{4, 1, 5, 0, 3, 2}
	s := newProgressiveSampler(6, 3, order, 1000, rand.NewSource(1))

	dst := make([]int, 3)
	s.selectSubset(1, dst)
	assert.Equal(t, []int{1, 4, 5}, dst)
	assert.Equal(t, 3, s.prefix())
}

func TestProgressiveSamplerGrowth(t *testing.T) {
	order := []int{4, 1, 5, 0, 3, 2}
	rank := make([]int, len(order))
	for r, k := range order {
		rank[k] = r
	}
	s := newProgressiveSampler(6, 3, order, 1000, rand.NewSource(3))

	dst := make([]int, 3)
	prev := s.prefix()
	for it := 1; it <= 2000; it++ {
		s.selectSubset(it, dst)
		n := s.prefix()
		assert.GreaterOrEqual(t, n, prev)
		assert.LessOrEqual(t, n, 6)
		prev = n

		assert.IsIncreasing(t, dst)
		for _, k := range dst {
			assert.Less(t, rank[k], n, "iteration %d drew %d outside prefix %d", it, k, n)
		}
	}
	assert.Equal(t, 6, s.prefix())
}

func TestUniformSampler(t *testing.T) {
	s := &uniformSampler{n: 5, src: rand.NewSource(7)}
	dst := make([]int, 3)
	seen := make(map[int]bool)
	for it := 1; it <= 200; it++ {
		s.selectSubset(it, dst)
		assert.IsIncreasing(t, dst)
		for _, k := range dst {
			assert.True(t, k >= 0 && k < 5)
			seen[k] = true
		}
	}
	assert.Len(t, seen, 5)
}
