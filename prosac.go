// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import (
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// PROSAC: subsets drawn from a growing prefix of the matched set sorted by
// descending quality, scored like RANSAC.
func newPROSAC(n, m int, order []int, opt *EstimatorOpt, src rand.Source) strategy {
	return &robustStrategy{
		subsetSampler:   newProgressiveSampler(n, m, order, opt.MaxIterations, src),
		candidateScorer: &thresholdScorer{threshold: opt.Threshold},
		subSize:         m,
		confidence:      opt.Confidence,
	}
}

// progressiveSampler implements the PROSAC growth function (Chum & Matas 2005).
// T_n is the expected number of samples drawn only from the first n items
// among maxIter uniform samples; T'_n is its integer counterpart telling at
// which iteration the prefix grows from n to n+1.
type progressiveSampler struct {
	order   []int       // Matched set indices by descending quality
	nTotal  int         // Matched set size (N)
	subSize int         // Preliminary subset size (m)
	src     rand.Source // Shared random source

	n       int     // Current prefix size
	tn      float64 // T_n
	tnPrime int     // T'_n
	pos     []int   // Scratch positions within the prefix
}

func newProgressiveSampler(n, m int, order []int, maxIter int, src rand.Source) *progressiveSampler {
	// T_m = maxIter * prod_{i=0}^{m-1} (m - i) / (N - i)
	tn := float64(maxIter)
	for i := 0; i < m; i++ {
		tn *= float64(m-i) / float64(n-i)
	}
	return &progressiveSampler{
		order:   order,
		nTotal:  n,
		subSize: m,
		src:     src,
		n:       m,
		tn:      tn,
		tnPrime: 1,
		pos:     make([]int, m),
	}
}

// Current prefix size
func (s *progressiveSampler) prefix() int {
	return s.n
}

func (s *progressiveSampler) selectSubset(t int, dst []int) {
	m := s.subSize

	// Grow the prefix once T'_n has been used up
	if t > s.tnPrime && s.n < s.nTotal {
		// T_{n+1} = T_n (n + 1) / (n + 1 - m)
		tnNext := s.tn * float64(s.n+1) / float64(s.n+1-m)
		s.n++
		s.tnPrime += int(math.Ceil(tnNext - s.tn))
		s.tn = tnNext
	}

	if s.tnPrime < t || s.n == m {
		// Whole subset from the prefix
		if s.n == m {
			for i := range s.pos {
				s.pos[i] = i
			}
		} else {
			sampleuv.WithoutReplacement(s.pos, s.n, s.src)
		}
	} else {
		// m-1 items from the first n-1 plus the n-th item
		sampleuv.WithoutReplacement(s.pos[:m-1], s.n-1, s.src)
		s.pos[m-1] = s.n - 1
	}

	for i, p := range s.pos {
		dst[i] = s.order[p]
	}
	slices.Sort(dst)
}
