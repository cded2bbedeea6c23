// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

// Implements the iteration driver shared by all robust estimation methods.

package gorpos

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// Position estimate fit from one preliminary subset
type candidate struct {
	iter    int       // Iteration that drew the subset (1-based)
	subset  []int     // Matched set indices, ascending
	pos     Point     // Fitted position
	res     []float64 // |d_i - |pos - pos_i|| for every matched item
	inliers []bool    // Inlier classification of every matched item
	nIn     int       // Number of inliers
	score   float64   // Larger is better
	err     error     // Solver failure (the candidate is then ignored)
}

// strategy is what differs between robust methods: how subsets are drawn,
// how candidates are scored and when sampling can stop.
type strategy interface {
	// Fill dst (len = subset size) with ascending matched set indices for iteration t (1-based)
	selectSubset(t int, dst []int)
	// Set score, inliers and nIn of a fitted candidate
	score(c *candidate)
	// Whether c replaces best
	isBetter(c, best *candidate) bool
	// New iteration budget after best changed. Never larger than budget.
	remainingBudget(best *candidate, budget int) int
	// Whether best is good enough to stop immediately
	stop(best *candidate) bool
}

// Chooses subsets for one iteration
type subsetSampler interface {
	selectSubset(t int, dst []int)
}

// Scores one candidate
type candidateScorer interface {
	score(c *candidate)
	stop(best *candidate) bool
}

// robustStrategy combines a sampler and a scorer with the shared
// comparison and adaptive budget rules
type robustStrategy struct {
	subsetSampler
	candidateScorer
	subSize    int     // Preliminary subset size
	confidence float64 // Target probability of one outlier-free subset
	maxRatio   float64 // Upper bound of the inlier ratio used for the budget (0: none)
}

// Higher score wins. Equal scores keep the lexicographically earlier subset.
func (s *robustStrategy) isBetter(c, best *candidate) bool {
	if c.score != best.score {
		return c.score > best.score
	}
	return slices.Compare(c.subset, best.subset) < 0
}

// Number of iterations needed to draw one outlier-free subset with the
// configured confidence given the inlier ratio of best:
//
//	N = log(1 - confidence) / log(1 - w^m)
func (s *robustStrategy) remainingBudget(best *candidate, budget int) int {
	n := len(best.res)
	if n == 0 || best.nIn == 0 {
		return budget
	}
	w := float64(best.nIn) / float64(n)
	if s.maxRatio > 0 {
		w = math.Min(w, s.maxRatio)
	}
	pNoOutliers := math.Pow(w, float64(s.subSize))
	if pNoOutliers >= 1 {
		return min(budget, 1)
	}
	if pNoOutliers <= 0 {
		return budget
	}
	N := math.Log(1-s.confidence) / math.Log(1-pNoOutliers)
	if math.IsNaN(N) || N >= float64(budget) {
		return budget
	}
	return max(int(math.Ceil(N)), 1)
}

// Build the strategy for a method. order is the progressive order of the
// matched set (only used by PROSAC and PROMedS).
func newStrategy(method Method, n, m int, order []int, opt *EstimatorOpt, src rand.Source) (strategy, error) {
	switch method {
	case RANSAC:
		return newRANSAC(n, m, opt, src), nil
	case LMEDS:
		return newLMedS(n, m, opt, src), nil
	case MSAC:
		return newMSAC(n, m, opt, src), nil
	case PROSAC:
		return newPROSAC(n, m, order, opt, src), nil
	case PROMEDS:
		return newPROMedS(n, m, order, opt, src), nil
	default:
		return nil, fmt.Errorf("%w: unknown method %d", ErrInvalidConfiguration, method)
	}
}

// Matched set prepared for the sampler
type problem struct {
	obs    []RangeObs     // One observation per matched item
	dims   int            // Spatial dimension
	solver LaterationFunc // Candidate fit
}

// Outcome of the sampling iterations
type samplerResult struct {
	best        *candidate // Best candidate found (nil if every fit failed)
	iterations  int        // Number of iterations performed
	convergedAt int        // Iteration at which the best score was first reached
	failures    int        // Number of failed fits
	lastErr     error      // Last fit failure
}

// Observation hooks called synchronously from the driver
type samplerHooks struct {
	nextIteration func(t int)
	progress      func(p float64)
}

// runSampler iterates subset selection, fitting and scoring until the
// iteration budget is exhausted or the strategy stops early. Candidates of
// one batch are fitted in parallel; the running best is only updated here,
// in iteration order, so the outcome does not depend on workers.
func runSampler(ctx context.Context, p *problem, st strategy, opt *EstimatorOpt, hooks samplerHooks) (*samplerResult, error) {

	m := p.dims + 1
	workers := max(opt.Workers, 1)
	budget := opt.MaxIterations
	if budget <= 0 {
		return nil, fmt.Errorf("%w: max iterations %d", ErrInvalidConfiguration, budget)
	}

	r := &samplerResult{}
	lastProgress := 0.0

	for r.iterations < budget {

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Draw subsets sequentially so the random stream is the same for any worker count
		batch := make([]*candidate, min(workers, budget-r.iterations))
		for j := range batch {
			c := &candidate{iter: r.iterations + j + 1, subset: make([]int, m)}
			st.selectSubset(c.iter, c.subset)
			batch[j] = c
		}

		fitCandidates(ctx, p, st, batch, workers)

		for _, c := range batch {
			if c.iter > budget {
				break
			}
			r.iterations = c.iter
			if hooks.nextIteration != nil {
				hooks.nextIteration(c.iter)
			}

			if c.err != nil {
				r.failures++
				r.lastErr = c.err
				PrintD(3, "\titer %d: subset %v: %s\n", c.iter, c.subset, c.err.Error())
			} else {
				PrintD(3, "\titer %d: subset %v: pos=%s, inliers=%d, score=%g\n", c.iter, c.subset, c.pos, c.nIn, c.score)
				if r.best == nil || st.isBetter(c, r.best) {
					if r.best == nil || c.score > r.best.score {
						r.convergedAt = c.iter
					}
					r.best = c
					budget = st.remainingBudget(c, budget)
					if st.stop(c) {
						budget = min(budget, c.iter)
					}
					PrintD(2, "\titer %d: best pos=%s, inliers=%d/%d, score=%g, budget=%d\n", c.iter, c.pos, c.nIn, len(c.res), c.score, budget)
				}
			}

			// Progress
			prog := float64(r.iterations) / float64(budget)
			if hooks.progress != nil && (prog-lastProgress >= opt.ProgressDelta || r.iterations >= budget) {
				lastProgress = prog
				hooks.progress(math.Min(prog, 1))
			}
		}
	}

	return r, nil
}

// Fit and score every candidate of a batch using at most workers goroutines
func fitCandidates(ctx context.Context, p *problem, st strategy, batch []*candidate, workers int) {
	if len(batch) == 1 || workers <= 1 {
		for _, c := range batch {
			fitCandidate(p, st, c)
		}
		return
	}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range batch {
		g.Go(func() error {
			fitCandidate(p, st, c)
			return nil
		})
	}
	_ = g.Wait()
}

// Fit a candidate on its preliminary subset (unweighted) and score it
func fitCandidate(p *problem, st strategy, c *candidate) {
	sub := make([]RangeObs, len(c.subset))
	for i, k := range c.subset {
		sub[i] = p.obs[k]
	}
	sol, err := p.solver(sub, NewLaterationOpt())
	if err != nil {
		c.err = err
		return
	}
	if !sol.Pos.IsFinite() {
		c.err = fmt.Errorf("%w: non finite candidate", ErrDegenerateGeometry)
		return
	}
	c.pos = sol.Pos
	c.res = absResiduals(p.obs, sol.Pos)
	c.inliers = make([]bool, len(p.obs))
	st.score(c)
}

// |d_i - |p - pos_i|| for every observation
func absResiduals(obs []RangeObs, p Point) []float64 {
	res := rangeResiduals(obs, p)
	for i := range res {
		res[i] = math.Abs(res[i])
	}
	return res
}
