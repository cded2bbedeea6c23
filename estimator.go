// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

// Implements the robust position estimator facade.

package gorpos

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// EstimatorOpt contains options of the robust position estimator
type EstimatorOpt struct {
	Confidence       float64     // Probability of drawing at least one outlier-free subset (0, 1)
	MaxIterations    int         // Upper bound of sampling iterations (> 0)
	Threshold        float64     // Inlier distance threshold for RANSAC, MSAC and PROSAC [m]
	StopThreshold    float64     // Median residual that stops LMedS and PROMedS early [m]
	InlierFactor     float64     // Multiple of the robust scale accepted as inlier (LMedS, PROMedS)
	Refine           bool        // If true, re-fit the position over all inliers of the best candidate
	KeepCovariance   bool        // If true, return the covariance of the refined position
	UseReadingStdDev bool        // If true, weight the refinement by reading standard deviations
	Combine          CombineMode // How source and reading quality scores are combined
	Seed             uint64      // Seed of the subset sampling random source
	Workers          int         // Number of candidate fits evaluated in parallel (<= 1: sequential)
	ProgressDelta    float64     // Minimum progress change between listener notifications
}

// NewEstimatorOpt creates a new EstimatorOpt with default values
func NewEstimatorOpt() *EstimatorOpt {
	return &EstimatorOpt{
		Confidence:       DEFAULT_CONFIDENCE,     // 99%
		MaxIterations:    DEFAULT_MAX_ITERATIONS, // Iteration bound
		Threshold:        DEFAULT_THRESHOLD,      // 10cm
		StopThreshold:    DEFAULT_STOP_THRESHOLD, // 10um
		InlierFactor:     DEFAULT_INLIER_FACTOR,  // 1.5 sigma
		Refine:           true,                   // Refine over inliers
		KeepCovariance:   true,                   // Return covariance
		UseReadingStdDev: true,                   // Weight by distance std
		Combine:          CombineProduct,         // source x reading
		Seed:             0,                      // Reproducible sampling
		Workers:          1,                      // Sequential
		ProgressDelta:    DEFAULT_PROGRESS_DELTA, // 5%
	}
}

// Validate checks option ranges
func (o *EstimatorOpt) Validate() error {
	if !(o.Confidence > 0 && o.Confidence < 1) {
		return fmt.Errorf("%w: confidence %v out of (0, 1)", ErrInvalidConfiguration, o.Confidence)
	}
	if o.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations %d <= 0", ErrInvalidConfiguration, o.MaxIterations)
	}
	if !(o.Threshold > 0) || math.IsInf(o.Threshold, 0) {
		return fmt.Errorf("%w: threshold %v <= 0", ErrInvalidConfiguration, o.Threshold)
	}
	if !(o.StopThreshold >= 0) {
		return fmt.Errorf("%w: stop threshold %v < 0", ErrInvalidConfiguration, o.StopThreshold)
	}
	if !(o.InlierFactor > 0) {
		return fmt.Errorf("%w: inlier factor %v <= 0", ErrInvalidConfiguration, o.InlierFactor)
	}
	if o.Combine < CombineProduct || o.Combine > CombineReading {
		return fmt.Errorf("%w: combine mode %d", ErrInvalidConfiguration, o.Combine)
	}
	if !(o.ProgressDelta >= 0 && o.ProgressDelta <= 1) {
		return fmt.Errorf("%w: progress delta %v out of [0, 1]", ErrInvalidConfiguration, o.ProgressDelta)
	}
	return nil
}

// Estimator state
type State int

const (
	StateUnconfigured State = iota // Sources or fingerprint missing
	StateReady                     // Configured, Estimate can be called
	StateRunning                   // Sampling iterations in progress
	StateLocked                    // Refining the best candidate
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateLocked:
		return "locked"
	default:
		return "UNKNOWN!"
	}
}

// PositionEstimate is the result of one Estimate call
type PositionEstimate struct {
	Position    Point      // Estimated position
	Inliers     []bool     // Inlier mask over the matched set
	Residuals   []float64  // |d_i - |Position - pos_i|| over the matched set [m]
	NumInliers  int        // Number of inliers
	Covariance  mat.Matrix // Position covariance (nil unless refined with KeepCovariance)
	Iterations  int        // Number of sampling iterations performed
	ConvergedAt int        // Iteration at which the best score was first reached
	Refined     bool       // Whether Position comes from the refinement over inliers
	Method      Method     // Robust method used
	SourceIDs   []string   // Source identity of every matched set item
}

// Estimator estimates a 2D or 3D position robustly from ranging readings.
// One Estimate call at a time per instance; configuration cannot change
// while an estimation runs.
type Estimator struct {
	mu    sync.Mutex
	state State

	dims   int
	method Method
	opt    *EstimatorOpt
	solver LaterationFunc

	sources     []RadioSource
	fingerprint *Fingerprint
	quality     *QualityScores
	listener    Listener
}

// NewEstimator creates an estimator for dims (2 or 3) dimensional positions.
// A nil opt uses NewEstimatorOpt().
func NewEstimator(dims int, method Method, opt *EstimatorOpt) (*Estimator, error) {
	if dims != 2 && dims != 3 {
		return nil, fmt.Errorf("%w: unsupported dimension %d", ErrInvalidConfiguration, dims)
	}
	if method < RANSAC || method > PROMEDS {
		return nil, fmt.Errorf("%w: unknown method %d", ErrInvalidConfiguration, method)
	}
	if opt == nil {
		opt = NewEstimatorOpt()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{
		state:    StateUnconfigured,
		dims:     dims,
		method:   method,
		opt:      opt,
		solver:   SolveLateration,
		listener: NopListener{},
	}, nil
}

func NewEstimator2D(method Method, opt *EstimatorOpt) (*Estimator, error) {
	return NewEstimator(2, method, opt)
}

func NewEstimator3D(method Method, opt *EstimatorOpt) (*Estimator, error) {
	return NewEstimator(3, method, opt)
}

func (e *Estimator) Dims() int {
	return e.dims
}

func (e *Estimator) Method() Method {
	return e.method
}

// Minimum size of the matched set (dims + 1)
func (e *Estimator) MinRequiredSources() int {
	return e.dims + 1
}

func (e *Estimator) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Estimator) IsReady() bool {
	return e.State() == StateReady
}

// Whether an estimation is in progress
func (e *Estimator) IsLocked() bool {
	s := e.State()
	return s == StateRunning || s == StateLocked
}

// Configure sets sources, fingerprint, quality scores (optional) and listener (optional) at once
func (e *Estimator) Configure(sources []RadioSource, fp *Fingerprint, qs *QualityScores, listener Listener) error {
	return e.mutate(func() error {
		if err := e.validateInputs(sources, fp, qs); err != nil {
			return err
		}
		e.sources = sources
		e.fingerprint = fp
		e.quality = qs
		if listener != nil {
			e.listener = listener
		}
		return nil
	})
}

func (e *Estimator) SetSources(sources []RadioSource) error {
	return e.mutate(func() error {
		if sources == nil {
			return fmt.Errorf("%w: nil sources", ErrInvalidConfiguration)
		}
		if err := validateSources(sources, e.dims); err != nil {
			return err
		}
		e.sources = sources
		return nil
	})
}

func (e *Estimator) SetFingerprint(fp *Fingerprint) error {
	return e.mutate(func() error {
		if fp == nil {
			return fmt.Errorf("%w: nil fingerprint", ErrInvalidConfiguration)
		}
		if err := fp.Validate(); err != nil {
			return err
		}
		e.fingerprint = fp
		return nil
	})
}

// SetQualityScores sets (or clears with nil) the quality scores.
// Lengths are checked against the sources and fingerprint already set.
func (e *Estimator) SetQualityScores(qs *QualityScores) error {
	return e.mutate(func() error {
		if qs != nil && e.sources != nil && e.fingerprint != nil {
			if err := qs.Validate(len(e.sources), len(e.fingerprint.Readings)); err != nil {
				return err
			}
		}
		e.quality = qs
		return nil
	})
}

// SetListener sets the listener. nil restores NopListener.
func (e *Estimator) SetListener(l Listener) error {
	return e.mutate(func() error {
		if l == nil {
			l = NopListener{}
		}
		e.listener = l
		return nil
	})
}

func (e *Estimator) SetOpt(opt *EstimatorOpt) error {
	return e.mutate(func() error {
		if opt == nil {
			return fmt.Errorf("%w: nil options", ErrInvalidConfiguration)
		}
		if err := opt.Validate(); err != nil {
			return err
		}
		e.opt = opt
		return nil
	})
}

// SetSolver replaces the lateration solver. nil restores SolveLateration.
func (e *Estimator) SetSolver(f LaterationFunc) error {
	return e.mutate(func() error {
		if f == nil {
			f = SolveLateration
		}
		e.solver = f
		return nil
	})
}

// Apply a configuration change unless an estimation is running, then update the state
func (e *Estimator) mutate(f func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRunning || e.state == StateLocked {
		return ErrLocked
	}
	if err := f(); err != nil {
		return err
	}
	if e.validateInputs(e.sources, e.fingerprint, e.quality) == nil {
		e.state = StateReady
	} else {
		e.state = StateUnconfigured
	}
	return nil
}

// Check that inputs make a usable matched set
func (e *Estimator) validateInputs(sources []RadioSource, fp *Fingerprint, qs *QualityScores) error {
	if sources == nil {
		return fmt.Errorf("%w: no sources", ErrInvalidConfiguration)
	}
	if fp == nil {
		return fmt.Errorf("%w: no fingerprint", ErrInvalidConfiguration)
	}
	if err := validateSources(sources, e.dims); err != nil {
		return err
	}
	if err := fp.Validate(); err != nil {
		return err
	}
	if qs != nil {
		if err := qs.Validate(len(sources), len(fp.Readings)); err != nil {
			return err
		}
	}
	if n := len(matchReadings(sources, fp)); n < e.MinRequiredSources() {
		return fmt.Errorf("%w: %d matched sources < %d", ErrInvalidConfiguration, n, e.MinRequiredSources())
	}
	return nil
}

// Change state under lock
func (e *Estimator) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Estimate runs the robust estimation. The estimator must be ready; it
// returns to ready when Estimate returns, whatever the outcome.
func (e *Estimator) Estimate(ctx context.Context) (*PositionEstimate, error) {

	e.mu.Lock()
	switch e.state {
	case StateRunning, StateLocked:
		e.mu.Unlock()
		return nil, ErrLocked
	case StateUnconfigured:
		e.mu.Unlock()
		return nil, ErrNotReady
	}
	e.state = StateRunning
	// Snapshot of the configuration; it cannot change until state is ready again
	opt := e.opt
	listener := e.listener
	e.mu.Unlock()
	defer e.setState(StateReady)

	listener.OnEstimateStart(e)
	defer listener.OnEstimateEnd(e)

	// Matched set
	items := matchReadings(e.sources, e.fingerprint)
	m := e.MinRequiredSources()
	if len(items) < m {
		return nil, fmt.Errorf("%w: %d matched sources < %d", ErrInvalidConfiguration, len(items), m)
	}
	prob := &problem{
		obs:    toRangeObs(items),
		dims:   e.dims,
		solver: e.solver,
	}
	scores := combinedScores(e.quality, items, opt.Combine)

	PrintD(1, "%s: %d matched sources, %d readings\n", e.method, len(items), len(e.fingerprint.Readings))

	// Sampling
	src := rand.NewSource(opt.Seed)
	st, err := newStrategy(e.method, len(items), m, progressiveOrder(scores), opt, src)
	if err != nil {
		return nil, err
	}
	hooks := samplerHooks{
		nextIteration: func(t int) { listener.OnNextIteration(e, t) },
		progress:      func(p float64) { listener.OnProgress(e, p) },
	}
	sr, err := runSampler(ctx, prob, st, opt, hooks)
	if err != nil {
		return nil, err
	}

	// Consensus check
	best := sr.best
	if best == nil || best.nIn < m {
		nIn := 0
		if best != nil {
			nIn = best.nIn
		}
		PrintD(1, "%s: no consensus after %d iterations (%d failed fits)\n", e.method, sr.iterations, sr.failures)
		if sr.lastErr != nil {
			return nil, fmt.Errorf("%w: best candidate has %d inliers < %d after %d iterations: %w", ErrInsufficientConsensus, nIn, m, sr.iterations, sr.lastErr)
		}
		return nil, fmt.Errorf("%w: best candidate has %d inliers < %d after %d iterations", ErrInsufficientConsensus, nIn, m, sr.iterations)
	}

	e.setState(StateLocked)

	rslt := &PositionEstimate{
		Position:    best.pos,
		Inliers:     best.inliers,
		NumInliers:  best.nIn,
		Iterations:  sr.iterations,
		ConvergedAt: sr.convergedAt,
		Method:      e.method,
		SourceIDs:   make([]string, len(items)),
	}
	for i, it := range items {
		rslt.SourceIDs[i] = it.Source.ID
	}

	// Refinement over inliers
	if opt.Refine {
		var weights []float64
		if e.quality != nil {
			weights = refinementWeights(scores)
		}
		sol, err := refineInliers(prob, best, weights, opt.UseReadingStdDev)
		if err != nil {
			PrintD(1, "%s: refinement failed, keeping best candidate: %s\n", e.method, err.Error())
		} else {
			rslt.Position = sol.Pos
			rslt.Refined = true
			if opt.KeepCovariance {
				rslt.Covariance = sol.Cov
			}
		}
	}
	rslt.Residuals = absResiduals(prob.obs, rslt.Position)

	PrintD(1, "%s: pos=%s, inliers=%d/%d, iterations=%d\n", e.method, rslt.Position, rslt.NumInliers, len(items), rslt.Iterations)

	return rslt, nil
}

// Re-fit the position over the inliers of best, starting from its position
func refineInliers(p *problem, best *candidate, weights []float64, useStd bool) (*LaterationSol, error) {
	obs := make([]RangeObs, 0, best.nIn)
	var w []float64
	if weights != nil {
		w = make([]float64, 0, best.nIn)
	}
	for i, in := range best.inliers {
		if !in {
			continue
		}
		obs = append(obs, p.obs[i])
		if weights != nil {
			w = append(w, weights[i])
		}
	}
	opt := NewLaterationOpt()
	opt.Weights = w
	opt.UseStd = useStd
	opt.InitialPos = best.pos.Clone()
	return p.solver(obs, opt)
}
