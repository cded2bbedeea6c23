// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	m "github.com/mkhts/gorpos"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs()
	if err != nil {
		flag.Usage()
		os.Exit(1)
	}

	// Run the main application
	if err := runApplication(context.Background(), args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}
}

// Main application processing
func runApplication(ctx context.Context, args cmdOpt) error {

	// Load scenario file
	sc, err := m.LoadScenario(args.scenarioFn)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	if m.DBG_ >= 1 {
		m.PrintA("--- scenario (%s)---\n", filepath.Base(args.scenarioFn))
		m.PrintA("dims: %d, sources: %d, fingerprints: %d\n", sc.Dims, len(sc.Sources), len(sc.Fingerprints))
	}

	// Prepare output file
	pos, err := prepareOutput(args)
	if err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}
	defer closeOutput(pos)

	// Print header
	if !args.noPosHeader {
		printPosHeader(pos, os.Args[0], args, sc)
	}

	// Process fingerprints
	return processFingerprints(ctx, args, sc, pos)
}

// Prepare output file
func prepareOutput(args cmdOpt) (io.WriteCloser, error) {

	// Use stdout if no output file is specified
	if len(args.posFn) == 0 {
		return &nopCloser{os.Stdout}, nil
	}

	// Create output file
	posf, err := os.Create(args.posFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return posf, nil
}

// Close output file
func closeOutput(pos io.WriteCloser) {
	if pos != nil {
		pos.Close()
	}
}

// Process fingerprints
func processFingerprints(ctx context.Context, args cmdOpt, sc *m.Scenario, pos io.Writer) error {

	est, err := m.NewEstimator(sc.Dims, args.method, setEstimatorOpt(&args))
	if err != nil {
		return fmt.Errorf("failed to create estimator: %w", err)
	}
	sources := sc.RadioSources()

	for i := range sc.Fingerprints {
		fp := sc.Fingerprint(i)
		m.PrintD(2, "\n>>> %s\n", fp.ID)
		m.PrintD(3, "%s", fp)

		if err := est.Configure(sources, fp, sc.QualityScores(i), nil); err != nil {
			m.PrintA("%s: configuration failed: %s\n", fp.ID, err.Error())
			continue
		}
		rslt, err := est.Estimate(ctx)
		if err != nil {
			m.PrintA("%s: estimation failed: %s\n", fp.ID, err.Error())
			continue
		}
		printPos(pos, fp.ID, rslt)
	}

	return nil
}

// nopCloser - WriteCloser that ignores close operations
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Structure to hold command line argument information
type cmdOpt struct {
	scenarioFn    string
	posFn         string
	noPosHeader   bool
	method        m.Method
	confidence    float64
	maxIterations int
	threshold     float64
	stopThreshold float64
	inlierFactor  float64
	noRefine      bool
	useStd        bool
	combine       m.CombineMode
	seed          uint64
	workers       int
}

// Parse command line arguments
func parseArgs() (a cmdOpt, err error) {
	flag.Usage = func() {
		m.PrintA(`
[Usage]
	%s [Options] scenario.yaml

[Options]
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	eOpt := m.NewEstimatorOpt()
	a.method = m.DEFAULT_METHOD
	a.combine = eOpt.Combine
	var dbg int
	flag.Var(&a.method, "m", "Robust method. RANSAC, LMedS, MSAC, PROSAC or PROMedS")
	flag.Float64Var(&a.confidence, "c", eOpt.Confidence, "Confidence of drawing at least one outlier-free subset (0-1)")
	flag.IntVar(&a.maxIterations, "n", eOpt.MaxIterations, "Maximum number of sampling iterations")
	flag.Float64Var(&a.threshold, "t", eOpt.Threshold, "Inlier distance threshold for RANSAC, MSAC and PROSAC [m]")
	flag.Float64Var(&a.stopThreshold, "st", eOpt.StopThreshold, "Median residual stopping LMedS and PROMedS early [m]")
	flag.Float64Var(&a.inlierFactor, "if", eOpt.InlierFactor, "Multiple of the robust scale accepted as inlier for LMedS and PROMedS")
	flag.BoolVar(&a.noRefine, "nr", false, "Do not refine the position over the inliers of the best candidate")
	flag.BoolVar(&a.useStd, "sd", eOpt.UseReadingStdDev, "Weight the refinement by reading standard deviations")
	flag.Var(&a.combine, "q", "Quality score combination. product, sum, source or reading")
	flag.Uint64Var(&a.seed, "s", eOpt.Seed, "Random seed for subset sampling")
	flag.IntVar(&a.workers, "j", eOpt.Workers, "Number of candidate fits evaluated in parallel")
	flag.StringVar(&a.posFn, "o", "", "Output pos file path. If not specified, output to stdout.")
	flag.BoolVar(&a.noPosHeader, "nh", false, "Do not output header section of pos file.")
	flag.IntVar(&dbg, "x", 0, "Debug information display. Specify level value. 0(OFF), 1(display), 2(detailed display), 3(more detailed), 4(most detailed)")
	flag.Parse()
	if flag.NArg() != 1 {
		return a, fmt.Errorf("invalid number of arguments: %d", flag.NArg())
	}
	a.scenarioFn = flag.Arg(0)
	m.DBG_ = dbg
	return a, nil
}

// Print pos file header
func printPosHeader(pos io.Writer, cmd string, args cmdOpt, sc *m.Scenario) {
	fmt.Fprintf(pos, "%% program   : %s\n", filepath.Base(cmd))
	fmt.Fprintf(pos, "%% inp file  : %s\n", args.scenarioFn)
	fmt.Fprintf(pos, "%% method    : %s\n", args.method)
	if args.method.IsMedian() {
		fmt.Fprintf(pos, "%% stop thr  : %g\n", args.stopThreshold)
	} else {
		fmt.Fprintf(pos, "%% threshold : %g\n", args.threshold)
	}
	if args.method.IsProgressive() {
		fmt.Fprintf(pos, "%% quality   : %s\n", args.combine)
	}
	fmt.Fprintf(pos, "%% sources   : %d\n", len(sc.Sources))
	switch sc.Dims {
	case 2:
		fmt.Fprintf(pos, "%%  id                          x(m)         y(m)   ni   ns  iter    sdx(m)    sdy(m)\n")
	case 3:
		fmt.Fprintf(pos, "%%  id                          x(m)         y(m)         z(m)   ni   ns  iter    sdx(m)    sdy(m)    sdz(m)\n")
	}
}

// Output POS line
func printPos(pos io.Writer, id string, rslt *m.PositionEstimate) {
	ns := len(rslt.Inliers)
	fmt.Fprintf(pos, "%-24s", id)
	for _, v := range rslt.Position {
		fmt.Fprintf(pos, " %12.4f", v)
	}
	fmt.Fprintf(pos, " %4d %4d %5d", rslt.NumInliers, ns, rslt.Iterations)
	for j := range rslt.Position {
		sd := 0.0
		if rslt.Covariance != nil {
			sd = math.Sqrt(math.Max(rslt.Covariance.At(j, j), 0))
		}
		fmt.Fprintf(pos, " %9.4f", sd)
	}
	fmt.Fprintln(pos)
}

func setEstimatorOpt(args *cmdOpt) *m.EstimatorOpt {
	opt := m.NewEstimatorOpt()
	opt.Confidence = args.confidence
	opt.MaxIterations = args.maxIterations
	opt.Threshold = args.threshold
	opt.StopThreshold = args.stopThreshold
	opt.InlierFactor = args.inlierFactor
	opt.Refine = !args.noRefine
	opt.UseReadingStdDev = args.useStd
	opt.Combine = args.combine
	opt.Seed = args.seed
	opt.Workers = args.workers
	return opt
}
