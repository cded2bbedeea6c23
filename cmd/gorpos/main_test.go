// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	m "github.com/mkhts/gorpos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
dims: 2
sources:
  - {id: a, pos: [0, 0]}
  - {id: b, pos: [10, 0]}
  - {id: c, pos: [0, 10]}
  - {id: d, pos: [10, 10]}
fingerprints:
  - id: good
    readings:
      - {source: a, distance: 5}
      - {source: b, distance: 8.06225774829855}
      - {source: c, distance: 6.708203932499369}
      - {source: d, distance: 100}
  - id: short
    readings:
      - {source: a, distance: 5}
`

func testArgs() cmdOpt {
	opt := m.NewEstimatorOpt()
	return cmdOpt{
		method:        m.RANSAC,
		confidence:    opt.Confidence,
		maxIterations: opt.MaxIterations,
		threshold:     opt.Threshold,
		stopThreshold: opt.StopThreshold,
		inlierFactor:  opt.InlierFactor,
		useStd:        true,
		combine:       m.CombineProduct,
		seed:          1,
		workers:       2,
	}
}

func TestSetEstimatorOpt(t *testing.T) {
	args := testArgs()
	args.noRefine = true
	opt := setEstimatorOpt(&args)
	assert.False(t, opt.Refine)
	assert.Equal(t, uint64(1), opt.Seed)
	assert.Equal(t, 2, opt.Workers)
	assert.NoError(t, opt.Validate())
}

func TestProcessFingerprints(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(scenarioYAML), 0o644))
	sc, err := m.LoadScenario(fn)
	require.NoError(t, err)

	var log bytes.Buffer
	m.SetLogOutput(&log)
	defer m.SetLogOutput(os.Stderr)

	args := testArgs()
	args.scenarioFn = fn
	var out bytes.Buffer
	printPosHeader(&out, "gorpos", args, sc)
	require.NoError(t, processFingerprints(context.Background(), args, sc, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	var body []string
	for _, l := range lines {
		if !strings.HasPrefix(l, "%") {
			body = append(body, l)
		}
	}
	require.Len(t, body, 1)
	f := strings.Fields(body[0])
	assert.Equal(t, "good", f[0])
	assert.Equal(t, "3.0000", f[1])
	assert.Equal(t, "4.0000", f[2])
	assert.Equal(t, "3", f[3])
	assert.Equal(t, "4", f[4])

	assert.Contains(t, out.String(), "% method    : RANSAC")
	assert.Contains(t, log.String(), "short: configuration failed")
}
