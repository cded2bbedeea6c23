// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a set of radio sources and the fingerprints captured among them,
// as read from a YAML file:
//
//	dims: 2
//	sources:
//	  - id: ap1
//	    pos: [0, 0]
//	    quality: 0.9
//	fingerprints:
//	  - id: fp1
//	    readings:
//	      - source: ap1
//	        distance: 5.0
//	        std: 0.5
//	        quality: 1.0
type Scenario struct {
	Dims         int                   `yaml:"dims"`
	Sources      []ScenarioSource      `yaml:"sources"`
	Fingerprints []ScenarioFingerprint `yaml:"fingerprints"`
}

type ScenarioSource struct {
	ID      string    `yaml:"id"`
	Pos     []float64 `yaml:"pos"`
	Quality *float64  `yaml:"quality,omitempty"`
}

type ScenarioFingerprint struct {
	ID       string            `yaml:"id"`
	Readings []ScenarioReading `yaml:"readings"`
}

type ScenarioReading struct {
	Source   string   `yaml:"source"`
	Distance float64  `yaml:"distance"`
	Std      float64  `yaml:"std,omitempty"`
	Quality  *float64 `yaml:"quality,omitempty"`
}

// LoadScenario loads and validates a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scenario file not found: %s", path)
		}
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a YAML scenario
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks dimension, sources and readings
func (sc *Scenario) Validate() error {
	if sc.Dims != 2 && sc.Dims != 3 {
		return fmt.Errorf("%w: dims must be 2 or 3, got %d", ErrInvalidConfiguration, sc.Dims)
	}
	if len(sc.Sources) == 0 {
		return fmt.Errorf("%w: at least one source must be defined", ErrInvalidConfiguration)
	}
	if err := validateSources(sc.RadioSources(), sc.Dims); err != nil {
		return err
	}
	for i := range sc.Fingerprints {
		fp := sc.Fingerprint(i)
		if err := fp.Validate(); err != nil {
			return fmt.Errorf("fingerprint[%d]: %w", i, err)
		}
	}
	return nil
}

// Radio sources of the scenario
func (sc *Scenario) RadioSources() []RadioSource {
	s := make([]RadioSource, len(sc.Sources))
	for i, src := range sc.Sources {
		s[i] = RadioSource{ID: src.ID, Pos: Point(src.Pos).Clone()}
	}
	return s
}

// i-th fingerprint of the scenario
func (sc *Scenario) Fingerprint(i int) *Fingerprint {
	f := sc.Fingerprints[i]
	fp := &Fingerprint{ID: f.ID, Readings: make([]RangingReading, len(f.Readings))}
	for j, r := range f.Readings {
		fp.Readings[j] = RangingReading{SourceID: r.Source, Distance: r.Distance, StdDev: r.Std}
	}
	return fp
}

// Quality scores of the i-th fingerprint. nil when the scenario has no
// quality anywhere; missing values default to 1 otherwise.
func (sc *Scenario) QualityScores(i int) *QualityScores {
	f := sc.Fingerprints[i]
	has := false
	for _, s := range sc.Sources {
		has = has || s.Quality != nil
	}
	for _, r := range f.Readings {
		has = has || r.Quality != nil
	}
	if !has {
		return nil
	}
	qs := &QualityScores{
		Sources:  make([]float64, len(sc.Sources)),
		Readings: make([]float64, len(f.Readings)),
	}
	for j, s := range sc.Sources {
		qs.Sources[j] = 1
		if s.Quality != nil {
			qs.Sources[j] = *s.Quality
		}
	}
	for j, r := range f.Readings {
		qs.Readings[j] = 1
		if r.Quality != nil {
			qs.Readings[j] = *r.Quality
		}
	}
	return qs
}
