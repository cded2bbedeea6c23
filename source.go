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
	"strings"
)

// Radio source (beacon, access point) with a known position
type RadioSource struct {
	ID  string // Identity matched against RangingReading.SourceID
	Pos Point  // Known position [m]
}

// Distance estimated from the unknown location to one radio source
type RangingReading struct {
	SourceID string  // Identity of the source the reading was taken against
	Distance float64 // Measured distance [m]
	StdDev   float64 // Standard deviation of the distance [m]. 0 means unknown (FALLBACK_DISTANCE_STD)
}

// Standard deviation to be used for this reading
func (r *RangingReading) Std() float64 {
	if r.StdDev > 0 {
		return r.StdDev
	}
	return FALLBACK_DISTANCE_STD
}

// Readings captured at one unknown location
type Fingerprint struct {
	ID       string
	Readings []RangingReading
}

// Validate checks reading values and that no two readings share a source
func (p *Fingerprint) Validate() error {
	seen := make(map[string]bool, len(p.Readings))
	for i, r := range p.Readings {
		if r.SourceID == "" {
			return fmt.Errorf("%w: reading[%d] has no source id", ErrInvalidConfiguration, i)
		}
		if seen[r.SourceID] {
			return fmt.Errorf("%w: duplicated reading for source %s", ErrInvalidConfiguration, r.SourceID)
		}
		seen[r.SourceID] = true
		if r.Distance < 0 || math.IsNaN(r.Distance) || math.IsInf(r.Distance, 0) {
			return fmt.Errorf("%w: reading for %s has invalid distance %v", ErrInvalidConfiguration, r.SourceID, r.Distance)
		}
		if r.StdDev < 0 || math.IsNaN(r.StdDev) {
			return fmt.Errorf("%w: reading for %s has invalid std %v", ErrInvalidConfiguration, r.SourceID, r.StdDev)
		}
	}
	return nil
}

// Display fingerprint overview
func (p *Fingerprint) String() string {
	if len(p.Readings) == 0 {
		return "NO DATA"
	}
	var sb strings.Builder
	for _, r := range p.Readings {
		fmt.Fprintf(&sb, "%s: d=%.3f, std=%.3f\n", r.SourceID, r.Distance, r.Std())
	}
	return sb.String()
}

// Validate source identities and positions for an estimator of dims dimensions
func validateSources(sources []RadioSource, dims int) error {
	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		if s.ID == "" {
			return fmt.Errorf("%w: source[%d] has no id", ErrInvalidConfiguration, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicated source %s", ErrInvalidConfiguration, s.ID)
		}
		seen[s.ID] = true
		if s.Pos.Dims() != dims {
			return fmt.Errorf("%w: source %s has %d coordinates, want %d", ErrInvalidConfiguration, s.ID, s.Pos.Dims(), dims)
		}
		if !s.Pos.IsFinite() {
			return fmt.Errorf("%w: source %s has non finite position", ErrInvalidConfiguration, s.ID)
		}
	}
	return nil
}

// One (source, reading) pair of the matched set
type matchedItem struct {
	Source  *RadioSource
	Reading *RangingReading
	SrcIdx  int // Index in the source slice
	ReadIdx int // Index in the fingerprint readings
}

// Pairs sources and readings sharing an identity, in source order
func matchReadings(sources []RadioSource, fp *Fingerprint) []matchedItem {
	byID := make(map[string]int, len(fp.Readings))
	for i, r := range fp.Readings {
		byID[r.SourceID] = i
	}
	items := make([]matchedItem, 0, len(sources))
	for i := range sources {
		j, ok := byID[sources[i].ID]
		if !ok {
			continue
		}
		items = append(items, matchedItem{
			Source:  &sources[i],
			Reading: &fp.Readings[j],
			SrcIdx:  i,
			ReadIdx: j,
		})
	}
	return items
}

// Convert matched items to lateration observations
func toRangeObs(items []matchedItem) []RangeObs {
	obs := make([]RangeObs, len(items))
	for i, it := range items {
		obs[i] = RangeObs{
			Pos:  it.Source.Pos,
			Dist: it.Reading.Distance,
			Std:  it.Reading.Std(),
		}
	}
	return obs
}
