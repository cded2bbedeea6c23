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
	"strconv"
	"strings"
)

//-------------------------------------------------------------------
// Point
//-------------------------------------------------------------------

// Point is a coordinate in a local cartesian frame [m].
// Only 2 and 3 dimensional points are used by the estimators.
type Point []float64

func NewPoint2D(x, y float64) Point {
	return Point{x, y}
}

func NewPoint3D(x, y, z float64) Point {
	return Point{x, y, z}
}

// Number of coordinates
func (p Point) Dims() int {
	return len(p)
}

func (p Point) Clone() Point {
	if p == nil {
		return nil
	}
	q := make(Point, len(p))
	copy(q, p)
	return q
}

// Euclidean distance to q. Both points must have the same dimension.
func (p Point) Dist(q Point) float64 {
	s := 0.0
	for i := range p {
		s += SQ(p[i] - q[i])
	}
	return math.Sqrt(s)
}

// p - q
func (p Point) Sub(q Point) Point {
	d := make(Point, len(p))
	for i := range p {
		d[i] = p[i] - q[i]
	}
	return d
}

// Squared norm of the position vector
func (p Point) NormSq() float64 {
	s := 0.0
	for _, v := range p {
		s += v * v
	}
	return s
}

func (p Point) IsFinite() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Compare coordinates with absolute tolerance
func (p Point) EqualApprox(q Point, tol float64) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if math.Abs(p[i]-q[i]) > tol {
			return false
		}
	}
	return true
}

// Read from string like "1.5 2.0 0.8"
func (p *Point) Set(s string) error {
	f := strings.Fields(s)
	if len(f) < 2 || len(f) > 3 {
		return fmt.Errorf("invalid number of coordinates: %d", len(f))
	}
	q := make(Point, len(f))
	for i := range f {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return err
		}
		q[i] = v
	}
	*p = q
	return nil
}

// Convert to string
func (p Point) String() string {
	s := make([]string, len(p))
	for i, v := range p {
		s[i] = fmt.Sprintf("%.4f", v)
	}
	return strings.Join(s, " ")
}
