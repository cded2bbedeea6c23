// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointDist(t *testing.T) {
	p := NewPoint2D(0, 0)
	q := NewPoint2D(3, 4)
	assert.InDelta(t, 5.0, p.Dist(q), 1e-12)
	assert.InDelta(t, 25.0, q.Sub(p).NormSq(), 1e-12)

	r := NewPoint3D(1, 2, 2)
	assert.InDelta(t, 3.0, r.Dist(NewPoint3D(0, 0, 0)), 1e-12)
	assert.Equal(t, 3, r.Dims())
}

func TestPointClone(t *testing.T) {
	p := NewPoint2D(1, 2)
	q := p.Clone()
	q[0] = 10
	assert.Equal(t, 1.0, p[0])
	assert.Nil(t, Point(nil).Clone())
}

func TestPointIsFinite(t *testing.T) {
	assert.True(t, NewPoint2D(1, 2).IsFinite())
	assert.False(t, NewPoint2D(math.NaN(), 2).IsFinite())
	assert.False(t, NewPoint3D(0, math.Inf(1), 0).IsFinite())
}

func TestPointEqualApprox(t *testing.T) {
	assert.True(t, NewPoint2D(1, 2).EqualApprox(NewPoint2D(1.0005, 1.9995), 1e-3))
	assert.False(t, NewPoint2D(1, 2).EqualApprox(NewPoint2D(1.1, 2), 1e-3))
	assert.False(t, NewPoint2D(1, 2).EqualApprox(NewPoint3D(1, 2, 0), 1e-3))
}

func TestPointSetAndString(t *testing.T) {
	var p Point
	require.NoError(t, p.Set("1.5 2 0.25"))
	assert.Equal(t, Point{1.5, 2, 0.25}, p)
	assert.Equal(t, "1.5000 2.0000 0.2500", p.String())

	assert.Error(t, p.Set("1"))
	assert.Error(t, p.Set("1 2 3 4"))
	assert.Error(t, p.Set("1 x"))
}
