// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexPermutation(t *testing.T) {
	p, err := NewIndexPermutation(5, []int{3, 1, 2, 0})
	require.NoError(t, err)

	assert.Equal(t, 5, p.DomainSize())
	assert.Equal(t, 4, p.PermutedDomainSize())

	for k, i := range []int{3, 1, 2, 0} {
		assert.Equal(t, i, p.Forward(k))
		j, ok := p.Inverse(i)
		assert.True(t, ok)
		assert.Equal(t, k, j)
	}

	k, ok := p.Inverse(4)
	assert.False(t, ok)
	assert.Equal(t, -1, k)
	assert.False(t, p.Participates(4))
	assert.True(t, p.Participates(0))

	assert.Panics(t, func() { p.Forward(4) })
	assert.Panics(t, func() { p.Inverse(5) })
}

func TestIndexPermutationErrors(t *testing.T) {
	_, err := NewIndexPermutation(3, []int{0, 3})
	assert.ErrorIs(t, err, ErrPermutation)

	_, err = NewIndexPermutation(3, []int{1, 1})
	assert.ErrorIs(t, err, ErrPermutation)

	_, err = NewIndexPermutation(1, []int{0, 1})
	assert.ErrorIs(t, err, ErrPermutation)

	p, err := NewIndexPermutation(0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PermutedDomainSize())
}

func TestIndexPermutationApply(t *testing.T) {
	p, err := NewIndexPermutation(4, []int{2, 0})
	require.NoError(t, err)

	x := []float64{10, 11, 12, 13}
	xp := make([]float64, 2)
	p.Apply(x, xp)
	assert.Equal(t, []float64{12, 10}, xp)

	y := []float64{-1, -1, -1, -1}
	p.ApplyInverse([]float64{5, 6}, y)
	assert.Equal(t, []float64{6, -1, 5, -1}, y)

	assert.Panics(t, func() { p.Apply(x, make([]float64, 3)) })
}

func TestIndexPermutationExpand(t *testing.T) {
	// cliques with 2, 1, 3 velocities; only cliques 2 and 0 participate
	p, err := NewIndexPermutation(3, []int{2, 0})
	require.NoError(t, err)

	v := p.Expand([]int{2, 1, 3})
	assert.Equal(t, 6, v.DomainSize())
	assert.Equal(t, 5, v.PermutedDomainSize())

	var forward []int
	for k := 0; k < v.PermutedDomainSize(); k++ {
		forward = append(forward, v.Forward(k))
	}
	assert.Equal(t, []int{3, 4, 5, 0, 1}, forward)
	assert.False(t, v.Participates(2))

	assert.Panics(t, func() { p.Expand([]int{1, 2}) })
}
