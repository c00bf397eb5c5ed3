// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusteredProblem has five cliques, the last one without constraints:
//
//	k0 (3,1)   k1 (2)   k2 (1,3)   k3 (0,2)   k4 (2)
func clusteredProblem(t *testing.T) *Problem {
	t.Helper()
	p, err := NewProblem([]int{1, 2, 1, 2, 3})
	require.NoError(t, err)
	addCoupler(t, p, pair(t, p, 3, 1, 2, 1), compliant(1))
	addCoupler(t, p, unary(t, p, 2, 1, 2), compliant(2))
	addCoupler(t, p, pair(t, p, 1, 3, 3, 3), compliant(3))
	addCoupler(t, p, pair(t, p, 0, 2, 1, 4), compliant(4))
	addCoupler(t, p, unary(t, p, 2, 2, 5), compliant(5))
	return p
}

func TestProblemGraphClusters(t *testing.T) {
	p := clusteredProblem(t)
	g := NewProblemGraph(p)

	require.Equal(t, 3, g.NumClusters())

	c := g.Cluster(0)
	first, second := c.Cliques()
	assert.Equal(t, []int{3, 1}, []int{first, second})
	assert.False(t, c.IsUnary())
	assert.Equal(t, []int{0, 2}, c.Constraints())
	assert.Equal(t, 5, c.NumConstraintEquations())

	c = g.Cluster(1)
	first, second = c.Cliques()
	assert.Equal(t, []int{2, 2}, []int{first, second})
	assert.True(t, c.IsUnary())
	assert.Equal(t, []int{1, 4}, c.Constraints())
	assert.Equal(t, 3, c.NumConstraintEquations())

	c = g.Cluster(2)
	assert.Equal(t, []int{3}, c.Constraints())
	assert.Equal(t, 1, c.NumConstraintEquations())

	assert.Equal(t, []int{3, 1, 2, 0}, g.ParticipatingCliques())
	assert.Equal(t, p.NumConstraintEquations(), g.NumConstraintEquations())
}

func TestProblemGraphDeterministic(t *testing.T) {
	a := NewProblemGraph(clusteredProblem(t))
	b := NewProblemGraph(clusteredProblem(t))
	require.Equal(t, a.NumClusters(), b.NumClusters())
	for k := 0; k < a.NumClusters(); k++ {
		assert.Equal(t, a.Cluster(k).Constraints(), b.Cluster(k).Constraints())
	}
	assert.Equal(t, a.ParticipatingCliques(), b.ParticipatingCliques())
}

func TestProblemGraphEmpty(t *testing.T) {
	p, err := NewProblem([]int{2, 3})
	require.NoError(t, err)
	g := NewProblemGraph(p)
	assert.Equal(t, 0, g.NumClusters())
	assert.Empty(t, g.ParticipatingCliques())
	assert.Equal(t, 0, g.NumConstraintEquations())

	assert.Panics(t, func() { NewProblemGraph(nil) })
}
