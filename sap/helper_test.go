// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curioloop/contact/blocksparse"
)

// rigid parameters keep only the near-rigid regularization term
var rigid = Parameters{TimeStep: 0.01, Stiffness: math.Inf(1)}

// compliant returns parameters whose regularization is exactly r for delassus w ≤ 1.
func compliant(r float64) Parameters {
	// 𝐑 = 1/(δt⋅k⋅δt) with δt = 0.01
	return Parameters{TimeStep: 0.01, Stiffness: 1e4 / r}
}

// seqJacobian fills a rows×cols block with distinct values derived from seed.
func seqJacobian(rows, cols int, seed float64) *blocksparse.Dense {
	m := blocksparse.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			m.Set(i, j, seed+float64(i)+0.1*float64(j+1))
		}
	}
	return m
}

func unary(t *testing.T, p *Problem, clique, rows int, seed float64) CliqueJacobian {
	t.Helper()
	J, err := NewCliqueJacobian(clique, seqJacobian(rows, p.NumCliqueVelocities(clique), seed))
	require.NoError(t, err)
	return J
}

func pair(t *testing.T, p *Problem, first, second, rows int, seed float64) CliqueJacobian {
	t.Helper()
	J, err := NewCliquePairJacobian(
		first, seqJacobian(rows, p.NumCliqueVelocities(first), seed),
		second, seqJacobian(rows, p.NumCliqueVelocities(second), -seed))
	require.NoError(t, err)
	return J
}

func addCoupler(t *testing.T, p *Problem, J CliqueJacobian, params Parameters) int {
	t.Helper()
	c, err := NewCouplerConstraint(J, make([]float64, J.NumConstraintEquations()), params)
	require.NoError(t, err)
	k, err := p.AddConstraint(c)
	require.NoError(t, err)
	return k
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

// constraintVelocity computes vᵢ = Σ 𝐉ᵢⱼ⋅vⱼ of a problem constraint from the full velocity v.
func constraintVelocity(p *Problem, c Constraint, v []float64) []float64 {
	vc := make([]float64, c.NumConstraintEquations())
	apply := func(clique int, J *blocksparse.Dense) {
		s := p.VelocityStart(clique)
		J.MulVecAdd(1, v[s:s+p.NumCliqueVelocities(clique)], vc)
	}
	apply(c.FirstClique(), c.FirstCliqueJacobian())
	if c.NumCliques() == 2 {
		apply(c.SecondClique(), c.SecondCliqueJacobian())
	}
	return vc
}
