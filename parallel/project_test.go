// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioloop/contact/blocksparse"
	"github.com/curioloop/contact/sap"
)

func TestPartition(t *testing.T) {
	assert.Equal(t, []Range{{0, 3}, {3, 5}, {5, 7}}, Partition(7, 3))
	assert.Equal(t, []Range{{0, 1}, {1, 2}}, Partition(2, 8))
	assert.Equal(t, []Range{{0, 4}}, Partition(4, 1))
	assert.Empty(t, Partition(0, 4))

	parts := Partition(100, 0)
	require.NotEmpty(t, parts)
	assert.Equal(t, 0, parts[0].Lo)
	assert.Equal(t, 100, parts[len(parts)-1].Hi)
	for p := 1; p < len(parts); p++ {
		assert.Equal(t, parts[p-1].Hi, parts[p].Lo)
	}
}

// contactBundle builds a chain of cliques, each coupled to the next by a friction cone
// and limited on its own by a two-sided limit.
func contactBundle(t *testing.T, cliques int) *sap.Bundle {
	t.Helper()
	nv := make([]int, cliques)
	for c := range nv {
		nv[c] = 2 + c%3
	}
	p, err := sap.NewProblem(nv)
	require.NoError(t, err)

	params := sap.Parameters{TimeStep: 1e-3, Stiffness: math.Inf(1)}
	block := func(rows, cols int, seed float64) *blocksparse.Dense {
		m := blocksparse.NewDense(rows, cols, nil)
		for i := range m.Data {
			m.Data[i] = math.Sin(seed + float64(i))
		}
		return m
	}

	var w []float64
	for c := 0; c+1 < cliques; c++ {
		J, err := sap.NewCliquePairJacobian(c, block(3, nv[c], float64(c)), c+1, block(3, nv[c+1], -float64(c)))
		require.NoError(t, err)
		cone, err := sap.NewFrictionConeConstraint(J, 0.4, -1e-4*float64(c%4), params)
		require.NoError(t, err)
		_, err = p.AddConstraint(cone)
		require.NoError(t, err)
		w = append(w, 1+0.1*float64(c))

		J, err = sap.NewCliqueJacobian(c, block(2, nv[c], 0.5*float64(c)))
		require.NoError(t, err)
		limit, err := sap.NewLimitConstraint(J, []float64{1e-4, -1e-4}, params)
		require.NoError(t, err)
		_, err = p.AddConstraint(limit)
		require.NoError(t, err)
		w = append(w, 0.5)
	}

	b, err := sap.NewBundle(p, w, nil)
	require.NoError(t, err)
	return b
}

func impulses(n int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = 3 * math.Cos(1.7*float64(i))
	}
	return y
}

func TestProjectImpulsesMatchesSerial(t *testing.T) {
	b := contactBundle(t, 12)
	ne, nc := b.NumConstraintEquations(), b.NumConstraints()
	y := impulses(ne)

	want := make([]float64, ne)
	wantGrad := make([]*blocksparse.Dense, nc)
	b.ProjectImpulses(y, want, wantGrad)

	for _, workers := range []int{1, 2, 5, 64} {
		gamma := make([]float64, ne)
		dPdy := make([]*blocksparse.Dense, nc)
		require.NoError(t, ProjectImpulses(context.Background(), b, workers, y, gamma, dPdy))
		assert.Equal(t, want, gamma, "workers %d", workers)
		for k := range dPdy {
			assert.Equal(t, wantGrad[k].Data, dPdy[k].Data, "workers %d constraint %d", workers, k)
		}
	}

	gamma := make([]float64, ne)
	require.NoError(t, ProjectImpulses(context.Background(), b, 3, y, gamma, nil))
	assert.Equal(t, want, gamma)
}

func TestProjectImpulsesAndCalcConstraintsHessianMatchesSerial(t *testing.T) {
	b := contactBundle(t, 9)
	ne, nc := b.NumConstraintEquations(), b.NumConstraints()
	y := impulses(ne)

	want := make([]float64, ne)
	wantG := make([]*blocksparse.Dense, nc)
	b.ProjectImpulsesAndCalcConstraintsHessian(y, want, wantG)

	for _, workers := range []int{0, 1, 4} {
		gamma := make([]float64, ne)
		G := make([]*blocksparse.Dense, nc)
		require.NoError(t, ProjectImpulsesAndCalcConstraintsHessian(context.Background(), b, workers, y, gamma, G))
		assert.Equal(t, want, gamma, "workers %d", workers)
		for k := range G {
			assert.Equal(t, wantG[k].Data, G[k].Data, "workers %d constraint %d", workers, k)
		}
	}
}

func TestProjectImpulsesCancelled(t *testing.T) {
	b := contactBundle(t, 6)
	ne := b.NumConstraintEquations()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ProjectImpulses(ctx, b, 4, impulses(ne), make([]float64, ne), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProjectImpulsesDimensionMismatch(t *testing.T) {
	b := contactBundle(t, 4)
	ne, nc := b.NumConstraintEquations(), b.NumConstraints()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = ProjectImpulses(ctx, b, 2, impulses(ne-1), make([]float64, ne), nil)
	})
	assert.Panics(t, func() {
		_ = ProjectImpulses(ctx, b, 2, impulses(ne), make([]float64, ne), make([]*blocksparse.Dense, nc-1))
	})
	assert.Panics(t, func() {
		_ = ProjectImpulsesAndCalcConstraintsHessian(ctx, b, 2, impulses(ne), make([]float64, ne), nil)
	})
}

func TestRunRecoversPanic(t *testing.T) {
	err := run(context.Background(), 10, 3, func(r Range) {
		if r.Lo == 0 {
			panic("boom")
		}
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "[0,4)")
}
