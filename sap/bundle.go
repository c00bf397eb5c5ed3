// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

import (
	"fmt"

	"github.com/curioloop/contact/blocksparse"
)

// Bundle represents the entire set of constraints of a Problem as a single constraint:
//
//  1. A Jacobian 𝐉 mapping generalized velocities to constraint velocities vc = 𝐉⋅v.
//  2. Regularization 𝐑 and bias v̂ as the concatenation of every 𝐑ᵢ and v̂ᵢ, so that y = −𝐑⁻¹⋅(vc − v̂).
//  3. The convex set 𝒞 = 𝒞₁×𝒞₂×…×𝒞ₙ with the separable projection γ = P(y).
//
// Constraints are concatenated in the order of the ProblemGraph rather than the
// order of the Problem: clusters first, then constraints within a cluster.
// Every accessor and operation follows this bundle order.
//
// A Bundle is immutable and keeps references to the constraints of its problem,
// which must not be modified while the bundle is in use. Concurrent calls are safe
// as long as their output buffers do not overlap.
type Bundle struct {
	graph        *ProblemGraph
	cliquePerm   *IndexPermutation
	velocityPerm *IndexPermutation

	j    *blocksparse.Matrix
	r    []float64
	rinv []float64
	vhat []float64

	// constraints in bundle order
	constraints []Constraint
	// problemIndex[k] is the problem index of the k-th bundle constraint
	problemIndex []int
	// offsets[k] is the first equation of the k-th bundle constraint, the last entry is the total
	offsets []int
}

// NewBundle builds the bundle of problem.
// The i-th entry of delassusDiagonal is the scaling used by the i-th problem
// constraint (in problem order) to estimate its regularization.
// A nil logger disables logging.
func NewBundle(problem *Problem, delassusDiagonal []float64, logger *Logger) (*Bundle, error) {

	switch {
	case problem == nil:
		return nil, ErrNilProblem
	case len(delassusDiagonal) != problem.NumConstraints():
		return nil, fmt.Errorf("%w: size %d, want %d", ErrDelassusSize, len(delassusDiagonal), problem.NumConstraints())
	}

	if logger == nil {
		logger = &noopLogger
	}

	graph := NewProblemGraph(problem)
	cliquePerm, err := NewIndexPermutation(problem.NumCliques(), graph.ParticipatingCliques())
	if err != nil {
		return nil, err
	}
	velocityPerm := cliquePerm.Expand(problem.cliqueVelocities)

	nc, ne := problem.NumConstraints(), graph.NumConstraintEquations()
	b := &Bundle{
		graph:        graph,
		cliquePerm:   cliquePerm,
		velocityPerm: velocityPerm,
		r:            make([]float64, ne),
		rinv:         make([]float64, ne),
		vhat:         make([]float64, ne),
		constraints:  make([]Constraint, 0, nc),
		problemIndex: make([]int, 0, nc),
		offsets:      make([]int, 0, nc+1),
	}

	builder := blocksparse.NewBuilder(graph.NumClusters(), cliquePerm.PermutedDomainSize(), 2*graph.NumClusters())

	offset := 0
	for e := 0; e < graph.NumClusters(); e++ {
		cluster := graph.Cluster(e)
		first, second := cluster.Cliques()
		rows := cluster.NumConstraintEquations()

		// one block per clique of the cluster, stacking the rows of its constraints
		j0 := blocksparse.NewDense(rows, problem.NumCliqueVelocities(first), nil)
		var j1 *blocksparse.Dense
		if !cluster.IsUnary() {
			j1 = blocksparse.NewDense(rows, problem.NumCliqueVelocities(second), nil)
		}

		row := 0
		for _, k := range cluster.Constraints() {
			c := problem.Constraint(k)
			ni := c.NumConstraintEquations()

			c.CalcDiagonalRegularization(delassusDiagonal[k], b.r[offset:offset+ni], b.vhat[offset:offset+ni])

			copyRows(j0, row, cliqueJacobian(c, first))
			if j1 != nil {
				copyRows(j1, row, cliqueJacobian(c, second))
			}

			b.constraints = append(b.constraints, c)
			b.problemIndex = append(b.problemIndex, k)
			b.offsets = append(b.offsets, offset)
			offset += ni
			row += ni
		}

		col, _ := cliquePerm.Inverse(first)
		builder.PushBlock(e, col, j0)
		if j1 != nil {
			col, _ = cliquePerm.Inverse(second)
			builder.PushBlock(e, col, j1)
		}

		if logger.enable(LogTrace) {
			logger.log("cluster %4d  cliques (%d,%d)  constraints %v  rows [%d,%d)\n",
				e, first, second, cluster.Constraints(), offset-rows, offset)
		}
	}
	b.offsets = append(b.offsets, offset)

	if b.j, err = builder.Build(); err != nil {
		return nil, err
	}

	for i, r := range b.r {
		b.rinv[i] = one / r
	}

	if logger.enable(LogSummary) {
		logger.log("SAP bundle: %d constraints, %d equations, %d clusters, %d of %d cliques (%d of %d velocities) participating\n",
			nc, ne, graph.NumClusters(), cliquePerm.PermutedDomainSize(), problem.NumCliques(),
			velocityPerm.PermutedDomainSize(), problem.NumVelocities())
	}

	return b, nil
}

// copyRows writes src into dst starting at row r.
func copyRows(dst *blocksparse.Dense, r int, src *blocksparse.Dense) {
	if src.Cols != dst.Cols || r+src.Rows > dst.Rows {
		panic("jacobian dimension not match cluster")
	}
	for j := 0; j < src.Cols; j++ {
		copy(dst.Col(j)[r:r+src.Rows], src.Col(j))
	}
}

// NumConstraints returns the number of constraints in the bundle.
func (b *Bundle) NumConstraints() int { return len(b.constraints) }

// NumConstraintEquations returns the number of constraint equations, i.e. the rows of J.
func (b *Bundle) NumConstraintEquations() int { return len(b.r) }

// J returns the Jacobian of the bundle.
//
// Each cluster of the graph is a block row whose rows follow the constraint order
// within the cluster. Each participating clique is a block column in the order of
// ProblemGraph.ParticipatingCliques, so cliques without constraints take no columns.
// Use VelocityPermutation to map generalized velocities onto these columns.
func (b *Bundle) J() *blocksparse.Matrix { return b.j }

// R returns the diagonal of the regularization 𝐑. It must not be modified.
func (b *Bundle) R() []float64 { return b.r }

// Rinv returns the diagonal of 𝐑⁻¹. It must not be modified.
func (b *Bundle) Rinv() []float64 { return b.rinv }

// Vhat returns the bias v̂. It must not be modified.
func (b *Bundle) Vhat() []float64 { return b.vhat }

// Graph returns the graph the bundle is ordered by.
func (b *Bundle) Graph() *ProblemGraph { return b.graph }

// CliquePermutation maps block columns of J to cliques of the problem.
func (b *Bundle) CliquePermutation() *IndexPermutation { return b.cliquePerm }

// VelocityPermutation maps columns of J to generalized velocities of the problem.
func (b *Bundle) VelocityPermutation() *IndexPermutation { return b.velocityPerm }

// Constraint returns the k-th constraint in bundle order.
func (b *Bundle) Constraint(k int) Constraint { return b.constraints[k] }

// ProblemIndex returns the problem index of the k-th constraint in bundle order.
func (b *Bundle) ProblemIndex(k int) int { return b.problemIndex[k] }

// EquationOffset returns the first equation of the k-th constraint in bundle order.
// EquationOffset(NumConstraints()) equals NumConstraintEquations().
func (b *Bundle) EquationOffset(k int) int { return b.offsets[k] }

// CalcUnprojectedImpulses computes y = −𝐑⁻¹⋅(vc − v̂).
func (b *Bundle) CalcUnprojectedImpulses(vc, y []float64) {
	ne := len(b.r)
	if len(vc) != ne || len(y) != ne {
		panic("impulse dimension not match bundle")
	}
	for i, v := range vc {
		y[i] = -b.rinv[i] * (v - b.vhat[i])
	}
}

// ProjectImpulses computes γ = P(y) for all constraints. When dPdy is not nil it must
// have NumConstraints entries and dPdy[k] receives ∂Pₖ/∂yₖ of the k-th constraint.
// Entries that are nil or not nₖ×nₖ are reallocated.
func (b *Bundle) ProjectImpulses(y, gamma []float64, dPdy []*blocksparse.Dense) {
	b.ProjectImpulsesRange(0, len(b.constraints), y, gamma, dPdy)
}

// ProjectImpulsesAndCalcConstraintsHessian computes γ = P(y) and the block diagonal
// Hessian of the regularizer cost ℓᵣ = ½γᵀ⋅𝐑⋅γ with respect to vc, whose k-th block is
//
//	𝐆ₖ = ∂Pₖ/∂yₖ⋅𝐑ₖ⁻¹
//
// G must have NumConstraints entries. Entries that are nil or not nₖ×nₖ are reallocated.
func (b *Bundle) ProjectImpulsesAndCalcConstraintsHessian(y, gamma []float64, G []*blocksparse.Dense) {
	b.ProjectImpulsesAndCalcConstraintsHessianRange(0, len(b.constraints), y, gamma, G)
}

// ProjectImpulsesRange is ProjectImpulses restricted to bundle constraints [lo,hi).
// Only the equations of those constraints are read from y and written to gamma,
// thus calls on disjoint ranges may run concurrently.
func (b *Bundle) ProjectImpulsesRange(lo, hi int, y, gamma []float64, dPdy []*blocksparse.Dense) {
	b.checkRange(lo, hi, y, gamma)
	if dPdy != nil && len(dPdy) != len(b.constraints) {
		panic("gradient count not match bundle")
	}
	for k := lo; k < hi; k++ {
		s, e := b.offsets[k], b.offsets[k+1]
		var d *blocksparse.Dense
		if dPdy != nil {
			d = ensureSquare(&dPdy[k], e-s)
		}
		b.constraints[k].Project(y[s:e], gamma[s:e], d)
	}
}

// ProjectImpulsesAndCalcConstraintsHessianRange is ProjectImpulsesAndCalcConstraintsHessian
// restricted to bundle constraints [lo,hi).
func (b *Bundle) ProjectImpulsesAndCalcConstraintsHessianRange(lo, hi int, y, gamma []float64, G []*blocksparse.Dense) {
	b.checkRange(lo, hi, y, gamma)
	if len(G) != len(b.constraints) {
		panic("hessian count not match bundle")
	}
	for k := lo; k < hi; k++ {
		s, e := b.offsets[k], b.offsets[k+1]
		g := ensureSquare(&G[k], e-s)
		b.constraints[k].Project(y[s:e], gamma[s:e], g)
		g.ScaleCols(b.rinv[s:e])
	}
}

func (b *Bundle) checkRange(lo, hi int, y, gamma []float64) {
	ne := len(b.r)
	switch {
	case len(y) != ne || len(gamma) != ne:
		panic("impulse dimension not match bundle")
	case lo < 0 || hi > len(b.constraints) || lo > hi:
		panic("constraint range not match bundle")
	}
}

// ensureSquare makes *m an n×n matrix, allocating when needed.
func ensureSquare(m **blocksparse.Dense, n int) *blocksparse.Dense {
	if *m == nil {
		*m = blocksparse.NewDense(n, n, nil)
	} else if (*m).Rows != n || (*m).Cols != n {
		(*m).Reshape(n, n)
	}
	return *m
}
