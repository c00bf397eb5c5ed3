// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sap assembles the constraint bundle consumed by the SAP contact solver.
//
// A Problem is a set of cliques, independent blocks of generalized velocities, and
// constraints acting on one or two cliques. The constraints are clustered by the
// cliques they couple (ProblemGraph), cliques without constraints are compressed
// away (IndexPermutation) and a Bundle gathers the block-sparse Jacobian 𝐉, the
// diagonal regularization 𝐑 with bias v̂ and the projection on 𝒞 = 𝒞₁×𝒞₂×…×𝒞ₙ.
//
// # Reference:
//
//   - Castro A., Permenter F. and Han X., 2021. An Unconstrained Convex Formulation of Compliant Contact.
//     https://arxiv.org/abs/2110.10107
package sap

import (
	"fmt"
	"slices"

	"github.com/curioloop/contact/blocksparse"
)

// Problem holds the cliques and constraints of a contact problem.
//
// A Bundle keeps references to the constraints of the problem, so neither the
// problem nor its constraints may be modified while a bundle built from it is in use.
type Problem struct {
	// number of generalized velocities per clique
	cliqueVelocities []int
	// first generalized velocity of each clique, the last entry is the total
	velocityStart []int
	constraints   []Constraint
	numEquations  int
}

// NewProblem creates a problem with the given number of generalized velocities per clique.
func NewProblem(cliqueVelocities []int) (*Problem, error) {
	start := make([]int, len(cliqueVelocities)+1)
	for c, nv := range cliqueVelocities {
		if nv <= 0 {
			return nil, fmt.Errorf("%w: clique %d has %d velocities", ErrParameters, c, nv)
		}
		start[c+1] = start[c] + nv
	}
	return &Problem{
		cliqueVelocities: slices.Clone(cliqueVelocities),
		velocityStart:    start,
	}, nil
}

// AddConstraint appends c to the problem and returns its index.
func (p *Problem) AddConstraint(c Constraint) (int, error) {

	if c == nil {
		return -1, fmt.Errorf("%w: nil constraint", ErrParameters)
	}

	var err error
	nc, ne := c.NumCliques(), c.NumConstraintEquations()
	first, second := c.FirstClique(), -1
	if nc == 2 {
		second = c.SecondClique()
	}

	switch {
	case nc != 1 && nc != 2:
		err = fmt.Errorf("%w: constraint references %d cliques", ErrCliqueIndex, nc)
	case !p.validClique(first) || nc == 2 && !p.validClique(second):
		err = fmt.Errorf("%w: (%d,%d) not in [0,%d)", ErrCliqueIndex, first, second, p.NumCliques())
	case first == second:
		err = fmt.Errorf("%w: clique %d referenced twice", ErrCliqueIndex, first)
	case ne <= 0:
		err = fmt.Errorf("%w: %d equations", ErrJacobianShape, ne)
	}
	if err == nil {
		err = p.checkJacobian(c.FirstCliqueJacobian(), first, ne)
	}
	if err == nil && nc == 2 {
		err = p.checkJacobian(c.SecondCliqueJacobian(), second, ne)
	}
	if err != nil {
		return -1, fmt.Errorf("constraint %d: %w", len(p.constraints), err)
	}

	p.constraints = append(p.constraints, c)
	p.numEquations += ne
	return len(p.constraints) - 1, nil
}

func (p *Problem) validClique(c int) bool {
	return uint(c) < uint(len(p.cliqueVelocities))
}

func (p *Problem) checkJacobian(J *blocksparse.Dense, clique, ne int) error {
	if J == nil {
		return fmt.Errorf("%w: nil block for clique %d", ErrJacobianShape, clique)
	}
	rows, cols := J.Rows, J.Cols
	if rows != ne || cols != p.cliqueVelocities[clique] {
		return fmt.Errorf("%w: block for clique %d is %d×%d, want %d×%d",
			ErrJacobianShape, clique, rows, cols, ne, p.cliqueVelocities[clique])
	}
	return nil
}

// NumCliques returns the number of cliques.
func (p *Problem) NumCliques() int { return len(p.cliqueVelocities) }

// NumVelocities returns the total number of generalized velocities.
func (p *Problem) NumVelocities() int { return p.velocityStart[len(p.velocityStart)-1] }

// NumCliqueVelocities returns the number of generalized velocities of clique c.
func (p *Problem) NumCliqueVelocities(c int) int { return p.cliqueVelocities[c] }

// VelocityStart returns the first generalized velocity of clique c.
func (p *Problem) VelocityStart(c int) int { return p.velocityStart[c] }

// NumConstraints returns the number of constraints.
func (p *Problem) NumConstraints() int { return len(p.constraints) }

// NumConstraintEquations returns the total number of constraint equations.
func (p *Problem) NumConstraintEquations() int { return p.numEquations }

// Constraint returns the k-th constraint in insertion order.
func (p *Problem) Constraint(k int) Constraint { return p.constraints[k] }
