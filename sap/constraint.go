// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

import (
	"fmt"

	"github.com/curioloop/contact/blocksparse"
)

// Constraint is implemented by every SAP constraint variant.
//
// The i-th constraint relates generalized velocities v to constraint velocities
// vᵢ = 𝐉ᵢ⋅v through one Jacobian block per referenced clique, defines a diagonal
// regularization 𝐑ᵢ with bias v̂ᵢ such that the unprojected impulses are
//
//	yᵢ = −𝐑ᵢ⁻¹⋅(vᵢ − v̂ᵢ)
//
// and a convex set 𝒞ᵢ with projection γᵢ = Pᵢ(yᵢ).
type Constraint interface {
	// NumConstraintEquations returns the number of rows of each Jacobian block.
	NumConstraintEquations() int
	// NumCliques returns 1 or 2.
	NumCliques() int
	// FirstClique returns the index of the first referenced clique.
	FirstClique() int
	// SecondClique panics for single clique constraints.
	SecondClique() int
	// FirstCliqueJacobian returns the block acting on FirstClique.
	FirstCliqueJacobian() *blocksparse.Dense
	// SecondCliqueJacobian panics for single clique constraints.
	SecondCliqueJacobian() *blocksparse.Dense
	// CalcDiagonalRegularization computes 𝐑ᵢ and v̂ᵢ given the delassus scaling w.
	// Both outputs have NumConstraintEquations entries and R must be strictly positive.
	CalcDiagonalRegularization(w float64, R, vhat []float64)
	// Project computes γ = P(y) and, when dPdy is not nil, writes ∂P/∂y into it.
	// dPdy is always NumConstraintEquations × NumConstraintEquations.
	Project(y, gamma []float64, dPdy *blocksparse.Dense)
}

// CliqueJacobian stores the clique references and Jacobian blocks shared by all constraint variants.
// Embedding it provides the clique-related methods of Constraint.
type CliqueJacobian struct {
	num     int
	cliques [2]int
	blocks  [2]*blocksparse.Dense
}

// NewCliqueJacobian creates the Jacobian of a constraint acting on a single clique.
func NewCliqueJacobian(clique int, J *blocksparse.Dense) (CliqueJacobian, error) {
	switch {
	case clique < 0:
		return CliqueJacobian{}, fmt.Errorf("%w: %d", ErrCliqueIndex, clique)
	case J == nil || J.Rows <= 0:
		return CliqueJacobian{}, fmt.Errorf("%w: empty jacobian", ErrJacobianShape)
	}
	return CliqueJacobian{num: 1, cliques: [2]int{clique, clique}, blocks: [2]*blocksparse.Dense{J, nil}}, nil
}

// NewCliquePairJacobian creates the Jacobian of a constraint coupling two distinct cliques.
func NewCliquePairJacobian(first int, J0 *blocksparse.Dense, second int, J1 *blocksparse.Dense) (CliqueJacobian, error) {
	switch {
	case first < 0 || second < 0:
		return CliqueJacobian{}, fmt.Errorf("%w: (%d,%d)", ErrCliqueIndex, first, second)
	case first == second:
		return CliqueJacobian{}, fmt.Errorf("%w: clique %d referenced twice", ErrCliqueIndex, first)
	case J0 == nil || J1 == nil || J0.Rows <= 0:
		return CliqueJacobian{}, fmt.Errorf("%w: empty jacobian", ErrJacobianShape)
	case J0.Rows != J1.Rows:
		return CliqueJacobian{}, fmt.Errorf("%w: blocks have %d and %d rows", ErrJacobianShape, J0.Rows, J1.Rows)
	}
	return CliqueJacobian{num: 2, cliques: [2]int{first, second}, blocks: [2]*blocksparse.Dense{J0, J1}}, nil
}

// NumConstraintEquations returns the rows shared by the Jacobian blocks.
func (c *CliqueJacobian) NumConstraintEquations() int { return c.blocks[0].Rows }

// NumCliques returns 1 or 2.
func (c *CliqueJacobian) NumCliques() int { return c.num }

// FirstClique returns the first referenced clique.
func (c *CliqueJacobian) FirstClique() int { return c.cliques[0] }

// SecondClique returns the second referenced clique, it panics for a single clique.
func (c *CliqueJacobian) SecondClique() int {
	if c.num < 2 {
		panic("constraint has no second clique")
	}
	return c.cliques[1]
}

// FirstCliqueJacobian returns the block acting on the first clique.
func (c *CliqueJacobian) FirstCliqueJacobian() *blocksparse.Dense { return c.blocks[0] }

// SecondCliqueJacobian returns the block acting on the second clique, it panics for a single clique.
func (c *CliqueJacobian) SecondCliqueJacobian() *blocksparse.Dense {
	if c.num < 2 {
		panic("constraint has no second clique")
	}
	return c.blocks[1]
}

// cliqueJacobian returns the block of c acting on clique.
func cliqueJacobian(c Constraint, clique int) *blocksparse.Dense {
	if c.FirstClique() == clique {
		return c.FirstCliqueJacobian()
	}
	return c.SecondCliqueJacobian()
}
