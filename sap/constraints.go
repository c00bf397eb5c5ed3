// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

import (
	"fmt"
	"math"
	"slices"

	"github.com/curioloop/contact/blocksparse"
)

// LimitConstraint enforces unilateral limits gⱼ(q) ≥ 0, such as joint limits or frictionless contact.
// Its convex set is the non-negative orthant: γ = 𝚖𝚊𝚡(y, 0).
type LimitConstraint struct {
	CliqueJacobian
	params Parameters
	g      []float64
}

// NewLimitConstraint creates a limit constraint with the current constraint function values g,
// one per Jacobian row.
func NewLimitConstraint(J CliqueJacobian, g []float64, params Parameters) (*LimitConstraint, error) {
	if err := params.check(); err != nil {
		return nil, err
	}
	if len(g) != J.NumConstraintEquations() {
		return nil, fmt.Errorf("%w: %d limit values for %d equations", ErrJacobianShape, len(g), J.NumConstraintEquations())
	}
	return &LimitConstraint{CliqueJacobian: J, params: params, g: slices.Clone(g)}, nil
}

// CalcDiagonalRegularization uses the same 𝐑 for every limit with bias from g.
func (c *LimitConstraint) CalcDiagonalRegularization(w float64, R, vhat []float64) {
	c.params.fillRegularization(w, c.g, R, vhat)
}

// Project clamps y to the non-negative orthant, ∂P/∂y is diagonal with ones on active entries.
func (c *LimitConstraint) Project(y, gamma []float64, dPdy *blocksparse.Dense) {
	if dPdy != nil {
		dPdy.Zero()
	}
	for i, v := range y {
		if v > zero {
			gamma[i] = v
			if dPdy != nil {
				dPdy.Set(i, i, one)
			}
		} else {
			gamma[i] = zero
		}
	}
}

// CouplerConstraint enforces bilateral relations g(q) = 0, such as gear couplers or weld constraints.
// Its convex set is the whole space, thus the projection is the identity.
type CouplerConstraint struct {
	CliqueJacobian
	params Parameters
	g      []float64
}

// NewCouplerConstraint creates a coupler constraint with the current constraint function values g.
func NewCouplerConstraint(J CliqueJacobian, g []float64, params Parameters) (*CouplerConstraint, error) {
	if err := params.check(); err != nil {
		return nil, err
	}
	if len(g) != J.NumConstraintEquations() {
		return nil, fmt.Errorf("%w: %d coupler values for %d equations", ErrJacobianShape, len(g), J.NumConstraintEquations())
	}
	return &CouplerConstraint{CliqueJacobian: J, params: params, g: slices.Clone(g)}, nil
}

// CalcDiagonalRegularization uses the same 𝐑 for every equation with bias from g.
func (c *CouplerConstraint) CalcDiagonalRegularization(w float64, R, vhat []float64) {
	c.params.fillRegularization(w, c.g, R, vhat)
}

// Project copies y into gamma, ∂P/∂y is the identity.
func (c *CouplerConstraint) Project(y, gamma []float64, dPdy *blocksparse.Dense) {
	copy(gamma, y)
	if dPdy != nil {
		dPdy.Zero()
		for i := range y {
			dPdy.Set(i, i, one)
		}
	}
}

// BallConstraint bounds the impulse magnitude ‖γ‖ ≤ r, such as a regularized friction or torque limit.
// Every equation shares the same regularization, so that the Euclidean projection
// is also the projection in the norm induced by 𝐑.
type BallConstraint struct {
	CliqueJacobian
	params Parameters
	radius float64
}

// NewBallConstraint creates a ball constraint of given radius.
func NewBallConstraint(J CliqueJacobian, radius float64, params Parameters) (*BallConstraint, error) {
	if err := params.check(); err != nil {
		return nil, err
	}
	if !(radius >= zero) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: ball radius %g", ErrParameters, radius)
	}
	return &BallConstraint{CliqueJacobian: J, params: params, radius: radius}, nil
}

// CalcDiagonalRegularization uses the same 𝐑 for every equation and zero bias.
func (c *BallConstraint) CalcDiagonalRegularization(w float64, R, vhat []float64) {
	c.params.fillRegularization(w, nil, R, vhat)
}

// Project computes
//
//	P(y) = y         if ‖y‖ ≤ r
//	P(y) = r⋅y/‖y‖   otherwise
//
// with gradient 𝐈 inside the ball and (r/‖y‖)(𝐈 − ŷŷᵀ) outside.
func (c *BallConstraint) Project(y, gamma []float64, dPdy *blocksparse.Dense) {
	norm := zero
	for _, v := range y {
		norm = math.Hypot(norm, v)
	}

	if norm <= c.radius {
		copy(gamma, y)
		if dPdy != nil {
			dPdy.Zero()
			for i := range y {
				dPdy.Set(i, i, one)
			}
		}
		return
	}

	s := c.radius / norm
	for i, v := range y {
		gamma[i] = s * v
	}
	if dPdy != nil {
		n := len(y)
		for j := 0; j < n; j++ {
			col := dPdy.Col(j)
			yj := y[j] / norm
			for i := 0; i < n; i++ {
				col[i] = -s * (y[i] / norm) * yj
			}
			col[j] += s
		}
	}
}
