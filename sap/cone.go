// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

import (
	"fmt"
	"math"

	"github.com/curioloop/contact/blocksparse"
)

// FrictionConeConstraint models a frictional contact point with three equations:
// two tangential components followed by the normal component, γ = (γₜ, γₙ).
// Its convex set is the Lorentz cone 𝓕 = { ‖γₜ‖ ≤ μγₙ }.
type FrictionConeConstraint struct {
	CliqueJacobian
	params Parameters
	mu     float64
	phi    float64
}

// NewFrictionConeConstraint creates a contact with friction coefficient mu and
// signed distance phi (negative when penetrating).
func NewFrictionConeConstraint(J CliqueJacobian, mu, phi float64, params Parameters) (*FrictionConeConstraint, error) {
	var err error
	switch {
	case J.NumConstraintEquations() != 3:
		err = fmt.Errorf("%w: friction cone needs 3 equations, got %d", ErrJacobianShape, J.NumConstraintEquations())
	case !(mu >= zero) || math.IsInf(mu, 0):
		err = fmt.Errorf("%w: friction coefficient must not less than 0", ErrParameters)
	case math.IsNaN(phi) || math.IsInf(phi, 0):
		err = fmt.Errorf("%w: signed distance must be finite", ErrParameters)
	default:
		err = params.check()
	}
	if err != nil {
		return nil, err
	}
	return &FrictionConeConstraint{CliqueJacobian: J, params: params, mu: mu, phi: phi}, nil
}

// CalcDiagonalRegularization uses the same 𝐑 for the three equations, the tangential bias is zero.
func (c *FrictionConeConstraint) CalcDiagonalRegularization(w float64, R, vhat []float64) {
	if len(R) != 3 || len(vhat) != 3 {
		panic("regularization dimension not match constraint")
	}
	r := c.params.regularization(w)
	R[0], R[1], R[2] = r, r, r
	vhat[0], vhat[1], vhat[2] = zero, zero, c.params.bias(c.phi)
}

// Project computes the Euclidean projection on the Lorentz cone.
// With s = ‖yₜ‖ the three regions are:
//
//	s ≤ μyₙ     inside the cone:  γ = y  (yₙ ≥ 0)
//	μs ≤ −yₙ    inside the polar: γ = 0
//	otherwise   on the boundary:  γₙ = (μs + yₙ)/(1+μ²),  γₜ = μγₙ⋅yₜ/s
func (c *FrictionConeConstraint) Project(y, gamma []float64, dPdy *blocksparse.Dense) {
	if len(y) != 3 || len(gamma) != 3 {
		panic("impulse dimension not match constraint")
	}

	mu := c.mu
	yn := y[2]
	s := math.Hypot(y[0], y[1])

	if dPdy != nil {
		dPdy.Zero()
	}

	switch {
	case s <= mu*yn && yn >= zero:
		copy(gamma, y)
		if dPdy != nil {
			dPdy.Set(0, 0, one)
			dPdy.Set(1, 1, one)
			dPdy.Set(2, 2, one)
		}
	case mu*s <= -yn:
		gamma[0], gamma[1], gamma[2] = zero, zero, zero
	default:
		// s > 0 in this region
		d := one + mu*mu
		gn := (mu*s + yn) / d
		t0, t1 := y[0]/s, y[1]/s
		gamma[0], gamma[1], gamma[2] = mu*gn*t0, mu*gn*t1, gn
		if dPdy == nil {
			return
		}
		// ∂γₜ/∂yₜ = μ²/(1+μ²)⋅t̂t̂ᵀ + (μγₙ/s)(𝐈 − t̂t̂ᵀ)
		a, b := mu*mu/d, mu*gn/s
		t := [2]float64{t0, t1}
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				v := (a - b) * t[i] * t[j]
				if i == j {
					v += b
				}
				dPdy.Set(i, j, v)
			}
			// ∂γₜ/∂yₙ = μ/(1+μ²)⋅t̂ and ∂γₙ/∂yₜ = μ/(1+μ²)⋅t̂ᵀ
			dPdy.Set(i, 2, mu/d*t[i])
			dPdy.Set(2, i, mu/d*t[i])
		}
		dPdy.Set(2, 2, one/d)
	}
}
