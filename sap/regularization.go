// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

import (
	"errors"
	"fmt"
	"math"
)

// minRegularization keeps 𝐑 strictly positive when both the rigid and near-rigid terms vanish.
const minRegularization = 1e-14

// Parameters controls the compliance of a constraint.
//
// Following [Castro et al., 2021] the regularization of every equation is
//
//	𝐑 = 𝚖𝚊𝚡( β²/(4π²)⋅w, 1/(δt⋅k⋅(δt+τ)) )
//
// and the bias of a constraint function value g is v̂ = −g/(δt+τ).
// A rigid constraint (k = +∞) only keeps the near-rigid term, which scales with
// the delassus estimate w so that the constraint is resolved within a few time steps.
type Parameters struct {
	TimeStep    float64 // The discrete time step δt > 0
	Stiffness   float64 // The stiffness k > 0, use math.Inf(1) for rigid constraints
	Dissipation float64 // The relaxation time τ ≥ 0
	Beta        float64 // The near-rigid parameter β, 1 when zero
}

func (p *Parameters) check() (err error) {
	switch {
	case !(p.TimeStep > zero) || math.IsInf(p.TimeStep, 0):
		err = errors.New("time step must greater than 0")
	case !(p.Stiffness > zero):
		err = errors.New("stiffness must greater than 0")
	case !(p.Dissipation >= zero) || math.IsInf(p.Dissipation, 0):
		err = errors.New("dissipation must not less than 0")
	case p.Beta < zero || math.IsNaN(p.Beta) || math.IsInf(p.Beta, 0):
		err = errors.New("near-rigid parameter must not less than 0")
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrParameters, err)
	}
	return
}

// regularization returns the scalar 𝐑 for delassus estimate w.
func (p *Parameters) regularization(w float64) float64 {
	beta := p.Beta
	if beta == zero {
		beta = one
	}
	nearRigid := beta * beta / (4 * math.Pi * math.Pi) * w
	dt := p.TimeStep
	compliant := one / (dt * p.Stiffness * (dt + p.Dissipation))
	return math.Max(math.Max(nearRigid, compliant), minRegularization)
}

// bias returns v̂ for constraint function value g.
func (p *Parameters) bias(g float64) float64 {
	return -g / (p.TimeStep + p.Dissipation)
}

// fillRegularization writes the same 𝐑 in every equation and the bias of each g.
// A nil g means zero bias.
func (p *Parameters) fillRegularization(w float64, g, R, vhat []float64) {
	if len(R) != len(vhat) || g != nil && len(g) != len(R) {
		panic("regularization dimension not match constraint")
	}
	r := p.regularization(w)
	for i := range R {
		R[i] = r
		if g != nil {
			vhat[i] = p.bias(g[i])
		} else {
			vhat[i] = zero
		}
	}
}
