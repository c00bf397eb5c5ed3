// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

import (
	"fmt"
	"slices"
)

// IndexPermutation is an injective map from a compressed domain [0,k) into an original domain [0,n), k ≤ n.
// Original indices outside the image do not participate.
type IndexPermutation struct {
	// forward[k] is the original index of compressed index k
	forward []int
	// inverse[i] is the compressed index of original index i, or -1
	inverse []int
}

// NewIndexPermutation creates the permutation whose k-th compressed index maps to indices[k].
// The indices must be distinct and in [0,n).
func NewIndexPermutation(n int, indices []int) (*IndexPermutation, error) {
	if n < 0 || len(indices) > n {
		return nil, fmt.Errorf("%w: %d indices in domain of size %d", ErrPermutation, len(indices), n)
	}
	inverse := slices.Repeat([]int{-1}, n)
	for k, i := range indices {
		switch {
		case uint(i) >= uint(n):
			return nil, fmt.Errorf("%w: index %d out of [0,%d)", ErrPermutation, i, n)
		case inverse[i] >= 0:
			return nil, fmt.Errorf("%w: index %d repeated", ErrPermutation, i)
		}
		inverse[i] = k
	}
	return &IndexPermutation{forward: slices.Clone(indices), inverse: inverse}, nil
}

// DomainSize returns the size n of the original domain.
func (p *IndexPermutation) DomainSize() int { return len(p.inverse) }

// PermutedDomainSize returns the size k of the compressed domain.
func (p *IndexPermutation) PermutedDomainSize() int { return len(p.forward) }

// Forward returns the original index of compressed index k.
func (p *IndexPermutation) Forward(k int) int {
	if uint(k) >= uint(len(p.forward)) {
		panic("compressed index out of range")
	}
	return p.forward[k]
}

// Inverse returns the compressed index of original index i,
// or (-1, false) when i does not participate.
func (p *IndexPermutation) Inverse(i int) (int, bool) {
	if uint(i) >= uint(len(p.inverse)) {
		panic("original index out of range")
	}
	k := p.inverse[i]
	return k, k >= 0
}

// Participates reports whether original index i has a compressed index.
func (p *IndexPermutation) Participates(i int) bool {
	_, ok := p.Inverse(i)
	return ok
}

// Apply gathers the participating entries of x into xp: xp[k] = x[Forward(k)].
func (p *IndexPermutation) Apply(x, xp []float64) {
	if len(x) != len(p.inverse) || len(xp) != len(p.forward) {
		panic("vector dimension not match permutation")
	}
	for k, i := range p.forward {
		xp[k] = x[i]
	}
}

// ApplyInverse scatters xp back into x: x[Forward(k)] = xp[k].
// Entries of x that do not participate are left untouched.
func (p *IndexPermutation) ApplyInverse(xp, x []float64) {
	if len(x) != len(p.inverse) || len(xp) != len(p.forward) {
		panic("vector dimension not match permutation")
	}
	for k, i := range p.forward {
		x[i] = xp[k]
	}
}

// Expand maps every original index i onto a block of sizes[i] consecutive indices,
// turning a permutation of cliques into the permutation of their generalized velocities.
func (p *IndexPermutation) Expand(sizes []int) *IndexPermutation {
	if len(sizes) != len(p.inverse) {
		panic("block sizes not match permutation")
	}

	start := make([]int, len(sizes)+1)
	for i, s := range sizes {
		if s < 0 {
			panic("negative block size")
		}
		start[i+1] = start[i] + s
	}

	n := start[len(sizes)]
	e := &IndexPermutation{
		forward: make([]int, 0, n),
		inverse: slices.Repeat([]int{-1}, n),
	}
	for _, i := range p.forward {
		for j := start[i]; j < start[i+1]; j++ {
			e.inverse[j] = len(e.forward)
			e.forward = append(e.forward, j)
		}
	}
	return e
}
