// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blocksparse

const (
	zero = 0.0
	one  = 1.0
)

// daxpy computes dy += da × dx over the leading n entries.
// A zero da is not skipped, so non-finite entries of dx still reach dy.
func daxpy(n int, da float64, dx, dy []float64) {
	if n <= 0 {
		return
	}
	if n > len(dx) || n > len(dy) {
		panic("bound check error")
	}
	m := n % 4
	for i := 0; i < m; i++ {
		dy[i] += da * dx[i]
	}
	for i := m; i < n; i += 4 {
		x := dx[i : i+4 : i+4]
		y := dy[i : i+4 : i+4]
		y[0] += da * x[0]
		y[1] += da * x[1]
		y[2] += da * x[2]
		y[3] += da * x[3]
	}
}

// ddot computes the dot product of the leading n entries.
func ddot(n int, dx, dy []float64) (dot float64) {
	if n <= 0 {
		return zero
	}
	if n > len(dx) || n > len(dy) {
		panic("bound check error")
	}
	m := n % 5
	for i := 0; i < m; i++ {
		dot += dx[i] * dy[i]
	}
	for i := m; i < n; i += 5 {
		x := dx[i : i+5 : i+5]
		y := dy[i : i+5 : i+5]
		dot += x[0]*y[0] + x[1]*y[1] + x[2]*y[2] + x[3]*y[3] + x[4]*y[4]
	}
	return dot
}

// dscal scales the leading n entries by da.
func dscal(n int, da float64, dx []float64) {
	if n <= 0 {
		return
	}
	if n > len(dx) {
		panic("bound check error")
	}
	for i := range dx[:n] {
		dx[i] *= da
	}
}

// dzero fills dx with zero.
func dzero(dx []float64) {
	for i := range dx {
		dx[i] = zero
	}
}
