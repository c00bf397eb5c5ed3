// Package numdiff estimates Jacobians of vector functions by finite differences.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
package numdiff

import (
	"errors"
	"math"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use the second order accuracy central difference.
	Central
)

// ApproxSpec estimates the m×n Jacobian of 𝒇 : ℝⁿ → ℝᵐ.
// The result is stored column-wise: ∂𝒇ⱼ/∂xᵢ at diff[j+M×i],
// matching the layout of blocksparse.Dense.
type ApproxSpec struct {
	N, M int
	// Function of which to estimate the derivatives.
	// The argument x passed to this function is an n-vector.
	// The result is store in an m-vector y.
	Object func(x, y []float64)
	// Finite difference method to use.
	Method Method
	// Absolute step size to use.
	// The default step is h = eps × sign(x0) × max(1, |x0|) with eps selected by method.
	AbsStep float64

	f0, f1, f2 []float64
}

// Diff calculate approximation of derivatives by finite differences.
// The entries of x0 are perturbed during evaluation and restored on return.
func (as *ApproxSpec) Diff(x0, diff []float64) error {

	switch {
	case as.N <= 0 || as.M <= 0:
		return errors.New("negative dimensions")
	case as.Method != Forward && as.Method != Central:
		return errors.New("unknown method")
	case as.Object == nil:
		return errors.New("object function is required")
	case as.N != len(x0):
		return errors.New("invalid x0 dimensions")
	case as.N*as.M != len(diff):
		return errors.New("invalid diff dimensions")
	}

	if len(as.f0) != as.M {
		as.f0 = make([]float64, as.M)
		as.f1 = make([]float64, as.M)
		as.f2 = make([]float64, as.M)
	}

	m, fun := as.M, as.Object
	if as.Method == Forward {
		fun(x0, as.f0)
	}

	for i, x := range x0 {
		h := as.step(x)
		col := diff[m*i : m*(i+1)]
		if as.Method == Forward {
			x0[i] = x + h
			fun(x0, as.f1)
			d := 1.0 / h
			for j := range col {
				col[j] = (as.f1[j] - as.f0[j]) * d
			}
		} else {
			x0[i] = x - h
			fun(x0, as.f1)
			x0[i] = x + h
			fun(x0, as.f2)
			d := 1.0 / (2 * h)
			for j := range col {
				col[j] = (as.f2[j] - as.f1[j]) * d
			}
		}
		x0[i] = x
	}

	return nil
}

func (as *ApproxSpec) step(x float64) float64 {
	if as.AbsStep != 0 {
		if as.Method == Central {
			return math.Abs(as.AbsStep)
		}
		return as.AbsStep
	}
	eps := sqrtEps
	if as.Method == Central {
		eps = cubeEps
	}
	return math.Copysign(eps, x) * math.Max(1.0, math.Abs(x))
}
