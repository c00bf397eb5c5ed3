// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blocksparse

import (
	"fmt"
	"strings"
)

// Dense is a small dense matrix stored column-wise:
// the entry 𝐀ᵢⱼ lives at Data[i+Rows×j].
type Dense struct {
	Rows, Cols int
	Data       []float64
}

// NewDense creates a rows×cols matrix backed by data in column-major order.
// A nil data allocates a zero matrix.
func NewDense(rows, cols int, data []float64) *Dense {
	if rows < 0 || cols < 0 {
		panic("negative dimension")
	}
	if data == nil {
		data = make([]float64, rows*cols)
	}
	if len(data) != rows*cols {
		panic("data size not match dimension")
	}
	return &Dense{Rows: rows, Cols: cols, Data: data}
}

// NewDenseRows creates a matrix from row-major data, which reads naturally in literals.
func NewDenseRows(rows, cols int, data []float64) *Dense {
	if len(data) != rows*cols {
		panic("data size not match dimension")
	}
	m := NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Data[i+rows*j] = data[i*cols+j]
		}
	}
	return m
}

// Identity creates the n×n identity matrix.
func Identity(n int) *Dense {
	m := NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Data[i+n*i] = one
	}
	return m
}

// At returns the entry 𝐀ᵢⱼ.
func (m *Dense) At(i, j int) float64 {
	if uint(i) >= uint(m.Rows) || uint(j) >= uint(m.Cols) {
		panic("bound check error")
	}
	return m.Data[i+m.Rows*j]
}

// Set assigns the entry 𝐀ᵢⱼ.
func (m *Dense) Set(i, j int, v float64) {
	if uint(i) >= uint(m.Rows) || uint(j) >= uint(m.Cols) {
		panic("bound check error")
	}
	m.Data[i+m.Rows*j] = v
}

// Col returns the j-th column as a sub-slice of Data.
func (m *Dense) Col(j int) []float64 {
	if uint(j) >= uint(m.Cols) {
		panic("bound check error")
	}
	return m.Data[m.Rows*j : m.Rows*(j+1) : m.Rows*(j+1)]
}

// Reshape resizes m to rows×cols reusing the backing array when possible.
// The content after reshape is zero.
func (m *Dense) Reshape(rows, cols int) {
	n := rows * cols
	if cap(m.Data) < n {
		m.Data = make([]float64, n)
	} else {
		m.Data = m.Data[:n]
		dzero(m.Data)
	}
	m.Rows, m.Cols = rows, cols
}

// Zero fills m with zero.
func (m *Dense) Zero() {
	dzero(m.Data)
}

// Clone returns a deep copy of m.
func (m *Dense) Clone() *Dense {
	d := make([]float64, len(m.Data))
	copy(d, m.Data)
	return &Dense{Rows: m.Rows, Cols: m.Cols, Data: d}
}

// Transpose returns a new matrix 𝐀ᵀ.
func (m *Dense) Transpose() *Dense {
	t := NewDense(m.Cols, m.Rows, nil)
	for j := 0; j < m.Cols; j++ {
		for i := 0; i < m.Rows; i++ {
			t.Data[j+t.Rows*i] = m.Data[i+m.Rows*j]
		}
	}
	return t
}

// MulVecAdd computes y += α𝐀x. Inf and NaN entries of 𝐀 propagate even where x or α is zero.
func (m *Dense) MulVecAdd(alpha float64, x, y []float64) {
	if len(x) != m.Cols || len(y) != m.Rows {
		panic("vector dimension not match matrix")
	}
	// column sweep keeps the inner loop contiguous
	for j, xj := range x {
		daxpy(m.Rows, alpha*xj, m.Col(j), y)
	}
}

// MulTransVecAdd computes y += α𝐀ᵀx.
func (m *Dense) MulTransVecAdd(alpha float64, x, y []float64) {
	if len(x) != m.Rows || len(y) != m.Cols {
		panic("vector dimension not match matrix")
	}
	for j := range y {
		y[j] += alpha * ddot(m.Rows, m.Col(j), x)
	}
}

// ScaleCols multiplies the j-th column by s[j], i.e. 𝐀 ← 𝐀⋅𝚍𝚒𝚊𝚐(s).
func (m *Dense) ScaleCols(s []float64) {
	if len(s) != m.Cols {
		panic("vector dimension not match matrix")
	}
	for j, sj := range s {
		dscal(m.Rows, sj, m.Col(j))
	}
}

// String formats m row by row.
func (m *Dense) String() string {
	var sb strings.Builder
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			_, _ = fmt.Fprintf(&sb, "%12.5e", m.Data[i+m.Rows*j])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
