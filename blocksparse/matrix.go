// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package blocksparse implements a block-sparse matrix assembled from small
// dense column-major blocks.
//
// A block-sparse matrix 𝐉 is partitioned into a grid of block rows and block columns.
// Only non-zero blocks 𝐉ᵢⱼ are stored; every block row and block column must hold
// at least one block so that its size is well-defined:
//
//	    ┌                 ┐
//	    │ 𝐉₀₀   0    𝐉₀₂  │  ← block row 0 (r₀ rows)
//	𝐉 = │  0   𝐉₁₁   0    │  ← block row 1 (r₁ rows)
//	    │ 𝐉₂₀   0     0   │  ← block row 2 (r₂ rows)
//	    └                 ┘
package blocksparse

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrBlockIndex block position outside the block grid.
	ErrBlockIndex = errors.New("blocksparse: block index out of range")
	// ErrBlockShape block size disagrees with other blocks sharing its block row or column.
	ErrBlockShape = errors.New("blocksparse: inconsistent block shape")
	// ErrDuplicateBlock more than one block pushed at the same position.
	ErrDuplicateBlock = errors.New("blocksparse: duplicate block")
	// ErrEmptyBlock a block row or block column without any block.
	ErrEmptyBlock = errors.New("blocksparse: empty block row or column")
)

// Block is a non-zero block 𝐉ᵢⱼ located at block row Row and block column Col.
type Block struct {
	Row, Col int
	Value    *Dense
}

// Builder collects blocks before building a Matrix.
type Builder struct {
	blockRows, blockCols int
	blocks               []Block
}

// NewBuilder creates a builder for a blockRows×blockCols grid, reserving space for nnz blocks.
func NewBuilder(blockRows, blockCols, nnz int) *Builder {
	if blockRows < 0 || blockCols < 0 {
		panic("negative dimension")
	}
	return &Builder{
		blockRows: blockRows,
		blockCols: blockCols,
		blocks:    make([]Block, 0, max(nnz, 0)),
	}
}

// PushBlock adds block 𝐉ᵢⱼ. The matrix keeps a reference to value.
func (b *Builder) PushBlock(i, j int, value *Dense) {
	b.blocks = append(b.blocks, Block{Row: i, Col: j, Value: value})
}

// Build validates the pushed blocks and assembles the matrix.
func (b *Builder) Build() (*Matrix, error) {

	rowSize := slices.Repeat([]int{-1}, b.blockRows)
	colSize := slices.Repeat([]int{-1}, b.blockCols)
	seen := make(map[[2]int]struct{}, len(b.blocks))

	for k, blk := range b.blocks {
		i, j := blk.Row, blk.Col
		switch {
		case blk.Value == nil:
			return nil, fmt.Errorf("%w: nil block #%d", ErrBlockShape, k)
		case uint(i) >= uint(b.blockRows) || uint(j) >= uint(b.blockCols):
			return nil, fmt.Errorf("%w: block #%d at (%d,%d)", ErrBlockIndex, k, i, j)
		}
		if _, dup := seen[[2]int{i, j}]; dup {
			return nil, fmt.Errorf("%w: (%d,%d)", ErrDuplicateBlock, i, j)
		}
		seen[[2]int{i, j}] = struct{}{}

		if rowSize[i] < 0 {
			rowSize[i] = blk.Value.Rows
		} else if rowSize[i] != blk.Value.Rows {
			return nil, fmt.Errorf("%w: block (%d,%d) has %d rows, block row expects %d",
				ErrBlockShape, i, j, blk.Value.Rows, rowSize[i])
		}
		if colSize[j] < 0 {
			colSize[j] = blk.Value.Cols
		} else if colSize[j] != blk.Value.Cols {
			return nil, fmt.Errorf("%w: block (%d,%d) has %d cols, block column expects %d",
				ErrBlockShape, i, j, blk.Value.Cols, colSize[j])
		}
	}

	m := &Matrix{
		rowStart:  make([]int, b.blockRows+1),
		colStart:  make([]int, b.blockCols+1),
		blocks:    slices.Clone(b.blocks),
		rowBlocks: make([][]int, b.blockRows),
	}

	for i, s := range rowSize {
		if s < 0 {
			return nil, fmt.Errorf("%w: block row %d", ErrEmptyBlock, i)
		}
		m.rowStart[i+1] = m.rowStart[i] + s
	}
	for j, s := range colSize {
		if s < 0 {
			return nil, fmt.Errorf("%w: block column %d", ErrEmptyBlock, j)
		}
		m.colStart[j+1] = m.colStart[j] + s
	}
	for k, blk := range m.blocks {
		m.rowBlocks[blk.Row] = append(m.rowBlocks[blk.Row], k)
	}

	return m, nil
}

// Matrix is an immutable block-sparse matrix.
type Matrix struct {
	// rowStart[i] is the first scalar row of block row i; the last entry is the row count.
	rowStart []int
	// colStart[j] is the first scalar column of block column j; the last entry is the column count.
	colStart []int
	blocks   []Block
	// indices into blocks grouped by block row, in push order
	rowBlocks [][]int
}

// Rows returns the number of scalar rows.
func (m *Matrix) Rows() int { return m.rowStart[len(m.rowStart)-1] }

// Cols returns the number of scalar columns.
func (m *Matrix) Cols() int { return m.colStart[len(m.colStart)-1] }

// BlockRows returns the number of block rows.
func (m *Matrix) BlockRows() int { return len(m.rowStart) - 1 }

// BlockCols returns the number of block columns.
func (m *Matrix) BlockCols() int { return len(m.colStart) - 1 }

// RowStart returns the first scalar row of block row i.
func (m *Matrix) RowStart(i int) int { return m.rowStart[i] }

// ColStart returns the first scalar column of block column j.
func (m *Matrix) ColStart(j int) int { return m.colStart[j] }

// BlockRowSize returns the number of scalar rows in block row i.
func (m *Matrix) BlockRowSize(i int) int { return m.rowStart[i+1] - m.rowStart[i] }

// BlockColSize returns the number of scalar columns in block column j.
func (m *Matrix) BlockColSize(j int) int { return m.colStart[j+1] - m.colStart[j] }

// NumBlocks returns the number of stored non-zero blocks.
func (m *Matrix) NumBlocks() int { return len(m.blocks) }

// Block returns the k-th stored block in push order.
func (m *Matrix) Block(k int) Block { return m.blocks[k] }

// BlockRow returns the blocks of block row i in push order.
func (m *Matrix) BlockRow(i int) []Block {
	idx := m.rowBlocks[i]
	row := make([]Block, len(idx))
	for k, b := range idx {
		row[k] = m.blocks[b]
	}
	return row
}

// MultiplyAndAddTo computes y += 𝐉x.
// Non-finite entries of 𝐉 propagate into y regardless of x.
func (m *Matrix) MultiplyAndAddTo(x, y []float64) {
	if len(x) != m.Cols() || len(y) != m.Rows() {
		panic("vector dimension not match matrix")
	}
	for _, blk := range m.blocks {
		r, c := m.rowStart[blk.Row], m.colStart[blk.Col]
		v := blk.Value
		v.MulVecAdd(one, x[c:c+v.Cols], y[r:r+v.Rows])
	}
}

// MultiplyByTransposeAndAddTo computes y += 𝐉ᵀx.
func (m *Matrix) MultiplyByTransposeAndAddTo(x, y []float64) {
	if len(x) != m.Rows() || len(y) != m.Cols() {
		panic("vector dimension not match matrix")
	}
	for _, blk := range m.blocks {
		r, c := m.rowStart[blk.Row], m.colStart[blk.Col]
		v := blk.Value
		v.MulTransVecAdd(one, x[r:r+v.Rows], y[c:c+v.Cols])
	}
}

// MakeDense expands the matrix into a dense one.
func (m *Matrix) MakeDense() *Dense {
	d := NewDense(m.Rows(), m.Cols(), nil)
	for _, blk := range m.blocks {
		r, c := m.rowStart[blk.Row], m.colStart[blk.Col]
		v := blk.Value
		for j := 0; j < v.Cols; j++ {
			copy(d.Data[r+d.Rows*(c+j):r+d.Rows*(c+j)+v.Rows], v.Col(j))
		}
	}
	return d
}
