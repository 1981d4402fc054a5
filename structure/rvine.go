// SPDX-License-Identifier: MIT

package structure

import (
	"fmt"
	"math"

	"github.com/katalvlaran/rvine/matrix"
)

// RVine is a validated regular-vine structure on d variables labeled 1..d.
//
// Column e (0 ≤ e ≤ d-2) of the structure matrix holds the edges whose first
// conditioned variable is order[e]; tree t (0-based) contributes the edge
//
//	conditioned  {order[e], s[t][e]}
//	conditioning {s[0][e], ..., s[t-1][e]}
//
// for e = 0..d-2-t. Only trees 0..trunc-1 are stored; deeper trees are independence.
// RVine values are immutable and safe for concurrent use.
type RVine struct {
	d     int
	order []int
	s     [][]int // s[t][e], 1-based labels
	// partner[t][e] locates the second conditional input of edge (t, e), t ≥ 1
	partner [][]Partner
}

// Partner locates F(s[t][e] | s[0..t-1][e]) among the outputs of tree t-1:
// it is produced by the edge of column Col in tree t-1, as the h-function of its
// first conditioned variable (Direct) or of its second one (!Direct).
type Partner struct {
	Col    int
	Direct bool
}

// New validates and returns the structure with diagonal order and tree entries s,
// where len(s) is the truncation level and len(s[t]) must be d-1-t.
func New(order []int, s [][]int) (*RVine, error) {
	rv := &RVine{
		d:     len(order),
		order: append([]int(nil), order...),
		s:     make([][]int, len(s)),
	}
	for t := range s {
		rv.s[t] = append([]int(nil), s[t]...)
	}
	if err := rv.validate(); err != nil {
		return nil, err
	}

	return rv, nil
}

// FromMatrix decodes the lower-triangular structure matrix m:
// m[e][e] = order[e], m[d-1-t][e] = s[t][e], zeros above the diagonal
// and in truncated tree rows.
//
// Steps:
//  1. Validate shape (square) and integrality.
//  2. Read the diagonal and tree rows bottom-up; the first all-zero row ends the stored trees.
//  3. Validate labels and the proximity condition.
func FromMatrix(m *matrix.Dense) (*RVine, error) {
	if err := matrix.ValidateNotNil(m); err != nil {
		return nil, fmt.Errorf("FromMatrix: %w: %w", ErrDimensionMismatch, err)
	}
	d := m.Rows()
	if m.Cols() != d {
		return nil, fmt.Errorf("FromMatrix: %dx%d matrix is not square: %w", d, m.Cols(), ErrDimensionMismatch)
	}

	// 1. integer labels, zeros above the diagonal
	lab := make([][]int, d)
	var i, j int
	for i = 0; i < d; i++ {
		lab[i] = make([]int, d)
		row := m.RowView(i)
		for j = 0; j < d; j++ {
			v := row[j]
			if v != math.Trunc(v) || v < 0 || v > float64(d) {
				return nil, fmt.Errorf("FromMatrix: entry (%d,%d) = %g: %w", i+1, j+1, v, ErrInvalidVariable)
			}
			if j > i && v != 0 {
				return nil, fmt.Errorf("FromMatrix: entry (%d,%d) = %g above the diagonal: %w", i+1, j+1, v, ErrNotTriangular)
			}
			lab[i][j] = int(v)
		}
	}

	// 2. diagonal and tree rows
	order := make([]int, d)
	for j = 0; j < d; j++ {
		order[j] = lab[j][j]
	}
	var s [][]int
	var t int
	for t = 0; t < d-1; t++ {
		row := lab[d-1-t][:d-1-t]
		zeros := 0
		for _, v := range row {
			if v == 0 {
				zeros++
			}
		}
		if zeros == len(row) {
			break
		}
		if zeros > 0 {
			return nil, fmt.Errorf("FromMatrix: tree %d is partially filled: %w", t+1, ErrNotTriangular)
		}
		s = append(s, append([]int(nil), row...))
	}
	// rows beyond the first empty tree must stay empty
	for tt := t; tt < d-1; tt++ {
		for _, v := range lab[d-1-tt][:d-1-tt] {
			if v != 0 {
				return nil, fmt.Errorf("FromMatrix: tree %d follows an empty tree: %w", tt+1, ErrNotTriangular)
			}
		}
	}

	return New(order, s)
}

// ToMatrix encodes rv as its d×d lower-triangular structure matrix.
func (rv *RVine) ToMatrix() *matrix.Dense {
	m, _ := matrix.NewDense(rv.d, rv.d) // d ≥ 1 by validation
	for e := 0; e < rv.d; e++ {
		_ = m.Set(e, e, float64(rv.order[e]))
	}
	for t, row := range rv.s {
		for e, v := range row {
			_ = m.Set(rv.d-1-t, e, float64(v))
		}
	}

	return m
}

// Dim returns the number of variables d.
func (rv *RVine) Dim() int { return rv.d }

// Order returns a copy of the diagonal (variable order).
func (rv *RVine) Order() []int { return append([]int(nil), rv.order...) }

// TruncLevel returns the number of stored (non-independence) trees.
func (rv *RVine) TruncLevel() int { return len(rv.s) }

// NumEdges returns the number of edges of tree t (d-1-t), 0 outside the stored trees.
func (rv *RVine) NumEdges(t int) int {
	if t < 0 || t >= len(rv.s) {
		return 0
	}

	return rv.d - 1 - t
}

// At returns s[t][e], the second conditioned variable of edge (t, e).
func (rv *RVine) At(t, e int) (int, error) {
	if err := rv.checkEdge("At", t, e); err != nil {
		return 0, err
	}

	return rv.s[t][e], nil
}

// ConditionedSet returns {order[e], s[t][e]} for edge (t, e).
func (rv *RVine) ConditionedSet(t, e int) ([2]int, error) {
	if err := rv.checkEdge("ConditionedSet", t, e); err != nil {
		return [2]int{}, err
	}

	return [2]int{rv.order[e], rv.s[t][e]}, nil
}

// ConditioningSet returns s[0..t-1][e] for edge (t, e), in tree order.
func (rv *RVine) ConditioningSet(t, e int) ([]int, error) {
	if err := rv.checkEdge("ConditioningSet", t, e); err != nil {
		return nil, err
	}
	out := make([]int, t)
	for k := 0; k < t; k++ {
		out[k] = rv.s[k][e]
	}

	return out, nil
}

// Partner returns where edge (t, e), t ≥ 1, reads its second input in tree t-1.
// For t == 0 it returns the column whose diagonal is s[0][e], with Direct set.
func (rv *RVine) Partner(t, e int) (Partner, error) {
	if err := rv.checkEdge("Partner", t, e); err != nil {
		return Partner{}, err
	}

	return rv.partner[t][e], nil
}

// Truncate returns rv with only the first k trees kept. k ≥ TruncLevel returns rv
// unchanged, so truncation is idempotent. k must lie in [0, d-1].
func (rv *RVine) Truncate(k int) (*RVine, error) {
	if k < 0 || k > rv.d-1 {
		return nil, fmt.Errorf("Truncate(%d) with d=%d: %w", k, rv.d, ErrOutOfRange)
	}
	if k >= len(rv.s) {
		return rv, nil
	}

	return &RVine{d: rv.d, order: rv.order, s: rv.s[:k], partner: rv.partner[:k]}, nil
}

// Equal reports whether a and b encode the same structure matrix.
func Equal(a, b *RVine) bool {
	if a.d != b.d || len(a.s) != len(b.s) {
		return false
	}
	for e := range a.order {
		if a.order[e] != b.order[e] {
			return false
		}
	}
	for t := range a.s {
		for e := range a.s[t] {
			if a.s[t][e] != b.s[t][e] {
				return false
			}
		}
	}

	return true
}

// String renders the structure matrix.
func (rv *RVine) String() string { return rv.ToMatrix().String() }

func (rv *RVine) checkEdge(method string, t, e int) error {
	if t < 0 || t >= len(rv.s) || e < 0 || e >= rv.d-1-t {
		return fmt.Errorf("%s(%d, %d) with d=%d, %d trees: %w", method, t, e, rv.d, len(rv.s), ErrOutOfRange)
	}

	return nil
}
