// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//  - Provide a single, canonical source of truth for the guards run before fitting
//    or evaluating a vine: nil, shape, finiteness, unit-cube range, weights.
//  - Return wrapped sentinel errors so call sites can match with errors.Is.
//
// Determinism & Performance:
//  - All checks are pure, deterministic and allocate nothing.

package matrix

import (
	"fmt"
	"math"
)

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil ensures the matrix reference is non-nil.
// Complexity: O(1).
func ValidateNotNil(m Matrix) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}
	if d, ok := m.(*Dense); ok && d == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix) // typed nil inside the interface
	}

	return nil
}

// ValidateShape ensures m has exactly cols columns (rows unconstrained, but > 0).
// Complexity: O(1).
func ValidateShape(m Matrix, cols int) error {
	if err := ValidateNotNil(m); err != nil {
		return validatorErrorf("ValidateShape", err)
	}
	if m.Rows() == 0 || m.Cols() != cols {
		return validatorErrorf(fmt.Sprintf("ValidateShape: got %dx%d, want nx%d", m.Rows(), m.Cols(), cols), ErrDimensionMismatch)
	}

	return nil
}

// ValidateUnitCube ensures every entry is finite and lies in [0,1].
// The first offending cell is reported (1-based row/column).
// Complexity: O(r*c).
func ValidateUnitCube(m *Dense) error {
	if m == nil {
		return validatorErrorf("ValidateUnitCube", ErrNilMatrix)
	}
	for idx, v := range m.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validatorErrorf(fmt.Sprintf("ValidateUnitCube: row %d, column %d", idx/m.c+1, idx%m.c+1), ErrNaNInf)
		}
		if v < 0 || v > 1 {
			return validatorErrorf(fmt.Sprintf("ValidateUnitCube: row %d, column %d", idx/m.c+1, idx%m.c+1), ErrOutOfUnitCube)
		}
	}

	return nil
}

// ValidateWeights accepts an empty slice (meaning unit weights) or a slice of length n
// with finite, non-negative values and a positive sum.
// Complexity: O(n).
func ValidateWeights(w []float64, n int) error {
	if len(w) == 0 {
		return nil
	}
	if len(w) != n {
		return validatorErrorf(fmt.Sprintf("ValidateWeights: got %d weights for %d rows", len(w), n), ErrDimensionMismatch)
	}
	var sum float64
	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return validatorErrorf("ValidateWeights", ErrBadWeights)
		}
		sum += v
	}
	if sum <= 0 {
		return validatorErrorf("ValidateWeights", ErrBadWeights)
	}

	return nil
}
