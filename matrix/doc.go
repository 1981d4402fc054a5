// SPDX-License-Identifier: MIT

// Package matrix provides the row-major Dense container used across rvine for
// samples on the unit hypercube, simulated draws and quasi-random point sets.
//
// What & Why
//
//   - Dense stores r×c float64 values in one flat slice (cache friendly, one allocation).
//   - Public indexers (At/Set) never panic: they return ErrOutOfRange.
//   - Hot loops inside rvine use RowView to read a row without copying.
//
// Validators
//
//   - ValidateNotNil, ValidateShape, ValidateUnitCube, ValidateWeights centralize the
//     guard logic that vinecop and bicop run before any fitting or evaluation.
//
// Errors
//
//	ErrNilMatrix, ErrInvalidDimensions, ErrOutOfRange, ErrDimensionMismatch,
//	ErrNaNInf, ErrOutOfUnitCube, ErrBadWeights. Match them with errors.Is.
//
// Complexity: all accessors are O(1); Clone, Col and String are O(r·c).
package matrix
