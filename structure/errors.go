// SPDX-License-Identifier: MIT

package structure

import (
	"errors"
	"fmt"
)

// ErrStructure is the umbrella error of this package; every other sentinel wraps it,
// so errors.Is(err, ErrStructure) matches any structural failure.
var ErrStructure = errors.New("structure: invalid vine structure")

var (
	// ErrNotTriangular: entries above the diagonal, a partially filled tree row,
	// or a tree slice of the wrong length.
	ErrNotTriangular = fmt.Errorf("%w: not triangular", ErrStructure)

	// ErrDimensionMismatch: a non-square matrix, or sizes that disagree with d.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrStructure)

	// ErrProximity: some edge cannot be formed from two edges of the previous tree.
	ErrProximity = fmt.Errorf("%w: proximity condition violated", ErrStructure)

	// ErrInvalidVariable: a label outside 1..d, a non-integer entry, a non-permutation
	// diagonal, or a repeated or out-of-order label within a column.
	ErrInvalidVariable = fmt.Errorf("%w: invalid variable", ErrStructure)

	// ErrOutOfRange: a (tree, edge) index outside the stored trees.
	ErrOutOfRange = fmt.Errorf("%w: index out of range", ErrStructure)
)
