// SPDX-License-Identifier: MIT

// Package structure encodes the tree sequence of a regular vine (R-vine) as a
// lower-triangular integer matrix and validates it.
//
// What & Why
//
//   - Encoding: the diagonal is the variable order; row d-1-t of column e names the
//     second conditioned variable of edge e in tree t, whose conditioning set is the
//     entries below it. Truncated trees are zero rows.
//
//     order = diag(M)           edge (t, e) = {M[e][e], M[d-1-t][e] | M[d-t..d-1][e]}
//
//   - Validation (New, FromMatrix) enforces the proximity condition: each edge of tree
//     t ≥ 1 joins two edges of tree t-1 sharing a node. Along the way every edge learns
//     its Partner, the tree-(t-1) column producing its second conditional input, which is
//     what density and simulation recursions consume.
//   - Trees (set form) and FromTrees convert between the matrix and explicit edges;
//     Candidates/SpanningTree enumerate and choose admissible next trees, shared by
//     structure selection, CompleteTrees and Random.
//
// Invariants
//
//   - Tree t has exactly d-1-t edges.
//   - Truncate(k) is idempotent and never changes trees < k.
//   - FromMatrix(rv.ToMatrix()) reproduces rv.
//
// Errors
//
//	All sentinels wrap ErrStructure: ErrNotTriangular, ErrDimensionMismatch,
//	ErrProximity, ErrInvalidVariable, ErrOutOfRange.
package structure
