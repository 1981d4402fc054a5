// SPDX-License-Identifier: MIT

// Package qrng is the deterministic point generator behind vine simulation and
// quasi-Monte-Carlo distribution functions.
//
// What & Why
//
//   - Engine is a value, not a global: {Kind, Dim, Seed, Pos}. Calls such as Next
//     return the advanced Engine, so callers can hand disjoint index ranges to
//     parallel batches and get the same concatenated output for any batch count.
//   - KindHalton: generalized Halton sequence with seeded linear digit scrambling.
//   - KindSobol: Sobol sequence (primitive polynomials enumerated on the fly) with a
//     seeded digital shift; used above HaltonMaxDim when KindAuto is requested.
//   - KindPseudo: math/rand streams, one per ChunkSize rows, seeded through the
//     SplitMix64 mixer in DeriveSeed.
//
// Determinism
//
//   - Same Engine fields ⇒ bit-identical points on every platform.
//   - Generator.Fill addresses points by absolute index; there is no shared cursor.
//
// Errors
//
//	ErrBadDimension, ErrUnknownKind.
package qrng
