// SPDX-License-Identifier: MIT

// Package vinecop fits and evaluates regular vine copulas.
//
// A Vinecop is a structure.RVine plus one bicop.Bicop per edge of every
// non-truncated tree. It is either hand-specified (New, NewIndep) or fitted
// (Select, Fit); both share the same evaluation contracts.
//
// Selection
//
//   - Select learns the trees greedily (Dissmann): each tree is a maximum spanning
//     tree over the admissible candidates, weighted by a dependence measure of the
//     previous tree's h-function outputs. Pair copulas come from bicop.Select.
//   - Controls.TruncLevel and Controls.Threshold are sum types: fixed or automatic.
//     Automatic truncation stops once one more tree fails to lower mBICV; the
//     automatic threshold is a bounded sequential search (MaxSelectionEvals).
//   - Degenerate edges become independence copulas and are reported through
//     Diagnostics; only configuration and data errors are returned.
//
// Evaluation
//
//   - PDF, LogLik, Rosenblatt: forward recursion through the trees.
//   - Simulate, InverseRosenblatt: inverse Rosenblatt transform from the deepest tree.
//   - CDF: share of quasi-Monte-Carlo vine draws in the orthant [0, u].
//
// Determinism
//
//	Row work runs in fixed batches of qrng.ChunkSize and edge work in per-edge
//	slots on a parallel.Pool. Random points are addressed by absolute index through
//	an explicit qrng.Engine, so every result is identical for any NumThreads.
package vinecop
