// SPDX-License-Identifier: MIT

// Package stats provides rank transforms and the bivariate dependence measures
// that drive vine structure selection.
//
// Measures (all rank based, so invariant to monotone transforms of the margins):
//
//   - Tau       Kendall's tau-b; O(n log n) unweighted (Knight), O(n²) weighted.
//   - Rho       Spearman's rho via gonum/stat.Correlation on ranks.
//   - Hoeffding Hoeffding's D, O(n²), detects non-monotone dependence.
//   - MaxCor    maximal correlation by alternating conditional expectations on rank bins.
//   - Beta      Blomqvist's beta (quadrant concordance around the medians).
//
// Degenerate input (constant columns, too few rows) yields NaN; callers decide
// whether that is a fit degeneracy or simply zero weight.
package stats
