// SPDX-License-Identifier: MIT

// Package rvine is a regular-vine (R-vine) copula engine: it selects, fits,
// evaluates and simulates high-dimensional dependence models built from
// bivariate pair-copulas arranged on a sequence of nested trees.
//
// 🚀 What is in the box?
//
//	• Structures: D-vines, C-vines, random vines, matrix encoding and validation
//	• Pair-copulas: independence, Gaussian, Student t, Clayton, Gumbel, Frank, Joe
//	  with rotations, h-functions, MLE and inversion-of-tau fitting
//	• Selection: Dissmann's maximum-spanning-tree procedure with
//	  thresholding, truncation and mBICV-driven automatic search
//	• Evaluation: density, log-likelihood, Rosenblatt transform and inverse
//	• Simulation: pseudo-random, Halton and Sobol engines, batch-invariant
//	• Parallelism: deterministic row batches on a bounded worker pool
//
// ✨ Why rvine?
//
//   - Same results for any worker count, batch split or resumed engine
//   - Errors as sentinels, wrapped with context, matched by errors.Is
//   - Structured logging (zap) and Prometheus metrics through an Observer
//
// Packages:
//
//	matrix/       dense row-major matrices and input validators
//	qrng/         pseudo and quasi random engines with resumable positions
//	stats/        weighted dependence measures (tau, rho, Hoeffding, ...)
//	bicop/        bivariate copula families, fitting and selection
//	prim_kruskal/ maximum spanning trees over weighted candidate graphs
//	structure/    R-vine structure matrices, trees and proximity checks
//	parallel/     bounded worker pool with deterministic batch plans
//	vinecop/      the vine copula model: selection, density, simulation
//	config/       YAML controls and model files
//	metrics/      Prometheus recorder for selection progress
//	cmd/rvine/    command-line front end
//
// Quick example (D-vine on three variables):
//
//	1 ─ 2 ─ 3        tree 1: (1,2) (2,3)
//	 \_____/         tree 2: (1,3 | 2)
//
//	go get github.com/katalvlaran/rvine
package rvine
