// SPDX-License-Identifier: MIT

// Package prim_kruskal provides two algorithms for optimal spanning trees over an
// index-addressed, undirected, weighted candidate edge list: Prim's and Kruskal's.
//
// What & Why
//
//   - What is a spanning tree here?
//     Vertices are the integers 0..n-1; edges are Edge{From, To, Weight, ID}. A spanning tree
//     is a subset of n-1 edges connecting all vertices. The minimum tree minimizes the weight sum,
//     the maximum tree (MSTOptions.Maximize) maximizes it.
//
//   - Why it matters for vines:
//     Each level of a regular vine is a maximum spanning tree over the edges of the previous
//     level, weighted by absolute dependence. The candidate edge list already encodes the
//     proximity condition; this package only has to pick the best tree deterministically.
//
// Algorithms Provided
//
//   - Kruskal(n, edges, maximize) ([]Edge, float64, error)
//
//   - Strategy: stable-sort edges by weight, merge components with a union-find, skip edges
//     whose endpoints are already connected, stop at n-1 edges.
//
//   - Complexity: O(E log E + α(V)·E) time, O(V + E) space.
//
//   - Determinism: equal weights keep their input order.
//
//   - Prim(n, edges, root, maximize) ([]Edge, float64, error)
//
//   - Strategy: grow a single tree from root with a binary heap of crossing edges.
//
//   - Complexity: O(E log V) time, O(V + E) space.
//
//   - Determinism: equal weights pop in input order.
//
// When to Choose Which Algorithm
//
//   - Kruskal is the default: one global pass, no root to choose.
//   - Prim suits dense candidate sets where E ≫ V.
//
// Both return the same total weight; with distinct weights they return the same edge set.
//
// Error Conditions
//
//	- ErrInvalidGraph: endpoint outside [0, n) or NaN weight.
//	- ErrInvalidRoot (Prim only): root outside [0, n).
//	- ErrDisconnected: n == 0, or the candidate edges do not connect all vertices.
//	- ErrUnknownMethod (Compute only): MSTOptions.Method is neither prim nor kruskal.
//
// For examples of usage, see the example_test.go file in this package.
package prim_kruskal
