// SPDX-License-Identifier: MIT

// Package prim_kruskal provides an implementation of Kruskal's spanning-tree algorithm.
// It takes an index-addressed undirected edge list and produces the edges of an optimal spanning tree.
package prim_kruskal

import (
	"sort"
)

// Kruskal computes the minimum (or, with maximize, maximum) spanning tree of the undirected
// weighted graph with vertices 0..n-1 and the candidate edges.
// It uses a disjoint-set (union-find) data structure with path compression and union by rank.
//
// Error Conditions:
//   - ErrInvalidGraph : an endpoint outside [0, n) or a NaN weight.
//   - ErrDisconnected : if n == 0, or n > 1 but the edges do not connect all vertices.
//
// Steps:
//  1. Validate the edge list; n == 0 → ErrDisconnected, n == 1 → empty tree.
//  2. Drop self-loops and stable-sort the rest by weight (ascending, or descending with maximize),
//     so equal weights keep their input order.
//  3. Initialize DSU arrays parent[] and rank[].
//  4. Loop over sorted edges: if find(u) != find(v), union(u,v) and include the edge.
//  5. Once the tree has n-1 edges, break. After the loop, fewer than n-1 edges → ErrDisconnected.
//
// Complexity: O(E log E + α(V)·E) ≈ O(E log V). Memory: O(E + V).
func Kruskal(n int, edges []Edge, maximize bool) ([]Edge, float64, error) {
	// 1. Validate input and handle trivial sizes.
	if err := validate(n, edges); err != nil {
		return nil, 0, err
	}
	if n == 0 {
		return nil, 0, ErrDisconnected
	}
	if n == 1 {
		return []Edge{}, 0, nil
	}

	// 2. Filter self-loops, then sort by weight with deterministic tie-breaking.
	sorted := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.From == e.To {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return better(sorted[i].Weight, sorted[j].Weight, maximize)
	})

	// 3. Initialize disjoint-set (union-find) structures.
	parent := make([]int, n)
	rank := make([]int, n)
	for v := range parent {
		parent[v] = v
	}

	// Iterative find with path compression to avoid deep recursion.
	find := func(u int) int {
		for parent[u] != u {
			parent[u] = parent[parent[u]]
			u = parent[u]
		}

		return u
	}

	// Union by rank merges two disjoint sets.
	union := func(ru, rv int) {
		if rank[ru] < rank[rv] {
			parent[ru] = rv
			return
		}
		parent[rv] = ru
		if rank[ru] == rank[rv] {
			rank[ru]++
		}
	}

	// 4. Build the tree by iterating over sorted edges.
	var (
		tree  = make([]Edge, 0, n-1)
		total float64
	)
	for _, e := range sorted {
		ru, rv := find(e.From), find(e.To)
		if ru == rv {
			continue // would close a cycle
		}
		union(ru, rv)
		tree = append(tree, e)
		total += e.Weight
		if len(tree) == n-1 {
			break
		}
	}

	// 5. Fewer than n-1 edges means the candidate graph was disconnected.
	if len(tree) < n-1 {
		return nil, 0, ErrDisconnected
	}

	return tree, total, nil
}
