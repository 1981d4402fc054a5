// SPDX-License-Identifier: MIT

// Package prim_kruskal provides an implementation of Prim's spanning-tree algorithm.
// It grows the tree from a specified root vertex using a binary heap of candidate edges.
package prim_kruskal

import (
	"container/heap"
	"fmt"
)

// Prim computes the minimum (or, with maximize, maximum) spanning tree of the undirected
// weighted graph with vertices 0..n-1 by growing outwards from root using a heap.
//
// Error Conditions:
//   - ErrInvalidGraph : an endpoint outside [0, n) or a NaN weight.
//   - ErrInvalidRoot  : root outside [0, n).
//   - ErrDisconnected : if n == 0, or n > 1 but the edges do not connect all vertices.
//
// Steps:
//  1. Validate; n == 0 → ErrDisconnected; n == 1 with root 0 → empty tree.
//  2. Build adjacency lists; each undirected edge is visible from both endpoints.
//  3. Mark root visited and push its incident edges.
//  4. While the heap is not empty and the tree has < n-1 edges:
//     a. Pop the best edge (ties: lower input position first).
//     b. Skip it if its far endpoint is visited.
//     c. Otherwise add it, mark the endpoint, push its edges to unvisited neighbors.
//  5. Fewer than n-1 edges → ErrDisconnected.
//
// Returned edges keep their input orientation (From/To as given).
// Complexity: O(E log V) time, O(V + E) memory.
func Prim(n int, edges []Edge, root int, maximize bool) ([]Edge, float64, error) {
	// 1. Validate input and handle trivial sizes.
	if err := validate(n, edges); err != nil {
		return nil, 0, err
	}
	if n == 0 {
		return nil, 0, ErrDisconnected
	}
	if root < 0 || root >= n {
		return nil, 0, fmt.Errorf("Prim: root %d with %d vertices: %w", root, n, ErrInvalidRoot)
	}
	if n == 1 {
		return []Edge{}, 0, nil
	}

	// 2. Adjacency: vertex → positions into edges.
	adj := make([][]int, n)
	for i, e := range edges {
		if e.From == e.To {
			continue
		}
		adj[e.From] = append(adj[e.From], i)
		adj[e.To] = append(adj[e.To], i)
	}

	// 3. Seed the heap from root.
	visited := make([]bool, n)
	tree := make([]Edge, 0, n-1)
	var total float64
	pq := &edgePQ{edges: edges, maximize: maximize}
	heap.Init(pq)

	push := func(v int) {
		for _, i := range adj[v] {
			if !visited[other(edges[i], v)] {
				heap.Push(pq, candidate{pos: i, to: other(edges[i], v)})
			}
		}
	}
	visited[root] = true
	push(root)

	// 4. Main loop: extract the best edge and expand the tree.
	for pq.Len() > 0 && len(tree) < n-1 {
		c := heap.Pop(pq).(candidate)
		if visited[c.to] {
			continue
		}
		visited[c.to] = true
		tree = append(tree, edges[c.pos])
		total += edges[c.pos].Weight
		push(c.to)
	}

	// 5. Fewer than n-1 edges means the graph was disconnected.
	if len(tree) < n-1 {
		return nil, 0, ErrDisconnected
	}

	return tree, total, nil
}

// other returns the endpoint of e that is not v.
func other(e Edge, v int) int {
	if e.From == v {
		return e.To
	}

	return e.From
}

// candidate is a heap entry: the edge position and the vertex it would add.
type candidate struct {
	pos int
	to  int
}

// edgePQ implements heap.Interface over candidates ordered by edge weight,
// then by input position for determinism.
type edgePQ struct {
	items    []candidate
	edges    []Edge
	maximize bool
}

// Len returns the number of candidates in the priority queue.
// Complexity: O(1).
func (pq *edgePQ) Len() int { return len(pq.items) }

// Less orders by weight under the objective, then by input position.
// Complexity: O(1).
func (pq *edgePQ) Less(i, j int) bool {
	wi, wj := pq.edges[pq.items[i].pos].Weight, pq.edges[pq.items[j].pos].Weight
	if wi != wj {
		return better(wi, wj, pq.maximize)
	}

	return pq.items[i].pos < pq.items[j].pos
}

// Swap swaps elements at indices i and j.
// Complexity: O(1).
func (pq *edgePQ) Swap(i, j int) { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }

// Push appends a candidate; called by heap.Push.
func (pq *edgePQ) Push(x interface{}) { pq.items = append(pq.items, x.(candidate)) }

// Pop removes and returns the last candidate; called by heap.Pop.
func (pq *edgePQ) Pop() interface{} {
	old := pq.items
	n := len(old)
	c := old[n-1]
	pq.items = old[:n-1]

	return c
}
