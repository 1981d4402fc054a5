// SPDX-License-Identifier: MIT

package structure

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/katalvlaran/rvine/prim_kruskal"
)

// Edge is one edge of a vine tree in set form.
//
// Nodes are the two endpoints: variable indices 0..d-1 in tree 0, positions in the
// previous tree's edge slice otherwise.
type Edge struct {
	Conditioned  [2]int // 1-based labels
	Conditioning []int  // ascending 1-based labels
	Nodes        [2]int
}

// Full returns the ascending union of the conditioned and conditioning sets.
func (e Edge) Full() []int {
	out := make([]int, 0, len(e.Conditioning)+2)
	out = append(out, e.Conditioned[0], e.Conditioned[1])
	out = append(out, e.Conditioning...)
	sort.Ints(out)

	return out
}

// String renders the edge as "a,b" or "a,b|c,d".
func (e Edge) String() string {
	s := fmt.Sprintf("%d,%d", e.Conditioned[0], e.Conditioned[1])
	for i, c := range e.Conditioning {
		sep := ","
		if i == 0 {
			sep = "|"
		}
		s += fmt.Sprintf("%s%d", sep, c)
	}

	return s
}

// Placement maps an input tree edge to its column in the structure matrix.
// Flipped means the edge's conditioned pair is stored in reverse, (Conditioned[1],
// Conditioned[0]), so a copula fitted in the edge's own orientation must be flipped.
type Placement struct {
	Col     int
	Flipped bool
}

// Candidates lists every edge admissible in the tree after prev: in tree 0 (prev nil)
// all variable pairs of 1..d, otherwise all pairs of prev edges sharing a node.
// Candidates are ordered by (Nodes[0], Nodes[1]) ascending.
//
// For joined edges A (Nodes[0]) and B (Nodes[1]) the new conditioning set is
// Full(A) ∩ Full(B); Conditioned[0] comes from A and Conditioned[1] from B.
// Complexity: O(m² · d) for m = len(prev).
func Candidates(d int, prev []Edge) []Edge {
	if prev == nil {
		out := make([]Edge, 0, d*(d-1)/2)
		for i := 0; i < d; i++ {
			for j := i + 1; j < d; j++ {
				out = append(out, Edge{Conditioned: [2]int{i + 1, j + 1}, Nodes: [2]int{i, j}})
			}
		}
		return out
	}

	var out []Edge
	for i := range prev {
		for j := i + 1; j < len(prev); j++ {
			if !shareNode(prev[i].Nodes, prev[j].Nodes) {
				continue
			}
			a, b, common, ok := split(prev[i].Full(), prev[j].Full())
			if !ok {
				continue
			}
			out = append(out, Edge{Conditioned: [2]int{a, b}, Conditioning: common, Nodes: [2]int{i, j}})
		}
	}

	return out
}

// SpanningTree returns the positions (ascending) of the candidates forming a
// maximum-weight spanning tree over n nodes; n is d for tree 0 and len(prev) otherwise.
func SpanningTree(n int, cands []Edge, weights []float64, method string) ([]int, error) {
	if len(weights) != len(cands) {
		return nil, fmt.Errorf("SpanningTree: %d weights for %d candidates: %w", len(weights), len(cands), ErrDimensionMismatch)
	}
	edges := make([]prim_kruskal.Edge, len(cands))
	for i, c := range cands {
		edges[i] = prim_kruskal.Edge{From: c.Nodes[0], To: c.Nodes[1], Weight: weights[i], ID: i}
	}
	opts := prim_kruskal.NewOptions(prim_kruskal.WithMethod(method), prim_kruskal.WithMaximum())
	tree, _, err := prim_kruskal.Compute(n, edges, opts)
	if err != nil {
		return nil, fmt.Errorf("SpanningTree: %w: %w", ErrProximity, err)
	}
	out := make([]int, len(tree))
	for i, e := range tree {
		out[i] = e.ID
	}
	sort.Ints(out)

	return out, nil
}

// CompleteTrees extends trees to the full d-1 levels, every added level being the
// first admissible spanning tree (all weights equal, input-order ties).
func CompleteTrees(d int, trees [][]Edge) ([][]Edge, error) {
	out := append([][]Edge(nil), trees...)
	for t := len(out); t < d-1; t++ {
		var prev []Edge
		n := d
		if t > 0 {
			prev = out[t-1]
			n = len(prev)
		}
		cands := Candidates(d, prev)
		idx, err := SpanningTree(n, cands, make([]float64, len(cands)), prim_kruskal.MethodKruskal)
		if err != nil {
			return nil, fmt.Errorf("CompleteTrees: tree %d: %w", t+1, err)
		}
		out = append(out, pick(cands, idx))
	}

	return out, nil
}

// Random returns a random regular vine on d variables: each tree is a maximum
// spanning tree over admissible candidates with uniform random weights from rng.
func Random(d int, rng *rand.Rand) (*RVine, error) {
	if d < 1 {
		return nil, fmt.Errorf("Random(%d): %w", d, ErrDimensionMismatch)
	}
	trees := make([][]Edge, 0, d-1)
	for t := 0; t < d-1; t++ {
		var prev []Edge
		n := d
		if t > 0 {
			prev = trees[t-1]
			n = len(prev)
		}
		cands := Candidates(d, prev)
		w := make([]float64, len(cands))
		for i := range w {
			w[i] = rng.Float64()
		}
		idx, err := SpanningTree(n, cands, w, prim_kruskal.MethodKruskal)
		if err != nil {
			return nil, fmt.Errorf("Random: tree %d: %w", t+1, err)
		}
		trees = append(trees, pick(cands, idx))
	}
	rv, _, err := FromTrees(d, trees)

	return rv, err
}

// FromTrees converts a full tree sequence (len(trees) == d-1, tree t with d-1-t edges)
// into its structure matrix, and reports where each input edge landed.
//
// Steps (column j = 0..d-2):
//  1. Tree d-2-j has exactly one unused edge {x, y | D}; set order[j] = x, s[d-2-j][j] = y.
//  2. Walk down the trees: in tree t find the unused edge with x conditioned and full set
//     {x} ∪ D; its other conditioned variable z becomes s[t][j] and leaves D.
//  3. The last label not on the diagonal becomes order[d-1].
//
// The result is validated by New, so an inconsistent sequence fails with ErrProximity.
func FromTrees(d int, trees [][]Edge) (*RVine, [][]Placement, error) {
	if d < 1 || len(trees) != d-1 {
		return nil, nil, fmt.Errorf("FromTrees: %d trees for d=%d: %w", len(trees), d, ErrDimensionMismatch)
	}
	for t, tree := range trees {
		if len(tree) != d-1-t {
			return nil, nil, fmt.Errorf("FromTrees: tree %d has %d edges, want %d: %w", t+1, len(tree), d-1-t, ErrNotTriangular)
		}
	}

	order := make([]int, d)
	s := make([][]int, d-1)
	place := make([][]Placement, d-1)
	used := make([][]bool, d-1)
	for t := range trees {
		s[t] = make([]int, d-1-t)
		place[t] = make([]Placement, d-1-t)
		used[t] = make([]bool, d-1-t)
	}
	onDiag := make([]bool, d+1)

	var col, t int
	for col = 0; col < d-1; col++ {
		// 1. top edge of this column
		tmax := d - 2 - col
		top := -1
		for i := range trees[tmax] {
			if !used[tmax][i] {
				top = i
				break
			}
		}
		if top < 0 {
			return nil, nil, fmt.Errorf("FromTrees: column %d: tree %d exhausted: %w", col+1, tmax+1, ErrProximity)
		}
		e := trees[tmax][top]
		x := e.Conditioned[0]
		order[col] = x
		onDiag[x] = true
		s[tmax][col] = e.Conditioned[1]
		place[tmax][top] = Placement{Col: col}
		used[tmax][top] = true
		rest := make(map[int]bool, len(e.Conditioning))
		for _, v := range e.Conditioning {
			rest[v] = true
		}

		// 2. walk down
		for t = tmax - 1; t >= 0; t-- {
			i, z, flipped, ok := findBelow(trees[t], used[t], x, rest)
			if !ok {
				return nil, nil, fmt.Errorf("FromTrees: column %d: no edge of tree %d has full set {%d} ∪ %v: %w",
					col+1, t+1, x, keys(rest), ErrProximity)
			}
			s[t][col] = z
			place[t][i] = Placement{Col: col, Flipped: flipped}
			used[t][i] = true
			delete(rest, z)
		}
	}

	// 3. last diagonal entry
	for v := 1; v <= d; v++ {
		if !onDiag[v] {
			order[d-1] = v
			break
		}
	}

	rv, err := New(order, s)
	if err != nil {
		return nil, nil, fmt.Errorf("FromTrees: %w", err)
	}

	return rv, place, nil
}

// findBelow finds the unused edge with x conditioned and full set {x} ∪ rest.
func findBelow(tree []Edge, used []bool, x int, rest map[int]bool) (int, int, bool, bool) {
	for i, e := range tree {
		if used[i] {
			continue
		}
		var z int
		var flipped bool
		switch x {
		case e.Conditioned[0]:
			z = e.Conditioned[1]
		case e.Conditioned[1]:
			z, flipped = e.Conditioned[0], true
		default:
			continue
		}
		if !rest[z] || len(e.Conditioning) != len(rest)-1 {
			continue
		}
		match := true
		for _, v := range e.Conditioning {
			if !rest[v] {
				match = false
				break
			}
		}
		if match {
			return i, z, flipped, true
		}
	}

	return 0, 0, false, false
}

// Trees returns the stored trees of rv in set form. Nodes index the previous tree
// (variables 0..d-1 for tree 0); Conditioned is (order[e], s[t][e]).
func (rv *RVine) Trees() [][]Edge {
	out := make([][]Edge, len(rv.s))
	for t := range rv.s {
		out[t] = make([]Edge, rv.d-1-t)
		for e := range out[t] {
			cond, _ := rv.ConditioningSet(t, e)
			sort.Ints(cond)
			var nodes [2]int
			if t == 0 {
				nodes = [2]int{rv.order[e] - 1, rv.s[0][e] - 1}
			} else {
				nodes = [2]int{e, rv.partner[t][e].Col}
			}
			out[t][e] = Edge{Conditioned: [2]int{rv.order[e], rv.s[t][e]}, Conditioning: cond, Nodes: nodes}
		}
	}

	return out
}

// shareNode reports whether two edges have a common endpoint.
func shareNode(a, b [2]int) bool {
	return a[0] == b[0] || a[0] == b[1] || a[1] == b[0] || a[1] == b[1]
}

// split returns the single element only in fa, the single element only in fb, and
// the (ascending) intersection; ok is false unless both differences are singletons.
func split(fa, fb []int) (int, int, []int, bool) {
	inB := make(map[int]bool, len(fb))
	for _, v := range fb {
		inB[v] = true
	}
	var common, onlyA []int
	for _, v := range fa {
		if inB[v] {
			common = append(common, v)
		} else {
			onlyA = append(onlyA, v)
		}
	}
	inA := make(map[int]bool, len(fa))
	for _, v := range fa {
		inA[v] = true
	}
	var onlyB []int
	for _, v := range fb {
		if !inA[v] {
			onlyB = append(onlyB, v)
		}
	}
	if len(onlyA) != 1 || len(onlyB) != 1 {
		return 0, 0, nil, false
	}

	return onlyA[0], onlyB[0], common, true
}

// pick returns cands at the given positions.
func pick(cands []Edge, idx []int) []Edge {
	out := make([]Edge, len(idx))
	for i, k := range idx {
		out[i] = cands[k]
	}

	return out
}

// keys returns the ascending keys of m.
func keys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)

	return out
}
