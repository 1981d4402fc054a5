package prim_kruskal_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/katalvlaran/rvine/prim_kruskal" // package under test
	"github.com/stretchr/testify/assert"        // assertion library
	"github.com/stretchr/testify/require"
)

// triangle is the candidate list 0—1 (1), 1—2 (2), 0—2 (3).
// Its minimum tree is {0—1, 1—2} (weight 3), its maximum tree {0—2, 1—2} (weight 5).
func triangle() []prim_kruskal.Edge {
	return []prim_kruskal.Edge{
		{From: 0, To: 1, Weight: 1, ID: 0},
		{From: 1, To: 2, Weight: 2, ID: 1},
		{From: 0, To: 2, Weight: 3, ID: 2},
	}
}

// buildMediumGraph creates a connected candidate list with n vertices and edgesCount edges.
//   - A chain 0—1—...—(n-1) with weights in [1, 11) guarantees connectivity.
//   - Extra random non-loop edges with weights in [1, 101) fill the rest.
//
// The generator is seeded deterministically for reproducibility.
func buildMediumGraph(n, edgesCount int) []prim_kruskal.Edge {
	r := rand.New(rand.NewSource(42))
	edges := make([]prim_kruskal.Edge, 0, edgesCount)
	for i := 1; i < n; i++ {
		edges = append(edges, prim_kruskal.Edge{From: i - 1, To: i, Weight: 1 + 10*r.Float64(), ID: len(edges)})
	}
	for len(edges) < edgesCount {
		u, v := r.Intn(n), r.Intn(n)
		if u == v {
			continue
		}
		edges = append(edges, prim_kruskal.Edge{From: u, To: v, Weight: 1 + 100*r.Float64(), ID: len(edges)})
	}

	return edges
}

// ids returns the sorted IDs of edges.
func ids(edges []prim_kruskal.Edge) []int {
	out := make([]int, len(edges))
	for i, e := range edges {
		out[i] = e.ID
	}
	sort.Ints(out)

	return out
}

// TestValidation_EmptyOrDisconnected verifies ErrDisconnected for empty and split graphs.
func TestValidation_EmptyOrDisconnected(t *testing.T) {
	_, _, err := prim_kruskal.Kruskal(0, nil, false)
	assert.ErrorIs(t, err, prim_kruskal.ErrDisconnected)
	_, _, err = prim_kruskal.Prim(0, nil, 0, false)
	assert.ErrorIs(t, err, prim_kruskal.ErrDisconnected)

	split := []prim_kruskal.Edge{{From: 0, To: 1, Weight: 1}, {From: 2, To: 3, Weight: 1}}
	_, _, err = prim_kruskal.Kruskal(4, split, true)
	assert.ErrorIs(t, err, prim_kruskal.ErrDisconnected)
	_, _, err = prim_kruskal.Prim(4, split, 0, true)
	assert.ErrorIs(t, err, prim_kruskal.ErrDisconnected)
}

// TestValidation_BadInput covers out-of-range endpoints, roots and methods.
func TestValidation_BadInput(t *testing.T) {
	bad := []prim_kruskal.Edge{{From: 0, To: 5, Weight: 1}}
	_, _, err := prim_kruskal.Kruskal(3, bad, false)
	assert.ErrorIs(t, err, prim_kruskal.ErrInvalidGraph)

	_, _, err = prim_kruskal.Prim(3, triangle(), 3, false)
	assert.ErrorIs(t, err, prim_kruskal.ErrInvalidRoot)

	_, _, err = prim_kruskal.Compute(3, triangle(), prim_kruskal.NewOptions(prim_kruskal.WithMethod("boruvka")))
	assert.ErrorIs(t, err, prim_kruskal.ErrUnknownMethod)
}

// TestSingleVertex returns an empty tree with zero weight.
func TestSingleVertex(t *testing.T) {
	tree, w, err := prim_kruskal.Kruskal(1, nil, false)
	require.NoError(t, err)
	assert.Empty(t, tree)
	assert.Zero(t, w)
	tree, w, err = prim_kruskal.Prim(1, nil, 0, true)
	require.NoError(t, err)
	assert.Empty(t, tree)
	assert.Zero(t, w)
}

// TestTriangle checks both objectives on both algorithms.
func TestTriangle(t *testing.T) {
	for _, method := range []string{prim_kruskal.MethodKruskal, prim_kruskal.MethodPrim} {
		tree, w, err := prim_kruskal.Compute(3, triangle(), prim_kruskal.NewOptions(prim_kruskal.WithMethod(method)))
		require.NoError(t, err, method)
		assert.Equal(t, 3.0, w, method)
		assert.Equal(t, []int{0, 1}, ids(tree), method)

		tree, w, err = prim_kruskal.Compute(3, triangle(), prim_kruskal.NewOptions(
			prim_kruskal.WithMethod(method), prim_kruskal.WithMaximum(), prim_kruskal.WithRoot(1)))
		require.NoError(t, err, method)
		assert.Equal(t, 5.0, w, method)
		assert.Equal(t, []int{1, 2}, ids(tree), method)
	}
}

// TestPrimKruskalAgree compares total weights on a random graph for every root.
func TestPrimKruskalAgree(t *testing.T) {
	edges := buildMediumGraph(60, 400)
	for _, maximize := range []bool{false, true} {
		kt, kw, err := prim_kruskal.Kruskal(60, edges, maximize)
		require.NoError(t, err)
		assert.Len(t, kt, 59)
		for root := 0; root < 60; root += 13 {
			pt, pw, err := prim_kruskal.Prim(60, edges, root, maximize)
			require.NoError(t, err)
			assert.InDelta(t, kw, pw, 1e-9)
			// Random float weights are distinct, so the trees coincide.
			assert.Equal(t, ids(kt), ids(pt))
		}
	}
}

// TestTieBreak_InputOrder keeps the earlier of two equal-weight edges.
func TestTieBreak_InputOrder(t *testing.T) {
	edges := []prim_kruskal.Edge{
		{From: 0, To: 1, Weight: 1, ID: 10},
		{From: 1, To: 2, Weight: 1, ID: 11},
		{From: 0, To: 2, Weight: 1, ID: 12},
	}
	tree, _, err := prim_kruskal.Kruskal(3, edges, true)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11}, ids(tree))
	// Prim reaches vertex 2 through 0—2 and 1—2 at equal weight; the lower position wins.
	tree, _, err = prim_kruskal.Prim(3, edges, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11}, ids(tree))
}

// TestSelfLoopsIgnored: loops never enter the tree.
func TestSelfLoopsIgnored(t *testing.T) {
	edges := append(triangle(), prim_kruskal.Edge{From: 1, To: 1, Weight: 100, ID: 99})
	tree, w, err := prim_kruskal.Kruskal(3, edges, true)
	require.NoError(t, err)
	assert.Equal(t, 5.0, w)
	assert.NotContains(t, ids(tree), 99)
}
