// SPDX-License-Identifier: MIT

package structure

import (
	"fmt"
)

// validate checks labels, shape and the proximity condition, and fills rv.partner.
//
// Stage 1: order is a permutation of 1..d.
// Stage 2: len(s) ≤ d-1 and len(s[t]) == d-1-t.
// Stage 3: column e lists distinct labels, each the diagonal of a later column.
// Stage 4: every edge (t, e), t ≥ 1, has a partner column k in tree t-1 whose full
//
//	set equals {s[t][e]} ∪ s[0..t-1][e], with s[t][e] conditioned there.
//
// Complexity: O(d³) set comparisons over O(d²) edges.
func (rv *RVine) validate() error {
	d := rv.d
	if d < 1 {
		return fmt.Errorf("structure: empty order: %w", ErrDimensionMismatch)
	}

	// Stage 1: permutation; pos maps label → column
	pos := make([]int, d+1)
	for i := range pos {
		pos[i] = -1
	}
	for e, v := range rv.order {
		if v < 1 || v > d || pos[v] >= 0 {
			return fmt.Errorf("structure: order %v is not a permutation of 1..%d: %w", rv.order, d, ErrInvalidVariable)
		}
		pos[v] = e
	}

	// Stage 2: triangular shape
	if len(rv.s) > d-1 {
		return fmt.Errorf("structure: %d trees for d=%d: %w", len(rv.s), d, ErrNotTriangular)
	}
	for t, row := range rv.s {
		if len(row) != d-1-t {
			return fmt.Errorf("structure: tree %d has %d edges, want %d: %w", t+1, len(row), d-1-t, ErrNotTriangular)
		}
	}

	// Stage 3: column labels
	trunc := len(rv.s)
	var t, e int
	for e = 0; e < d-1; e++ {
		seen := make(map[int]bool, trunc)
		for t = 0; t < trunc && e < d-1-t; t++ {
			v := rv.s[t][e]
			if v < 1 || v > d {
				return fmt.Errorf("structure: tree %d edge %d: variable %d outside 1..%d: %w", t+1, e+1, v, d, ErrInvalidVariable)
			}
			if seen[v] || pos[v] <= e {
				return fmt.Errorf("structure: tree %d edge %d: variable %d repeated or not after %d in the order: %w",
					t+1, e+1, v, rv.order[e], ErrInvalidVariable)
			}
			seen[v] = true
		}
	}

	// Stage 4: partners
	rv.partner = make([][]Partner, trunc)
	for t = 0; t < trunc; t++ {
		rv.partner[t] = make([]Partner, d-1-t)
		for e = 0; e < d-1-t; e++ {
			p, ok := rv.findPartner(t, e, pos)
			if !ok {
				cond, _ := rv.ConditioningSet(t, e)
				return fmt.Errorf("structure: tree %d edge %d (%d,%d | %v) has no partner edge in tree %d: %w",
					t+1, e+1, rv.order[e], rv.s[t][e], cond, t, ErrProximity)
			}
			rv.partner[t][e] = p
		}
	}

	return nil
}

// findPartner searches tree t-1 for the edge producing F(s[t][e] | s[0..t-1][e]).
func (rv *RVine) findPartner(t, e int, pos []int) (Partner, bool) {
	target := rv.s[t][e]
	if t == 0 {
		return Partner{Col: pos[target], Direct: true}, true
	}

	// need = {target} ∪ s[0..t-1][e]
	need := make(map[int]bool, t+1)
	need[target] = true
	for k := 0; k < t; k++ {
		need[rv.s[k][e]] = true
	}

	// Tree t-1 has columns 0..d-1-t; the partner sits to the right of e.
	for k := e + 1; k <= rv.d-1-t; k++ {
		if !need[rv.order[k]] {
			continue
		}
		match := true
		for j := 0; j < t && match; j++ {
			match = need[rv.s[j][k]]
		}
		if !match {
			continue
		}
		switch target {
		case rv.order[k]:
			return Partner{Col: k, Direct: true}, true
		case rv.s[t-1][k]:
			return Partner{Col: k, Direct: false}, true
		}
	}

	return Partner{}, false
}
