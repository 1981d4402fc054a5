// SPDX-License-Identifier: MIT

package structure

import "fmt"

// NewDVine returns the D-vine (path) structure along order: tree 0 links
// order[e]—order[e+1], and edge (t, e) is {order[e], order[e+t+1] | order[e+1..e+t]}.
// truncLvl < 0 keeps all d-1 trees.
func NewDVine(order []int, truncLvl int) (*RVine, error) {
	d := len(order)
	k := levels(d, truncLvl)
	s := make([][]int, k)
	for t := 0; t < k; t++ {
		s[t] = make([]int, d-1-t)
		for e := range s[t] {
			s[t][e] = order[e+t+1]
		}
	}
	rv, err := New(order, s)
	if err != nil {
		return nil, fmt.Errorf("NewDVine: %w", err)
	}

	return rv, nil
}

// NewCVine returns the C-vine (star) structure whose tree t is centered at
// order[d-1-t]: the root of tree 0 is the last element of order.
// truncLvl < 0 keeps all d-1 trees.
func NewCVine(order []int, truncLvl int) (*RVine, error) {
	d := len(order)
	k := levels(d, truncLvl)
	s := make([][]int, k)
	for t := 0; t < k; t++ {
		s[t] = make([]int, d-1-t)
		for e := range s[t] {
			s[t][e] = order[d-1-t]
		}
	}
	rv, err := New(order, s)
	if err != nil {
		return nil, fmt.Errorf("NewCVine: %w", err)
	}

	return rv, nil
}

// levels clamps truncLvl into [0, d-1]; negative means all.
func levels(d, truncLvl int) int {
	if d < 1 {
		return 0
	}
	if truncLvl < 0 || truncLvl > d-1 {
		return d - 1
	}

	return truncLvl
}
