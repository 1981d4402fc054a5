// SPDX-License-Identifier: MIT

package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/rvine/matrix"
)

// Ranks returns the 1-based ranks of x; tied values share their average rank.
// NaN is ranked last (treated as +Inf).
// Complexity: O(n log n).
func Ranks(x []float64) []float64 {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	key := func(i int) float64 {
		if math.IsNaN(x[i]) {
			return math.Inf(1)
		}
		return x[i]
	}
	// Stable sort keeps equal keys in input order, which keeps ties deterministic.
	sort.SliceStable(idx, func(a, b int) bool { return key(idx[a]) < key(idx[b]) })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && key(idx[j]) == key(idx[i]) {
			j++
		}
		avg := float64(i+j+1) / 2 // mean of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			out[idx[k]] = avg
		}
		i = j
	}

	return out
}

// PseudoObs maps every column of data to (0,1) by rank/(n+1).
// The result is the canonical input of vine selection when raw data is at hand.
// Complexity: O(d · n log n).
func PseudoObs(data *matrix.Dense) (*matrix.Dense, error) {
	if err := matrix.ValidateNotNil(data); err != nil {
		return nil, fmt.Errorf("PseudoObs: %w", err)
	}
	n, d := data.Rows(), data.Cols()
	out, err := matrix.NewDense(n, d)
	if err != nil {
		return nil, fmt.Errorf("PseudoObs: %w", err)
	}
	scale := 1.0 / float64(n+1)
	for j := 0; j < d; j++ {
		r := Ranks(data.Col(j))
		for i, v := range r {
			_ = out.Set(i, j, v*scale) // indices valid by construction
		}
	}

	return out, nil
}
