// SPDX-License-Identifier: MIT

package vinecop

import (
	"fmt"
	"math"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/structure"
)

// Vinecop is a regular vine copula: a structure plus one pair copula per edge of
// every non-truncated tree. pcs[t][e] sits on edge (t, e) of the structure,
// oriented as (order[e], s[t][e]).
//
// A Vinecop is immutable; WithNumThreads returns a configured copy.
type Vinecop struct {
	rv        *structure.RVine
	pcs       [][]*bicop.Bicop
	loglik    float64 // NaN for a hand-specified vine
	nobs      int
	threshold float64
	diags     []Diagnostic
	workers   int
}

// New assembles a vine from a structure and its pair copulas.
// len(pcs) may be below rv.TruncLevel(); the structure is then truncated to it.
// Tree t must hold exactly d-1-t copulas.
func New(rv *structure.RVine, pcs [][]*bicop.Bicop) (*Vinecop, error) {
	if rv == nil {
		return nil, fmt.Errorf("New: nil structure: %w", structure.ErrStructure)
	}
	if len(pcs) > rv.TruncLevel() {
		return nil, fmt.Errorf("New: %d trees of pair copulas for truncation level %d: %w",
			len(pcs), rv.TruncLevel(), ErrPairCopulas)
	}
	d := rv.Dim()
	out := make([][]*bicop.Bicop, len(pcs))
	for t := range pcs {
		if len(pcs[t]) != d-1-t {
			return nil, fmt.Errorf("New: tree %d has %d pair copulas, want %d: %w",
				t+1, len(pcs[t]), d-1-t, ErrPairCopulas)
		}
		out[t] = make([]*bicop.Bicop, d-1-t)
		for e, pc := range pcs[t] {
			if pc == nil {
				return nil, fmt.Errorf("New: tree %d, edge %d: nil pair copula: %w", t+1, e+1, ErrPairCopulas)
			}
			out[t][e] = pc
		}
	}
	if len(pcs) < rv.TruncLevel() {
		var err error
		if rv, err = rv.Truncate(len(pcs)); err != nil {
			return nil, fmt.Errorf("New: %w", err)
		}
	}

	return &Vinecop{rv: rv, pcs: out, loglik: math.NaN(), workers: 1}, nil
}

// NewIndep returns the all-independence vine on rv.
func NewIndep(rv *structure.RVine) (*Vinecop, error) {
	if rv == nil {
		return nil, fmt.Errorf("NewIndep: nil structure: %w", structure.ErrStructure)
	}
	pcs := make([][]*bicop.Bicop, rv.TruncLevel())
	for t := range pcs {
		pcs[t] = make([]*bicop.Bicop, rv.Dim()-1-t)
		for e := range pcs[t] {
			pcs[t][e] = bicop.NewIndep()
		}
	}

	return New(rv, pcs)
}

// WithNumThreads returns a copy evaluating with n workers (≤ 0 means one per CPU).
func (vc *Vinecop) WithNumThreads(n int) *Vinecop {
	out := *vc
	out.workers = n

	return &out
}

// Structure returns the vine structure.
func (vc *Vinecop) Structure() *structure.RVine { return vc.rv }

// Dim returns the number of variables.
func (vc *Vinecop) Dim() int { return vc.rv.Dim() }

// TruncLevel returns the number of stored trees.
func (vc *Vinecop) TruncLevel() int { return len(vc.pcs) }

// PairCopula returns the copula on edge (t, e), 0-based.
func (vc *Vinecop) PairCopula(t, e int) (*bicop.Bicop, error) {
	if t < 0 || t >= len(vc.pcs) || e < 0 || e >= len(vc.pcs[t]) {
		return nil, fmt.Errorf("PairCopula(%d, %d): %w", t, e, structure.ErrOutOfRange)
	}

	return vc.pcs[t][e], nil
}

// Families returns the family of every edge, indexed [tree][edge].
func (vc *Vinecop) Families() [][]bicop.Family {
	out := make([][]bicop.Family, len(vc.pcs))
	for t := range vc.pcs {
		out[t] = make([]bicop.Family, len(vc.pcs[t]))
		for e, pc := range vc.pcs[t] {
			out[t][e] = pc.Family()
		}
	}

	return out
}

// Rotations returns the rotation of every edge, indexed [tree][edge].
func (vc *Vinecop) Rotations() [][]int {
	out := make([][]int, len(vc.pcs))
	for t := range vc.pcs {
		out[t] = make([]int, len(vc.pcs[t]))
		for e, pc := range vc.pcs[t] {
			out[t][e] = pc.Rotation()
		}
	}

	return out
}

// Parameters returns a copy of every edge's parameter vector, indexed [tree][edge].
func (vc *Vinecop) Parameters() [][][]float64 {
	out := make([][][]float64, len(vc.pcs))
	for t := range vc.pcs {
		out[t] = make([][]float64, len(vc.pcs[t]))
		for e, pc := range vc.pcs[t] {
			out[t][e] = pc.Parameters()
		}
	}

	return out
}

// Taus returns Kendall's tau of every edge, indexed [tree][edge].
func (vc *Vinecop) Taus() [][]float64 {
	out := make([][]float64, len(vc.pcs))
	for t := range vc.pcs {
		out[t] = make([]float64, len(vc.pcs[t]))
		for e, pc := range vc.pcs[t] {
			out[t][e] = pc.Tau()
		}
	}

	return out
}

// NPars returns the total number of parameters.
func (vc *Vinecop) NPars() float64 {
	var k float64
	for t := range vc.pcs {
		for _, pc := range vc.pcs[t] {
			k += float64(pc.NPars())
		}
	}

	return k
}

// Loglik returns the fitted log-likelihood, NaN for a hand-specified vine.
func (vc *Vinecop) Loglik() float64 { return vc.loglik }

// Nobs returns the number of fitted observations (0 for a hand-specified vine).
func (vc *Vinecop) Nobs() int { return vc.nobs }

// Threshold returns the independence threshold used in the fit.
func (vc *Vinecop) Threshold() float64 { return vc.threshold }

// Diagnostics returns every non-fatal condition recorded while fitting.
func (vc *Vinecop) Diagnostics() []Diagnostic { return append([]Diagnostic(nil), vc.diags...) }

// nonIndep returns the number of non-independence edges per stored tree.
func (vc *Vinecop) nonIndep() []int {
	out := make([]int, len(vc.pcs))
	for t := range vc.pcs {
		for _, pc := range vc.pcs[t] {
			if !pc.IsIndep() {
				out[t]++
			}
		}
	}

	return out
}

// String lists the structure matrix followed by one line per tree.
func (vc *Vinecop) String() string {
	s := vc.rv.String()
	for t := range vc.pcs {
		s += fmt.Sprintf("tree %d:", t+1)
		for _, pc := range vc.pcs[t] {
			s += " " + pc.String()
		}
		s += "\n"
	}

	return s
}
