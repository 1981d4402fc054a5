// SPDX-License-Identifier: MIT

package vinecop

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
)

// searchThreshold selects the independence threshold minimizing mBICV.
//
// Steps:
//  1. Fit at threshold 0; the |tau| of its non-independence edges are the candidates.
//  2. Refit at the candidates in ascending order (each just above one |tau|, so every
//     step turns at least one more weak edge into independence).
//  3. Stop at the first candidate that does not lower mBICV, or when candidates run out.
//
// The loop is sequential and each evaluation holds the truncation policy fixed, so the
// decision does not depend on the worker count. When MaxSelectionEvals is reached while
// mBICV is still falling, the best model so far is returned with a
// SelectionNonconvergence diagnostic.
func (p policy) searchThreshold(ctx context.Context, cols [][]float64) (*Vinecop, error) {
	best, err := p.run(ctx, cols, 0)
	if err != nil {
		return nil, err
	}
	p.traceThreshold(best, 1)
	cands := thresholdCandidates(best.taus)

	evals := 1
	var i int
	for i = 0; i < len(cands); i++ {
		if evals >= p.maxEvals {
			break
		}
		r, err := p.run(ctx, cols, cands[i])
		if err != nil {
			return nil, fmt.Errorf("threshold %g: %w", cands[i], err)
		}
		evals++
		p.traceThreshold(r, evals)
		if !(r.mbicv < best.mbicv) {
			return best.vc, nil
		}
		best = r
	}
	if i < len(cands) {
		best.vc.diags = append(best.vc.diags, Diagnostic{
			Kind: SelectionNonconvergence,
			Message: fmt.Sprintf("threshold search stopped after %d evaluations at threshold %g (mBICV %.4f)",
				evals, best.vc.threshold, best.mbicv),
		})
	}

	return best.vc, nil
}

// thresholdCandidates returns the distinct values just above each |tau|, ascending,
// capped at 1.
func thresholdCandidates(taus []float64) []float64 {
	s := append([]float64(nil), taus...)
	sort.Float64s(s)
	var out []float64
	for _, v := range s {
		c := math.Min(1, math.Nextafter(v, math.Inf(1)))
		if len(out) == 0 || c > out[len(out)-1] {
			out = append(out, c)
		}
	}

	return out
}

// traceThreshold emits one record per threshold evaluation.
func (p policy) traceThreshold(r *result, eval int) {
	if !p.trace {
		return
	}
	p.log.Info("threshold evaluated",
		zap.Int("eval", eval),
		zap.Float64("threshold", r.vc.threshold),
		zap.Int("trunc_lvl", r.vc.TruncLevel()),
		zap.Float64("mbicv", r.mbicv),
	)
}
