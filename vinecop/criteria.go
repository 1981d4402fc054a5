// SPDX-License-Identifier: MIT

package vinecop

import (
	"fmt"
	"math"
)

// AIC returns -2·loglik + 2·npars of the fitted vine.
func (vc *Vinecop) AIC() (float64, error) {
	if err := vc.checkFitted("AIC"); err != nil {
		return math.NaN(), err
	}

	return -2*vc.loglik + 2*vc.NPars(), nil
}

// BIC returns -2·loglik + npars·log(nobs) of the fitted vine.
func (vc *Vinecop) BIC() (float64, error) {
	if err := vc.checkFitted("BIC"); err != nil {
		return math.NaN(), err
	}

	return -2*vc.loglik + vc.NPars()*math.Log(float64(vc.nobs)), nil
}

// MBICV returns the modified vine BIC of the fitted vine:
//
//	mBICV = -2·loglik + npars·log(n) - 2·Σ_t [ k_t·log(psi0^t) + (d-t-k_t)·log(1-psi0^t) ]
//
// where k_t counts the non-independence edges of tree t = 1..TruncLevel().
// psi0 is the prior probability that an edge of tree 1 is not independent, so for
// trees that are mostly dependent a smaller psi0 gives a larger mBICV, and for
// mostly independent trees the order reverses.
func (vc *Vinecop) MBICV(psi0 float64) (float64, error) {
	if err := vc.checkFitted("MBICV"); err != nil {
		return math.NaN(), err
	}
	if !(psi0 > 0 && psi0 < 1) {
		return math.NaN(), fmt.Errorf("MBICV: psi0 %g outside (0,1): %w", psi0, ErrControls)
	}

	return mbicv(vc.loglik, vc.NPars(), vc.nobs, vc.Dim(), vc.nonIndep(), psi0), nil
}

// MBICVAt is MBICV for a log-likelihood ll measured on n rows, typically from
// LogLik on a hand-specified vine.
func (vc *Vinecop) MBICVAt(ll float64, n int, psi0 float64) (float64, error) {
	if n <= 0 {
		return math.NaN(), fmt.Errorf("MBICVAt: n=%d: %w", n, ErrDimensionMismatch)
	}
	if !(psi0 > 0 && psi0 < 1) {
		return math.NaN(), fmt.Errorf("MBICVAt: psi0 %g outside (0,1): %w", psi0, ErrControls)
	}

	return mbicv(ll, vc.NPars(), n, vc.Dim(), vc.nonIndep(), psi0), nil
}

func (vc *Vinecop) checkFitted(method string) error {
	if math.IsNaN(vc.loglik) || vc.nobs == 0 {
		return fmt.Errorf("%s: %w", method, ErrNotFitted)
	}

	return nil
}

// mbicv evaluates the closed form for per-tree non-independence counts k.
func mbicv(ll, npars float64, n, d int, k []int, psi0 float64) float64 {
	return -2*ll + npars*math.Log(float64(n)) - 2*logPrior(d, k, psi0)
}

// logPrior is Σ_t k_t·log(psi0^t) + (d-t-k_t)·log(1-psi0^t), t 1-based.
func logPrior(d int, k []int, psi0 float64) float64 {
	var lp float64
	for t := range k {
		lp += treeLogPrior(d, t, k[t], psi0)
	}

	return lp
}

// treeLogPrior is the prior term of tree t (0-based) with k non-independence edges.
func treeLogPrior(d, t, k int, psi0 float64) float64 {
	psi := math.Pow(psi0, float64(t+1))
	edges := d - 1 - t

	return float64(k)*math.Log(psi) + float64(edges-k)*math.Log1p(-psi)
}
