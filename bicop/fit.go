// SPDX-License-Identifier: MIT

package bicop

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/optimize"

	"github.com/katalvlaran/rvine/stats"
)

// Method is the parameter estimation method.
type Method int

const (
	// MLE maximizes the (weighted) log-likelihood, started from the itau estimate.
	MLE Method = iota
	// ITau inverts Kendall's tau; Student's nu is profiled by likelihood.
	ITau
)

// String returns "mle" or "itau".
func (m Method) String() string {
	if m == ITau {
		return "itau"
	}

	return "mle"
}

// ParseMethod maps "mle" or "itau" to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mle", "":
		return MLE, nil
	case "itau":
		return ITau, nil
	default:
		return MLE, fmt.Errorf("ParseMethod(%q): %w", s, ErrMethod)
	}
}

// Estimation tuning.
const (
	// boxMargin keeps start values strictly inside the parameter box.
	boxMargin = 1e-6
	// outsidePenalty is the objective outside the box; grows with the distance.
	outsidePenalty = 1e10
	// maxFuncEvals caps Nelder-Mead evaluations per fit.
	maxFuncEvals = 400
)

// studentNuGrid is the profile grid for Student's degrees of freedom.
var studentNuGrid = []float64{2.5, 3, 4, 5, 6, 8, 10, 12, 15, 20, 30, 50}

// Fit estimates the parameters of family f at rotation from pseudo-observations
// (u1, u2) with optional weights w (nil for unit weights).
//
// Stage 1: Kendall's tau (weighted when w != nil) gives the itau estimate.
// Stage 2 (MLE only): Nelder-Mead on the negative log-likelihood from that start;
//
//	points outside the parameter box are penalized.
//
// The returned Bicop carries Loglik and Nobs.
func Fit(f Family, rotation int, u1, u2, w []float64, method Method) (*Bicop, error) {
	if err := validateData(u1, u2, w); err != nil {
		return nil, fmt.Errorf("Fit(%s): %w", f, err)
	}

	return fitWithTau(f, rotation, u1, u2, w, method, stats.Kendall(u1, u2, w))
}

// fitWithTau is Fit with the empirical tau already computed.
func fitWithTau(f Family, rotation int, u1, u2, w []float64, method Method, tau float64) (*Bicop, error) {
	if _, err := New(f, rotation, startFor(f, 0)); err != nil && f != Indep {
		return nil, fmt.Errorf("Fit(%s): %w", f, err)
	}
	if method != MLE && method != ITau {
		return nil, fmt.Errorf("Fit(%s): method %d: %w", f, int(method), ErrMethod)
	}
	n := len(u1)
	if f == Indep {
		return NewIndep().withFit(0, n), nil
	}
	if math.IsNaN(tau) {
		tau = 0
	}
	// Rotations by 90/270 degrees see the data with one margin reflected.
	tau0 := tau
	if rotation == 90 || rotation == 270 {
		tau0 = -tau
	}

	par := itauEstimate(f, rotation, tau0, u1, u2, w)
	if method == MLE {
		par = maximizeLoglik(f, rotation, par, u1, u2, w)
	}
	b, err := New(f, rotation, par)
	if err != nil {
		return nil, fmt.Errorf("Fit(%s): %w", f, err)
	}

	return b.withFit(logLik(f, rotation, par, u1, u2, w), n), nil
}

// itauEstimate returns the method-of-moments estimate clamped into the box.
func itauEstimate(f Family, rotation int, tau0 float64, u1, u2, w []float64) []float64 {
	k := kernels[f]
	tau0 = math.Max(-0.999, math.Min(0.999, tau0))
	if f == Student {
		rho := math.Sin(tau0 * math.Pi / 2)
		par := clampBox(k, []float64{rho, studentNuGrid[0]})
		best := math.Inf(-1)
		for _, nu := range studentNuGrid {
			cand := clampBox(k, []float64{par[0], nu})
			if ll := logLik(f, rotation, cand, u1, u2, w); !math.IsNaN(ll) && ll > best {
				best = ll
				par = cand
			}
		}

		return par
	}
	if k.fromTau == nil {
		return startFor(f, 0)
	}
	// Positive-dependence families cannot represent tau0 <= 0; start at the
	// independence end of the box.
	if tau0 <= 0 && f != Gaussian && f != Frank {
		return clampBox(k, append([]float64(nil), k.lower...))
	}

	return clampBox(k, k.fromTau(tau0))
}

// maximizeLoglik runs Nelder-Mead from start; on failure it returns start.
func maximizeLoglik(f Family, rotation int, start, u1, u2, w []float64) []float64 {
	k := kernels[f]
	startLL := logLik(f, rotation, start, u1, u2, w)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if d := boxDistance(k, x); d > 0 {
				return outsidePenalty * (1 + d)
			}
			ll := logLik(f, rotation, x, u1, u2, w)
			if math.IsNaN(ll) || math.IsInf(ll, 0) {
				return outsidePenalty
			}
			return -ll
		},
	}
	settings := &optimize.Settings{FuncEvaluations: maxFuncEvals}
	res, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if err != nil || res == nil || boxDistance(k, res.X) > 0 {
		return start
	}
	// Never return a worse point than the start.
	if -res.F < startLL && !math.IsNaN(startLL) {
		return start
	}

	return clampBox(k, res.X)
}

// startFor returns a feasible parameter vector with tau near tau0, used to validate
// a (family, rotation) pair before fitting.
func startFor(f Family, tau0 float64) []float64 {
	k := kernels[f]
	if k == nil {
		return nil
	}
	switch f {
	case Indep:
		return nil
	case Student:
		return []float64{math.Sin(tau0 * math.Pi / 2), 4}
	}

	return clampBox(k, append([]float64(nil), k.lower...))
}

// clampBox pulls p into [lower+margin, upper-margin] in place and returns it.
func clampBox(k *kernel, p []float64) []float64 {
	var i int
	for i = range p {
		lo, hi := k.lower[i]+boxMargin, k.upper[i]-boxMargin
		switch {
		case math.IsNaN(p[i]):
			p[i] = lo
		case p[i] < lo:
			p[i] = lo
		case p[i] > hi:
			p[i] = hi
		}
	}

	return p
}

// boxDistance is the L1 distance of x from the parameter box (0 inside).
func boxDistance(k *kernel, x []float64) float64 {
	var d float64
	var i int
	for i = range x {
		switch {
		case x[i] < k.lower[i]:
			d += k.lower[i] - x[i]
		case x[i] > k.upper[i]:
			d += x[i] - k.upper[i]
		}
	}

	return d
}

// validateData checks lengths and the open unit interval.
func validateData(u1, u2, w []float64) error {
	if len(u1) != len(u2) || (w != nil && len(w) != len(u1)) {
		return fmt.Errorf("lengths %d, %d, %d: %w", len(u1), len(u2), len(w), ErrData)
	}
	var i int
	for i = range u1 {
		if !(u1[i] > 0 && u1[i] < 1 && u2[i] > 0 && u2[i] < 1) {
			return fmt.Errorf("observation %d (%g, %g) outside (0,1): %w", i, u1[i], u2[i], ErrData)
		}
		if w != nil && (w[i] < 0 || math.IsNaN(w[i])) {
			return fmt.Errorf("weight %d = %g: %w", i, w[i], ErrData)
		}
	}

	return nil
}
