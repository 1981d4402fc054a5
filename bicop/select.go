// SPDX-License-Identifier: MIT

package bicop

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/rvine/stats"
)

// Criterion scores a fitted candidate; lower is better.
type Criterion int

const (
	// CritLoglik is -2·loglik.
	CritLoglik Criterion = iota
	// CritAIC is -2·loglik + 2·npars.
	CritAIC
	// CritBIC is -2·loglik + npars·log(n).
	CritBIC
	// CritMBIC is BIC minus twice the log prior of the edge being (non-)independent.
	CritMBIC
)

// String returns the canonical criterion name.
func (c Criterion) String() string {
	switch c {
	case CritLoglik:
		return "loglik"
	case CritAIC:
		return "aic"
	case CritMBIC:
		return "mbic"
	default:
		return "bic"
	}
}

// ParseCriterion maps "loglik", "aic", "bic" or "mbic" to a Criterion.
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "loglik":
		return CritLoglik, nil
	case "aic":
		return CritAIC, nil
	case "bic", "":
		return CritBIC, nil
	case "mbic":
		return CritMBIC, nil
	default:
		return CritBIC, fmt.Errorf("ParseCriterion(%q): %w", s, ErrCriterion)
	}
}

// WarningKind classifies a non-fatal condition met during selection.
type WarningKind int

const (
	// WarnDegenerate: no candidate could be fit; the result is the independence copula.
	WarnDegenerate WarningKind = iota
	// WarnNumeric: the estimate sits at an ill-conditioned point (e.g. |rho| near 1).
	WarnNumeric
)

// Warning is a non-fatal condition returned alongside the selected copula.
type Warning struct {
	Kind    WarningKind
	Message string
}

// Controls configures Select.
type Controls struct {
	// FamilySet lists allowed families; Indep is always a candidate.
	FamilySet []Family
	// Method is the estimation method for every candidate.
	Method Method
	// NonparMult scales the bandwidth of nonparametric families (must be > 0).
	// No built-in kernel reads it yet: TLL fails with ErrFamily.
	NonparMult float64
	// Criterion ranks candidates.
	Criterion Criterion
	// Psi0 is the prior probability of a non-independence copula (CritMBIC only).
	Psi0 float64
	// Preselect prunes rotations and tail orientations from sample diagnostics.
	Preselect bool
	// Threshold forces independence when |Measure| falls below it; 0 disables.
	Threshold float64
	// Measure is the dependence statistic compared against Threshold.
	Measure stats.Measure
}

// DefaultControls returns the built-in families, MLE, BIC, psi0 = 0.9 and pre-selection on.
func DefaultControls() Controls {
	return Controls{
		FamilySet:  append([]Family(nil), Builtin...),
		Method:     MLE,
		NonparMult: 1,
		Criterion:  CritBIC,
		Psi0:       0.9,
		Preselect:  true,
		Measure:    stats.Tau,
	}
}

// Validate checks Controls before any fitting.
func (c Controls) Validate() error {
	if err := ValidateFamilySet(c.FamilySet); err != nil {
		return err
	}
	// A threshold is only meaningful with a bounded measure.
	if c.Threshold < 0 || c.Threshold > 1 || math.IsNaN(c.Threshold) {
		return fmt.Errorf("bicop: threshold %g outside [0,1]: %w", c.Threshold, ErrParameters)
	}
	if !(c.Psi0 > 0 && c.Psi0 < 1) {
		return fmt.Errorf("bicop: psi0 %g outside (0,1): %w", c.Psi0, ErrParameters)
	}
	if !(c.NonparMult > 0) {
		return fmt.Errorf("bicop: nonpar_mult %g must be positive: %w", c.NonparMult, ErrParameters)
	}
	if c.Method != MLE && c.Method != ITau {
		return fmt.Errorf("bicop: method %d: %w", int(c.Method), ErrMethod)
	}
	if c.Criterion < CritLoglik || c.Criterion > CritMBIC {
		return fmt.Errorf("bicop: criterion %d: %w", int(c.Criterion), ErrCriterion)
	}

	return nil
}

// candidate is one (family, rotation) pair to fit.
type candidate struct {
	family   Family
	rotation int
}

// Select fits every admissible (family, rotation) candidate to (u1, u2) and returns
// the best one under c.Criterion, with ties broken by family order then rotation
// order. The independence copula is always a candidate.
//
// Stage 1: degenerate data (constant column, n < 2) → independence + WarnDegenerate.
// Stage 2: |dependence| < c.Threshold → independence, no fitting.
// Stage 3: candidate enumeration and optional pre-selection.
// Stage 4: fit and score; non-finite fits are skipped.
//
// Errors are configuration or data errors only (ErrFamily, ErrData, ...).
func Select(u1, u2, w []float64, c Controls) (*Bicop, []Warning, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("Select: %w", err)
	}
	if err := validateData(u1, u2, w); err != nil {
		return nil, nil, fmt.Errorf("Select: %w", err)
	}
	n := len(u1)

	// Stage 1: degeneracy
	tau := math.NaN()
	if n >= 2 {
		tau = stats.Kendall(u1, u2, w)
	}
	if math.IsNaN(tau) {
		return NewIndep().withFit(0, n), []Warning{{
			Kind:    WarnDegenerate,
			Message: fmt.Sprintf("degenerate sample (n=%d, undefined Kendall's tau)", n),
		}}, nil
	}

	// Stage 2: thresholding
	if c.Threshold > 0 {
		strength := tau
		if c.Measure != stats.Tau {
			strength = stats.Dependence(c.Measure, u1, u2, w)
		}
		if math.IsNaN(strength) || math.Abs(strength) < c.Threshold {
			return NewIndep().withFit(0, n), nil, nil
		}
	}

	// Stage 3: candidates
	cands := enumerate(c.FamilySet)
	if c.Preselect {
		cands = preselect(cands, u1, u2, tau)
	}

	// Stage 4: fit and score
	best := NewIndep().withFit(0, n)
	bestScore := score(c, 0, 0, n, true)
	var fitted, failed int
	for _, cd := range cands {
		if cd.family == Indep {
			continue
		}
		fitted++
		b, err := fitWithTau(cd.family, cd.rotation, u1, u2, w, c.Method, tau)
		if err != nil || math.IsNaN(b.loglik) || math.IsInf(b.loglik, 0) {
			failed++
			continue
		}
		if s := score(c, b.loglik, b.NPars(), n, false); s < bestScore {
			best, bestScore = b, s
		}
	}

	var warns []Warning
	if fitted > 0 && failed == fitted {
		warns = append(warns, Warning{
			Kind:    WarnDegenerate,
			Message: fmt.Sprintf("no family could be fit to %d observations; using independence", n),
		})
	}
	if msg := illConditioned(best); msg != "" {
		warns = append(warns, Warning{Kind: WarnNumeric, Message: msg})
	}

	return best, warns, nil
}

// score evaluates criterion c; indep marks the independence candidate for CritMBIC.
func score(c Controls, ll float64, npars, n int, indep bool) float64 {
	k := float64(npars)
	logn := math.Log(float64(n))
	switch c.Criterion {
	case CritLoglik:
		return -2 * ll
	case CritAIC:
		return -2*ll + 2*k
	case CritMBIC:
		prior := math.Log(c.Psi0)
		if indep {
			prior = math.Log(1 - c.Psi0)
		}
		return -2*ll + k*logn - 2*prior
	default:
		return -2*ll + k*logn
	}
}

// enumerate lists (family, rotation) candidates in tie-breaking order.
func enumerate(set []Family) []candidate {
	seen := make(map[Family]bool, len(set)+1)
	seen[Indep] = true
	for _, f := range set {
		seen[f] = true
	}
	var out []candidate
	for _, f := range sortedFamilies(seen) {
		if !f.Rotatable() {
			out = append(out, candidate{f, 0})
			continue
		}
		for _, r := range []int{0, 90, 180, 270} {
			out = append(out, candidate{f, r})
		}
	}

	return out
}

// semiCorMin is the minimum number of points in a quadrant for a semi-correlation.
const semiCorMin = 10

// preselect drops candidates contradicted by the sample:
//   - rotatable families keep only the rotations matching the sign of tau;
//   - the lower/upper semi-correlations of the normal scores decide whether the
//     lower-tail family (Clayton) or the upper-tail families (Gumbel, Joe) sit at
//     the unreflected rotation.
//
// Symmetric families are never dropped.
func preselect(cands []candidate, u1, u2 []float64, tau float64) []candidate {
	if tau == 0 {
		return cands
	}
	z1 := make([]float64, len(u1))
	z2 := make([]float64, len(u2))
	for i := range u1 {
		z1[i] = distuv.UnitNormal.Quantile(u1[i])
		z2[i] = distuv.UnitNormal.Quantile(u2[i])
		if tau < 0 {
			z2[i] = -z2[i]
		}
	}
	upper := semiCorrelation(z1, z2, 1)
	lower := semiCorrelation(z1, z2, -1)
	tailKnown := !math.IsNaN(upper) && !math.IsNaN(lower)
	upperHeavy := upper > lower

	// unreflected: the (sign-adjusted) pair follows the family itself;
	// reflected: it follows the survival copula.
	keepRot := func(f Family, r int) bool {
		var unreflected, reflected int
		if tau > 0 {
			unreflected, reflected = 0, 180
		} else {
			unreflected, reflected = 270, 90
		}
		if r != unreflected && r != reflected {
			return false // wrong sign of dependence
		}
		if !tailKnown {
			return true
		}
		upperTailFamily := f == Gumbel || f == Joe
		if upperTailFamily == upperHeavy {
			return r == unreflected
		}
		return r == reflected
	}

	out := cands[:0:0]
	for _, cd := range cands {
		if !cd.family.Rotatable() || keepRot(cd.family, cd.rotation) {
			out = append(out, cd)
		}
	}

	return out
}

// semiCorrelation is the correlation of (x, y) restricted to the quadrant where
// both have sign s; NaN with fewer than semiCorMin points.
func semiCorrelation(x, y []float64, s float64) float64 {
	var qx, qy []float64
	for i := range x {
		if x[i]*s > 0 && y[i]*s > 0 {
			qx = append(qx, x[i])
			qy = append(qy, y[i])
		}
	}
	if len(qx) < semiCorMin {
		return math.NaN()
	}

	return stat.Correlation(qx, qy, nil)
}

// illConditioned describes a numerically fragile estimate, or returns "".
func illConditioned(b *Bicop) string {
	if b.family == Gaussian || b.family == Student {
		if math.Abs(b.params[0]) > 0.99 {
			return fmt.Sprintf("%s correlation %.4f is near the boundary", b.family, b.params[0])
		}
	}
	if b.family.OneParameter() && b.family != Gaussian {
		p, k := b.params[0], b.k
		tol := 1e-4 * (k.upper[0] - k.lower[0])
		if k.upper[0]-p < tol || (b.family == Frank && p-k.lower[0] < tol) {
			return fmt.Sprintf("%s parameter %g at the edge of its range", b.family, p)
		}
	}

	return ""
}
