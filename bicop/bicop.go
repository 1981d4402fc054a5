// SPDX-License-Identifier: MIT

package bicop

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Bicop is one parametric bivariate copula: family tag, rotation and parameters,
// plus the fit summary when produced by Fit or Select.
// A Bicop is immutable after construction and safe for concurrent use.
type Bicop struct {
	family   Family
	rotation int
	params   []float64
	k        *kernel

	// fit summary; loglik is NaN for a model that was never fitted
	loglik float64
	nobs   int
}

// New returns the copula of family f at rotation degrees with parameters par.
// Rotation must be 0, 90, 180 or 270 and 0 for non-rotatable families;
// par must match NPars and lie inside the family bounds.
func New(f Family, rotation int, par []float64) (*Bicop, error) {
	k, ok := kernels[f]
	if !ok {
		return nil, fmt.Errorf("New(%s): %w", f, ErrFamily)
	}
	switch rotation {
	case 0, 90, 180, 270:
	default:
		return nil, fmt.Errorf("New(%s): rotation %d: %w", f, rotation, ErrRotation)
	}
	if rotation != 0 && !f.Rotatable() {
		return nil, fmt.Errorf("New(%s): rotation %d of a symmetric family: %w", f, rotation, ErrRotation)
	}
	if len(par) != len(k.lower) {
		return nil, fmt.Errorf("New(%s): got %d parameters, want %d: %w", f, len(par), len(k.lower), ErrParameters)
	}
	var i int
	for i = range par {
		if math.IsNaN(par[i]) || par[i] < k.lower[i] || par[i] > k.upper[i] {
			return nil, fmt.Errorf("New(%s): parameter %d = %g outside [%g, %g]: %w",
				f, i, par[i], k.lower[i], k.upper[i], ErrParameters)
		}
	}

	return &Bicop{
		family:   f,
		rotation: rotation,
		params:   append([]float64(nil), par...),
		k:        k,
		loglik:   math.NaN(),
	}, nil
}

// NewIndep returns the independence copula.
func NewIndep() *Bicop {
	return &Bicop{family: Indep, k: kernels[Indep], loglik: math.NaN()}
}

// MustNew is New that panics on error; intended for tests and literals.
func MustNew(f Family, rotation int, par ...float64) *Bicop {
	b, err := New(f, rotation, par)
	if err != nil {
		panic(err)
	}

	return b
}

// Family returns the family tag.
func (b *Bicop) Family() Family { return b.family }

// Rotation returns the rotation in degrees.
func (b *Bicop) Rotation() int { return b.rotation }

// Parameters returns a copy of the parameter vector.
func (b *Bicop) Parameters() []float64 { return append([]float64(nil), b.params...) }

// NPars returns the number of free parameters.
func (b *Bicop) NPars() int { return len(b.params) }

// IsIndep reports whether b is the independence copula.
func (b *Bicop) IsIndep() bool { return b.family == Indep }

// Loglik returns the log-likelihood at fit time (NaN if b was constructed directly).
func (b *Bicop) Loglik() float64 { return b.loglik }

// Nobs returns the number of observations used at fit time.
func (b *Bicop) Nobs() int { return b.nobs }

// Tau returns Kendall's tau implied by the parameters; rotations by 90 or 270 degrees negate it.
func (b *Bicop) Tau() float64 {
	t := b.k.tau(b.params)
	if b.rotation == 90 || b.rotation == 270 {
		return -t
	}

	return t
}

// PDF returns the copula density c(u1, u2).
func (b *Bicop) PDF(u1, u2 float64) float64 {
	k, p := b.k, b.params
	switch b.rotation {
	case 90:
		return k.pdf(1-u1, u2, p)
	case 180:
		return k.pdf(1-u1, 1-u2, p)
	case 270:
		return k.pdf(u1, 1-u2, p)
	default:
		return k.pdf(u1, u2, p)
	}
}

// HFunc1 returns ∂C/∂u1 = P(U2 ≤ u2 | U1 = u1).
func (b *Bicop) HFunc1(u1, u2 float64) float64 {
	k, p := b.k, b.params
	var h float64
	switch b.rotation {
	case 90:
		h = k.h1(1-u1, u2, p)
	case 180:
		h = 1 - k.h1(1-u1, 1-u2, p)
	case 270:
		h = 1 - k.h1(u1, 1-u2, p)
	default:
		h = k.h1(u1, u2, p)
	}

	return clampU(h)
}

// HFunc2 returns ∂C/∂u2 = P(U1 ≤ u1 | U2 = u2).
func (b *Bicop) HFunc2(u1, u2 float64) float64 {
	k, p := b.k, b.params
	var h float64
	switch b.rotation {
	case 90:
		h = 1 - k.h1(u2, 1-u1, p)
	case 180:
		h = 1 - k.h1(1-u2, 1-u1, p)
	case 270:
		h = k.h1(1-u2, u1, p)
	default:
		h = k.h1(u2, u1, p)
	}

	return clampU(h)
}

// HInv1 inverts HFunc1 in its second argument: HFunc1(u1, HInv1(u1, q)) = q.
func (b *Bicop) HInv1(u1, q float64) float64 {
	var x float64
	switch b.rotation {
	case 90:
		x = b.baseHinv1(1-u1, q)
	case 180:
		x = 1 - b.baseHinv1(1-u1, 1-q)
	case 270:
		x = 1 - b.baseHinv1(u1, 1-q)
	default:
		x = b.baseHinv1(u1, q)
	}

	return clampU(x)
}

// HInv2 inverts HFunc2 in its first argument: HFunc2(HInv2(q, u2), u2) = q.
func (b *Bicop) HInv2(q, u2 float64) float64 {
	var x float64
	switch b.rotation {
	case 90:
		x = 1 - b.baseHinv1(u2, 1-q)
	case 180:
		x = 1 - b.baseHinv1(1-u2, 1-q)
	case 270:
		x = b.baseHinv1(1-u2, q)
	default:
		x = b.baseHinv1(u2, q)
	}

	return clampU(x)
}

// baseHinv1 is the unrotated inverse, closed form when the family has one.
func (b *Bicop) baseHinv1(u1, q float64) float64 {
	if b.k.hinv1 != nil {
		return b.k.hinv1(u1, q, b.params)
	}
	u1 = clampU(u1)

	return bisect(func(x float64) float64 { return b.k.h1(u1, x, b.params) }, q)
}

// LogLik returns Σ w_i·log c(u1_i, u2_i); nil w means unit weights.
func (b *Bicop) LogLik(u1, u2, w []float64) float64 {
	if b.family == Indep {
		return 0
	}

	return logLik(b.family, b.rotation, b.params, u1, u2, w)
}

// Flip returns the copula of (U2, U1). Symmetric families are unchanged;
// rotations 90 and 270 swap.
func (b *Bicop) Flip() *Bicop {
	out := *b
	out.params = append([]float64(nil), b.params...)
	switch b.rotation {
	case 90:
		out.rotation = 270
	case 270:
		out.rotation = 90
	}

	return &out
}

// Simulate draws n pairs from b using rng via the conditional inverse method.
func (b *Bicop) Simulate(n int, rng *rand.Rand) (u1, u2 []float64) {
	u1 = make([]float64, n)
	u2 = make([]float64, n)
	var i int
	for i = 0; i < n; i++ {
		u1[i] = clampU(rng.Float64())
		u2[i] = b.HInv1(u1[i], clampU(rng.Float64()))
	}

	return u1, u2
}

// String renders b as "family[rotation](p1, p2)", e.g. "clayton[180](3.2)".
func (b *Bicop) String() string {
	var sb strings.Builder
	sb.WriteString(b.family.String())
	if b.rotation != 0 {
		fmt.Fprintf(&sb, "[%d]", b.rotation)
	}
	if len(b.params) > 0 {
		parts := make([]string, len(b.params))
		for i, p := range b.params {
			parts[i] = fmt.Sprintf("%.4g", p)
		}
		sb.WriteString("(" + strings.Join(parts, ", ") + ")")
	}

	return sb.String()
}

// withFit returns a copy of b carrying a fit summary.
func (b *Bicop) withFit(loglik float64, nobs int) *Bicop {
	out := *b
	out.loglik = loglik
	out.nobs = nobs

	return &out
}

// logLik evaluates the log-likelihood for arbitrary parameters without validation.
func logLik(f Family, rotation int, par, u1, u2, w []float64) float64 {
	b := Bicop{family: f, rotation: rotation, params: par, k: kernels[f]}
	var ll float64
	var i int
	for i = range u1 {
		c := b.PDF(u1[i], u2[i])
		if w != nil {
			ll += w[i] * math.Log(c)
		} else {
			ll += math.Log(c)
		}
	}

	return ll
}
