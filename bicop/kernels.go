// SPDX-License-Identifier: MIT

package bicop

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// Numerical guards shared by all kernels.
const (
	// uEps keeps arguments away from 0 and 1, where most kernels have poles.
	uEps = 1e-10
	// hinvTol is the bisection tolerance for inverse h-functions without closed form.
	hinvTol = 1e-12
	// hinvMaxIter caps bisection steps (2^-60 < hinvTol).
	hinvMaxIter = 60
)

// kernel holds the unrotated (0°) building blocks of one family.
// All families here are exchangeable, so h2(u1,u2) = h1(u2,u1) and the
// rotation layer derives every other function from pdf, h1 and hinv1.
type kernel struct {
	// pdf is the copula density c(u1,u2).
	pdf func(u1, u2 float64, p []float64) float64
	// h1 is ∂C/∂u1 = P(U2 ≤ u2 | U1 = u1).
	h1 func(u1, u2 float64, p []float64) float64
	// hinv1 solves h1(u1, x) = q for x; nil means bisection.
	hinv1 func(u1, q float64, p []float64) float64
	// tau maps parameters to Kendall's tau.
	tau func(p []float64) float64
	// fromTau maps tau to parameters; nil when no one-to-one inverse exists.
	fromTau func(tau float64) []float64
	// lower, upper are the parameter box.
	lower, upper []float64
}

var kernels = map[Family]*kernel{
	Indep: {
		pdf:   func(_, _ float64, _ []float64) float64 { return 1 },
		h1:    func(_, u2 float64, _ []float64) float64 { return u2 },
		hinv1: func(_, q float64, _ []float64) float64 { return q },
		tau:   func(_ []float64) float64 { return 0 },
	},
	Gaussian: {
		pdf:     gaussPDF,
		h1:      gaussH1,
		hinv1:   gaussHinv1,
		tau:     ellipticalTau,
		fromTau: func(t float64) []float64 { return []float64{math.Sin(t * math.Pi / 2)} },
		lower:   []float64{-0.9999},
		upper:   []float64{0.9999},
	},
	Student: {
		pdf:   studentPDF,
		h1:    studentH1,
		hinv1: studentHinv1,
		tau:   ellipticalTau,
		lower: []float64{-0.9999, 2.01},
		upper: []float64{0.9999, 50},
	},
	Clayton: {
		pdf:     claytonPDF,
		h1:      claytonH1,
		hinv1:   claytonHinv1,
		tau:     func(p []float64) float64 { return p[0] / (p[0] + 2) },
		fromTau: func(t float64) []float64 { return []float64{2 * t / (1 - t)} },
		lower:   []float64{1e-10},
		upper:   []float64{28},
	},
	Gumbel: {
		pdf:     gumbelPDF,
		h1:      gumbelH1,
		tau:     func(p []float64) float64 { return 1 - 1/p[0] },
		fromTau: func(t float64) []float64 { return []float64{1 / (1 - t)} },
		lower:   []float64{1},
		upper:   []float64{50},
	},
	Frank: {
		pdf:     frankPDF,
		h1:      frankH1,
		hinv1:   frankHinv1,
		tau:     func(p []float64) float64 { return frankTau(p[0]) },
		fromTau: frankFromTau,
		lower:   []float64{-35},
		upper:   []float64{35},
	},
	Joe: {
		pdf:     joePDF,
		h1:      joeH1,
		tau:     func(p []float64) float64 { return joeTau(p[0]) },
		fromTau: joeFromTau,
		lower:   []float64{1},
		upper:   []float64{30},
	},
}

// clampU maps u into [uEps, 1-uEps].
func clampU(u float64) float64 {
	switch {
	case u < uEps:
		return uEps
	case u > 1-uEps:
		return 1 - uEps
	default:
		return u
	}
}

// bisect solves f(x) = q for x ∈ (0,1), f increasing.
func bisect(f func(float64) float64, q float64) float64 {
	lo, hi := 0.0, 1.0
	var it int
	for it = 0; it < hinvMaxIter && hi-lo > hinvTol; it++ {
		mid := (lo + hi) / 2
		if f(mid) < q {
			lo = mid
		} else {
			hi = mid
		}
	}

	return (lo + hi) / 2
}

// --- Gaussian ---

func gaussPDF(u1, u2 float64, p []float64) float64 {
	rho := p[0]
	x := distuv.UnitNormal.Quantile(clampU(u1))
	y := distuv.UnitNormal.Quantile(clampU(u2))
	r2 := 1 - rho*rho

	return math.Exp(-(rho*rho*(x*x+y*y)-2*rho*x*y)/(2*r2)) / math.Sqrt(r2)
}

func gaussH1(u1, u2 float64, p []float64) float64 {
	rho := p[0]
	x := distuv.UnitNormal.Quantile(clampU(u1))
	y := distuv.UnitNormal.Quantile(clampU(u2))

	return distuv.UnitNormal.CDF((y - rho*x) / math.Sqrt(1-rho*rho))
}

func gaussHinv1(u1, q float64, p []float64) float64 {
	rho := p[0]
	x := distuv.UnitNormal.Quantile(clampU(u1))
	z := distuv.UnitNormal.Quantile(clampU(q))

	return distuv.UnitNormal.CDF(z*math.Sqrt(1-rho*rho) + rho*x)
}

// ellipticalTau is 2/π·asin(ρ) for both elliptical families.
func ellipticalTau(p []float64) float64 { return 2 / math.Pi * math.Asin(p[0]) }

// --- Student t ---

func studentPDF(u1, u2 float64, p []float64) float64 {
	rho, nu := p[0], p[1]
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	x := t.Quantile(clampU(u1))
	y := t.Quantile(clampU(u2))
	r2 := 1 - rho*rho
	lg1, _ := math.Lgamma((nu + 2) / 2)
	lg2, _ := math.Lgamma(nu / 2)
	lg3, _ := math.Lgamma((nu + 1) / 2)
	q := (x*x + y*y - 2*rho*x*y) / (nu * r2)
	logc := lg1 + lg2 - 2*lg3 - 0.5*math.Log(r2) -
		(nu+2)/2*math.Log1p(q) +
		(nu+1)/2*(math.Log1p(x*x/nu)+math.Log1p(y*y/nu))

	return math.Exp(logc)
}

func studentH1(u1, u2 float64, p []float64) float64 {
	rho, nu := p[0], p[1]
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	x := t.Quantile(clampU(u1))
	y := t.Quantile(clampU(u2))
	scale := math.Sqrt((nu + x*x) * (1 - rho*rho) / (nu + 1))

	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu + 1}.CDF((y - rho*x) / scale)
}

func studentHinv1(u1, q float64, p []float64) float64 {
	rho, nu := p[0], p[1]
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	x := t.Quantile(clampU(u1))
	z := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu + 1}.Quantile(clampU(q))
	scale := math.Sqrt((nu + x*x) * (1 - rho*rho) / (nu + 1))

	return t.CDF(z*scale + rho*x)
}

// --- Clayton ---

func claytonPDF(u1, u2 float64, p []float64) float64 {
	th := p[0]
	u1, u2 = clampU(u1), clampU(u2)
	s := math.Pow(u1, -th) + math.Pow(u2, -th) - 1
	logc := math.Log1p(th) - (th+1)*(math.Log(u1)+math.Log(u2)) - (2+1/th)*math.Log(s)

	return math.Exp(logc)
}

func claytonH1(u1, u2 float64, p []float64) float64 {
	th := p[0]
	u1, u2 = clampU(u1), clampU(u2)
	s := math.Pow(u1, -th) + math.Pow(u2, -th) - 1

	return math.Pow(u1, -th-1) * math.Pow(s, -1-1/th)
}

func claytonHinv1(u1, q float64, p []float64) float64 {
	th := p[0]
	u1, q = clampU(u1), clampU(q)
	a := math.Pow(q*math.Pow(u1, th+1), -th/(th+1))

	return math.Pow(a+1-math.Pow(u1, -th), -1/th)
}

// --- Gumbel ---

func gumbelPDF(u1, u2 float64, p []float64) float64 {
	th := p[0]
	u1, u2 = clampU(u1), clampU(u2)
	x, y := -math.Log(u1), -math.Log(u2)
	t := math.Pow(x, th) + math.Pow(y, th)
	a := math.Pow(t, 1/th)
	logc := -a + x + y + (th-1)*(math.Log(x)+math.Log(y)) + (2/th-2)*math.Log(t) + math.Log(a+th-1) - math.Log(a)

	return math.Exp(logc)
}

func gumbelH1(u1, u2 float64, p []float64) float64 {
	th := p[0]
	u1, u2 = clampU(u1), clampU(u2)
	x, y := -math.Log(u1), -math.Log(u2)
	t := math.Pow(x, th) + math.Pow(y, th)
	a := math.Pow(t, 1/th)

	return math.Exp(-a+(1/th-1)*math.Log(t)+(th-1)*math.Log(x)) / u1
}

// --- Frank ---

// frankNearZero short-circuits |θ| below which Frank equals independence numerically.
const frankNearZero = 1e-8

func frankPDF(u1, u2 float64, p []float64) float64 {
	th := p[0]
	if math.Abs(th) < frankNearZero {
		return 1
	}
	u1, u2 = clampU(u1), clampU(u2)
	em := math.Expm1(-th)
	den := em + math.Expm1(-th*u1)*math.Expm1(-th*u2)

	return -th * em * math.Exp(-th*(u1+u2)) / (den * den)
}

func frankH1(u1, u2 float64, p []float64) float64 {
	th := p[0]
	if math.Abs(th) < frankNearZero {
		return u2
	}
	u1, u2 = clampU(u1), clampU(u2)
	num := math.Exp(-th*u1) * math.Expm1(-th*u2)
	den := math.Expm1(-th) + math.Expm1(-th*u1)*math.Expm1(-th*u2)

	return num / den
}

func frankHinv1(u1, q float64, p []float64) float64 {
	th := p[0]
	if math.Abs(th) < frankNearZero {
		return q
	}
	u1, q = clampU(u1), clampU(q)
	e := math.Exp(-th * u1)

	return -math.Log1p(q*math.Expm1(-th)/(e*(1-q)+q)) / th
}

// debyeNodes is the Gauss-Legendre order of the Debye integral.
const debyeNodes = 64

// debye1 is D1(x) = (1/x)∫₀ˣ t/(eᵗ-1) dt for x > 0.
func debye1(x float64) float64 {
	f := func(t float64) float64 {
		if t == 0 {
			return 1
		}
		return t / math.Expm1(t)
	}

	return quad.Fixed(f, 0, x, debyeNodes, nil, 0) / x
}

// frankTau is 1 - 4/θ·(1 - D1(θ)), odd in θ.
func frankTau(th float64) float64 {
	if math.Abs(th) < frankNearZero {
		return 0
	}
	a := math.Abs(th)
	tau := 1 - 4/a*(1-debye1(a))
	if th < 0 {
		return -tau
	}

	return tau
}

// frankFromTau inverts frankTau by bisection on θ ∈ [-35, 35].
func frankFromTau(tau float64) []float64 {
	if math.Abs(tau) < 1e-10 {
		return []float64{0}
	}
	a := math.Abs(tau)
	lo, hi := frankNearZero, 35.0
	var it int
	for it = 0; it < 100 && hi-lo > 1e-10; it++ {
		mid := (lo + hi) / 2
		if frankTau(mid) < a {
			lo = mid
		} else {
			hi = mid
		}
	}
	th := (lo + hi) / 2
	if tau < 0 {
		th = -th
	}

	return []float64{th}
}

// --- Joe ---

func joePDF(u1, u2 float64, p []float64) float64 {
	th := p[0]
	ub, vb := 1-clampU(u1), 1-clampU(u2)
	a, b := math.Pow(ub, th), math.Pow(vb, th)
	s := a + b - a*b
	logc := (1/th-2)*math.Log(s) + (th-1)*(math.Log(ub)+math.Log(vb)) + math.Log(th-1+s)

	return math.Exp(logc)
}

func joeH1(u1, u2 float64, p []float64) float64 {
	th := p[0]
	ub, vb := 1-clampU(u1), 1-clampU(u2)
	a, b := math.Pow(ub, th), math.Pow(vb, th)
	s := a + b - a*b

	return math.Pow(s, 1/th-1) * math.Pow(ub, th-1) * (1 - b)
}

// joeTau is 1 + 2/(2-θ)·(ψ(2) - ψ(2/θ + 1)), with the limit 2 - π²/6 at θ = 2.
func joeTau(th float64) float64 {
	if math.Abs(th-2) < 1e-8 {
		return 2 - math.Pi*math.Pi/6
	}

	return 1 + 2/(2-th)*(mathext.Digamma(2)-mathext.Digamma(2/th+1))
}

// joeFromTau inverts joeTau by bisection on θ ∈ [1, 30].
func joeFromTau(tau float64) []float64 {
	if tau <= 0 {
		return []float64{1}
	}
	lo, hi := 1.0, 30.0
	var it int
	for it = 0; it < 100 && hi-lo > 1e-10; it++ {
		mid := (lo + hi) / 2
		if joeTau(mid) < tau {
			lo = mid
		} else {
			hi = mid
		}
	}

	return []float64{(lo + hi) / 2}
}
