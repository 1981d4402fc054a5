// SPDX-License-Identifier: MIT

package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Measure names a bivariate dependence measure used as tree criterion and
// as thresholding statistic.
type Measure int

const (
	// Tau is Kendall's tau (tau-b under ties).
	Tau Measure = iota
	// Rho is Spearman's rho.
	Rho
	// Hoeffding is Hoeffding's D (scaled to [-0.5, 1]).
	Hoeffding
	// MaxCor is the maximal correlation, approximated by alternating conditional expectations.
	MaxCor
	// Beta is Blomqvist's beta (medial correlation).
	Beta
)

// ErrUnknownMeasure is returned by ParseMeasure for an unknown name.
var ErrUnknownMeasure = errors.New("stats: unknown dependence measure")

// String returns the canonical short name of m.
func (m Measure) String() string {
	switch m {
	case Tau:
		return "tau"
	case Rho:
		return "rho"
	case Hoeffding:
		return "hoeffd"
	case MaxCor:
		return "mcor"
	case Beta:
		return "beta"
	default:
		return fmt.Sprintf("Measure(%d)", int(m))
	}
}

// ParseMeasure maps a short name ("tau", "rho", "hoeffd", "mcor", "beta") to a Measure.
func ParseMeasure(s string) (Measure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tau", "kendall", "":
		return Tau, nil
	case "rho", "spearman":
		return Rho, nil
	case "hoeffd", "hoeffding":
		return Hoeffding, nil
	case "mcor", "maxcor":
		return MaxCor, nil
	case "beta", "blomqvist":
		return Beta, nil
	default:
		return Tau, fmt.Errorf("ParseMeasure(%q): %w", s, ErrUnknownMeasure)
	}
}

// Dependence evaluates measure m on the pair (x, y) with optional weights w.
// A degenerate pair (a constant column, fewer than 2 observations) yields NaN.
func Dependence(m Measure, x, y, w []float64) float64 {
	switch m {
	case Rho:
		return Spearman(x, y, w)
	case Hoeffding:
		return HoeffdingD(x, y)
	case MaxCor:
		return MaximalCorrelation(x, y, w)
	case Beta:
		return Blomqvist(x, y, w)
	default:
		return Kendall(x, y, w)
	}
}

// Kendall returns Kendall's tau-b of (x, y).
//
// Unweighted input uses Knight's O(n log n) merge-sort algorithm; weighted input
// uses the O(n²) pair sum Σ w_i w_j sgn(Δx) sgn(Δy) normalized by the
// weighted counts of x- and y-untied pairs.
func Kendall(x, y, w []float64) float64 {
	n := len(x)
	if n < 2 || len(y) != n {
		return math.NaN()
	}
	if len(w) == n {
		return kendallWeighted(x, y, w)
	}

	// Stage 1: sort by (x, y) lexicographically.
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if x[idx[a]] != x[idx[b]] {
			return x[idx[a]] < x[idx[b]]
		}
		return y[idx[a]] < y[idx[b]]
	})
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, k := range idx {
		xs[i], ys[i] = x[k], y[k]
	}

	// Stage 2: x ties and joint ties on the sorted runs.
	var xTies, jointTies float64
	for i := 0; i < n; {
		j := i + 1
		for j < n && xs[j] == xs[i] {
			j++
		}
		xTies += pairs(j - i)
		for a := i; a < j; {
			b := a + 1
			for b < j && ys[b] == ys[a] {
				b++
			}
			jointTies += pairs(b - a)
			a = b
		}
		i = j
	}

	// Stage 3: count strict inversions of ys while sorting it.
	swaps := float64(mergeCount(ys, make([]float64, n)))
	var yTies float64
	for i := 0; i < n; {
		j := i + 1
		for j < n && ys[j] == ys[i] {
			j++
		}
		yTies += pairs(j - i)
		i = j
	}

	total := pairs(n)
	den := math.Sqrt((total - xTies) * (total - yTies))
	if den == 0 {
		return math.NaN()
	}

	return (total - xTies - yTies + jointTies - 2*swaps) / den
}

// kendallWeighted is the O(n²) weighted tau-b.
func kendallWeighted(x, y, w []float64) float64 {
	var num, nx, ny float64
	var i, j int
	for i = 0; i < len(x); i++ {
		for j = i + 1; j < len(x); j++ {
			ww := w[i] * w[j]
			sx := sign(x[i] - x[j])
			sy := sign(y[i] - y[j])
			num += ww * sx * sy
			nx += ww * sx * sx
			ny += ww * sy * sy
		}
	}
	if nx == 0 || ny == 0 {
		return math.NaN()
	}

	return num / math.Sqrt(nx*ny)
}

// Spearman returns Spearman's rho: the (weighted) Pearson correlation of ranks.
func Spearman(x, y, w []float64) float64 {
	if len(x) < 2 || len(y) != len(x) {
		return math.NaN()
	}
	var weights []float64
	if len(w) == len(x) {
		weights = w
	}

	return stat.Correlation(Ranks(x), Ranks(y), weights)
}

// HoeffdingD returns Hoeffding's D statistic scaled by 30, so D ∈ [-0.5, 1] and
// D ≈ 1 under perfect monotone dependence. Needs n ≥ 5; ties are broken by rank averaging.
// Weights are not supported by the statistic and are ignored.
func HoeffdingD(x, y []float64) float64 {
	n := len(x)
	if n < 5 || len(y) != n {
		return math.NaN()
	}
	r := Ranks(x)
	s := Ranks(y)
	var d1, d2, d3 float64
	var i, j int
	for i = 0; i < n; i++ {
		// q = 1 + number of points strictly below-left of point i (half for ties)
		q := 1.0
		for j = 0; j < n; j++ {
			if j == i {
				continue
			}
			switch {
			case r[j] < r[i] && s[j] < s[i]:
				q++
			case r[j] == r[i] && s[j] == s[i]:
				q += 0.25
			case r[j] == r[i] && s[j] < s[i], r[j] < r[i] && s[j] == s[i]:
				q += 0.5
			}
		}
		d1 += (q - 1) * (q - 2)
		d2 += (r[i] - 1) * (r[i] - 2) * (s[i] - 1) * (s[i] - 2)
		d3 += (r[i] - 2) * (s[i] - 2) * (q - 1)
	}
	fn := float64(n)
	den := fn * (fn - 1) * (fn - 2) * (fn - 3) * (fn - 4)

	return 30 * ((fn-2)*(fn-3)*d1 + d2 - 2*(fn-2)*d3) / den
}

// Blomqvist returns Blomqvist's beta, 4·C_n(1/2, 1/2) - 1, computed on the
// rank scale so the result does not depend on the margins.
func Blomqvist(x, y, w []float64) float64 {
	n := len(x)
	if n < 2 || len(y) != n {
		return math.NaN()
	}
	rx := Ranks(x)
	ry := Ranks(y)
	mid := float64(n+1) / 2
	var hit, tot float64
	for i := 0; i < n; i++ {
		wi := 1.0
		if len(w) == n {
			wi = w[i]
		}
		tot += wi
		if (rx[i] <= mid) == (ry[i] <= mid) {
			hit += wi
		}
	}
	if tot == 0 {
		return math.NaN()
	}

	// Concordant-quadrant mass p gives beta = 2p - 1.
	return 2*hit/tot - 1
}

// maxCorIterations bounds the alternating-conditional-expectation loop.
const maxCorIterations = 100

// MaximalCorrelation approximates sup_{f,g} corr(f(X), g(Y)) by alternating
// conditional expectations over ⌈n^{1/3}⌉ rank bins per variable. The result lies in [0,1].
func MaximalCorrelation(x, y, w []float64) float64 {
	n := len(x)
	if n < 4 || len(y) != n {
		return math.NaN()
	}
	weights := make([]float64, n)
	if len(w) == n {
		copy(weights, w)
	} else {
		for i := range weights {
			weights[i] = 1
		}
	}
	if floats.Sum(weights) <= 0 {
		return math.NaN()
	}

	bins := int(math.Ceil(math.Cbrt(float64(n))))
	if bins < 2 {
		bins = 2
	}
	bx := binIndex(Ranks(x), n, bins)
	by := binIndex(Ranks(y), n, bins)

	f := make([]float64, n)
	g := Ranks(y)
	if !standardize(g, weights) {
		return math.NaN()
	}
	prev := math.Inf(-1)
	var corr float64
	for it := 0; it < maxCorIterations; it++ {
		conditionalMean(f, g, bx, bins, weights)
		if !standardize(f, weights) {
			return math.NaN()
		}
		conditionalMean(g, f, by, bins, weights)
		if !standardize(g, weights) {
			return math.NaN()
		}
		corr = stat.Correlation(f, g, weights)
		if math.Abs(corr-prev) < 1e-10 {
			break
		}
		prev = corr
	}

	return math.Abs(corr)
}

// binIndex maps ranks to equal-count bins 0..bins-1.
func binIndex(r []float64, n, bins int) []int {
	out := make([]int, n)
	for i, v := range r {
		b := int((v - 1) * float64(bins) / float64(n))
		if b >= bins {
			b = bins - 1
		}
		out[i] = b
	}

	return out
}

// conditionalMean sets dst[i] = E_w[src | bin(i)].
func conditionalMean(dst, src []float64, bin []int, bins int, w []float64) {
	sum := make([]float64, bins)
	mass := make([]float64, bins)
	for i, b := range bin {
		sum[b] += w[i] * src[i]
		mass[b] += w[i]
	}
	for i, b := range bin {
		if mass[b] > 0 {
			dst[i] = sum[b] / mass[b]
		} else {
			dst[i] = 0
		}
	}
}

// standardize centers v and scales it to unit weighted variance; false when v is constant.
func standardize(v, w []float64) bool {
	mean, sd := stat.MeanStdDev(v, w)
	if sd == 0 || math.IsNaN(sd) {
		return false
	}
	for i := range v {
		v[i] = (v[i] - mean) / sd
	}

	return true
}

// mergeCount sorts a ascending (using buf as scratch) and returns the number of
// strict inversions (pairs i<j with a[i] > a[j]).
func mergeCount(a, buf []float64) int64 {
	n := len(a)
	if n < 2 {
		return 0
	}
	mid := n / 2
	inv := mergeCount(a[:mid], buf[:mid]) + mergeCount(a[mid:], buf[mid:])
	i, j, k := 0, mid, 0
	for i < mid && j < n {
		if a[j] < a[i] {
			buf[k] = a[j]
			inv += int64(mid - i)
			j++
		} else {
			buf[k] = a[i]
			i++
		}
		k++
	}
	k += copy(buf[k:], a[i:mid])
	copy(buf[k:], a[j:n])
	copy(a, buf[:n])

	return inv
}

// pairs returns t(t-1)/2.
func pairs(t int) float64 { return float64(t) * float64(t-1) / 2 }

// sign returns -1, 0 or +1.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
