package vinecop_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/matrix"
	"github.com/katalvlaran/rvine/qrng"
	"github.com/katalvlaran/rvine/stats"
	"github.com/katalvlaran/rvine/structure"
	"github.com/katalvlaran/rvine/vinecop"
)

var ctx = context.Background()

// sample simulates n pseudo-random rows from vc.
func sample(t *testing.T, vc *vinecop.Vinecop, n int, seed int64) *matrix.Dense {
	t.Helper()
	eng, err := qrng.New(qrng.KindPseudo, vc.Dim(), seed)
	require.NoError(t, err)
	u, next, err := vc.Simulate(ctx, n, eng)
	require.NoError(t, err)
	require.Equal(t, uint64(n), next.Pos)

	return u
}

// uniform returns an n×d matrix of pseudo-random points.
func uniform(t *testing.T, n, d int, seed int64) *matrix.Dense {
	t.Helper()
	eng, err := qrng.New(qrng.KindPseudo, d, seed)
	require.NoError(t, err)
	u, _, err := eng.Next(n)
	require.NoError(t, err)

	return u
}

// mixedVine puts a different family on every edge of a random structure.
func mixedVine(t *testing.T, d, trunc int, seed int64) *vinecop.Vinecop {
	t.Helper()
	rv, err := structure.Random(d, qrng.RNGFromSeed(seed))
	require.NoError(t, err)
	if trunc < d-1 {
		rv, err = rv.Truncate(trunc)
		require.NoError(t, err)
	}
	zoo := []*bicop.Bicop{
		bicop.MustNew(bicop.Gaussian, 0, 0.6),
		bicop.MustNew(bicop.Clayton, 90, 1.5),
		bicop.MustNew(bicop.Gumbel, 180, 1.8),
		bicop.MustNew(bicop.Frank, 0, -4),
		bicop.MustNew(bicop.Student, 0, 0.4, 5),
		bicop.MustNew(bicop.Joe, 270, 1.6),
		bicop.NewIndep(),
	}
	pcs := make([][]*bicop.Bicop, rv.TruncLevel())
	var k int
	for tt := range pcs {
		pcs[tt] = make([]*bicop.Bicop, d-1-tt)
		for e := range pcs[tt] {
			pcs[tt][e] = zoo[k%len(zoo)]
			k++
		}
	}
	vc, err := vinecop.New(rv, pcs)
	require.NoError(t, err)

	return vc
}

// TestIndependence_DensityIsOne checks that the all-independence vine has density 1.
func TestIndependence_DensityIsOne(t *testing.T) {
	rv, err := structure.NewDVine([]int{2, 3, 1}, -1)
	require.NoError(t, err)
	vc, err := vinecop.NewIndep(rv)
	require.NoError(t, err)

	u := uniform(t, 500, 3, 7)
	dens, err := vc.PDF(ctx, u)
	require.NoError(t, err)
	for _, v := range dens {
		assert.Equal(t, 1.0, v)
	}
	assert.Zero(t, vc.NPars())
	ll, err := vc.LogLik(ctx, u, nil)
	require.NoError(t, err)
	assert.Zero(t, ll)
}

// TestPDF_GaussianDVineMatchesNormalCopula compares a 3-dimensional Gaussian D-vine
// with the closed-form normal copula density.
func TestPDF_GaussianDVineMatchesNormalCopula(t *testing.T) {
	r12, r23, r13g2 := 0.6, -0.4, 0.3
	rv, err := structure.NewDVine([]int{1, 2, 3}, -1)
	require.NoError(t, err)
	vc, err := vinecop.New(rv, [][]*bicop.Bicop{
		{bicop.MustNew(bicop.Gaussian, 0, r12), bicop.MustNew(bicop.Gaussian, 0, r23)},
		{bicop.MustNew(bicop.Gaussian, 0, r13g2)},
	})
	require.NoError(t, err)

	r13 := r13g2*math.Sqrt((1-r12*r12)*(1-r23*r23)) + r12*r23
	R := mat.NewSymDense(3, []float64{1, r12, r13, r12, 1, r23, r13, r23, 1})
	var inv mat.Dense
	require.NoError(t, inv.Inverse(R))
	det := mat.Det(R)

	u := uniform(t, 50, 3, 11)
	dens, err := vc.PDF(ctx, u)
	require.NoError(t, err)
	z := make([]float64, 3)
	for i := 0; i < u.Rows(); i++ {
		for j, v := range u.RowView(i) {
			z[j] = distuv.UnitNormal.Quantile(v)
		}
		var q float64
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				id := 0.0
				if a == b {
					id = 1
				}
				q += z[a] * (inv.At(a, b) - id) * z[b]
			}
		}
		want := math.Exp(-0.5*q) / math.Sqrt(det)
		assert.InDelta(t, want, dens[i], 1e-8*want, "row %d", i)
	}
}

// TestPDF_Bivariate reduces to the pair copula for d = 2.
func TestPDF_Bivariate(t *testing.T) {
	rv, err := structure.NewDVine([]int{2, 1}, -1)
	require.NoError(t, err)
	pc := bicop.MustNew(bicop.Clayton, 0, 2.5)
	vc, err := vinecop.New(rv, [][]*bicop.Bicop{{pc}})
	require.NoError(t, err)

	u := uniform(t, 40, 2, 3)
	dens, err := vc.PDF(ctx, u)
	require.NoError(t, err)
	for i := 0; i < u.Rows(); i++ {
		row := u.RowView(i)
		assert.InDelta(t, pc.PDF(row[1], row[0]), dens[i], 1e-12)
	}
}

// TestRosenblatt_RoundTrip inverts the Rosenblatt transform on full and truncated vines.
func TestRosenblatt_RoundTrip(t *testing.T) {
	for _, tc := range []struct{ d, trunc int }{{3, 2}, {5, 4}, {6, 2}, {7, 6}} {
		vc := mixedVine(t, tc.d, tc.trunc, int64(tc.d))
		w := uniform(t, 200, tc.d, 5)
		u, err := vc.InverseRosenblatt(ctx, w)
		require.NoError(t, err)
		back, err := vc.Rosenblatt(ctx, u)
		require.NoError(t, err)
		for i := 0; i < w.Rows(); i++ {
			for j := 0; j < tc.d; j++ {
				a, _ := w.At(i, j)
				b, _ := back.At(i, j)
				assert.InDelta(t, a, b, 1e-6, "d=%d row %d col %d", tc.d, i, j)
			}
		}
	}
}

// TestSimulate_Margins checks Kendall's tau of simulated tree-1 pairs.
func TestSimulate_Margins(t *testing.T) {
	rv, err := structure.NewDVine([]int{1, 2, 3}, -1)
	require.NoError(t, err)
	vc, err := vinecop.New(rv, [][]*bicop.Bicop{
		{bicop.MustNew(bicop.Clayton, 0, 2), bicop.MustNew(bicop.Gumbel, 0, 1.5)},
		{bicop.NewIndep()},
	})
	require.NoError(t, err)
	u := sample(t, vc, 4000, 99)
	assert.InDelta(t, 0.5, stats.Kendall(u.Col(0), u.Col(1), nil), 0.04)
	assert.InDelta(t, 1.0/3, stats.Kendall(u.Col(1), u.Col(2), nil), 0.04)
}

// TestSimulate_BatchAndSplitInvariance draws the same points in one call, in two
// calls chained through the returned engine, and with several workers.
func TestSimulate_BatchAndSplitInvariance(t *testing.T) {
	vc := mixedVine(t, 4, 3, 21)
	for _, kind := range []qrng.Kind{qrng.KindPseudo, qrng.KindHalton, qrng.KindSobol} {
		eng, err := qrng.New(kind, 4, 17)
		require.NoError(t, err)
		whole, _, err := vc.Simulate(ctx, 700, eng)
		require.NoError(t, err)

		first, next, err := vc.Simulate(ctx, 300, eng)
		require.NoError(t, err)
		second, _, err := vc.Simulate(ctx, 400, next)
		require.NoError(t, err)
		for i := 0; i < 300; i++ {
			assert.Equal(t, whole.RowView(i), first.RowView(i))
		}
		for i := 0; i < 400; i++ {
			assert.Equal(t, whole.RowView(300+i), second.RowView(i))
		}

		for _, w := range []int{2, 4} {
			par, _, err := vc.WithNumThreads(w).Simulate(ctx, 700, eng)
			require.NoError(t, err)
			require.Equal(t, whole, par, "kind=%s workers=%d", kind, w)
		}
	}
}

// TestCDF_Independence approximates u1·u2 with quasi-random points.
func TestCDF_Independence(t *testing.T) {
	rv, err := structure.NewDVine([]int{1, 2}, -1)
	require.NoError(t, err)
	vc, err := vinecop.NewIndep(rv)
	require.NoError(t, err)
	u, err := matrix.NewDenseFrom([][]float64{{0.5, 0.5}, {0.2, 0.9}, {1, 1}})
	require.NoError(t, err)
	eng, err := qrng.New(qrng.KindHalton, 2, 0)
	require.NoError(t, err)

	cdf, next, err := vc.CDF(ctx, u, 4096, eng)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cdf[0], 0.01)
	assert.InDelta(t, 0.18, cdf[1], 0.01)
	assert.Equal(t, 1.0, cdf[2])
	assert.Equal(t, uint64(4096), next.Pos)

	again, _, err := vc.WithNumThreads(3).CDF(ctx, u, 4096, eng)
	require.NoError(t, err)
	assert.Equal(t, cdf, again)
}

// TestCriteria_ClosedForm checks AIC, BIC and both mBICV directions of a fitted model.
func TestCriteria_ClosedForm(t *testing.T) {
	rv, err := structure.NewDVine([]int{1, 2, 3, 4}, -1)
	require.NoError(t, err)
	truth, err := vinecop.New(rv, [][]*bicop.Bicop{
		{bicop.MustNew(bicop.Gaussian, 0, 0.7), bicop.MustNew(bicop.Gaussian, 0, 0.5), bicop.MustNew(bicop.Gaussian, 0, -0.6)},
		{bicop.NewIndep(), bicop.NewIndep()},
		{bicop.NewIndep()},
	})
	require.NoError(t, err)
	u := sample(t, truth, 500, 4)
	fit, err := vinecop.Fit(ctx, u, truth, vinecop.DefaultControls())
	require.NoError(t, err)
	assert.Equal(t, 500, fit.Nobs())
	assert.Equal(t, 3.0, fit.NPars())

	ll := fit.Loglik()
	computed, err := fit.LogLik(ctx, u, nil)
	require.NoError(t, err)
	assert.InDelta(t, computed, ll, 1e-8)

	aic, err := fit.AIC()
	require.NoError(t, err)
	assert.InDelta(t, -2*ll+6, aic, 1e-9)
	bic, err := fit.BIC()
	require.NoError(t, err)
	assert.InDelta(t, -2*ll+3*math.Log(500), bic, 1e-9)

	penalty := func(psi float64) float64 {
		return -2 * (3*math.Log(psi) + 2*math.Log(1-psi*psi) + math.Log(1-psi*psi*psi))
	}
	lo, err := fit.MBICV(0.1)
	require.NoError(t, err)
	hi, err := fit.MBICV(0.9)
	require.NoError(t, err)
	assert.InDelta(t, bic+penalty(0.1), lo, 1e-9)
	assert.InDelta(t, bic+penalty(0.9), hi, 1e-9)
	assert.Greater(t, lo, hi)

	// An all-independence model reverses the ordering.
	indep, err := vinecop.NewIndep(rv)
	require.NoError(t, err)
	lo, err = indep.MBICVAt(0, 500, 0.1)
	require.NoError(t, err)
	hi, err = indep.MBICVAt(0, 500, 0.9)
	require.NoError(t, err)
	assert.Less(t, lo, hi)

	_, err = indep.MBICV(0.5)
	assert.ErrorIs(t, err, vinecop.ErrNotFitted)
	_, err = fit.MBICV(1)
	assert.ErrorIs(t, err, vinecop.ErrControls)
}

// TestNew_Errors covers pair-copula shape errors and evaluation input errors.
func TestNew_Errors(t *testing.T) {
	rv, err := structure.NewDVine([]int{1, 2, 3}, -1)
	require.NoError(t, err)

	_, err = vinecop.New(rv, [][]*bicop.Bicop{{bicop.NewIndep()}})
	assert.ErrorIs(t, err, vinecop.ErrPairCopulas)
	_, err = vinecop.New(rv, [][]*bicop.Bicop{{bicop.NewIndep(), nil}})
	assert.ErrorIs(t, err, vinecop.ErrPairCopulas)
	_, err = vinecop.New(nil, nil)
	assert.ErrorIs(t, err, structure.ErrStructure)

	// Fewer trees truncate the structure.
	vc, err := vinecop.New(rv, [][]*bicop.Bicop{{bicop.NewIndep(), bicop.NewIndep()}})
	require.NoError(t, err)
	assert.Equal(t, 1, vc.TruncLevel())
	assert.Equal(t, 1, vc.Structure().TruncLevel())
	_, err = vc.PairCopula(1, 0)
	assert.ErrorIs(t, err, structure.ErrOutOfRange)

	bad, _ := matrix.NewDenseFrom([][]float64{{0.5, 0.5}})
	_, err = vc.PDF(ctx, bad)
	assert.ErrorIs(t, err, vinecop.ErrDimensionMismatch)
	out, _ := matrix.NewDenseFrom([][]float64{{0.5, 1.5, 0.2}})
	_, err = vc.PDF(ctx, out)
	assert.ErrorIs(t, err, matrix.ErrOutOfUnitCube)
	eng, _ := qrng.New(qrng.KindSobol, 2, 1)
	_, _, err = vc.Simulate(ctx, 10, eng)
	assert.ErrorIs(t, err, vinecop.ErrDimensionMismatch)
}

// TestAccessors reads back a hand-specified model.
func TestAccessors(t *testing.T) {
	rv, err := structure.NewCVine([]int{1, 2, 3}, -1)
	require.NoError(t, err)
	vc, err := vinecop.New(rv, [][]*bicop.Bicop{
		{bicop.MustNew(bicop.Clayton, 90, 2), bicop.MustNew(bicop.Student, 0, 0.5, 4)},
		{bicop.MustNew(bicop.Frank, 0, 3)},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]bicop.Family{{bicop.Clayton, bicop.Student}, {bicop.Frank}}, vc.Families())
	assert.Equal(t, [][]int{{90, 0}, {0}}, vc.Rotations())
	assert.Equal(t, [][][]float64{{{2}, {0.5, 4}}, {{3}}}, vc.Parameters())
	assert.Equal(t, 4.0, vc.NPars())
	taus := vc.Taus()
	assert.InDelta(t, -0.5, taus[0][0], 1e-12)
	assert.True(t, math.IsNaN(vc.Loglik()))
	assert.Zero(t, vc.Nobs())
	assert.Empty(t, vc.Diagnostics())
	assert.Contains(t, vc.String(), "tree 2: frank(3)")
}
