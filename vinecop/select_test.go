package vinecop_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/matrix"
	"github.com/katalvlaran/rvine/qrng"
	"github.com/katalvlaran/rvine/structure"
	"github.com/katalvlaran/rvine/vinecop"
)

// gaussVine puts Gaussian copulas with correlation rho[t] on every edge of tree t.
func gaussVine(t *testing.T, rv *structure.RVine, rho ...float64) *vinecop.Vinecop {
	t.Helper()
	pcs := make([][]*bicop.Bicop, rv.TruncLevel())
	for tt := range pcs {
		pcs[tt] = make([]*bicop.Bicop, rv.Dim()-1-tt)
		for e := range pcs[tt] {
			if tt < len(rho) && rho[tt] != 0 {
				pcs[tt][e] = bicop.MustNew(bicop.Gaussian, 0, rho[tt])
			} else {
				pcs[tt][e] = bicop.NewIndep()
			}
		}
	}
	vc, err := vinecop.New(rv, pcs)
	require.NoError(t, err)

	return vc
}

// fastControls keeps selection cheap: Gaussian or independence, itau.
func fastControls(opts ...vinecop.Option) vinecop.Controls {
	base := []vinecop.Option{
		vinecop.WithFamilySet(bicop.Indep, bicop.Gaussian),
		vinecop.WithParMethod(bicop.ITau),
	}

	return vinecop.NewControls(append(base, opts...)...)
}

// TestSelect_NonparMultInert checks the bandwidth multiplier is validated but does
// not change a parametric selection.
func TestSelect_NonparMultInert(t *testing.T) {
	rv, err := structure.NewDVine([]int{1, 2, 3}, -1)
	require.NoError(t, err)
	u := sample(t, gaussVine(t, rv, 0.6, 0.3), 300, 8)

	base, err := vinecop.Select(ctx, u, fastControls())
	require.NoError(t, err)
	c := fastControls()
	c.NonparMult = 3
	wide, err := vinecop.Select(ctx, u, c)
	require.NoError(t, err)
	assert.Equal(t, base.Families(), wide.Families())
	assert.Equal(t, base.Parameters(), wide.Parameters())
	assert.Equal(t, base.Loglik(), wide.Loglik())

	c.NonparMult = 0
	_, err = vinecop.Select(ctx, u, c)
	assert.ErrorIs(t, err, bicop.ErrParameters)
}

// TestSelect_Proximity checks the structures selected for d = 3..10.
func TestSelect_Proximity(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for d := 3; d <= 10; d++ {
		rv, err := structure.Random(d, rng)
		require.NoError(t, err)
		u := sample(t, gaussVine(t, rv, 0.7, 0.4, 0.2), 150, int64(d))

		vc, err := vinecop.Select(ctx, u, fastControls())
		require.NoError(t, err, "d=%d", d)
		got := vc.Structure()
		assert.Equal(t, d, got.Dim())
		assert.Equal(t, d-1, vc.TruncLevel())

		// Decoding the matrix re-runs every structural check.
		back, err := structure.FromMatrix(got.ToMatrix())
		require.NoError(t, err, "d=%d\n%s", d, got)
		assert.True(t, structure.Equal(got, back))
		for tt, tree := range got.Trees() {
			assert.Len(t, tree, d-1-tt)
		}
	}
}

// TestSelect_RecoversClaytonGumbel simulates a 3-dimensional vine, refits it and
// compares the parameters.
func TestSelect_RecoversClaytonGumbel(t *testing.T) {
	rv, err := structure.NewDVine([]int{1, 2, 3}, -1)
	require.NoError(t, err)
	truth, err := vinecop.New(rv, [][]*bicop.Bicop{
		{bicop.MustNew(bicop.Clayton, 0, 2), bicop.MustNew(bicop.Gumbel, 0, 1.5)},
		{bicop.NewIndep()},
	})
	require.NoError(t, err)

	hits := 0
	const reps = 4
	for rep := 0; rep < reps; rep++ {
		u := sample(t, truth, 5000, int64(100+rep))
		vc, err := vinecop.Select(ctx, u, vinecop.NewControls(
			vinecop.WithFamilySet(bicop.Indep, bicop.Clayton, bicop.Gumbel),
			vinecop.WithStructure(rv),
		))
		require.NoError(t, err)
		assert.True(t, structure.Equal(rv, vc.Structure()))

		c, _ := vc.PairCopula(0, 0)
		g, _ := vc.PairCopula(0, 1)
		ok := c.Family() == bicop.Clayton && c.Rotation() == 0 &&
			g.Family() == bicop.Gumbel && g.Rotation() == 0
		if ok {
			ok = abs(c.Parameters()[0]-2) < 0.2 && abs(g.Parameters()[0]-1.5) < 0.08
		}
		if ok {
			hits++
		}
	}
	assert.GreaterOrEqual(t, hits, reps-1)
}

// TestFit_KeepsFamilies refits parameters on a fixed model.
func TestFit_KeepsFamilies(t *testing.T) {
	rv, err := structure.NewDVine([]int{3, 1, 2}, -1)
	require.NoError(t, err)
	truth, err := vinecop.New(rv, [][]*bicop.Bicop{
		{bicop.MustNew(bicop.Clayton, 0, 2), bicop.MustNew(bicop.Gumbel, 0, 1.5)},
		{bicop.MustNew(bicop.Frank, 0, 2)},
	})
	require.NoError(t, err)
	u := sample(t, truth, 3000, 8)

	start, err := vinecop.New(rv, [][]*bicop.Bicop{
		{bicop.MustNew(bicop.Clayton, 0, 0.5), bicop.MustNew(bicop.Gumbel, 0, 3)},
		{bicop.MustNew(bicop.Frank, 0, -1)},
	})
	require.NoError(t, err)
	fit, err := vinecop.Fit(ctx, u, start, vinecop.DefaultControls())
	require.NoError(t, err)
	assert.Equal(t, truth.Families(), fit.Families())
	p := fit.Parameters()
	assert.InDelta(t, 2, p[0][0][0], 0.25)
	assert.InDelta(t, 1.5, p[0][1][0], 0.1)
	assert.InDelta(t, 2, p[1][0][0], 0.5)
}

// TestSelect_ParallelDeterminism compares 1, 2 and 4 workers on a 200-row sample.
func TestSelect_ParallelDeterminism(t *testing.T) {
	rv, err := structure.Random(4, qrng.RNGFromSeed(12))
	require.NoError(t, err)
	u := sample(t, gaussVine(t, rv, 0.6, 0.3, 0.1), 200, 13)

	var ref *vinecop.Vinecop
	for _, w := range []int{1, 2, 4} {
		vc, err := vinecop.Select(ctx, u, vinecop.NewControls(vinecop.WithNumThreads(w)))
		require.NoError(t, err)
		if ref == nil {
			ref = vc
			continue
		}
		require.Equal(t, ref.Structure().ToMatrix(), vc.Structure().ToMatrix(), "workers=%d", w)
		require.Equal(t, ref.Families(), vc.Families(), "workers=%d", w)
		require.Equal(t, ref.Rotations(), vc.Rotations(), "workers=%d", w)
		require.Equal(t, ref.Parameters(), vc.Parameters(), "workers=%d", w)
		require.Equal(t, ref.Loglik(), vc.Loglik(), "workers=%d", w)
	}
}

// TestSelect_ThresholdShortCircuit forces every edge to independence.
func TestSelect_ThresholdShortCircuit(t *testing.T) {
	rv, err := structure.NewDVine([]int{1, 2, 3, 4}, -1)
	require.NoError(t, err)
	u := sample(t, gaussVine(t, rv, 0.5, 0.2), 300, 2)

	vc, err := vinecop.Select(ctx, u, vinecop.NewControls(vinecop.WithThreshold(vinecop.FixedThreshold(0.9))))
	require.NoError(t, err)
	assert.Zero(t, vc.NPars())
	for _, tree := range vc.Families() {
		for _, f := range tree {
			assert.Equal(t, bicop.Indep, f)
		}
	}
	assert.Equal(t, 0.9, vc.Threshold())
}

// TestSelect_AutoTruncation stops after the only dependent tree.
func TestSelect_AutoTruncation(t *testing.T) {
	rv, err := structure.NewDVine([]int{1, 2, 3, 4, 5}, -1)
	require.NoError(t, err)
	u := sample(t, gaussVine(t, rv, 0.7), 1000, 6)

	vc, err := vinecop.Select(ctx, u, fastControls(vinecop.WithTruncLevel(vinecop.AutoLevel())))
	require.NoError(t, err)
	assert.Equal(t, 1, vc.TruncLevel())
	assert.Equal(t, 1, vc.Structure().TruncLevel())

	fixed, err := vinecop.Select(ctx, u, fastControls(vinecop.WithTruncLevel(vinecop.FixedLevel(2))))
	require.NoError(t, err)
	assert.Equal(t, 2, fixed.TruncLevel())
}

// TestSelect_AutoThreshold never ends above the threshold-0 mBICV, and a budget of
// one evaluation is reported as non-convergence.
func TestSelect_AutoThreshold(t *testing.T) {
	rv, err := structure.NewDVine([]int{1, 2, 3, 4}, -1)
	require.NoError(t, err)
	u := sample(t, gaussVine(t, rv, 0.6, 0.05, 0.05), 400, 31)

	base, err := vinecop.Select(ctx, u, fastControls())
	require.NoError(t, err)
	baseCrit, err := base.MBICV(0.9)
	require.NoError(t, err)

	auto, err := vinecop.Select(ctx, u, fastControls(vinecop.WithThreshold(vinecop.AutoThreshold())))
	require.NoError(t, err)
	autoCrit, err := auto.MBICV(0.9)
	require.NoError(t, err)
	assert.LessOrEqual(t, autoCrit, baseCrit+1e-9)
	assert.GreaterOrEqual(t, auto.Threshold(), 0.0)

	capped, err := vinecop.Select(ctx, u, fastControls(
		vinecop.WithThreshold(vinecop.AutoThreshold()),
		vinecop.WithMaxSelectionEvals(1),
	))
	require.NoError(t, err)
	var kinds []vinecop.DiagnosticKind
	for _, dg := range capped.Diagnostics() {
		kinds = append(kinds, dg.Kind)
	}
	assert.Contains(t, kinds, vinecop.SelectionNonconvergence)
	assert.Zero(t, capped.Threshold())
}

// TestSelect_DegenerateColumn recovers a constant column as independence.
func TestSelect_DegenerateColumn(t *testing.T) {
	u := uniform(t, 100, 3, 4)
	for i := 0; i < u.Rows(); i++ {
		require.NoError(t, u.Set(i, 1, 0.5))
	}
	vc, err := vinecop.Select(ctx, u, fastControls())
	require.NoError(t, err)
	var found bool
	for _, dg := range vc.Diagnostics() {
		if dg.Kind == vinecop.FitDegeneracy {
			found = true
			assert.Positive(t, dg.Tree)
			assert.Positive(t, dg.Edge)
		}
	}
	assert.True(t, found, "no FitDegeneracy among %v", vc.Diagnostics())
}

// TestSelect_Trace emits one Info record per tree.
func TestSelect_Trace(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	u := uniform(t, 80, 4, 9)
	_, err := vinecop.Select(ctx, u, fastControls(
		vinecop.WithShowTrace(true),
		vinecop.WithLogger(zap.New(core)),
	))
	require.NoError(t, err)
	recs := logs.FilterMessage("tree selected").All()
	require.Len(t, recs, 3)
	assert.EqualValues(t, 1, recs[0].ContextMap()["tree"])
	assert.Contains(t, recs[2].ContextMap(), "mbicv")
}

// TestSelect_Errors covers fatal configuration and data errors.
func TestSelect_Errors(t *testing.T) {
	u := uniform(t, 50, 3, 1)

	_, err := vinecop.Select(ctx, u, vinecop.NewControls(vinecop.WithFamilySet(bicop.BB1)))
	assert.ErrorIs(t, err, bicop.ErrFamily)
	_, err = vinecop.Select(ctx, u, vinecop.NewControls(vinecop.WithPsi0(0)))
	assert.ErrorIs(t, err, vinecop.ErrControls)
	_, err = vinecop.Select(ctx, u, vinecop.NewControls(vinecop.WithWeights([]float64{1, 2})))
	assert.ErrorIs(t, err, vinecop.ErrDimensionMismatch)
	_, err = vinecop.Select(ctx, u, vinecop.NewControls(vinecop.WithTreeAlgorithm("boruvka")))
	assert.ErrorIs(t, err, vinecop.ErrControls)

	dv, _ := structure.NewDVine([]int{1, 2}, -1)
	_, err = vinecop.Select(ctx, u, vinecop.NewControls(vinecop.WithStructure(dv)))
	assert.ErrorIs(t, err, vinecop.ErrDimensionMismatch)

	bad, _ := matrix.NewDenseFrom([][]float64{{0.1, -0.2}})
	_, err = vinecop.Select(ctx, bad, vinecop.DefaultControls())
	assert.ErrorIs(t, err, matrix.ErrOutOfUnitCube)
	_, err = vinecop.Select(ctx, nil, vinecop.DefaultControls())
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}

	return x
}
