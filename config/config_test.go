package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/config"
	"github.com/katalvlaran/rvine/qrng"
	"github.com/katalvlaran/rvine/stats"
	"github.com/katalvlaran/rvine/structure"
	"github.com/katalvlaran/rvine/vinecop"
)

// TestParse_Overrides reads a file over the defaults.
func TestParse_Overrides(t *testing.T) {
	f, err := config.Parse([]byte(`
family_set: [gaussian, archimedean]
par_method: itau
selection_criterion: mbic
psi0: 0.5
tree_criterion: rho
trunc_lvl: 2
threshold: auto
num_threads: 3
qrng: sobol
seed: 7
`))
	require.NoError(t, err)
	c, err := f.Controls()
	require.NoError(t, err)
	assert.Equal(t, []bicop.Family{bicop.Gaussian, bicop.Clayton, bicop.Gumbel, bicop.Frank, bicop.Joe}, c.FamilySet)
	assert.Equal(t, bicop.ITau, c.ParMethod)
	assert.Equal(t, bicop.CritMBIC, c.SelectionCriterion)
	assert.Equal(t, 0.5, c.Psi0)
	assert.Equal(t, stats.Rho, c.TreeCriterion)
	assert.Equal(t, 2, c.TruncLevel.Value())
	assert.True(t, c.Threshold.Auto())
	assert.Equal(t, 3, c.NumThreads)
	assert.True(t, c.PreselectFamilies, "default kept")

	eng, err := f.Engine(4)
	require.NoError(t, err)
	assert.Equal(t, qrng.KindSobol, eng.Kind)
	assert.Equal(t, int64(7), eng.Seed)
}

// TestParse_Defaults accepts an empty document.
func TestParse_Defaults(t *testing.T) {
	f, err := config.Parse(nil)
	require.NoError(t, err)
	c, err := f.Controls()
	require.NoError(t, err)
	def := vinecop.DefaultControls()
	assert.Equal(t, def.FamilySet, c.FamilySet)
	assert.Equal(t, def.Psi0, c.Psi0)
	assert.False(t, c.TruncLevel.Auto())
	assert.Equal(t, -1, c.TruncLevel.Value())
	assert.Zero(t, c.Threshold.Value())
}

// TestParse_Errors rejects bad values before any fitting.
func TestParse_Errors(t *testing.T) {
	_, err := config.Parse([]byte("family_set: [gaussian, tll]\n"))
	assert.ErrorIs(t, err, bicop.ErrFamily)
	_, err = config.Parse([]byte("family_set: [bogus]\n"))
	assert.ErrorIs(t, err, bicop.ErrFamily)
	_, err = config.Parse([]byte("threshold: 1.5\n"))
	assert.ErrorIs(t, err, config.ErrInvalid)
	_, err = config.Parse([]byte("trunc_lvl: -1\n"))
	assert.ErrorIs(t, err, config.ErrInvalid)
	_, err = config.Parse([]byte("psi0: 1\n"))
	assert.ErrorIs(t, err, config.ErrInvalid)
	_, err = config.Parse([]byte("tree_criterion: pearson\n"))
	assert.ErrorIs(t, err, stats.ErrUnknownMeasure)
	_, err = config.Parse([]byte("unknown_key: 1\n"))
	assert.Error(t, err)
	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestModel_RoundTrip saves and reloads a hand-specified vine.
func TestModel_RoundTrip(t *testing.T) {
	rv, err := structure.NewCVine([]int{2, 4, 1, 3}, 2)
	require.NoError(t, err)
	vc, err := vinecop.New(rv, [][]*bicop.Bicop{
		{bicop.MustNew(bicop.Gumbel, 270, 1.7), bicop.MustNew(bicop.Student, 0, 0.3, 6), bicop.NewIndep()},
		{bicop.MustNew(bicop.Frank, 0, -2.5), bicop.MustNew(bicop.Joe, 180, 1.2)},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, config.SaveModel(path, vc))
	back, err := config.LoadModel(path)
	require.NoError(t, err)
	assert.True(t, structure.Equal(vc.Structure(), back.Structure()))
	assert.Equal(t, vc.Families(), back.Families())
	assert.Equal(t, vc.Rotations(), back.Rotations())
	assert.Equal(t, vc.Parameters(), back.Parameters())
	assert.Nil(t, config.EncodeModel(vc).Loglik)
}

// TestModel_Errors reports the offending edge.
func TestModel_Errors(t *testing.T) {
	m := config.Model{
		Structure:   [][]int{{1, 0}, {2, 2}},
		PairCopulas: [][]config.PairCopula{{{Family: "clayton", Parameters: []float64{-3}}}},
	}
	_, err := m.Vinecop()
	assert.ErrorIs(t, err, bicop.ErrParameters)
	assert.Contains(t, err.Error(), "tree 1, edge 1")

	m.Structure = [][]int{{1, 1}, {2, 2}}
	_, err = m.Vinecop()
	assert.ErrorIs(t, err, structure.ErrNotTriangular)
}
