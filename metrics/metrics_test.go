package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/metrics"
	"github.com/katalvlaran/rvine/qrng"
	"github.com/katalvlaran/rvine/vinecop"
)

var _ vinecop.Observer = (*metrics.Recorder)(nil)

// TestRecorder_Counts drives the recorder directly.
func TestRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New(reg)
	r.ObserveTree(1, 4, 1, 20*time.Millisecond)
	r.ObserveTree(2, 3, 3, time.Millisecond)
	r.ObserveFamily("gaussian")
	r.ObserveFamily("gaussian")
	r.ObserveDiagnostic("fit_degeneracy")

	n, err := testutil.GatherAndCount(reg, "rvine_trees_fitted_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = testutil.GatherAndCount(reg, "rvine_edges_fitted_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3.0, counter(t, reg, "rvine_edges_fitted_total", "dependent"))
	assert.Equal(t, 4.0, counter(t, reg, "rvine_edges_fitted_total", "independent"))
	assert.Equal(t, 2.0, counter(t, reg, "rvine_pair_copulas_total", "gaussian"))
	assert.Equal(t, 1.0, counter(t, reg, "rvine_diagnostics_total", "fit_degeneracy"))
}

// TestRecorder_WithSelect observes a real selection.
func TestRecorder_WithSelect(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New(reg)

	eng, err := qrng.New(qrng.KindPseudo, 3, 5)
	require.NoError(t, err)
	u, _, err := eng.Next(100)
	require.NoError(t, err)
	_, err = vinecop.Select(context.Background(), u, vinecop.NewControls(
		vinecop.WithFamilySet(bicop.Indep, bicop.Gaussian),
		vinecop.WithObserver(r),
	))
	require.NoError(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var trees, copulas float64
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "rvine_trees_fitted_total":
				trees += m.GetCounter().GetValue()
			case "rvine_pair_copulas_total":
				copulas += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, trees)
	assert.Equal(t, 3.0, copulas)
}

// counter returns the value of the series of name with the given label value.
func counter(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if m.GetLabel()[0].GetValue() == label {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("counter %s{%s} not found", name, label)

	return 0
}
