// SPDX-License-Identifier: MIT

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the Prometheus collectors of vine selection.
// It satisfies vinecop.Observer.
type Recorder struct {
	// Tree levels
	treesFitted  prometheus.Counter
	edgesFitted  *prometheus.CounterVec
	treeDuration prometheus.Histogram

	// Pair copulas of the final models
	families *prometheus.CounterVec

	// Recovered conditions
	diagnostics *prometheus.CounterVec
}

// New registers the collectors on reg; nil means prometheus.DefaultRegisterer.
// Registering twice on the same registerer panics, as with promauto.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		treesFitted: f.NewCounter(
			prometheus.CounterOpts{
				Name: "rvine_trees_fitted_total",
				Help: "Total number of vine tree levels fitted",
			},
		),

		edgesFitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rvine_edges_fitted_total",
				Help: "Total number of tree edges fitted, by outcome",
			},
			[]string{"kind"},
		),

		treeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rvine_tree_duration_seconds",
				Help:    "Time to weight, span and fit one tree level",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),

		families: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rvine_pair_copulas_total",
				Help: "Pair copulas in selected models, by family",
			},
			[]string{"family"},
		),

		diagnostics: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rvine_diagnostics_total",
				Help: "Recovered non-fatal conditions, by kind",
			},
			[]string{"kind"},
		),
	}
}

// ObserveTree records one completed tree level.
func (r *Recorder) ObserveTree(tree, edges, independent int, elapsed time.Duration) {
	r.treesFitted.Inc()
	r.edgesFitted.WithLabelValues("dependent").Add(float64(edges - independent))
	r.edgesFitted.WithLabelValues("independent").Add(float64(independent))
	r.treeDuration.Observe(elapsed.Seconds())
}

// ObserveFamily counts one pair copula of a final model.
func (r *Recorder) ObserveFamily(family string) {
	r.families.WithLabelValues(family).Inc()
}

// ObserveDiagnostic counts one recovered condition.
func (r *Recorder) ObserveDiagnostic(kind string) {
	r.diagnostics.WithLabelValues(kind).Inc()
}
