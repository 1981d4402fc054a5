// SPDX-License-Identifier: MIT

package vinecop

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/prim_kruskal"
	"github.com/katalvlaran/rvine/stats"
	"github.com/katalvlaran/rvine/structure"
)

// levelKind tags the variant held by a Level or Threshold.
type levelKind int

const (
	kindDefault levelKind = iota // full vine / threshold 0
	kindFixed
	kindAuto
)

// Level is the truncation control: all trees (zero value), a fixed level, or automatic.
type Level struct {
	kind  levelKind
	value int
}

// FullLevel keeps every tree.
func FullLevel() Level { return Level{} }

// FixedLevel keeps trees 1..k.
func FixedLevel(k int) Level { return Level{kind: kindFixed, value: k} }

// AutoLevel stops adding trees once one more tree fails to lower mBICV.
func AutoLevel() Level { return Level{kind: kindAuto} }

// Auto reports whether the level is selected automatically.
func (l Level) Auto() bool { return l.kind == kindAuto }

// Value returns the fixed level, or -1 for a full or automatic level.
func (l Level) Value() int {
	if l.kind == kindFixed {
		return l.value
	}

	return -1
}

// String renders "full", "auto" or the fixed level.
func (l Level) String() string {
	switch l.kind {
	case kindFixed:
		return fmt.Sprint(l.value)
	case kindAuto:
		return "auto"
	default:
		return "full"
	}
}

// Threshold is the independence threshold control: 0 (zero value), a fixed value, or automatic.
type Threshold struct {
	kind  levelKind
	value float64
}

// FixedThreshold forces independence for edges with |tau| below v.
func FixedThreshold(v float64) Threshold { return Threshold{kind: kindFixed, value: v} }

// AutoThreshold searches the threshold minimizing mBICV.
func AutoThreshold() Threshold { return Threshold{kind: kindAuto} }

// Auto reports whether the threshold is selected automatically.
func (t Threshold) Auto() bool { return t.kind == kindAuto }

// Value returns the fixed threshold (0 for the zero value and for automatic).
func (t Threshold) Value() float64 { return t.value }

// String renders "auto" or the fixed value.
func (t Threshold) String() string {
	if t.kind == kindAuto {
		return "auto"
	}

	return fmt.Sprint(t.value)
}

// Observer receives selection events. metrics.Recorder implements it.
// Calls happen on the selecting goroutine, after each tree's barrier.
type Observer interface {
	ObserveTree(tree, edges, independent int, elapsed time.Duration)
	ObserveFamily(family string)
	ObserveDiagnostic(kind string)
}

// Controls configures Select and Fit. Build with DefaultControls or NewControls.
type Controls struct {
	// FamilySet lists allowed pair-copula families (empty means bicop.Builtin).
	FamilySet []bicop.Family
	// ParMethod estimates parameters: bicop.MLE or bicop.ITau.
	ParMethod bicop.Method
	// NonparMult scales nonparametric bandwidths. It must be positive but has no
	// effect until a nonparametric family has a kernel (TLL is rejected).
	NonparMult float64
	// SelectionCriterion ranks the families of one edge.
	SelectionCriterion bicop.Criterion
	// Psi0 is the prior probability of a non-independence edge (mbic, mBICV).
	Psi0 float64
	// PreselectFamilies prunes candidate rotations from tail diagnostics.
	PreselectFamilies bool
	// TreeCriterion weights candidate edges for the spanning trees.
	TreeCriterion stats.Measure
	// TreeAlgorithm is prim_kruskal.MethodKruskal or prim_kruskal.MethodPrim.
	TreeAlgorithm string
	// TruncLevel limits the number of trees.
	TruncLevel Level
	// Threshold forces weak edges to independence.
	Threshold Threshold
	// MaxSelectionEvals bounds the automatic threshold search.
	MaxSelectionEvals int
	// Weights are optional per-row weights (nil means unit weights).
	Weights []float64
	// Structure fixes the tree sequence; nil means select it from data.
	Structure *structure.RVine
	// NumThreads bounds the worker pool (≤ 0 means one per CPU).
	NumThreads int
	// ShowTrace logs one Info record per tree and per threshold evaluation.
	ShowTrace bool
	// Logger receives trace and debug records; nil means no logging.
	Logger *zap.Logger
	// Observer receives selection events; nil means none.
	Observer Observer
}

// DefaultControls returns the built-in families, MLE, BIC, psi0 = 0.9, Kendall's tau
// weights, Kruskal trees, a full vine with threshold 0, and a single worker.
func DefaultControls() Controls {
	return Controls{
		FamilySet:          append([]bicop.Family(nil), bicop.Builtin...),
		ParMethod:          bicop.MLE,
		NonparMult:         1,
		SelectionCriterion: bicop.CritBIC,
		Psi0:               0.9,
		PreselectFamilies:  true,
		TreeCriterion:      stats.Tau,
		TreeAlgorithm:      prim_kruskal.MethodKruskal,
		MaxSelectionEvals:  20,
		NumThreads:         1,
	}
}

// Option mutates Controls.
type Option func(*Controls)

// WithFamilySet restricts the pair-copula families.
func WithFamilySet(set ...bicop.Family) Option {
	return func(c *Controls) { c.FamilySet = append([]bicop.Family(nil), set...) }
}

// WithParMethod sets the estimation method.
func WithParMethod(m bicop.Method) Option {
	return func(c *Controls) { c.ParMethod = m }
}

// WithSelectionCriterion sets the per-edge criterion.
func WithSelectionCriterion(cr bicop.Criterion) Option {
	return func(c *Controls) { c.SelectionCriterion = cr }
}

// WithPsi0 sets the prior probability of a non-independence edge.
func WithPsi0(psi0 float64) Option {
	return func(c *Controls) { c.Psi0 = psi0 }
}

// WithPreselect toggles family pre-selection.
func WithPreselect(on bool) Option {
	return func(c *Controls) { c.PreselectFamilies = on }
}

// WithTreeCriterion sets the edge weight of the spanning trees.
func WithTreeCriterion(m stats.Measure) Option {
	return func(c *Controls) { c.TreeCriterion = m }
}

// WithTreeAlgorithm selects Kruskal or Prim.
func WithTreeAlgorithm(method string) Option {
	return func(c *Controls) { c.TreeAlgorithm = method }
}

// WithTruncLevel sets the truncation control.
func WithTruncLevel(l Level) Option {
	return func(c *Controls) { c.TruncLevel = l }
}

// WithThreshold sets the independence threshold control.
func WithThreshold(t Threshold) Option {
	return func(c *Controls) { c.Threshold = t }
}

// WithMaxSelectionEvals sets the automatic search budget.
func WithMaxSelectionEvals(n int) Option {
	return func(c *Controls) { c.MaxSelectionEvals = n }
}

// WithWeights sets per-row weights.
func WithWeights(w []float64) Option {
	return func(c *Controls) { c.Weights = w }
}

// WithStructure fixes the tree sequence.
func WithStructure(rv *structure.RVine) Option {
	return func(c *Controls) { c.Structure = rv }
}

// WithNumThreads sets the worker count.
func WithNumThreads(n int) Option {
	return func(c *Controls) { c.NumThreads = n }
}

// WithShowTrace toggles per-tree trace records on the logger.
func WithShowTrace(on bool) Option {
	return func(c *Controls) { c.ShowTrace = on }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controls) { c.Logger = l }
}

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(c *Controls) { c.Observer = o }
}

// NewControls applies opts on top of DefaultControls.
func NewControls(opts ...Option) Controls {
	c := DefaultControls()
	for _, fn := range opts {
		fn(&c)
	}

	return c
}

// policy is Controls resolved for one dimension: every optional control has
// become a concrete value.
type policy struct {
	d             int
	maxTrees      int
	truncAuto     bool
	threshold     float64
	thresholdAuto bool
	maxEvals      int
	pair          bicop.Controls
	treeCriterion stats.Measure
	treeAlgorithm string
	weights       []float64
	rv            *structure.RVine
	workers       int
	trace         bool
	log           *zap.Logger
	obs           Observer
}

// resolve validates c for d variables and n rows and fixes the policy.
func (c Controls) resolve(d, n int) (policy, error) {
	p := policy{
		d:             d,
		maxTrees:      d - 1,
		truncAuto:     c.TruncLevel.Auto(),
		thresholdAuto: c.Threshold.Auto(),
		threshold:     c.Threshold.Value(),
		maxEvals:      c.MaxSelectionEvals,
		treeCriterion: c.TreeCriterion,
		treeAlgorithm: c.TreeAlgorithm,
		weights:       c.Weights,
		rv:            c.Structure,
		workers:       c.NumThreads,
		trace:         c.ShowTrace,
		log:           c.Logger,
		obs:           c.Observer,
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if p.treeAlgorithm == "" {
		p.treeAlgorithm = prim_kruskal.MethodKruskal
	}
	if p.treeAlgorithm != prim_kruskal.MethodKruskal && p.treeAlgorithm != prim_kruskal.MethodPrim {
		return p, fmt.Errorf("tree algorithm %q: %w", p.treeAlgorithm, ErrControls)
	}
	if k := c.TruncLevel.Value(); k >= 0 && k < p.maxTrees {
		p.maxTrees = k
	}
	if c.TruncLevel.kind == kindFixed && c.TruncLevel.value < 0 {
		return p, fmt.Errorf("trunc_lvl %d: %w", c.TruncLevel.value, ErrControls)
	}
	if !(p.threshold >= 0 && p.threshold <= 1) {
		return p, fmt.Errorf("threshold %g outside [0,1]: %w", p.threshold, ErrControls)
	}
	if !(c.Psi0 > 0 && c.Psi0 < 1) || math.IsNaN(c.Psi0) {
		return p, fmt.Errorf("psi0 %g outside (0,1): %w", c.Psi0, ErrControls)
	}
	if p.thresholdAuto && p.maxEvals < 1 {
		return p, fmt.Errorf("max_selection_evals %d: %w", p.maxEvals, ErrControls)
	}
	if c.TreeCriterion < stats.Tau || c.TreeCriterion > stats.Beta {
		return p, fmt.Errorf("tree criterion %d: %w", int(c.TreeCriterion), stats.ErrUnknownMeasure)
	}
	if p.rv != nil && p.rv.Dim() != d {
		return p, fmt.Errorf("structure of dimension %d for %d columns: %w", p.rv.Dim(), d, ErrDimensionMismatch)
	}
	if len(p.weights) > 0 && len(p.weights) != n {
		return p, fmt.Errorf("%d weights for %d rows: %w", len(p.weights), n, ErrDimensionMismatch)
	}

	set := c.FamilySet
	if len(set) == 0 {
		set = bicop.Builtin
	}
	p.pair = bicop.Controls{
		FamilySet:  set,
		Method:     c.ParMethod,
		NonparMult: c.NonparMult,
		Criterion:  c.SelectionCriterion,
		Psi0:       c.Psi0,
		Preselect:  c.PreselectFamilies,
		Threshold:  p.threshold,
		Measure:    stats.Tau,
	}
	if err := p.pair.Validate(); err != nil {
		return p, err
	}

	return p, nil
}
