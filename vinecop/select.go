// SPDX-License-Identifier: MIT

package vinecop

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/matrix"
	"github.com/katalvlaran/rvine/parallel"
	"github.com/katalvlaran/rvine/stats"
	"github.com/katalvlaran/rvine/structure"
)

// edgeFit is one fitted edge: its copula in edge orientation (u1, u2) and the
// pseudo-observations it passes to the next tree.
type edgeFit struct {
	pc    *bicop.Bicop
	warns []bicop.Warning
	h1    []float64 // F(u2 | u1)
	h2    []float64 // F(u1 | u2)
	tau   float64   // empirical Kendall's tau of (u1, u2)
}

// treeEdge is an edge of a selected tree in set form.
type treeEdge struct {
	edge structure.Edge
	edgeFit
}

// given returns F(x | the rest of the edge's full set) for conditioned variable x.
func (te *treeEdge) given(x int) []float64 {
	if x == te.edge.Conditioned[0] {
		return te.h2
	}

	return te.h1
}

// result is one complete selection run at a fixed threshold.
type result struct {
	vc    *Vinecop
	mbicv float64
	taus  []float64 // |tau| of the non-independence edges
}

// edgeFunc fits the edge (t, e) in matrix orientation.
type edgeFunc func(t, e int, u1, u2 []float64) edgeFit

// Select fits a vine copula to pseudo-observations u (n × d on [0,1]).
//
// Without c.Structure the tree sequence is learned greedily, tree by tree:
//  1. weight every admissible candidate edge by |c.TreeCriterion| of its inputs;
//  2. take a maximum spanning tree over the candidates (proximity holds by construction);
//  3. select a pair copula per edge and compute its h-functions for the next tree.
//
// With c.Structure only the pair copulas are selected. Trees are sequential;
// candidate weights and edge fits of one tree run on the worker pool and are
// joined before the next tree starts, so the result is independent of NumThreads.
//
// Errors are fatal configuration or data errors; per-edge problems are recovered and
// reported through Diagnostics.
func Select(ctx context.Context, u *matrix.Dense, c Controls) (*Vinecop, error) {
	if err := checkSample("Select", u); err != nil {
		return nil, err
	}
	p, err := c.resolve(u.Cols(), u.Rows())
	if err != nil {
		return nil, fmt.Errorf("Select: %w", err)
	}
	cols := columns(u)

	var vc *Vinecop
	if p.thresholdAuto {
		vc, err = p.searchThreshold(ctx, cols)
	} else {
		var r *result
		if r, err = p.run(ctx, cols, p.threshold); err == nil {
			vc = r.vc
		}
	}
	if err != nil {
		return nil, fmt.Errorf("Select: %w", err)
	}
	p.report(vc)

	return vc, nil
}

// Fit re-estimates the parameters of model on u, keeping its structure, families
// and rotations. An edge whose refit fails becomes independence with a
// FitDegeneracy diagnostic.
func Fit(ctx context.Context, u *matrix.Dense, model *Vinecop, c Controls) (*Vinecop, error) {
	if err := checkSample("Fit", u); err != nil {
		return nil, err
	}
	if model == nil {
		return nil, fmt.Errorf("Fit: nil model: %w", ErrPairCopulas)
	}
	c.Structure = model.rv
	c.TruncLevel = FixedLevel(model.TruncLevel())
	c.Threshold = Threshold{}
	p, err := c.resolve(u.Cols(), u.Rows())
	if err != nil {
		return nil, fmt.Errorf("Fit: %w", err)
	}
	refit := func(t, e int, u1, u2 []float64) edgeFit {
		old := model.pcs[t][e]
		pc, err := bicop.Fit(old.Family(), old.Rotation(), u1, u2, p.weights, p.pair.Method)
		var warns []bicop.Warning
		if err != nil {
			pc, _ = bicop.Fit(bicop.Indep, 0, u1, u2, p.weights, p.pair.Method)
			warns = []bicop.Warning{{Kind: bicop.WarnDegenerate, Message: err.Error()}}
		}
		return newEdgeFit(pc, warns, u1, u2, p.weights)
	}
	r, err := p.fitStructure(ctx, columns(u), model.rv, 0, refit)
	if err != nil {
		return nil, fmt.Errorf("Fit: %w", err)
	}
	p.report(r.vc)

	return r.vc, nil
}

// checkSample validates the data matrix of Select and Fit.
func checkSample(method string, u *matrix.Dense) error {
	if err := matrix.ValidateNotNil(u); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if err := matrix.ValidateUnitCube(u); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	return nil
}

// columns copies the columns of u.
func columns(u *matrix.Dense) [][]float64 {
	out := make([][]float64, u.Cols())
	for j := range out {
		out[j] = u.Col(j)
	}

	return out
}

// run performs one selection at the given threshold.
func (p policy) run(ctx context.Context, cols [][]float64, threshold float64) (*result, error) {
	p.pair.Threshold = threshold
	if p.rv != nil {
		sel := func(_, _ int, u1, u2 []float64) edgeFit { return p.selectEdge(u1, u2) }
		return p.fitStructure(ctx, cols, p.rv, threshold, sel)
	}

	return p.dissmann(ctx, cols, threshold)
}

// selectEdge runs pair-copula selection on (u1, u2); a selection error degrades
// to independence.
func (p policy) selectEdge(u1, u2 []float64) edgeFit {
	pc, warns, err := bicop.Select(u1, u2, p.weights, p.pair)
	if err != nil {
		pc, _ = bicop.Fit(bicop.Indep, 0, u1, u2, p.weights, bicop.MLE)
		warns = append(warns, bicop.Warning{Kind: bicop.WarnDegenerate, Message: err.Error()})
	}

	return newEdgeFit(pc, warns, u1, u2, p.weights)
}

// newEdgeFit evaluates the h-functions of pc on (u1, u2).
func newEdgeFit(pc *bicop.Bicop, warns []bicop.Warning, u1, u2, w []float64) edgeFit {
	ef := edgeFit{pc: pc, warns: warns, tau: stats.Kendall(u1, u2, w)}
	if pc.IsIndep() {
		ef.h1, ef.h2 = u2, u1
		return ef
	}
	ef.h1 = make([]float64, len(u1))
	ef.h2 = make([]float64, len(u1))
	for i := range u1 {
		ef.h1[i] = pc.HFunc1(u1[i], u2[i])
		ef.h2[i] = pc.HFunc2(u1[i], u2[i])
	}

	return ef
}

// levelSummary aggregates one fitted tree.
type levelSummary struct {
	loglik   float64
	npars    float64
	nonIndep int
}

func summarize(fits []edgeFit) levelSummary {
	var s levelSummary
	for _, f := range fits {
		s.loglik += f.pc.Loglik()
		s.npars += float64(f.pc.NPars())
		if !f.pc.IsIndep() {
			s.nonIndep++
		}
	}

	return s
}

// improves reports whether adding tree t (0-based) with summary s lowers mBICV.
func (p policy) improves(t, n int, s levelSummary) bool {
	delta := -2*s.loglik + s.npars*math.Log(float64(n)) - 2*treeLogPrior(p.d, t, s.nonIndep, p.pair.Psi0)

	return delta < 0
}

// dissmann learns the tree sequence and the pair copulas jointly.
func (p policy) dissmann(ctx context.Context, cols [][]float64, threshold float64) (*result, error) {
	d, n := p.d, len(cols[0])
	pool := parallel.New(p.workers)
	var trees [][]treeEdge
	var acc []levelSummary

	var t int
	for t = 0; t < p.maxTrees; t++ {
		start := time.Now()
		var prev []structure.Edge
		nodes := d
		if t > 0 {
			prev = make([]structure.Edge, len(trees[t-1]))
			for i := range trees[t-1] {
				prev[i] = trees[t-1][i].edge
			}
			nodes = len(prev)
		}
		inputs := func(cand structure.Edge) ([]float64, []float64) {
			if t == 0 {
				return cols[cand.Conditioned[0]-1], cols[cand.Conditioned[1]-1]
			}
			a, b := &trees[t-1][cand.Nodes[0]], &trees[t-1][cand.Nodes[1]]
			return a.given(cand.Conditioned[0]), b.given(cand.Conditioned[1])
		}

		// 1. candidate weights
		cands := structure.Candidates(d, prev)
		weights := make([]float64, len(cands))
		err := pool.ForEach(ctx, len(cands), func(_ context.Context, i int) error {
			u1, u2 := inputs(cands[i])
			w := math.Abs(stats.Dependence(p.treeCriterion, u1, u2, p.weights))
			if math.IsNaN(w) {
				w = 0
			}
			weights[i] = w
			return nil
		})
		if err != nil {
			return nil, err
		}

		// 2. spanning tree
		idx, err := structure.SpanningTree(nodes, cands, weights, p.treeAlgorithm)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", t+1, err)
		}

		// 3. pair copulas
		level := make([]treeEdge, len(idx))
		err = pool.ForEach(ctx, len(idx), func(_ context.Context, j int) error {
			cand := cands[idx[j]]
			u1, u2 := inputs(cand)
			level[j] = treeEdge{edge: cand, edgeFit: p.selectEdge(u1, u2)}
			return nil
		})
		if err != nil {
			return nil, err
		}

		fits := make([]edgeFit, len(level))
		for j := range level {
			fits[j] = level[j].edgeFit
		}
		s := summarize(fits)
		if p.truncAuto && !p.improves(t, n, s) {
			p.log.Debug("truncating", zap.Int("trunc_lvl", t), zap.Int("rejected_tree", t+1))
			break
		}
		trees = append(trees, level)
		acc = append(acc, s)
		p.traceTree(t, len(level), acc, n, time.Since(start))
	}

	return p.assembleTrees(trees, acc, n, threshold)
}

// assembleTrees places the selected trees into a structure matrix.
// Trees beyond the last selected one are completed arbitrarily and then truncated.
func (p policy) assembleTrees(trees [][]treeEdge, acc []levelSummary, n int, threshold float64) (*result, error) {
	d, k := p.d, len(trees)
	sets := make([][]structure.Edge, k)
	for t := range trees {
		sets[t] = make([]structure.Edge, len(trees[t]))
		for i := range trees[t] {
			sets[t][i] = trees[t][i].edge
		}
	}
	full, err := structure.CompleteTrees(d, sets)
	if err != nil {
		return nil, err
	}
	rv, place, err := structure.FromTrees(d, full)
	if err != nil {
		return nil, err
	}
	if rv, err = rv.Truncate(k); err != nil {
		return nil, err
	}

	fits := make([][]edgeFit, k)
	for t := range trees {
		fits[t] = make([]edgeFit, len(trees[t]))
		for i, te := range trees[t] {
			ef := te.edgeFit
			if place[t][i].Flipped {
				ef.pc = ef.pc.Flip()
			}
			fits[t][place[t][i].Col] = ef
		}
	}

	return p.assemble(rv, fits, acc, n, threshold)
}

// fitStructure fits pair copulas on a fixed structure, tree by tree, using fit
// for every edge. Automatic truncation may stop before rv.TruncLevel().
func (p policy) fitStructure(ctx context.Context, cols [][]float64, rv *structure.RVine, threshold float64, fit edgeFunc) (*result, error) {
	d, n := p.d, len(cols[0])
	maxTrees := p.maxTrees
	if rv.TruncLevel() < maxTrees {
		maxTrees = rv.TruncLevel()
	}
	order := rv.Order()
	pool := parallel.New(p.workers)

	// dir[t][e] and ind[t][e] as in the density recursion, one column per edge
	dir := [][][]float64{make([][]float64, d)}
	ind := [][][]float64{make([][]float64, d)}
	var e int
	for e = 0; e < d; e++ {
		dir[0][e] = cols[order[e]-1]
	}

	var fits [][]edgeFit
	var acc []levelSummary
	var t int
	for t = 0; t < maxTrees; t++ {
		start := time.Now()
		level := make([]edgeFit, d-1-t)
		err := pool.ForEach(ctx, len(level), func(_ context.Context, e int) error {
			pt, err := rv.Partner(t, e)
			if err != nil {
				return err
			}
			u2 := dir[t][pt.Col]
			if !pt.Direct {
				u2 = ind[t][pt.Col]
			}
			level[e] = fit(t, e, dir[t][e], u2)
			return nil
		})
		if err != nil {
			return nil, err
		}
		s := summarize(level)
		if p.truncAuto && !p.improves(t, n, s) {
			p.log.Debug("truncating", zap.Int("trunc_lvl", t), zap.Int("rejected_tree", t+1))
			break
		}
		nextDir := make([][]float64, d-1-t)
		nextInd := make([][]float64, d-1-t)
		for e = range level {
			nextDir[e], nextInd[e] = level[e].h2, level[e].h1
		}
		dir, ind = append(dir, nextDir), append(ind, nextInd)
		fits = append(fits, level)
		acc = append(acc, s)
		p.traceTree(t, len(level), acc, n, time.Since(start))
	}

	if len(fits) < rv.TruncLevel() {
		var err error
		if rv, err = rv.Truncate(len(fits)); err != nil {
			return nil, err
		}
	}

	return p.assemble(rv, fits, acc, n, threshold)
}

// assemble builds the fitted Vinecop and its mBICV from matrix-oriented fits.
func (p policy) assemble(rv *structure.RVine, fits [][]edgeFit, acc []levelSummary, n int, threshold float64) (*result, error) {
	pcs := make([][]*bicop.Bicop, len(fits))
	var diags []Diagnostic
	var taus []float64
	var ll float64
	for t := range fits {
		pcs[t] = make([]*bicop.Bicop, len(fits[t]))
		for e, ef := range fits[t] {
			pcs[t][e] = ef.pc
			ll += ef.pc.Loglik()
			diags = append(diags, fromWarnings(t, e, ef.warns)...)
			if !ef.pc.IsIndep() && !math.IsNaN(ef.tau) {
				taus = append(taus, math.Abs(ef.tau))
			}
		}
	}
	vc, err := New(rv, pcs)
	if err != nil {
		return nil, err
	}
	vc.loglik, vc.nobs, vc.threshold = ll, n, threshold
	vc.diags = diags
	vc.workers = p.workers

	k := make([]int, len(acc))
	var npars float64
	for t, s := range acc {
		k[t] = s.nonIndep
		npars += s.npars
	}

	return &result{vc: vc, mbicv: mbicv(ll, npars, n, p.d, k, p.pair.Psi0), taus: taus}, nil
}

// traceTree emits the per-tree record after the tree's barrier.
func (p policy) traceTree(t, edges int, acc []levelSummary, n int, elapsed time.Duration) {
	s := acc[t]
	if p.obs != nil {
		p.obs.ObserveTree(t+1, edges, edges-s.nonIndep, elapsed)
	}
	if !p.trace {
		return
	}
	var ll, npars float64
	k := make([]int, len(acc))
	for i, a := range acc {
		ll += a.loglik
		npars += a.npars
		k[i] = a.nonIndep
	}
	p.log.Info("tree selected",
		zap.Int("tree", t+1),
		zap.Int("edges", edges),
		zap.Int("independence", edges-s.nonIndep),
		zap.Float64("loglik", ll),
		zap.Float64("npars", npars),
		zap.Float64("mbicv", mbicv(ll, npars, n, p.d, k, p.pair.Psi0)),
	)
}

// report forwards the final model's families and diagnostics.
func (p policy) report(vc *Vinecop) {
	for _, dg := range vc.diags {
		p.log.Debug("diagnostic", zap.String("kind", dg.Kind.String()),
			zap.Int("tree", dg.Tree), zap.Int("edge", dg.Edge), zap.String("message", dg.Message))
		if p.obs != nil {
			p.obs.ObserveDiagnostic(dg.Kind.String())
		}
	}
	if p.obs == nil {
		return
	}
	for t := range vc.pcs {
		for _, pc := range vc.pcs[t] {
			p.obs.ObserveFamily(pc.Family().String())
		}
	}
}
