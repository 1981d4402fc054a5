// SPDX-License-Identifier: MIT

package vinecop

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/matrix"
	"github.com/katalvlaran/rvine/parallel"
	"github.com/katalvlaran/rvine/qrng"
	"github.com/katalvlaran/rvine/structure"
)

// rowBatch is the number of rows per parallel evaluation job.
const rowBatch = qrng.ChunkSize

// plan caches what the recursions read per edge.
type plan struct {
	d       int
	order   []int
	partner [][]structure.Partner
	pcs     [][]*bicop.Bicop
}

func (vc *Vinecop) plan() *plan {
	p := &plan{d: vc.rv.Dim(), order: vc.rv.Order(), pcs: vc.pcs}
	p.partner = make([][]structure.Partner, len(vc.pcs))
	for t := range vc.pcs {
		p.partner[t] = make([]structure.Partner, len(vc.pcs[t]))
		for e := range vc.pcs[t] {
			p.partner[t][e], _ = vc.rv.Partner(t, e) // in range by construction
		}
	}

	return p
}

// depth returns the number of edges in column e.
func (p *plan) depth(e int) int {
	if m := p.d - 1 - e; m < len(p.pcs) {
		return m
	}

	return len(p.pcs)
}

// workspace holds the h-function levels of one row.
// dir[t][e] = F(order[e] | s[0..t-1][e]); ind[t][e] = F(s[t-1][e] | order[e], s[0..t-2][e]).
type workspace struct {
	dir, ind [][]float64
}

func (p *plan) workspace() *workspace {
	ws := &workspace{dir: make([][]float64, len(p.pcs)+1), ind: make([][]float64, len(p.pcs)+1)}
	for t := range ws.dir {
		ws.dir[t] = make([]float64, p.d)
		ws.ind[t] = make([]float64, p.d)
	}

	return ws
}

// second returns the second argument of edge (t, e).
func (p *plan) second(ws *workspace, t, e int) float64 {
	pt := p.partner[t][e]
	if pt.Direct {
		return ws.dir[t][pt.Col]
	}

	return ws.ind[t][pt.Col]
}

// forward propagates row u (indexed by variable) through every tree and returns
// the log density. Afterwards ws holds all h-function levels.
func (p *plan) forward(u []float64, ws *workspace) float64 {
	var t, e int
	for e = 0; e < p.d; e++ {
		ws.dir[0][e] = u[p.order[e]-1]
	}
	var logd float64
	for t = 0; t < len(p.pcs); t++ {
		for e = 0; e < p.d-1-t; e++ {
			u1, u2 := ws.dir[t][e], p.second(ws, t, e)
			pc := p.pcs[t][e]
			if pc.IsIndep() {
				ws.dir[t+1][e], ws.ind[t+1][e] = u1, u2
				continue
			}
			logd += math.Log(pc.PDF(u1, u2))
			ws.dir[t+1][e] = pc.HFunc2(u1, u2)
			ws.ind[t+1][e] = pc.HFunc1(u1, u2)
		}
	}

	return logd
}

// inverse maps independent uniforms w (indexed by variable) to a vine sample in u.
// Columns run right to left so every partner column is complete when it is read.
func (p *plan) inverse(w, u []float64, ws *workspace) {
	var t, e int
	for e = p.d - 1; e >= 0; e-- {
		m := p.depth(e)
		q := w[p.order[e]-1]
		ws.dir[m][e] = q
		for t = m - 1; t >= 0; t-- {
			if pc := p.pcs[t][e]; !pc.IsIndep() {
				q = pc.HInv2(q, p.second(ws, t, e))
			}
			ws.dir[t][e] = q
		}
		for t = 0; t < m; t++ {
			u2 := p.second(ws, t, e)
			if pc := p.pcs[t][e]; pc.IsIndep() {
				ws.ind[t+1][e] = u2
			} else {
				ws.ind[t+1][e] = pc.HFunc1(ws.dir[t][e], u2)
			}
		}
		u[p.order[e]-1] = q
	}
}

// checkData validates an n×d input on the unit cube.
func (vc *Vinecop) checkData(method string, u *matrix.Dense) error {
	if err := matrix.ValidateNotNil(u); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if u.Cols() != vc.Dim() {
		return fmt.Errorf("%s: %d columns for a %d-dimensional vine: %w", method, u.Cols(), vc.Dim(), ErrDimensionMismatch)
	}
	if err := matrix.ValidateUnitCube(u); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	return nil
}

// eachBatch runs fn over fixed row batches of [0, n) on vc's worker pool,
// each job with its own workspace.
func (vc *Vinecop) eachBatch(ctx context.Context, p *plan, n int, fn func(r parallel.Range, ws *workspace)) error {
	return parallel.New(vc.workers).ForEachRange(ctx, n, rowBatch, func(_ context.Context, _ int, r parallel.Range) error {
		fn(r, p.workspace())
		return nil
	})
}

// PDF evaluates the vine density at every row of u.
// Independence edges contribute a factor of 1 and pass their inputs through.
// Complexity: O(n · d · TruncLevel()).
func (vc *Vinecop) PDF(ctx context.Context, u *matrix.Dense) ([]float64, error) {
	if err := vc.checkData("PDF", u); err != nil {
		return nil, err
	}
	p := vc.plan()
	out := make([]float64, u.Rows())
	err := vc.eachBatch(ctx, p, u.Rows(), func(r parallel.Range, ws *workspace) {
		for i := r.Lo; i < r.Hi; i++ {
			out[i] = math.Exp(p.forward(u.RowView(i), ws))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("PDF: %w", err)
	}

	return out, nil
}

// LogLik returns Σ w_i·log c(u_i); nil w means unit weights.
// Batch sums are added in batch order, so the result does not depend on NumThreads.
func (vc *Vinecop) LogLik(ctx context.Context, u *matrix.Dense, w []float64) (float64, error) {
	if err := vc.checkData("LogLik", u); err != nil {
		return math.NaN(), err
	}
	if err := matrix.ValidateWeights(w, u.Rows()); err != nil {
		return math.NaN(), fmt.Errorf("LogLik: %w", err)
	}
	p := vc.plan()
	batches, _ := parallel.Plan(u.Rows(), rowBatch)
	sums := make([]float64, len(batches))
	err := vc.eachBatch(ctx, p, u.Rows(), func(r parallel.Range, ws *workspace) {
		var s float64
		for i := r.Lo; i < r.Hi; i++ {
			ld := p.forward(u.RowView(i), ws)
			if len(w) > 0 {
				ld *= w[i]
			}
			s += ld
		}
		sums[r.Lo/rowBatch] = s
	})
	if err != nil {
		return math.NaN(), fmt.Errorf("LogLik: %w", err)
	}
	var ll float64
	for _, s := range sums {
		ll += s
	}

	return ll, nil
}

// Rosenblatt maps u to independent uniforms: column order[e] of the result is
// F(u_order[e] | the variables conditioned on in column e).
func (vc *Vinecop) Rosenblatt(ctx context.Context, u *matrix.Dense) (*matrix.Dense, error) {
	if err := vc.checkData("Rosenblatt", u); err != nil {
		return nil, err
	}
	p := vc.plan()
	out, _ := matrix.NewDense(u.Rows(), u.Cols())
	err := vc.eachBatch(ctx, p, u.Rows(), func(r parallel.Range, ws *workspace) {
		for i := r.Lo; i < r.Hi; i++ {
			p.forward(u.RowView(i), ws)
			row := out.RowView(i)
			for e := 0; e < p.d; e++ {
				row[p.order[e]-1] = ws.dir[p.depth(e)][e]
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("Rosenblatt: %w", err)
	}

	return out, nil
}

// InverseRosenblatt is the inverse of Rosenblatt: it turns independent uniforms
// into a sample of the vine.
func (vc *Vinecop) InverseRosenblatt(ctx context.Context, w *matrix.Dense) (*matrix.Dense, error) {
	if err := vc.checkData("InverseRosenblatt", w); err != nil {
		return nil, err
	}
	p := vc.plan()
	out, _ := matrix.NewDense(w.Rows(), w.Cols())
	err := vc.eachBatch(ctx, p, w.Rows(), func(r parallel.Range, ws *workspace) {
		for i := r.Lo; i < r.Hi; i++ {
			p.inverse(w.RowView(i), out.RowView(i), ws)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("InverseRosenblatt: %w", err)
	}

	return out, nil
}

// Simulate draws n rows from the vine using the points [eng.Pos, eng.Pos+n) of eng
// and returns the engine advanced past them.
//
// Every batch fills its rows by absolute point index, so the output is the same
// for every NumThreads and for any split of n across calls.
func (vc *Vinecop) Simulate(ctx context.Context, n int, eng qrng.Engine) (*matrix.Dense, qrng.Engine, error) {
	if eng.Dim != vc.Dim() {
		return nil, eng, fmt.Errorf("Simulate: engine of dimension %d for a %d-dimensional vine: %w", eng.Dim, vc.Dim(), ErrDimensionMismatch)
	}
	gen, err := eng.Generator()
	if err != nil {
		return nil, eng, fmt.Errorf("Simulate: %w", err)
	}
	out, err := matrix.NewDense(n, vc.Dim())
	if err != nil {
		return nil, eng, fmt.Errorf("Simulate: %w", err)
	}
	w, _ := matrix.NewDense(n, vc.Dim())
	p := vc.plan()
	err = vc.eachBatch(ctx, p, n, func(r parallel.Range, ws *workspace) {
		gen.Fill(w, r.Lo, eng.Pos+uint64(r.Lo), r.Len())
		for i := r.Lo; i < r.Hi; i++ {
			p.inverse(w.RowView(i), out.RowView(i), ws)
		}
	})
	if err != nil {
		return nil, eng, fmt.Errorf("Simulate: %w", err)
	}

	return out, eng.Advance(n), nil
}

// CDF estimates P(U ≤ u_i) for every row of u by the share of nMC points,
// simulated from eng, lying in the orthant [0, u_i]. It returns the advanced engine.
// Complexity: O(nMC · d · TruncLevel() + rows · nMC · d).
func (vc *Vinecop) CDF(ctx context.Context, u *matrix.Dense, nMC int, eng qrng.Engine) ([]float64, qrng.Engine, error) {
	if err := vc.checkData("CDF", u); err != nil {
		return nil, eng, err
	}
	if nMC <= 0 {
		return nil, eng, fmt.Errorf("CDF: n_mc=%d: %w", nMC, ErrControls)
	}
	sim, next, err := vc.Simulate(ctx, nMC, eng)
	if err != nil {
		return nil, eng, fmt.Errorf("CDF: %w", err)
	}
	out := make([]float64, u.Rows())
	err = parallel.New(vc.workers).ForEachRange(ctx, u.Rows(), rowBatch, func(_ context.Context, _ int, r parallel.Range) error {
		for i := r.Lo; i < r.Hi; i++ {
			out[i] = orthantShare(sim, u.RowView(i))
		}
		return nil
	})
	if err != nil {
		return nil, eng, fmt.Errorf("CDF: %w", err)
	}

	return out, next, nil
}

// orthantShare is the fraction of rows of sim that are ≤ x componentwise.
func orthantShare(sim *matrix.Dense, x []float64) float64 {
	var hits int
	for i := 0; i < sim.Rows(); i++ {
		row := sim.RowView(i)
		in := true
		for j, v := range row {
			if v > x[j] {
				in = false
				break
			}
		}
		if in {
			hits++
		}
	}

	return float64(hits) / float64(sim.Rows())
}
