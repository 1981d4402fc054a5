// SPDX-License-Identifier: MIT

package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrBadBatchSize is returned for a non-positive batch size.
var ErrBadBatchSize = errors.New("parallel: batch size must be > 0")

// Range is the half-open index interval [Lo, Hi) of one batch.
type Range struct {
	Lo, Hi int
}

// Len returns Hi - Lo.
func (r Range) Len() int { return r.Hi - r.Lo }

// Plan splits [0, n) into consecutive ranges of batchSize (the last may be shorter).
// The plan depends only on n and batchSize, never on the worker count.
func Plan(n, batchSize int) ([]Range, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("Plan(%d, %d): %w", n, batchSize, ErrBadBatchSize)
	}
	out := make([]Range, 0, (n+batchSize-1)/batchSize)
	for lo := 0; lo < n; lo += batchSize {
		hi := lo + batchSize
		if hi > n {
			hi = n
		}
		out = append(out, Range{Lo: lo, Hi: hi})
	}

	return out, nil
}

// Pool bounds the number of goroutines running index-addressed jobs.
// Jobs write their results into caller-owned slots indexed by job number, so the
// output is the same for every worker count.
type Pool struct {
	workers int
}

// New returns a pool with the given worker count; workers ≤ 0 means runtime.NumCPU().
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pool{workers: workers}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// ForEach runs fn(ctx, i) for i in [0, n). With a single worker (or n ≤ 1) the jobs
// run in order on the calling goroutine. The first error cancels the context passed
// to the remaining jobs and is returned.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	if p.workers == 1 || n == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		i := i // capture loop variable
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return fn(gCtx, i)
		})
	}

	return g.Wait()
}

// ForEachRange plans [0, n) in batches of batchSize and runs fn once per batch,
// passing the batch number and its range.
func (p *Pool) ForEachRange(ctx context.Context, n, batchSize int, fn func(ctx context.Context, batch int, r Range) error) error {
	plan, err := Plan(n, batchSize)
	if err != nil {
		return err
	}

	return p.ForEach(ctx, len(plan), func(ctx context.Context, b int) error {
		return fn(ctx, b, plan[b])
	})
}
