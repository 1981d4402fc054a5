// SPDX-License-Identifier: MIT

package qrng

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/katalvlaran/rvine/matrix"
)

// Kind selects the point sequence of an Engine.
type Kind int

const (
	// KindPseudo draws independent pseudo-random uniforms, chunked into derived streams.
	KindPseudo Kind = iota
	// KindAuto uses Halton for dimension ≤ HaltonMaxDim and Sobol above.
	KindAuto
	// KindHalton forces the generalized Halton sequence.
	KindHalton
	// KindSobol forces the shifted Sobol sequence.
	KindSobol
)

// ChunkSize is the number of rows drawn from one derived pseudo-random stream.
// Row i always comes from stream i/ChunkSize, whatever the batch layout.
const ChunkSize = 256

// unitEps keeps every coordinate strictly inside (0,1) so quantile and
// h-function inversions never see the boundary.
const unitEps = 1e-10

var (
	// ErrBadDimension is returned when the engine dimension is not positive.
	ErrBadDimension = errors.New("qrng: dimension must be > 0")

	// ErrUnknownKind is returned for an unknown sequence name or Kind value.
	ErrUnknownKind = errors.New("qrng: unknown sequence kind")
)

// String returns the canonical lower-case name of k.
func (k Kind) String() string {
	switch k {
	case KindPseudo:
		return "pseudo"
	case KindAuto:
		return "auto"
	case KindHalton:
		return "halton"
	case KindSobol:
		return "sobol"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps "pseudo", "auto", "halton" or "sobol" (case-insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pseudo", "":
		return KindPseudo, nil
	case "auto", "qrng":
		return KindAuto, nil
	case "halton":
		return KindHalton, nil
	case "sobol":
		return KindSobol, nil
	default:
		return KindPseudo, fmt.Errorf("ParseKind(%q): %w", s, ErrUnknownKind)
	}
}

// Engine is an explicit, immutable description of a point stream: the sequence
// kind, its dimension, the seed, and the index of the next point. Operations
// take an Engine and return the advanced Engine; there is no hidden state.
//
// Two engines with equal fields produce identical points, and the points of a
// range [start, start+n) do not depend on how that range is cut into batches.
type Engine struct {
	Kind Kind
	Dim  int
	Seed int64
	Pos  uint64
}

// New returns an Engine positioned at the first point.
func New(kind Kind, dim int, seed int64) (Engine, error) {
	if dim <= 0 {
		return Engine{}, fmt.Errorf("New(dim=%d): %w", dim, ErrBadDimension)
	}
	if kind < KindPseudo || kind > KindSobol {
		return Engine{}, fmt.Errorf("New(kind=%d): %w", int(kind), ErrUnknownKind)
	}

	return Engine{Kind: kind, Dim: dim, Seed: seed}, nil
}

// Resolved returns the concrete sequence kind: KindAuto becomes Halton or Sobol.
func (e Engine) Resolved() Kind {
	if e.Kind != KindAuto {
		return e.Kind
	}
	if e.Dim <= HaltonMaxDim {
		return KindHalton
	}

	return KindSobol
}

// Advance returns a copy of e positioned n points further.
func (e Engine) Advance(n int) Engine {
	if n > 0 {
		e.Pos += uint64(n)
	}

	return e
}

// Next draws the n points at [e.Pos, e.Pos+n) and returns them with the advanced engine.
// Complexity: O(n·dim) (times log factors for Halton / Sobol).
func (e Engine) Next(n int) (*matrix.Dense, Engine, error) {
	g, err := e.Generator()
	if err != nil {
		return nil, e, err
	}
	out, err := matrix.NewDense(n, e.Dim)
	if err != nil {
		return nil, e, fmt.Errorf("Engine.Next: %w", err)
	}
	g.Fill(out, 0, e.Pos, n)

	return out, e.Advance(n), nil
}

// Generator materializes the tables of e (primes and multipliers, direction numbers).
// A Generator is read-only after construction and safe for concurrent Fill calls.
func (e Engine) Generator() (*Generator, error) {
	if e.Dim <= 0 {
		return nil, fmt.Errorf("Engine.Generator: %w", ErrBadDimension)
	}
	g := &Generator{kind: e.Resolved(), dim: e.Dim, seed: e.Seed}
	switch g.kind {
	case KindPseudo:
	case KindHalton:
		g.halton = newHalton(e.Dim, e.Seed)
	case KindSobol:
		g.sobol = newSobol(e.Dim, e.Seed)
	default:
		return nil, fmt.Errorf("Engine.Generator: %w", ErrUnknownKind)
	}

	return g, nil
}

// Generator evaluates points of one Engine by absolute index.
type Generator struct {
	kind   Kind
	dim    int
	seed   int64
	halton *halton
	sobol  *sobol
}

// Dim returns the number of coordinates per point.
func (g *Generator) Dim() int { return g.dim }

// Fill writes the n points with absolute indices [start, start+n) into rows
// [row, row+n) of dst. dst must have g.Dim() columns.
//
// Pseudo-random rows take their values from the stream of chunk index/ChunkSize,
// skipping the values of earlier rows in the same chunk; quasi-random rows use
// index+1 so the all-zero origin is never emitted.
func (g *Generator) Fill(dst *matrix.Dense, row int, start uint64, n int) {
	var i int
	switch g.kind {
	case KindHalton:
		for i = 0; i < n; i++ {
			buf := dst.RowView(row + i)
			g.halton.point(start+uint64(i)+1, buf)
			clampUnit(buf)
		}
	case KindSobol:
		for i = 0; i < n; i++ {
			buf := dst.RowView(row + i)
			g.sobol.point(start+uint64(i)+1, buf)
			clampUnit(buf)
		}
	default:
		var r *rand.Rand
		chunk := uint64(math.MaxUint64)
		for i = 0; i < n; i++ {
			idx := start + uint64(i)
			if c := idx / ChunkSize; c != chunk || r == nil {
				chunk = c
				r = RNGFromSeed(DeriveSeed(g.seed, chunk))
				skip := int(idx%ChunkSize) * g.dim
				for k := 0; k < skip; k++ {
					r.Float64()
				}
			}
			buf := dst.RowView(row + i)
			for j := range buf {
				buf[j] = r.Float64()
			}
			clampUnit(buf)
		}
	}
}

// clampUnit pins every value into [unitEps, 1-unitEps].
func clampUnit(v []float64) {
	for j, x := range v {
		if x < unitEps {
			v[j] = unitEps
		} else if x > 1-unitEps {
			v[j] = 1 - unitEps
		}
	}
}
