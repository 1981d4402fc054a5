// SPDX-License-Identifier: MIT

// Package prim_kruskal defines configuration options and sentinel errors for spanning-tree computation.
// It supports selecting between Kruskal and Prim algorithms via MSTOptions.
package prim_kruskal

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGraph indicates an edge list that cannot describe an undirected weighted graph:
// an endpoint outside [0, n), or a NaN weight.
var ErrInvalidGraph = errors.New("prim_kruskal: invalid graph")

// ErrInvalidRoot indicates that the Prim start vertex lies outside [0, n).
var ErrInvalidRoot = errors.New("prim_kruskal: root vertex out of range")

// ErrDisconnected indicates that the graph is not fully connected, so a spanning
// tree covering all vertices cannot be formed. It applies when n == 0 or when
// n > 1 and the candidate edges do not connect every vertex.
var ErrDisconnected = errors.New("prim_kruskal: graph is disconnected")

// ErrUnknownMethod indicates an MSTOptions.Method other than MethodPrim or MethodKruskal.
var ErrUnknownMethod = errors.New("prim_kruskal: unknown method")

// MethodPrim selects Prim's algorithm (grow from a root using a heap).
const MethodPrim = "prim"

// MethodKruskal selects Kruskal's algorithm (sort all edges and union-find).
const MethodKruskal = "kruskal"

// Edge is an undirected weighted candidate edge between vertices From and To,
// identified by their index in [0, n). ID is caller-defined and carried through
// unchanged so results can be mapped back to richer edge payloads.
type Edge struct {
	From, To int
	Weight   float64
	ID       int
}

// MSTOptions configures which algorithm to run, its start vertex, and the objective.
// Use DefaultOptions() to get a default setup (Kruskal, minimum weight).
//
// Fields:
//
//	Method   string: one of MethodPrim or MethodKruskal.
//	Root     int: start vertex for Prim; ignored when Method == MethodKruskal.
//	Maximize bool: build a maximum-weight spanning tree instead of a minimum one.
//
// See: prim_kruskal.Prim, prim_kruskal.Kruskal
// Complexity: O(E log V) for Prim, O(E log E + α(V)·E) for Kruskal.
type MSTOptions struct {
	// Method to use: MethodPrim or MethodKruskal.
	Method string

	// Root is the starting vertex for Prim's algorithm. Unused by Kruskal.
	Root int

	// Maximize flips the objective to the maximum-weight spanning tree.
	Maximize bool
}

// Option configures MSTOptions. All Option functions should modify the pointed MSTOptions.
type Option func(*MSTOptions)

// WithMethod returns an Option that sets the algorithm Method.
// Allowed values: MethodPrim, MethodKruskal.
func WithMethod(m string) Option {
	return func(opts *MSTOptions) {
		opts.Method = m
	}
}

// WithRoot returns an Option that sets the starting vertex for Prim's algorithm; ignored by Kruskal.
func WithRoot(root int) Option {
	return func(opts *MSTOptions) {
		opts.Root = root
	}
}

// WithMaximum returns an Option that requests a maximum-weight spanning tree.
func WithMaximum() Option {
	return func(opts *MSTOptions) {
		opts.Maximize = true
	}
}

// DefaultOptions returns MSTOptions initialized for Kruskal by default:
//
//	– Method   = MethodKruskal
//	– Root     = 0 (ignored by Kruskal)
//	– Maximize = false.
//
// Complexity: O(1) to construct.
func DefaultOptions() MSTOptions {
	return MSTOptions{
		Method: MethodKruskal,
		Root:   0,
	}
}

// NewOptions applies opts on top of DefaultOptions.
func NewOptions(opts ...Option) MSTOptions {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	return o
}

// Compute selects and runs the spanning-tree algorithm based on opts.Method.
//
//	– If opts.Method == MethodKruskal: calls Kruskal(n, edges, opts.Maximize).
//	– If opts.Method == MethodPrim:    calls Prim(n, edges, opts.Root, opts.Maximize).
//	– Otherwise:                        returns ErrUnknownMethod.
//
// Returns:
//
//	[]Edge: edges of the spanning tree (empty if n == 1).
//	float64: total weight of the tree (zero if no edges).
//	error: non-nil if computation cannot proceed.
func Compute(n int, edges []Edge, opts MSTOptions) ([]Edge, float64, error) {
	// Dispatch by method name
	switch opts.Method {
	case MethodKruskal:
		return Kruskal(n, edges, opts.Maximize)
	case MethodPrim:
		return Prim(n, edges, opts.Root, opts.Maximize)
	default:
		return nil, 0, fmt.Errorf("Compute(%q): %w", opts.Method, ErrUnknownMethod)
	}
}

// validate checks endpoints and weights of the candidate edges.
func validate(n int, edges []Edge) error {
	for i, e := range edges {
		if e.From < 0 || e.From >= n || e.To < 0 || e.To >= n {
			return fmt.Errorf("edge %d (%d-%d) with %d vertices: %w", i, e.From, e.To, n, ErrInvalidGraph)
		}
		if math.IsNaN(e.Weight) {
			return fmt.Errorf("edge %d (%d-%d) has NaN weight: %w", i, e.From, e.To, ErrInvalidGraph)
		}
	}

	return nil
}

// better reports whether weight a should be taken before b under the objective.
func better(a, b float64, maximize bool) bool {
	if maximize {
		return a > b
	}

	return a < b
}
