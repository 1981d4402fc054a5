// SPDX-License-Identifier: MIT

package vinecop

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/rvine/bicop"
)

var (
	// ErrDimensionMismatch indicates data, weights or an engine whose width differs from the vine.
	ErrDimensionMismatch = errors.New("vinecop: dimension mismatch")

	// ErrPairCopulas indicates a pair-copula array that does not fit the structure.
	ErrPairCopulas = errors.New("vinecop: pair copulas do not match the structure")

	// ErrControls indicates an invalid control value (psi0, thread count, budget, ...).
	ErrControls = errors.New("vinecop: invalid controls")

	// ErrNotFitted is returned by criteria that need a fit summary on a hand-specified vine.
	ErrNotFitted = errors.New("vinecop: model has no fit summary")
)

// DiagnosticKind classifies a recovered, non-fatal condition.
type DiagnosticKind int

const (
	// FitDegeneracy: no candidate family could be fit to an edge; it became independence.
	FitDegeneracy DiagnosticKind = iota
	// NumericWarning: an edge estimate is ill-conditioned; the model is still returned.
	NumericWarning
	// SelectionNonconvergence: an automatic search ran out of evaluations;
	// the best model found so far is returned.
	SelectionNonconvergence
)

// String returns the kind name used in logs and metrics labels.
func (k DiagnosticKind) String() string {
	switch k {
	case FitDegeneracy:
		return "fit_degeneracy"
	case NumericWarning:
		return "numeric_warning"
	default:
		return "selection_nonconvergence"
	}
}

// Diagnostic is one recovered condition. Tree and Edge are 1-based matrix
// coordinates (tree t, column e); both are 0 for whole-model conditions.
type Diagnostic struct {
	Kind    DiagnosticKind
	Tree    int
	Edge    int
	Message string
}

// String renders "kind (tree t, edge e): message".
func (d Diagnostic) String() string {
	if d.Tree == 0 {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}

	return fmt.Sprintf("%s (tree %d, edge %d): %s", d.Kind, d.Tree, d.Edge, d.Message)
}

// fromWarnings converts bicop warnings of edge (t, e), 0-based, into diagnostics.
func fromWarnings(t, e int, ws []bicop.Warning) []Diagnostic {
	if len(ws) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(ws))
	for i, w := range ws {
		kind := NumericWarning
		if w.Kind == bicop.WarnDegenerate {
			kind = FitDegeneracy
		}
		out[i] = Diagnostic{Kind: kind, Tree: t + 1, Edge: e + 1, Message: w.Message}
	}

	return out
}
