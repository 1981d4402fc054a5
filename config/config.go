// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/qrng"
	"github.com/katalvlaran/rvine/stats"
	"github.com/katalvlaran/rvine/vinecop"
)

// ErrInvalid indicates a malformed or out-of-range configuration value.
var ErrInvalid = errors.New("config: invalid value")

// File is the YAML controls file of the rvine command.
type File struct {
	// FamilySet lists family or group names ("all", "onepar", "archimedean", ...).
	FamilySet []string `yaml:"family_set"`

	// ParMethod is "mle" or "itau".
	ParMethod string `yaml:"par_method"`

	// NonparMult scales nonparametric bandwidths.
	NonparMult float64 `yaml:"nonpar_mult"`

	// SelectionCriterion is "loglik", "aic", "bic" or "mbic".
	SelectionCriterion string `yaml:"selection_criterion"`

	// Psi0 is the prior probability of a non-independence edge.
	Psi0 float64 `yaml:"psi0"`

	// PreselectFamilies enables rotation pre-selection.
	PreselectFamilies bool `yaml:"preselect_families"`

	// TreeCriterion is "tau", "rho", "hoeffd", "mcor" or "beta".
	TreeCriterion string `yaml:"tree_criterion"`

	// TreeAlgorithm is "kruskal" or "prim".
	TreeAlgorithm string `yaml:"tree_algorithm"`

	// TruncLvl is "auto", "full" or a non-negative integer.
	TruncLvl Auto `yaml:"trunc_lvl"`

	// Threshold is "auto" or a value in [0,1].
	Threshold Auto `yaml:"threshold"`

	// MaxSelectionEvals bounds the automatic threshold search.
	MaxSelectionEvals int `yaml:"max_selection_evals"`

	// NumThreads is the worker count (0 means one per CPU).
	NumThreads int `yaml:"num_threads"`

	// ShowTrace logs one record per tree.
	ShowTrace bool `yaml:"show_trace"`

	// Seed drives simulation and CDF engines.
	Seed int64 `yaml:"seed"`

	// Qrng is "pseudo", "auto", "halton" or "sobol".
	Qrng string `yaml:"qrng"`

	// NMC is the number of points of the CDF estimator.
	NMC int `yaml:"n_mc"`
}

// Auto is a scalar that is either the word "auto" or a literal value.
type Auto struct {
	raw string
}

// AutoValue returns an Auto holding raw.
func AutoValue(raw string) Auto { return Auto{raw: strings.TrimSpace(raw)} }

// IsAuto reports whether the value is "auto".
func (a Auto) IsAuto() bool { return strings.EqualFold(a.raw, "auto") }

// String returns the raw text.
func (a Auto) String() string { return a.raw }

// UnmarshalYAML accepts any scalar.
func (a *Auto) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar: %w", value.Line, ErrInvalid)
	}
	a.raw = strings.TrimSpace(value.Value)

	return nil
}

// MarshalYAML writes the raw text.
func (a Auto) MarshalYAML() (interface{}, error) { return a.raw, nil }

// Default mirrors vinecop.DefaultControls plus the simulation defaults.
func Default() *File {
	c := vinecop.DefaultControls()

	return &File{
		FamilySet:          []string{"all"},
		ParMethod:          c.ParMethod.String(),
		NonparMult:         c.NonparMult,
		SelectionCriterion: c.SelectionCriterion.String(),
		Psi0:               c.Psi0,
		PreselectFamilies:  c.PreselectFamilies,
		TreeCriterion:      c.TreeCriterion.String(),
		TreeAlgorithm:      c.TreeAlgorithm,
		TruncLvl:           AutoValue("full"),
		Threshold:          AutoValue("0"),
		MaxSelectionEvals:  c.MaxSelectionEvals,
		NumThreads:         c.NumThreads,
		Qrng:               qrng.KindAuto.String(),
		NMC:                10000,
	}
}

// Load reads path over Default and validates the result. Unknown keys and unknown
// family names fail here, before any fitting.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse is Load on an in-memory document.
func Parse(data []byte) (*File, error) {
	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// Validate checks every field by building the controls.
func (f *File) Validate() error {
	if _, err := f.Controls(); err != nil {
		return err
	}
	if _, err := qrng.ParseKind(f.Qrng); err != nil {
		return fmt.Errorf("qrng: %w", err)
	}
	if f.NMC <= 0 {
		return fmt.Errorf("n_mc %d must be positive: %w", f.NMC, ErrInvalid)
	}

	return nil
}

// Controls converts the file into vinecop.Controls (without logger or observer).
func (f *File) Controls() (vinecop.Controls, error) {
	c := vinecop.DefaultControls()
	var err error
	if c.FamilySet, err = bicop.ParseFamilySet(f.FamilySet); err != nil {
		return c, fmt.Errorf("family_set: %w", err)
	}
	if c.ParMethod, err = bicop.ParseMethod(f.ParMethod); err != nil {
		return c, fmt.Errorf("par_method: %w", err)
	}
	if c.SelectionCriterion, err = bicop.ParseCriterion(f.SelectionCriterion); err != nil {
		return c, fmt.Errorf("selection_criterion: %w", err)
	}
	if c.TreeCriterion, err = stats.ParseMeasure(f.TreeCriterion); err != nil {
		return c, fmt.Errorf("tree_criterion: %w", err)
	}
	if c.TruncLevel, err = parseLevel(f.TruncLvl); err != nil {
		return c, err
	}
	if c.Threshold, err = parseThreshold(f.Threshold); err != nil {
		return c, err
	}
	if !(f.Psi0 > 0 && f.Psi0 < 1) {
		return c, fmt.Errorf("psi0 %g outside (0,1): %w", f.Psi0, ErrInvalid)
	}
	if f.MaxSelectionEvals < 1 {
		return c, fmt.Errorf("max_selection_evals %d: %w", f.MaxSelectionEvals, ErrInvalid)
	}
	c.NonparMult = f.NonparMult
	c.Psi0 = f.Psi0
	c.PreselectFamilies = f.PreselectFamilies
	c.TreeAlgorithm = f.TreeAlgorithm
	c.MaxSelectionEvals = f.MaxSelectionEvals
	c.NumThreads = f.NumThreads
	c.ShowTrace = f.ShowTrace

	return c, nil
}

// Engine returns the random engine of dimension d described by the file.
func (f *File) Engine(d int) (qrng.Engine, error) {
	kind, err := qrng.ParseKind(f.Qrng)
	if err != nil {
		return qrng.Engine{}, fmt.Errorf("qrng: %w", err)
	}

	return qrng.New(kind, d, f.Seed)
}

func parseLevel(a Auto) (vinecop.Level, error) {
	switch {
	case a.IsAuto():
		return vinecop.AutoLevel(), nil
	case a.raw == "" || strings.EqualFold(a.raw, "full"):
		return vinecop.FullLevel(), nil
	}
	k, err := strconv.Atoi(a.raw)
	if err != nil || k < 0 {
		return vinecop.Level{}, fmt.Errorf("trunc_lvl %q: %w", a.raw, ErrInvalid)
	}

	return vinecop.FixedLevel(k), nil
}

func parseThreshold(a Auto) (vinecop.Threshold, error) {
	if a.IsAuto() {
		return vinecop.AutoThreshold(), nil
	}
	if a.raw == "" {
		return vinecop.Threshold{}, nil
	}
	v, err := strconv.ParseFloat(a.raw, 64)
	if err != nil || v < 0 || v > 1 {
		return vinecop.Threshold{}, fmt.Errorf("threshold %q: %w", a.raw, ErrInvalid)
	}

	return vinecop.FixedThreshold(v), nil
}
