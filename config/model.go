// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/matrix"
	"github.com/katalvlaran/rvine/structure"
	"github.com/katalvlaran/rvine/vinecop"
)

// Model is the YAML exchange form of a vine copula: the structure matrix and,
// per stored tree, one entry per edge in matrix column order.
type Model struct {
	Structure   [][]int        `yaml:"structure"`
	PairCopulas [][]PairCopula `yaml:"pair_copulas"`
	Loglik      *float64       `yaml:"loglik,omitempty"`
	Nobs        int            `yaml:"nobs,omitempty"`
	Threshold   float64        `yaml:"threshold,omitempty"`
}

// PairCopula is one edge of a Model.
type PairCopula struct {
	Family     string    `yaml:"family"`
	Rotation   int       `yaml:"rotation,omitempty"`
	Parameters []float64 `yaml:"parameters,omitempty,flow"`
}

// EncodeModel converts vc into its exchange form.
func EncodeModel(vc *vinecop.Vinecop) Model {
	m := vc.Structure().ToMatrix()
	d := m.Rows()
	out := Model{Structure: make([][]int, d), Nobs: vc.Nobs(), Threshold: vc.Threshold()}
	var i, j int
	for i = 0; i < d; i++ {
		out.Structure[i] = make([]int, d)
		for j = 0; j < d; j++ {
			v, _ := m.At(i, j)
			out.Structure[i][j] = int(v)
		}
	}
	if ll := vc.Loglik(); !math.IsNaN(ll) {
		out.Loglik = &ll
	}
	fams, rots, pars := vc.Families(), vc.Rotations(), vc.Parameters()
	out.PairCopulas = make([][]PairCopula, len(fams))
	for t := range fams {
		out.PairCopulas[t] = make([]PairCopula, len(fams[t]))
		for e := range fams[t] {
			out.PairCopulas[t][e] = PairCopula{Family: fams[t][e].String(), Rotation: rots[t][e], Parameters: pars[t][e]}
		}
	}

	return out
}

// Vinecop decodes m into a hand-specified vine (fit summaries are not restored).
func (m Model) Vinecop() (*vinecop.Vinecop, error) {
	rows := make([][]float64, len(m.Structure))
	for i, r := range m.Structure {
		rows[i] = make([]float64, len(r))
		for j, v := range r {
			rows[i][j] = float64(v)
		}
	}
	dm, err := matrix.NewDenseFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("model structure: %w", err)
	}
	rv, err := structure.FromMatrix(dm)
	if err != nil {
		return nil, fmt.Errorf("model structure: %w", err)
	}
	pcs := make([][]*bicop.Bicop, len(m.PairCopulas))
	for t := range m.PairCopulas {
		pcs[t] = make([]*bicop.Bicop, len(m.PairCopulas[t]))
		for e, p := range m.PairCopulas[t] {
			f, err := bicop.ParseFamily(p.Family)
			if err != nil {
				return nil, fmt.Errorf("tree %d, edge %d: %w", t+1, e+1, err)
			}
			if f == bicop.Indep {
				pcs[t][e] = bicop.NewIndep()
				continue
			}
			if pcs[t][e], err = bicop.New(f, p.Rotation, p.Parameters); err != nil {
				return nil, fmt.Errorf("tree %d, edge %d: %w", t+1, e+1, err)
			}
		}
	}

	return vinecop.New(rv, pcs)
}

// SaveModel writes vc to path as YAML.
func SaveModel(path string, vc *vinecop.Vinecop) error {
	data, err := yaml.Marshal(EncodeModel(vc))
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing model: %w", err)
	}

	return nil
}

// LoadModel reads a model written by SaveModel.
func LoadModel(path string) (*vinecop.Vinecop, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	var m Model
	if err = yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}

	return m.Vinecop()
}
