package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/rvine/bicop"
	"github.com/katalvlaran/rvine/config"
	"github.com/katalvlaran/rvine/structure"
	"github.com/katalvlaran/rvine/vinecop"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func writeModel(t *testing.T, dir string) string {
	t.Helper()
	rv, err := structure.NewDVine([]int{1, 2, 3}, -1)
	require.NoError(t, err)
	vc, err := vinecop.New(rv, [][]*bicop.Bicop{
		{bicop.MustNew(bicop.Gaussian, 0, 0.7), bicop.MustNew(bicop.Clayton, 0, 2)},
		{bicop.NewIndep()},
	})
	require.NoError(t, err)
	path := filepath.Join(dir, "model.yaml")
	require.NoError(t, config.SaveModel(path, vc))

	return path
}

func TestParseCSV(t *testing.T) {
	m, err := parseCSV(strings.NewReader("u1,u2\n0.1, 0.2\n# comment\n0.3,0.4\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, []float64{0.3, 0.4}, m.RowView(1))

	_, err = parseCSV(strings.NewReader("a,b\n"))
	assert.ErrorIs(t, err, errEmptyData)
	_, err = parseCSV(strings.NewReader("0.1,0.2\n0.3,x\n"))
	assert.ErrorContains(t, err, "data line 2")
	_, err = parseCSV(strings.NewReader("0.1,0.2\n0.3\n"))
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "rvine version "+version+"\n", out)
}

func TestStructureCmd(t *testing.T) {
	out, err := execute(t, "structure", "--kind", "cvine", "--order", "3,1,2", "--trunc", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "tree 1: ")
	assert.NotContains(t, out, "tree 2: ")

	out, err = execute(t, "structure", "--order", "1,2,3,4")
	require.NoError(t, err)
	assert.Contains(t, out, "tree 3: ")
	assert.Contains(t, out, "|")

	out, err = execute(t, "structure", "--kind", "random", "--dim", "5", "--seed", "7", "--trunc", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "tree 2: ")
	assert.NotContains(t, out, "tree 3: ")
	again, err := execute(t, "structure", "--kind", "random", "--dim", "5", "--seed", "7", "--trunc", "2")
	require.NoError(t, err)
	assert.Equal(t, out, again)
	_, err = execute(t, "structure", "--kind", "random", "--dim", "0")
	assert.ErrorIs(t, err, structure.ErrStructure)

	_, err = execute(t, "structure", "--kind", "rvine", "--order", "1,2")
	assert.Error(t, err)
	_, err = execute(t, "structure", "--order", "1,1")
	assert.ErrorIs(t, err, structure.ErrStructure)
	_, err = execute(t, "structure")
	assert.Error(t, err)
}

// TestPipeline simulates from a model, selects on the sample and evaluates the fit.
func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t, dir)
	cfgPath := filepath.Join(dir, "controls.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("family_set: [indep, gaussian, clayton]\npar_method: itau\nseed: 11\n"), 0o644))

	simPath := filepath.Join(dir, "sim.csv")
	_, err := execute(t, "simulate", "--config", cfgPath, "--model", model, "-n", "300", "--qrng", "pseudo", "--out", simPath)
	require.NoError(t, err)
	u, err := readCSV(simPath)
	require.NoError(t, err)
	assert.Equal(t, 300, u.Rows())
	assert.Equal(t, 3, u.Cols())

	fitPath := filepath.Join(dir, "fit.yaml")
	out, err := execute(t, "select", "--config", cfgPath, "--data", simPath, "--out", fitPath, "--threads", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "loglik: ")
	assert.Contains(t, out, "tree 1: ")
	fitted, err := config.LoadModel(fitPath)
	require.NoError(t, err)
	assert.Equal(t, 3, fitted.Dim())

	out, err = execute(t, "select", "--config", cfgPath, "--data", simPath, "--refit", model)
	require.NoError(t, err)
	assert.Contains(t, out, "gaussian")

	out, err = execute(t, "pdf", "--model", fitPath, "--data", simPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 300)
	for _, l := range lines {
		v, err := strconv.ParseFloat(l, 64)
		require.NoError(t, err)
		assert.Greater(t, v, 0.0)
	}

	out, err = execute(t, "cdf", "--config", cfgPath, "--model", model, "--data", simPath, "--n-mc", "500")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 300)

	wPath := filepath.Join(dir, "w.csv")
	_, err = execute(t, "rosenblatt", "--model", model, "--data", simPath, "--out", wPath)
	require.NoError(t, err)
	back, err := execute(t, "rosenblatt", "--inverse", "--model", model, "--data", wPath)
	require.NoError(t, err)
	got, err := parseCSV(strings.NewReader(back))
	require.NoError(t, err)
	var i int
	for i = 0; i < u.Rows(); i++ {
		assert.InDeltaSlice(t, u.RowView(i), got.RowView(i), 1e-6)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t, dir)

	_, err := execute(t, "select")
	assert.Error(t, err, "--data is required")
	_, err = execute(t, "pdf", "--model", filepath.Join(dir, "missing.yaml"), "--data", "x.csv")
	assert.Error(t, err)
	_, err = execute(t, "simulate", "--model", model, "--qrng", "lattice")
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("family_set: [bb1]\n"), 0o644))
	_, err = execute(t, "simulate", "--config", bad, "--model", model)
	assert.ErrorIs(t, err, bicop.ErrFamily)
}
