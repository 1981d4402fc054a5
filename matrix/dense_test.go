package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/rvine/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDense_InvalidDimensions verifies that non-positive shapes are rejected.
func TestNewDense_InvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 3)
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)
	_, err = matrix.NewDense(3, -1)
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestDense_AtSetBounds checks bounds-safe indexing.
func TestDense_AtSetBounds(t *testing.T) {
	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	require.NoError(t, m.Set(1, 2, 0.5))
	v, err := m.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	_, err = m.At(2, 0)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
	assert.ErrorIs(t, m.Set(0, 3, 1), matrix.ErrOutOfRange)
}

// TestNewDenseFrom_Ragged verifies ragged rows are rejected and good rows copied.
func TestNewDenseFrom_Ragged(t *testing.T) {
	_, err := matrix.NewDenseFrom([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	src := [][]float64{{1, 2}, {3, 4}}
	m, err := matrix.NewDenseFrom(src)
	require.NoError(t, err)
	src[0][0] = 99 // must not alias
	assert.Equal(t, []float64{1, 2}, m.RowView(0))
	assert.Equal(t, []float64{2, 4}, m.Col(1))
}

// TestNewDenseColumns builds a matrix column-wise.
func TestNewDenseColumns(t *testing.T) {
	m, err := matrix.NewDenseColumns([]float64{1, 2, 3}, []float64{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 2, m.Cols())
	assert.Equal(t, []float64{3, 6}, m.RowView(2))

	_, err = matrix.NewDenseColumns([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestDense_CloneIndependent verifies deep copies and Equal.
func TestDense_CloneIndependent(t *testing.T) {
	m, _ := matrix.NewDenseFrom([][]float64{{1, 2}, {3, 4}})
	c := m.CloneDense()
	assert.True(t, matrix.Equal(m, c))
	_ = c.Set(0, 0, 7)
	assert.False(t, matrix.Equal(m, c))
	assert.Equal(t, "[1, 2]\n[3, 4]\n", m.String())
}

// TestValidators covers the unit-cube and weight guards.
func TestValidators(t *testing.T) {
	m, _ := matrix.NewDenseFrom([][]float64{{0.1, 0.9}, {0, 1}})
	assert.NoError(t, matrix.ValidateUnitCube(m))
	assert.NoError(t, matrix.ValidateShape(m, 2))
	assert.ErrorIs(t, matrix.ValidateShape(m, 3), matrix.ErrDimensionMismatch)

	_ = m.Set(1, 0, 1.2)
	assert.ErrorIs(t, matrix.ValidateUnitCube(m), matrix.ErrOutOfUnitCube)
	_ = m.Set(1, 0, math.NaN())
	assert.ErrorIs(t, matrix.ValidateUnitCube(m), matrix.ErrNaNInf)

	var nilDense *matrix.Dense
	assert.ErrorIs(t, matrix.ValidateNotNil(nilDense), matrix.ErrNilMatrix)

	assert.NoError(t, matrix.ValidateWeights(nil, 5))
	assert.ErrorIs(t, matrix.ValidateWeights([]float64{1, 2}, 3), matrix.ErrDimensionMismatch)
	assert.ErrorIs(t, matrix.ValidateWeights([]float64{0, 0}, 2), matrix.ErrBadWeights)
	assert.ErrorIs(t, matrix.ValidateWeights([]float64{1, -1}, 2), matrix.ErrBadWeights)
}
