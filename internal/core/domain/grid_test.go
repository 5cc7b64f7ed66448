package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/core/domain"
)

func TestGrid_RowMajorLayout(t *testing.T) {
	g, err := domain.NewGrid(domain.ElemFloat64, 3, 4)
	require.NoError(t, err)

	require.NoError(t, g.Set(7.5, 1, 2))
	v, err := g.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)

	// Row-major: element (1,2) sits at 1*4+2.
	assert.Equal(t, 7.5, g.Data()[6])
}

func TestGrid_BoundsChecking(t *testing.T) {
	g, err := domain.NewGrid(domain.ElemFloat32, 2, 2)
	require.NoError(t, err)

	_, err = g.At(2, 0)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	err = g.Set(1, 0)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange, "rank mismatch is out of range")
}

func TestGrid_CloneIsIndependent(t *testing.T) {
	g, err := domain.NewGrid(domain.ElemFloat64, 4)
	require.NoError(t, err)
	g.Fill(1)

	c := g.Clone()
	require.NoError(t, c.Set(9, 0))

	v, err := g.At(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	assert.False(t, g.EqualWithin(c, 1e-12))
	assert.True(t, g.EqualWithin(g.Clone(), 0))
}

func TestNewGrid_Invalid(t *testing.T) {
	_, err := domain.NewGrid(domain.ElemInvalid, 4)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = domain.NewGrid(domain.ElemFloat64)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)

	_, err = domain.NewGrid(domain.ElemFloat64, 4, 0)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)

	_, err = domain.NewGridFrom(domain.ElemFloat64, []int{2, 2}, make([]float64, 3))
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}
