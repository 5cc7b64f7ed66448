package stencil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil"
)

func interpSettings() stencil.Settings {
	settings := stencil.DefaultSettings()
	settings.Backend = stencil.BackendInterp
	return settings
}

func TestSpecializer_FivePointAverage(t *testing.T) {
	desc, err := stencil.NewDescriptor(
		[][]int{{-1, 0}, {0, -1}, {0, 0}, {0, 1}, {1, 0}},
		stencil.BoundaryClamp,
		stencil.ElemFloat64,
	)
	require.NoError(t, err)

	in, err := stencil.NewGrid(stencil.ElemFloat64, 4, 4)
	require.NoError(t, err)
	in.Fill(1)

	s := stencil.NewSpecializer(interpSettings())
	out, err := s.Invoke(t.Context(), desc, []*stencil.Grid{in}, nil)
	require.NoError(t, err)
	for _, v := range out.Data() {
		assert.Equal(t, 5.0, v)
	}
}

func TestSpecializer_ScalarBody(t *testing.T) {
	// out = p0 * in[center]
	desc, err := stencil.NewDescriptor(
		[][]int{{0}},
		stencil.BoundaryClamp,
		stencil.ElemFloat64,
		stencil.WithScalarParams(1),
		stencil.WithBody(stencil.Binary{
			Op: stencil.OpMul,
			L:  stencil.Param{Index: 0},
			R:  stencil.Load{Input: 0, Index: 0},
		}),
	)
	require.NoError(t, err)

	in, err := stencil.NewGridFrom(stencil.ElemFloat64, []int{3}, []float64{1, 2, 3})
	require.NoError(t, err)

	s := stencil.NewSpecializer(interpSettings())
	out, err := s.Invoke(t.Context(), desc, []*stencil.Grid{in}, []float64{10})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, out.Data())
}

func TestSpecializer_PeekAfterInvoke(t *testing.T) {
	desc, err := stencil.NewDescriptor(
		[][]int{{-1}, {0}, {1}},
		stencil.BoundaryWrap,
		stencil.ElemFloat64,
	)
	require.NoError(t, err)

	in, err := stencil.NewGrid(stencil.ElemFloat64, 8)
	require.NoError(t, err)
	in.Fill(1)

	s := stencil.NewSpecializer(interpSettings())

	_, ok := s.Peek(desc, []int{8})
	assert.False(t, ok)

	_, err = s.Invoke(t.Context(), desc, []*stencil.Grid{in}, nil)
	require.NoError(t, err)

	art, ok := s.Peek(desc, []int{8})
	require.True(t, ok)
	assert.Equal(t, stencil.BackendInterp, art.Backend)
}
