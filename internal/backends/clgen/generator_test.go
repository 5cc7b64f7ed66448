package clgen_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/backends/clgen"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
	"go.trai.ch/stencil/internal/engine/lower"
)

func loweredProgram(t *testing.T, offsets [][]int, policy domain.BoundaryPolicy, elem domain.ElemType, shape []int) *ir.Program {
	t.Helper()
	d, err := domain.NewDescriptor(offsets, policy, elem)
	require.NoError(t, err)
	sig, err := domain.DeriveSignature(d, domain.BackendOpenCL, shape)
	require.NoError(t, err)
	prog, err := lower.Lower(d, sig)
	require.NoError(t, err)
	return prog
}

func TestGenerate_Golden(t *testing.T) {
	tests := []struct {
		name string
		prog *ir.Program
	}{
		{
			name: "clamp_2d_fp64",
			prog: loweredProgram(t,
				[][]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {0, 0}},
				domain.BoundaryClamp, domain.ElemFloat64, []int{4, 4}),
		},
		{
			name: "wrap_1d_float32",
			prog: loweredProgram(t,
				[][]int{{-1}, {1}},
				domain.BoundaryWrap, domain.ElemFloat32, []int{6}),
		},
	}

	g := clgen.New(clgen.Options{EnableFP64: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := g.Generate(tt.prog, domain.TuningParams{})
			require.NoError(t, err)
			gold := goldie.New(t)
			gold.Assert(t, tt.name, []byte(src))
		})
	}
}

func TestGenerate_FP64RequiresDeviceSupport(t *testing.T) {
	prog := loweredProgram(t,
		[][]int{{-1}, {0}, {1}},
		domain.BoundaryClamp, domain.ElemFloat64, []int{16})

	_, err := clgen.New(clgen.Options{EnableFP64: false}).Generate(prog, domain.TuningParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedBackend)

	src, err := clgen.New(clgen.Options{EnableFP64: true}).Generate(prog, domain.TuningParams{})
	require.NoError(t, err)
	assert.Contains(t, src, "#pragma OPENCL EXTENSION cl_khr_fp64 : enable")
}

func TestGenerate_RankLimit(t *testing.T) {
	prog := loweredProgram(t,
		[][]int{{0, 0, 0, 0}, {1, 0, 0, 0}},
		domain.BoundaryClamp, domain.ElemFloat32, []int{4, 4, 4, 4})

	_, err := clgen.New(clgen.Options{}).Generate(prog, domain.TuningParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedBackend)
}

func TestGenerate_Deterministic(t *testing.T) {
	prog := loweredProgram(t,
		[][]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {0, 0}},
		domain.BoundaryConstant, domain.ElemFloat32, []int{32, 32})

	g := clgen.New(clgen.Options{})
	first, err := g.Generate(prog, domain.TuningParams{WorkGroup: []int{8, 8}})
	require.NoError(t, err)
	second, err := g.Generate(prog, domain.TuningParams{WorkGroup: []int{8, 8}})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlanLaunch_RoundsUpToWorkGroup(t *testing.T) {
	prog := loweredProgram(t,
		[][]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {0, 0}},
		domain.BoundarySkip, domain.ElemFloat32, []int{20, 20})

	plan := clgen.PlanLaunch(prog, domain.TuningParams{WorkGroup: []int{8, 4}})

	// Skip interior is 18x18; padded up to work-group multiples.
	assert.Equal(t, []int{8, 4}, plan.LocalSize)
	assert.Equal(t, []int{24, 20}, plan.GlobalSize)
}

func TestPlanLaunch_DefaultLocalSize(t *testing.T) {
	prog := loweredProgram(t,
		[][]int{{-1}, {0}, {1}},
		domain.BoundaryClamp, domain.ElemFloat32, []int{10})

	plan := clgen.PlanLaunch(prog, domain.TuningParams{})
	assert.Equal(t, []int{8}, plan.LocalSize)
	assert.Equal(t, []int{16}, plan.GlobalSize)
}
