package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/engine/interp"
	"go.trai.ch/stencil/internal/engine/lower"
)

func evaluatorFor(t *testing.T, d domain.Descriptor, shape []int, workers int) *interp.Evaluator {
	t.Helper()
	sig, err := domain.DeriveSignature(d, domain.BackendInterp, shape)
	require.NoError(t, err)
	prog, err := lower.Lower(d, sig)
	require.NoError(t, err)
	ev, err := interp.New(prog, workers)
	require.NoError(t, err)
	return ev
}

func TestEvaluator_FivePointClampAllOnes(t *testing.T) {
	// 5-point stencil over a 4x4 grid of ones: every output cell sums five
	// neighbor values of 1.0, with clamped boundaries reusing interior 1.0.
	d, err := domain.NewDescriptor(
		[][]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {0, 0}},
		domain.BoundaryClamp,
		domain.ElemFloat64,
	)
	require.NoError(t, err)

	in, err := domain.NewGrid(domain.ElemFloat64, 4, 4)
	require.NoError(t, err)
	in.Fill(1)
	out, err := domain.NewGrid(domain.ElemFloat64, 4, 4)
	require.NoError(t, err)

	ev := evaluatorFor(t, d, []int{4, 4}, 1)
	require.NoError(t, ev.Invoke(t.Context(), []*domain.Grid{in}, nil, out))

	for _, v := range out.Data() {
		assert.InDelta(t, 5.0, v, 1e-12)
	}
}

func TestEvaluator_ClampUsesEdgeValue(t *testing.T) {
	// {-1,0,+1} on length 5: output[0] must use input[0] for the
	// out-of-range input[-1].
	d, err := domain.NewDescriptor([][]int{{-1}, {0}, {1}}, domain.BoundaryClamp, domain.ElemFloat64)
	require.NoError(t, err)

	in, err := domain.NewGridFrom(domain.ElemFloat64, []int{5}, []float64{10, 20, 30, 40, 50})
	require.NoError(t, err)
	out, err := domain.NewGrid(domain.ElemFloat64, 5)
	require.NoError(t, err)

	ev := evaluatorFor(t, d, []int{5}, 1)
	require.NoError(t, ev.Invoke(t.Context(), []*domain.Grid{in}, nil, out))

	// out[0] = in[0] + in[0] + in[1] with the clamped -1 load.
	assert.InDelta(t, 40.0, out.Data()[0], 1e-12)
	assert.InDelta(t, 60.0, out.Data()[1], 1e-12)
	assert.InDelta(t, 140.0, out.Data()[4], 1e-12)
}

func TestEvaluator_SkipLeavesBoundaryUntouched(t *testing.T) {
	d, err := domain.NewDescriptor([][]int{{-1}, {0}, {1}}, domain.BoundarySkip, domain.ElemFloat64)
	require.NoError(t, err)

	in, err := domain.NewGridFrom(domain.ElemFloat64, []int{5}, []float64{1, 1, 1, 1, 1})
	require.NoError(t, err)
	out, err := domain.NewGrid(domain.ElemFloat64, 5)
	require.NoError(t, err)
	out.Fill(-7) // pre-call sentinel values

	ev := evaluatorFor(t, d, []int{5}, 1)
	require.NoError(t, ev.Invoke(t.Context(), []*domain.Grid{in}, nil, out))

	assert.Equal(t, -7.0, out.Data()[0], "boundary cell must be untouched")
	assert.Equal(t, -7.0, out.Data()[4], "boundary cell must be untouched")
	for i := 1; i <= 3; i++ {
		assert.InDelta(t, 3.0, out.Data()[i], 1e-12)
	}
}

func TestEvaluator_WrapAndConstant(t *testing.T) {
	in, err := domain.NewGridFrom(domain.ElemFloat64, []int{4}, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	t.Run("wrap", func(t *testing.T) {
		d, err := domain.NewDescriptor([][]int{{-1}, {1}}, domain.BoundaryWrap, domain.ElemFloat64)
		require.NoError(t, err)
		out, err := domain.NewGrid(domain.ElemFloat64, 4)
		require.NoError(t, err)

		ev := evaluatorFor(t, d, []int{4}, 1)
		require.NoError(t, ev.Invoke(t.Context(), []*domain.Grid{in}, nil, out))

		// out[0] = in[3] + in[1], out[3] = in[2] + in[0].
		assert.InDelta(t, 6.0, out.Data()[0], 1e-12)
		assert.InDelta(t, 4.0, out.Data()[3], 1e-12)
	})

	t.Run("constant", func(t *testing.T) {
		d, err := domain.NewDescriptor(
			[][]int{{-1}, {1}},
			domain.BoundaryConstant,
			domain.ElemFloat64,
			domain.WithPadValue(100),
		)
		require.NoError(t, err)
		out, err := domain.NewGrid(domain.ElemFloat64, 4)
		require.NoError(t, err)

		ev := evaluatorFor(t, d, []int{4}, 1)
		require.NoError(t, ev.Invoke(t.Context(), []*domain.Grid{in}, nil, out))

		assert.InDelta(t, 102.0, out.Data()[0], 1e-12)
		assert.InDelta(t, 103.0, out.Data()[3], 1e-12)
	})
}

func TestEvaluator_ScalarParamsAndMathBody(t *testing.T) {
	// out[i] = sqrt(fabs(in[i-1] - in[i+1])) * p0
	body := domain.Binary{
		Op: domain.OpMul,
		L: domain.Call{Fn: domain.FnSqrt, Args: []domain.Expr{
			domain.Call{Fn: domain.FnAbs, Args: []domain.Expr{
				domain.Binary{Op: domain.OpSub, L: domain.Load{Index: 0}, R: domain.Load{Index: 1}},
			}},
		}},
		R: domain.Param{Index: 0},
	}
	d, err := domain.NewDescriptor(
		[][]int{{-1}, {1}},
		domain.BoundarySkip,
		domain.ElemFloat64,
		domain.WithScalarParams(1),
		domain.WithBody(body),
	)
	require.NoError(t, err)

	in, err := domain.NewGridFrom(domain.ElemFloat64, []int{4}, []float64{0, 4, 0, 4})
	require.NoError(t, err)
	out, err := domain.NewGrid(domain.ElemFloat64, 4)
	require.NoError(t, err)

	ev := evaluatorFor(t, d, []int{4}, 1)
	require.NoError(t, ev.Invoke(t.Context(), []*domain.Grid{in}, []float64{0.5}, out))

	// |in[0]-in[2]| = 0, |in[1]-in[3]| = 0 at i=2; i=1: |0-0|=0, i=2: |4-4|=0.
	assert.InDelta(t, 0.0, out.Data()[1], 1e-12)
	assert.InDelta(t, 0.0, out.Data()[2], 1e-12)
}

func TestEvaluator_ParallelMatchesSequential(t *testing.T) {
	d, err := domain.NewDescriptor(
		[][]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {0, 0}},
		domain.BoundaryWrap,
		domain.ElemFloat64,
	)
	require.NoError(t, err)

	in, err := domain.NewGrid(domain.ElemFloat64, 32, 17)
	require.NoError(t, err)
	for i := range in.Data() {
		in.Data()[i] = float64(i%13) * 0.25
	}

	seqOut, err := domain.NewGrid(domain.ElemFloat64, 32, 17)
	require.NoError(t, err)
	parOut, err := domain.NewGrid(domain.ElemFloat64, 32, 17)
	require.NoError(t, err)

	seq := evaluatorFor(t, d, []int{32, 17}, 1)
	par := evaluatorFor(t, d, []int{32, 17}, 8)
	require.NoError(t, seq.Invoke(t.Context(), []*domain.Grid{in}, nil, seqOut))
	require.NoError(t, par.Invoke(t.Context(), []*domain.Grid{in}, nil, parOut))

	assert.True(t, seqOut.EqualWithin(parOut, 0), "parallel split must not change results")
}

func TestEvaluator_ArityMismatch(t *testing.T) {
	d, err := domain.NewDescriptor([][]int{{0}}, domain.BoundaryClamp, domain.ElemFloat64)
	require.NoError(t, err)
	out, err := domain.NewGrid(domain.ElemFloat64, 4)
	require.NoError(t, err)

	ev := evaluatorFor(t, d, []int{4}, 1)
	err = ev.Invoke(t.Context(), nil, nil, out)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}
