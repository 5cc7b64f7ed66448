package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/core/domain"
)

func mustDescriptor(t *testing.T, offsets [][]int, policy domain.BoundaryPolicy, elem domain.ElemType) domain.Descriptor {
	t.Helper()
	d, err := domain.NewDescriptor(offsets, policy, elem)
	require.NoError(t, err)
	return d
}

func TestDeriveSignature_ShapeAndTypeSensitive(t *testing.T) {
	d := mustDescriptor(t, [][]int{{-1}, {0}, {1}}, domain.BoundaryClamp, domain.ElemFloat64)

	s1, err := domain.DeriveSignature(d, domain.BackendC, []int{64})
	require.NoError(t, err)
	s2, err := domain.DeriveSignature(d, domain.BackendC, []int{64})
	require.NoError(t, err)
	s3, err := domain.DeriveSignature(d, domain.BackendC, []int{128})
	require.NoError(t, err)
	s4, err := domain.DeriveSignature(d, domain.BackendOpenCL, []int{64})
	require.NoError(t, err)

	assert.Equal(t, s1.Key, s2.Key, "identical calls must share a signature")
	assert.NotEqual(t, s1.Key, s3.Key, "shape must contribute to the signature")
	assert.NotEqual(t, s1.Key, s4.Key, "backend must contribute to the signature")
}

func TestDeriveSignature_DescriptorIdentity(t *testing.T) {
	clamp := mustDescriptor(t, [][]int{{-1}, {0}, {1}}, domain.BoundaryClamp, domain.ElemFloat64)
	wrap := mustDescriptor(t, [][]int{{-1}, {0}, {1}}, domain.BoundaryWrap, domain.ElemFloat64)

	s1, err := domain.DeriveSignature(clamp, domain.BackendC, []int{32})
	require.NoError(t, err)
	s2, err := domain.DeriveSignature(wrap, domain.BackendC, []int{32})
	require.NoError(t, err)

	assert.NotEqual(t, s1.Key, s2.Key, "boundary policy changes generated code")
}

func TestDeriveSignature_RankMismatch(t *testing.T) {
	d := mustDescriptor(t, [][]int{{-1, 0}, {0, 0}}, domain.BoundaryClamp, domain.ElemFloat64)

	_, err := domain.DeriveSignature(d, domain.BackendC, []int{16})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Backend
		wantErr bool
	}{
		{in: "c", want: domain.BackendC},
		{in: "multicore", want: domain.BackendC},
		{in: "opencl", want: domain.BackendOpenCL},
		{in: "ocl", want: domain.BackendOpenCL},
		{in: "interp", want: domain.BackendInterp},
		{in: "cuda", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseBackend(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrUnsupportedBackend)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
