package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/stencil/internal/core/domain"
)

func TestHarnessSource_Float32TwoInputsWithScalars(t *testing.T) {
	meta := domain.KernelMeta{
		Name:    "stencil_kernel",
		Shape:   []int{4, 4},
		Elem:    domain.ElemFloat32,
		Arity:   2,
		Scalars: 1,
	}

	src := harnessSource(meta)

	assert.Contains(t, src, "const size_t n = 16;")
	assert.Contains(t, src, "float *in0 = malloc(n * sizeof(float));")
	assert.Contains(t, src, "float *in1 = malloc(n * sizeof(float));")
	assert.Contains(t, src, "double params[1];")
	assert.Contains(t, src, "stencil_kernel(in0, in1, out, params);")
	assert.Contains(t, src, "fwrite(host, sizeof(double), n, stdout)")
}

func TestHarnessSource_Float64NoScalars(t *testing.T) {
	meta := domain.KernelMeta{
		Name:  "heat1d",
		Shape: []int{32},
		Elem:  domain.ElemFloat64,
		Arity: 1,
	}

	src := harnessSource(meta)

	assert.Contains(t, src, "double *in0 = malloc(n * sizeof(double));")
	assert.Contains(t, src, "heat1d(in0, out);")
	assert.NotContains(t, src, "params")
}

func TestCompileArgs(t *testing.T) {
	cc := New(domain.CCSettings{Path: "cc", Flags: []string{"-O2"}, OpenMP: true}, nopLogger{})

	serial := cc.compileArgs(domain.KernelMeta{Name: "k"}, "/tmp/k.c", "/tmp/k")
	assert.Equal(t, []string{"-O2", "-o", "/tmp/k", "/tmp/k.c", "-lm"}, serial)

	parallel := cc.compileArgs(domain.KernelMeta{Name: "k", Parallel: true}, "/tmp/k.c", "/tmp/k")
	assert.Contains(t, parallel, "-fopenmp")

	noOMP := New(domain.CCSettings{Path: "cc", OpenMP: false}, nopLogger{})
	args := noOMP.compileArgs(domain.KernelMeta{Name: "k", Parallel: true}, "/tmp/k.c", "/tmp/k")
	assert.NotContains(t, args, "-fopenmp")
}

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(error) {}
