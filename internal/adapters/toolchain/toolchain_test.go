package toolchain_test

import (
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/toolchain"
	"go.trai.ch/stencil/internal/backends/cgen"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/engine/lower"
)

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(error) {}

func requireCC(t *testing.T) domain.CCSettings {
	t.Helper()
	settings := domain.DefaultSettings().CC
	if _, err := exec.LookPath(settings.Path); err != nil {
		t.Skipf("%s not on PATH", settings.Path)
	}
	return settings
}

func TestCompile_MissingCompiler(t *testing.T) {
	cc := toolchain.New(domain.CCSettings{Path: "definitely-not-a-compiler"}, nopLogger{})

	_, err := cc.Compile(t.Context(), domain.KernelMeta{Name: "k", Shape: []int{4}, Elem: domain.ElemFloat64, Arity: 1}, "")
	assert.ErrorIs(t, err, domain.ErrCompilation)
	assert.False(t, cc.Available())
}

func TestCompile_InvalidSourceSurfacesDiagnostics(t *testing.T) {
	settings := requireCC(t)
	settings.OpenMP = false
	cc := toolchain.New(settings, nopLogger{})

	meta := domain.KernelMeta{Name: "broken", Shape: []int{4}, Elem: domain.ElemFloat64, Arity: 1}
	_, err := cc.Compile(t.Context(), meta, "this is not C\n")
	assert.ErrorIs(t, err, domain.ErrCompilation)
}

func TestCompile_FailureRemovesWorkDirectory(t *testing.T) {
	settings := requireCC(t)
	settings.OpenMP = false
	cc := toolchain.New(settings, nopLogger{})

	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	meta := domain.KernelMeta{Name: "broken", Shape: []int{4}, Elem: domain.ElemFloat64, Arity: 1}
	_, err := cc.Compile(t.Context(), meta, "this is not C\n")
	require.ErrorIs(t, err, domain.ErrCompilation)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompileAndInvoke_FivePointClamp(t *testing.T) {
	settings := requireCC(t)
	settings.OpenMP = false
	cc := toolchain.New(settings, nopLogger{})

	d, err := domain.NewDescriptor(
		[][]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {0, 0}},
		domain.BoundaryClamp,
		domain.ElemFloat64,
	)
	require.NoError(t, err)
	sig, err := domain.DeriveSignature(d, domain.BackendC, []int{4, 4})
	require.NoError(t, err)
	prog, err := lower.Lower(d, sig)
	require.NoError(t, err)
	source, err := cgen.New().Generate(prog, domain.TuningParams{Tile: 1})
	require.NoError(t, err)

	meta := domain.KernelMeta{Name: prog.Name, Shape: sig.Shape, Elem: sig.Elem, Arity: sig.Arity}
	callable, err := cc.Compile(t.Context(), meta, source)
	require.NoError(t, err)

	in, err := domain.NewGrid(domain.ElemFloat64, 4, 4)
	require.NoError(t, err)
	in.Fill(1)
	out, err := domain.NewGrid(domain.ElemFloat64, 4, 4)
	require.NoError(t, err)

	require.NoError(t, callable.Invoke(t.Context(), []*domain.Grid{in}, nil, out))
	for _, v := range out.Data() {
		assert.Equal(t, 5.0, v)
	}
}
