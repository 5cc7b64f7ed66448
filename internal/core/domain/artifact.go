package domain

import (
	"context"
	"time"
)

// TuningParams are the execution parameters explored by the autotuner.
type TuningParams struct {
	// Tile is the strip-mining factor applied to the outermost loop by the
	// multicore backend. 1 disables tiling.
	Tile int
	// WorkGroup is the per-axis local work-group size used by the OpenCL
	// backend. Empty means the backend default.
	WorkGroup []int
	// Parallel enables the parallel outer-loop annotation on the multicore
	// backend.
	Parallel bool
}

// DefaultTuningParams returns the untuned parameter set used when
// autotuning is disabled or exhausted.
func DefaultTuningParams(backend Backend, rank int) TuningParams {
	p := TuningParams{Tile: 1, Parallel: true}
	if backend == BackendOpenCL {
		wg := make([]int, rank)
		for a := range wg {
			wg[a] = 8
		}
		p.WorkGroup = wg
	}
	return p
}

// LaunchPlan is the device-side execution geometry for an OpenCL kernel.
type LaunchPlan struct {
	// GlobalSize is the per-axis global work size, rounded up to a multiple
	// of the local size.
	GlobalSize []int
	// LocalSize is the per-axis work-group size.
	LocalSize []int
}

// Callable is a ready-to-invoke specialized kernel. Implementations are
// safe for concurrent use; invocation never mutates cache state.
type Callable interface {
	// Invoke runs the kernel over the input grids and writes the result into
	// out. The grids must match the shape the callable was specialized for.
	Invoke(ctx context.Context, inputs []*Grid, scalars []float64, out *Grid) error
}

// Artifact is a compiled specialization: the native callable, the backend
// it was generated for, and the parameters it was tuned with. Owned by its
// cache entry.
type Artifact struct {
	Signature Signature
	Backend   Backend
	Callable  Callable
	Params    TuningParams
	// Source is the generated source text, kept for inspection.
	Source string
	// Tuned reports whether Params came from an autotuning search rather
	// than the defaults.
	Tuned bool
	// CompiledAt is when the artifact became ready.
	CompiledAt time.Time
}

// TuningRecord maps a signature to the selected parameter set and its
// measured cost.
type TuningRecord struct {
	Key      string
	Params   TuningParams
	Cost     time.Duration
	Trials   int
	RecordAt time.Time
}

// KernelMeta carries the call-shape facts a toolchain needs to build a
// harness around generated source.
type KernelMeta struct {
	Name    string
	Shape   []int
	Elem    ElemType
	Arity   int
	Scalars int
	// Parallel indicates the source carries parallel loop annotations and
	// must be compiled with the matching toolchain flag.
	Parallel bool
}

// Elems returns the element count of one argument array.
func (m KernelMeta) Elems() int {
	n := 1
	for _, s := range m.Shape {
		n *= s
	}
	return n
}
