// Package opencl provides the device adapter behind ports.Device. The
// in-tree implementation is an emulator: it takes the lowered program that
// accompanies generated kernel source and executes the NDRange in-process,
// work-group by work-group, with the kernel's early-exit guard semantics.
// A real OpenCL driver binds the same port.
package opencl

import (
	"context"
	"math"
	"runtime"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Emulator implements ports.Device in-process.
type Emulator struct {
	fp64    bool
	workers int
}

var _ ports.Device = (*Emulator)(nil)

// NewEmulator creates an emulated device. FP64 support is taken from the
// settings so double-kernel gating can be exercised without real hardware.
func NewEmulator(settings domain.OpenCLSettings) *Emulator {
	return &Emulator{fp64: settings.FP64, workers: runtime.GOMAXPROCS(0)}
}

// Name implements ports.Device.
func (e *Emulator) Name() string { return "emulated-cl" }

// SupportsFP64 implements ports.Device.
func (e *Emulator) SupportsFP64() bool { return e.fp64 }

// Build implements ports.Device. The source text is accepted for parity
// with a real driver but execution follows the lowered program.
func (e *Emulator) Build(_ context.Context, prog *ir.Program, source string, plan domain.LaunchPlan) (domain.Callable, error) {
	if err := prog.Validate(); err != nil {
		return nil, zerr.Wrap(err, "cannot build invalid program")
	}
	if source == "" {
		return nil, zerr.Wrap(domain.ErrCompilation, "empty kernel source")
	}
	if prog.Elem == domain.ElemFloat64 && !e.fp64 {
		return nil, zerr.Wrap(domain.ErrUnsupportedBackend, "device lacks cl_khr_fp64")
	}
	if len(plan.GlobalSize) != prog.Rank || len(plan.LocalSize) != prog.Rank {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrShapeMismatch, "launch plan rank does not match program"),
			"rank", prog.Rank,
		)
	}
	for a := 0; a < prog.Rank; a++ {
		if plan.LocalSize[a] <= 0 || plan.GlobalSize[a]%plan.LocalSize[a] != 0 {
			err := zerr.Wrap(domain.ErrShapeMismatch, "global size is not a work-group multiple")
			err = zerr.With(err, "axis", a)
			err = zerr.With(err, "global", plan.GlobalSize[a])
			return nil, zerr.With(err, "local", plan.LocalSize[a])
		}
	}
	return &kernel{prog: prog, plan: plan, workers: e.workers}, nil
}

// kernel executes the work-item grid of one built program.
type kernel struct {
	prog    *ir.Program
	plan    domain.LaunchPlan
	workers int
}

var _ domain.Callable = (*kernel)(nil)

// Invoke implements domain.Callable. Work-groups are distributed over
// worker goroutines; items within a group run sequentially. Padding items
// beyond the iteration range return early, as in the generated kernel.
func (k *kernel) Invoke(ctx context.Context, inputs []*domain.Grid, scalars []float64, out *domain.Grid) error {
	p := k.prog
	if len(inputs) != p.Inputs {
		err := zerr.Wrap(domain.ErrShapeMismatch, "input count does not match program")
		err = zerr.With(err, "want_inputs", p.Inputs)
		return zerr.With(err, "got", len(inputs))
	}
	if len(scalars) != p.Scalars {
		err := zerr.Wrap(domain.ErrShapeMismatch, "scalar count does not match program")
		err = zerr.With(err, "want_scalars", p.Scalars)
		return zerr.With(err, "got", len(scalars))
	}

	groups := make([]int, p.Rank)
	total := 1
	for a := 0; a < p.Rank; a++ {
		groups[a] = k.plan.GlobalSize[a] / k.plan.LocalSize[a]
		total *= groups[a]
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(k.workers)
	for group := 0; group < total; group++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			k.runGroup(group, groups, inputs, scalars, out)
			return nil
		})
	}
	return g.Wait()
}

// runGroup executes every work item of one group. Groups own disjoint
// output cells, so no synchronization is needed.
func (k *kernel) runGroup(group int, groups []int, inputs []*domain.Grid, scalars []float64, out *domain.Grid) {
	p := k.prog
	gid := make([]int, p.Rank)
	rem := group
	for a := p.Rank - 1; a >= 0; a-- {
		gid[a] = rem % groups[a]
		rem /= groups[a]
	}

	local := make([]int, p.Rank)
	pt := make([]int, p.Rank)
	idx := make([]int, p.Rank)
	loadVals := make([]float64, len(p.Loads))

	var items func(axis int)
	items = func(axis int) {
		if axis == p.Rank {
			for a := 0; a < p.Rank; a++ {
				i := gid[a]*k.plan.LocalSize[a] + local[a] + p.Axes[a].Lo
				if i >= p.Axes[a].Hi {
					return
				}
				pt[a] = i
			}
			k.workItem(pt, idx, loadVals, inputs, scalars, out)
			return
		}
		for l := 0; l < k.plan.LocalSize[axis]; l++ {
			local[axis] = l
			items(axis + 1)
		}
	}
	items(0)
}

// workItem computes one output cell with the program's guard mode.
func (k *kernel) workItem(pt, idx []int, loadVals []float64, inputs []*domain.Grid, scalars []float64, out *domain.Grid) {
	p := k.prog
	for li, l := range p.Loads {
		in := inputs[l.Input]
		oob := false
		for a := 0; a < p.Rank; a++ {
			j := pt[a] + l.Offset[a]
			extent := p.Axes[a].Extent
			switch p.Guard {
			case ir.GuardClamp:
				if j < 0 {
					j = 0
				} else if j > extent-1 {
					j = extent - 1
				}
			case ir.GuardWrap:
				j = ((j % extent) + extent) % extent
			case ir.GuardConst:
				if j < 0 || j >= extent {
					oob = true
				}
			case ir.GuardNone:
			}
			idx[a] = j
		}
		if oob {
			loadVals[li] = p.PadValue
		} else {
			loadVals[li] = in.Data()[in.Index(idx...)]
		}
	}

	v := eval(p.Body, loadVals, scalars)
	out.Data()[out.Index(pt...)] = narrow(v, p.Elem)
}

func eval(e domain.Expr, loads, scalars []float64) float64 {
	switch n := e.(type) {
	case domain.Load:
		return loads[n.Index]
	case domain.Const:
		return n.Value
	case domain.Param:
		return scalars[n.Index]
	case domain.Binary:
		l := eval(n.L, loads, scalars)
		r := eval(n.R, loads, scalars)
		switch n.Op {
		case domain.OpAdd:
			return l + r
		case domain.OpSub:
			return l - r
		case domain.OpMul:
			return l * r
		case domain.OpDiv:
			return l / r
		}
	case domain.Call:
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			args[i] = eval(a, loads, scalars)
		}
		switch n.Fn {
		case domain.FnSqrt:
			return math.Sqrt(args[0])
		case domain.FnAbs:
			return math.Abs(args[0])
		case domain.FnMin:
			return math.Min(args[0], args[1])
		case domain.FnMax:
			return math.Max(args[0], args[1])
		}
	}
	return 0
}

func narrow(v float64, elem domain.ElemType) float64 {
	switch elem {
	case domain.ElemFloat32:
		return float64(float32(v))
	case domain.ElemInt32:
		return math.Trunc(v)
	default:
		return v
	}
}
