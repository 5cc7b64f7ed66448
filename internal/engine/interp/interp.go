// Package interp executes lowered programs in-process. It is the reference
// implementation of the IR semantics: the code generators must agree with
// it, and it doubles as the toolchain-less fallback backend.
package interp

import (
	"context"
	"math"
	"runtime"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Evaluator runs a single lowered program.
type Evaluator struct {
	prog *ir.Program
	// workers bounds the goroutines used for the parallel outer-axis split.
	workers int
}

// New builds an evaluator for the program. workers <= 0 uses GOMAXPROCS;
// workers == 1 runs sequentially.
func New(prog *ir.Program, workers int) (*Evaluator, error) {
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Evaluator{prog: prog, workers: workers}, nil
}

var _ domain.Callable = (*Evaluator)(nil)

// Invoke implements domain.Callable. Boundary cells excluded by the
// iteration range are left untouched in out.
func (e *Evaluator) Invoke(ctx context.Context, inputs []*domain.Grid, scalars []float64, out *domain.Grid) error {
	p := e.prog
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

	outer := p.Axes[0]
	if e.workers <= 1 || outer.Hi-outer.Lo < 2 {
		return e.run(ctx, inputs, scalars, out, outer.Lo, outer.Hi)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	step := (outer.Hi - outer.Lo + e.workers - 1) / e.workers
	for lo := outer.Lo; lo < outer.Hi; lo += step {
		hi := min(lo+step, outer.Hi)
		g.Go(func() error {
			return e.run(ctx, inputs, scalars, out, lo, hi)
		})
	}
	return g.Wait()
}

// run evaluates the nest for outer-axis indices [lo, hi). Each worker owns
// a disjoint slab of the output, so no synchronization is needed.
func (e *Evaluator) run(ctx context.Context, inputs []*domain.Grid, scalars []float64, out *domain.Grid, lo, hi int) error {
	p := e.prog
	pt := make([]int, p.Rank)
	idx := make([]int, p.Rank)
	loadVals := make([]float64, len(p.Loads))

	var walk func(axis int) error
	walk = func(axis int) error {
		if axis == p.Rank {
			e.point(pt, idx, loadVals, inputs, scalars, out)
			return nil
		}
		ax := p.Axes[axis]
		for i := ax.Lo; i < ax.Hi; i++ {
			pt[axis] = i
			if err := walk(axis + 1); err != nil {
				return err
			}
		}
		return nil
	}

	for i0 := lo; i0 < hi; i0++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pt[0] = i0
		if err := walk(1); err != nil {
			return err
		}
	}
	return nil
}

// point computes one output cell.
func (e *Evaluator) point(pt, idx []int, loadVals []float64, inputs []*domain.Grid, scalars []float64, out *domain.Grid) {
	p := e.prog
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
				// Iteration range keeps j in bounds.
			}
			idx[a] = j
		}
		if oob {
			loadVals[li] = p.PadValue
		} else {
			loadVals[li] = in.Data()[in.Index(idx...)]
		}
	}

	v := evalExpr(p.Body, loadVals, scalars)
	out.Data()[out.Index(pt...)] = storeConvert(v, p.Elem)
}

// evalExpr evaluates a body expression against precomputed loads.
func evalExpr(e domain.Expr, loads, scalars []float64) float64 {
	switch n := e.(type) {
	case domain.Load:
		return loads[n.Index]
	case domain.Const:
		return n.Value
	case domain.Param:
		return scalars[n.Index]
	case domain.Binary:
		l := evalExpr(n.L, loads, scalars)
		r := evalExpr(n.R, loads, scalars)
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
			args[i] = evalExpr(a, loads, scalars)
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

// storeConvert narrows the computed value to the element type's precision,
// matching what compiled code stores.
func storeConvert(v float64, elem domain.ElemType) float64 {
	switch elem {
	case domain.ElemFloat32:
		return float64(float32(v))
	case domain.ElemInt32:
		return math.Trunc(v)
	default:
		return v
	}
}
