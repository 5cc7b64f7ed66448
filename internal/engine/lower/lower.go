// Package lower transforms a kernel descriptor plus a concrete signature
// into the backend-agnostic IR: a bounded loop nest, one load per neighbor
// offset and the boundary-guard mode.
package lower

import (
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
	"go.trai.ch/zerr"
)

// Lower derives the IR program for invoking the descriptor on arrays of the
// signature's shape. It fails with domain.ErrDegenerateShape instead of
// emitting an empty or truncated loop nest.
func Lower(d domain.Descriptor, sig domain.Signature) (*ir.Program, error) {
	if !sig.Elem.Registered() {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedType, "no lowering rule for element type"), "elem", sig.Elem.String())
	}
	rank := d.Rank()
	if len(sig.Shape) != rank {
		err := zerr.Wrap(domain.ErrShapeMismatch, "signature rank does not match descriptor")
		err = zerr.With(err, "kernel_rank", rank)
		return nil, zerr.With(err, "shape_rank", len(sig.Shape))
	}

	span := d.Span()
	ghost := d.GhostDepth()
	axes := make([]ir.Axis, rank)
	for a := 0; a < rank; a++ {
		extent := sig.Shape[a]
		if extent < span[a] {
			err := zerr.Wrap(domain.ErrDegenerateShape, "axis shorter than neighborhood")
			err = zerr.With(err, "axis", a)
			err = zerr.With(err, "extent", extent)
			return nil, zerr.With(err, "span", span[a])
		}
		lo, hi := 0, extent
		if d.Policy() == domain.BoundarySkip {
			lo = ghost[a]
			hi = extent - ghost[a]
			if lo >= hi {
				err := zerr.Wrap(domain.ErrDegenerateShape, "skip interior is empty")
				err = zerr.With(err, "axis", a)
				err = zerr.With(err, "extent", extent)
				return nil, zerr.With(err, "ghost", ghost[a])
			}
		}
		axes[a] = ir.Axis{Extent: extent, Lo: lo, Hi: hi}
	}

	// One load per descriptor offset, replicated over input arrays only
	// where the body references them. The loads stay in descriptor order so
	// body Load nodes index directly.
	loads := make([]ir.LoadExpr, 0, d.NumOffsets())
	for i := 0; i < d.NumOffsets(); i++ {
		loads = append(loads, ir.LoadExpr{
			Input:  0,
			Offset: append([]int(nil), d.Offset(i)...),
		})
	}
	rebindLoadInputs(d.Body(), loads)

	prog := &ir.Program{
		Name:     d.Name(),
		Rank:     rank,
		Axes:     axes,
		Guard:    guardFor(d.Policy()),
		PadValue: d.PadValue(),
		Inputs:   d.Arity(),
		Scalars:  d.ScalarParams(),
		Loads:    loads,
		Body:     d.Body(),
		Elem:     d.Elem(),
	}
	if err := prog.Validate(); err != nil {
		return nil, zerr.Wrap(err, "lowering produced an invalid program")
	}
	return prog, nil
}

// rebindLoadInputs records which input each indexed load reads. A body may
// direct an offset at any input array; the descriptor validated the indices.
func rebindLoadInputs(body domain.Expr, loads []ir.LoadExpr) {
	var walk func(e domain.Expr)
	walk = func(e domain.Expr) {
		switch n := e.(type) {
		case domain.Load:
			loads[n.Index].Input = n.Input
		case domain.Binary:
			walk(n.L)
			walk(n.R)
		case domain.Call:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}
	walk(body)
}

func guardFor(p domain.BoundaryPolicy) ir.Guard {
	switch p {
	case domain.BoundaryClamp:
		return ir.GuardClamp
	case domain.BoundaryWrap:
		return ir.GuardWrap
	case domain.BoundaryConstant:
		return ir.GuardConst
	default:
		// BoundarySkip: the iteration range already keeps every access in
		// bounds.
		return ir.GuardNone
	}
}
