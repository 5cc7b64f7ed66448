// Package ir defines the backend-agnostic intermediate representation a
// kernel descriptor is lowered to: an explicit loop nest, one load per
// neighbor offset, a body expression tree and the boundary-guard mode.
// Both code generators and the interpreter consume it without re-deriving
// boundary semantics.
package ir

import (
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/zerr"
)

// Guard selects how out-of-range neighbor indices are handled by generated
// code. BoundarySkip lowers to GuardNone with shrunken iteration ranges.
type Guard uint8

const (
	// GuardNone emits unguarded loads; the iteration range keeps every
	// access in bounds.
	GuardNone Guard = iota
	// GuardClamp clamps each index to [0, extent-1].
	GuardClamp
	// GuardWrap wraps each index modulo the extent.
	GuardWrap
	// GuardConst substitutes the pad value when any index is out of range.
	GuardConst
)

func (g Guard) String() string {
	switch g {
	case GuardNone:
		return "none"
	case GuardClamp:
		return "clamp"
	case GuardWrap:
		return "wrap"
	case GuardConst:
		return "const"
	default:
		return "unknown"
	}
}

// Axis describes one loop of the nest: the array extent and the half-open
// iteration range [Lo, Hi).
type Axis struct {
	Extent int
	Lo     int
	Hi     int
}

// LoadExpr is one neighbor access: the relative offset applied to the
// Input-th argument array. Loads are indexed; the body references them by
// position.
type LoadExpr struct {
	Input  int
	Offset []int
}

// Program is a lowered stencil kernel.
type Program struct {
	// Name is the generated entry-point name.
	Name string
	// Rank is the loop-nest depth.
	Rank int
	// Axes holds one entry per axis, outermost first.
	Axes []Axis
	// Guard is the boundary-guard mode shared by all loads.
	Guard Guard
	// PadValue is the sentinel for GuardConst.
	PadValue float64
	// Inputs is the number of argument arrays.
	Inputs int
	// Scalars is the number of scalar parameters.
	Scalars int
	// Loads holds exactly one entry per descriptor offset, in descriptor
	// order.
	Loads []LoadExpr
	// Body is the kernel body; Load nodes index into Loads.
	Body domain.Expr
	// Elem is the element type generated code is specialized to.
	Elem domain.ElemType
}

// Validate checks the structural invariants a generator relies on.
func (p *Program) Validate() error {
	if p.Rank == 0 || len(p.Axes) != p.Rank {
		return zerr.With(zerr.New("axis count does not match rank"), "rank", p.Rank)
	}
	if len(p.Loads) == 0 {
		return zerr.New("program has no loads")
	}
	for i, l := range p.Loads {
		if len(l.Offset) != p.Rank {
			return zerr.With(zerr.New("load rank mismatch"), "load", i)
		}
		if l.Input < 0 || l.Input >= p.Inputs {
			return zerr.With(zerr.New("load references unknown input"), "load", i)
		}
	}
	for _, ax := range p.Axes {
		if ax.Lo < 0 || ax.Hi > ax.Extent || ax.Lo > ax.Hi {
			return zerr.With(zerr.New("axis range outside extent"), "extent", ax.Extent)
		}
	}
	if !p.Elem.Registered() {
		return domain.ErrUnsupportedType
	}
	return nil
}

// Points returns the number of iteration points.
func (p *Program) Points() int {
	n := 1
	for _, ax := range p.Axes {
		n *= ax.Hi - ax.Lo
	}
	return n
}
