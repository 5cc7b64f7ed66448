// Package clgen emits OpenCL kernel source for a lowered program. The loop
// nest maps to a work-item grid: one work item per output cell, explicit
// boundary-guard branches per item, the whole body packaged as a single
// kernel function. Generation is deterministic.
package clgen

import (
	"fmt"
	"strconv"
	"strings"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
	"go.trai.ch/zerr"
)

// Options configure device capabilities the generator must respect.
type Options struct {
	// EnableFP64 emits the cl_khr_fp64 pragma for double kernels. Without
	// it, double programs fail with domain.ErrUnsupportedBackend.
	EnableFP64 bool
}

// Generator emits OpenCL C source.
type Generator struct {
	opts Options
}

// New creates an OpenCL generator.
func New(opts Options) *Generator { return &Generator{opts: opts} }

// Backend implements ports.Generator.
func (g *Generator) Backend() domain.Backend { return domain.BackendOpenCL }

// Generate implements ports.Generator.
func (g *Generator) Generate(prog *ir.Program, params domain.TuningParams) (string, error) {
	if err := prog.Validate(); err != nil {
		return "", zerr.Wrap(err, "cannot generate from invalid program")
	}
	if prog.Elem.CLType() == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrUnsupportedBackend, "element type has no OpenCL spelling"), "elem", prog.Elem.String())
	}
	if prog.Elem == domain.ElemFloat64 && !g.opts.EnableFP64 {
		return "", zerr.With(
			zerr.Wrap(domain.ErrUnsupportedBackend, "device lacks cl_khr_fp64"),
			"elem", prog.Elem.String(),
		)
	}
	if prog.Rank > 3 {
		// NDRange dispatch is limited to three dimensions.
		return "", zerr.With(
			zerr.Wrap(domain.ErrUnsupportedBackend, "work-item grid limited to rank 3"),
			"rank", prog.Rank,
		)
	}

	var b strings.Builder
	b.WriteString("/* Generated stencil kernel. Do not edit. */\n")
	if prog.Elem == domain.ElemFloat64 {
		b.WriteString("#pragma OPENCL EXTENSION cl_khr_fp64 : enable\n")
	}
	b.WriteByte('\n')
	for a, ax := range prog.Axes {
		fmt.Fprintf(&b, "#define N%d %d\n", a, ax.Extent)
	}
	b.WriteByte('\n')

	g.writeSignature(&b, prog)
	b.WriteString("\n{\n")

	// The global size is padded up to a work-group multiple; items beyond
	// the iteration range exit early.
	for a := 0; a < prog.Rank; a++ {
		fmt.Fprintf(&b, "    const int i%d = get_global_id(%d) + %d;\n", a, a, prog.Axes[a].Lo)
	}
	conds := make([]string, prog.Rank)
	for a := 0; a < prog.Rank; a++ {
		conds[a] = fmt.Sprintf("i%d >= %d", a, prog.Axes[a].Hi)
	}
	fmt.Fprintf(&b, "    if (%s) {\n        return;\n    }\n", strings.Join(conds, " || "))

	for s := 0; s < prog.Scalars; s++ {
		fmt.Fprintf(&b, "    const %s p%d = params[%d];\n", scalarType(prog.Elem), s, s)
	}

	for li, l := range prog.Loads {
		g.writeLoad(&b, prog, li, l)
	}

	store := exprToCL(prog.Body, prog.Elem)
	if prog.Elem == domain.ElemInt32 {
		store = "(int)(" + store + ")"
	}
	fmt.Fprintf(&b, "    out[%s] = %s;\n", indexExprCenter(prog), store)
	b.WriteString("}\n")
	return b.String(), nil
}

func (g *Generator) writeSignature(b *strings.Builder, prog *ir.Program) {
	cl := prog.Elem.CLType()
	args := make([]string, 0, prog.Inputs+2)
	for i := 0; i < prog.Inputs; i++ {
		args = append(args, fmt.Sprintf("__global const %s* in%d", cl, i))
	}
	args = append(args, fmt.Sprintf("__global %s* out", cl))
	if prog.Scalars > 0 {
		args = append(args, fmt.Sprintf("__global const %s* params", scalarType(prog.Elem)))
	}
	fmt.Fprintf(b, "__kernel void %s(%s)", prog.Name, strings.Join(args, ", "))
}

// scalarType keeps scalar parameters in the widest type the device allows.
func scalarType(elem domain.ElemType) string {
	if elem == domain.ElemFloat64 {
		return "double"
	}
	return "float"
}

// acc is the accumulation type used for load locals and arithmetic.
func accType(elem domain.ElemType) string {
	if elem == domain.ElemFloat64 {
		return "double"
	}
	return "float"
}

func (g *Generator) writeLoad(b *strings.Builder, prog *ir.Program, li int, l ir.LoadExpr) {
	acc := accType(prog.Elem)
	switch prog.Guard {
	case ir.GuardClamp:
		for a, off := range l.Offset {
			if off == 0 {
				continue
			}
			fmt.Fprintf(b, "    const int j%d_%d = clamp(i%d + %d, 0, N%d - 1);\n", li, a, a, off, a)
		}
		fmt.Fprintf(b, "    const %s v%d = in%d[%s];\n", acc, li, l.Input, indexExprLoad(prog, li, l))
	case ir.GuardWrap:
		for a, off := range l.Offset {
			if off == 0 {
				continue
			}
			fmt.Fprintf(b, "    const int j%d_%d = ((i%d + %d) %% N%d + N%d) %% N%d;\n", li, a, a, off, a, a, a)
		}
		fmt.Fprintf(b, "    const %s v%d = in%d[%s];\n", acc, li, l.Input, indexExprLoad(prog, li, l))
	case ir.GuardConst:
		conds := make([]string, 0, prog.Rank)
		for a, off := range l.Offset {
			if off == 0 {
				continue
			}
			fmt.Fprintf(b, "    const int j%d_%d = i%d + %d;\n", li, a, a, off)
			conds = append(conds, fmt.Sprintf("j%d_%d < 0 || j%d_%d >= N%d", li, a, li, a, a))
		}
		if len(conds) == 0 {
			fmt.Fprintf(b, "    const %s v%d = in%d[%s];\n", acc, li, l.Input, indexExprLoad(prog, li, l))
			return
		}
		fmt.Fprintf(b, "    const %s v%d = (%s) ? %s : in%d[%s];\n",
			acc, li, strings.Join(conds, " || "), formatFloat(prog.PadValue, prog.Elem), l.Input, indexExprLoad(prog, li, l))
	default: // GuardNone
		fmt.Fprintf(b, "    const %s v%d = in%d[%s];\n", acc, li, l.Input, indexExprNone(prog, l))
	}
}

func indexExprCenter(prog *ir.Program) string {
	strides := rowStrides(prog)
	terms := make([]string, prog.Rank)
	for a := 0; a < prog.Rank; a++ {
		terms[a] = strideTerm(fmt.Sprintf("i%d", a), strides[a])
	}
	return strings.Join(terms, " + ")
}

func indexExprLoad(prog *ir.Program, li int, l ir.LoadExpr) string {
	strides := rowStrides(prog)
	terms := make([]string, prog.Rank)
	for a := 0; a < prog.Rank; a++ {
		v := fmt.Sprintf("i%d", a)
		if l.Offset[a] != 0 {
			v = fmt.Sprintf("j%d_%d", li, a)
		}
		terms[a] = strideTerm(v, strides[a])
	}
	return strings.Join(terms, " + ")
}

func indexExprNone(prog *ir.Program, l ir.LoadExpr) string {
	strides := rowStrides(prog)
	terms := make([]string, prog.Rank)
	for a := 0; a < prog.Rank; a++ {
		v := fmt.Sprintf("i%d", a)
		if off := l.Offset[a]; off != 0 {
			v = fmt.Sprintf("(i%d + %d)", a, off)
		}
		terms[a] = strideTerm(v, strides[a])
	}
	return strings.Join(terms, " + ")
}

func strideTerm(v string, stride int) string {
	if stride == 1 {
		return v
	}
	return fmt.Sprintf("%s * %d", v, stride)
}

func rowStrides(prog *ir.Program) []int {
	strides := make([]int, prog.Rank)
	acc := 1
	for a := prog.Rank - 1; a >= 0; a-- {
		strides[a] = acc
		acc *= prog.Axes[a].Extent
	}
	return strides
}

func exprToCL(e domain.Expr, elem domain.ElemType) string {
	switch n := e.(type) {
	case domain.Load:
		return fmt.Sprintf("v%d", n.Index)
	case domain.Const:
		return formatFloat(n.Value, elem)
	case domain.Param:
		return fmt.Sprintf("p%d", n.Index)
	case domain.Binary:
		return fmt.Sprintf("(%s %s %s)", exprToCL(n.L, elem), n.Op, exprToCL(n.R, elem))
	case domain.Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprToCL(a, elem)
		}
		return fmt.Sprintf("%s(%s)", clFn(n.Fn), strings.Join(args, ", "))
	default:
		return "0"
	}
}

// clFn maps intrinsics to their OpenCL built-in spellings.
func clFn(fn domain.MathFn) string {
	switch fn {
	case domain.FnSqrt:
		return "sqrt"
	case domain.FnAbs:
		return "fabs"
	case domain.FnMin:
		return "fmin"
	case domain.FnMax:
		return "fmax"
	default:
		return "?"
	}
}

func formatFloat(v float64, elem domain.ElemType) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	if elem != domain.ElemFloat64 {
		s += "f"
	}
	return s
}
