// Package cgen emits multicore C source for a lowered program. Loops are
// lowered directly with straightforward nesting; the outermost loop gets an
// OpenMP annotation when the tuning parameters ask for parallelism, and is
// strip-mined when they ask for tiling. Generation is deterministic:
// identical programs and parameters produce byte-identical source.
package cgen

import (
	"fmt"
	"strconv"
	"strings"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
	"go.trai.ch/zerr"
)

// Generator emits C source.
type Generator struct{}

// New creates a C generator.
func New() *Generator { return &Generator{} }

// Backend implements ports.Generator.
func (g *Generator) Backend() domain.Backend { return domain.BackendC }

// Generate implements ports.Generator.
func (g *Generator) Generate(prog *ir.Program, params domain.TuningParams) (string, error) {
	if err := prog.Validate(); err != nil {
		return "", zerr.Wrap(err, "cannot generate from invalid program")
	}
	if prog.Elem.CType() == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrUnsupportedBackend, "element type has no C spelling"), "elem", prog.Elem.String())
	}

	var b strings.Builder
	b.WriteString("/* Generated stencil kernel. Do not edit. */\n")
	b.WriteString("#include <math.h>\n")
	b.WriteString("#include <stdint.h>\n\n")

	for a, ax := range prog.Axes {
		fmt.Fprintf(&b, "#define N%d %d\n", a, ax.Extent)
	}
	b.WriteByte('\n')

	g.writeSignature(&b, prog)
	b.WriteString("\n{\n")
	g.writeScalarBindings(&b, prog)
	g.writeLoops(&b, prog, params)
	b.WriteString("}\n")
	return b.String(), nil
}

func (g *Generator) writeSignature(b *strings.Builder, prog *ir.Program) {
	ctype := prog.Elem.CType()
	args := make([]string, 0, prog.Inputs+2)
	for i := 0; i < prog.Inputs; i++ {
		args = append(args, fmt.Sprintf("const %s* restrict in%d", ctype, i))
	}
	args = append(args, fmt.Sprintf("%s* restrict out", ctype))
	if prog.Scalars > 0 {
		args = append(args, "const double* restrict params")
	}
	fmt.Fprintf(b, "void %s(%s)", prog.Name, strings.Join(args, ", "))
}

func (g *Generator) writeScalarBindings(b *strings.Builder, prog *ir.Program) {
	for s := 0; s < prog.Scalars; s++ {
		fmt.Fprintf(b, "    const double p%d = params[%d];\n", s, s)
	}
	if prog.Scalars > 0 {
		b.WriteByte('\n')
	}
}

func (g *Generator) writeLoops(b *strings.Builder, prog *ir.Program, params domain.TuningParams) {
	indent := "    "
	outer := prog.Axes[0]
	tiled := params.Tile > 1

	if params.Parallel {
		b.WriteString("#pragma omp parallel for\n")
	}
	if tiled {
		fmt.Fprintf(b, "%sfor (int t0 = %d; t0 < %d; t0 += %d) {\n", indent, outer.Lo, outer.Hi, params.Tile)
		indent += "    "
		fmt.Fprintf(b, "%sconst int t0_hi = t0 + %d < %d ? t0 + %d : %d;\n",
			indent, params.Tile, outer.Hi, params.Tile, outer.Hi)
		fmt.Fprintf(b, "%sfor (int i0 = t0; i0 < t0_hi; ++i0) {\n", indent)
	} else {
		fmt.Fprintf(b, "%sfor (int i0 = %d; i0 < %d; ++i0) {\n", indent, outer.Lo, outer.Hi)
	}
	indent += "    "

	for a := 1; a < prog.Rank; a++ {
		ax := prog.Axes[a]
		fmt.Fprintf(b, "%sfor (int i%d = %d; i%d < %d; ++i%d) {\n", indent, a, ax.Lo, a, ax.Hi, a)
		indent += "    "
	}

	g.writeBody(b, prog, indent)

	for a := prog.Rank - 1; a >= 1; a-- {
		indent = indent[:len(indent)-4]
		fmt.Fprintf(b, "%s}\n", indent)
	}
	indent = indent[:len(indent)-4]
	fmt.Fprintf(b, "%s}\n", indent)
	if tiled {
		indent = indent[:len(indent)-4]
		fmt.Fprintf(b, "%s}\n", indent)
	}
}

func (g *Generator) writeBody(b *strings.Builder, prog *ir.Program, indent string) {
	for li, l := range prog.Loads {
		g.writeLoad(b, prog, li, l, indent)
	}
	store := exprToC(prog.Body)
	switch prog.Elem {
	case domain.ElemFloat32:
		store = "(float)(" + store + ")"
	case domain.ElemInt32:
		store = "(int32_t)(" + store + ")"
	}
	fmt.Fprintf(b, "%sout[%s] = %s;\n", indent, indexExprCenter(prog), store)
}

// writeLoad emits the guarded neighbor access for load li into "const
// double v{li}".
func (g *Generator) writeLoad(b *strings.Builder, prog *ir.Program, li int, l ir.LoadExpr, indent string) {
	switch prog.Guard {
	case ir.GuardClamp:
		for a, off := range l.Offset {
			if off == 0 {
				continue
			}
			j := fmt.Sprintf("j%d_%d", li, a)
			fmt.Fprintf(b, "%sint %s = i%d + %d;\n", indent, j, a, off)
			fmt.Fprintf(b, "%sif (%s < 0) %s = 0;\n", indent, j, j)
			fmt.Fprintf(b, "%sif (%s > N%d - 1) %s = N%d - 1;\n", indent, j, a, j, a)
		}
		fmt.Fprintf(b, "%sconst double v%d = in%d[%s];\n", indent, li, l.Input, indexExprLoad(prog, li, l))
	case ir.GuardWrap:
		for a, off := range l.Offset {
			if off == 0 {
				continue
			}
			j := fmt.Sprintf("j%d_%d", li, a)
			fmt.Fprintf(b, "%sconst int %s = ((i%d + %d) %% N%d + N%d) %% N%d;\n", indent, j, a, off, a, a, a)
		}
		fmt.Fprintf(b, "%sconst double v%d = in%d[%s];\n", indent, li, l.Input, indexExprLoad(prog, li, l))
	case ir.GuardConst:
		conds := make([]string, 0, prog.Rank)
		for a, off := range l.Offset {
			if off == 0 {
				continue
			}
			j := fmt.Sprintf("j%d_%d", li, a)
			fmt.Fprintf(b, "%sconst int %s = i%d + %d;\n", indent, j, a, off)
			conds = append(conds, fmt.Sprintf("%s < 0 || %s >= N%d", j, j, a))
		}
		if len(conds) == 0 {
			fmt.Fprintf(b, "%sconst double v%d = in%d[%s];\n", indent, li, l.Input, indexExprLoad(prog, li, l))
			return
		}
		fmt.Fprintf(b, "%sconst double v%d = (%s) ? %s : in%d[%s];\n",
			indent, li, strings.Join(conds, " || "), formatFloat(prog.PadValue), l.Input, indexExprLoad(prog, li, l))
	default: // GuardNone
		fmt.Fprintf(b, "%sconst double v%d = in%d[%s];\n", indent, li, l.Input, indexExprNone(prog, l))
	}
}

// indexExprCenter is the row-major linear index of the current point.
func indexExprCenter(prog *ir.Program) string {
	terms := make([]string, prog.Rank)
	strides := rowStrides(prog)
	for a := 0; a < prog.Rank; a++ {
		terms[a] = strideTerm(fmt.Sprintf("i%d", a), strides[a])
	}
	return strings.Join(terms, " + ")
}

// indexExprLoad uses the guarded j variables where the offset is non-zero.
func indexExprLoad(prog *ir.Program, li int, l ir.LoadExpr) string {
	terms := make([]string, prog.Rank)
	strides := rowStrides(prog)
	for a := 0; a < prog.Rank; a++ {
		v := fmt.Sprintf("i%d", a)
		if l.Offset[a] != 0 {
			v = fmt.Sprintf("j%d_%d", li, a)
		}
		terms[a] = strideTerm(v, strides[a])
	}
	return strings.Join(terms, " + ")
}

// indexExprNone folds the offsets directly into the index; the iteration
// range guarantees in-bounds accesses.
func indexExprNone(prog *ir.Program, l ir.LoadExpr) string {
	terms := make([]string, prog.Rank)
	strides := rowStrides(prog)
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

// exprToC renders a body expression as C over the v{i} load locals.
func exprToC(e domain.Expr) string {
	switch n := e.(type) {
	case domain.Load:
		return fmt.Sprintf("v%d", n.Index)
	case domain.Const:
		return formatFloat(n.Value)
	case domain.Param:
		return fmt.Sprintf("p%d", n.Index)
	case domain.Binary:
		return fmt.Sprintf("(%s %s %s)", exprToC(n.L), n.Op, exprToC(n.R))
	case domain.Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprToC(a)
		}
		return fmt.Sprintf("%s(%s)", n.Fn, strings.Join(args, ", "))
	default:
		return "0.0"
	}
}

// formatFloat renders a literal that C parses back to the same double.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
