package domain

import "fmt"

// Expr is a node in a kernel body expression tree. Kernel bodies are pure
// expressions over neighbor loads, scalar parameters and constants; there is
// no control flow.
type Expr interface {
	isExpr()
	fmt.Stringer
}

// BinOp is an arithmetic operator in a kernel body.
type BinOp uint8

const (
	// OpAdd is addition.
	OpAdd BinOp = iota
	// OpSub is subtraction.
	OpSub
	// OpMul is multiplication.
	OpMul
	// OpDiv is division.
	OpDiv
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// MathFn is one of the supported intrinsic math functions.
type MathFn uint8

const (
	// FnSqrt is the square root.
	FnSqrt MathFn = iota
	// FnAbs is the absolute value.
	FnAbs
	// FnMin is the two-argument minimum.
	FnMin
	// FnMax is the two-argument maximum.
	FnMax
)

func (fn MathFn) String() string {
	switch fn {
	case FnSqrt:
		return "sqrt"
	case FnAbs:
		return "fabs"
	case FnMin:
		return "fmin"
	case FnMax:
		return "fmax"
	default:
		return "?"
	}
}

// Load references one neighbor access: the Index-th offset of the
// descriptor's neighborhood applied to the Input-th argument array.
type Load struct {
	Input int
	Index int
}

// Const is a floating-point literal.
type Const struct {
	Value float64
}

// Param references the Index-th scalar parameter of the call.
type Param struct {
	Index int
}

// Binary applies Op to L and R.
type Binary struct {
	Op   BinOp
	L, R Expr
}

// Call applies a math intrinsic to its arguments.
type Call struct {
	Fn   MathFn
	Args []Expr
}

func (Load) isExpr()   {}
func (Const) isExpr()  {}
func (Param) isExpr()  {}
func (Binary) isExpr() {}
func (Call) isExpr()   {}

func (e Load) String() string  { return fmt.Sprintf("in%d[@%d]", e.Input, e.Index) }
func (e Const) String() string { return fmt.Sprintf("%g", e.Value) }
func (e Param) String() string { return fmt.Sprintf("p%d", e.Index) }

func (e Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.L, e.Op, e.R)
}

func (e Call) String() string {
	s := e.Fn.String() + "("
	for i, a := range e.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// WeightedSum builds the default kernel body: the sum over all n offsets of
// input 0, each load scaled by its coefficient. A nil coeffs slice means
// unit weights.
func WeightedSum(n int, coeffs []float64) Expr {
	var body Expr
	for i := 0; i < n; i++ {
		var term Expr = Load{Input: 0, Index: i}
		if coeffs != nil && coeffs[i] != 1 {
			term = Binary{Op: OpMul, L: Const{Value: coeffs[i]}, R: term}
		}
		if body == nil {
			body = term
		} else {
			body = Binary{Op: OpAdd, L: body, R: term}
		}
	}
	return body
}

// walkExpr visits every node of the tree.
func walkExpr(e Expr, visit func(Expr)) {
	visit(e)
	switch n := e.(type) {
	case Binary:
		walkExpr(n.L, visit)
		walkExpr(n.R, visit)
	case Call:
		for _, a := range n.Args {
			walkExpr(a, visit)
		}
	}
}
