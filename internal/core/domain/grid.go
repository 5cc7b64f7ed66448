package domain

import (
	"math"

	"go.trai.ch/zerr"
)

// Grid is a dense, row-major n-dimensional array. Host-side values are held
// as float64 regardless of the element type tag; the tag determines the
// concrete type used by generated code, and narrowing happens at the
// toolchain boundary.
type Grid struct {
	shape   []int
	strides []int
	elem    ElemType
	data    []float64
}

// NewGrid allocates a zero-filled grid of the given element type and shape.
func NewGrid(elem ElemType, shape ...int) (*Grid, error) {
	if !elem.Registered() {
		return nil, zerr.With(zerr.Wrap(ErrUnsupportedType, "no lowering rule for element type"), "elem", elem.String())
	}
	if len(shape) == 0 {
		return nil, zerr.Wrap(ErrShapeMismatch, "grid shape is empty")
	}
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, zerr.With(zerr.Wrap(ErrShapeMismatch, "non-positive extent"), "extent", s)
		}
		n *= s
	}
	return &Grid{
		shape:   append([]int(nil), shape...),
		strides: rowMajorStrides(shape),
		elem:    elem,
		data:    make([]float64, n),
	}, nil
}

// NewGridFrom wraps the given backing slice, which must have exactly
// prod(shape) elements. The grid takes ownership of the slice.
func NewGridFrom(elem ElemType, shape []int, data []float64) (*Grid, error) {
	g, err := NewGrid(elem, shape...)
	if err != nil {
		return nil, err
	}
	if len(data) != len(g.data) {
		err := zerr.Wrap(ErrShapeMismatch, "backing slice length does not match shape")
		err = zerr.With(err, "want", len(g.data))
		return nil, zerr.With(err, "got", len(data))
	}
	g.data = data
	return g, nil
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for a := len(shape) - 1; a >= 0; a-- {
		strides[a] = acc
		acc *= shape[a]
	}
	return strides
}

// Rank returns the number of axes.
func (g *Grid) Rank() int { return len(g.shape) }

// Shape returns a copy of the grid shape.
func (g *Grid) Shape() []int { return append([]int(nil), g.shape...) }

// Extent returns the size of axis a.
func (g *Grid) Extent(a int) int { return g.shape[a] }

// Elem returns the element type tag.
func (g *Grid) Elem() ElemType { return g.elem }

// Len returns the total number of elements.
func (g *Grid) Len() int { return len(g.data) }

// Data returns the backing slice. Callers mutating it see the changes
// reflected in the grid.
func (g *Grid) Data() []float64 { return g.data }

// Index computes the linear index of a multi-index. The multi-index must be
// in range; this is the hot path and does not re-validate.
func (g *Grid) Index(idx ...int) int {
	lin := 0
	for a, i := range idx {
		lin += i * g.strides[a]
	}
	return lin
}

// At returns the element at the given multi-index.
func (g *Grid) At(idx ...int) (float64, error) {
	if err := g.check(idx); err != nil {
		return 0, err
	}
	return g.data[g.Index(idx...)], nil
}

// Set stores v at the given multi-index.
func (g *Grid) Set(v float64, idx ...int) error {
	if err := g.check(idx); err != nil {
		return err
	}
	g.data[g.Index(idx...)] = v
	return nil
}

func (g *Grid) check(idx []int) error {
	if len(idx) != len(g.shape) {
		return zerr.With(zerr.Wrap(ErrIndexOutOfRange, "multi-index rank mismatch"), "rank", len(idx))
	}
	for a, i := range idx {
		if i < 0 || i >= g.shape[a] {
			err := zerr.Wrap(ErrIndexOutOfRange, "index outside extent")
			err = zerr.With(err, "axis", a)
			return zerr.With(err, "index", i)
		}
	}
	return nil
}

// Fill sets every element to v.
func (g *Grid) Fill(v float64) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	data := make([]float64, len(g.data))
	copy(data, g.data)
	out, _ := NewGridFrom(g.elem, g.shape, data)
	return out
}

// SameShape reports whether the other grid has identical shape and element
// type.
func (g *Grid) SameShape(other *Grid) bool {
	if g.elem != other.elem || len(g.shape) != len(other.shape) {
		return false
	}
	for a := range g.shape {
		if g.shape[a] != other.shape[a] {
			return false
		}
	}
	return true
}

// EqualWithin reports whether both grids hold element-wise equal values
// within the given absolute tolerance.
func (g *Grid) EqualWithin(other *Grid, tol float64) bool {
	if !g.SameShape(other) {
		return false
	}
	for i := range g.data {
		if math.Abs(g.data[i]-other.data[i]) > tol {
			return false
		}
	}
	return true
}
