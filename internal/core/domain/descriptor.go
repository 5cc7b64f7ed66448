package domain

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// BoundaryPolicy is the rule applied when a neighbor offset falls outside
// the array bounds.
type BoundaryPolicy uint8

const (
	// BoundaryClamp clamps out-of-range indices to the nearest valid index.
	BoundaryClamp BoundaryPolicy = iota
	// BoundaryWrap wraps indices modulo the axis extent.
	BoundaryWrap
	// BoundaryConstant replaces out-of-range loads by a fixed sentinel value.
	BoundaryConstant
	// BoundarySkip excludes boundary cells from the iteration range entirely.
	BoundarySkip
)

// ParseBoundaryPolicy parses the textual policy used in kernel spec files.
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch s {
	case "clamp":
		return BoundaryClamp, nil
	case "wrap":
		return BoundaryWrap, nil
	case "constant":
		return BoundaryConstant, nil
	case "skip":
		return BoundarySkip, nil
	default:
		return 0, zerr.With(zerr.Wrap(ErrInvalidKernel, "unknown boundary policy"), "boundary", s)
	}
}

func (p BoundaryPolicy) String() string {
	switch p {
	case BoundaryClamp:
		return "clamp"
	case BoundaryWrap:
		return "wrap"
	case BoundaryConstant:
		return "constant"
	case BoundarySkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Descriptor is the structural representation of a stencil kernel: the
// neighborhood offsets, the boundary policy, the element type, the arity and
// the body expression. It is validated at construction and immutable
// afterward, so it is safe to share across goroutines without
// synchronization.
type Descriptor struct {
	name     string
	offsets  [][]int
	policy   BoundaryPolicy
	elem     ElemType
	arity    int
	scalars  int
	padValue float64
	body     Expr
	digest   uint64

	// coeffs holds WithCoefficients input until NewDescriptor validates it
	// against the offset count and builds the weighted-sum body.
	coeffs []float64
}

// DescriptorOption configures optional descriptor attributes.
type DescriptorOption func(*Descriptor)

// WithName sets the kernel name used in generated entry points and logs.
func WithName(name string) DescriptorOption {
	return func(d *Descriptor) { d.name = name }
}

// WithArity sets the number of input arrays. Default is 1.
func WithArity(n int) DescriptorOption {
	return func(d *Descriptor) { d.arity = n }
}

// WithScalarParams sets the number of scalar parameters the body may
// reference. Default is 0.
func WithScalarParams(n int) DescriptorOption {
	return func(d *Descriptor) { d.scalars = n }
}

// WithPadValue sets the sentinel used by the constant boundary policy.
func WithPadValue(v float64) DescriptorOption {
	return func(d *Descriptor) { d.padValue = v }
}

// WithBody replaces the default weighted-sum body.
func WithBody(body Expr) DescriptorOption {
	return func(d *Descriptor) { d.body = body }
}

// WithCoefficients sets per-offset weights for the default weighted-sum
// body. The slice must have one entry per offset. Ignored when WithBody is
// also given.
func WithCoefficients(coeffs []float64) DescriptorOption {
	return func(d *Descriptor) {
		d.coeffs = append([]float64(nil), coeffs...)
	}
}

// NewDescriptor validates and constructs a kernel descriptor from the given
// neighborhood offsets and boundary policy. Offsets must be non-empty,
// share a common rank and contain no duplicates.
func NewDescriptor(
	offsets [][]int,
	policy BoundaryPolicy,
	elem ElemType,
	opts ...DescriptorOption,
) (Descriptor, error) {
	if len(offsets) == 0 {
		return Descriptor{}, zerr.Wrap(ErrInvalidKernel, "neighborhood is empty")
	}
	rank := len(offsets[0])
	if rank == 0 {
		return Descriptor{}, zerr.Wrap(ErrInvalidKernel, "zero-rank offset")
	}
	seen := make(map[string]struct{}, len(offsets))
	copied := make([][]int, len(offsets))
	for i, off := range offsets {
		if len(off) != rank {
			return Descriptor{}, zerr.With(
				zerr.Wrap(ErrInvalidKernel, "offsets have mixed ranks"),
				"offset", fmt.Sprint(off),
			)
		}
		key := fmt.Sprint(off)
		if _, dup := seen[key]; dup {
			return Descriptor{}, zerr.With(
				zerr.Wrap(ErrInvalidKernel, "duplicate offset"),
				"offset", key,
			)
		}
		seen[key] = struct{}{}
		copied[i] = append([]int(nil), off...)
	}
	if policy > BoundarySkip {
		return Descriptor{}, zerr.With(
			zerr.Wrap(ErrInvalidKernel, "unrecognized boundary policy"),
			"policy", int(policy),
		)
	}

	d := Descriptor{
		name:    "stencil_kernel",
		offsets: copied,
		policy:  policy,
		elem:    elem,
		arity:   1,
	}
	for _, opt := range opts {
		opt(&d)
	}
	if d.arity < 1 {
		return Descriptor{}, zerr.Wrap(ErrInvalidKernel, "arity must be at least 1")
	}
	if d.body == nil {
		if d.coeffs != nil && len(d.coeffs) != len(copied) {
			return Descriptor{}, zerr.With(
				zerr.Wrap(ErrInvalidKernel, "coefficient count does not match neighborhood size"),
				"coefficients", len(d.coeffs),
			)
		}
		d.body = WeightedSum(len(copied), d.coeffs)
	}
	d.coeffs = nil
	if err := d.validateBody(); err != nil {
		return Descriptor{}, err
	}
	d.digest = d.computeDigest()
	return d, nil
}

// validateBody checks that every load in the body references a declared
// offset and input, and every param a declared scalar slot.
func (d *Descriptor) validateBody() error {
	var bad error
	walkExpr(d.body, func(e Expr) {
		if bad != nil {
			return
		}
		switch n := e.(type) {
		case Load:
			if n.Index < 0 || n.Index >= len(d.offsets) {
				bad = zerr.With(zerr.Wrap(ErrInvalidKernel, "body references unknown offset"), "index", n.Index)
			} else if n.Input < 0 || n.Input >= d.arity {
				bad = zerr.With(zerr.Wrap(ErrInvalidKernel, "body references unknown input"), "input", n.Input)
			}
		case Param:
			if n.Index < 0 || n.Index >= d.scalars {
				bad = zerr.With(zerr.Wrap(ErrInvalidKernel, "body references unknown scalar"), "param", n.Index)
			}
		}
	})
	return bad
}

// computeDigest hashes the descriptor structure. Two descriptors with equal
// digests generate identical code for equal shapes and backends.
func (d *Descriptor) computeDigest() uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		_, _ = h.Write(buf[:])
	}

	_, _ = h.WriteString(d.name)
	_, _ = h.Write([]byte{0}) // separator
	writeInt(len(d.offsets))
	for _, off := range d.offsets {
		for _, o := range off {
			writeInt(o)
		}
		_, _ = h.Write([]byte{0}) // separator
	}
	writeInt(int(d.policy))
	writeInt(int(d.elem))
	writeInt(d.arity)
	writeInt(d.scalars)
	binary.LittleEndian.PutUint64(buf[:], uint64FromFloat(d.padValue))
	_, _ = h.Write(buf[:])
	_, _ = h.WriteString(d.body.String())
	return h.Sum64()
}

// Name returns the kernel entry-point name.
func (d Descriptor) Name() string { return d.name }

// Rank returns the dimensionality of the neighborhood.
func (d Descriptor) Rank() int { return len(d.offsets[0]) }

// Offsets returns a copy of the neighborhood offsets.
func (d Descriptor) Offsets() [][]int {
	out := make([][]int, len(d.offsets))
	for i, off := range d.offsets {
		out[i] = append([]int(nil), off...)
	}
	return out
}

// NumOffsets returns the neighborhood size.
func (d Descriptor) NumOffsets() int { return len(d.offsets) }

// Offset returns the i-th offset without copying. Callers must not mutate it.
func (d Descriptor) Offset(i int) []int { return d.offsets[i] }

// Policy returns the boundary policy.
func (d Descriptor) Policy() BoundaryPolicy { return d.policy }

// Elem returns the element type tag.
func (d Descriptor) Elem() ElemType { return d.elem }

// Arity returns the number of input arrays.
func (d Descriptor) Arity() int { return d.arity }

// ScalarParams returns the number of scalar parameters.
func (d Descriptor) ScalarParams() int { return d.scalars }

// PadValue returns the constant-policy sentinel.
func (d Descriptor) PadValue() float64 { return d.padValue }

// Body returns the kernel body expression.
func (d Descriptor) Body() Expr { return d.body }

// Digest returns the structural hash used for signature derivation.
func (d Descriptor) Digest() uint64 { return d.digest }

// GhostDepth returns, per axis, the maximum absolute offset. This is the
// number of boundary cells affected by the boundary policy on each side.
func (d Descriptor) GhostDepth() []int {
	rank := d.Rank()
	depth := make([]int, rank)
	for _, off := range d.offsets {
		for a := 0; a < rank; a++ {
			v := off[a]
			if v < 0 {
				v = -v
			}
			if v > depth[a] {
				depth[a] = v
			}
		}
	}
	return depth
}

// Span returns, per axis, the total neighborhood extent max-min+1.
func (d Descriptor) Span() []int {
	rank := d.Rank()
	lo := make([]int, rank)
	hi := make([]int, rank)
	for _, off := range d.offsets {
		for a := 0; a < rank; a++ {
			if off[a] < lo[a] {
				lo[a] = off[a]
			}
			if off[a] > hi[a] {
				hi[a] = off[a]
			}
		}
	}
	span := make([]int, rank)
	for a := 0; a < rank; a++ {
		span[a] = hi[a] - lo[a] + 1
	}
	return span
}
