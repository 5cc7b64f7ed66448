package domain

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// Backend identifies a code-generation target. The set is closed; new
// backends are added here, not by open-ended subclassing.
type Backend uint8

const (
	// BackendC is the multicore C backend (optionally OpenMP-parallel).
	BackendC Backend = iota
	// BackendOpenCL maps the loop nest to a work-item grid.
	BackendOpenCL
	// BackendInterp executes the IR in-process without a toolchain. It is
	// the reference backend and the fallback when no compiler is available.
	BackendInterp
)

// ParseBackend parses the textual backend name used in configuration.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "c", "multicore":
		return BackendC, nil
	case "opencl", "ocl":
		return BackendOpenCL, nil
	case "interp":
		return BackendInterp, nil
	default:
		return 0, zerr.With(zerr.Wrap(ErrUnsupportedBackend, "unknown backend name"), "backend", s)
	}
}

func (b Backend) String() string {
	switch b {
	case BackendC:
		return "c"
	case BackendOpenCL:
		return "opencl"
	case BackendInterp:
		return "interp"
	default:
		return "unknown"
	}
}

// Signature is the derived cache key for a specialization: everything about
// a call that affects generated code. Array contents never contribute; only
// descriptor identity, shape, element type, backend and scalar-parameter
// count do. Signature equality implies generated-code equivalence.
type Signature struct {
	// Key is the hex-encoded digest used as the cache map key.
	Key string
	// Backend is the requested code-generation target.
	Backend Backend
	// Shape is the common shape of all argument arrays.
	Shape []int
	// Elem is the element type of the arguments.
	Elem ElemType
	// Arity is the number of input arrays.
	Arity int
	// Scalars is the number of scalar parameters.
	Scalars int
	// Descriptor is the structural digest of the kernel descriptor.
	Descriptor uint64
}

// DeriveSignature computes the signature for invoking the descriptor on
// arrays of the given shape. It is deterministic, and two calls differing
// only in array contents yield equal signatures.
func DeriveSignature(d Descriptor, backend Backend, shape []int) (Signature, error) {
	if !d.Elem().Registered() {
		return Signature{}, zerr.With(zerr.Wrap(ErrUnsupportedType, "no lowering rule for element type"), "elem", d.Elem().String())
	}
	if len(shape) != d.Rank() {
		err := zerr.Wrap(ErrShapeMismatch, "array rank does not match neighborhood rank")
		err = zerr.With(err, "array_rank", len(shape))
		return Signature{}, zerr.With(err, "kernel_rank", d.Rank())
	}

	h := xxhash.New()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}

	writeU64(d.Digest())
	_, _ = h.Write([]byte{0}) // separator
	writeU64(uint64(backend))
	writeU64(uint64(d.Elem()))
	writeU64(uint64(len(shape)))
	for _, s := range shape {
		writeU64(uint64(int64(s)))
	}

	return Signature{
		Key:        fmt.Sprintf("%016x", h.Sum64()),
		Backend:    backend,
		Shape:      append([]int(nil), shape...),
		Elem:       d.Elem(),
		Arity:      d.Arity(),
		Scalars:    d.ScalarParams(),
		Descriptor: d.Digest(),
	}, nil
}

func uint64FromFloat(v float64) uint64 {
	return math.Float64bits(v)
}
