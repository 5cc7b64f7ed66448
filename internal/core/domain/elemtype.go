package domain

import "go.trai.ch/zerr"

// ElemType identifies the element type of a grid. It drives the concrete
// types used by the code generators; host-side values are always held as
// float64 and narrowed at the toolchain boundary.
type ElemType uint8

const (
	// ElemInvalid is the zero value; it has no lowering rule.
	ElemInvalid ElemType = iota
	// ElemFloat32 maps to C "float" / OpenCL "float".
	ElemFloat32
	// ElemFloat64 maps to C "double" / OpenCL "double" (requires cl_khr_fp64).
	ElemFloat64
	// ElemInt32 maps to C / OpenCL "int".
	ElemInt32
)

// ParseElemType parses the textual element type used in kernel spec files.
func ParseElemType(s string) (ElemType, error) {
	switch s {
	case "float32", "float":
		return ElemFloat32, nil
	case "float64", "double":
		return ElemFloat64, nil
	case "int32", "int":
		return ElemInt32, nil
	default:
		return ElemInvalid, zerr.With(zerr.Wrap(ErrUnsupportedType, "unknown element type name"), "elem", s)
	}
}

// Registered reports whether the element type has a lowering rule.
func (t ElemType) Registered() bool {
	switch t {
	case ElemFloat32, ElemFloat64, ElemInt32:
		return true
	default:
		return false
	}
}

// CType returns the C spelling of the element type.
func (t ElemType) CType() string {
	switch t {
	case ElemFloat32:
		return "float"
	case ElemFloat64:
		return "double"
	case ElemInt32:
		return "int32_t"
	default:
		return ""
	}
}

// CLType returns the OpenCL spelling of the element type.
func (t ElemType) CLType() string {
	switch t {
	case ElemFloat32:
		return "float"
	case ElemFloat64:
		return "double"
	case ElemInt32:
		return "int"
	default:
		return ""
	}
}

// Size returns the element size in bytes as laid out by the generated code.
func (t ElemType) Size() int {
	switch t {
	case ElemFloat32, ElemInt32:
		return 4
	case ElemFloat64:
		return 8
	default:
		return 0
	}
}

func (t ElemType) String() string {
	switch t {
	case ElemFloat32:
		return "float32"
	case ElemFloat64:
		return "float64"
	case ElemInt32:
		return "int32"
	default:
		return "invalid"
	}
}
