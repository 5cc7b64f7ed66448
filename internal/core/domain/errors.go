package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidKernel is returned when a kernel descriptor is malformed:
	// empty or duplicated offsets, mixed offset ranks, or an unknown
	// boundary policy. Not retryable; the descriptor must be fixed.
	ErrInvalidKernel = zerr.New("invalid kernel descriptor")

	// ErrUnsupportedType is returned when an element type has no registered
	// lowering rule.
	ErrUnsupportedType = zerr.New("unsupported element type")

	// ErrUnsupportedBackend is returned when a signature cannot be lowered
	// for the requested backend. The same descriptor may still compile on a
	// different backend.
	ErrUnsupportedBackend = zerr.New("unsupported backend")

	// ErrDegenerateShape is returned when an input array is shorter than the
	// neighborhood extent on an axis, or the skip-policy interior is empty.
	ErrDegenerateShape = zerr.New("array shape degenerate for neighborhood")

	// ErrShapeMismatch is returned when the argument arrays do not match the
	// descriptor's arity or do not share a common shape.
	ErrShapeMismatch = zerr.New("argument shape mismatch")

	// ErrCompilation is returned when the external toolchain fails. The
	// wrapped error carries the tool's diagnostic text. Retryable after the
	// environment is fixed.
	ErrCompilation = zerr.New("toolchain compilation failed")

	// ErrAutotuningExhausted is returned when every tuning candidate failed
	// to compile or execute. The dispatcher falls back to default parameters.
	ErrAutotuningExhausted = zerr.New("all autotuning candidates failed")

	// ErrIndexOutOfRange is returned by grid accessors for indices outside
	// the grid shape.
	ErrIndexOutOfRange = zerr.New("grid index out of range")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrKernelSpecInvalid is returned when a kernel spec file does not
	// describe a constructible descriptor.
	ErrKernelSpecInvalid = zerr.New("invalid kernel spec file")
)
