package ports

import "context"

// Span is one traced operation.
type Span interface {
	End()
	RecordError(err error)
	SetAttribute(key string, value any)
}

// Tracer creates spans around the long-running pipeline stages
// (lowering, code generation, toolchain compilation, tuning trials).
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}
