package telemetry

import (
	"context"

	"go.trai.ch/stencil/internal/core/ports"
)

// Noop is a tracer that records nothing. Used where tracing is not wired,
// e.g. in tests and the library facade.
type Noop struct{}

var _ ports.Tracer = Noop{}

// Start implements ports.Tracer.
func (Noop) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End()                     {}
func (noopSpan) RecordError(error)        {}
func (noopSpan) SetAttribute(string, any) {}
