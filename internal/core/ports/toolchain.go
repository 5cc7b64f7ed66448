package ports

import (
	"context"

	"go.trai.ch/stencil/internal/core/domain"
)

// Toolchain turns generated C source into a ready-to-invoke callable by
// driving an external native compiler. Compilation may block for seconds;
// implementations must honor context cancellation and return
// domain.ErrCompilation carrying the tool's diagnostic text on failure.
//
//go:generate mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type Toolchain interface {
	// Compile builds the source for the call shape described by meta.
	Compile(ctx context.Context, meta domain.KernelMeta, source string) (domain.Callable, error)
}
