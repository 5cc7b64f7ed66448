package ports

import (
	"context"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
)

// Device abstracts the OpenCL runtime: program build, buffer management and
// queue dispatch all live behind this port. The in-tree adapter is an
// emulator that executes the work-item grid in-process; a real driver binds
// the same interface.
//
//go:generate mockgen -source=device.go -destination=mocks/mock_device.go -package=mocks
type Device interface {
	// Name identifies the device for logs.
	Name() string

	// SupportsFP64 reports whether the device exposes cl_khr_fp64.
	SupportsFP64() bool

	// Build compiles kernel source for the device and binds it to the
	// launch geometry. The lowered program accompanies the source so
	// emulating devices can execute it without parsing OpenCL C.
	Build(ctx context.Context, prog *ir.Program, source string, plan domain.LaunchPlan) (domain.Callable, error)
}
