// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/stencil/internal/adapters/config"
	_ "go.trai.ch/stencil/internal/adapters/logger"
	_ "go.trai.ch/stencil/internal/adapters/opencl"
	_ "go.trai.ch/stencil/internal/adapters/telemetry"
	_ "go.trai.ch/stencil/internal/adapters/toolchain"
	// Register app nodes.
	_ "go.trai.ch/stencil/internal/app"
)
