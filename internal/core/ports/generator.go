// Package ports defines the core interfaces of the specializer.
package ports

import (
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
)

// Generator emits backend source text for a lowered program. Generation is
// deterministic: identical programs and tuning parameters always produce
// byte-identical source.
//
//go:generate mockgen -source=generator.go -destination=mocks/mock_generator.go -package=mocks
type Generator interface {
	// Backend identifies the target this generator emits for.
	Backend() domain.Backend

	// Generate returns the source text for the program under the given
	// tuning parameters. It returns domain.ErrUnsupportedBackend when the
	// program's element type cannot be expressed on this target.
	Generate(prog *ir.Program, params domain.TuningParams) (string, error)
}
