package ports

import "go.trai.ch/stencil/internal/core/domain"

// ConfigLoader reads the process configuration (stencil.yaml). A missing
// file yields the defaults, not an error.
type ConfigLoader interface {
	Load(dir string) (domain.Settings, error)
}
