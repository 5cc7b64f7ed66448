package ports

import (
	"context"

	"go.trai.ch/stencil/internal/core/domain"
)

// CompileFunc produces the artifact for a signature on a cache miss.
type CompileFunc func(ctx context.Context) (*domain.Artifact, error)

// ArtifactCache maps signatures to compiled artifacts. Implementations
// guarantee at most one concurrent compilation per signature: concurrent
// callers with the same signature await the in-flight result. Failures are
// surfaced to every waiter but not retained, so a later call retries.
// Lookups for different signatures proceed concurrently. No eviction.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type ArtifactCache interface {
	// GetOrCompile returns the cached artifact for sig, or runs compile
	// exactly once to produce it.
	GetOrCompile(ctx context.Context, sig domain.Signature, compile CompileFunc) (*domain.Artifact, error)

	// Peek returns the ready artifact without triggering compilation.
	Peek(sig domain.Signature) (*domain.Artifact, bool)

	// Len returns the number of ready entries.
	Len() int
}
