// Package cache keeps compiled kernel artifacts keyed by signature. The
// first caller for a signature pays the compilation cost; concurrent
// callers for the same signature share the in-flight result instead of
// compiling again. Entries live for the process lifetime.
package cache

import (
	"context"
	"sync"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Cache is an in-memory ports.ArtifactCache.
type Cache struct {
	group singleflight.Group

	mu    sync.RWMutex
	ready map[string]*domain.Artifact
}

var _ ports.ArtifactCache = (*Cache)(nil)

// New creates an empty cache.
func New() *Cache {
	return &Cache{ready: make(map[string]*domain.Artifact)}
}

// GetOrCompile implements ports.ArtifactCache. A failed compilation is
// reported to every waiter and not retained, so the next call retries.
func (c *Cache) GetOrCompile(ctx context.Context, sig domain.Signature, compile ports.CompileFunc) (*domain.Artifact, error) {
	c.mu.RLock()
	art, ok := c.ready[sig.Key]
	c.mu.RUnlock()
	if ok {
		return art, nil
	}

	ch := c.group.DoChan(sig.Key, func() (any, error) {
		// A racing caller may have stored the artifact between our read
		// and the flight start.
		c.mu.RLock()
		art, ok := c.ready[sig.Key]
		c.mu.RUnlock()
		if ok {
			return art, nil
		}

		art, err := compile(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.ready[sig.Key] = art
		c.mu.Unlock()
		return art, nil
	})

	// DoChan rather than Do so a waiter can abandon the flight when its
	// context ends; the compilation itself keeps running for the others.
	select {
	case <-ctx.Done():
		return nil, zerr.Wrap(ctx.Err(), "abandoned compilation wait")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Artifact), nil
	}
}

// Peek implements ports.ArtifactCache.
func (c *Cache) Peek(sig domain.Signature) (*domain.Artifact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	art, ok := c.ready[sig.Key]
	return art, ok
}

// Len implements ports.ArtifactCache.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ready)
}
