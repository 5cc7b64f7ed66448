package tune

import (
	"sync"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

// MemoryStore keeps tuning records for the process lifetime.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]domain.TuningRecord
}

var _ ports.TuningStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]domain.TuningRecord)}
}

// Get implements ports.TuningStore.
func (s *MemoryStore) Get(key string) (domain.TuningRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[key]
	return rec, ok
}

// Put implements ports.TuningStore.
func (s *MemoryStore) Put(rec domain.TuningRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.Key] = rec
}
