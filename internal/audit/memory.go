package audit

import (
	"context"
	"sync"

	"claimguard/internal/claims/models"
)

// MemoryStore keeps entries in process. Repeated IDs are ignored.
type MemoryStore struct {
	mu      sync.RWMutex
	seen    map[string]bool
	byClaim map[string][]models.AuditEntry
	total   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seen:    make(map[string]bool),
		byClaim: make(map[string][]models.AuditEntry),
	}
}

func (s *MemoryStore) Append(_ context.Context, entries ...models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if s.seen[e.ID] {
			continue
		}
		s.seen[e.ID] = true
		s.byClaim[e.ClaimID] = append(s.byClaim[e.ClaimID], e)
		s.total++
	}
	return nil
}

func (s *MemoryStore) ListByClaim(_ context.Context, claimID string) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditEntry(nil), s.byClaim[claimID]...), nil
}

// Len returns the number of distinct entries stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}
