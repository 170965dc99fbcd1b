package store

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"claimguard/internal/claims/models"
	"claimguard/pkg/platform/sentinel"
)

// InMemoryStore keeps claims in a map guarded by a RWMutex. Callers only ever
// see clones.
type InMemoryStore struct {
	mu     sync.RWMutex
	claims map[string]*models.Claim
	// order holds IDs by creation so listings are stable.
	order []string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{claims: make(map[string]*models.Claim)}
}

func (s *InMemoryStore) Create(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[claim.ID]; ok {
		return fmt.Errorf("claim %s: %w", claim.ID, sentinel.ErrDuplicate)
	}
	stored := claim.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	claim.Version = stored.Version
	s.claims[claim.ID] = stored
	s.order = append(s.order, claim.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, fmt.Errorf("claim %s: %w", id, sentinel.ErrNotFound)
	}
	return c.Clone(), nil
}

// Update runs mutate on a copy outside the lock and commits it only if no
// other update landed in between.
func (s *InMemoryStore) Update(ctx context.Context, id string, mutate Mutator) (*models.Claim, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := current.Version
	if err := mutate(current); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.claims[id]
	if !ok {
		return nil, fmt.Errorf("claim %s: %w", id, sentinel.ErrNotFound)
	}
	if stored.Version != readVersion {
		return nil, fmt.Errorf("claim %s at version %d: %w", id, readVersion, sentinel.ErrConflict)
	}
	current.ID = id
	current.Version = readVersion + 1
	s.claims[id] = current.Clone()
	return current, nil
}

// List yields summaries newest first. Each claim is read under the lock when
// it is reached, so a slow consumer never blocks writers.
func (s *InMemoryStore) List(_ context.Context, filter models.ClaimFilter) iter.Seq2[models.ClaimSummary, error] {
	filter.Normalize()
	return func(yield func(models.ClaimSummary, error) bool) {
		s.mu.RLock()
		ids := slices.Clone(s.order)
		s.mu.RUnlock()

		emitted := 0
		for _, id := range slices.Backward(ids) {
			s.mu.RLock()
			c, ok := s.claims[id]
			var summary models.ClaimSummary
			if ok {
				summary = c.Summary()
			}
			s.mu.RUnlock()
			if !ok || !filter.Matches(summary) {
				continue
			}
			if !yield(summary, nil) {
				return
			}
			emitted++
			if filter.Limit > 0 && emitted >= filter.Limit {
				return
			}
		}
	}
}
