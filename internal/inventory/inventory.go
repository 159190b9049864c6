// Package inventory holds per-resource available-quantity counters behind
// the narrow collaborator interface the conflict detector depends on.
package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bookverse/order-intake/internal/domain"
)

type Store interface {
	GetAvailableQuantity(ctx context.Context, resourceID string) (int, error)
	AdjustAvailableQuantity(ctx context.Context, resourceID string, delta int) error
}

// MemoryStore keeps counters in memory. It backs the service in tests and
// single-process runs; the Postgres store is the durable variant.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]int)}
}

// SetQuantity creates or resets a resource counter.
func (s *MemoryStore) SetQuantity(resourceID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[resourceID] = qty
}

func (s *MemoryStore) GetAvailableQuantity(_ context.Context, resourceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qty, ok := s.items[resourceID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownResource, resourceID)
	}
	return qty, nil
}

func (s *MemoryStore) AdjustAvailableQuantity(_ context.Context, resourceID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	qty, ok := s.items[resourceID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownResource, resourceID)
	}
	if qty+delta < 0 {
		return fmt.Errorf("inventory for %s would go negative", resourceID)
	}
	s.items[resourceID] = qty + delta
	return nil
}
