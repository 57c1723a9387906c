package cartstore

import (
	"context"
	"sync"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
)

// MemoryStore keeps carts in process memory. Used when no Redis address is
// configured and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*cart.Cart)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionID]
	if !ok {
		return nil, domain.NewNotFoundError("Cart", sessionID)
	}
	return c.Clone(), nil
}

func (s *MemoryStore) SaveIfVersion(_ context.Context, c *cart.Cart, expectedVersion int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := 0
	if stored, ok := s.carts[c.SessionID]; ok {
		current = stored.Version
	}
	if current != expectedVersion {
		return false, nil
	}
	c.Version = expectedVersion + 1
	s.carts[c.SessionID] = c.Clone()
	return true, nil
}

func (s *MemoryStore) DeleteIfVersion(_ context.Context, sessionID string, expectedVersion int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.carts[sessionID]
	if !ok {
		return true, nil
	}
	if stored.Version != expectedVersion {
		return false, nil
	}
	delete(s.carts, sessionID)
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}
