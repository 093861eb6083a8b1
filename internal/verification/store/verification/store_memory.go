package verification

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"neokyc/internal/verification/models"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/sentinel"
)

// InMemoryStore keeps one verification per customer.
type InMemoryStore struct {
	mu    sync.RWMutex
	byCID map[domain.CustomerID]*models.Verification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byCID: make(map[domain.CustomerID]*models.Verification)}
}

func (s *InMemoryStore) Create(_ context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCID[v.CustomerID]; ok {
		return fmt.Errorf("verification for customer %s: %w", v.CustomerID, sentinel.ErrConflict)
	}
	s.byCID[v.CustomerID] = clone(v)
	return nil
}

func (s *InMemoryStore) FindByCustomer(_ context.Context, customerID domain.CustomerID) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byCID[customerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(v), nil
}

func (s *InMemoryStore) Update(_ context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byCID[v.CustomerID]
	if !ok || cur.ID != v.ID {
		return sentinel.ErrNotFound
	}
	s.byCID[v.CustomerID] = clone(v)
	return nil
}

// ListPending returns open reviews oldest first.
func (s *InMemoryStore) ListPending(_ context.Context) ([]*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Verification
	for _, v := range s.byCID {
		if v.IsPending() {
			out = append(out, clone(v))
		}
	}
	slices.SortFunc(out, func(a, b *models.Verification) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (s *InMemoryStore) DeleteByCustomer(_ context.Context, customerID domain.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byCID, customerID)
	return nil
}

func clone(v *models.Verification) *models.Verification {
	c := *v
	c.Reasons = slices.Clone(v.Reasons)
	return &c
}
