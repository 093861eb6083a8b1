package eligibility

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"neokyc/internal/eligibility"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/sentinel"
)

// InMemoryStore keeps eligibility history per customer in insertion order.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.CustomerID][]eligibility.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.CustomerID][]eligibility.Record)}
}

func (s *InMemoryStore) Append(_ context.Context, r *eligibility.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.CustomerID] = append(s.records[r.CustomerID], *r)
	return nil
}

// Latest returns the most recently calculated record.
func (s *InMemoryStore) Latest(_ context.Context, customerID domain.CustomerID) (*eligibility.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.records[customerID]
	if len(history) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := history[0]
	for _, r := range history[1:] {
		if !r.CalculatedAt.Before(latest.CalculatedAt) {
			latest = r
		}
	}
	return &latest, nil
}

func (s *InMemoryStore) ListByCustomer(_ context.Context, customerID domain.CustomerID) ([]eligibility.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]eligibility.Record{}, s.records[customerID]...), nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.EligibilityID) (*eligibility.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, history := range s.records {
		for _, r := range history {
			if r.ID == id {
				return &r, nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns every row across customers, newest calculation first.
func (s *InMemoryStore) List(_ context.Context) ([]eligibility.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []eligibility.Record
	for _, history := range s.records {
		out = append(out, history...)
	}
	slices.SortStableFunc(out, func(a, b eligibility.Record) int {
		if c := b.CalculatedAt.Compare(a.CalculatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

// SetStatus stores the decision fields of r. Only a Pending row may change.
func (s *InMemoryStore) SetStatus(_ context.Context, r *eligibility.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.records[r.CustomerID]
	for i := range history {
		if history[i].ID != r.ID {
			continue
		}
		if !history[i].IsPending() {
			return sentinel.ErrInvalidState
		}
		history[i].Status = r.Status
		history[i].Reason = r.Reason
		history[i].DecidedBy = r.DecidedBy
		if r.DecidedAt != nil {
			at := *r.DecidedAt
			history[i].DecidedAt = &at
		}
		return nil
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) DeleteByCustomer(_ context.Context, customerID domain.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, customerID)
	return nil
}
