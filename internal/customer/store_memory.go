package customer

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"neokyc/internal/pii"
	"neokyc/internal/risk"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/sentinel"
	"neokyc/pkg/requestcontext"
)

type memoryRow struct {
	customer Customer // PII fields blank
	sealed   sealed
}

// InMemoryStore keeps encrypted customers in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	cipher *pii.Cipher
	rows   map[domain.CustomerID]*memoryRow
	codes  map[string]domain.CustomerID
	order  []domain.CustomerID
}

func NewInMemoryStore(cipher *pii.Cipher) *InMemoryStore {
	return &InMemoryStore{
		cipher: cipher,
		rows:   make(map[domain.CustomerID]*memoryRow),
		codes:  make(map[string]domain.CustomerID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, c *Customer) error {
	sl, err := seal(s.cipher, c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[c.ID]; ok {
		return fmt.Errorf("customer %s: %w", c.ID, sentinel.ErrConflict)
	}
	if _, ok := s.codes[c.Code]; ok {
		return fmt.Errorf("customer code: %w", sentinel.ErrConflict)
	}

	row := &memoryRow{customer: *c, sealed: sl}
	row.customer.CNIC, row.customer.Email, row.customer.Phone, row.customer.Address = "", "", "", ""
	row.customer.PasswordHash = slices.Clone(c.PasswordHash)
	s.rows[c.ID] = row
	s.codes[c.Code] = c.ID
	s.order = append(s.order, c.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CustomerID) (*Customer, error) {
	s.mu.RLock()
	row, ok := s.rows[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.open(row, true), nil
}

func (s *InMemoryStore) ListPlaintext(_ context.Context) ([]*Customer, error) {
	s.mu.RLock()
	rows := make([]*memoryRow, 0, len(s.order))
	for _, id := range s.order {
		rows = append(rows, s.rows[id])
	}
	s.mu.RUnlock()

	out := make([]*Customer, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.open(row, false))
	}
	return out, nil
}

func (s *InMemoryStore) UpdateRisk(ctx context.Context, id domain.CustomerID, trustScore int, segment risk.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	row.customer.TrustScore = trustScore
	row.customer.Segment = segment
	row.customer.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.codes, row.customer.Code)
	delete(s.rows, id)
	s.order = slices.DeleteFunc(s.order, func(v domain.CustomerID) bool { return v == id })
	return nil
}

// open copies the row and decrypts the copy.
func (s *InMemoryStore) open(row *memoryRow, placeholder bool) *Customer {
	s.mu.RLock()
	c := row.customer
	sl := row.sealed
	s.mu.RUnlock()
	c.PasswordHash = slices.Clone(c.PasswordHash)
	sl.open(s.cipher, &c, placeholder)
	return &c
}
