package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"neokyc/internal/risk"
	"neokyc/internal/verification/models"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
}

func pending(at time.Time) *models.Verification {
	return models.NewPending(domain.NewCustomerID(), risk.Profile{RiskScore: 10, TrustScore: 60, Level: risk.LevelLow, Reasons: []string{"r"}}, at)
}

func (s *InMemoryStoreSuite) TestOnePerCustomer() {
	v := pending(time.Now())
	s.Require().NoError(s.store.Create(s.ctx, v))

	dup := pending(time.Now())
	dup.CustomerID = v.CustomerID
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestReturnsCopies() {
	v := pending(time.Now())
	s.Require().NoError(s.store.Create(s.ctx, v))

	got, err := s.store.FindByCustomer(s.ctx, v.CustomerID)
	s.Require().NoError(err)
	got.Reasons[0] = "mutated"
	got.Status = models.StatusVerified

	again, err := s.store.FindByCustomer(s.ctx, v.CustomerID)
	s.Require().NoError(err)
	s.Equal("r", again.Reasons[0])
	s.Equal(models.StatusPending, again.Status)
}

func (s *InMemoryStoreSuite) TestUpdateAndListPending() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older := pending(base)
	newer := pending(base.Add(time.Minute))
	decided := pending(base.Add(-time.Minute))
	for _, v := range []*models.Verification{newer, decided, older} {
		s.Require().NoError(s.store.Create(s.ctx, v))
	}

	decided.Status = models.StatusRejected
	s.Require().NoError(s.store.Update(s.ctx, decided))

	list, err := s.store.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(older.ID, list[0].ID)
	s.Equal(newer.ID, list[1].ID)

	s.Run("update of unknown record", func() {
		s.ErrorIs(s.store.Update(s.ctx, pending(base)), sentinel.ErrNotFound)
	})

	s.Run("delete by customer", func() {
		s.Require().NoError(s.store.DeleteByCustomer(s.ctx, older.CustomerID))
		_, err := s.store.FindByCustomer(s.ctx, older.CustomerID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
