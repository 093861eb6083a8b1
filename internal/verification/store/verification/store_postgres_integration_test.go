//go:build integration

package verification_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"neokyc/internal/customer"
	"neokyc/internal/eligibility"
	"neokyc/internal/pii"
	"neokyc/internal/risk"
	"neokyc/internal/verification/models"
	eligibilitystore "neokyc/internal/verification/store/eligibility"
	"neokyc/internal/verification/store/verification"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/sentinel"
	"neokyc/pkg/platform/tx"
	"neokyc/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres      *containers.PostgresContainer
	customers     *customer.PostgresStore
	verifications *verification.PostgresStore
	eligibility   *eligibilitystore.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	c, err := pii.NewCipher(bytes.Repeat([]byte{0x33}, pii.KeySize))
	s.Require().NoError(err)
	s.customers = customer.NewPostgresStore(s.postgres.DB, c)
	s.verifications = verification.NewPostgresStore(s.postgres.DB)
	s.eligibility = eligibilitystore.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *PostgresStoreSuite) createCustomer(ctx context.Context, code string) *customer.Customer {
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &customer.Customer{
		ID:            domain.NewCustomerID(),
		Code:          code,
		FullName:      "Sana Iqbal",
		CNIC:          "61101-1111111-2",
		Email:         "sana@example.com",
		Phone:         "03331234567",
		Address:       "Street 9, F-7/2, Islamabad",
		IncomeBracket: domain.IncomeBelow50k,
		PasswordHash:  []byte("hash"),
		TrustScore:    70,
		Segment:       risk.SegmentPrime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.Require().NoError(s.customers.Create(ctx, c))
	return c
}

func (s *PostgresStoreSuite) TestVerificationLifecycle() {
	ctx := context.Background()
	c := s.createCustomer(ctx, "VRFY0001")
	now := time.Now().UTC().Truncate(time.Microsecond)

	v := models.NewPending(c.ID, risk.Profile{RiskScore: 15, TrustScore: 70, Level: risk.LevelLow}, now)
	s.Require().NoError(s.verifications.Create(ctx, v))

	dup := models.NewPending(c.ID, risk.Profile{}, now)
	s.ErrorIs(s.verifications.Create(ctx, dup), sentinel.ErrConflict)

	pending, err := s.verifications.ListPending(ctx)
	s.Require().NoError(err)
	s.Len(pending, 1)

	s.Require().NoError(v.Decide(models.StatusVerified, "ok", "admin", risk.Profile{RiskScore: 15, TrustScore: 70, Level: risk.LevelLow, Reasons: []string{"a", "b"}}, now.Add(time.Minute)))
	s.Require().NoError(s.verifications.Update(ctx, v))

	got, err := s.verifications.FindByCustomer(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, got.Status)
	s.Equal([]string{"a", "b"}, got.Reasons)
	s.Equal("ok | Auto-Analysis: a, b", got.Remarks)

	pending, err = s.verifications.ListPending(ctx)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *PostgresStoreSuite) TestEligibilityHistoryAndCascade() {
	ctx := context.Background()
	c := s.createCustomer(ctx, "ELIG0001")
	base := time.Now().UTC().Truncate(time.Microsecond)

	s.Require().NoError(s.verifications.Create(ctx, models.NewPending(c.ID, risk.Profile{}, base)))
	s.Require().NoError(s.eligibility.Append(ctx, eligibility.NewRecord(c.ID, 50, c.IncomeBracket, base)))
	s.Require().NoError(s.eligibility.Append(ctx, eligibility.NewRecord(c.ID, 10, c.IncomeBracket, base.Add(time.Hour))))

	latest, err := s.eligibility.Latest(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(int64(50_000), latest.SuggestedLimit)

	history, err := s.eligibility.ListByCustomer(ctx, c.ID)
	s.Require().NoError(err)
	s.Len(history, 2)

	runner := tx.NewSQLRunner(s.postgres.DB)
	s.Require().NoError(runner.RunInTx(ctx, func(ctx context.Context) error {
		return s.customers.Delete(ctx, c.ID)
	}))

	_, err = s.verifications.FindByCustomer(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.eligibility.Latest(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestLoanDecisionOnlyFromPending() {
	ctx := context.Background()
	c := s.createCustomer(ctx, "LOAN0001")
	base := time.Now().UTC().Truncate(time.Microsecond)

	older := eligibility.NewRecord(c.ID, 50, c.IncomeBracket, base)
	newer := eligibility.NewRecord(c.ID, 10, c.IncomeBracket, base.Add(time.Hour))
	s.Require().NoError(s.eligibility.Append(ctx, older))
	s.Require().NoError(s.eligibility.Append(ctx, newer))

	all, err := s.eligibility.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(newer.ID, all[0].ID)
	s.Nil(all[0].DecidedAt)

	s.Require().NoError(newer.Decide(eligibility.StatusApproved, "documents checked", "admin", base.Add(2*time.Hour)))
	s.Require().NoError(s.eligibility.SetStatus(ctx, newer))

	found, err := s.eligibility.FindByID(ctx, newer.ID)
	s.Require().NoError(err)
	s.Equal(eligibility.StatusApproved, found.Status)
	s.Equal("documents checked", found.Reason)
	s.Equal("admin", found.DecidedBy)
	s.Require().NotNil(found.DecidedAt)
	s.True(base.Add(2 * time.Hour).Equal(*found.DecidedAt))

	found.Status = eligibility.StatusRejected
	s.ErrorIs(s.eligibility.SetStatus(ctx, found), sentinel.ErrInvalidState)

	unknown := eligibility.NewRecord(c.ID, 0, c.IncomeBracket, base)
	s.ErrorIs(s.eligibility.SetStatus(ctx, unknown), sentinel.ErrNotFound)
	_, err = s.eligibility.FindByID(ctx, unknown.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRollbackLeavesNothing() {
	ctx := context.Background()
	runner := tx.NewSQLRunner(s.postgres.DB)
	boom := errors.New("boom")

	var id domain.CustomerID
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		c := s.createCustomer(ctx, "ROLL0001")
		id = c.ID
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.customers.FindByID(ctx, id)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
