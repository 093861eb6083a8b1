package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"neokyc/internal/customer"
	"neokyc/internal/pii"
	"neokyc/internal/verification/metrics"
	"neokyc/internal/verification/models"
	"neokyc/internal/verification/service"
	eligibilitystore "neokyc/internal/verification/store/eligibility"
	verificationstore "neokyc/internal/verification/store/verification"
	"neokyc/pkg/requestcontext"
	"neokyc/pkg/testutil"
)

func newScenarioService(t *testing.T) *service.Service {
	t.Helper()
	cipher, err := pii.NewCipher(make([]byte, pii.KeySize))
	require.NoError(t, err)
	return service.New(
		customer.NewInMemoryStore(cipher),
		verificationstore.NewInMemoryStore(),
		eligibilitystore.NewInMemoryStore(),
		service.WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
		service.WithBcryptCost(bcrypt.MinCost),
	)
}

func reviewerContext() context.Context {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	return requestcontext.WithActor(ctx, "reviewer")
}

func TestReviewScenarios(t *testing.T) {
	testutil.Given(t, "an applicant with a disposable email", func(t *testing.T) {
		svc := newScenarioService(t)
		req := cleanApplicant()
		req.Email = "ayesha@mailinator.com"
		res, err := svc.Register(reviewerContext(), req)
		require.NoError(t, err)
		require.Equal(t, 40, res.Verification.RiskScore)

		testutil.When(t, "the admin verifies the application", func(t *testing.T) {
			_, err := svc.Decide(reviewerContext(), service.DecisionRequest{
				CustomerID: res.CustomerID,
				Status:     string(models.StatusVerified),
				Remarks:    "documents checked",
			})
			require.NoError(t, err)

			testutil.Then(t, "the loan limit is halved", func(t *testing.T) {
				status, err := svc.Get(reviewerContext(), res.CustomerID)
				require.NoError(t, err)
				require.NotNil(t, status.Eligibility)
				assert.Equal(t, int64(125_000), status.Eligibility.SuggestedLimit)
				assert.Equal(t, models.StatusVerified, status.Verification.Status)
			})
		})
	})

	testutil.Given(t, "an applicant who is still pending", func(t *testing.T) {
		svc := newScenarioService(t)
		res, err := svc.Register(reviewerContext(), cleanApplicant())
		require.NoError(t, err)

		testutil.Then(t, "no eligibility exists yet", func(t *testing.T) {
			status, err := svc.Get(reviewerContext(), res.CustomerID)
			require.NoError(t, err)
			assert.Nil(t, status.Eligibility)
			assert.Equal(t, models.StatusPending, status.Verification.Status)
		})
	})
}
