package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neokyc/pkg/domain"
	dErrors "neokyc/pkg/domain-errors"
	"neokyc/pkg/platform/sentinel"
)

func TestAssessScenarios(t *testing.T) {
	tests := []struct {
		name    string
		risk    int
		bracket domain.IncomeBracket
		want    int64
	}{
		{"low risk high income", 35, domain.Income100kTo200k, 250_000},
		{"medium risk low income", 55, domain.IncomeBelow50k, 25_000},
		{"high risk", 85, domain.IncomeAbove200k, 0},
		{"boundary 39 is full", 39, domain.Income50kTo100k, 100_000},
		{"boundary 40 is half", 40, domain.Income50kTo100k, 50_000},
		{"boundary 70 is half", 70, domain.Income50kTo100k, 50_000},
		{"boundary 71 is zero", 71, domain.Income50kTo100k, 0},
		{"unknown bracket uses lowest tier", 0, domain.IncomeBracket("bogus"), 50_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(tt.risk, tt.bracket)
			assert.Equal(t, tt.want, got.SuggestedLimit)
			assert.Equal(t, StatusPending, got.Status)
			assert.Equal(t, "PKR", got.Currency)
		})
	}
}

func TestAssessIsMonotonic(t *testing.T) {
	brackets := []domain.IncomeBracket{domain.IncomeBelow50k, domain.Income50kTo100k, domain.Income100kTo200k, domain.IncomeAbove200k}
	for _, b := range brackets {
		prev := Assess(0, b).SuggestedLimit
		for risk := 1; risk <= 100; risk++ {
			got := Assess(risk, b)
			require.LessOrEqual(t, got.SuggestedLimit, prev, "bracket %s risk %d", b, risk)
			require.Equal(t, StatusPending, got.Status)
			prev = got.SuggestedLimit
		}
	}
}

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cid := domain.NewCustomerID()

	rec := NewRecord(cid, 20, domain.Income50kTo100k, now)
	assert.False(t, rec.ID.IsNil())
	assert.Equal(t, cid, rec.CustomerID)
	assert.Equal(t, int64(100_000), rec.SuggestedLimit)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, now, rec.CalculatedAt)
}

func TestParseLoanDecision(t *testing.T) {
	got, err := ParseLoanDecision(" Approved ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got)

	got, err = ParseLoanDecision("Rejected")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got)

	for _, bad := range []string{"", "Pending", "approved", "Verified"} {
		_, err := ParseLoanDecision(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "input %q", bad)
	}
}

func TestRecordDecide(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := NewRecord(domain.NewCustomerID(), 10, domain.IncomeBelow50k, now)

	err := rec.Decide(StatusPending, "", "Admin", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.True(t, rec.IsPending())

	require.NoError(t, rec.Decide(StatusApproved, "salary slip checked", "Admin", now.Add(time.Hour)))
	assert.Equal(t, StatusApproved, rec.Status)
	assert.Equal(t, "salary slip checked", rec.Reason)
	assert.Equal(t, "Admin", rec.DecidedBy)
	require.NotNil(t, rec.DecidedAt)
	assert.Equal(t, now.Add(time.Hour), *rec.DecidedAt)

	err = rec.Decide(StatusRejected, "changed mind", "Other", now.Add(2*time.Hour))
	require.ErrorIs(t, err, sentinel.ErrInvalidState)
	assert.Equal(t, StatusApproved, rec.Status, "a decided row is final")
	assert.Equal(t, "Admin", rec.DecidedBy)
}
