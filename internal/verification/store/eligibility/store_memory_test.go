package eligibility

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neokyc/internal/eligibility"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	cid := domain.NewCustomerID()
	base := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	_, err := store.Latest(ctx, cid)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.Append(ctx, eligibility.NewRecord(cid, 80, domain.IncomeAbove200k, base.Add(time.Hour))))
	require.NoError(t, store.Append(ctx, eligibility.NewRecord(cid, 10, domain.IncomeAbove200k, base)))

	latest, err := store.Latest(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest.SuggestedLimit, "latest by calculation time, not insertion")

	history, err := store.ListByCustomer(ctx, cid)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	require.NoError(t, store.DeleteByCustomer(ctx, cid))
	history, err = store.ListByCustomer(ctx, cid)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestInMemoryStoreLoanDecisions(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	base := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	older := eligibility.NewRecord(domain.NewCustomerID(), 10, domain.IncomeBelow50k, base)
	newer := eligibility.NewRecord(domain.NewCustomerID(), 50, domain.IncomeAbove200k, base.Add(time.Hour))
	require.NoError(t, store.Append(ctx, older))
	require.NoError(t, store.Append(ctx, newer))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID, "newest first")
	assert.Equal(t, older.ID, all[1].ID)

	_, err = store.FindByID(ctx, domain.NewEligibilityID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	decided := *older
	require.NoError(t, decided.Decide(eligibility.StatusRejected, "income unverified", "Admin", base.Add(2*time.Hour)))
	require.NoError(t, store.SetStatus(ctx, &decided))

	found, err := store.FindByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, eligibility.StatusRejected, found.Status)
	assert.Equal(t, "income unverified", found.Reason)
	assert.Equal(t, "Admin", found.DecidedBy)
	require.NotNil(t, found.DecidedAt)

	again := *found
	again.Status = eligibility.StatusApproved
	require.ErrorIs(t, store.SetStatus(ctx, &again), sentinel.ErrInvalidState)

	missing := *newer
	missing.ID = domain.NewEligibilityID()
	require.ErrorIs(t, store.SetStatus(ctx, &missing), sentinel.ErrNotFound)
}
