package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpay/internal/fx"
	"flowpay/internal/model"
	"flowpay/internal/nessie"
	"flowpay/internal/store"
	"flowpay/pkg/errno"
)

func newFXPoolFixture() (*FXPoolService, *nessie.StubClient, *fx.StaticRateSource, *recordingEmitter, store.Store) {
	st := store.NewMemoryStore()
	ledger := nessie.NewStubClient()
	rates := fx.NewStaticRateSource()
	emitter := &recordingEmitter{}
	return NewFXPoolService(st, ledger, rates, emitter), ledger, rates, emitter, st
}

func createTestFXPool(t *testing.T, svc *FXPoolService, goalUSD int64, deadline time.Duration, maxDrift float64) *model.FXPool {
	t.Helper()
	p, err := svc.Create(context.Background(), CreateFXPoolInput{
		OrganizerAccountID: "acct_organizer",
		PayeeAccountID:     "acct_payee",
		GoalAmountUSD:      goalUSD,
		Description:        "Wedding fund",
		Deadline:           deadline,
		MaxRateDriftPct:    decimal.NewFromFloat(maxDrift),
	})
	require.NoError(t, err)
	return p
}

func TestFXContributeNormalizesToUSD(t *testing.T) {
	ctx := context.Background()
	svc, _, rates, emitter, _ := newFXPoolFixture()
	rates.SetRate("eur", "usd", decimal.NewFromFloat(1.08))
	rates.SetRate("inr", "usd", decimal.NewFromFloat(0.012))

	p := createTestFXPool(t, svc, 100000, 24*time.Hour, 2.0)

	p1, err := svc.Contribute(ctx, p.ID, "acct_eu", "eur", 10000)
	require.NoError(t, err)
	// 10000 * 1.08 = 10800.
	assert.Equal(t, int64(10800), p1.CollectedUSD)
	assert.Equal(t, []string{"eur"}, p1.CurrenciesCollected)

	p2, err := svc.Contribute(ctx, p.ID, "acct_in", "inr", 500000)
	require.NoError(t, err)
	// 500000 * 0.012 = 6000.
	assert.Equal(t, int64(16800), p2.CollectedUSD)
	assert.ElementsMatch(t, []string{"eur", "inr"}, p2.CurrenciesCollected)

	// Set semantics: a second eur contribution adds no duplicate.
	p3, err := svc.Contribute(ctx, p.ID, "acct_eu2", "eur", 1000)
	require.NoError(t, err)
	assert.Len(t, p3.CurrenciesCollected, 2)
	assert.Equal(t, 3, p3.ContributionsCount)

	require.Len(t, p3.Contributions, 3)
	assert.True(t, p3.Contributions[0].USDRate.Equal(decimal.NewFromFloat(1.08)))
	assert.Equal(t, 3, emitter.count(model.EventFXPoolContribution))
}

func TestFXPoolGoalReachedSettlesUSD(t *testing.T) {
	ctx := context.Background()
	svc, ledger, rates, emitter, _ := newFXPoolFixture()
	rates.SetRate("eur", "usd", decimal.NewFromFloat(1.0))

	p := createTestFXPool(t, svc, 5000, 24*time.Hour, 2.0)

	funded, err := svc.Contribute(ctx, p.ID, "acct_eu", "eur", 5000)
	require.NoError(t, err)
	assert.Equal(t, model.FXPoolFunded, funded.Status)
	assert.NotEmpty(t, funded.NessieSettlementID)
	assert.NotNil(t, funded.FundedAt)
	assert.Equal(t, 1, emitter.count(model.EventFXPoolGoalReached))

	transfers := ledger.Transfers()
	require.Len(t, transfers, 2)
	assert.Equal(t, "acct_payee", transfers[1].To)
	assert.Equal(t, int64(5000), transfers[1].Amount)
}

// Drift past tolerance refunds every contribution in its original
// currency and amount, never the USD equivalent.
func TestFXPoolDriftRefundsOriginalCurrency(t *testing.T) {
	ctx := context.Background()
	svc, ledger, rates, emitter, _ := newFXPoolFixture()
	rates.SetRate("eur", "usd", decimal.NewFromFloat(1.08))
	rates.SetRate("inr", "usd", decimal.NewFromFloat(0.012))

	p := createTestFXPool(t, svc, 1000000, 24*time.Hour, 2.0)
	_, err := svc.Contribute(ctx, p.ID, "acct_eu", "eur", 10000)
	require.NoError(t, err)
	_, err = svc.Contribute(ctx, p.ID, "acct_in", "inr", 500000)
	require.NoError(t, err)

	// EUR moves 5%, INR stays put.
	rates.SetRate("eur", "usd", decimal.NewFromFloat(1.134))
	drifted, entries, err := svc.CheckDrift(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FXPoolDriftRefunded, drifted.Status)
	assert.Equal(t, int64(0), drifted.CollectedUSD)
	assert.Len(t, drifted.RefundIDs, 2)

	require.Len(t, entries, 2)
	assert.True(t, entries[0].Drifted)
	assert.False(t, entries[1].Drifted)

	// Both transfers reversed, each in its original amount via the original
	// transfer id.
	assert.Len(t, ledger.Reversals(), 2)
	for _, c := range drifted.Contributions {
		assert.NotEmpty(t, c.RefundID)
	}
	assert.Equal(t, 1, emitter.count(model.EventFXPoolRateDrifted))
}

func TestFXPoolDriftWithinToleranceIsReadOnly(t *testing.T) {
	ctx := context.Background()
	svc, ledger, rates, _, st := newFXPoolFixture()
	rates.SetRate("eur", "usd", decimal.NewFromFloat(1.08))

	p := createTestFXPool(t, svc, 1000000, 24*time.Hour, 2.0)
	_, err := svc.Contribute(ctx, p.ID, "acct_eu", "eur", 10000)
	require.NoError(t, err)

	rates.SetRate("eur", "usd", decimal.NewFromFloat(1.09))
	checked, entries, err := svc.CheckDrift(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FXPoolCollecting, checked.Status)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Drifted)
	assert.Empty(t, ledger.Reversals())

	stored, err := st.GetFXPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10800), stored.CollectedUSD)
}

func TestFXPoolCancelRefunds(t *testing.T) {
	ctx := context.Background()
	svc, ledger, rates, emitter, _ := newFXPoolFixture()
	rates.SetRate("eur", "usd", decimal.NewFromFloat(1.0))

	p := createTestFXPool(t, svc, 1000000, 24*time.Hour, 2.0)
	_, err := svc.Contribute(ctx, p.ID, "acct_eu", "eur", 7000)
	require.NoError(t, err)

	cancelled, failures, err := svc.Cancel(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, model.FXPoolCancelled, cancelled.Status)
	assert.Equal(t, int64(0), cancelled.CollectedUSD)
	assert.Len(t, ledger.Reversals(), 1)
	assert.Equal(t, 1, emitter.count(model.EventFXPoolCancelled))
}

func TestFXPoolContributePastDeadline(t *testing.T) {
	ctx := context.Background()
	svc, _, rates, _, st := newFXPoolFixture()
	rates.SetRate("eur", "usd", decimal.NewFromFloat(1.0))

	p := createTestFXPool(t, svc, 1000000, -time.Hour, 2.0)
	_, err := svc.Contribute(ctx, p.ID, "acct_eu", "eur", 7000)
	e := errno.Decode(err)
	assert.Equal(t, 422, e.HTTPStatus)
	assert.Equal(t, "fxpool_expired", e.Code)

	stored, err := st.GetFXPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FXPoolExpired, stored.Status)
}

// Losing a version race mid-expiry must not leave two live settlements:
// the stale transfer gets reversed before the retry settles again.
func TestFXPoolExpireSettlePartialLostRaceSettlesOnce(t *testing.T) {
	ctx := context.Background()
	st := &conflictStore{Store: store.NewMemoryStore()}
	ledger := nessie.NewStubClient()
	rates := fx.NewStaticRateSource()
	rates.SetRate("eur", "usd", decimal.NewFromFloat(1.0))
	svc := NewFXPoolService(st, ledger, rates, &recordingEmitter{})

	p, err := svc.Create(ctx, CreateFXPoolInput{
		OrganizerAccountID: "acct_organizer",
		PayeeAccountID:     "acct_payee",
		GoalAmountUSD:      1000000,
		Description:        "Wedding fund",
		Deadline:           time.Minute,
		OnDeadlineMiss:     model.DeadlineSettlePartial,
		MaxRateDriftPct:    decimal.NewFromFloat(2.0),
	})
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, p.ID, "acct_eu", "eur", 7000)
	require.NoError(t, err)

	st.armFXPoolConflicts(1)
	require.NoError(t, svc.Expire(ctx, p.ID))

	stored, err := st.GetFXPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FXPoolExpired, stored.Status)

	settlements := settlementTransfers(ledger.Transfers())
	require.Len(t, settlements, 2)
	assert.Equal(t, int64(7000), settlements[0].Amount)
	require.Len(t, ledger.Reversals(), 1)
	assert.Equal(t, settlements[0].ID, ledger.Reversals()[0])
	assert.Equal(t, settlements[1].ID, stored.NessieSettlementID)
}

func TestFXPoolRateUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, _, _ := newFXPoolFixture()

	p := createTestFXPool(t, svc, 1000000, 24*time.Hour, 2.0)
	_, err := svc.Contribute(ctx, p.ID, "acct_x", "xyz", 7000)
	assert.Equal(t, "rate_unavailable", errno.Decode(err).Code)
	assert.Empty(t, ledger.Transfers())
}
