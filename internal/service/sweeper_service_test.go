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
)

type sweeperFixture struct {
	sweeper *Sweeper
	store   store.Store
	ledger  *nessie.StubClient
	rates   *fx.StaticRateSource
	emitter *recordingEmitter

	collects  *CollectService
	pools     *PoolService
	corridors *CorridorService
	fxpools   *FXPoolService
	recurring *RecurringService
}

func newSweeperFixture() *sweeperFixture {
	st := store.NewMemoryStore()
	ledger := nessie.NewStubClient()
	rates := fx.NewStaticRateSource()
	emitter := &recordingEmitter{}

	f := &sweeperFixture{
		store:     st,
		ledger:    ledger,
		rates:     rates,
		emitter:   emitter,
		collects:  NewCollectService(st, ledger, emitter),
		pools:     NewPoolService(st, ledger, emitter),
		corridors: NewCorridorService(st, ledger, fx.NewLockManager(rates), emitter),
		fxpools:   NewFXPoolService(st, ledger, rates, emitter),
		recurring: NewRecurringService(st, ledger, emitter),
	}
	f.sweeper = NewSweeper(st, nil, 30*time.Second, f.collects, f.pools, f.corridors, f.fxpools, f.recurring)
	return f
}

func TestSweepExpiresOverdueEntities(t *testing.T) {
	ctx := context.Background()
	f := newSweeperFixture()
	f.rates.SetRate("usd", "inr", decimal.NewFromFloat(83.2))
	f.rates.SetRate("eur", "usd", decimal.NewFromFloat(1.0))

	overdueCollect, err := f.collects.Create(ctx, CreateCollectInput{
		PayeeAccountID: "acct_payee", PayerAccountID: "acct_payer",
		Amount: 1000, Currency: "USD", ExpiresIn: -time.Hour,
	})
	require.NoError(t, err)

	freshCollect, err := f.collects.Create(ctx, CreateCollectInput{
		PayeeAccountID: "acct_payee", PayerAccountID: "acct_payer",
		Amount: 1000, Currency: "USD", ExpiresIn: 24 * time.Hour,
	})
	require.NoError(t, err)

	overduePool, err := f.pools.Create(ctx, CreatePoolInput{
		OrganizerAccountID: "acct_org", PayeeAccountID: "acct_payee",
		GoalAmount: 5000, Currency: "USD", Deadline: -time.Hour,
	})
	require.NoError(t, err)

	overdueCorridor, err := f.corridors.Create(ctx, CreateCorridorInput{
		SourceCurrency: "usd", TargetCurrency: "inr",
		SourceAccountID: "acct_src", TargetAccountID: "acct_dst",
		AmountTarget: 4900, LockDuration: -time.Minute,
		MaxDriftPct: decimal.NewFromFloat(2.0),
	})
	require.NoError(t, err)

	overdueFXPool, err := f.fxpools.Create(ctx, CreateFXPoolInput{
		OrganizerAccountID: "acct_org", PayeeAccountID: "acct_payee",
		GoalAmountUSD: 5000, Deadline: -time.Hour,
		MaxRateDriftPct: decimal.NewFromFloat(2.0),
	})
	require.NoError(t, err)

	f.sweeper.RunOnce()

	c, err := f.store.GetCollect(ctx, overdueCollect.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CollectExpired, c.Status)

	c2, err := f.store.GetCollect(ctx, freshCollect.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CollectPending, c2.Status)

	p, err := f.store.GetPool(ctx, overduePool.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PoolExpired, p.Status)

	cr, err := f.store.GetCorridor(ctx, overdueCorridor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CorridorExpired, cr.Status)

	fp, err := f.store.GetFXPool(ctx, overdueFXPool.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FXPoolExpired, fp.Status)
}

func TestSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newSweeperFixture()

	_, err := f.collects.Create(ctx, CreateCollectInput{
		PayeeAccountID: "acct_payee", PayerAccountID: "acct_payer",
		Amount: 1000, Currency: "USD", ExpiresIn: -time.Hour,
	})
	require.NoError(t, err)

	f.sweeper.RunOnce()
	f.sweeper.RunOnce()
	f.sweeper.RunOnce()

	assert.Equal(t, 1, f.emitter.count(model.EventCollectExpired))
}

func TestSweepRefundsExpiredPoolContributions(t *testing.T) {
	ctx := context.Background()
	f := newSweeperFixture()

	p, err := f.pools.Create(ctx, CreatePoolInput{
		OrganizerAccountID: "acct_org", PayeeAccountID: "acct_payee",
		GoalAmount: 20000, Currency: "USD", Deadline: time.Minute,
	})
	require.NoError(t, err)
	_, err = f.pools.Contribute(ctx, p.ID, "acct_a", 5000)
	require.NoError(t, err)

	// Move the deadline into the past, past the contribution.
	stored, err := f.store.GetPool(ctx, p.ID)
	require.NoError(t, err)
	stored.Deadline = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, f.store.UpdatePool(ctx, stored))

	f.sweeper.RunOnce()

	after, err := f.store.GetPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PoolExpired, after.Status)
	assert.Equal(t, int64(0), after.CollectedAmount)
	assert.Len(t, f.ledger.Reversals(), 1)
	assert.Equal(t, 1, f.emitter.count(model.EventPoolExpiredRefunded))
}

func TestSweepFiresDueRecurring(t *testing.T) {
	ctx := context.Background()
	f := newSweeperFixture()

	r, err := f.recurring.Create(ctx, CreateRecurringInput{
		PayeeAccountID: "acct_payee", PayerAccountID: "acct_payer",
		Amount: 1500, Currency: "USD", Interval: model.IntervalDaily,
	})
	require.NoError(t, err)

	stored, err := f.store.GetRecurring(ctx, r.ID)
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Minute)
	stored.NextCollectAt = &past
	require.NoError(t, f.store.UpdateRecurring(ctx, stored))

	f.sweeper.RunOnce()

	after, err := f.store.GetRecurring(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.OccurrencesCount)
	require.NotNil(t, after.NextCollectAt)
	assert.True(t, after.NextCollectAt.After(past))
}
