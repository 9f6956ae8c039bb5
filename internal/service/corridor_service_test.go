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

func newCorridorFixture() (*CorridorService, *nessie.StubClient, *fx.StaticRateSource, *recordingEmitter, store.Store) {
	st := store.NewMemoryStore()
	ledger := nessie.NewStubClient()
	rates := fx.NewStaticRateSource()
	emitter := &recordingEmitter{}
	svc := NewCorridorService(st, ledger, fx.NewLockManager(rates), emitter)
	return svc, ledger, rates, emitter, st
}

func createTestCorridor(t *testing.T, svc *CorridorService, amountTarget int64, lockFor time.Duration, maxDrift float64) *model.Corridor {
	t.Helper()
	c, err := svc.Create(context.Background(), CreateCorridorInput{
		SourceCurrency:  "usd",
		TargetCurrency:  "inr",
		SourceAccountID: "acct_src",
		TargetAccountID: "acct_dst",
		AmountTarget:    amountTarget,
		Description:     "Family remittance",
		LockDuration:    lockFor,
		MaxDriftPct:     decimal.NewFromFloat(maxDrift),
	})
	require.NoError(t, err)
	return c
}

func TestCreateCorridorLocksRate(t *testing.T) {
	svc, _, rates, emitter, _ := newCorridorFixture()
	rates.SetRate("usd", "inr", decimal.NewFromFloat(83.2))

	c := createTestCorridor(t, svc, 416000, 10*time.Minute, 2.0)
	assert.Equal(t, model.CorridorRateLocked, c.Status)
	assert.Equal(t, model.RateLockActive, c.RateLock.Status)
	assert.True(t, c.RateLock.Rate.Equal(decimal.NewFromFloat(83.2)))
	// 416000 / 83.2 = 5000 exactly.
	assert.Equal(t, int64(5000), c.AmountSource)
	assert.Equal(t, 1, emitter.count(model.EventCorridorRateLocked))
}

func TestRemitAtLockedRate(t *testing.T) {
	ctx := context.Background()
	svc, ledger, rates, emitter, _ := newCorridorFixture()
	rates.SetRate("usd", "inr", decimal.NewFromFloat(83.2))

	c := createTestCorridor(t, svc, 416000, 10*time.Minute, 2.0)

	// Small move inside tolerance still settles the locked amount.
	rates.SetRate("usd", "inr", decimal.NewFromFloat(83.9))
	remitted, err := svc.Remit(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CorridorRemitted, remitted.Status)
	assert.Equal(t, model.RateLockUsed, remitted.RateLock.Status)
	assert.NotEmpty(t, remitted.NessieTransferID)
	assert.NotNil(t, remitted.RemittedAt)

	transfers := ledger.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, int64(5000), transfers[0].Amount)
	assert.Equal(t, 1, emitter.count(model.EventCorridorSettled))
}

// Drift beyond tolerance cancels the corridor without any ledger call.
func TestRemitDriftExceeded(t *testing.T) {
	ctx := context.Background()
	svc, ledger, rates, emitter, st := newCorridorFixture()
	rates.SetRate("usd", "inr", decimal.NewFromFloat(83.2))

	c := createTestCorridor(t, svc, 4900, 10*time.Minute, 2.0)

	rates.SetRate("usd", "inr", decimal.NewFromFloat(83.2*1.05))
	_, err := svc.Remit(ctx, c.ID)
	e := errno.Decode(err)
	assert.Equal(t, 422, e.HTTPStatus)
	assert.Equal(t, "rate_drift_exceeded", e.Code)

	assert.Empty(t, ledger.Transfers())

	stored, err := st.GetCorridor(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CorridorDriftCancelled, stored.Status)
	assert.Equal(t, model.RateLockDrifted, stored.RateLock.Status)
	assert.Empty(t, stored.NessieTransferID)
	assert.Equal(t, 1, emitter.count(model.EventCorridorDriftCancelled))
}

func TestRemitExpiredLock(t *testing.T) {
	ctx := context.Background()
	svc, ledger, rates, emitter, st := newCorridorFixture()
	rates.SetRate("usd", "inr", decimal.NewFromFloat(83.2))

	c := createTestCorridor(t, svc, 4900, -time.Minute, 2.0)

	_, err := svc.Remit(ctx, c.ID)
	e := errno.Decode(err)
	assert.Equal(t, 410, e.HTTPStatus)
	assert.Equal(t, "rate_lock_expired", e.Code)
	assert.Empty(t, ledger.Transfers())

	stored, err := st.GetCorridor(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CorridorExpired, stored.Status)
	assert.Equal(t, model.RateLockExpired, stored.RateLock.Status)
	assert.Equal(t, 1, emitter.count(model.EventCorridorRateExpired))

	// Remitting again keeps reporting expiry.
	_, err = svc.Remit(ctx, c.ID)
	assert.Equal(t, "rate_lock_expired", errno.Decode(err).Code)
}

func TestRemitTerminalCorridor(t *testing.T) {
	ctx := context.Background()
	svc, _, rates, _, _ := newCorridorFixture()
	rates.SetRate("usd", "inr", decimal.NewFromFloat(83.2))

	c := createTestCorridor(t, svc, 4900, 10*time.Minute, 2.0)
	_, err := svc.Remit(ctx, c.ID)
	require.NoError(t, err)

	_, err = svc.Remit(ctx, c.ID)
	assert.Equal(t, "invalid_status", errno.Decode(err).Code)
}

func TestRateCheckHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	svc, ledger, rates, _, st := newCorridorFixture()
	rates.SetRate("usd", "inr", decimal.NewFromFloat(83.2))

	c := createTestCorridor(t, svc, 4900, 10*time.Minute, 2.0)
	rates.SetRate("usd", "inr", decimal.NewFromFloat(83.2*1.10))

	_, report, err := svc.RateCheck(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, report.Drifted)

	stored, err := st.GetCorridor(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CorridorRateLocked, stored.Status)
	assert.Empty(t, ledger.Transfers())
}
