package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpay/internal/model"
	"flowpay/pkg/errno"
)

func createTestCollect(t *testing.T, svc *CollectService, amount int64, expiresIn time.Duration) *model.Collect {
	t.Helper()
	c, err := svc.Create(context.Background(), CreateCollectInput{
		PayeeAccountID: "acct_payee",
		PayerAccountID: "acct_payer",
		Amount:         amount,
		Currency:       "USD",
		Description:    "Dinner split",
		ExpiresIn:      expiresIn,
	})
	require.NoError(t, err)
	return c
}

func TestApproveCollect(t *testing.T) {
	ctx := context.Background()
	svc, ledger, emitter, _ := newCollectFixture()
	c := createTestCollect(t, svc, 4900, 24*time.Hour)

	assert.Equal(t, model.CollectPending, c.Status)
	assert.Equal(t, int64(1), c.Version)

	approved, err := svc.Approve(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CollectApproved, approved.Status)
	assert.NotEmpty(t, approved.NessieTransferID)
	assert.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, int64(2), approved.Version)

	transfers := ledger.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "acct_payer", transfers[0].From)
	assert.Equal(t, "acct_payee", transfers[0].To)
	assert.Equal(t, int64(4900), transfers[0].Amount)
	assert.Equal(t, 1, emitter.count(model.EventCollectApproved))
}

func TestDeclineCollect(t *testing.T) {
	ctx := context.Background()
	svc, ledger, emitter, _ := newCollectFixture()
	c := createTestCollect(t, svc, 2500, 24*time.Hour)

	declined, err := svc.Decline(ctx, c.ID, "wrong_amount")
	require.NoError(t, err)
	assert.Equal(t, model.CollectDeclined, declined.Status)
	assert.Equal(t, "wrong_amount", declined.DeclineReason)
	assert.NotNil(t, declined.DeclinedAt)

	assert.Empty(t, ledger.Transfers())
	assert.Equal(t, 1, emitter.count(model.EventCollectDeclined))
}

func TestApproveNotFound(t *testing.T) {
	svc, _, _, _ := newCollectFixture()

	_, err := svc.Approve(context.Background(), "clct_missing")
	e := errno.Decode(err)
	assert.Equal(t, 404, e.HTTPStatus)
	assert.Equal(t, "not_found", e.Code)
}

func TestApproveTerminalCollect(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newCollectFixture()
	c := createTestCollect(t, svc, 1000, 24*time.Hour)

	_, err := svc.Decline(ctx, c.ID, "nope")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, c.ID)
	e := errno.Decode(err)
	assert.Equal(t, 400, e.HTTPStatus)
	assert.Equal(t, "invalid_status", e.Code)
}

// An approve past expires_at must fail collect_expired even before any
// sweep has run, and must not call the ledger.
func TestApproveExpiredCollect(t *testing.T) {
	ctx := context.Background()
	svc, ledger, emitter, st := newCollectFixture()
	c := createTestCollect(t, svc, 1000, -time.Hour)

	_, err := svc.Approve(ctx, c.ID)
	e := errno.Decode(err)
	assert.Equal(t, 410, e.HTTPStatus)
	assert.Equal(t, "collect_expired", e.Code)
	assert.Empty(t, ledger.Transfers())

	// The lazy expiry commits the terminal state.
	stored, err := st.GetCollect(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CollectExpired, stored.Status)
	assert.Equal(t, 1, emitter.count(model.EventCollectExpired))

	// A second approve still reports expiry, not invalid_status.
	_, err = svc.Approve(ctx, c.ID)
	assert.Equal(t, "collect_expired", errno.Decode(err).Code)
}

func TestApproveInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, st := newCollectFixture()
	ledger.SetBalance("acct_payer", 100)
	c := createTestCollect(t, svc, 4900, 24*time.Hour)

	_, err := svc.Approve(ctx, c.ID)
	e := errno.Decode(err)
	assert.Equal(t, 402, e.HTTPStatus)
	assert.Equal(t, "insufficient_funds", e.Code)
	assert.Equal(t, int64(100), e.Extra["nessie_balance"])

	// No partial commit: still pending at version 1.
	stored, err := st.GetCollect(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CollectPending, stored.Status)
	assert.Equal(t, int64(1), stored.Version)
}

func TestApproveTransferFailure(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, st := newCollectFixture()
	ledger.FailTransfers = true
	c := createTestCollect(t, svc, 1000, 24*time.Hour)

	_, err := svc.Approve(ctx, c.ID)
	e := errno.Decode(err)
	assert.Equal(t, 500, e.HTTPStatus)
	assert.Equal(t, "nessie_transfer_failed", e.Code)

	stored, err := st.GetCollect(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CollectPending, stored.Status)
	assert.Empty(t, stored.NessieTransferID)
}

func TestExpireIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, emitter, _ := newCollectFixture()
	c := createTestCollect(t, svc, 1000, -time.Hour)

	require.NoError(t, svc.Expire(ctx, c.ID))
	require.NoError(t, svc.Expire(ctx, c.ID))
	assert.Equal(t, 1, emitter.count(model.EventCollectExpired))
}
