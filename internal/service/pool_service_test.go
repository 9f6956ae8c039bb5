package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpay/internal/model"
	"flowpay/internal/nessie"
	"flowpay/internal/store"
	"flowpay/pkg/errno"
)

func createTestPool(t *testing.T, svc *PoolService, goal int64, deadline time.Duration, policy string) *model.Pool {
	t.Helper()
	p, err := svc.Create(context.Background(), CreatePoolInput{
		OrganizerAccountID: "acct_organizer",
		PayeeAccountID:     "acct_payee",
		GoalAmount:         goal,
		Currency:           "USD",
		Description:        "Group gift",
		Deadline:           deadline,
		OnDeadlineMiss:     policy,
	})
	require.NoError(t, err)
	return p
}

func settlementTransfers(transfers []nessie.StubTransfer) []nessie.StubTransfer {
	var out []nessie.StubTransfer
	for _, tr := range transfers {
		if tr.From == "acct_organizer" && tr.To == "acct_payee" {
			out = append(out, tr)
		}
	}
	return out
}

func TestContributeAccumulates(t *testing.T) {
	ctx := context.Background()
	svc, ledger, emitter, _ := newPoolFixture()
	p := createTestPool(t, svc, 20000, 24*time.Hour, "")

	p1, err := svc.Contribute(ctx, p.ID, "acct_a", 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), p1.CollectedAmount)
	assert.Equal(t, model.PoolCollecting, p1.Status)
	assert.Equal(t, 1, p1.ParticipantCount)

	p2, err := svc.Contribute(ctx, p.ID, "acct_a", 3000)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), p2.CollectedAmount)
	assert.Equal(t, 1, p2.ParticipantCount)
	assert.Equal(t, 2, p2.ContributionsCount)

	// Contributions land on the organizer account until settlement.
	for _, tr := range ledger.Transfers() {
		assert.Equal(t, "acct_organizer", tr.To)
	}
	assert.Equal(t, 2, emitter.count(model.EventPoolContributionReceived))
	assert.Equal(t, 0, emitter.count(model.EventPoolGoalReached))
}

// Racing contributions summing to exactly the goal must produce exactly
// one funded transition and one settlement transfer.
func TestConcurrentContributionsFundOnce(t *testing.T) {
	ctx := context.Background()
	svc, ledger, emitter, st := newPoolFixture()
	p := createTestPool(t, svc, 20000, 24*time.Hour, "")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Contribute(ctx, p.ID, fmt.Sprintf("acct_payer_%d", n), 5000)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := st.GetPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PoolFunded, final.Status)
	assert.Equal(t, int64(20000), final.CollectedAmount)
	assert.Len(t, final.Contributions, 4)
	assert.NotEmpty(t, final.NessieSettlementID)
	assert.NotNil(t, final.FundedAt)

	assert.Equal(t, 1, emitter.count(model.EventPoolGoalReached))
	require.Len(t, settlementTransfers(ledger.Transfers()), 1)

	// collected_amount always equals the surviving contribution sum.
	reversed := map[string]bool{}
	for _, id := range ledger.Reversals() {
		reversed[id] = true
	}
	var sum int64
	for _, c := range final.Contributions {
		require.NotEmpty(t, c.NessieTransferID)
		require.False(t, reversed[c.NessieTransferID])
		sum += c.Amount
	}
	assert.Equal(t, final.CollectedAmount, sum)
}

func TestContributeToFundedPool(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newPoolFixture()
	p := createTestPool(t, svc, 1000, 24*time.Hour, "")

	_, err := svc.Contribute(ctx, p.ID, "acct_a", 1000)
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, p.ID, "acct_b", 500)
	e := errno.Decode(err)
	assert.Equal(t, 400, e.HTTPStatus)
	assert.Equal(t, "invalid_status", e.Code)
}

func TestContributePastDeadline(t *testing.T) {
	ctx := context.Background()
	svc, _, _, st := newPoolFixture()
	p := createTestPool(t, svc, 20000, -time.Hour, "")

	_, err := svc.Contribute(ctx, p.ID, "acct_a", 5000)
	e := errno.Decode(err)
	assert.Equal(t, 422, e.HTTPStatus)
	assert.Equal(t, "pool_expired", e.Code)

	stored, err := st.GetPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PoolExpired, stored.Status)
}

func TestContributeTransferFailureNotCounted(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, st := newPoolFixture()
	p := createTestPool(t, svc, 20000, 24*time.Hour, "")

	ledger.FailTransfers = true
	_, err := svc.Contribute(ctx, p.ID, "acct_a", 5000)
	assert.Equal(t, "nessie_transfer_failed", errno.Decode(err).Code)

	stored, err := st.GetPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.CollectedAmount)
	assert.Empty(t, stored.Contributions)
}

func TestCancelRefundsEveryContribution(t *testing.T) {
	ctx := context.Background()
	svc, ledger, emitter, _ := newPoolFixture()
	p := createTestPool(t, svc, 20000, 24*time.Hour, "")

	_, err := svc.Contribute(ctx, p.ID, "acct_a", 5000)
	require.NoError(t, err)
	_, err = svc.Contribute(ctx, p.ID, "acct_b", 3000)
	require.NoError(t, err)

	cancelled, failures, err := svc.Cancel(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, model.PoolCancelled, cancelled.Status)
	assert.Equal(t, int64(0), cancelled.CollectedAmount)
	assert.Len(t, cancelled.RefundIDs, 2)
	for _, c := range cancelled.Contributions {
		assert.True(t, strings.HasPrefix(c.RefundID, "rev_"))
	}

	assert.Len(t, ledger.Reversals(), 2)
	assert.Equal(t, 1, emitter.count(model.EventPoolCancelled))
}

func TestCancelWithAllRefundsFailing(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, st := newPoolFixture()
	p := createTestPool(t, svc, 20000, 24*time.Hour, "")

	_, err := svc.Contribute(ctx, p.ID, "acct_a", 5000)
	require.NoError(t, err)

	ledger.FailReversals = true
	_, failures, err := svc.Cancel(ctx, p.ID)
	require.Error(t, err)
	assert.Len(t, failures, 1)
	assert.Equal(t, "nessie_transfer_failed", errno.Decode(err).Code)

	stored, err := st.GetPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PoolCollecting, stored.Status)
}

func TestExpireRefundAllPolicy(t *testing.T) {
	ctx := context.Background()
	svc, ledger, emitter, st := newPoolFixture()
	p := createTestPool(t, svc, 20000, time.Minute, model.DeadlineRefundAll)

	_, err := svc.Contribute(ctx, p.ID, "acct_a", 5000)
	require.NoError(t, err)

	require.NoError(t, svc.Expire(ctx, p.ID))
	stored, err := st.GetPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PoolExpired, stored.Status)
	assert.Equal(t, int64(0), stored.CollectedAmount)
	assert.Len(t, ledger.Reversals(), 1)
	assert.Equal(t, 1, emitter.count(model.EventPoolExpiredRefunded))

	// Idempotent re-run.
	require.NoError(t, svc.Expire(ctx, p.ID))
	assert.Equal(t, 1, emitter.count(model.EventPoolExpiredRefunded))
}

func TestExpireSettlePartialPolicy(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, st := newPoolFixture()
	p := createTestPool(t, svc, 20000, time.Minute, model.DeadlineSettlePartial)

	_, err := svc.Contribute(ctx, p.ID, "acct_a", 7000)
	require.NoError(t, err)

	require.NoError(t, svc.Expire(ctx, p.ID))
	stored, err := st.GetPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PoolExpired, stored.Status)
	assert.Equal(t, int64(7000), stored.CollectedAmount)
	assert.NotEmpty(t, stored.NessieSettlementID)

	settlements := settlementTransfers(ledger.Transfers())
	require.Len(t, settlements, 1)
	assert.Equal(t, int64(7000), settlements[0].Amount)
	assert.Empty(t, ledger.Reversals())
}

// Losing a version race mid-expiry must not leave two live settlements:
// the stale transfer gets reversed before the retry settles again.
func TestExpireSettlePartialLostRaceSettlesOnce(t *testing.T) {
	ctx := context.Background()
	st := &conflictStore{Store: store.NewMemoryStore()}
	ledger := nessie.NewStubClient()
	svc := NewPoolService(st, ledger, &recordingEmitter{})
	p := createTestPool(t, svc, 20000, time.Minute, model.DeadlineSettlePartial)

	_, err := svc.Contribute(ctx, p.ID, "acct_a", 7000)
	require.NoError(t, err)

	st.armPoolConflicts(1)
	require.NoError(t, svc.Expire(ctx, p.ID))

	stored, err := st.GetPool(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PoolExpired, stored.Status)

	settlements := settlementTransfers(ledger.Transfers())
	require.Len(t, settlements, 2)
	require.Len(t, ledger.Reversals(), 1)
	assert.Equal(t, settlements[0].ID, ledger.Reversals()[0])
	assert.Equal(t, settlements[1].ID, stored.NessieSettlementID)
}
