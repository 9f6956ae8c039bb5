package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpay/internal/model"
	"flowpay/internal/nessie"
	"flowpay/internal/store"
	"flowpay/pkg/errno"
)

func newRecurringFixture() (*RecurringService, *nessie.StubClient, *recordingEmitter, store.Store) {
	st := store.NewMemoryStore()
	ledger := nessie.NewStubClient()
	emitter := &recordingEmitter{}
	return NewRecurringService(st, ledger, emitter), ledger, emitter, st
}

func createTestRecurring(t *testing.T, svc *RecurringService, maxOccurrences *int) *model.RecurringCollect {
	t.Helper()
	r, err := svc.Create(context.Background(), CreateRecurringInput{
		PayeeAccountID: "acct_payee",
		PayerAccountID: "acct_payer",
		Amount:         1500,
		Currency:       "USD",
		Description:    "Monthly membership",
		Interval:       model.IntervalMonthly,
		MaxOccurrences: maxOccurrences,
	})
	require.NoError(t, err)
	return r
}

func TestCreateRecurringSchedulesFirstOccurrence(t *testing.T) {
	svc, _, _, _ := newRecurringFixture()
	r := createTestRecurring(t, svc, nil)

	assert.Equal(t, model.RecurringActive, r.Status)
	assert.True(t, r.PreApproved)
	require.NotNil(t, r.NextCollectAt)
	assert.True(t, r.NextCollectAt.After(r.CreatedAt))
}

func TestTriggerExecutesOccurrence(t *testing.T) {
	ctx := context.Background()
	svc, ledger, emitter, _ := newRecurringFixture()
	r := createTestRecurring(t, svc, nil)

	fired, err := svc.Trigger(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fired.OccurrencesCount)
	assert.Equal(t, model.RecurringActive, fired.Status)

	transfers := ledger.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, int64(1500), transfers[0].Amount)
	assert.Equal(t, 1, emitter.count(model.EventRecurringExecuted))
}

func TestTriggerCompletesAtMaxOccurrences(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newRecurringFixture()
	max := 2
	r := createTestRecurring(t, svc, &max)

	_, err := svc.Trigger(ctx, r.ID)
	require.NoError(t, err)
	done, err := svc.Trigger(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecurringCompleted, done.Status)
	assert.Nil(t, done.NextCollectAt)

	_, err = svc.Trigger(ctx, r.ID)
	assert.Equal(t, "invalid_status", errno.Decode(err).Code)
}

func TestPauseResumeCancel(t *testing.T) {
	ctx := context.Background()
	svc, _, emitter, _ := newRecurringFixture()
	r := createTestRecurring(t, svc, nil)

	paused, err := svc.Pause(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecurringPaused, paused.Status)

	_, err = svc.Trigger(ctx, r.ID)
	assert.Equal(t, "invalid_status", errno.Decode(err).Code)

	resumed, err := svc.Resume(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecurringActive, resumed.Status)

	cancelled, err := svc.Cancel(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecurringCancelled, cancelled.Status)
	assert.Nil(t, cancelled.NextCollectAt)
	assert.Equal(t, 1, emitter.count(model.EventRecurringCancelled))

	_, err = svc.Resume(ctx, r.ID)
	assert.Equal(t, "invalid_status", errno.Decode(err).Code)
}

func TestRunDueFiresOnlyDueCollects(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, st := newRecurringFixture()

	due := createTestRecurring(t, svc, nil)
	notDue := createTestRecurring(t, svc, nil)

	// Move the first schedule into the past.
	r, err := st.GetRecurring(ctx, due.ID)
	require.NoError(t, err)
	past := r.CreatedAt.Add(-time.Minute)
	r.NextCollectAt = &past
	require.NoError(t, st.UpdateRecurring(ctx, r))

	fired, err := svc.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, ledger.Transfers(), 1)

	after, err := st.GetRecurring(ctx, notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.OccurrencesCount)
}
