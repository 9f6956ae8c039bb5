package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpay/internal/fx"
	"flowpay/internal/idempotency"
	"flowpay/internal/model"
	"flowpay/internal/nessie"
	"flowpay/internal/service"
	"flowpay/internal/store"
)

func newTestRouter() (http.Handler, *nessie.StubClient) {
	st := store.NewMemoryStore()
	ledger := nessie.NewStubClient()
	rates := fx.NewStaticRateSource()
	locks := fx.NewLockManager(rates)

	return NewHTTPRouter(Services{
		Collects:  service.NewCollectService(st, ledger, nil),
		Pools:     service.NewPoolService(st, ledger, nil),
		Corridors: service.NewCorridorService(st, ledger, locks, nil),
		FXPools:   service.NewFXPoolService(st, ledger, rates, nil),
		Recurring: service.NewRecurringService(st, ledger, nil),
		Webhooks:  service.NewWebhookService(st),
		Analytics: service.NewAnalyticsService(st),
	}, idempotency.NewMemoryCache(time.Minute)), ledger
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func TestCollectLifecycleOverHTTP(t *testing.T) {
	r, ledger := newTestRouter()

	w, created := doJSON(t, r, http.MethodPost, "/v1/collects", map[string]any{
		"payee_account_id": "acct_payee",
		"payer_account_id": "acct_payer",
		"amount":           2500,
		"currency":         "USD",
		"description":      "march rent",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, model.CollectPending, created["status"])

	w, approved := doJSON(t, r, http.MethodPost, "/v1/collects/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.CollectApproved, approved["status"])
	assert.Len(t, ledger.Transfers(), 1)

	w, fetched := doJSON(t, r, http.MethodGet, "/v1/collects/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.CollectApproved, fetched["status"])
}

func TestApproveMissingCollectReturnsErrorEnvelope(t *testing.T) {
	r, _ := newTestRouter()

	w, body := doJSON(t, r, http.MethodPost, "/v1/collects/col_missing/approve", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	detail, ok := body["detail"].(map[string]any)
	require.True(t, ok, "error body must nest under detail")
	errObj, ok := detail["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "not_found", errObj["code"])
}

func TestCreateCollectValidation(t *testing.T) {
	r, _ := newTestRouter()

	w, _ := doJSON(t, r, http.MethodPost, "/v1/collects", map[string]any{
		"payee_account_id": "acct_payee",
		"amount":           -5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorridorLifecycleOverHTTP(t *testing.T) {
	r, _ := newTestRouter()

	w, created := doJSON(t, r, http.MethodPost, "/v1/corridors", map[string]any{
		"source_currency":     "usd",
		"target_currency":     "inr",
		"source_account_id":   "acct_src",
		"target_account_id":   "acct_dst",
		"amount_target_cents": 416000,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, model.CorridorRateLocked, created["status"])

	w, _ = doJSON(t, r, http.MethodGet, "/v1/corridors/"+id+"/rate-check", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, remitted := doJSON(t, r, http.MethodPost, "/v1/corridors/"+id+"/remit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.CorridorRemitted, remitted["status"])
}

func TestCorridorDefaultLockWindow(t *testing.T) {
	r, _ := newTestRouter()

	w, created := doJSON(t, r, http.MethodPost, "/v1/corridors", map[string]any{
		"source_currency":     "usd",
		"target_currency":     "inr",
		"source_account_id":   "acct_src",
		"target_account_id":   "acct_dst",
		"amount_target_cents": 416000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	lock, ok := created["rate_lock"].(map[string]any)
	require.True(t, ok)
	lockedAt, err := time.Parse(time.RFC3339Nano, lock["locked_at"].(string))
	require.NoError(t, err)
	expiresAt, err := time.Parse(time.RFC3339Nano, lock["expires_at"].(string))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, expiresAt.Sub(lockedAt))
}

func TestFXPoolForceDriftOverHTTP(t *testing.T) {
	r, _ := newTestRouter()

	w, created := doJSON(t, r, http.MethodPost, "/v1/fxpools", map[string]any{
		"organizer_account_id": "acct_org",
		"payee_account_id":     "acct_payee",
		"goal_amount_usd":      100000,
		"description":          "honeymoon fund",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	w, _ = doJSON(t, r, http.MethodPost, "/v1/fxpools/"+id+"/contribute", map[string]any{
		"payer_account_id": "acct_eu",
		"currency":         "eur",
		"amount_local":     10000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodPost, "/v1/fxpools/"+id+"/force-drift", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, ok := body["drift_check"]
	assert.True(t, ok)
}

func TestHealthAndAnalytics(t *testing.T) {
	r, _ := newTestRouter()

	w, health := doJSON(t, r, http.MethodGet, "/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UP", health["status"])

	w, _ = doJSON(t, r, http.MethodGet, "/v1/analytics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
