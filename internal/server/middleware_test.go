package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpay/internal/idempotency"
	"flowpay/pkg/monitor"
)

func init() {
	gin.SetMode(gin.TestMode)
	monitor.Init()
}

func newIdempotentRouter(handled *int64, status int) *gin.Engine {
	r := gin.New()
	r.Use(Idempotency(idempotency.NewMemoryCache(time.Minute)))
	r.POST("/charges", func(c *gin.Context) {
		n := atomic.AddInt64(handled, 1)
		c.JSON(status, gin.H{"handled": n})
	})
	return r
}

func doPost(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/charges", bytes.NewBufferString(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	var handled int64
	r := newIdempotentRouter(&handled, http.StatusCreated)

	first := doPost(r, "key-1", `{"amount":100}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("X-Idempotency-Replayed"))

	second := doPost(r, "key-1", `{"amount":100}`)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	assert.EqualValues(t, 1, handled, "handler must run exactly once per key")
}

func TestIdempotencyKeyReusedWithDifferentBody(t *testing.T) {
	var handled int64
	r := newIdempotentRouter(&handled, http.StatusCreated)

	require.Equal(t, http.StatusCreated, doPost(r, "key-2", `{"amount":100}`).Code)

	w := doPost(r, "key-2", `{"amount":999}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "idempotency_key_reused")
	assert.EqualValues(t, 1, handled)
}

func TestIdempotencyFailedRequestMayRetry(t *testing.T) {
	var handled int64
	r := newIdempotentRouter(&handled, http.StatusInternalServerError)

	require.Equal(t, http.StatusInternalServerError, doPost(r, "key-3", `{}`).Code)
	require.Equal(t, http.StatusInternalServerError, doPost(r, "key-3", `{}`).Code)
	assert.EqualValues(t, 2, handled, "a non-2xx response must not be stored")
}

func TestIdempotencyMissingKeyPassesThrough(t *testing.T) {
	var handled int64
	r := newIdempotentRouter(&handled, http.StatusCreated)

	doPost(r, "", `{}`)
	doPost(r, "", `{}`)
	assert.EqualValues(t, 2, handled)
}

func TestVersionHeaderStampsResponses(t *testing.T) {
	r := gin.New()
	r.Use(VersionHeader("2026-02-28"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "2026-02-28", w.Header().Get("X-FlowPay-Version"))
}
