package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("POST", "/v1/collects", []byte(`{"amount":100}`))
	b := Fingerprint("POST", "/v1/collects", []byte(`{"amount":100}`))
	c := Fingerprint("POST", "/v1/collects", []byte(`{"amount":200}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMemoryCacheAdmitComplete(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Minute)
	fp := Fingerprint("POST", "/v1/collects", []byte(`{"amount":100}`))

	outcome, _, err := cache.Admit(ctx, "key-1", fp)
	require.NoError(t, err)
	assert.Equal(t, Proceed, outcome)

	// Same key while the first request is still in flight.
	outcome, _, err = cache.Admit(ctx, "key-1", fp)
	require.NoError(t, err)
	assert.Equal(t, Conflict, outcome)

	require.NoError(t, cache.Complete(ctx, "key-1", StoredResponse{
		Status: 201,
		Body:   []byte(`{"id":"clct_abc"}`),
	}))

	outcome, stored, err := cache.Admit(ctx, "key-1", fp)
	require.NoError(t, err)
	assert.Equal(t, Replay, outcome)
	require.NotNil(t, stored)
	assert.Equal(t, 201, stored.Status)
	assert.JSONEq(t, `{"id":"clct_abc"}`, string(stored.Body))
}

func TestMemoryCacheFingerprintMismatch(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Minute)

	_, _, err := cache.Admit(ctx, "key-1", Fingerprint("POST", "/v1/collects", []byte(`{"amount":100}`)))
	require.NoError(t, err)

	_, _, err = cache.Admit(ctx, "key-1", Fingerprint("POST", "/v1/collects", []byte(`{"amount":999}`)))
	assert.ErrorIs(t, err, ErrFingerprintMismatch)
}

func TestMemoryCacheForget(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Minute)
	fp := Fingerprint("POST", "/v1/pools", []byte(`{}`))

	_, _, err := cache.Admit(ctx, "key-1", fp)
	require.NoError(t, err)
	require.NoError(t, cache.Forget(ctx, "key-1"))

	outcome, _, err := cache.Admit(ctx, "key-1", fp)
	require.NoError(t, err)
	assert.Equal(t, Proceed, outcome)
}
