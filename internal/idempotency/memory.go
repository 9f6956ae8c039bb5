package idempotency

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the single-instance idempotency store: a TTL cache with a
// mutex making Admit's check-and-reserve atomic.
type MemoryCache struct {
	mu sync.Mutex
	c  *gocache.Cache
}

func NewMemoryCache(retention time.Duration) *MemoryCache {
	return &MemoryCache{
		c: gocache.New(retention, retention/4),
	}
}

func (m *MemoryCache) Admit(ctx context.Context, key, fingerprint string) (Outcome, *StoredResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if val, found := m.c.Get(key); found {
		rec := val.(*Record)
		if rec.Fingerprint != fingerprint {
			return Conflict, nil, ErrFingerprintMismatch
		}
		if rec.State == stateCompleted {
			return Replay, rec.Response, nil
		}
		return Conflict, nil, nil
	}

	m.c.SetDefault(key, &Record{
		Fingerprint: fingerprint,
		State:       stateInFlight,
		CreatedAt:   time.Now().UTC(),
	})
	return Proceed, nil, nil
}

func (m *MemoryCache) Complete(ctx context.Context, key string, resp StoredResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	val, found := m.c.Get(key)
	if !found {
		return nil // evicted mid-flight; nothing to replay later
	}
	rec := val.(*Record)
	rec.State = stateCompleted
	rec.Response = &resp
	return nil
}

func (m *MemoryCache) Forget(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.Delete(key)
	return nil
}
