package lock

import (
	"context"
	"sync"
	"time"
)

// DistributedLock guards work that must not run on two nodes at once,
// such as a sweeper pass.
type DistributedLock interface {
	// Acquire tries to take the lock for ttl. Returns false if held elsewhere.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees the lock.
	Release(ctx context.Context, key string) error
}

// LocalLock is the single-instance implementation: a process-wide mutex map.
type LocalLock struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]time.Time)}
}

func (l *LocalLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if exp, ok := l.held[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	l.held[key] = time.Now().Add(ttl)
	return true, nil
}

func (l *LocalLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
