package service

import (
	"context"
	"sync"

	"flowpay/internal/model"
	"flowpay/internal/nessie"
	"flowpay/internal/store"
	"flowpay/pkg/monitor"
)

func init() {
	monitor.Init()
}

// recordingEmitter captures emitted event types for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEmitter) Emit(ctx context.Context, eventType, entityID string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	return nil
}

func (r *recordingEmitter) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == eventType {
			n++
		}
	}
	return n
}

func newCollectFixture() (*CollectService, *nessie.StubClient, *recordingEmitter, store.Store) {
	st := store.NewMemoryStore()
	ledger := nessie.NewStubClient()
	emitter := &recordingEmitter{}
	return NewCollectService(st, ledger, emitter), ledger, emitter, st
}

func newPoolFixture() (*PoolService, *nessie.StubClient, *recordingEmitter, store.Store) {
	st := store.NewMemoryStore()
	ledger := nessie.NewStubClient()
	emitter := &recordingEmitter{}
	return NewPoolService(st, ledger, emitter), ledger, emitter, st
}

// conflictStore wraps a Store and fails a configured number of updates
// with ErrVersionConflict, simulating a concurrent writer winning the race.
type conflictStore struct {
	store.Store
	mu              sync.Mutex
	poolConflicts   int
	fxPoolConflicts int
}

func (c *conflictStore) armPoolConflicts(n int)   { c.mu.Lock(); c.poolConflicts = n; c.mu.Unlock() }
func (c *conflictStore) armFXPoolConflicts(n int) { c.mu.Lock(); c.fxPoolConflicts = n; c.mu.Unlock() }

func (c *conflictStore) UpdatePool(ctx context.Context, p *model.Pool) error {
	c.mu.Lock()
	if c.poolConflicts > 0 {
		c.poolConflicts--
		c.mu.Unlock()
		return store.ErrVersionConflict
	}
	c.mu.Unlock()
	return c.Store.UpdatePool(ctx, p)
}

func (c *conflictStore) UpdateFXPool(ctx context.Context, p *model.FXPool) error {
	c.mu.Lock()
	if c.fxPoolConflicts > 0 {
		c.fxPoolConflicts--
		c.mu.Unlock()
		return store.ErrVersionConflict
	}
	c.mu.Unlock()
	return c.Store.UpdateFXPool(ctx, p)
}
