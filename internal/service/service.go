// Package service holds the state machine engine: one service per entity
// type, each owning the full transition set for that type. Every mutation
// follows the same shape: read, validate preconditions, perform the ledger
// side effect, then commit with compare-and-swap. A version conflict means
// another writer (a racing request or the sweeper) committed first; the
// ledger effect is reversed and the operation re-reads and re-validates.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"flowpay/pkg/logger"
)

// casRetries bounds how often an operation re-runs after losing a version
// race before giving up with concurrent_modification.
const casRetries = 5

// EventEmitter receives committed domain events. Delivery is asynchronous
// and its outcome never affects entity state.
type EventEmitter interface {
	Emit(ctx context.Context, eventType, entityID string, data any) error
}

// nopEmitter is used when no dispatcher is wired (some tests, the CLI).
type nopEmitter struct{}

func (nopEmitter) Emit(ctx context.Context, eventType, entityID string, data any) error {
	return nil
}

func emitterOrNop(e EventEmitter) EventEmitter {
	if e == nil {
		return nopEmitter{}
	}
	return e
}

// emit publishes after commit. Emission failures are logged, never returned:
// the transition is already durable.
func emit(ctx context.Context, e EventEmitter, eventType, entityID string, data any) {
	if err := e.Emit(ctx, eventType, entityID, data); err != nil {
		logger.Warn("event emission failed",
			zap.String("event", eventType),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func now() time.Time {
	return time.Now().UTC()
}
