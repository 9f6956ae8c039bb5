// Package store owns every domain record. All mutation goes through
// compare-and-swap on (id, version): Update commits only when the caller's
// version matches the stored one, which is what serializes racing writers
// (request handlers and the sweeper alike).
package store

import (
	"context"
	"errors"

	"flowpay/internal/model"
)

var (
	ErrNotFound = errors.New("entity not found")
	// ErrVersionConflict means another writer committed first; the caller
	// must re-read and re-validate its preconditions.
	ErrVersionConflict = errors.New("entity version conflict")
)

// CollectFilter narrows ListCollects. Payer/payee match with OR semantics
// when both are set; Status filters after that; then Offset/Limit paginate.
type CollectFilter struct {
	PayerID string
	PayeeID string
	Status  string
	Limit   int
	Offset  int
}

// RecurringFilter narrows ListRecurring.
type RecurringFilter struct {
	PayerID string
	PayeeID string
	Status  string
}

// Store is the single owner of all entity records.
//
// Every Update* method commits only if the entity's Version is unchanged in
// the store, bumps it by one, and reflects the new version back into the
// passed entity. ErrVersionConflict otherwise. Get*/List* return copies that
// are safe to mutate.
type Store interface {
	CreateCollect(ctx context.Context, c *model.Collect) error
	GetCollect(ctx context.Context, id string) (*model.Collect, error)
	ListCollects(ctx context.Context, f CollectFilter) ([]*model.Collect, error)
	UpdateCollect(ctx context.Context, c *model.Collect) error

	CreatePool(ctx context.Context, p *model.Pool) error
	GetPool(ctx context.Context, id string) (*model.Pool, error)
	ListPools(ctx context.Context, status string) ([]*model.Pool, error)
	UpdatePool(ctx context.Context, p *model.Pool) error

	CreateCorridor(ctx context.Context, c *model.Corridor) error
	GetCorridor(ctx context.Context, id string) (*model.Corridor, error)
	ListCorridors(ctx context.Context, status string) ([]*model.Corridor, error)
	UpdateCorridor(ctx context.Context, c *model.Corridor) error

	CreateFXPool(ctx context.Context, p *model.FXPool) error
	GetFXPool(ctx context.Context, id string) (*model.FXPool, error)
	ListFXPools(ctx context.Context, status string) ([]*model.FXPool, error)
	UpdateFXPool(ctx context.Context, p *model.FXPool) error

	CreateRecurring(ctx context.Context, r *model.RecurringCollect) error
	GetRecurring(ctx context.Context, id string) (*model.RecurringCollect, error)
	ListRecurring(ctx context.Context, f RecurringFilter) ([]*model.RecurringCollect, error)
	UpdateRecurring(ctx context.Context, r *model.RecurringCollect) error

	CreateSubscription(ctx context.Context, s *model.WebhookSubscription) error
	ListSubscriptions(ctx context.Context) ([]*model.WebhookSubscription, error)

	AppendEvent(ctx context.Context, e *model.Event) error
	ListEvents(ctx context.Context, limit int) ([]*model.Event, error)
}
