package service

import (
	"context"

	"flowpay/internal/model"
	"flowpay/internal/store"
)

// WebhookService manages delivery subscriptions and exposes the committed
// event log.
type WebhookService struct {
	store store.Store
}

func NewWebhookService(st store.Store) *WebhookService {
	return &WebhookService{store: st}
}

func (s *WebhookService) Subscribe(ctx context.Context, url string, events []string) (*model.WebhookSubscription, error) {
	if len(events) == 0 {
		events = []string{"*"}
	}
	sub := &model.WebhookSubscription{
		ID:        model.NewID(model.PrefixWebhook),
		URL:       url,
		Events:    events,
		CreatedAt: now(),
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *WebhookService) ListSubscriptions(ctx context.Context) ([]*model.WebhookSubscription, error) {
	return s.store.ListSubscriptions(ctx)
}

func (s *WebhookService) ListEvents(ctx context.Context, limit int) ([]*model.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListEvents(ctx, limit)
}
