package store

import (
	"sort"

	"flowpay/internal/model"
)

// Deep-copy helpers for the memory store. Struct assignment covers scalar
// fields (decimal.Decimal is immutable); slices and maps get fresh backing.

func cloneCollect(c *model.Collect) *model.Collect {
	cp := *c
	if c.Metadata != nil {
		cp.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func clonePool(p *model.Pool) *model.Pool {
	cp := *p
	cp.Contributions = append([]model.Contribution(nil), p.Contributions...)
	cp.NessieTransferIDs = append([]string(nil), p.NessieTransferIDs...)
	cp.RefundIDs = append([]string(nil), p.RefundIDs...)
	return &cp
}

func cloneCorridor(c *model.Corridor) *model.Corridor {
	cp := *c
	return &cp
}

func cloneFXPool(p *model.FXPool) *model.FXPool {
	cp := *p
	cp.Contributions = append([]model.FXContribution(nil), p.Contributions...)
	cp.CurrenciesCollected = append([]string(nil), p.CurrenciesCollected...)
	cp.RefundIDs = append([]string(nil), p.RefundIDs...)
	return &cp
}

func cloneRecurring(r *model.RecurringCollect) *model.RecurringCollect {
	cp := *r
	if r.MaxOccurrences != nil {
		v := *r.MaxOccurrences
		cp.MaxOccurrences = &v
	}
	if r.NextCollectAt != nil {
		t := *r.NextCollectAt
		cp.NextCollectAt = &t
	}
	return &cp
}

func cloneSubscription(s *model.WebhookSubscription) *model.WebhookSubscription {
	cp := *s
	cp.Events = append([]string(nil), s.Events...)
	return &cp
}

func cloneEvent(e *model.Event) *model.Event {
	cp := *e
	cp.Payload = append([]byte(nil), e.Payload...)
	return &cp
}

// sortByCreatedAt orders newest-first, matching list endpoints.
func sortByCreatedAt[T any](items []*T, key func(*T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		return key(items[i]) > key(items[j])
	})
}

func paginate[T any](items []*T, offset, limit int) []*T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
