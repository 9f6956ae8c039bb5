package store

import (
	"context"
	"sync"

	"flowpay/internal/model"
)

// MemoryStore is the default Store: plain maps guarded by a single RWMutex.
// Version checks happen under the write lock, so CAS is linearizable per
// entity. All reads hand out deep copies.
type MemoryStore struct {
	mu sync.RWMutex

	collects      map[string]*model.Collect
	pools         map[string]*model.Pool
	corridors     map[string]*model.Corridor
	fxPools       map[string]*model.FXPool
	recurring     map[string]*model.RecurringCollect
	subscriptions []*model.WebhookSubscription
	events        []*model.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collects:  make(map[string]*model.Collect),
		pools:     make(map[string]*model.Pool),
		corridors: make(map[string]*model.Corridor),
		fxPools:   make(map[string]*model.FXPool),
		recurring: make(map[string]*model.RecurringCollect),
	}
}

// Collect

func (s *MemoryStore) CreateCollect(ctx context.Context, c *model.Collect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Version = 1
	s.collects[c.ID] = cloneCollect(c)
	return nil
}

func (s *MemoryStore) GetCollect(ctx context.Context, id string) (*model.Collect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCollect(c), nil
}

func (s *MemoryStore) ListCollects(ctx context.Context, f CollectFilter) ([]*model.Collect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*model.Collect
	for _, c := range s.collects {
		match := false
		if f.PayerID != "" && c.PayerAccountID == f.PayerID {
			match = true
		} else if f.PayeeID != "" && c.PayeeAccountID == f.PayeeID {
			match = true
		} else if f.PayerID == "" && f.PayeeID == "" {
			match = true
		}
		if match && f.Status != "" && c.Status != f.Status {
			match = false
		}
		if match {
			results = append(results, cloneCollect(c))
		}
	}
	sortByCreatedAt(results, func(c *model.Collect) int64 { return c.CreatedAt.UnixNano() })
	return paginate(results, f.Offset, f.Limit), nil
}

func (s *MemoryStore) UpdateCollect(ctx context.Context, c *model.Collect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.collects[c.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != c.Version {
		return ErrVersionConflict
	}
	c.Version++
	s.collects[c.ID] = cloneCollect(c)
	return nil
}

// Pool

func (s *MemoryStore) CreatePool(ctx context.Context, p *model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Version = 1
	s.pools[p.ID] = clonePool(p)
	return nil
}

func (s *MemoryStore) GetPool(ctx context.Context, id string) (*model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePool(p), nil
}

func (s *MemoryStore) ListPools(ctx context.Context, status string) ([]*model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []*model.Pool
	for _, p := range s.pools {
		if status == "" || p.Status == status {
			results = append(results, clonePool(p))
		}
	}
	sortByCreatedAt(results, func(p *model.Pool) int64 { return p.CreatedAt.UnixNano() })
	return results, nil
}

func (s *MemoryStore) UpdatePool(ctx context.Context, p *model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.pools[p.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != p.Version {
		return ErrVersionConflict
	}
	p.Version++
	s.pools[p.ID] = clonePool(p)
	return nil
}

// Corridor

func (s *MemoryStore) CreateCorridor(ctx context.Context, c *model.Corridor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Version = 1
	s.corridors[c.ID] = cloneCorridor(c)
	return nil
}

func (s *MemoryStore) GetCorridor(ctx context.Context, id string) (*model.Corridor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.corridors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCorridor(c), nil
}

func (s *MemoryStore) ListCorridors(ctx context.Context, status string) ([]*model.Corridor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []*model.Corridor
	for _, c := range s.corridors {
		if status == "" || c.Status == status {
			results = append(results, cloneCorridor(c))
		}
	}
	sortByCreatedAt(results, func(c *model.Corridor) int64 { return c.CreatedAt.UnixNano() })
	return results, nil
}

func (s *MemoryStore) UpdateCorridor(ctx context.Context, c *model.Corridor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.corridors[c.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != c.Version {
		return ErrVersionConflict
	}
	c.Version++
	s.corridors[c.ID] = cloneCorridor(c)
	return nil
}

// FXPool

func (s *MemoryStore) CreateFXPool(ctx context.Context, p *model.FXPool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Version = 1
	s.fxPools[p.ID] = cloneFXPool(p)
	return nil
}

func (s *MemoryStore) GetFXPool(ctx context.Context, id string) (*model.FXPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.fxPools[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneFXPool(p), nil
}

func (s *MemoryStore) ListFXPools(ctx context.Context, status string) ([]*model.FXPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []*model.FXPool
	for _, p := range s.fxPools {
		if status == "" || p.Status == status {
			results = append(results, cloneFXPool(p))
		}
	}
	sortByCreatedAt(results, func(p *model.FXPool) int64 { return p.CreatedAt.UnixNano() })
	return results, nil
}

func (s *MemoryStore) UpdateFXPool(ctx context.Context, p *model.FXPool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.fxPools[p.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != p.Version {
		return ErrVersionConflict
	}
	p.Version++
	s.fxPools[p.ID] = cloneFXPool(p)
	return nil
}

// RecurringCollect

func (s *MemoryStore) CreateRecurring(ctx context.Context, r *model.RecurringCollect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Version = 1
	s.recurring[r.ID] = cloneRecurring(r)
	return nil
}

func (s *MemoryStore) GetRecurring(ctx context.Context, id string) (*model.RecurringCollect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recurring[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecurring(r), nil
}

func (s *MemoryStore) ListRecurring(ctx context.Context, f RecurringFilter) ([]*model.RecurringCollect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []*model.RecurringCollect
	for _, r := range s.recurring {
		if f.PayerID != "" && r.PayerAccountID != f.PayerID {
			continue
		}
		if f.PayeeID != "" && r.PayeeAccountID != f.PayeeID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		results = append(results, cloneRecurring(r))
	}
	sortByCreatedAt(results, func(r *model.RecurringCollect) int64 { return r.CreatedAt.UnixNano() })
	return results, nil
}

func (s *MemoryStore) UpdateRecurring(ctx context.Context, r *model.RecurringCollect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.recurring[r.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != r.Version {
		return ErrVersionConflict
	}
	r.Version++
	s.recurring[r.ID] = cloneRecurring(r)
	return nil
}

// Webhooks & events

func (s *MemoryStore) CreateSubscription(ctx context.Context, sub *model.WebhookSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = append(s.subscriptions, cloneSubscription(sub))
	return nil
}

func (s *MemoryStore) ListSubscriptions(ctx context.Context) ([]*model.WebhookSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*model.WebhookSubscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		results = append(results, cloneSubscription(sub))
	}
	return results, nil
}

func (s *MemoryStore) AppendEvent(ctx context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, cloneEvent(e))
	return nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, limit int) ([]*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	// Newest first.
	results := make([]*model.Event, 0, len(s.events)-start)
	for i := len(s.events) - 1; i >= start; i-- {
		results = append(results, cloneEvent(s.events[i]))
	}
	return results, nil
}
