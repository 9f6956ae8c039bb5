package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"flowpay/internal/model"
)

// GormStore is the durable Store. Optimistic concurrency uses a guarded
// UPDATE: `WHERE id = ? AND version = ?` with zero rows affected meaning
// another writer won the race.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) create(ctx context.Context, entity interface{}) error {
	return s.db.WithContext(ctx).Create(entity).Error
}

func (s *GormStore) get(ctx context.Context, dest interface{}, id string) error {
	err := s.db.WithContext(ctx).First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// casUpdate writes every column of entity guarded by the version the caller
// read. On success the entity's version is already bumped by the caller.
func (s *GormStore) casUpdate(ctx context.Context, entity interface{}, id string, readVersion int64) error {
	res := s.db.WithContext(ctx).
		Model(entity).
		Where("id = ? AND version = ?", id, readVersion).
		Select("*").
		Updates(entity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		s.db.WithContext(ctx).Model(entity).Where("id = ?", id).Count(&count)
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// Collect

func (s *GormStore) CreateCollect(ctx context.Context, c *model.Collect) error {
	c.Version = 1
	return s.create(ctx, c)
}

func (s *GormStore) GetCollect(ctx context.Context, id string) (*model.Collect, error) {
	var c model.Collect
	if err := s.get(ctx, &c, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) ListCollects(ctx context.Context, f CollectFilter) ([]*model.Collect, error) {
	q := s.db.WithContext(ctx).Model(&model.Collect{})
	switch {
	case f.PayerID != "" && f.PayeeID != "":
		q = q.Where("payer_account_id = ? OR payee_account_id = ?", f.PayerID, f.PayeeID)
	case f.PayerID != "":
		q = q.Where("payer_account_id = ?", f.PayerID)
	case f.PayeeID != "":
		q = q.Where("payee_account_id = ?", f.PayeeID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var results []*model.Collect
	err := q.Order("created_at DESC").Find(&results).Error
	return results, err
}

func (s *GormStore) UpdateCollect(ctx context.Context, c *model.Collect) error {
	readVersion := c.Version
	c.Version++
	if err := s.casUpdate(ctx, c, c.ID, readVersion); err != nil {
		c.Version = readVersion
		return err
	}
	return nil
}

// Pool

func (s *GormStore) CreatePool(ctx context.Context, p *model.Pool) error {
	p.Version = 1
	return s.create(ctx, p)
}

func (s *GormStore) GetPool(ctx context.Context, id string) (*model.Pool, error) {
	var p model.Pool
	if err := s.get(ctx, &p, id); err != nil {
		return nil, err
	}
	p.Recount()
	return &p, nil
}

func (s *GormStore) ListPools(ctx context.Context, status string) ([]*model.Pool, error) {
	q := s.db.WithContext(ctx).Model(&model.Pool{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var results []*model.Pool
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	for _, p := range results {
		p.Recount()
	}
	return results, nil
}

func (s *GormStore) UpdatePool(ctx context.Context, p *model.Pool) error {
	readVersion := p.Version
	p.Version++
	if err := s.casUpdate(ctx, p, p.ID, readVersion); err != nil {
		p.Version = readVersion
		return err
	}
	return nil
}

// Corridor

func (s *GormStore) CreateCorridor(ctx context.Context, c *model.Corridor) error {
	c.Version = 1
	return s.create(ctx, c)
}

func (s *GormStore) GetCorridor(ctx context.Context, id string) (*model.Corridor, error) {
	var c model.Corridor
	if err := s.get(ctx, &c, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) ListCorridors(ctx context.Context, status string) ([]*model.Corridor, error) {
	q := s.db.WithContext(ctx).Model(&model.Corridor{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var results []*model.Corridor
	err := q.Order("created_at DESC").Find(&results).Error
	return results, err
}

func (s *GormStore) UpdateCorridor(ctx context.Context, c *model.Corridor) error {
	readVersion := c.Version
	c.Version++
	if err := s.casUpdate(ctx, c, c.ID, readVersion); err != nil {
		c.Version = readVersion
		return err
	}
	return nil
}

// FXPool

func (s *GormStore) CreateFXPool(ctx context.Context, p *model.FXPool) error {
	p.Version = 1
	return s.create(ctx, p)
}

func (s *GormStore) GetFXPool(ctx context.Context, id string) (*model.FXPool, error) {
	var p model.FXPool
	if err := s.get(ctx, &p, id); err != nil {
		return nil, err
	}
	p.ContributionsCount = len(p.Contributions)
	return &p, nil
}

func (s *GormStore) ListFXPools(ctx context.Context, status string) ([]*model.FXPool, error) {
	q := s.db.WithContext(ctx).Model(&model.FXPool{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var results []*model.FXPool
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	for _, p := range results {
		p.ContributionsCount = len(p.Contributions)
	}
	return results, nil
}

func (s *GormStore) UpdateFXPool(ctx context.Context, p *model.FXPool) error {
	readVersion := p.Version
	p.Version++
	if err := s.casUpdate(ctx, p, p.ID, readVersion); err != nil {
		p.Version = readVersion
		return err
	}
	return nil
}

// RecurringCollect

func (s *GormStore) CreateRecurring(ctx context.Context, r *model.RecurringCollect) error {
	r.Version = 1
	return s.create(ctx, r)
}

func (s *GormStore) GetRecurring(ctx context.Context, id string) (*model.RecurringCollect, error) {
	var r model.RecurringCollect
	if err := s.get(ctx, &r, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) ListRecurring(ctx context.Context, f RecurringFilter) ([]*model.RecurringCollect, error) {
	q := s.db.WithContext(ctx).Model(&model.RecurringCollect{})
	if f.PayerID != "" {
		q = q.Where("payer_account_id = ?", f.PayerID)
	}
	if f.PayeeID != "" {
		q = q.Where("payee_account_id = ?", f.PayeeID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var results []*model.RecurringCollect
	err := q.Order("created_at DESC").Find(&results).Error
	return results, err
}

func (s *GormStore) UpdateRecurring(ctx context.Context, r *model.RecurringCollect) error {
	readVersion := r.Version
	r.Version++
	if err := s.casUpdate(ctx, r, r.ID, readVersion); err != nil {
		r.Version = readVersion
		return err
	}
	return nil
}

// Webhooks & events

func (s *GormStore) CreateSubscription(ctx context.Context, sub *model.WebhookSubscription) error {
	return s.create(ctx, sub)
}

func (s *GormStore) ListSubscriptions(ctx context.Context) ([]*model.WebhookSubscription, error) {
	var results []*model.WebhookSubscription
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&results).Error
	return results, err
}

func (s *GormStore) AppendEvent(ctx context.Context, e *model.Event) error {
	return s.create(ctx, e)
}

func (s *GormStore) ListEvents(ctx context.Context, limit int) ([]*model.Event, error) {
	q := s.db.WithContext(ctx).Model(&model.Event{}).Order("emitted_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*model.Event
	err := q.Find(&results).Error
	return results, err
}
