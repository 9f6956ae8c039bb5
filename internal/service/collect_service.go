package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"flowpay/internal/model"
	"flowpay/internal/nessie"
	"flowpay/internal/store"
	"flowpay/pkg/errno"
	"flowpay/pkg/logger"
	"flowpay/pkg/monitor"
)

// CollectService owns the Collect lifecycle: pending → approved, declined
// or expired. Approving is the only transition that moves money.
type CollectService struct {
	store  store.Store
	ledger nessie.Client
	events EventEmitter
}

func NewCollectService(st store.Store, ledger nessie.Client, events EventEmitter) *CollectService {
	return &CollectService{store: st, ledger: ledger, events: emitterOrNop(events)}
}

type CreateCollectInput struct {
	PayeeAccountID string
	PayerAccountID string
	Amount         int64
	Currency       string
	Description    string
	ExpiresIn      time.Duration
	Metadata       map[string]string
}

func (s *CollectService) Create(ctx context.Context, in CreateCollectInput) (*model.Collect, error) {
	ts := now()
	c := &model.Collect{
		ID:             model.NewID(model.PrefixCollect),
		Object:         "collect",
		Status:         model.CollectPending,
		Amount:         in.Amount,
		Currency:       in.Currency,
		Description:    in.Description,
		PayeeAccountID: in.PayeeAccountID,
		PayerAccountID: in.PayerAccountID,
		ExpiresAt:      ts.Add(in.ExpiresIn),
		CreatedAt:      ts,
		Metadata:       in.Metadata,
		Version:        1,
	}
	if err := s.store.CreateCollect(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CollectService) Get(ctx context.Context, id string) (*model.Collect, error) {
	c, err := s.store.GetCollect(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errno.ErrNotFound.WithMessage("No collect with id %s", id).WithParam("id")
	}
	return c, err
}

func (s *CollectService) List(ctx context.Context, f store.CollectFilter) ([]*model.Collect, error) {
	return s.store.ListCollects(ctx, f)
}

// Approve executes the pull payment: exactly one ledger transfer per
// committed approval. The commit is what makes the transfer count; losing
// the version race reverses the transfer and re-validates from scratch.
func (s *CollectService) Approve(ctx context.Context, id string) (*model.Collect, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		c, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.checkPending(ctx, c); err != nil {
			return nil, err
		}

		balance, err := s.ledger.Balance(ctx, c.PayerAccountID)
		if err != nil {
			return nil, errno.ErrBalanceUnavailable.WithMessage("%s", err.Error())
		}
		if balance < c.Amount {
			return nil, errno.ErrInsufficientFunds.
				WithExtra("nessie_balance", balance).
				WithExtra("requested_amount", c.Amount)
		}

		transferID, err := s.ledger.Transfer(ctx, c.PayerAccountID, c.PayeeAccountID, c.Amount, c.Description)
		if err != nil {
			monitor.Business.TransfersTotal.WithLabelValues("collect", "failed").Inc()
			return nil, errno.ErrTransferFailed.WithMessage("%s", err.Error())
		}

		ts := now()
		c.Status = model.CollectApproved
		c.NessieTransferID = transferID
		c.ApprovedAt = &ts

		if err := s.store.UpdateCollect(ctx, c); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				s.undoTransfer(ctx, transferID, c.ID)
				continue
			}
			return nil, err
		}

		monitor.Business.TransfersTotal.WithLabelValues("collect", "succeeded").Inc()
		monitor.Business.TransferVolumeCents.WithLabelValues("collect", c.Currency).Add(float64(c.Amount))
		monitor.Business.TransitionsTotal.WithLabelValues("collect", c.Status).Inc()
		emit(ctx, s.events, model.EventCollectApproved, c.ID, c)
		return c, nil
	}
	return nil, errno.ErrConcurrentUpdate
}

// Decline closes a pending collect without moving money.
func (s *CollectService) Decline(ctx context.Context, id, reason string) (*model.Collect, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		c, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.checkPending(ctx, c); err != nil {
			return nil, err
		}

		ts := now()
		c.Status = model.CollectDeclined
		c.DeclineReason = reason
		c.DeclinedAt = &ts

		if err := s.store.UpdateCollect(ctx, c); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return nil, err
		}

		monitor.Business.TransitionsTotal.WithLabelValues("collect", c.Status).Inc()
		emit(ctx, s.events, model.EventCollectDeclined, c.ID, c)
		return c, nil
	}
	return nil, errno.ErrConcurrentUpdate
}

// Expire forces pending → expired. Called by the sweeper and lazily by
// Approve/Decline when they observe a passed deadline. Idempotent: an
// already terminal collect is left untouched.
func (s *CollectService) Expire(ctx context.Context, id string) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		c, err := s.store.GetCollect(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if c.Terminal() {
			return nil
		}

		c.Status = model.CollectExpired
		if err := s.store.UpdateCollect(ctx, c); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return err
		}

		monitor.Business.TransitionsTotal.WithLabelValues("collect", c.Status).Inc()
		emit(ctx, s.events, model.EventCollectExpired, c.ID, c)
		return nil
	}
	return errno.ErrConcurrentUpdate
}

// checkPending guards approve/decline. Expiry takes precedence over the
// generic status error: a collect past its window fails collect_expired
// even before the sweeper has flipped it.
func (s *CollectService) checkPending(ctx context.Context, c *model.Collect) error {
	if c.Status == model.CollectExpired {
		return errno.ErrCollectExpired.WithExtra("expired_at", c.ExpiresAt)
	}
	if c.Status != model.CollectPending {
		return errno.ErrInvalidStatus.
			WithMessage("Collect is %s, expected pending", c.Status).
			WithExtra("status", c.Status)
	}
	if c.ExpiredBy(now()) {
		if err := s.Expire(ctx, c.ID); err != nil {
			logger.Warn("lazy collect expiry failed", zap.String("collect_id", c.ID), zap.Error(err))
		}
		return errno.ErrCollectExpired.WithExtra("expired_at", c.ExpiresAt)
	}
	return nil
}

func (s *CollectService) undoTransfer(ctx context.Context, transferID, collectID string) {
	if _, err := s.ledger.Reverse(ctx, transferID); err != nil {
		logger.Error("failed to reverse transfer after version conflict",
			zap.String("collect_id", collectID),
			zap.String("transfer_id", transferID),
			zap.Error(err))
	}
}
