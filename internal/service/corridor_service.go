package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"flowpay/internal/fx"
	"flowpay/internal/model"
	"flowpay/internal/nessie"
	"flowpay/internal/store"
	"flowpay/pkg/errno"
	"flowpay/pkg/logger"
	"flowpay/pkg/monitor"
)

// CorridorService owns cross-border transfers executed at a locked rate.
// The drift check at remit time runs strictly before any ledger call: a
// corridor that drifts past tolerance is cancelled without moving money.
type CorridorService struct {
	store  store.Store
	ledger nessie.Client
	locks  *fx.LockManager
	events EventEmitter
}

func NewCorridorService(st store.Store, ledger nessie.Client, locks *fx.LockManager, events EventEmitter) *CorridorService {
	return &CorridorService{store: st, ledger: ledger, locks: locks, events: emitterOrNop(events)}
}

type CreateCorridorInput struct {
	SourceCurrency  string
	TargetCurrency  string
	SourceAccountID string
	TargetAccountID string
	AmountTarget    int64
	Description     string
	LockDuration    time.Duration
	MaxDriftPct     decimal.Decimal
}

// Create locks the current spot rate and fixes amount_source for the life
// of the corridor.
func (s *CorridorService) Create(ctx context.Context, in CreateCorridorInput) (*model.Corridor, error) {
	lock, amountSource, err := s.locks.Lock(ctx, in.SourceCurrency, in.TargetCurrency, in.AmountTarget, in.LockDuration, in.MaxDriftPct)
	if err != nil {
		return nil, errno.ErrRateUnavailable.WithMessage("%s", err.Error())
	}

	c := &model.Corridor{
		ID:              model.NewID(model.PrefixCorridor),
		Object:          "corridor",
		Status:          model.CorridorRateLocked,
		Description:     in.Description,
		SourceCurrency:  in.SourceCurrency,
		TargetCurrency:  in.TargetCurrency,
		SourceAccountID: in.SourceAccountID,
		TargetAccountID: in.TargetAccountID,
		AmountTarget:    in.AmountTarget,
		AmountSource:    amountSource,
		RateLock:        lock,
		CreatedAt:       now(),
		Version:         1,
	}
	if err := s.store.CreateCorridor(ctx, c); err != nil {
		return nil, err
	}

	emit(ctx, s.events, model.EventCorridorRateLocked, c.ID, c)
	return c, nil
}

func (s *CorridorService) Get(ctx context.Context, id string) (*model.Corridor, error) {
	c, err := s.store.GetCorridor(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errno.ErrNotFound.WithMessage("No corridor with id %s", id).WithParam("id")
	}
	return c, err
}

func (s *CorridorService) List(ctx context.Context, status string) ([]*model.Corridor, error) {
	return s.store.ListCorridors(ctx, status)
}

// RateCheck returns a live drift report without touching the corridor.
func (s *CorridorService) RateCheck(ctx context.Context, id string) (*model.Corridor, fx.DriftReport, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, fx.DriftReport{}, err
	}
	report, err := s.locks.CheckDrift(ctx, c.RateLock, c.SourceCurrency, c.TargetCurrency)
	if err != nil {
		return nil, fx.DriftReport{}, errno.ErrRateUnavailable.WithMessage("%s", err.Error())
	}
	return c, report, nil
}

// Remit executes the transfer at the locked amount_source. Precedence:
// lock expiry, then drift, then the ledger call.
func (s *CorridorService) Remit(ctx context.Context, id string) (*model.Corridor, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		c, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if c.Status == model.CorridorExpired {
			return nil, errno.ErrRateLockExpired.WithExtra("expired_at", c.RateLock.ExpiresAt)
		}
		if c.Status != model.CorridorRateLocked {
			return nil, errno.ErrInvalidStatus.
				WithMessage("Corridor is %s, expected rate_locked", c.Status).
				WithExtra("status", c.Status)
		}
		if c.LockExpiredBy(now()) {
			if err := s.Expire(ctx, c.ID); err != nil {
				logger.Warn("lazy corridor expiry failed", zap.String("corridor_id", c.ID), zap.Error(err))
			}
			return nil, errno.ErrRateLockExpired.WithExtra("expired_at", c.RateLock.ExpiresAt)
		}

		report, err := s.locks.CheckDrift(ctx, c.RateLock, c.SourceCurrency, c.TargetCurrency)
		if err != nil {
			return nil, errno.ErrRateUnavailable.WithMessage("%s", err.Error())
		}
		if report.Drifted {
			if err := s.cancelForDrift(ctx, c); err != nil {
				return nil, err
			}
			return nil, errno.ErrRateDriftExceeded.
				WithExtra("locked_rate", report.LockedRate).
				WithExtra("current_rate", report.CurrentRate).
				WithExtra("drift_pct", report.DriftPct).
				WithExtra("max_drift_pct", report.MaxDriftPct)
		}

		transferID, err := s.ledger.Transfer(ctx, c.SourceAccountID, c.TargetAccountID, c.AmountSource, "Corridor remittance: "+c.Description)
		if err != nil {
			monitor.Business.TransfersTotal.WithLabelValues("corridor", "failed").Inc()
			return nil, errno.ErrTransferFailed.WithMessage("%s", err.Error())
		}

		ts := now()
		c.Status = model.CorridorRemitted
		c.RateLock.Status = model.RateLockUsed
		c.NessieTransferID = transferID
		c.RemittedAt = &ts

		if err := s.store.UpdateCorridor(ctx, c); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				if _, rerr := s.ledger.Reverse(ctx, transferID); rerr != nil {
					logger.Error("failed to reverse transfer after version conflict",
						zap.String("corridor_id", c.ID),
						zap.String("transfer_id", transferID),
						zap.Error(rerr))
				}
				continue
			}
			return nil, err
		}

		monitor.Business.TransfersTotal.WithLabelValues("corridor", "succeeded").Inc()
		monitor.Business.TransferVolumeCents.WithLabelValues("corridor", c.SourceCurrency).Add(float64(c.AmountSource))
		monitor.Business.TransitionsTotal.WithLabelValues("corridor", c.Status).Inc()
		emit(ctx, s.events, model.EventCorridorSettled, c.ID, c)
		return c, nil
	}
	return nil, errno.ErrConcurrentUpdate
}

// Expire flips rate_locked → expired once the lock window passes. No-op on
// terminal corridors.
func (s *CorridorService) Expire(ctx context.Context, id string) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		c, err := s.store.GetCorridor(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if c.Terminal() {
			return nil
		}

		c.Status = model.CorridorExpired
		c.RateLock.Status = model.RateLockExpired
		if err := s.store.UpdateCorridor(ctx, c); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return err
		}

		monitor.Business.TransitionsTotal.WithLabelValues("corridor", c.Status).Inc()
		emit(ctx, s.events, model.EventCorridorRateExpired, c.ID, c)
		return nil
	}
	return errno.ErrConcurrentUpdate
}

func (s *CorridorService) cancelForDrift(ctx context.Context, c *model.Corridor) error {
	c.Status = model.CorridorDriftCancelled
	c.RateLock.Status = model.RateLockDrifted
	if err := s.store.UpdateCorridor(ctx, c); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			// Another writer already moved the corridor; the drift error the
			// caller is about to return still stands.
			return nil
		}
		return err
	}

	monitor.Business.RateDriftCancellations.Inc()
	monitor.Business.TransitionsTotal.WithLabelValues("corridor", c.Status).Inc()
	emit(ctx, s.events, model.EventCorridorDriftCancelled, c.ID, c)
	return nil
}
