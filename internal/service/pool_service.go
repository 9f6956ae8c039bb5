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

// PoolService owns group collections. Contributions transfer payer →
// organizer immediately; reaching the goal settles the collected amount
// organizer → payee in the same committed transition. Cancel and expiry
// reverse the individual contribution transfers.
type PoolService struct {
	store  store.Store
	ledger nessie.Client
	events EventEmitter
}

func NewPoolService(st store.Store, ledger nessie.Client, events EventEmitter) *PoolService {
	return &PoolService{store: st, ledger: ledger, events: emitterOrNop(events)}
}

type CreatePoolInput struct {
	OrganizerAccountID string
	PayeeAccountID     string
	GoalAmount         int64
	Currency           string
	Description        string
	Deadline           time.Duration
	OnDeadlineMiss     string
}

// RefundFailure reports one contribution whose reverse transfer failed.
// Failures never block the remaining refunds.
type RefundFailure struct {
	ContributionID string `json:"contribution_id"`
	TransferID     string `json:"transfer_id"`
	Reason         string `json:"reason"`
}

func (s *PoolService) Create(ctx context.Context, in CreatePoolInput) (*model.Pool, error) {
	if in.OnDeadlineMiss == "" {
		in.OnDeadlineMiss = model.DeadlineRefundAll
	}
	ts := now()
	p := &model.Pool{
		ID:                 model.NewID(model.PrefixPool),
		Object:             "pool",
		Status:             model.PoolCollecting,
		GoalAmount:         in.GoalAmount,
		Currency:           in.Currency,
		Description:        in.Description,
		OrganizerAccountID: in.OrganizerAccountID,
		PayeeAccountID:     in.PayeeAccountID,
		OnDeadlineMiss:     in.OnDeadlineMiss,
		Deadline:           ts.Add(in.Deadline),
		CreatedAt:          ts,
		Version:            1,
	}
	if err := s.store.CreatePool(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PoolService) Get(ctx context.Context, id string) (*model.Pool, error) {
	p, err := s.store.GetPool(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errno.ErrNotFound.WithMessage("No pool with id %s", id).WithParam("id")
	}
	if err != nil {
		return nil, err
	}
	p.Recount()
	return p, nil
}

func (s *PoolService) List(ctx context.Context, status string) ([]*model.Pool, error) {
	pools, err := s.store.ListPools(ctx, status)
	if err != nil {
		return nil, err
	}
	for _, p := range pools {
		p.Recount()
	}
	return pools, nil
}

// Contribute adds one payer's share. The contribution becomes real only at
// commit: a ledger success followed by a lost version race is reversed and
// the whole operation re-validates, so collected_amount can never drift
// from the surviving contributions.
func (s *PoolService) Contribute(ctx context.Context, id, payerAccountID string, amount int64) (*model.Pool, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.checkCollecting(ctx, p); err != nil {
			return nil, err
		}

		balance, err := s.ledger.Balance(ctx, payerAccountID)
		if err != nil {
			return nil, errno.ErrBalanceUnavailable.WithMessage("%s", err.Error())
		}
		if balance < amount {
			return nil, errno.ErrInsufficientFunds.
				WithExtra("nessie_balance", balance).
				WithExtra("requested_amount", amount)
		}

		transferID, err := s.ledger.Transfer(ctx, payerAccountID, p.OrganizerAccountID, amount, "Pool contribution: "+p.Description)
		if err != nil {
			monitor.Business.TransfersTotal.WithLabelValues("pool", "failed").Inc()
			return nil, errno.ErrTransferFailed.WithMessage("%s", err.Error())
		}

		ts := now()
		contribution := model.Contribution{
			ID:               model.NewID(model.PrefixContribution),
			PayerAccountID:   payerAccountID,
			Amount:           amount,
			NessieTransferID: transferID,
			CreatedAt:        ts,
		}
		p.Contributions = append(p.Contributions, contribution)
		p.NessieTransferIDs = append(p.NessieTransferIDs, transferID)
		p.CollectedAmount += amount

		// Goal settlement happens inside the same committed transition, so
		// the version check is what guarantees exactly one funded flip and
		// one settlement transfer under racing contributions.
		settlementID := ""
		funded := p.CollectedAmount >= p.GoalAmount
		if funded {
			settlementID, err = s.ledger.Transfer(ctx, p.OrganizerAccountID, p.PayeeAccountID, p.CollectedAmount, "Pool settlement: "+p.Description)
			if err != nil {
				s.undoTransfer(ctx, p.ID, transferID)
				monitor.Business.TransfersTotal.WithLabelValues("pool", "failed").Inc()
				return nil, errno.ErrTransferFailed.WithMessage("%s", err.Error())
			}
			p.Status = model.PoolFunded
			p.FundedAt = &ts
			p.NessieSettlementID = settlementID
		}

		if err := s.store.UpdatePool(ctx, p); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				s.undoTransfer(ctx, p.ID, transferID)
				if settlementID != "" {
					s.undoTransfer(ctx, p.ID, settlementID)
				}
				continue
			}
			return nil, err
		}

		p.Recount()
		monitor.Business.TransfersTotal.WithLabelValues("pool", "succeeded").Inc()
		monitor.Business.TransferVolumeCents.WithLabelValues("pool", p.Currency).Add(float64(amount))
		emit(ctx, s.events, model.EventPoolContributionReceived, p.ID, contribution)
		if funded {
			monitor.Business.TransitionsTotal.WithLabelValues("pool", p.Status).Inc()
			emit(ctx, s.events, model.EventPoolGoalReached, p.ID, p)
		}
		return p, nil
	}
	return nil, errno.ErrConcurrentUpdate
}

// Cancel refunds every contribution and closes the pool. Refund failures
// are reported per contribution; cancel itself fails only when not a
// single refund could be executed.
func (s *PoolService) Cancel(ctx context.Context, id string) (*model.Pool, []RefundFailure, error) {
	// Refund ids survive version-conflict retries so a contribution is never
	// reversed twice.
	refunds := make(map[string]string)

	for attempt := 0; attempt < casRetries; attempt++ {
		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if p.Status != model.PoolCollecting {
			return nil, nil, errno.ErrInvalidStatus.
				WithMessage("Pool is %s, expected collecting", p.Status).
				WithExtra("status", p.Status)
		}

		failures := s.refundContributions(ctx, p, refunds)
		if len(refunds) == 0 && len(failures) > 0 {
			return nil, failures, errno.ErrTransferFailed.WithMessage("No contribution refund could be executed")
		}

		p.Status = model.PoolCancelled
		if err := s.store.UpdatePool(ctx, p); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return nil, failures, err
		}

		p.Recount()
		monitor.Business.TransitionsTotal.WithLabelValues("pool", p.Status).Inc()
		emit(ctx, s.events, model.EventPoolCancelled, p.ID, p)
		return p, failures, nil
	}
	return nil, nil, errno.ErrConcurrentUpdate
}

// Expire applies the deadline-miss policy: refund_all reverses every
// contribution, settle_partial forwards whatever was collected to the
// payee. No-op when the pool is already terminal.
func (s *PoolService) Expire(ctx context.Context, id string) error {
	refunds := make(map[string]string)

	for attempt := 0; attempt < casRetries; attempt++ {
		p, err := s.store.GetPool(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if p.Terminal() {
			return nil
		}

		settlementID := ""
		if p.OnDeadlineMiss == model.DeadlineSettlePartial && p.CollectedAmount > 0 {
			settlementID, err = s.ledger.Transfer(ctx, p.OrganizerAccountID, p.PayeeAccountID, p.CollectedAmount, "Pool partial settlement: "+p.Description)
			if err != nil {
				return errno.ErrTransferFailed.WithMessage("%s", err.Error())
			}
			p.NessieSettlementID = settlementID
		} else {
			failures := s.refundContributions(ctx, p, refunds)
			for _, f := range failures {
				logger.Warn("pool expiry refund failed",
					zap.String("pool_id", p.ID),
					zap.String("contribution_id", f.ContributionID),
					zap.String("reason", f.Reason))
			}
		}

		p.Status = model.PoolExpired
		if err := s.store.UpdatePool(ctx, p); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				// The settlement amount may be stale after a lost race, so
				// reverse it and settle fresh against the re-read pool.
				if settlementID != "" {
					s.undoTransfer(ctx, p.ID, settlementID)
				}
				continue
			}
			return err
		}

		monitor.Business.TransitionsTotal.WithLabelValues("pool", p.Status).Inc()
		emit(ctx, s.events, model.EventPoolExpiredRefunded, p.ID, p)
		return nil
	}
	return errno.ErrConcurrentUpdate
}

// refundContributions reverses every refundable contribution, reusing
// refund ids from earlier attempts, and writes the outcome back into the
// pool's contributions and refund_ids.
func (s *PoolService) refundContributions(ctx context.Context, p *model.Pool, refunds map[string]string) []RefundFailure {
	var failures []RefundFailure

	for i := range p.Contributions {
		c := &p.Contributions[i]
		if c.NessieTransferID == "" || c.RefundID != "" {
			continue
		}
		refundID, done := refunds[c.ID]
		if !done {
			var err error
			refundID, err = s.ledger.Reverse(ctx, c.NessieTransferID)
			if err != nil {
				monitor.Business.RefundsTotal.WithLabelValues("pool", "failed").Inc()
				failures = append(failures, RefundFailure{
					ContributionID: c.ID,
					TransferID:     c.NessieTransferID,
					Reason:         err.Error(),
				})
				continue
			}
			refunds[c.ID] = refundID
			monitor.Business.RefundsTotal.WithLabelValues("pool", "succeeded").Inc()
		}
		c.RefundID = refundID
		p.RefundIDs = append(p.RefundIDs, refundID)
		p.CollectedAmount -= c.Amount
	}
	return failures
}

func (s *PoolService) checkCollecting(ctx context.Context, p *model.Pool) error {
	if p.Status == model.PoolExpired {
		return errno.ErrPoolExpired.WithExtra("deadline", p.Deadline)
	}
	if p.Status != model.PoolCollecting {
		return errno.ErrInvalidStatus.
			WithMessage("Pool is %s, expected collecting", p.Status).
			WithExtra("status", p.Status)
	}
	if p.ExpiredBy(now()) {
		if err := s.Expire(ctx, p.ID); err != nil {
			logger.Warn("lazy pool expiry failed", zap.String("pool_id", p.ID), zap.Error(err))
		}
		return errno.ErrPoolExpired.WithExtra("deadline", p.Deadline)
	}
	return nil
}

func (s *PoolService) undoTransfer(ctx context.Context, poolID, transferID string) {
	if _, err := s.ledger.Reverse(ctx, transferID); err != nil {
		logger.Error("failed to reverse transfer after version conflict",
			zap.String("pool_id", poolID),
			zap.String("transfer_id", transferID),
			zap.Error(err))
	}
}
