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

var pctHundred = decimal.NewFromInt(100)

// FXPoolService owns multi-currency group collections normalized to a USD
// goal. Each contribution carries the spot rate observed when it arrived;
// the drift check compares those rates against live ones and refunds the
// whole pool in original currencies when any contribution drifts past
// tolerance.
type FXPoolService struct {
	store  store.Store
	ledger nessie.Client
	rates  fx.RateSource
	events EventEmitter
}

func NewFXPoolService(st store.Store, ledger nessie.Client, rates fx.RateSource, events EventEmitter) *FXPoolService {
	return &FXPoolService{store: st, ledger: ledger, rates: rates, events: emitterOrNop(events)}
}

type CreateFXPoolInput struct {
	OrganizerAccountID string
	PayeeAccountID     string
	GoalAmountUSD      int64
	Description        string
	Deadline           time.Duration
	OnDeadlineMiss     string
	MaxRateDriftPct    decimal.Decimal
}

// FXDriftEntry is the drift status of one contribution's currency at check
// time.
type FXDriftEntry struct {
	ContributionID string          `json:"contribution_id"`
	Currency       string          `json:"currency"`
	LockedRate     decimal.Decimal `json:"locked_rate"`
	CurrentRate    decimal.Decimal `json:"current_rate"`
	DriftPct       decimal.Decimal `json:"drift_pct"`
	Drifted        bool            `json:"drifted"`
}

func (s *FXPoolService) Create(ctx context.Context, in CreateFXPoolInput) (*model.FXPool, error) {
	if in.OnDeadlineMiss == "" {
		in.OnDeadlineMiss = model.DeadlineRefundAll
	}
	ts := now()
	p := &model.FXPool{
		ID:                 model.NewID(model.PrefixFXPool),
		Object:             "fx_pool",
		Status:             model.FXPoolCollecting,
		GoalAmountUSD:      in.GoalAmountUSD,
		Description:        in.Description,
		OrganizerAccountID: in.OrganizerAccountID,
		PayeeAccountID:     in.PayeeAccountID,
		OnDeadlineMiss:     in.OnDeadlineMiss,
		MaxRateDriftPct:    in.MaxRateDriftPct,
		Deadline:           ts.Add(in.Deadline),
		CreatedAt:          ts,
		Version:            1,
	}
	if err := s.store.CreateFXPool(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *FXPoolService) Get(ctx context.Context, id string) (*model.FXPool, error) {
	p, err := s.store.GetFXPool(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errno.ErrNotFound.WithMessage("No FX pool with id %s", id).WithParam("id")
	}
	if err != nil {
		return nil, err
	}
	p.ContributionsCount = len(p.Contributions)
	return p, nil
}

func (s *FXPoolService) List(ctx context.Context, status string) ([]*model.FXPool, error) {
	pools, err := s.store.ListFXPools(ctx, status)
	if err != nil {
		return nil, err
	}
	for _, p := range pools {
		p.ContributionsCount = len(p.Contributions)
	}
	return pools, nil
}

// Contribute accepts a local-currency amount, normalizes it to USD at the
// current spot rate and records both. Reaching the USD goal settles the
// aggregate to the payee inside the same committed transition.
func (s *FXPoolService) Contribute(ctx context.Context, id, payerAccountID, currency string, amountLocal int64) (*model.FXPool, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.checkCollecting(ctx, p); err != nil {
			return nil, err
		}

		rate, _, err := s.rates.SpotRate(ctx, currency, "usd")
		if err != nil {
			return nil, errno.ErrRateUnavailable.WithMessage("%s", err.Error())
		}
		amountUSD := fx.USDEquivalent(amountLocal, rate)

		balance, err := s.ledger.Balance(ctx, payerAccountID)
		if err != nil {
			return nil, errno.ErrBalanceUnavailable.WithMessage("%s", err.Error())
		}
		if balance < amountLocal {
			return nil, errno.ErrInsufficientFunds.
				WithExtra("nessie_balance", balance).
				WithExtra("requested_amount", amountLocal)
		}

		transferID, err := s.ledger.Transfer(ctx, payerAccountID, p.OrganizerAccountID, amountLocal, "FX pool contribution: "+p.Description)
		if err != nil {
			monitor.Business.TransfersTotal.WithLabelValues("fxpool", "failed").Inc()
			return nil, errno.ErrTransferFailed.WithMessage("%s", err.Error())
		}

		ts := now()
		contribution := model.FXContribution{
			ID:               model.NewID(model.PrefixFXContribution),
			PayerAccountID:   payerAccountID,
			Currency:         currency,
			AmountLocal:      amountLocal,
			AmountUSD:        amountUSD,
			USDRate:          rate,
			MaxDriftPct:      p.MaxRateDriftPct,
			NessieTransferID: transferID,
			CreatedAt:        ts,
		}
		p.Contributions = append(p.Contributions, contribution)
		p.CollectedUSD += amountUSD
		p.AddCurrency(currency)

		settlementID := ""
		funded := p.CollectedUSD >= p.GoalAmountUSD
		if funded {
			settlementID, err = s.ledger.Transfer(ctx, p.OrganizerAccountID, p.PayeeAccountID, p.CollectedUSD, "FX pool settlement: "+p.Description)
			if err != nil {
				s.undoTransfer(ctx, p.ID, transferID)
				monitor.Business.TransfersTotal.WithLabelValues("fxpool", "failed").Inc()
				return nil, errno.ErrTransferFailed.WithMessage("%s", err.Error())
			}
			p.Status = model.FXPoolFunded
			p.FundedAt = &ts
			p.NessieSettlementID = settlementID
		}

		if err := s.store.UpdateFXPool(ctx, p); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				s.undoTransfer(ctx, p.ID, transferID)
				if settlementID != "" {
					s.undoTransfer(ctx, p.ID, settlementID)
				}
				continue
			}
			return nil, err
		}

		p.ContributionsCount = len(p.Contributions)
		monitor.Business.TransfersTotal.WithLabelValues("fxpool", "succeeded").Inc()
		monitor.Business.TransferVolumeCents.WithLabelValues("fxpool", "usd").Add(float64(amountUSD))
		emit(ctx, s.events, model.EventFXPoolContribution, p.ID, contribution)
		if funded {
			monitor.Business.TransitionsTotal.WithLabelValues("fxpool", p.Status).Inc()
			emit(ctx, s.events, model.EventFXPoolGoalReached, p.ID, p)
		}
		return p, nil
	}
	return nil, errno.ErrConcurrentUpdate
}

// CheckDrift compares each contribution's recorded rate against the live
// one. When any contribution drifts past tolerance the whole pool is
// refunded: every contribution is reversed in its original currency and
// amount, never the USD equivalent.
func (s *FXPoolService) CheckDrift(ctx context.Context, id string) (*model.FXPool, []FXDriftEntry, error) {
	refunds := make(map[string]string)

	for attempt := 0; attempt < casRetries; attempt++ {
		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		entries, anyDrift, err := s.driftEntries(ctx, p)
		if err != nil {
			return nil, nil, err
		}
		if p.Status != model.FXPoolCollecting || !anyDrift {
			return p, entries, nil
		}

		failures := s.refundContributions(ctx, p, refunds)
		for _, f := range failures {
			logger.Warn("fx pool drift refund failed",
				zap.String("fxpool_id", p.ID),
				zap.String("contribution_id", f.ContributionID),
				zap.String("reason", f.Reason))
		}

		p.Status = model.FXPoolDriftRefunded
		if err := s.store.UpdateFXPool(ctx, p); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return nil, entries, err
		}

		monitor.Business.RateDriftCancellations.Inc()
		monitor.Business.TransitionsTotal.WithLabelValues("fxpool", p.Status).Inc()
		emit(ctx, s.events, model.EventFXPoolRateDrifted, p.ID, p)
		return p, entries, nil
	}
	return nil, nil, errno.ErrConcurrentUpdate
}

// Cancel behaves like Pool cancel: reverse every contribution in its
// original currency, report per-contribution failures.
func (s *FXPoolService) Cancel(ctx context.Context, id string) (*model.FXPool, []RefundFailure, error) {
	refunds := make(map[string]string)

	for attempt := 0; attempt < casRetries; attempt++ {
		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if p.Status != model.FXPoolCollecting {
			return nil, nil, errno.ErrInvalidStatus.
				WithMessage("FX pool is %s, expected collecting", p.Status).
				WithExtra("status", p.Status)
		}

		failures := s.refundContributions(ctx, p, refunds)
		if len(refunds) == 0 && len(failures) > 0 {
			return nil, failures, errno.ErrTransferFailed.WithMessage("No contribution refund could be executed")
		}

		p.Status = model.FXPoolCancelled
		if err := s.store.UpdateFXPool(ctx, p); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return nil, failures, err
		}

		monitor.Business.TransitionsTotal.WithLabelValues("fxpool", p.Status).Inc()
		emit(ctx, s.events, model.EventFXPoolCancelled, p.ID, p)
		return p, failures, nil
	}
	return nil, nil, errno.ErrConcurrentUpdate
}

// Expire applies the deadline-miss policy, mirroring Pool expiry.
func (s *FXPoolService) Expire(ctx context.Context, id string) error {
	refunds := make(map[string]string)

	for attempt := 0; attempt < casRetries; attempt++ {
		p, err := s.store.GetFXPool(ctx, id)
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
		if p.OnDeadlineMiss == model.DeadlineSettlePartial && p.CollectedUSD > 0 {
			settlementID, err = s.ledger.Transfer(ctx, p.OrganizerAccountID, p.PayeeAccountID, p.CollectedUSD, "FX pool partial settlement: "+p.Description)
			if err != nil {
				return errno.ErrTransferFailed.WithMessage("%s", err.Error())
			}
			p.NessieSettlementID = settlementID
		} else {
			failures := s.refundContributions(ctx, p, refunds)
			for _, f := range failures {
				logger.Warn("fx pool expiry refund failed",
					zap.String("fxpool_id", p.ID),
					zap.String("contribution_id", f.ContributionID),
					zap.String("reason", f.Reason))
			}
		}

		p.Status = model.FXPoolExpired
		if err := s.store.UpdateFXPool(ctx, p); err != nil {
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

		monitor.Business.TransitionsTotal.WithLabelValues("fxpool", p.Status).Inc()
		emit(ctx, s.events, model.EventFXPoolExpiredRefunded, p.ID, p)
		return nil
	}
	return errno.ErrConcurrentUpdate
}

func (s *FXPoolService) driftEntries(ctx context.Context, p *model.FXPool) ([]FXDriftEntry, bool, error) {
	// One live rate per currency covers every contribution in it.
	current := make(map[string]decimal.Decimal)
	for _, c := range p.Contributions {
		if _, ok := current[c.Currency]; ok {
			continue
		}
		rate, _, err := s.rates.SpotRate(ctx, c.Currency, "usd")
		if err != nil {
			return nil, false, errno.ErrRateUnavailable.WithMessage("%s", err.Error())
		}
		current[c.Currency] = rate
	}

	entries := make([]FXDriftEntry, 0, len(p.Contributions))
	anyDrift := false
	for _, c := range p.Contributions {
		rate := current[c.Currency]
		driftPct := rate.Sub(c.USDRate).Abs().Div(c.USDRate).Mul(pctHundred).Round(4)
		drifted := driftPct.GreaterThan(c.MaxDriftPct)
		if drifted {
			anyDrift = true
		}
		entries = append(entries, FXDriftEntry{
			ContributionID: c.ID,
			Currency:       c.Currency,
			LockedRate:     c.USDRate,
			CurrentRate:    rate,
			DriftPct:       driftPct,
			Drifted:        drifted,
		})
	}
	return entries, anyDrift, nil
}

func (s *FXPoolService) refundContributions(ctx context.Context, p *model.FXPool, refunds map[string]string) []RefundFailure {
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
				monitor.Business.RefundsTotal.WithLabelValues("fxpool", "failed").Inc()
				failures = append(failures, RefundFailure{
					ContributionID: c.ID,
					TransferID:     c.NessieTransferID,
					Reason:         err.Error(),
				})
				continue
			}
			refunds[c.ID] = refundID
			monitor.Business.RefundsTotal.WithLabelValues("fxpool", "succeeded").Inc()
		}
		c.RefundID = refundID
		p.RefundIDs = append(p.RefundIDs, refundID)
		p.CollectedUSD -= c.AmountUSD
	}
	return failures
}

func (s *FXPoolService) checkCollecting(ctx context.Context, p *model.FXPool) error {
	if p.Status == model.FXPoolExpired {
		return errno.ErrFXPoolExpired.WithExtra("deadline", p.Deadline)
	}
	if p.Status != model.FXPoolCollecting {
		return errno.ErrInvalidStatus.
			WithMessage("FX pool is %s, expected collecting", p.Status).
			WithExtra("status", p.Status)
	}
	if p.ExpiredBy(now()) {
		if err := s.Expire(ctx, p.ID); err != nil {
			logger.Warn("lazy fx pool expiry failed", zap.String("fxpool_id", p.ID), zap.Error(err))
		}
		return errno.ErrFXPoolExpired.WithExtra("deadline", p.Deadline)
	}
	return nil
}

func (s *FXPoolService) undoTransfer(ctx context.Context, poolID, transferID string) {
	if _, err := s.ledger.Reverse(ctx, transferID); err != nil {
		logger.Error("failed to reverse transfer after version conflict",
			zap.String("fxpool_id", poolID),
			zap.String("transfer_id", transferID),
			zap.Error(err))
	}
}
