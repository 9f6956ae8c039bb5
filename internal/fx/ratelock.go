package fx

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"flowpay/internal/model"
)

var oneHundred = decimal.NewFromInt(100)

// LockManager creates time-bounded rate locks and measures drift against
// them at execution time.
type LockManager struct {
	source RateSource
}

func NewLockManager(source RateSource) *LockManager {
	return &LockManager{source: source}
}

// Lock captures the current spot rate for base→quote and derives the source
// amount from amountTarget. The sourced amount is fixed here and never
// recomputed: remittance always settles the locked figure.
//
// Rounding: full-precision decimal division, then round half away from zero
// to the minor unit.
func (m *LockManager) Lock(ctx context.Context, base, quote string, amountTarget int64, duration time.Duration, maxDriftPct decimal.Decimal) (model.RateLock, int64, error) {
	rate, observedAt, err := m.source.SpotRate(ctx, base, quote)
	if err != nil {
		return model.RateLock{}, 0, err
	}

	amountSource := decimal.NewFromInt(amountTarget).Div(rate).Round(0).IntPart()

	lock := model.RateLock{
		ID:          model.NewID(model.PrefixRateLock),
		Rate:        rate,
		MaxDriftPct: maxDriftPct,
		Status:      model.RateLockActive,
		LockedAt:    observedAt,
		ExpiresAt:   observedAt.Add(duration),
	}
	return lock, amountSource, nil
}

// DriftReport compares a locked rate against the live one.
type DriftReport struct {
	LockedRate  decimal.Decimal `json:"locked_rate"`
	CurrentRate decimal.Decimal `json:"current_rate"`
	DriftPct    decimal.Decimal `json:"drift_pct"`
	MaxDriftPct decimal.Decimal `json:"max_drift_pct"`
	Drifted     bool            `json:"drifted"`
}

// CheckDrift re-fetches the spot rate for base→quote and reports the
// relative deviation from the locked rate as a percentage.
func (m *LockManager) CheckDrift(ctx context.Context, lock model.RateLock, base, quote string) (DriftReport, error) {
	current, _, err := m.source.SpotRate(ctx, base, quote)
	if err != nil {
		return DriftReport{}, err
	}
	return driftBetween(lock, current), nil
}

func driftBetween(lock model.RateLock, current decimal.Decimal) DriftReport {
	driftPct := current.Sub(lock.Rate).Abs().Div(lock.Rate).Mul(oneHundred)
	return DriftReport{
		LockedRate:  lock.Rate,
		CurrentRate: current,
		DriftPct:    driftPct.Round(4),
		MaxDriftPct: lock.MaxDriftPct,
		Drifted:     driftPct.GreaterThan(lock.MaxDriftPct),
	}
}

// USDEquivalent converts a local-currency amount to USD minor units at the
// given rate (1 local unit = rate USD), rounding half away from zero.
func USDEquivalent(amountLocal int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amountLocal).Mul(rate).Round(0).IntPart()
}
