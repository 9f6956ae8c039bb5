package service

import (
	"context"

	"flowpay/internal/model"
	"flowpay/internal/store"
)

// AnalyticsService is a read-only fold over the entity store: counts and
// volumes per entity type, status and currency. It never mutates state and
// tolerates being slightly behind in-flight transitions.
type AnalyticsService struct {
	store store.Store
}

func NewAnalyticsService(st store.Store) *AnalyticsService {
	return &AnalyticsService{store: st}
}

type EntityBreakdown struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

type Snapshot struct {
	Collects  EntityBreakdown `json:"collects"`
	Pools     EntityBreakdown `json:"pools"`
	Corridors EntityBreakdown `json:"corridors"`
	FXPools   EntityBreakdown `json:"fx_pools"`
	Recurring EntityBreakdown `json:"recurring_collects"`

	// ApprovedCollectVolume is per currency, in minor units.
	ApprovedCollectVolume map[string]int64 `json:"approved_collect_volume"`
	// PoolCollectedVolume sums collected_amount per currency across pools.
	PoolCollectedVolume map[string]int64 `json:"pool_collected_volume"`
	// RemittedSourceVolume sums remitted amount_source per source currency.
	RemittedSourceVolume map[string]int64 `json:"remitted_source_volume"`
	// FXPoolCollectedUSD sums collected_usd across FX pools.
	FXPoolCollectedUSD int64 `json:"fxpool_collected_usd"`
	// FXCurrencies is every currency seen across FX pool contributions.
	FXCurrencies []string `json:"fx_currencies"`
}

func (s *AnalyticsService) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Collects:              EntityBreakdown{ByStatus: map[string]int{}},
		Pools:                 EntityBreakdown{ByStatus: map[string]int{}},
		Corridors:             EntityBreakdown{ByStatus: map[string]int{}},
		FXPools:               EntityBreakdown{ByStatus: map[string]int{}},
		Recurring:             EntityBreakdown{ByStatus: map[string]int{}},
		ApprovedCollectVolume: map[string]int64{},
		PoolCollectedVolume:   map[string]int64{},
		RemittedSourceVolume:  map[string]int64{},
		FXCurrencies:          []string{},
	}

	collects, err := s.store.ListCollects(ctx, store.CollectFilter{})
	if err != nil {
		return nil, err
	}
	for _, c := range collects {
		snap.Collects.Total++
		snap.Collects.ByStatus[c.Status]++
		if c.Status == model.CollectApproved {
			snap.ApprovedCollectVolume[c.Currency] += c.Amount
		}
	}

	pools, err := s.store.ListPools(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range pools {
		snap.Pools.Total++
		snap.Pools.ByStatus[p.Status]++
		snap.PoolCollectedVolume[p.Currency] += p.CollectedAmount
	}

	corridors, err := s.store.ListCorridors(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, c := range corridors {
		snap.Corridors.Total++
		snap.Corridors.ByStatus[c.Status]++
		if c.Status == model.CorridorRemitted {
			snap.RemittedSourceVolume[c.SourceCurrency] += c.AmountSource
		}
	}

	fxpools, err := s.store.ListFXPools(ctx, "")
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, p := range fxpools {
		snap.FXPools.Total++
		snap.FXPools.ByStatus[p.Status]++
		snap.FXPoolCollectedUSD += p.CollectedUSD
		for _, cur := range p.CurrenciesCollected {
			if _, ok := seen[cur]; !ok {
				seen[cur] = struct{}{}
				snap.FXCurrencies = append(snap.FXCurrencies, cur)
			}
		}
	}

	recurring, err := s.store.ListRecurring(ctx, store.RecurringFilter{})
	if err != nil {
		return nil, err
	}
	for _, r := range recurring {
		snap.Recurring.Total++
		snap.Recurring.ByStatus[r.Status]++
	}

	return snap, nil
}
