package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"flowpay/internal/model"
	"flowpay/internal/store"
	"flowpay/pkg/lock"
	"flowpay/pkg/logger"
	"flowpay/pkg/monitor"
)

const sweeperLockKey = "sweeper:run"

// Sweeper forces time-based transitions on a fixed tick: pending collects
// past their window, collecting pools and FX pools past their deadline,
// rate-locked corridors past the lock expiry, and due recurring
// occurrences. Each transition takes the same service path as
// request-driven traffic, so the version check arbitrates races with
// concurrent requests. A distributed lock keeps multi-instance
// deployments down to one sweeping node per tick.
type Sweeper struct {
	cron     *cron.Cron
	store    store.Store
	lock     lock.DistributedLock
	interval time.Duration

	collects  *CollectService
	pools     *PoolService
	corridors *CorridorService
	fxpools   *FXPoolService
	recurring *RecurringService
}

func NewSweeper(
	st store.Store,
	dl lock.DistributedLock,
	interval time.Duration,
	collects *CollectService,
	pools *PoolService,
	corridors *CorridorService,
	fxpools *FXPoolService,
	recurring *RecurringService,
) *Sweeper {
	if dl == nil {
		dl = lock.NewLocalLock()
	}
	return &Sweeper{
		cron:      cron.New(),
		store:     st,
		lock:      dl,
		interval:  interval,
		collects:  collects,
		pools:     pools,
		corridors: corridors,
		fxpools:   fxpools,
		recurring: recurring,
	}
}

func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("expiry sweeper started", zap.Duration("interval", s.interval))
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("expiry sweeper stopped")
}

// RunOnce performs a single sweep pass. Re-running against already
// terminal entities is a no-op, so overlapping or repeated passes are
// harmless.
func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	acquired, err := s.lock.Acquire(ctx, sweeperLockKey, s.interval)
	if err != nil {
		logger.Warn("sweeper lock error", zap.Error(err))
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := s.lock.Release(context.Background(), sweeperLockKey); err != nil {
			logger.Warn("sweeper lock release failed", zap.Error(err))
		}
	}()

	started := time.Now()
	swept := s.sweepCollects(ctx) + s.sweepPools(ctx) + s.sweepCorridors(ctx) + s.sweepFXPools(ctx)
	fired, err := s.recurring.RunDue(ctx)
	if err != nil {
		logger.Warn("recurring sweep failed", zap.Error(err))
	}

	monitor.Business.SweeperRunDuration.Observe(time.Since(started).Seconds())
	if swept > 0 || fired > 0 {
		logger.Info("sweep pass complete",
			zap.Int("expired", swept),
			zap.Int("recurring_fired", fired),
			zap.Duration("took", time.Since(started)))
	}
}

func (s *Sweeper) sweepCollects(ctx context.Context) int {
	collects, err := s.store.ListCollects(ctx, store.CollectFilter{Status: model.CollectPending})
	if err != nil {
		logger.Warn("sweeper collect scan failed", zap.Error(err))
		return 0
	}

	ts := now()
	n := 0
	for _, c := range collects {
		if !c.ExpiredBy(ts) {
			continue
		}
		if err := s.collects.Expire(ctx, c.ID); err != nil {
			logger.Warn("collect expiry failed", zap.String("collect_id", c.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

func (s *Sweeper) sweepPools(ctx context.Context) int {
	pools, err := s.store.ListPools(ctx, model.PoolCollecting)
	if err != nil {
		logger.Warn("sweeper pool scan failed", zap.Error(err))
		return 0
	}

	ts := now()
	n := 0
	for _, p := range pools {
		if !p.ExpiredBy(ts) {
			continue
		}
		if err := s.pools.Expire(ctx, p.ID); err != nil {
			logger.Warn("pool expiry failed", zap.String("pool_id", p.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

func (s *Sweeper) sweepCorridors(ctx context.Context) int {
	corridors, err := s.store.ListCorridors(ctx, model.CorridorRateLocked)
	if err != nil {
		logger.Warn("sweeper corridor scan failed", zap.Error(err))
		return 0
	}

	ts := now()
	n := 0
	for _, c := range corridors {
		if !c.LockExpiredBy(ts) {
			continue
		}
		if err := s.corridors.Expire(ctx, c.ID); err != nil {
			logger.Warn("corridor expiry failed", zap.String("corridor_id", c.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

func (s *Sweeper) sweepFXPools(ctx context.Context) int {
	pools, err := s.store.ListFXPools(ctx, model.FXPoolCollecting)
	if err != nil {
		logger.Warn("sweeper fx pool scan failed", zap.Error(err))
		return 0
	}

	ts := now()
	n := 0
	for _, p := range pools {
		if !p.ExpiredBy(ts) {
			continue
		}
		if err := s.fxpools.Expire(ctx, p.ID); err != nil {
			logger.Warn("fx pool expiry failed", zap.String("fxpool_id", p.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}
