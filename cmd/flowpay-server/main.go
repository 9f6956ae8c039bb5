package main

import (
	"fmt"
	"time"

	"flowpay/internal/fx"
	"flowpay/internal/idempotency"
	"flowpay/internal/model"
	"flowpay/internal/nessie"
	"flowpay/internal/server"
	"flowpay/internal/service"
	"flowpay/internal/service/mq"
	"flowpay/internal/store"
	"flowpay/internal/webhook"

	"flowpay/pkg/cache"
	"flowpay/pkg/config"
	"flowpay/pkg/database"
	"flowpay/pkg/lock"
	"flowpay/pkg/logger"
	"flowpay/pkg/monitor"
	"flowpay/pkg/validator"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "flowpay/docs/swagger"
)

// @title FlowPay API
// @version 1.0
// @description Payment primitive state engine: collects, pools, corridors and FX pools

// @host localhost:8080
// @BasePath /v1
func main() {
	config.Init()
	validator.Init()

	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	monitor.Init()

	// 1. Entity store
	var st store.Store
	switch config.Global.DB.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			config.Global.DB.Host,
			config.Global.DB.User,
			config.Global.DB.Password,
			config.Global.DB.Name,
			config.Global.DB.Port,
		)
		db, err := database.ConnectPostgres(dsn)
		if err != nil {
			logger.Fatal("postgres connection failed", zap.Error(err))
		}
		// Production schemas are managed by cmd/migrate.
		if config.Global.App.Env != "production" {
			if err := db.AutoMigrate(model.AllModels()...); err != nil {
				logger.Fatal("schema migration failed", zap.Error(err))
			}
		}
		st = store.NewGormStore(db)
		logger.Info("Using postgres entity store", zap.String("host", config.Global.DB.Host))
	default:
		st = store.NewMemoryStore()
		logger.Info("Using in-memory entity store")
	}

	// 2. Redis (optional): idempotency cache + the sweeper lock
	retention := time.Duration(config.Global.Idempotency.RetentionMinutes) * time.Minute
	var (
		rdb  *redis.Client
		idem idempotency.Cache
		dl   lock.DistributedLock
	)
	if config.Global.Redis.Enabled {
		var err error
		rdb, err = database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
		if err != nil {
			logger.Fatal("redis connection failed", zap.Error(err))
		}
		idem = idempotency.NewRedisCache(rdb, retention)
		dl = lock.NewRedisLock(rdb)
		logger.Info("Redis connected", zap.String("addr", config.Global.Redis.Addr))
	} else {
		idem = idempotency.NewMemoryCache(retention)
		dl = lock.NewLocalLock()
	}

	// 3. Ledger client and rate source
	ledger := nessie.NewHTTPClient(
		config.Global.Nessie.BaseURL,
		config.Global.Nessie.APIKey,
		time.Duration(config.Global.Nessie.TimeoutSeconds)*time.Second,
	)
	rates := fx.NewHTTPRateSource(
		config.Global.FX.RateURL,
		time.Duration(config.Global.FX.TimeoutSeconds)*time.Second,
		time.Duration(config.Global.FX.CacheTTLSecs)*time.Second,
	)
	if rdb != nil {
		rates.WithCache(cache.NewRedisCache(rdb))
	}
	locks := fx.NewLockManager(rates)

	// 4. Event fan-out: store append + webhook delivery, optionally Kafka
	var producer mq.Producer
	if config.Global.Kafka.Enabled {
		producer = mq.NewKafkaProducer(config.Global.Kafka.Brokers, config.Global.Kafka.Topic)
		logger.Info("Kafka producer enabled", zap.Strings("brokers", config.Global.Kafka.Brokers))
	}
	dispatcher := webhook.NewDispatcher(st, producer, webhook.Options{
		Workers:    config.Global.Webhook.Workers,
		MaxRetries: config.Global.Webhook.MaxRetries,
		Timeout:    time.Duration(config.Global.Webhook.TimeoutSeconds) * time.Second,
		KafkaTopic: config.Global.Kafka.Topic,
	})

	// 5. Domain services
	collects := service.NewCollectService(st, ledger, dispatcher)
	pools := service.NewPoolService(st, ledger, dispatcher)
	corridors := service.NewCorridorService(st, ledger, locks, dispatcher)
	fxpools := service.NewFXPoolService(st, ledger, rates, dispatcher)
	recurring := service.NewRecurringService(st, ledger, dispatcher)

	// 6. Expiry sweeper
	sweepInterval := time.Duration(config.Global.Sweeper.IntervalSeconds) * time.Second
	sweeper := service.NewSweeper(st, dl, sweepInterval, collects, pools, corridors, fxpools, recurring)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("sweeper start failed", zap.Error(err))
	}

	// 7. HTTP router + app
	r := server.NewHTTPRouter(server.Services{
		Collects:  collects,
		Pools:     pools,
		Corridors: corridors,
		FXPools:   fxpools,
		Recurring: recurring,
		Webhooks:  service.NewWebhookService(st),
		Analytics: service.NewAnalyticsService(st),
	}, idem)

	app := server.New(server.Config{HttpPort: config.Global.App.HttpPort}, r)
	app.OnShutdown(func() {
		sweeper.Stop()
		dispatcher.Shutdown()
		if rdb != nil {
			rdb.Close()
		}
	})

	app.Run()
}
