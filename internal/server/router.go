package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"flowpay/internal/handler"
	"flowpay/internal/idempotency"
	"flowpay/internal/service"
	"flowpay/pkg/config"
	"flowpay/pkg/monitor"
)

// Services bundles everything the router exposes over HTTP.
type Services struct {
	Collects  *service.CollectService
	Pools     *service.PoolService
	Corridors *service.CorridorService
	FXPools   *service.FXPoolService
	Recurring *service.RecurringService
	Webhooks  *service.WebhookService
	Analytics *service.AnalyticsService
}

// NewHTTPRouter builds the gin engine with all /v1 routes registered.
// Mutating routes sit behind the idempotency middleware so a retried
// POST with the same Idempotency-Key replays the stored response.
func NewHTTPRouter(svcs Services, idem idempotency.Cache) *gin.Engine {
	if config.Global.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(monitor.PrometheusMiddleware())
	r.Use(VersionHeader(config.Global.App.Version))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/v1")
	api.GET("/health", handler.HealthCheck)

	mutating := api.Group("")
	mutating.Use(Idempotency(idem))

	collects := handler.NewCollectHandler(svcs.Collects)
	mutating.POST("/collects", collects.Create)
	api.GET("/collects", collects.List)
	api.GET("/collects/:id", collects.Get)
	mutating.POST("/collects/:id/approve", collects.Approve)
	mutating.POST("/collects/:id/decline", collects.Decline)

	pools := handler.NewPoolHandler(svcs.Pools)
	mutating.POST("/pools", pools.Create)
	api.GET("/pools", pools.List)
	api.GET("/pools/:id", pools.Get)
	api.GET("/pools/:id/contributions", pools.Contributions)
	mutating.POST("/pools/:id/contribute", pools.Contribute)
	mutating.POST("/pools/:id/cancel", pools.Cancel)

	corridors := handler.NewCorridorHandler(svcs.Corridors)
	mutating.POST("/corridors", corridors.Create)
	api.GET("/corridors", corridors.List)
	api.GET("/corridors/:id", corridors.Get)
	api.GET("/corridors/:id/rate-check", corridors.RateCheck)
	mutating.POST("/corridors/:id/remit", corridors.Remit)

	fxpools := handler.NewFXPoolHandler(svcs.FXPools)
	mutating.POST("/fxpools", fxpools.Create)
	api.GET("/fxpools", fxpools.List)
	api.GET("/fxpools/:id", fxpools.Get)
	api.GET("/fxpools/:id/contributions", fxpools.Contributions)
	mutating.POST("/fxpools/:id/contribute", fxpools.Contribute)
	mutating.POST("/fxpools/:id/force-drift", fxpools.ForceDrift)
	mutating.POST("/fxpools/:id/cancel", fxpools.Cancel)

	recurring := handler.NewRecurringHandler(svcs.Recurring)
	mutating.POST("/recurring", recurring.Create)
	api.GET("/recurring", recurring.List)
	api.GET("/recurring/:id", recurring.Get)
	mutating.POST("/recurring/:id/trigger", recurring.Trigger)
	mutating.POST("/recurring/:id/pause", recurring.Pause)
	mutating.POST("/recurring/:id/resume", recurring.Resume)
	mutating.POST("/recurring/:id/cancel", recurring.Cancel)

	webhooks := handler.NewWebhookHandler(svcs.Webhooks)
	mutating.POST("/webhooks", webhooks.Subscribe)
	api.GET("/webhooks", webhooks.List)
	api.GET("/events", webhooks.Events)

	analytics := handler.NewAnalyticsHandler(svcs.Analytics)
	api.GET("/analytics", analytics.Snapshot)

	return r
}
