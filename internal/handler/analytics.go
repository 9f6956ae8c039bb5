package handler

import (
	"github.com/gin-gonic/gin"

	"flowpay/internal/handler/response"
	"flowpay/internal/service"
	"flowpay/pkg/config"
)

type AnalyticsHandler struct {
	svc *service.AnalyticsService
}

func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// Snapshot godoc
// @Summary Aggregate analytics snapshot
// @Description Counts and volumes per entity type, status and currency
// @Tags Analytics
// @Produce json
// @Success 200 {object} service.Snapshot
// @Router /v1/analytics [get]
func (h *AnalyticsHandler) Snapshot(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snap)
}

// HealthCheck godoc
// @Summary Check service health
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /v1/health [get]
func HealthCheck(c *gin.Context) {
	response.OK(c, gin.H{
		"status":  "UP",
		"service": "flowpay",
		"version": config.Global.App.Version,
	})
}
