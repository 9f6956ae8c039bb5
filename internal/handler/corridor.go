package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"flowpay/internal/handler/request"
	"flowpay/internal/handler/response"
	"flowpay/internal/service"
	"flowpay/pkg/errno"
	"flowpay/pkg/validator"
)

const (
	defaultLockDuration = 30 * time.Minute
	defaultMaxDriftPct  = 2.0
)

type CorridorHandler struct {
	svc *service.CorridorService
}

func NewCorridorHandler(svc *service.CorridorService) *CorridorHandler {
	return &CorridorHandler{svc: svc}
}

// Create godoc
// @Summary Create a corridor with a locked rate
// @Description Fetches a spot rate, locks it and derives the source amount
// @Tags Corridors
// @Accept json
// @Produce json
// @Param request body request.CreateCorridorRequest true "Corridor parameters"
// @Success 201 {object} model.Corridor
// @Router /v1/corridors [post]
func (h *CorridorHandler) Create(c *gin.Context) {
	var req request.CreateCorridorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	lockFor := defaultLockDuration
	if req.LockDurationMinutes > 0 {
		lockFor = time.Duration(req.LockDurationMinutes) * time.Minute
	}
	maxDrift := req.MaxDriftPct
	if maxDrift == 0 {
		maxDrift = defaultMaxDriftPct
	}

	corridor, err := h.svc.Create(c.Request.Context(), service.CreateCorridorInput{
		SourceCurrency:  req.SourceCurrency,
		TargetCurrency:  req.TargetCurrency,
		SourceAccountID: req.SourceAccountID,
		TargetAccountID: req.TargetAccountID,
		AmountTarget:    req.AmountTarget,
		Description:     req.Description,
		LockDuration:    lockFor,
		MaxDriftPct:     decimal.NewFromFloat(maxDrift),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, corridor)
}

// List godoc
// @Summary List corridors
// @Tags Corridors
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} model.Corridor
// @Router /v1/corridors [get]
func (h *CorridorHandler) List(c *gin.Context) {
	corridors, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"object": "list", "data": corridors, "count": len(corridors)})
}

// Get godoc
// @Summary Fetch one corridor
// @Tags Corridors
// @Produce json
// @Param id path string true "Corridor id"
// @Success 200 {object} model.Corridor
// @Router /v1/corridors/{id} [get]
func (h *CorridorHandler) Get(c *gin.Context) {
	corridor, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, corridor)
}

// RateCheck godoc
// @Summary Live drift report for a corridor
// @Description Compares the locked rate with the current spot rate, no side effects
// @Tags Corridors
// @Produce json
// @Param id path string true "Corridor id"
// @Success 200 {object} fx.DriftReport
// @Router /v1/corridors/{id}/rate-check [get]
func (h *CorridorHandler) RateCheck(c *gin.Context) {
	corridor, report, err := h.svc.RateCheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"corridor_id": corridor.ID,
		"status":      corridor.Status,
		"rate_check":  report,
	})
}

// Remit godoc
// @Summary Execute a corridor at its locked rate
// @Tags Corridors
// @Produce json
// @Param id path string true "Corridor id"
// @Success 200 {object} model.Corridor
// @Router /v1/corridors/{id}/remit [post]
func (h *CorridorHandler) Remit(c *gin.Context) {
	corridor, err := h.svc.Remit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, corridor)
}
