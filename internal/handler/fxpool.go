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

type FXPoolHandler struct {
	svc *service.FXPoolService
}

func NewFXPoolHandler(svc *service.FXPoolService) *FXPoolHandler {
	return &FXPoolHandler{svc: svc}
}

// Create godoc
// @Summary Create a multi-currency pool
// @Tags FXPools
// @Accept json
// @Produce json
// @Param request body request.CreateFXPoolRequest true "FX pool parameters"
// @Success 201 {object} model.FXPool
// @Router /v1/fxpools [post]
func (h *FXPoolHandler) Create(c *gin.Context) {
	var req request.CreateFXPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	deadline := defaultPoolDeadline
	if req.DeadlineMinutes > 0 {
		deadline = time.Duration(req.DeadlineMinutes) * time.Minute
	}
	maxDrift := req.MaxRateDriftPct
	if maxDrift == 0 {
		maxDrift = defaultMaxDriftPct
	}

	pool, err := h.svc.Create(c.Request.Context(), service.CreateFXPoolInput{
		OrganizerAccountID: req.OrganizerAccountID,
		PayeeAccountID:     req.PayeeAccountID,
		GoalAmountUSD:      req.GoalAmountUSD,
		Description:        req.Description,
		Deadline:           deadline,
		OnDeadlineMiss:     req.OnDeadlineMiss,
		MaxRateDriftPct:    decimal.NewFromFloat(maxDrift),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pool)
}

// List godoc
// @Summary List FX pools
// @Tags FXPools
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} model.FXPool
// @Router /v1/fxpools [get]
func (h *FXPoolHandler) List(c *gin.Context) {
	pools, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"object": "list", "data": pools, "count": len(pools)})
}

// Get godoc
// @Summary Fetch one FX pool
// @Tags FXPools
// @Produce json
// @Param id path string true "FX pool id"
// @Success 200 {object} model.FXPool
// @Router /v1/fxpools/{id} [get]
func (h *FXPoolHandler) Get(c *gin.Context) {
	pool, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pool)
}

// Contributions godoc
// @Summary List an FX pool's contributions
// @Tags FXPools
// @Produce json
// @Param id path string true "FX pool id"
// @Success 200 {array} model.FXContribution
// @Router /v1/fxpools/{id}/contributions [get]
func (h *FXPoolHandler) Contributions(c *gin.Context) {
	pool, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"object": "list", "data": pool.Contributions, "count": len(pool.Contributions)})
}

// Contribute godoc
// @Summary Contribute in a local currency
// @Description Normalizes the local amount to USD at the current spot rate
// @Tags FXPools
// @Accept json
// @Produce json
// @Param id path string true "FX pool id"
// @Param request body request.FXContributeRequest true "Contribution"
// @Success 200 {object} model.FXPool
// @Router /v1/fxpools/{id}/contribute [post]
func (h *FXPoolHandler) Contribute(c *gin.Context) {
	var req request.FXContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	pool, err := h.svc.Contribute(c.Request.Context(), c.Param("id"), req.PayerAccountID, req.Currency, req.AmountLocal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pool)
}

// ForceDrift godoc
// @Summary Run the drift check now
// @Description Compares every contribution's recorded rate against the live one; refunds the pool when any drifts past tolerance
// @Tags FXPools
// @Produce json
// @Param id path string true "FX pool id"
// @Success 200 {object} map[string]interface{}
// @Router /v1/fxpools/{id}/force-drift [post]
func (h *FXPoolHandler) ForceDrift(c *gin.Context) {
	pool, entries, err := h.svc.CheckDrift(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"pool":        pool,
		"drift_check": entries,
	})
}

// Cancel godoc
// @Summary Cancel an FX pool
// @Tags FXPools
// @Produce json
// @Param id path string true "FX pool id"
// @Success 200 {object} model.FXPool
// @Router /v1/fxpools/{id}/cancel [post]
func (h *FXPoolHandler) Cancel(c *gin.Context) {
	pool, failures, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	body := gin.H{"pool": pool}
	if len(failures) > 0 {
		body["refund_failures"] = failures
	}
	response.OK(c, body)
}
