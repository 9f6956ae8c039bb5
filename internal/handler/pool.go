package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"flowpay/internal/handler/request"
	"flowpay/internal/handler/response"
	"flowpay/internal/service"
	"flowpay/pkg/errno"
	"flowpay/pkg/validator"
)

const defaultPoolDeadline = 7 * 24 * time.Hour

type PoolHandler struct {
	svc *service.PoolService
}

func NewPoolHandler(svc *service.PoolService) *PoolHandler {
	return &PoolHandler{svc: svc}
}

// Create godoc
// @Summary Create a pool
// @Tags Pools
// @Accept json
// @Produce json
// @Param request body request.CreatePoolRequest true "Pool parameters"
// @Success 201 {object} model.Pool
// @Router /v1/pools [post]
func (h *PoolHandler) Create(c *gin.Context) {
	var req request.CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	deadline := defaultPoolDeadline
	if req.DeadlineMinutes > 0 {
		deadline = time.Duration(req.DeadlineMinutes) * time.Minute
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	pool, err := h.svc.Create(c.Request.Context(), service.CreatePoolInput{
		OrganizerAccountID: req.OrganizerAccountID,
		PayeeAccountID:     req.PayeeAccountID,
		GoalAmount:         req.GoalAmount,
		Currency:           currency,
		Description:        req.Description,
		Deadline:           deadline,
		OnDeadlineMiss:     req.OnDeadlineMiss,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pool)
}

// List godoc
// @Summary List pools
// @Tags Pools
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} model.Pool
// @Router /v1/pools [get]
func (h *PoolHandler) List(c *gin.Context) {
	pools, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"object": "list", "data": pools, "count": len(pools)})
}

// Get godoc
// @Summary Fetch one pool
// @Tags Pools
// @Produce json
// @Param id path string true "Pool id"
// @Success 200 {object} model.Pool
// @Router /v1/pools/{id} [get]
func (h *PoolHandler) Get(c *gin.Context) {
	pool, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pool)
}

// Contributions godoc
// @Summary List a pool's contributions
// @Tags Pools
// @Produce json
// @Param id path string true "Pool id"
// @Success 200 {array} model.Contribution
// @Router /v1/pools/{id}/contributions [get]
func (h *PoolHandler) Contributions(c *gin.Context) {
	pool, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"object": "list", "data": pool.Contributions, "count": len(pool.Contributions)})
}

// Contribute godoc
// @Summary Contribute to a pool
// @Tags Pools
// @Accept json
// @Produce json
// @Param id path string true "Pool id"
// @Param request body request.ContributeRequest true "Contribution"
// @Success 200 {object} model.Pool
// @Router /v1/pools/{id}/contribute [post]
func (h *PoolHandler) Contribute(c *gin.Context) {
	var req request.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	pool, err := h.svc.Contribute(c.Request.Context(), c.Param("id"), req.PayerAccountID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pool)
}

// Cancel godoc
// @Summary Cancel a pool
// @Description Cancels the pool and reverses every contribution transfer
// @Tags Pools
// @Produce json
// @Param id path string true "Pool id"
// @Success 200 {object} model.Pool
// @Router /v1/pools/{id}/cancel [post]
func (h *PoolHandler) Cancel(c *gin.Context) {
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
