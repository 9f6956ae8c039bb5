package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"flowpay/internal/handler/request"
	"flowpay/internal/handler/response"
	"flowpay/internal/service"
	"flowpay/internal/store"
	"flowpay/pkg/errno"
	"flowpay/pkg/validator"
)

const defaultCollectExpiry = 24 * time.Hour

type CollectHandler struct {
	svc *service.CollectService
}

func NewCollectHandler(svc *service.CollectService) *CollectHandler {
	return &CollectHandler{svc: svc}
}

// Create godoc
// @Summary Create a collect request
// @Description Creates a pending pull-payment request awaiting payer approval
// @Tags Collects
// @Accept json
// @Produce json
// @Param request body request.CreateCollectRequest true "Collect parameters"
// @Success 201 {object} model.Collect
// @Router /v1/collects [post]
func (h *CollectHandler) Create(c *gin.Context) {
	var req request.CreateCollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	expiresIn := defaultCollectExpiry
	if req.ExpiresInMinutes > 0 {
		expiresIn = time.Duration(req.ExpiresInMinutes) * time.Minute
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	collect, err := h.svc.Create(c.Request.Context(), service.CreateCollectInput{
		PayeeAccountID: req.PayeeAccountID,
		PayerAccountID: req.PayerAccountID,
		Amount:         req.Amount,
		Currency:       currency,
		Description:    req.Description,
		ExpiresIn:      expiresIn,
		Metadata:       req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, collect)
}

// List godoc
// @Summary List collect requests
// @Tags Collects
// @Produce json
// @Param payer_id query string false "Filter by payer account"
// @Param payee_id query string false "Filter by payee account"
// @Param status query string false "Filter by status"
// @Success 200 {array} model.Collect
// @Router /v1/collects [get]
func (h *CollectHandler) List(c *gin.Context) {
	var q request.ListCollectsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	collects, err := h.svc.List(c.Request.Context(), store.CollectFilter{
		PayerID: q.PayerID,
		PayeeID: q.PayeeID,
		Status:  q.Status,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"object": "list", "data": collects, "count": len(collects)})
}

// Get godoc
// @Summary Fetch one collect
// @Tags Collects
// @Produce json
// @Param id path string true "Collect id"
// @Success 200 {object} model.Collect
// @Router /v1/collects/{id} [get]
func (h *CollectHandler) Get(c *gin.Context) {
	collect, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, collect)
}

// Approve godoc
// @Summary Approve a collect
// @Description Executes the transfer payer → payee and marks the collect approved
// @Tags Collects
// @Produce json
// @Param id path string true "Collect id"
// @Success 200 {object} model.Collect
// @Router /v1/collects/{id}/approve [post]
func (h *CollectHandler) Approve(c *gin.Context) {
	collect, err := h.svc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, collect)
}

// Decline godoc
// @Summary Decline a collect
// @Tags Collects
// @Accept json
// @Produce json
// @Param id path string true "Collect id"
// @Param reason query string false "Decline reason"
// @Success 200 {object} model.Collect
// @Router /v1/collects/{id}/decline [post]
func (h *CollectHandler) Decline(c *gin.Context) {
	reason := c.Query("reason")
	if reason == "" {
		var req request.DeclineCollectRequest
		// Body is optional; ignore bind errors on an absent body.
		_ = c.ShouldBindJSON(&req)
		reason = req.Reason
	}

	collect, err := h.svc.Decline(c.Request.Context(), c.Param("id"), reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, collect)
}
