package handler

import (
	"github.com/gin-gonic/gin"

	"flowpay/internal/handler/request"
	"flowpay/internal/handler/response"
	"flowpay/internal/service"
	"flowpay/internal/store"
	"flowpay/pkg/errno"
	"flowpay/pkg/validator"
)

type RecurringHandler struct {
	svc *service.RecurringService
}

func NewRecurringHandler(svc *service.RecurringService) *RecurringHandler {
	return &RecurringHandler{svc: svc}
}

// Create godoc
// @Summary Create a recurring collect
// @Description Sets up a pre-authorized subscription pull on a schedule
// @Tags Recurring
// @Accept json
// @Produce json
// @Param request body request.CreateRecurringRequest true "Recurring parameters"
// @Success 201 {object} model.RecurringCollect
// @Router /v1/recurring [post]
func (h *RecurringHandler) Create(c *gin.Context) {
	var req request.CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	r, err := h.svc.Create(c.Request.Context(), service.CreateRecurringInput{
		PayeeAccountID: req.PayeeAccountID,
		PayerAccountID: req.PayerAccountID,
		Amount:         req.Amount,
		Currency:       currency,
		Description:    req.Description,
		Interval:       req.Interval,
		MaxOccurrences: req.MaxOccurrences,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, r)
}

// List godoc
// @Summary List recurring collects
// @Tags Recurring
// @Produce json
// @Param payer_id query string false "Filter by payer account"
// @Param payee_id query string false "Filter by payee account"
// @Param status query string false "Filter by status"
// @Success 200 {array} model.RecurringCollect
// @Router /v1/recurring [get]
func (h *RecurringHandler) List(c *gin.Context) {
	var q request.ListRecurringQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	items, err := h.svc.List(c.Request.Context(), store.RecurringFilter{
		PayerID: q.PayerID,
		PayeeID: q.PayeeID,
		Status:  q.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"object": "list", "data": items, "count": len(items)})
}

// Get godoc
// @Summary Fetch one recurring collect
// @Tags Recurring
// @Produce json
// @Param id path string true "Recurring collect id"
// @Success 200 {object} model.RecurringCollect
// @Router /v1/recurring/{id} [get]
func (h *RecurringHandler) Get(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, r)
}

// Trigger godoc
// @Summary Execute one occurrence now
// @Tags Recurring
// @Produce json
// @Param id path string true "Recurring collect id"
// @Success 200 {object} model.RecurringCollect
// @Router /v1/recurring/{id}/trigger [post]
func (h *RecurringHandler) Trigger(c *gin.Context) {
	r, err := h.svc.Trigger(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, r)
}

// Pause godoc
// @Summary Pause a recurring collect
// @Tags Recurring
// @Produce json
// @Param id path string true "Recurring collect id"
// @Success 200 {object} model.RecurringCollect
// @Router /v1/recurring/{id}/pause [post]
func (h *RecurringHandler) Pause(c *gin.Context) {
	r, err := h.svc.Pause(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, r)
}

// Resume godoc
// @Summary Resume a paused recurring collect
// @Tags Recurring
// @Produce json
// @Param id path string true "Recurring collect id"
// @Success 200 {object} model.RecurringCollect
// @Router /v1/recurring/{id}/resume [post]
func (h *RecurringHandler) Resume(c *gin.Context) {
	r, err := h.svc.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, r)
}

// Cancel godoc
// @Summary Cancel a recurring collect
// @Tags Recurring
// @Produce json
// @Param id path string true "Recurring collect id"
// @Success 200 {object} model.RecurringCollect
// @Router /v1/recurring/{id}/cancel [post]
func (h *RecurringHandler) Cancel(c *gin.Context) {
	r, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, r)
}
