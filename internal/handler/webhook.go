package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"flowpay/internal/handler/request"
	"flowpay/internal/handler/response"
	"flowpay/internal/service"
	"flowpay/pkg/errno"
	"flowpay/pkg/validator"
)

type WebhookHandler struct {
	svc *service.WebhookService
}

func NewWebhookHandler(svc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

// Subscribe godoc
// @Summary Register a webhook subscription
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param request body request.SubscribeRequest true "Subscription"
// @Success 201 {object} model.WebhookSubscription
// @Router /v1/webhooks [post]
func (h *WebhookHandler) Subscribe(c *gin.Context) {
	var req request.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	sub, err := h.svc.Subscribe(c.Request.Context(), req.URL, req.Events)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// List godoc
// @Summary List webhook subscriptions
// @Tags Webhooks
// @Produce json
// @Success 200 {array} model.WebhookSubscription
// @Router /v1/webhooks [get]
func (h *WebhookHandler) List(c *gin.Context) {
	subs, err := h.svc.ListSubscriptions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"object": "list", "data": subs, "count": len(subs)})
}

// Events godoc
// @Summary List recent domain events
// @Tags Webhooks
// @Produce json
// @Param limit query int false "Max events to return"
// @Success 200 {array} model.Event
// @Router /v1/events [get]
func (h *WebhookHandler) Events(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.svc.ListEvents(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"object": "list", "data": events, "count": len(events)})
}
