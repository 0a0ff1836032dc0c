package payment

import (
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/httpapi"
	"fincheck-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(r *httpapi.Router, h *Handler) {
	r.Public.POST("/payments/notifications", h.Notify)

	r.User.POST("/payments/quote", h.Quote)
	r.User.GET("/payments/:order_id", h.Get)
}

func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid request body", err))
		return
	}
	req.UserID = middleware.UserID(c)

	p, err := h.svc.Quote(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.Created(c, "payment created", p)
}

func (h *Handler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("order_id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", p)
}

func (h *Handler) Notify(c *gin.Context) {
	var n Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid notification body", err))
		return
	}

	p, err := h.svc.HandleNotification(c.Request.Context(), n)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "notification processed", gin.H{"order_id": p.OrderID, "status": p.Status})
}
