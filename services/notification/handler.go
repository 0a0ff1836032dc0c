package notification

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
	r.User.GET("/notifications", h.ListMine)
	r.User.POST("/notifications/:id/read", h.MarkRead)
	r.Admin.GET("/notifications", h.ListAdmin)
}

func (h *Handler) list(c *gin.Context, req ListRequest) {
	if err := c.ShouldBindQuery(&req.Pagination); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid pagination", err))
		return
	}

	rows, info, err := h.svc.List(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", gin.H{"items": rows, "page_info": info})
}

func (h *Handler) ListMine(c *gin.Context) {
	h.list(c, ListRequest{UserID: middleware.UserID(c)})
}

func (h *Handler) ListAdmin(c *gin.Context) {
	h.list(c, ListRequest{IsAdmin: true})
}

func (h *Handler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "notification marked as read", nil)
}
