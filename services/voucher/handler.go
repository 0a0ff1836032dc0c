package voucher

import (
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/httpapi"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(r *httpapi.Router, h *Handler) {
	r.User.GET("/vouchers/validate/:code", h.Validate)

	r.Admin.POST("/vouchers", h.Create)
	r.Admin.POST("/vouchers/generate", h.Generate)
	r.Admin.GET("/vouchers", h.List)
	r.Admin.GET("/vouchers/:id", h.Get)
	r.Admin.POST("/vouchers/:id/activate", h.setActive(true))
	r.Admin.POST("/vouchers/:id/deactivate", h.setActive(false))
}

func (h *Handler) Validate(c *gin.Context) {
	v, err := h.svc.Validate(c.Request.Context(), c.Param("code"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "voucher is valid", v)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid request body", err))
		return
	}

	v, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.Created(c, "voucher created", v)
}

func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid request body", err))
		return
	}

	out, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.Created(c, "vouchers generated", out)
}

func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid query", err))
		return
	}

	rows, info, err := h.svc.List(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", gin.H{"items": rows, "page_info": info})
}

func (h *Handler) Get(c *gin.Context) {
	v, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", v)
}

func (h *Handler) setActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), active)
		if err != nil {
			httpapi.Fail(c, err)
			return
		}
		httpapi.OK(c, "voucher updated", v)
	}
}
