package affiliate

import (
	"fincheck-controlplane/pkg/db/pagination"
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
	r.Public.GET("/affiliate/settings", h.GetSettings)
	r.Public.GET("/affiliate/validate/:code", h.Validate)

	r.User.POST("/affiliate/register", h.Register)
	r.User.GET("/affiliate/dashboard", h.Dashboard)
	r.User.GET("/affiliate/referrals", h.ListReferrals)
	r.User.POST("/affiliate/withdrawals", h.RequestWithdrawal)
	r.User.GET("/affiliate/withdrawals", h.ListMyWithdrawals)

	r.Admin.GET("/affiliates", h.ListAffiliates)
	r.Admin.POST("/affiliates/:id/activate", h.setActive(true))
	r.Admin.POST("/affiliates/:id/deactivate", h.setActive(false))
	r.Admin.GET("/withdrawals", h.ListWithdrawals)
	r.Admin.POST("/withdrawals/:id/approve", h.process(ActionApprove))
	r.Admin.POST("/withdrawals/:id/reject", h.process(ActionReject))
	r.Admin.PUT("/affiliate/settings", h.UpdateSettings)
}

func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.svc.GetSettings(c.Request.Context())
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", s)
}

func (h *Handler) Validate(c *gin.Context) {
	v, err := h.svc.ValidateReferralCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "referral code is valid", v)
}

func (h *Handler) Register(c *gin.Context) {
	aff, err := h.svc.Register(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.Created(c, "affiliate registration received, awaiting activation", aff)
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", d)
}

func (h *Handler) ListReferrals(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid pagination", err))
		return
	}

	rows, info, err := h.svc.ListReferrals(c.Request.Context(), middleware.UserID(c), p)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", gin.H{"items": rows, "page_info": info})
}

func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid request body", err))
		return
	}
	req.UserID = middleware.UserID(c)

	w, err := h.svc.RequestWithdrawal(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.Created(c, "withdrawal requested", w)
}

func (h *Handler) listWithdrawals(c *gin.Context, userID string) {
	var req ListWithdrawalsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid query", err))
		return
	}
	req.UserID = userID

	rows, info, err := h.svc.ListWithdrawals(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", gin.H{"items": rows, "page_info": info})
}

func (h *Handler) ListMyWithdrawals(c *gin.Context) {
	h.listWithdrawals(c, middleware.UserID(c))
}

func (h *Handler) ListWithdrawals(c *gin.Context) {
	h.listWithdrawals(c, "")
}

func (h *Handler) ListAffiliates(c *gin.Context) {
	var req ListAffiliatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid pagination", err))
		return
	}

	rows, info, err := h.svc.ListAffiliates(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", gin.H{"items": rows, "page_info": info})
}

func (h *Handler) setActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		aff, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), active)
		if err != nil {
			httpapi.Fail(c, err)
			return
		}
		httpapi.OK(c, "affiliate status updated", aff)
	}
}

func (h *Handler) process(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProcessRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				httpapi.Fail(c, errutil.ValidationFailed("invalid request body", err))
				return
			}
		}
		req.WithdrawalID = c.Param("id")
		req.Action = action

		w, err := h.svc.ProcessWithdrawal(c.Request.Context(), req)
		if err != nil {
			httpapi.Fail(c, err)
			return
		}
		httpapi.OK(c, "withdrawal "+string(w.Status), w)
	}
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid request body", err))
		return
	}

	s, err := h.svc.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "affiliate settings updated", s)
}
