package badge

import (
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
	r.Public.GET("/badges", h.Catalogue)
	r.User.GET("/me/badges", h.Earned)
}

func (h *Handler) Catalogue(c *gin.Context) {
	httpapi.OK(c, "", h.svc.Catalogue())
}

func (h *Handler) Earned(c *gin.Context) {
	out, err := h.svc.ListEarned(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", out)
}
