package httpapi

import (
	"net/http"

	"fincheck-controlplane/pkg/health"
	"fincheck-controlplane/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(NewRouter),
	fx.Invoke(registerOpsEndpoints),
)

// Router exposes the route groups services attach their handlers to.
type Router struct {
	Public *gin.RouterGroup
	User   *gin.RouterGroup
	Admin  *gin.RouterGroup
}

type RouterParams struct {
	fx.In
	Engine   *gin.Engine
	Enforcer *casbin.Enforcer
}

func NewRouter(p RouterParams) *Router {
	v1 := p.Engine.Group("/v1")
	return &Router{
		Public: v1,
		User:   v1.Group("", middleware.RequireUser()),
		Admin:  v1.Group("/admin", middleware.Authorize(p.Enforcer)),
	}
}

func registerOpsEndpoints(r *gin.Engine, h health.HealthService) {
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Fail hands err to the error middleware and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
