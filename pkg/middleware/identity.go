package middleware

import (
	"fincheck-controlplane/pkg/errutil"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Headers injected by the auth proxy in front of the API.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	userIDKey = "user_id"
)

// RequireUser rejects requests without an authenticated user and stores the
// user id on the context.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader(HeaderUserID)
		if uid == "" {
			_ = c.Error(errutil.Unauthorized("missing user identity", nil))
			c.Abort()
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// Authorize checks the caller's role against the casbin policy for the
// request path and method.
func Authorize(e *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetHeader(HeaderUserRole)
		ok, err := e.Enforce(role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			zap.L().Error("policy evaluation failed", zap.Error(err))
			_ = c.Error(errutil.Internal("authorization unavailable", err))
			c.Abort()
			return
		}
		if !ok {
			_ = c.Error(errutil.Forbidden("insufficient role", nil))
			c.Abort()
			return
		}
		if uid := c.GetHeader(HeaderUserID); uid != "" {
			c.Set(userIDKey, uid)
		}
		c.Next()
	}
}
