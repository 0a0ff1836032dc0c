package middleware

import (
	"errors"
	"net/http"

	"fincheck-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last error attached with c.Error once the handler chain
// has run, unless the handler already wrote a response.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var be errutil.BaseError
		if errors.As(err, &be) {
			if be.Code.HTTPStatus() >= http.StatusInternalServerError {
				zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
			}
			c.JSON(be.Code.HTTPStatus(), be.JSON())
			return
		}

		zap.L().Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errutil.BaseError{
			Code:    errutil.StatusInternal,
			Message: "internal server error",
		}.JSON())
	}
}

func Recovery(c *gin.Context, recovered any) {
	zap.L().Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(http.StatusInternalServerError, errutil.BaseError{
		Code:    errutil.StatusInternal,
		Message: "internal server error",
	}.JSON())
}
