package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fincheck-controlplane/pkg/accesscontrol"
	"fincheck-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	e, err := accesscontrol.NewDefaultEnforcer()
	require.NoError(t, err)

	r := gin.New()
	r.Use(Error())
	r.GET("/v1/me", RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	r.GET("/v1/conflict", func(c *gin.Context) {
		_ = c.Error(errutil.Conflict("withdrawal already processed", nil))
	})
	r.GET("/v1/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("db down"))
	})
	r.GET("/v1/admin/vouchers", Authorize(e), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorRendersBaseError(t *testing.T) {
	w := do(newRouter(t), "/v1/conflict", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "withdrawal already processed", body["message"])
}

func TestErrorHidesPlainErrors(t *testing.T) {
	w := do(newRouter(t), "/v1/plain", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "db down")
}

func TestRequireUser(t *testing.T) {
	r := newRouter(t)

	require.Equal(t, http.StatusUnauthorized, do(r, "/v1/me", nil).Code)

	w := do(r, "/v1/me", map[string]string{HeaderUserID: "u-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "u-1")
}

func TestAuthorize(t *testing.T) {
	r := newRouter(t)

	require.Equal(t, http.StatusForbidden, do(r, "/v1/admin/vouchers", map[string]string{HeaderUserRole: "user"}).Code)
	require.Equal(t, http.StatusNoContent, do(r, "/v1/admin/vouchers", map[string]string{HeaderUserRole: "admin"}).Code)
}
