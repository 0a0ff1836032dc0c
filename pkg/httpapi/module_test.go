package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fincheck-controlplane/pkg/accesscontrol"
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	enforcer, err := accesscontrol.NewDefaultEnforcer()
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(middleware.Error())
	r := NewRouter(RouterParams{Engine: engine, Enforcer: enforcer})

	r.Public.GET("/ping", func(c *gin.Context) { OK(c, "pong", gin.H{"n": 1}) })
	r.User.GET("/me", func(c *gin.Context) { OK(c, "", middleware.UserID(c)) })
	r.Admin.GET("/stats", func(c *gin.Context) { OK(c, "", nil) })
	r.Public.GET("/missing", func(c *gin.Context) { Fail(c, errutil.NotFound("thing not found", nil)) })
	return engine
}

func do(engine *gin.Engine, path string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestEnvelope(t *testing.T) {
	w, body := do(newEngine(t), "/v1/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "pong", body["message"])
	require.Equal(t, map[string]any{"n": float64(1)}, body["data"])
}

func TestFailRendersError(t *testing.T) {
	w, body := do(newEngine(t), "/v1/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, false, body["success"])
	require.Equal(t, "thing not found", body["message"])
}

func TestUserGroupRequiresIdentity(t *testing.T) {
	engine := newEngine(t)

	w, _ := do(engine, "/v1/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := do(engine, "/v1/me", map[string]string{middleware.HeaderUserID: "u-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "u-1", body["data"])
}

func TestAdminGroupRequiresRole(t *testing.T) {
	engine := newEngine(t)

	w, _ := do(engine, "/v1/admin/stats", map[string]string{middleware.HeaderUserRole: accesscontrol.RoleUser})
	require.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(engine, "/v1/admin/stats", map[string]string{middleware.HeaderUserRole: accesscontrol.RoleAdmin})
	require.Equal(t, http.StatusOK, w.Code)
}
