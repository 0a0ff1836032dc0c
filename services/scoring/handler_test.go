package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fincheck-controlplane/pkg/httpapi"
	"fincheck-controlplane/pkg/middleware"
	"fincheck-controlplane/services/result"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

type fakeRecorder struct {
	reqs []result.SubmitRequest
}

func (f *fakeRecorder) Submit(_ context.Context, req result.SubmitRequest) (*result.SubmitResponse, error) {
	f.reqs = append(f.reqs, req)
	return &result.SubmitResponse{Result: &result.TestResult{ID: "r-1", Score: req.Score}}, nil
}

func newRouter(rec Recorder) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Error())
	v1 := r.Group("/v1")
	RegisterRoutes(&httpapi.Router{Public: v1, User: v1, Admin: v1}, &Handler{results: rec})
	return r
}

func post(r *gin.Engine, path string, body any, userID string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRiskToleranceEndpointAnonymous(t *testing.T) {
	rec := &fakeRecorder{}
	w := post(newRouter(rec), "/v1/scoring/risk-tolerance", RiskToleranceInput{Answers: []int{3, 3, 3, 3, 3, 3, 3, 3, 3, 3}}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, float64(50), body["score"])
	require.Equal(t, ProfileModerate, body["category"])
	require.Equal(t, float64(30), body["total_score"])
	require.NotContains(t, body, "submission")
	require.Empty(t, rec.reqs)
}

func TestFinancialHealthEndpointRecords(t *testing.T) {
	rec := &fakeRecorder{}
	w := post(newRouter(rec), "/v1/scoring/financial-health", FinancialHealthInput{
		Income: 10_000_000, Housing: 6_000_000, LifestyleWants: 2_000_000, Savings: 2_000_000,
	}, "u-1")
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, rec.reqs, 1)
	require.Equal(t, "u-1", rec.reqs[0].UserID)
	require.Equal(t, TestFinancialHealth, rec.reqs[0].TestID)
	require.Equal(t, 70, rec.reqs[0].Score)
	require.Len(t, rec.reqs[0].DimensionScores, 3)
	require.Contains(t, w.Body.String(), `"submission"`)
}

func TestFinancialFreedomEndpointValidation(t *testing.T) {
	w := post(newRouter(&fakeRecorder{}), "/v1/scoring/financial-freedom", FinancialFreedomInput{CurrentAge: 40, TargetFiAge: 30}, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "target_fi_age")
}
