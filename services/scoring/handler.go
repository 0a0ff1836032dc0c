package scoring

import (
	"context"
	"encoding/json"
	"net/http"

	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/httpapi"
	"fincheck-controlplane/pkg/middleware"
	"fincheck-controlplane/services/result"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	TestFinancialHealth  = "financial_health"
	TestRiskTolerance    = "risk_tolerance"
	TestFinancialFreedom = "financial_freedom"
)

// Recorder stores a scored assessment for the caller.
type Recorder interface {
	Submit(ctx context.Context, req result.SubmitRequest) (*result.SubmitResponse, error)
}

type Handler struct {
	results Recorder
}

type HandlerParams struct {
	fx.In
	Results *result.Service
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{results: p.Results}
}

// RegisterRoutes exposes the formulas publicly. Callers identified by the
// auth proxy also get the result recorded.
func RegisterRoutes(r *httpapi.Router, h *Handler) {
	g := r.Public.Group("/scoring")
	g.POST("/financial-health", h.FinancialHealth)
	g.POST("/risk-tolerance", h.RiskTolerance)
	g.POST("/financial-freedom", h.FinancialFreedom)
}

func (h *Handler) record(c *gin.Context, testID, title string, res Result, raw any, dims []result.DimensionScore) *result.SubmitResponse {
	userID := c.GetHeader(middleware.HeaderUserID)
	if userID == "" {
		return nil
	}

	answers, err := json.Marshal(raw)
	if err != nil {
		zap.L().Warn("failed to encode answers", zap.String("test_id", testID), zap.Error(err))
	}

	resp, err := h.results.Submit(c.Request.Context(), result.SubmitRequest{
		UserID:          userID,
		TestID:          testID,
		TestTitle:       title,
		Category:        testID,
		Score:           res.Score,
		Answers:         answers,
		DimensionScores: dims,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return nil
	}
	return resp
}

func (h *Handler) FinancialHealth(c *gin.Context) {
	var in FinancialHealthInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid request body", err))
		return
	}

	res, err := FinancialHealth(in)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	sub := h.record(c, TestFinancialHealth, "Financial Health Check", res.Result, in, []result.DimensionScore{
		{Subject: "needs", Score: res.Percentages.Needs},
		{Subject: "wants", Score: res.Percentages.Wants},
		{Subject: "savings", Score: res.Percentages.Savings},
	})
	if c.IsAborted() {
		return
	}

	c.JSON(http.StatusOK, struct {
		*FinancialHealthResult
		Submission *result.SubmitResponse `json:"submission,omitempty"`
	}{res, sub})
}

func (h *Handler) RiskTolerance(c *gin.Context) {
	var in RiskToleranceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid request body", err))
		return
	}

	res, err := RiskTolerance(in)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	sub := h.record(c, TestRiskTolerance, "Risk Tolerance Profile", res.Result, in, []result.DimensionScore{
		{Subject: "equity", Score: res.Allocation.Equity},
		{Subject: "fixed_income", Score: res.Allocation.FixedIncome},
		{Subject: "cash", Score: res.Allocation.Cash},
	})
	if c.IsAborted() {
		return
	}

	c.JSON(http.StatusOK, struct {
		*RiskToleranceResult
		Submission *result.SubmitResponse `json:"submission,omitempty"`
	}{res, sub})
}

func (h *Handler) FinancialFreedom(c *gin.Context) {
	var in FinancialFreedomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid request body", err))
		return
	}

	res, err := FinancialFreedom(in)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	sub := h.record(c, TestFinancialFreedom, "Financial Freedom Calculator", res.Result, in, []result.DimensionScore{
		{Subject: "progress", Score: int(res.ProgressPercent + 0.5)},
		{Subject: "savings_rate", Score: int(res.SavingsRate + 0.5)},
	})
	if c.IsAborted() {
		return
	}

	c.JSON(http.StatusOK, struct {
		*FinancialFreedomResult
		Submission *result.SubmitResponse `json:"submission,omitempty"`
	}{res, sub})
}
