package scoring

import (
	"math"

	"fincheck-controlplane/pkg/errutil"
)

// Result is the part every formula shares. Formula results embed it so the
// JSON stays flat: {score, category, insights, ...}.
type Result struct {
	Score    int      `json:"score"`
	Category string   `json:"category"`
	Insights []string `json:"insights"`
}

type Allocation struct {
	Needs   int `json:"needs"`
	Wants   int `json:"wants"`
	Savings int `json:"savings"`
}

type FinancialHealthInput struct {
	Income          float64 `json:"income"`
	Housing         float64 `json:"housing"`
	Food            float64 `json:"food"`
	Transport       float64 `json:"transport"`
	Utilities       float64 `json:"utilities"`
	MandatoryDebt   float64 `json:"mandatory_debt"`
	LifestyleWants  float64 `json:"lifestyle_wants"`
	Entertainment   float64 `json:"entertainment"`
	Savings         float64 `json:"savings"`
	ExtraDebtPayoff float64 `json:"extra_debt_payoff"`
}

type FinancialHealthResult struct {
	Result
	Percentages  Allocation `json:"percentages"`
	Ideal        Allocation `json:"ideal"`
	Income       float64    `json:"income"`
	TotalNeeds   float64    `json:"total_needs"`
	TotalWants   float64    `json:"total_wants"`
	TotalSavings float64    `json:"total_savings"`
}

type RiskToleranceInput struct {
	Answers []int `json:"answers"`
}

type AssetAllocation struct {
	Equity      int `json:"equity"`
	FixedIncome int `json:"fixed_income"`
	Cash        int `json:"cash"`
}

type RiskToleranceResult struct {
	Result
	TotalScore int             `json:"total_score"`
	Allocation AssetAllocation `json:"allocation"`
}

type FinancialFreedomInput struct {
	MonthlyIncome       float64 `json:"monthly_income"`
	CurrentExpenses     float64 `json:"current_expenses"`
	TargetFiExpenses    float64 `json:"target_fi_expenses"`
	TotalInvestments    float64 `json:"total_investments"`
	MonthlySavings      float64 `json:"monthly_savings"`
	CurrentAge          int     `json:"current_age"`
	TargetFiAge         int     `json:"target_fi_age"`
	ExpectedReturn      float64 `json:"expected_return"`
	ConsumerDebt        float64 `json:"consumer_debt"`
	AnnualLargeExpenses float64 `json:"annual_large_expenses"`
	PassiveIncome       float64 `json:"passive_income"`
	Dependents          int     `json:"dependents"`
}

type FinancialFreedomResult struct {
	Result
	FiNumber         float64 `json:"fi_number"`
	AnnualFiExpenses float64 `json:"annual_fi_expenses"`
	NetWorth         float64 `json:"net_worth"`
	ProgressPercent  float64 `json:"progress_percent"`
	SavingsRate      float64 `json:"savings_rate"`
	YearsToFi        float64 `json:"years_to_fi"`
	ProjectedFiAge   int     `json:"projected_fi_age"`
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type validator struct {
	details []errutil.Detail
}

func (v *validator) nonNegative(field string, value float64) {
	switch {
	case math.IsNaN(value) || math.IsInf(value, 0):
		v.details = append(v.details, errutil.Detail{Field: field, Message: "must be a finite number"})
	case value < 0:
		v.details = append(v.details, errutil.Detail{Field: field, Message: "must not be negative"})
	}
}

func (v *validator) check(ok bool, field, message string) {
	if !ok {
		v.details = append(v.details, errutil.Detail{Field: field, Message: message})
	}
}

func (v *validator) err(msg string) error {
	if len(v.details) == 0 {
		return nil
	}
	return errutil.ValidationFailed(msg, nil, errutil.WithDetails(v.details...))
}
