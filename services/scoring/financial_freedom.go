package scoring

import (
	"fmt"
	"math"
)

const (
	CategoryFinancialIndependence = "financial_independence"
	CategoryOnTrack               = "on_track"
	CategoryBuildingMomentum      = "building_momentum"
	CategoryEarlyStage            = "early_stage"
	CategoryStartingOut           = "starting_out"

	SafeWithdrawalRate = 0.04
	NeverReachesFI     = 99.0

	fiIndependenceMin = 80
	fiOnTrackMin      = 50
	fiMomentumMin     = 25
	fiEarlyStageMin   = 10

	fiProgressWeight   = 0.6
	fiSavingsWeight    = 0.4
	fiSavingsRateCap   = 50
	fiOnScheduleBonus  = 20
	fiMinAge           = 15
	fiMaxAge           = 100
	fiMaxExpectedRetPc = 30

	savingsRateExceptional = 50
	savingsRateStrong      = 30
	savingsRateSolid       = 20
)

var fiClosing = map[string]string{
	CategoryFinancialIndependence: "You are at or near financial independence. Focus on preserving capital and a sustainable withdrawal plan.",
	CategoryOnTrack:               "You are on track. Keep contributions consistent and review your allocation once a year.",
	CategoryBuildingMomentum:      "Your momentum is building. Raising your savings rate even slightly will shorten the road to FI.",
	CategoryEarlyStage:            "You are in the early stage. Automate monthly investing so progress happens without effort.",
	CategoryStartingOut:           "Start with an emergency fund, clear consumer debt, then invest a fixed share of every paycheck.",
}

// FinancialFreedom measures progress toward financial independence using the
// 4% rule and projects the years left at the current savings pace.
func FinancialFreedom(in FinancialFreedomInput) (*FinancialFreedomResult, error) {
	v := &validator{}
	v.nonNegative("monthly_income", in.MonthlyIncome)
	v.nonNegative("current_expenses", in.CurrentExpenses)
	v.nonNegative("target_fi_expenses", in.TargetFiExpenses)
	v.nonNegative("total_investments", in.TotalInvestments)
	v.nonNegative("monthly_savings", in.MonthlySavings)
	v.nonNegative("consumer_debt", in.ConsumerDebt)
	v.nonNegative("annual_large_expenses", in.AnnualLargeExpenses)
	v.nonNegative("passive_income", in.PassiveIncome)
	v.check(in.Dependents >= 0, "dependents", "must not be negative")
	v.check(in.CurrentAge >= fiMinAge && in.CurrentAge <= fiMaxAge, "current_age",
		fmt.Sprintf("must be between %d and %d", fiMinAge, fiMaxAge))
	v.check(in.TargetFiAge >= fiMinAge && in.TargetFiAge <= fiMaxAge, "target_fi_age",
		fmt.Sprintf("must be between %d and %d", fiMinAge, fiMaxAge))
	v.check(in.TargetFiAge > in.CurrentAge, "target_fi_age", "must be greater than current_age")
	v.check(in.ExpectedReturn >= 0 && in.ExpectedReturn <= fiMaxExpectedRetPc, "expected_return",
		fmt.Sprintf("must be between 0 and %d", fiMaxExpectedRetPc))
	if err := v.err("invalid financial freedom input"); err != nil {
		return nil, err
	}

	annualFiExpenses := in.TargetFiExpenses*12 + in.AnnualLargeExpenses

	fiNumber := 0.0
	if annualFiExpenses > 0 {
		fiNumber = annualFiExpenses / SafeWithdrawalRate
	}

	netWorth := math.Max(0, in.TotalInvestments-in.ConsumerDebt)

	progress := 0.0
	if fiNumber > 0 {
		progress = clamp(100*netWorth/fiNumber, 0, 100)
	}

	savingsRate := 0.0
	if in.MonthlyIncome > 0 {
		savingsRate = clamp(100*in.MonthlySavings/in.MonthlyIncome, 0, 100)
	}

	years := yearsToFI(fiNumber-netWorth, in.ExpectedReturn, in.MonthlySavings)
	projectedAge := int(math.Round(float64(in.CurrentAge) + years))

	score := int(math.Round(progress*fiProgressWeight + math.Min(fiSavingsRateCap, savingsRate)*fiSavingsWeight))
	if years > 0 && years <= float64(in.TargetFiAge-in.CurrentAge) {
		score += fiOnScheduleBonus
	}
	score = clampInt(score, 0, 100)

	category := fiCategory(progress)

	insights := make([]string, 0, 5)
	insights = append(insights, fmt.Sprintf(
		"You have reached %.1f%% of your FI number of %.0f (25x your annual expenses of %.0f).",
		progress, fiNumber, annualFiExpenses))
	insights = append(insights, savingsRateInsight(savingsRate))
	if years > 0 && years < NeverReachesFI {
		if projectedAge <= in.TargetFiAge {
			insights = append(insights, fmt.Sprintf(
				"At this pace you reach FI in about %.1f years, at age %d, on or before your target age of %d.",
				years, projectedAge, in.TargetFiAge))
		} else {
			insights = append(insights, fmt.Sprintf(
				"At this pace you reach FI in about %.1f years, at age %d, %d years after your target age of %d.",
				years, projectedAge, projectedAge-in.TargetFiAge, in.TargetFiAge))
		}
	}
	if in.ConsumerDebt > 0 {
		insights = append(insights, fmt.Sprintf(
			"Consumer debt of %.0f reduces your net worth. Paying it off first is a guaranteed return.",
			in.ConsumerDebt))
	}
	insights = append(insights, fiClosing[category])

	return &FinancialFreedomResult{
		Result: Result{
			Score:    score,
			Category: category,
			Insights: insights,
		},
		FiNumber:         fiNumber,
		AnnualFiExpenses: annualFiExpenses,
		NetWorth:         netWorth,
		ProgressPercent:  progress,
		SavingsRate:      savingsRate,
		YearsToFi:        years,
		ProjectedFiAge:   projectedAge,
	}, nil
}

// yearsToFI solves the future value of a monthly annuity for the number of
// periods. The existing net worth is already subtracted from remaining and is
// not compounded separately.
func yearsToFI(remaining, expectedReturnPct, monthlySavings float64) float64 {
	if remaining <= 0 {
		return 0
	}

	monthlyReturn := math.Pow(1+expectedReturnPct/100, 1.0/12) - 1

	years := NeverReachesFI
	if monthlySavings > 0 && monthlyReturn > 0 {
		years = math.Log(1+remaining*monthlyReturn/monthlySavings) / math.Log(1+monthlyReturn) / 12
	}

	return math.Max(0, math.Round(years*10)/10)
}

func fiCategory(progress float64) string {
	switch {
	case progress >= fiIndependenceMin:
		return CategoryFinancialIndependence
	case progress >= fiOnTrackMin:
		return CategoryOnTrack
	case progress >= fiMomentumMin:
		return CategoryBuildingMomentum
	case progress >= fiEarlyStageMin:
		return CategoryEarlyStage
	default:
		return CategoryStartingOut
	}
}

func savingsRateInsight(rate float64) string {
	switch {
	case rate >= savingsRateExceptional:
		return fmt.Sprintf("Your savings rate of %.0f%% is exceptional and puts early retirement within reach.", rate)
	case rate >= savingsRateStrong:
		return fmt.Sprintf("Your savings rate of %.0f%% is strong. Keep it steady as your income grows.", rate)
	case rate >= savingsRateSolid:
		return fmt.Sprintf("Your savings rate of %.0f%% is solid, but every extra percent shortens your timeline.", rate)
	default:
		return fmt.Sprintf("Your savings rate of %.0f%% is low. Aim to save at least %d%% of your income.", rate, savingsRateSolid)
	}
}
