package scoring

import (
	"fmt"
	"math"
)

const (
	CategoryVeryHealthy      = "very_healthy"
	CategoryHealthy          = "healthy"
	CategoryFair             = "fair"
	CategoryNeedsImprovement = "needs_improvement"
	CategoryCrisis           = "crisis"

	healthVeryHealthyMin      = 90
	healthHealthyMin          = 70
	healthFairMin             = 50
	healthNeedsImprovementMin = 30

	idealNeedsPct   = 50
	idealWantsPct   = 30
	idealSavingsPct = 20

	needsPenaltyWeight   = 3
	wantsPenaltyWeight   = 2
	savingsPenaltyWeight = 4

	lowNeedsBonusBelow    = 40
	lowNeedsBonus         = 10
	highSavingsBonusAbove = 30
	highSavingsBonus      = 20
	savingsPraiseMin      = 30

	// percentages are capped so a near-zero income cannot overflow int
	maxSharePct = 1_000_000
)

// FinancialHealth scores a monthly budget against the 50/30/20 rule.
func FinancialHealth(in FinancialHealthInput) (*FinancialHealthResult, error) {
	v := &validator{}
	v.nonNegative("income", in.Income)
	v.nonNegative("housing", in.Housing)
	v.nonNegative("food", in.Food)
	v.nonNegative("transport", in.Transport)
	v.nonNegative("utilities", in.Utilities)
	v.nonNegative("mandatory_debt", in.MandatoryDebt)
	v.nonNegative("lifestyle_wants", in.LifestyleWants)
	v.nonNegative("entertainment", in.Entertainment)
	v.nonNegative("savings", in.Savings)
	v.nonNegative("extra_debt_payoff", in.ExtraDebtPayoff)
	if err := v.err("invalid financial health input"); err != nil {
		return nil, err
	}

	income := in.Income
	if income == 0 {
		income = 1
	}

	totalNeeds := in.Housing + in.Food + in.Transport + in.Utilities + in.MandatoryDebt
	totalWants := in.LifestyleWants + in.Entertainment
	totalSavings := in.Savings + in.ExtraDebtPayoff

	pct := Allocation{
		Needs:   sharePct(totalNeeds, income),
		Wants:   sharePct(totalWants, income),
		Savings: sharePct(totalSavings, income),
	}

	score := 100
	if pct.Needs > idealNeedsPct {
		score -= (pct.Needs - idealNeedsPct) * needsPenaltyWeight
	}
	if pct.Wants > idealWantsPct {
		score -= (pct.Wants - idealWantsPct) * wantsPenaltyWeight
	}
	if pct.Savings < idealSavingsPct {
		score -= (idealSavingsPct - pct.Savings) * savingsPenaltyWeight
	}
	if pct.Needs < lowNeedsBonusBelow {
		score += lowNeedsBonus
	}
	if pct.Savings > highSavingsBonusAbove {
		score += highSavingsBonus
	}
	score = clampInt(score, 0, 100)

	category := healthCategory(score)

	return &FinancialHealthResult{
		Result: Result{
			Score:    score,
			Category: category,
			Insights: healthInsights(pct, category),
		},
		Percentages:  pct,
		Ideal:        Allocation{Needs: idealNeedsPct, Wants: idealWantsPct, Savings: idealSavingsPct},
		Income:       in.Income,
		TotalNeeds:   totalNeeds,
		TotalWants:   totalWants,
		TotalSavings: totalSavings,
	}, nil
}

func sharePct(amount, income float64) int {
	return int(math.Round(math.Min(100*amount/income, maxSharePct)))
}

func healthCategory(score int) string {
	switch {
	case score >= healthVeryHealthyMin:
		return CategoryVeryHealthy
	case score >= healthHealthyMin:
		return CategoryHealthy
	case score >= healthFairMin:
		return CategoryFair
	case score >= healthNeedsImprovementMin:
		return CategoryNeedsImprovement
	default:
		return CategoryCrisis
	}
}

func healthInsights(pct Allocation, category string) []string {
	insights := make([]string, 0, 4)

	if pct.Needs > idealNeedsPct {
		insights = append(insights, fmt.Sprintf(
			"Needs take %d%% of your income, above the %d%% guideline. Review fixed costs such as housing, transport and debt installments.",
			pct.Needs, idealNeedsPct))
	} else {
		insights = append(insights, fmt.Sprintf(
			"Needs take %d%% of your income, within the %d%% guideline.",
			pct.Needs, idealNeedsPct))
	}

	if pct.Wants > idealWantsPct {
		insights = append(insights, fmt.Sprintf(
			"Wants take %d%% of your income, above the %d%% guideline. Trimming lifestyle and entertainment spending frees money for savings.",
			pct.Wants, idealWantsPct))
	}

	switch {
	case pct.Savings < idealSavingsPct:
		insights = append(insights, fmt.Sprintf(
			"You save %d%% of your income. Aim for at least %d%% to build an emergency fund and long-term wealth.",
			pct.Savings, idealSavingsPct))
	case pct.Savings >= savingsPraiseMin:
		insights = append(insights, fmt.Sprintf(
			"Great work: you save %d%% of your income, well above the %d%% target.",
			pct.Savings, idealSavingsPct))
	}

	if category == CategoryCrisis || category == CategoryNeedsImprovement {
		insights = append(insights,
			"Write down a monthly budget, pause non-essential spending and build an emergency fund before taking on new commitments.")
	}

	return insights
}
