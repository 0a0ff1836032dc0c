package scoring

import (
	"math"
	"math/rand"
	"testing"

	"fincheck-controlplane/pkg/errutil"

	"github.com/stretchr/testify/require"
)

func TestFinancialHealthExample(t *testing.T) {
	res, err := FinancialHealth(FinancialHealthInput{
		Income:         10_000_000,
		Housing:        3_000_000,
		Food:           1_500_000,
		Transport:      700_000,
		Utilities:      500_000,
		MandatoryDebt:  300_000,
		LifestyleWants: 1_200_000,
		Entertainment:  800_000,
		Savings:        2_000_000,
	})
	require.NoError(t, err)

	require.Equal(t, 70, res.Score)
	require.Equal(t, CategoryHealthy, res.Category)
	require.Equal(t, Allocation{Needs: 60, Wants: 20, Savings: 20}, res.Percentages)
	require.Equal(t, Allocation{Needs: 50, Wants: 30, Savings: 20}, res.Ideal)
	require.Equal(t, 6_000_000.0, res.TotalNeeds)
	require.Len(t, res.Insights, 1)
	require.Contains(t, res.Insights[0], "above the 50% guideline")
}

func TestFinancialHealthCrisisInsights(t *testing.T) {
	res, err := FinancialHealth(FinancialHealthInput{
		Income:         5_000_000,
		Housing:        3_500_000,
		LifestyleWants: 2_000_000,
	})
	require.NoError(t, err)

	// needs 70, wants 40, savings 0: 100 - 60 - 20 - 80
	require.Equal(t, 0, res.Score)
	require.Equal(t, CategoryCrisis, res.Category)
	require.Len(t, res.Insights, 4)
	require.Contains(t, res.Insights[1], "Wants take 40%")
	require.Contains(t, res.Insights[2], "You save 0%")
}

func TestFinancialHealthBonusesAndPraise(t *testing.T) {
	res, err := FinancialHealth(FinancialHealthInput{
		Income:  10_000_000,
		Housing: 3_000_000,
		Savings: 4_000_000,
	})
	require.NoError(t, err)
	require.Equal(t, 100, res.Score)
	require.Equal(t, CategoryVeryHealthy, res.Category)
	require.Len(t, res.Insights, 2)
	require.Contains(t, res.Insights[1], "Great work")
}

func TestFinancialHealthZeroIncome(t *testing.T) {
	res, err := FinancialHealth(FinancialHealthInput{})
	require.NoError(t, err)
	require.Equal(t, Allocation{}, res.Percentages)
	// income clamps to 1; savings penalty 80, low-needs bonus 10
	require.Equal(t, 30, res.Score)
}

func TestFinancialHealthHugeRatioSaturates(t *testing.T) {
	res, err := FinancialHealth(FinancialHealthInput{Income: 0, Housing: 1e17})
	require.NoError(t, err)
	require.Equal(t, maxSharePct, res.Percentages.Needs)
	require.Equal(t, 0, res.Score)
	require.Equal(t, CategoryCrisis, res.Category)
	require.Contains(t, res.Insights[0], "above the 50% guideline")
}

func TestFinancialHealthRejectsInfinity(t *testing.T) {
	_, err := FinancialHealth(FinancialHealthInput{Income: 100, Savings: math.Inf(1)})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))
}

func TestFinancialHealthRejectsNegative(t *testing.T) {
	_, err := FinancialHealth(FinancialHealthInput{Income: 100, Food: -1})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))
}

func TestFinancialHealthScoreBoundsAndCategory(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		in := FinancialHealthInput{
			Income:         float64(rng.Intn(20_000_000)),
			Housing:        float64(rng.Intn(8_000_000)),
			Food:           float64(rng.Intn(4_000_000)),
			Transport:      float64(rng.Intn(2_000_000)),
			LifestyleWants: float64(rng.Intn(5_000_000)),
			Savings:        float64(rng.Intn(8_000_000)),
		}
		res, err := FinancialHealth(in)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Score, 0)
		require.LessOrEqual(t, res.Score, 100)
		require.Equal(t, healthCategory(res.Score), res.Category)
	}
}

func TestHealthCategoryLadder(t *testing.T) {
	cases := map[int]string{
		100: CategoryVeryHealthy,
		90:  CategoryVeryHealthy,
		89:  CategoryHealthy,
		70:  CategoryHealthy,
		50:  CategoryFair,
		30:  CategoryNeedsImprovement,
		29:  CategoryCrisis,
		0:   CategoryCrisis,
	}
	for score, want := range cases {
		require.Equal(t, want, healthCategory(score), "score %d", score)
	}
}

func TestRiskToleranceModerate(t *testing.T) {
	res, err := RiskTolerance(RiskToleranceInput{Answers: []int{3, 3, 3, 3, 3, 3, 3, 3, 3, 3}})
	require.NoError(t, err)

	require.Equal(t, 30, res.TotalScore)
	require.Equal(t, 50, res.Score)
	require.Equal(t, ProfileModerate, res.Category)
	require.Equal(t, AssetAllocation{Equity: 50, FixedIncome: 40, Cash: 10}, res.Allocation)
	require.Len(t, res.Insights, 1)
	require.Contains(t, res.Insights[0], "50% equities")
}

func TestRiskToleranceExtremes(t *testing.T) {
	high, err := RiskTolerance(RiskToleranceInput{Answers: []int{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}})
	require.NoError(t, err)
	require.Equal(t, 100, high.Score)
	require.Equal(t, ProfileAggressive, high.Category)
	require.Len(t, high.Insights, 5)
	require.Equal(t, riskInsights[0].high, high.Insights[0])

	low, err := RiskTolerance(RiskToleranceInput{Answers: []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}})
	require.NoError(t, err)
	require.Equal(t, 0, low.Score)
	require.Equal(t, ProfileConservative, low.Category)
	require.Equal(t, riskInsights[3].low, low.Insights[3])
}

func TestRiskToleranceValidation(t *testing.T) {
	_, err := RiskTolerance(RiskToleranceInput{Answers: []int{3, 3, 3}})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))

	_, err = RiskTolerance(RiskToleranceInput{Answers: []int{3, 3, 3, 3, 3, 3, 3, 3, 3, 6}})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))

	_, err = RiskTolerance(RiskToleranceInput{Answers: []int{0, 3, 3, 3, 3, 3, 3, 3, 3, 3}})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))
}

func TestRiskToleranceBoundsAndAllocations(t *testing.T) {
	for profile, a := range allocations {
		require.Equal(t, 100, a.Equity+a.FixedIncome+a.Cash, profile)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		answers := make([]int, RiskQuestionCount)
		for j := range answers {
			answers[j] = rng.Intn(5) + 1
		}
		res, err := RiskTolerance(RiskToleranceInput{Answers: answers})
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.TotalScore, 10)
		require.LessOrEqual(t, res.TotalScore, 50)
		require.GreaterOrEqual(t, res.Score, 0)
		require.LessOrEqual(t, res.Score, 100)
		require.Equal(t, riskProfile(res.TotalScore), res.Category)
	}
}

func baseFreedomInput() FinancialFreedomInput {
	return FinancialFreedomInput{
		MonthlyIncome:    20_000_000,
		CurrentExpenses:  12_000_000,
		TargetFiExpenses: 10_000_000,
		MonthlySavings:   5_000_000,
		CurrentAge:       30,
		TargetFiAge:      50,
		ExpectedReturn:   7,
	}
}

func TestFinancialFreedomNoInvestments(t *testing.T) {
	res, err := FinancialFreedom(baseFreedomInput())
	require.NoError(t, err)
	require.Equal(t, 0.0, res.ProgressPercent)
	require.Equal(t, 3_000_000_000.0, res.FiNumber)
	require.Equal(t, CategoryStartingOut, res.Category)
}

func TestFinancialFreedomAlreadyIndependent(t *testing.T) {
	in := baseFreedomInput()
	in.TotalInvestments = 3_500_000_000

	res, err := FinancialFreedom(in)
	require.NoError(t, err)
	require.Equal(t, 100.0, res.ProgressPercent)
	require.Equal(t, 0.0, res.YearsToFi)
	require.Equal(t, 30, res.ProjectedFiAge)
	require.Equal(t, CategoryFinancialIndependence, res.Category)
	// 100*0.6 + 25*0.4, no schedule bonus at zero years
	require.Equal(t, 70, res.Score)
	require.Len(t, res.Insights, 3)
}

func TestFinancialFreedomProjection(t *testing.T) {
	in := baseFreedomInput()
	in.TotalInvestments = 1_000_000_000

	res, err := FinancialFreedom(in)
	require.NoError(t, err)
	require.InDelta(t, 33.33, res.ProgressPercent, 0.01)
	require.Equal(t, 17.5, res.YearsToFi)
	require.Equal(t, 48, res.ProjectedFiAge)
	require.Equal(t, CategoryBuildingMomentum, res.Category)
	require.Equal(t, 50, res.Score)
	require.Len(t, res.Insights, 4)
	require.Contains(t, res.Insights[2], "at age 48")
}

func TestFinancialFreedomDebtAndSentinel(t *testing.T) {
	in := baseFreedomInput()
	in.TotalInvestments = 100_000_000
	in.ConsumerDebt = 150_000_000
	in.MonthlySavings = 0

	res, err := FinancialFreedom(in)
	require.NoError(t, err)
	require.Equal(t, 0.0, res.NetWorth)
	require.Equal(t, NeverReachesFI, res.YearsToFi)
	require.Len(t, res.Insights, 4)
	require.Contains(t, res.Insights[2], "Consumer debt")
}

func TestYearsToFI(t *testing.T) {
	require.Equal(t, 5.9, yearsToFI(1_000_000, 12, 10_000))
	require.Equal(t, 0.0, yearsToFI(-5, 12, 10_000))
	require.Equal(t, NeverReachesFI, yearsToFI(1_000, 0, 10_000))
}

func TestFinancialFreedomValidation(t *testing.T) {
	cases := map[string]func(*FinancialFreedomInput){
		"negative investments": func(in *FinancialFreedomInput) { in.TotalInvestments = -1 },
		"too young":            func(in *FinancialFreedomInput) { in.CurrentAge = 10 },
		"target before now":    func(in *FinancialFreedomInput) { in.TargetFiAge = 30 },
		"return out of range":  func(in *FinancialFreedomInput) { in.ExpectedReturn = 31 },
	}
	for name, mutate := range cases {
		in := baseFreedomInput()
		mutate(&in)
		_, err := FinancialFreedom(in)
		require.True(t, errutil.Is(err, errutil.StatusValidationFailed), name)
	}
}
