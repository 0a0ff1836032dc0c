package scoring

import (
	"fmt"
	"math"
)

const (
	ProfileAggressive             = "aggressive"
	ProfileModeratelyAggressive   = "moderately_aggressive"
	ProfileModerate               = "moderate"
	ProfileModeratelyConservative = "moderately_conservative"
	ProfileConservative           = "conservative"

	RiskQuestionCount = 10
	riskAnswerMin     = 1
	riskAnswerMax     = 5

	riskTotalMin = RiskQuestionCount * riskAnswerMin
	riskTotalMax = RiskQuestionCount * riskAnswerMax

	riskAggressiveMin             = 42
	riskModeratelyAggressiveMin   = 34
	riskModerateMin               = 26
	riskModeratelyConservativeMin = 18

	riskHighAnswer = 4
	riskLowAnswer  = 2

	// answer positions that drive insights
	timeHorizonIdx   = 1
	experienceIdx    = 4
	emergencyFundIdx = 6
	dependentsIdx    = 8
)

var allocations = map[string]AssetAllocation{
	ProfileAggressive:             {Equity: 80, FixedIncome: 15, Cash: 5},
	ProfileModeratelyAggressive:   {Equity: 70, FixedIncome: 25, Cash: 5},
	ProfileModerate:               {Equity: 50, FixedIncome: 40, Cash: 10},
	ProfileModeratelyConservative: {Equity: 30, FixedIncome: 55, Cash: 15},
	ProfileConservative:           {Equity: 15, FixedIncome: 60, Cash: 25},
}

type answerInsight struct {
	index int
	high  string
	low   string
}

var riskInsights = []answerInsight{
	{
		index: timeHorizonIdx,
		high:  "Your long investment horizon lets you ride out short-term market swings.",
		low:   "Your short investment horizon calls for keeping more money in stable assets.",
	},
	{
		index: experienceIdx,
		high:  "Your investing experience helps you stay disciplined when markets fall.",
		low:   "Build investing experience gradually, starting with diversified funds.",
	},
	{
		index: emergencyFundIdx,
		high:  "A solid emergency fund gives you room to take more investment risk.",
		low:   "Build an emergency fund of three to six months of expenses before investing aggressively.",
	},
	{
		index: dependentsIdx,
		high:  "Few people depend on your income, which increases your capacity for risk.",
		low:   "People depend on your income, so protect the downside with insurance and stable assets.",
	},
}

// RiskTolerance scores a ten-question questionnaire and maps it to an asset
// allocation profile.
func RiskTolerance(in RiskToleranceInput) (*RiskToleranceResult, error) {
	v := &validator{}
	v.check(len(in.Answers) == RiskQuestionCount, "answers", fmt.Sprintf("exactly %d answers are required", RiskQuestionCount))
	for i, a := range in.Answers {
		v.check(a >= riskAnswerMin && a <= riskAnswerMax, fmt.Sprintf("answers[%d]", i),
			fmt.Sprintf("must be between %d and %d", riskAnswerMin, riskAnswerMax))
	}
	if err := v.err("invalid risk tolerance answers"); err != nil {
		return nil, err
	}

	total := 0
	for _, a := range in.Answers {
		total += a
	}

	normalized := int(math.Round(float64(total-riskTotalMin) / float64(riskTotalMax-riskTotalMin) * 100))
	normalized = clampInt(normalized, 0, 100)

	profile := riskProfile(total)
	alloc := allocations[profile]

	insights := make([]string, 0, len(riskInsights)+1)
	for _, ri := range riskInsights {
		switch answer := in.Answers[ri.index]; {
		case answer >= riskHighAnswer:
			insights = append(insights, ri.high)
		case answer <= riskLowAnswer:
			insights = append(insights, ri.low)
		}
	}
	insights = append(insights, fmt.Sprintf(
		"Recommended allocation for a %s investor: %d%% equities, %d%% fixed income and %d%% cash.",
		ProfileLabel(profile), alloc.Equity, alloc.FixedIncome, alloc.Cash))

	return &RiskToleranceResult{
		Result: Result{
			Score:    normalized,
			Category: profile,
			Insights: insights,
		},
		TotalScore: total,
		Allocation: alloc,
	}, nil
}

func riskProfile(total int) string {
	switch {
	case total >= riskAggressiveMin:
		return ProfileAggressive
	case total >= riskModeratelyAggressiveMin:
		return ProfileModeratelyAggressive
	case total >= riskModerateMin:
		return ProfileModerate
	case total >= riskModeratelyConservativeMin:
		return ProfileModeratelyConservative
	default:
		return ProfileConservative
	}
}

func ProfileLabel(profile string) string {
	switch profile {
	case ProfileAggressive:
		return "aggressive"
	case ProfileModeratelyAggressive:
		return "moderately aggressive"
	case ProfileModerate:
		return "moderate"
	case ProfileModeratelyConservative:
		return "moderately conservative"
	default:
		return "conservative"
	}
}
