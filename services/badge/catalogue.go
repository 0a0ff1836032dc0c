package badge

// Catalogue is evaluated in this order and new badges are reported in it.
var Catalogue = []Badge{
	{ID: "first_step", Name: "First Step", Icon: "footprints",
		Description: "Complete your first assessment.",
		Expression:  `count >= 1`},
	{ID: "getting_started", Name: "Getting Started", Icon: "rocket",
		Description: "Complete five assessments.",
		Expression:  `count >= 5`},
	{ID: "dedicated_learner", Name: "Dedicated Learner", Icon: "book",
		Description: "Complete twenty-five assessments.",
		Expression:  `count >= 25`},
	{ID: "high_achiever", Name: "High Achiever", Icon: "star",
		Description: "Score 90 or higher on any assessment.",
		Expression:  `max_score >= 90`},
	{ID: "perfectionist", Name: "Perfectionist", Icon: "trophy",
		Description: "Score a perfect 100.",
		Expression:  `perfect_count >= 1`},
	{ID: "explorer", Name: "Explorer", Icon: "compass",
		Description: "Take assessments in three different categories.",
		Expression:  `distinct_categories >= 3`},
	{ID: "money_mindful", Name: "Money Mindful", Icon: "wallet",
		Description: "Check both your financial health and your financial freedom.",
		Expression:  `"financial_health" in categories && "financial_freedom" in categories`},
	{ID: "streak_3", Name: "On a Roll", Icon: "flame",
		Description: "Take an assessment three days in a row.",
		Expression:  `streak >= 3`},
	{ID: "streak_7", Name: "Week Warrior", Icon: "calendar",
		Description: "Take an assessment seven days in a row.",
		Expression:  `streak >= 7`},
	{ID: "xp_500", Name: "XP Collector", Icon: "gem",
		Description: "Earn 500 XP.",
		Expression:  `total_xp >= 500`},
	{ID: "comeback", Name: "Comeback", Icon: "arrow-up",
		Description: "Bounce back to a score of 80 or higher after scoring below 40.",
		Expression:  `max_score_after_low >= 80`},
	{ID: "master", Name: "Master", Icon: "crown",
		Description: "Average 85 or higher across at least fifty assessments.",
		Expression:  `average_score >= 85.0 && count >= 50`},
}
