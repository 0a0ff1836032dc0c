package result

import (
	"time"

	"fincheck-controlplane/services/badge"

	"gorm.io/datatypes"
)

type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
	LevelExpert Level = "Expert"

	levelExpertMin = 90
	levelHighMin   = 70
	levelMediumMin = 40

	MinScore = 0
	MaxScore = 100

	// XPPerLevel is how much XP one player level takes.
	XPPerLevel = 100
)

type DimensionScore struct {
	Subject string `json:"subject"`
	Score   int    `json:"score"`
}

// TestResult is one submitted assessment. Rows are never updated.
type TestResult struct {
	ID              string                              `gorm:"column:id;primaryKey" json:"id"`
	UserID          string                              `gorm:"column:user_id;index:idx_test_results_user_created;not null" json:"user_id"`
	TestID          string                              `gorm:"column:test_id;not null" json:"test_id"`
	TestTitle       string                              `gorm:"column:test_title" json:"test_title"`
	Category        string                              `gorm:"column:category;index" json:"category"`
	Score           int                                 `gorm:"column:score;not null" json:"score"`
	Level           Level                               `gorm:"column:level;not null" json:"level"`
	XPEarned        int                                 `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	Answers         datatypes.JSON                      `gorm:"column:answers" json:"answers,omitempty"`
	DimensionScores datatypes.JSONSlice[DimensionScore] `gorm:"column:dimension_scores" json:"dimension_scores,omitempty"`
	CreatedAt       time.Time                           `gorm:"column:created_at;index:idx_test_results_user_created;not null" json:"created_at"`
}

func (r *TestResult) attempt() badge.Attempt {
	return badge.Attempt{
		Score:     r.Score,
		XP:        r.XPEarned,
		Category:  r.Category,
		CreatedAt: r.CreatedAt,
	}
}

type SubmitRequest struct {
	UserID          string           `json:"-"`
	TestID          string           `json:"test_id" binding:"required"`
	TestTitle       string           `json:"test_title"`
	Category        string           `json:"category"`
	Score           int              `json:"score"`
	Answers         datatypes.JSON   `json:"answers"`
	DimensionScores []DimensionScore `json:"dimension_scores"`
}

type SubmitResponse struct {
	Result    *TestResult   `json:"result"`
	NewBadges []badge.Badge `json:"new_badges"`
}

type Summary struct {
	UserID             string   `json:"user_id"`
	TotalTests         int64    `json:"total_tests"`
	TotalXP            int64    `json:"total_xp"`
	PlayerLevel        int64    `json:"player_level"`
	AverageScore       float64  `json:"average_score"`
	BestScore          int64    `json:"best_score"`
	Streak             int64    `json:"streak"`
	DistinctCategories int64    `json:"distinct_categories"`
	Categories         []string `json:"categories"`
}

type Period string

const (
	PeriodAllTime Period = "all"
	PeriodWeekly  Period = "weekly"
)

type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	UserID  string `json:"user_id"`
	TotalXP int64  `json:"total_xp"`
}

// XPRules decide how much XP a score earns.
type XPRules struct {
	BaseXP         int
	PerfectBonusXP int
}

var DefaultXPRules = XPRules{BaseXP: 10, PerfectBonusXP: 25}

// XPFor returns BaseXP + score/2, plus the perfect bonus at 100.
func (r XPRules) XPFor(score int) int {
	xp := r.BaseXP + score/2
	if score >= MaxScore {
		xp += r.PerfectBonusXP
	}
	return xp
}

func LevelFor(score int) Level {
	switch {
	case score >= levelExpertMin:
		return LevelExpert
	case score >= levelHighMin:
		return LevelHigh
	case score >= levelMediumMin:
		return LevelMedium
	default:
		return LevelLow
	}
}

func PlayerLevel(totalXP int64) int64 {
	if totalXP < 0 {
		totalXP = 0
	}
	return 1 + totalXP/XPPerLevel
}
