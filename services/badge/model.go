package badge

import (
	"sort"
	"time"
)

type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Expression  string `json:"-"`
}

// UserBadge records a badge awarded to a user. A badge is awarded at most once.
type UserBadge struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_user_badges_user_badge" json:"user_id"`
	BadgeID   string    `gorm:"column:badge_id;not null;uniqueIndex:idx_user_badges_user_badge" json:"badge_id"`
	AwardedAt time.Time `gorm:"column:awarded_at;not null" json:"awarded_at"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

type EarnedBadge struct {
	Badge
	AwardedAt time.Time `json:"awarded_at"`
}

// Attempt is the slice of a test result the aggregate is built from.
type Attempt struct {
	Score     int
	XP        int
	Category  string
	CreatedAt time.Time
}

const (
	PerfectScore  = 100
	LowScoreBelow = 40
)

// Aggregate is the input every badge expression is evaluated against.
type Aggregate struct {
	Count              int64   `json:"count"`
	TotalXP            int64   `json:"total_xp"`
	Streak             int64   `json:"streak"`
	DistinctCategories int64   `json:"distinct_categories"`
	MaxScore           int64   `json:"max_score"`
	AverageScore       float64 `json:"average_score"`
	PerfectCount       int64   `json:"perfect_count"`
	LowScoreCount      int64   `json:"low_score_count"`
	// MaxScoreAfterLow is the best score taken strictly after the first low
	// score, zero when no attempt follows one.
	MaxScoreAfterLow int64    `json:"max_score_after_low"`
	Categories       []string `json:"categories"`
}

func (a Aggregate) vars() map[string]any {
	categories := a.Categories
	if categories == nil {
		categories = []string{}
	}
	return map[string]any{
		"count":               a.Count,
		"total_xp":            a.TotalXP,
		"streak":              a.Streak,
		"distinct_categories": a.DistinctCategories,
		"max_score":           a.MaxScore,
		"average_score":       a.AverageScore,
		"perfect_count":       a.PerfectCount,
		"low_score_count":     a.LowScoreCount,
		"max_score_after_low": a.MaxScoreAfterLow,
		"categories":          categories,
	}
}

// NewAggregate folds a user's attempts into an Aggregate. now anchors the
// streak calculation.
func NewAggregate(attempts []Attempt, now time.Time) Aggregate {
	agg := Aggregate{Count: int64(len(attempts))}
	if len(attempts) == 0 {
		return agg
	}

	ordered := make([]Attempt, len(attempts))
	copy(ordered, attempts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	seen := make(map[string]struct{})
	days := make([]time.Time, 0, len(ordered))
	var (
		sum      int64
		afterLow bool
	)
	for _, at := range ordered {
		score := int64(at.Score)
		sum += score
		agg.TotalXP += int64(at.XP)
		if score > agg.MaxScore {
			agg.MaxScore = score
		}
		if at.Score >= PerfectScore {
			agg.PerfectCount++
		}
		if afterLow && score > agg.MaxScoreAfterLow {
			agg.MaxScoreAfterLow = score
		}
		if at.Score < LowScoreBelow {
			agg.LowScoreCount++
			afterLow = true
		}
		if at.Category != "" {
			if _, ok := seen[at.Category]; !ok {
				seen[at.Category] = struct{}{}
				agg.Categories = append(agg.Categories, at.Category)
			}
		}
		days = append(days, at.CreatedAt)
	}

	sort.Strings(agg.Categories)
	agg.DistinctCategories = int64(len(agg.Categories))
	agg.AverageScore = float64(sum) / float64(agg.Count)
	agg.Streak = int64(Streak(days, now))
	return agg
}

// Streak counts consecutive UTC days with at least one activity, ending today
// or yesterday. Anything older breaks the streak.
func Streak(activity []time.Time, now time.Time) int {
	if len(activity) == 0 {
		return 0
	}

	daySet := make(map[time.Time]struct{}, len(activity))
	for _, ts := range activity {
		daySet[truncateDay(ts)] = struct{}{}
	}

	day := truncateDay(now)
	if _, ok := daySet[day]; !ok {
		day = day.AddDate(0, 0, -1)
		if _, ok := daySet[day]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := daySet[day]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func truncateDay(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
