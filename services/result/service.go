package result

import (
	"context"
	"fmt"
	"time"

	"fincheck-controlplane/pkg/config"
	"fincheck-controlplane/pkg/db/option"
	"fincheck-controlplane/pkg/db/pagination"
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/repository"
	"fincheck-controlplane/services/badge"
	"fincheck-controlplane/services/notification"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxLeaderboardLimit = 100

// BadgeAwarder evaluates and persists badges for a user's history.
type BadgeAwarder interface {
	Award(ctx context.Context, userID string, attempts []badge.Attempt) ([]badge.Badge, error)
}

type Notifier interface {
	Notify(ctx context.Context, payloads ...notification.Payload)
}

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	badges   BadgeAwarder
	ranker   Ranker
	notifier Notifier
	xp       XPRules
	topN     int
	now      func() time.Time

	testResult repository.Repository[TestResult]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Config   *config.Config
	Badges   *badge.Service
	Ranker   Ranker
	Notifier *notification.Dispatcher
}

func NewService(p ServiceParams) *Service {
	xp := DefaultXPRules
	topN := 10
	if p.Config != nil {
		xp = XPRules{BaseXP: p.Config.Scoring.BaseXP, PerfectBonusXP: p.Config.Scoring.PerfectBonusXP}
		if p.Config.Scoring.LeaderboardTop > 0 {
			topN = p.Config.Scoring.LeaderboardTop
		}
	}

	return &Service{
		db:       p.DB,
		node:     p.Node,
		badges:   p.Badges,
		ranker:   p.Ranker,
		notifier: p.Notifier,
		xp:       xp,
		topN:     topN,
		now:      time.Now,

		testResult: repository.ProvideStore[TestResult](p.DB),
	}
}

// Submit records a scored assessment, awards XP and any newly earned badges.
// Leaderboard and badge failures are logged; the stored result stands and the
// next submission re-evaluates badges.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	logger := zap.L().With(zap.String("user_id", req.UserID), zap.String("test_id", req.TestID))

	if req.UserID == "" || req.TestID == "" {
		return nil, errutil.ValidationFailed("user_id and test_id are required", nil)
	}
	if req.Score < MinScore || req.Score > MaxScore {
		return nil, errutil.ValidationFailed(fmt.Sprintf("score must be between %d and %d", MinScore, MaxScore), nil,
			errutil.WithDetails(errutil.Detail{Field: "score", Message: "out of range"}))
	}

	res := &TestResult{
		ID:              s.node.Generate().String(),
		UserID:          req.UserID,
		TestID:          req.TestID,
		TestTitle:       req.TestTitle,
		Category:        req.Category,
		Score:           req.Score,
		Level:           LevelFor(req.Score),
		XPEarned:        s.xp.XPFor(req.Score),
		Answers:         req.Answers,
		DimensionScores: req.DimensionScores,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.testResult.Create(ctx, res); err != nil {
		logger.Error("failed to create test result", zap.Error(err))
		return nil, err
	}

	if err := s.ranker.Add(ctx, res.UserID, int64(res.XPEarned), res.CreatedAt); err != nil {
		logger.Warn("failed to update leaderboard", zap.Error(err))
	}

	earned := make([]badge.Badge, 0)
	history, err := s.attempts(ctx, req.UserID)
	if err != nil {
		logger.Error("failed to load history for badges", zap.Error(err))
	} else if earned, err = s.badges.Award(ctx, req.UserID, history); err != nil {
		logger.Error("failed to award badges", zap.Error(err))
		earned = make([]badge.Badge, 0)
	}

	for _, b := range earned {
		s.notifier.Notify(ctx, notification.ForUser(req.UserID, notification.TypeBadgeEarned,
			"New badge unlocked", fmt.Sprintf("You earned the %s badge.", b.Name),
			map[string]any{"badge_id": b.ID, "test_result_id": res.ID}))
	}

	logger.Info("test result submitted",
		zap.String("result_id", res.ID),
		zap.Int("score", res.Score),
		zap.Int("xp", res.XPEarned),
		zap.Int("new_badges", len(earned)),
	)

	return &SubmitResponse{Result: res, NewBadges: earned}, nil
}

func (s *Service) attempts(ctx context.Context, userID string) ([]badge.Attempt, error) {
	rows, err := s.testResult.Find(ctx, &TestResult{UserID: userID}, func(db *gorm.DB) *gorm.DB {
		return db.Select("score", "xp_earned", "category", "created_at").Order("created_at ASC")
	})
	if err != nil {
		return nil, err
	}

	out := make([]badge.Attempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.attempt())
	}
	return out, nil
}

func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	history, err := s.attempts(ctx, userID)
	if err != nil {
		return nil, err
	}

	agg := badge.NewAggregate(history, s.now())
	categories := agg.Categories
	if categories == nil {
		categories = []string{}
	}

	return &Summary{
		UserID:             userID,
		TotalTests:         agg.Count,
		TotalXP:            agg.TotalXP,
		PlayerLevel:        PlayerLevel(agg.TotalXP),
		AverageScore:       agg.AverageScore,
		BestScore:          agg.MaxScore,
		Streak:             agg.Streak,
		DistinctCategories: agg.DistinctCategories,
		Categories:         categories,
	}, nil
}

func (s *Service) History(ctx context.Context, userID string, p pagination.Pagination) ([]*TestResult, *pagination.PageInfo, error) {
	keyset, err := p.Keyset()
	if err != nil {
		return nil, nil, errutil.BadRequest("invalid cursor", err)
	}

	rows, err := s.testResult.Find(ctx, &TestResult{UserID: userID}, keyset)
	if err != nil {
		return nil, nil, err
	}

	page, info := pagination.BuildCursorPageInfo(rows, p.Size(), func(r *TestResult) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return page, info, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*TestResult, error) {
	res, err := s.testResult.FindOne(ctx, &TestResult{ID: id, UserID: userID})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errutil.NotFound("test result not found", nil)
	}
	return res, nil
}

// Leaderboard reads the ranked XP board, falling back to summing test results
// when the ranker is unavailable.
func (s *Service) Leaderboard(ctx context.Context, period Period, limit int) ([]LeaderboardEntry, error) {
	if period == "" {
		period = PeriodAllTime
	}
	if period != PeriodAllTime && period != PeriodWeekly {
		return nil, errutil.ValidationFailed("period must be all or weekly", nil)
	}
	if limit <= 0 {
		limit = s.topN
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	now := s.now()
	entries, err := s.ranker.Top(ctx, period, now, limit)
	if err == nil {
		return entries, nil
	}

	zap.L().Warn("ranker unavailable, computing leaderboard from database", zap.String("period", string(period)), zap.Error(err))
	return s.leaderboardFromDB(ctx, period, now, limit)
}

func (s *Service) leaderboardFromDB(ctx context.Context, period Period, now time.Time, limit int) ([]LeaderboardEntry, error) {
	var rows []struct {
		UserID  string
		TotalXP int64
	}

	q := s.db.WithContext(ctx).Model(&TestResult{}).
		Select("user_id, SUM(xp_earned) AS total_xp").
		Group("user_id").
		Order("total_xp DESC").
		Order("user_id ASC")
	if period == PeriodWeekly {
		q = q.Where("created_at >= ?", weekStart(now))
	}
	q = option.WithLimit(limit)(q)

	if err := q.Scan(&rows).Error; err != nil {
		zap.L().Error("failed to aggregate leaderboard", zap.Error(err))
		return nil, err
	}

	out := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		out = append(out, LeaderboardEntry{Rank: i + 1, UserID: r.UserID, TotalXP: r.TotalXP})
	}
	return out, nil
}

// RebuildLeaderboard recomputes the all-time board from the database.
func (s *Service) RebuildLeaderboard(ctx context.Context) (int, error) {
	entries, err := s.leaderboardFromDB(ctx, PeriodAllTime, s.now(), 0)
	if err != nil {
		return 0, err
	}
	if err := s.ranker.Replace(ctx, entries); err != nil {
		zap.L().Error("failed to replace leaderboard", zap.Error(err))
		return 0, err
	}
	zap.L().Info("leaderboard rebuilt", zap.Int("users", len(entries)))
	return len(entries), nil
}

// weekStart returns Monday 00:00 UTC of the ISO week containing t.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
