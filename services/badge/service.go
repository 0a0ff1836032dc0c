package badge

import (
	"context"
	"sort"
	"time"

	"fincheck-controlplane/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	evaluator *Evaluator
	now       func() time.Time

	userBadge repository.Repository[UserBadge]
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Evaluator *Evaluator
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		evaluator: p.Evaluator,
		now:       time.Now,

		userBadge: repository.ProvideStore[UserBadge](p.DB),
	}
}

func (s *Service) Catalogue() []Badge {
	return s.evaluator.Badges()
}

func (s *Service) held(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := s.userBadge.Find(ctx, &UserBadge{UserID: userID})
	if err != nil {
		return nil, err
	}
	held := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		held[r.BadgeID] = struct{}{}
	}
	return held, nil
}

// Award evaluates the user's attempts, persists newly earned badges and
// returns them. Running it again without new attempts awards nothing.
func (s *Service) Award(ctx context.Context, userID string, attempts []Attempt) ([]Badge, error) {
	logger := zap.L().With(zap.String("user_id", userID))

	held, err := s.held(ctx, userID)
	if err != nil {
		logger.Error("failed to load user badges", zap.Error(err))
		return nil, err
	}

	now := s.now()
	earned, err := s.evaluator.Evaluate(NewAggregate(attempts, now), held)
	if err != nil {
		logger.Error("failed to evaluate badges", zap.Error(err))
		return nil, err
	}
	if len(earned) == 0 {
		return earned, nil
	}

	// A concurrent submission may award the same badge between the read
	// above and the insert; only rows this call inserted are returned.
	awarded := make([]Badge, 0, len(earned))
	ids := make([]string, 0, len(earned))
	for _, b := range earned {
		row := &UserBadge{
			ID:        s.node.Generate().String(),
			UserID:    userID,
			BadgeID:   b.ID,
			AwardedAt: now,
		}
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		if res.Error != nil {
			logger.Error("failed to persist user badge", zap.String("badge_id", b.ID), zap.Error(res.Error))
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		awarded = append(awarded, b)
		ids = append(ids, b.ID)
	}
	if len(awarded) == 0 {
		return awarded, nil
	}
	logger.Info("badges awarded", zap.Strings("badges", ids))

	return awarded, nil
}

// ListEarned returns the user's badges oldest first, ties broken by catalogue
// order. Badges retired from the catalogue are skipped.
func (s *Service) ListEarned(ctx context.Context, userID string) ([]EarnedBadge, error) {
	rows, err := s.userBadge.Find(ctx, &UserBadge{UserID: userID})
	if err != nil {
		return nil, err
	}

	awarded := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		awarded[r.BadgeID] = r.AwardedAt
	}

	out := make([]EarnedBadge, 0, len(rows))
	for _, b := range s.evaluator.Badges() {
		if at, ok := awarded[b.ID]; ok {
			out = append(out, EarnedBadge{Badge: b, AwardedAt: at})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AwardedAt.Before(out[j].AwardedAt)
	})
	return out, nil
}
