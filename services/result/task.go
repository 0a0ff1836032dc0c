package result

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

const leaderboardRebuildUniqueTTL = 10 * time.Minute

func (s *Service) HandleLeaderboardRebuild(ctx context.Context, _ *asynq.Task) error {
	_, err := s.RebuildLeaderboard(ctx)
	return err
}
