package result

import (
	"context"
	"fmt"
	"time"

	"fincheck-controlplane/pkg/rediskey"

	"github.com/redis/go-redis/v9"
)

// Ranker keeps XP leaderboards outside the database.
type Ranker interface {
	Add(ctx context.Context, userID string, xp int64, at time.Time) error
	Top(ctx context.Context, period Period, at time.Time, limit int) ([]LeaderboardEntry, error)
	Replace(ctx context.Context, entries []LeaderboardEntry) error
}

const weeklyBoardTTL = 15 * 24 * time.Hour

type redisRanker struct {
	rdb *redis.Client
}

func NewRedisRanker(rdb *redis.Client) Ranker {
	return &redisRanker{rdb: rdb}
}

func boardKey(period Period, at time.Time) string {
	if period == PeriodWeekly {
		year, week := at.UTC().ISOWeek()
		return rediskey.BuildWeeklyLeaderboardKey(year, week)
	}
	return rediskey.BuildLeaderboardKey(rediskey.LeaderboardXPBoard)
}

func (r *redisRanker) Add(ctx context.Context, userID string, xp int64, at time.Time) error {
	weekly := boardKey(PeriodWeekly, at)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZIncrBy(ctx, boardKey(PeriodAllTime, at), float64(xp), userID)
		pipe.ZIncrBy(ctx, weekly, float64(xp), userID)
		pipe.Expire(ctx, weekly, weeklyBoardTTL)
		return nil
	})
	return err
}

func (r *redisRanker) Top(ctx context.Context, period Period, at time.Time, limit int) ([]LeaderboardEntry, error) {
	members, err := r.rdb.ZRevRangeWithScores(ctx, boardKey(period, at), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]LeaderboardEntry, 0, len(members))
	for i, m := range members {
		uid, ok := m.Member.(string)
		if !ok {
			uid = fmt.Sprint(m.Member)
		}
		out = append(out, LeaderboardEntry{Rank: i + 1, UserID: uid, TotalXP: int64(m.Score)})
	}
	return out, nil
}

// Replace swaps the all-time board for entries in one step.
func (r *redisRanker) Replace(ctx context.Context, entries []LeaderboardEntry) error {
	key := boardKey(PeriodAllTime, time.Time{})
	tmp := key + ":rebuild"

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, tmp)
		if len(entries) == 0 {
			pipe.Del(ctx, key)
			return nil
		}

		members := make([]redis.Z, 0, len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{Score: float64(e.TotalXP), Member: e.UserID})
		}
		pipe.ZAdd(ctx, tmp, members...)
		pipe.Rename(ctx, tmp, key)
		return nil
	})
	return err
}
