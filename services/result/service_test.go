package result

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"fincheck-controlplane/pkg/db/pagination"
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/services/badge"
	"fincheck-controlplane/services/notification"
	"fincheck-controlplane/services/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var now = time.Date(2026, 5, 13, 10, 0, 0, 0, time.UTC) // Wednesday

type fakeRanker struct {
	mu     sync.Mutex
	scores map[string]int64
	err    error
}

func (f *fakeRanker) Add(_ context.Context, userID string, xp int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.scores == nil {
		f.scores = map[string]int64{}
	}
	f.scores[userID] += xp
	return nil
}

func (f *fakeRanker) Top(_ context.Context, _ Period, _ time.Time, limit int) ([]LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]LeaderboardEntry, 0, len(f.scores))
	for uid, xp := range f.scores {
		out = append(out, LeaderboardEntry{UserID: uid, TotalXP: xp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalXP > out[j].TotalXP })
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func (f *fakeRanker) Replace(_ context.Context, entries []LeaderboardEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.scores = map[string]int64{}
	for _, e := range entries {
		f.scores[e.UserID] = e.TotalXP
	}
	return nil
}

type fakeAwarder struct {
	calls int
	err   error
}

func (f *fakeAwarder) Award(_ context.Context, _ string, attempts []badge.Attempt) ([]badge.Badge, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(attempts) == 1 {
		return []badge.Badge{{ID: "first_step", Name: "First Step"}}, nil
	}
	return nil, nil
}

type fixture struct {
	svc    *Service
	ranker *fakeRanker
	awards *fakeAwarder
	enq    *testutil.FakeEnqueuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t, &TestResult{})
	f := &fixture{ranker: &fakeRanker{}, awards: &fakeAwarder{}, enq: &testutil.FakeEnqueuer{}}

	svc := NewService(ServiceParams{DB: db, Node: testutil.NewNode(t)})
	svc.ranker = f.ranker
	svc.badges = f.awards
	svc.notifier = notification.NewDispatcher(f.enq)

	clock := now
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	f.svc = svc
	return f
}

func TestXPAndLevel(t *testing.T) {
	require.Equal(t, 10, DefaultXPRules.XPFor(0))
	require.Equal(t, 47, DefaultXPRules.XPFor(75))
	require.Equal(t, 59, DefaultXPRules.XPFor(99))
	require.Equal(t, 85, DefaultXPRules.XPFor(100))

	cases := map[int]Level{0: LevelLow, 39: LevelLow, 40: LevelMedium, 69: LevelMedium, 70: LevelHigh, 89: LevelHigh, 90: LevelExpert, 100: LevelExpert}
	for score, want := range cases {
		require.Equal(t, want, LevelFor(score), "score %d", score)
	}

	require.Equal(t, int64(1), PlayerLevel(0))
	require.Equal(t, int64(3), PlayerLevel(250))
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp, err := f.svc.Submit(ctx, SubmitRequest{
		UserID:          "u-1",
		TestID:          "financial_health",
		Category:        "financial_health",
		Score:           100,
		DimensionScores: []DimensionScore{{Subject: "needs", Score: 45}},
	})
	require.NoError(t, err)
	require.Equal(t, LevelExpert, resp.Result.Level)
	require.Equal(t, 85, resp.Result.XPEarned)
	require.Len(t, resp.NewBadges, 1)
	require.Equal(t, int64(85), f.ranker.scores["u-1"])
	require.Equal(t, 1, f.enq.Len())

	var p notification.Payload
	f.enq.Decode(t, 0, &p)
	require.Equal(t, notification.TypeBadgeEarned, p.Type)
	require.Equal(t, "u-1", p.UserID)

	got, err := f.svc.Get(ctx, "u-1", resp.Result.ID)
	require.NoError(t, err)
	require.Equal(t, []DimensionScore{{Subject: "needs", Score: 45}}, []DimensionScore(got.DimensionScores))

	_, err = f.svc.Get(ctx, "u-2", resp.Result.ID)
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), SubmitRequest{UserID: "u-1", TestID: "t", Score: 101})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))

	_, err = f.svc.Submit(context.Background(), SubmitRequest{TestID: "t", Score: 50})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))
}

func TestSubmitSurvivesRankerAndBadgeFailures(t *testing.T) {
	f := newFixture(t)
	f.ranker.err = errors.New("redis down")
	f.awards.err = errors.New("cel exploded")

	resp, err := f.svc.Submit(context.Background(), SubmitRequest{UserID: "u-1", TestID: "t", Score: 50})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	require.Empty(t, resp.NewBadges)
	require.Equal(t, 0, f.enq.Len())
}

func TestSummaryAndHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, score := range []int{40, 80, 100} {
		_, err := f.svc.Submit(ctx, SubmitRequest{UserID: "u-1", TestID: "t", Category: "risk_tolerance", Score: score})
		require.NoError(t, err)
	}

	sum, err := f.svc.Summary(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), sum.TotalTests)
	require.Equal(t, int64(30+50+85), sum.TotalXP)
	require.Equal(t, int64(2), sum.PlayerLevel)
	require.Equal(t, int64(100), sum.BestScore)
	require.InDelta(t, 73.33, sum.AverageScore, 0.01)
	require.Equal(t, int64(1), sum.Streak)
	require.Equal(t, []string{"risk_tolerance"}, sum.Categories)

	page, info, err := f.svc.History(ctx, "u-1", pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, 100, page[0].Score, "newest first")
	require.True(t, info.HasMore)

	rest, info, err := f.svc.History(ctx, "u-1", pagination.Pagination{Limit: 2, Cursor: info.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, 40, rest[0].Score)
	require.False(t, info.HasMore)

	_, _, err = f.svc.History(ctx, "u-1", pagination.Pagination{Cursor: "%%%"})
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))

	empty, err := f.svc.Summary(ctx, "nobody")
	require.NoError(t, err)
	require.Equal(t, int64(0), empty.TotalTests)
	require.Equal(t, []string{}, empty.Categories)
}

func TestLeaderboardFallsBackToDatabase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	submit := func(uid string, score int) {
		_, err := f.svc.Submit(ctx, SubmitRequest{UserID: uid, TestID: "t", Score: score})
		require.NoError(t, err)
	}
	submit("u-1", 100)
	submit("u-2", 50)
	submit("u-2", 50)
	submit("u-3", 0)

	fromRanker, err := f.svc.Leaderboard(ctx, PeriodAllTime, 2)
	require.NoError(t, err)
	require.Len(t, fromRanker, 2)
	require.Equal(t, "u-1", fromRanker[0].UserID)

	f.ranker.err = errors.New("redis down")
	fromDB, err := f.svc.Leaderboard(ctx, PeriodWeekly, 0)
	require.NoError(t, err)
	require.Equal(t, []LeaderboardEntry{
		{Rank: 1, UserID: "u-1", TotalXP: 85},
		{Rank: 2, UserID: "u-2", TotalXP: 70},
		{Rank: 3, UserID: "u-3", TotalXP: 10},
	}, fromDB)

	_, err = f.svc.Leaderboard(ctx, "monthly", 10)
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))
}

func TestRebuildLeaderboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Submit(ctx, SubmitRequest{UserID: "u-1", TestID: "t", Score: 60})
	require.NoError(t, err)
	f.ranker.scores["ghost"] = 999

	n, err := f.svc.RebuildLeaderboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, map[string]int64{"u-1": 40}, f.ranker.scores)
}

func TestWeekStart(t *testing.T) {
	require.Equal(t, time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), weekStart(now))
	sunday := time.Date(2026, 5, 17, 23, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), weekStart(sunday))
}
