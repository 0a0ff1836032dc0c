package voucher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/services/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

type fakeSeq struct {
	mu sync.Mutex
	n  int
}

func (f *fakeSeq) NextReferralCode(context.Context) (string, error) { return "", nil }
func (f *fakeSeq) FallbackReferralCode(string) string               { return "" }
func (f *fakeSeq) NextOrderCode(context.Context) (string, error)    { return "", nil }

func (f *fakeSeq) NextVoucherCode(_ context.Context, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	// every third code repeats the previous one
	if f.n%3 == 0 {
		return fmt.Sprintf("%s%08d", prefix, f.n-1), nil
	}
	return fmt.Sprintf("%s%08d", prefix, f.n), nil
}

func newService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewTestDB(t, &Voucher{})
	svc := NewService(ServiceParams{DB: db, Node: testutil.NewNode(t), Seq: &fakeSeq{}})

	var mu sync.Mutex
	clock := now
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Millisecond)
		return clock
	}
	return svc
}

func seed(t *testing.T, svc *Service, v Voucher) *Voucher {
	t.Helper()
	v.ID = svc.node.Generate().String()
	v.CreatedAt = now
	if v.ExpiresAt.IsZero() {
		v.ExpiresAt = now.Add(24 * time.Hour)
	}
	require.NoError(t, svc.db.Create(&v).Error)
	return &v
}

func detailStatus(t *testing.T, err error) string {
	t.Helper()
	var be errutil.BaseError
	require.True(t, errors.As(err, &be), "got %v", err)
	require.NotEmpty(t, be.Details)
	return be.Details[0].Message
}

func TestStatusAt(t *testing.T) {
	base := Voucher{LimitUser: 10, UsedCount: 3, IsActive: true, ExpiresAt: now.Add(time.Hour)}
	require.Equal(t, StatusActive, base.StatusAt(now))

	expired := base
	expired.ExpiresAt = now
	require.Equal(t, StatusExpired, expired.StatusAt(now))

	limit := base
	limit.UsedCount = 10
	limit.IsActive = false
	require.Equal(t, StatusLimitReached, limit.StatusAt(now))

	off := base
	off.IsActive = false
	require.Equal(t, StatusInactive, off.StatusAt(now))
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	seed(t, svc, Voucher{Code: "HEMAT20", DiscountPercent: 20, LimitUser: 5, IsActive: true})
	seed(t, svc, Voucher{Code: "OLD", DiscountPercent: 10, LimitUser: 5, IsActive: true, ExpiresAt: now.Add(-time.Hour)})
	seed(t, svc, Voucher{Code: "FULL", DiscountPercent: 10, LimitUser: 2, UsedCount: 2, IsActive: true})
	seed(t, svc, Voucher{Code: "OFF", DiscountPercent: 10, LimitUser: 2, IsActive: false})

	got, err := svc.Validate(ctx, " hemat20 ")
	require.NoError(t, err)
	require.Equal(t, 20, got.DiscountPercent)
	require.Equal(t, "HEMAT20", got.Code)

	_, err = svc.Validate(ctx, "NOPE")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	for code, want := range map[string]Status{"OLD": StatusExpired, "FULL": StatusLimitReached, "OFF": StatusInactive} {
		_, err = svc.Validate(ctx, code)
		require.True(t, errutil.Is(err, errutil.StatusBadRequest), code)
		require.Equal(t, string(want), detailStatus(t, err), code)
	}
}

func TestConsumeLastUse(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	v := seed(t, svc, Voucher{Code: "LAST1", DiscountPercent: 15, LimitUser: 100, UsedCount: 99, IsActive: true})

	got, err := svc.Consume(ctx, v.ID)
	require.NoError(t, err)
	require.Equal(t, 100, got.UsedCount)
	require.False(t, got.IsActive)

	_, err = svc.Validate(ctx, "LAST1")
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))
	require.Equal(t, string(StatusLimitReached), detailStatus(t, err))

	_, err = svc.Consume(ctx, v.ID)
	require.True(t, errutil.Is(err, errutil.StatusConflict))

	after, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	require.Equal(t, 100, after.UsedCount)
}

func TestConsumeKeepsActiveBelowLimit(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	v := seed(t, svc, Voucher{Code: "MULTI", DiscountPercent: 5, LimitUser: 3, IsActive: true})

	got, err := svc.Consume(ctx, v.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.UsedCount)
	require.True(t, got.IsActive)
}

func TestConsumeRejectsUnusable(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	expired := seed(t, svc, Voucher{Code: "OLD", DiscountPercent: 10, LimitUser: 5, IsActive: true, ExpiresAt: now.Add(-time.Hour)})
	off := seed(t, svc, Voucher{Code: "OFF", DiscountPercent: 10, LimitUser: 5, IsActive: false})

	_, err := svc.Consume(ctx, expired.ID)
	require.True(t, errutil.Is(err, errutil.StatusConflict))
	require.Equal(t, string(StatusExpired), detailStatus(t, err))

	_, err = svc.Consume(ctx, off.ID)
	require.True(t, errutil.Is(err, errutil.StatusConflict))

	_, err = svc.Consume(ctx, "missing")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}

func TestConcurrentConsumeNeverExceedsLimit(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	v := seed(t, svc, Voucher{Code: "RUSH", DiscountPercent: 50, LimitUser: 5, IsActive: true})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, other int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Consume(ctx, v.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errutil.Is(err, errutil.StatusConflict) {
				other++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 5, ok)
	require.Equal(t, 15, other)

	got, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.UsedCount)
	require.False(t, got.IsActive)
	require.Equal(t, StatusLimitReached, got.Status)
	require.Equal(t, 0, got.Remaining)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	v, err := svc.Create(ctx, CreateRequest{Code: "welcome10", DiscountPercent: 10, LimitUser: 50, ExpiresAt: now.Add(48 * time.Hour)})
	require.NoError(t, err)
	require.Equal(t, "WELCOME10", v.Code)
	require.Equal(t, StatusActive, v.Status)

	_, err = svc.Create(ctx, CreateRequest{Code: "WELCOME10", DiscountPercent: 10, LimitUser: 50, ExpiresAt: now.Add(48 * time.Hour)})
	require.True(t, errutil.Is(err, errutil.StatusConflict))

	_, err = svc.Create(ctx, CreateRequest{Code: "bad code!", DiscountPercent: 0, LimitUser: 0, ExpiresAt: now.Add(-time.Hour)})
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusValidationFailed, be.Code)
	require.Len(t, be.Details, 4)
}

func TestCreateInactive(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	inactive := false
	v, err := svc.Create(ctx, CreateRequest{Code: "LATER", DiscountPercent: 15, LimitUser: 10, ExpiresAt: now.Add(48 * time.Hour), IsActive: &inactive})
	require.NoError(t, err)
	require.False(t, v.IsActive)
	require.Equal(t, StatusInactive, v.Status)

	stored, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)

	_, err = svc.Validate(ctx, "later")
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))
	require.Equal(t, string(StatusInactive), detailStatus(t, err))
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	out, err := svc.Generate(ctx, GenerateRequest{Prefix: "bulk", Count: 7, DiscountPercent: 25, LimitUser: 1, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, out, 7)

	codes := map[string]bool{}
	for _, v := range out {
		require.Regexp(t, `^BULK\d{8}$`, v.Code)
		codes[v.Code] = true
	}
	require.Len(t, codes, 7)

	_, err = svc.Generate(ctx, GenerateRequest{Count: MaxGenerateBatch + 1, DiscountPercent: 25, LimitUser: 1, ExpiresAt: now.Add(time.Hour)})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))
}

func TestListByDerivedStatus(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	seed(t, svc, Voucher{Code: "A1", DiscountPercent: 10, LimitUser: 5, IsActive: true})
	seed(t, svc, Voucher{Code: "A2", DiscountPercent: 10, LimitUser: 5, IsActive: true})
	seed(t, svc, Voucher{Code: "OLD", DiscountPercent: 10, LimitUser: 5, IsActive: true, ExpiresAt: now.Add(-time.Hour)})
	seed(t, svc, Voucher{Code: "FULL", DiscountPercent: 10, LimitUser: 1, UsedCount: 1, IsActive: false})
	off := seed(t, svc, Voucher{Code: "OFF", DiscountPercent: 10, LimitUser: 5, IsActive: true})

	_, err := svc.SetActive(ctx, off.ID, false)
	require.NoError(t, err)

	counts := map[Status]int{}
	for _, st := range []Status{StatusActive, StatusExpired, StatusLimitReached, StatusInactive} {
		rows, _, err := svc.List(ctx, ListRequest{Status: st})
		require.NoError(t, err)
		for _, r := range rows {
			require.Equal(t, st, r.Status)
		}
		counts[st] = len(rows)
	}
	require.Equal(t, map[Status]int{StatusActive: 2, StatusExpired: 1, StatusLimitReached: 1, StatusInactive: 1}, counts)

	all, _, err := svc.List(ctx, ListRequest{})
	require.NoError(t, err)
	require.Len(t, all, 5)

	_, _, err = svc.List(ctx, ListRequest{Status: "gone"})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))
}
