package sequence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var alnum = regexp.MustCompile(`^[A-Z0-9]+$`)

func TestNextReferralCodeShape(t *testing.T) {
	g := &RedisGenerator{now: time.Now}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := g.NextReferralCode(context.Background())
		require.NoError(t, err)
		require.Len(t, code, ReferralCodeLength)
		require.Regexp(t, alnum, code)
		seen[code] = true
	}
	require.Greater(t, len(seen), 45)
}

func TestFallbackReferralCode(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	g := &RedisGenerator{now: func() time.Time { return fixed }}

	a := g.FallbackReferralCode("user-1")
	b := g.FallbackReferralCode("user-1")
	c := g.FallbackReferralCode("user-2")

	require.Len(t, a, FallbackReferralCodeLength)
	require.Regexp(t, alnum, a)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestHashCodeClampsLength(t *testing.T) {
	require.Len(t, HashCode("x", 100), 64)
}

func TestNextVoucherCode(t *testing.T) {
	g := &RedisGenerator{now: time.Now}
	code, err := g.NextVoucherCode(context.Background(), "promo")
	require.NoError(t, err)
	require.Len(t, code, len("PROMO")+VoucherCodeLength)
	require.Regexp(t, `^PROMO[A-Z0-9]+$`, code)
}

func TestNextOrderCodeWithoutRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	g := &RedisGenerator{rdb: rdb, now: func() time.Time { return fixed }}

	code, err := g.NextOrderCode(context.Background())
	require.NoError(t, err)
	require.Regexp(t, `^ORD-260301-[A-Z0-9]{6}$`, code)
}
