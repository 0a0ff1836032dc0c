package sequence

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("sequence",
	fx.Provide(NewRedisGenerator),
)

const (
	ReferralCodeLength         = 8
	FallbackReferralCodeLength = 10
	VoucherCodeLength          = 8

	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

type Generator interface {
	NextReferralCode(ctx context.Context) (string, error)
	FallbackReferralCode(seed string) string
	NextOrderCode(ctx context.Context) (string, error)
	NextVoucherCode(ctx context.Context, prefix string) (string, error)
}

type RedisGenerator struct {
	rdb *redis.Client
	now func() time.Time
}

type Params struct {
	fx.In

	Redis *redis.Client
}

func NewRedisGenerator(p Params) Generator {
	return &RedisGenerator{
		rdb: p.Redis,
		now: time.Now,
	}
}

func (g *RedisGenerator) NextReferralCode(ctx context.Context) (string, error) {
	return randomAlphaNumeric(ReferralCodeLength)
}

// FallbackReferralCode derives a code from seed and the current time, used
// once random codes keep colliding.
func (g *RedisGenerator) FallbackReferralCode(seed string) string {
	return HashCode(fmt.Sprintf("%s|%d", seed, g.now().UnixNano()), FallbackReferralCodeLength)
}

// NextOrderCode returns ORD-YYMMDD-<base36 seq><2 random>. When redis is
// unavailable the sequence part is random instead.
func (g *RedisGenerator) NextOrderCode(ctx context.Context) (string, error) {
	return g.nextDailyCode(ctx, "ORD")
}

// NextVoucherCode returns prefix followed by random characters from the
// unambiguous alphabet.
func (g *RedisGenerator) NextVoucherCode(ctx context.Context, prefix string) (string, error) {
	suffix, err := randomAlphaNumeric(VoucherCodeLength)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(prefix) + suffix, nil
}

func (g *RedisGenerator) nextDailyCode(ctx context.Context, prefix string) (string, error) {
	today := g.now().UTC().Format("060102")
	key := fmt.Sprintf("seq:%s:%s", prefix, today)

	randSuffix, err := randomAlphaNumeric(2)
	if err != nil {
		return "", err
	}

	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		zap.L().Warn("sequence unavailable, falling back to random order code", zap.String("key", key), zap.Error(err))
		fallback, rerr := randomAlphaNumeric(6)
		if rerr != nil {
			return "", rerr
		}
		return fmt.Sprintf("%s-%s-%s", prefix, today, fallback), nil
	}

	if seq == 1 {
		_ = g.rdb.Expire(ctx, key, 48*time.Hour).Err()
	}

	encodedSeq := strings.ToUpper(strconv.FormatInt(seq, 36))
	if len(encodedSeq) < 3 {
		encodedSeq = strings.Repeat("0", 3-len(encodedSeq)) + encodedSeq
	}

	return fmt.Sprintf("%s-%s-%s%s", prefix, today, encodedSeq, randSuffix), nil
}

// HashCode returns the first n upper-case hex characters of sha256(seed).
func HashCode(seed string, n int) string {
	sum := sha256.Sum256([]byte(seed))
	code := strings.ToUpper(hex.EncodeToString(sum[:]))
	if n > len(code) {
		n = len(code)
	}
	return code[:n]
}

func randomAlphaNumeric(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[num.Int64()]
	}
	return string(b), nil
}
