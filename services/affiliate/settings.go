package affiliate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"fincheck-controlplane/pkg/config"
	"fincheck-controlplane/pkg/rediskey"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var settingsLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "affiliate_settings_lookups_total",
	Help: "Affiliate settings lookups by source.",
}, []string{"source"})

const defaultSettingsTTL = 5 * time.Minute

// SettingsStore memoizes the affiliate settings row in process and in redis.
// Writes go through Update, which invalidates both.
type SettingsStore struct {
	db       *gorm.DB
	rdb      *redis.Client
	defaults AffiliateSetting
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	cached   *AffiliateSetting
	cachedAt time.Time
	group    singleflight.Group
}

func DefaultSettings(cfg *config.Config) AffiliateSetting {
	s := AffiliateSetting{
		ID:                   settingsRowID,
		CommissionPercentage: decimal.NewFromInt(10),
		DiscountPercentage:   decimal.NewFromInt(10),
		MinWithdrawal:        decimal.NewFromInt(50000),
	}
	if cfg == nil {
		return s
	}
	s.WhatsappCS = cfg.Affiliate.WhatsappCS
	s.CommissionPercentage = decimal.NewFromFloat(cfg.Affiliate.CommissionPercentage)
	s.DiscountPercentage = decimal.NewFromFloat(cfg.Affiliate.DiscountPercentage)
	s.MinWithdrawal = decimal.NewFromFloat(cfg.Affiliate.MinWithdrawal)
	return s
}

// NewSettingsStore accepts a nil redis client; the store then memoizes in
// process only.
func NewSettingsStore(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *SettingsStore {
	ttl := defaultSettingsTTL
	if cfg != nil && cfg.Affiliate.SettingsTTL > 0 {
		ttl = cfg.Affiliate.SettingsTTL
	}
	return &SettingsStore{
		db:       db,
		rdb:      rdb,
		defaults: DefaultSettings(cfg),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SettingsStore) Get(ctx context.Context) (*AffiliateSetting, error) {
	if v := s.local(); v != nil {
		settingsLookups.WithLabelValues("memory").Inc()
		return v, nil
	}

	v, err, _ := s.group.Do("settings", func() (any, error) {
		if v := s.fromRedis(ctx); v != nil {
			settingsLookups.WithLabelValues("redis").Inc()
			s.remember(v)
			return v, nil
		}

		settingsLookups.WithLabelValues("database").Inc()
		v, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.remember(v)
		s.toRedis(ctx, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}

	out := *v.(*AffiliateSetting)
	return &out, nil
}

func (s *SettingsStore) local() *AffiliateSetting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil || s.now().Sub(s.cachedAt) > s.ttl {
		return nil
	}
	out := *s.cached
	return &out
}

func (s *SettingsStore) remember(v *AffiliateSetting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.cached = &cp
	s.cachedAt = s.now()
}

// Invalidate drops the memoized settings everywhere.
func (s *SettingsStore) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()

	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, rediskey.AffiliateSettingsKey).Err(); err != nil {
		zap.L().Warn("failed to invalidate cached affiliate settings", zap.Error(err))
	}
}

// load fetches the settings row, creating it with defaults when missing.
func (s *SettingsStore) load(ctx context.Context) (*AffiliateSetting, error) {
	row := s.defaults
	row.ID = settingsRowID

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		zap.L().Error("failed to seed affiliate settings", zap.Error(err))
		return nil, err
	}

	var out AffiliateSetting
	if err := s.db.WithContext(ctx).First(&out, "id = ?", settingsRowID).Error; err != nil {
		zap.L().Error("failed to load affiliate settings", zap.Error(err))
		return nil, err
	}
	return &out, nil
}

func (s *SettingsStore) Update(ctx context.Context, req UpdateSettingsRequest) (*AffiliateSetting, error) {
	if _, err := s.load(ctx); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.WhatsappCS != nil {
		updates["whatsapp_cs"] = *req.WhatsappCS
	}
	if req.CommissionPercentage != nil {
		updates["commission_percentage"] = *req.CommissionPercentage
	}
	if req.DiscountPercentage != nil {
		updates["discount_percentage"] = *req.DiscountPercentage
	}
	if req.MinWithdrawal != nil {
		updates["min_withdrawal"] = *req.MinWithdrawal
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&AffiliateSetting{}).Where("id = ?", settingsRowID).Updates(updates).Error; err != nil {
			zap.L().Error("failed to update affiliate settings", zap.Error(err))
			return nil, err
		}
	}

	s.Invalidate(ctx)
	return s.Get(ctx)
}

func (s *SettingsStore) fromRedis(ctx context.Context) *AffiliateSetting {
	if s.rdb == nil {
		return nil
	}
	b, err := s.rdb.Get(ctx, rediskey.AffiliateSettingsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("failed to read cached affiliate settings", zap.Error(err))
		}
		return nil
	}
	var v AffiliateSetting
	if err := json.Unmarshal(b, &v); err != nil {
		zap.L().Warn("discarding malformed cached affiliate settings", zap.Error(err))
		return nil
	}
	return &v
}

func (s *SettingsStore) toRedis(ctx context.Context, v *AffiliateSetting) {
	if s.rdb == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, rediskey.AffiliateSettingsKey, b, s.ttl).Err(); err != nil {
		zap.L().Warn("failed to cache affiliate settings", zap.Error(err))
	}
}
