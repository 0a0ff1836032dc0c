package voucher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fincheck-controlplane/pkg/db/option"
	"fincheck-controlplane/pkg/db/pagination"
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/repository"
	"fincheck-controlplane/pkg/sequence"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var consumptions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "voucher_consumptions_total",
	Help: "Voucher consumption attempts by result.",
}, []string{"result"})

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	seq  sequence.Generator
	now  func() time.Time

	voucher repository.Repository[Voucher]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
	Seq  sequence.Generator
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		seq:  p.Seq,
		now:  func() time.Time { return time.Now().UTC() },

		voucher: repository.ProvideStore[Voucher](p.DB),
	}
}

// WithTrx returns a copy of the service bound to tx.
func (s *Service) WithTrx(tx *gorm.DB) *Service {
	cp := *s
	cp.db = tx
	cp.voucher = s.voucher.WithTrx(tx)
	return &cp
}

// =========================================================
// Validate
// =========================================================

// Validate resolves code to its discount. Unknown codes are NotFound; codes
// that exist but are not usable are BadRequest with the derived status as
// detail.
func (s *Service) Validate(ctx context.Context, code string) (*Validation, error) {
	code = NormalizeCode(code)
	if code == "" || len(code) > MaxCodeLength {
		return nil, errutil.NotFound("voucher not found", nil)
	}

	v, err := s.voucher.FindOne(ctx, &Voucher{Code: code})
	if err != nil {
		zap.L().Error("failed to look up voucher", zap.String("code", maskCode(code)), zap.Error(err))
		return nil, err
	}
	if v == nil {
		return nil, errutil.NotFound("voucher not found", nil)
	}

	if st := v.StatusAt(s.now()); st != StatusActive {
		return nil, errutil.BadRequest("voucher is not valid", nil,
			errutil.WithDetails(errutil.Detail{Field: "status", Message: string(st)}))
	}

	return &Validation{
		VoucherID:       v.ID,
		Code:            v.Code,
		DiscountPercent: v.DiscountPercent,
	}, nil
}

// =========================================================
// Consume
// =========================================================

// Consume records one use of the voucher in a single conditional UPDATE.
// Reaching the limit deactivates the voucher in the same statement. A voucher
// that is inactive, expired or at its limit yields a Conflict.
func (s *Service) Consume(ctx context.Context, voucherID string) (*Voucher, error) {
	logger := zap.L().With(zap.String("voucher_id", voucherID))
	now := s.now()

	// Map keys are applied in sorted order, so is_active is computed from the
	// pre-increment used_count on every dialect.
	res := s.db.WithContext(ctx).Model(&Voucher{}).
		Where("id = ? AND is_active = ? AND used_count < limit_user AND expires_at > ?", voucherID, true, now).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count + 1"),
			"is_active":  gorm.Expr("CASE WHEN used_count + 1 >= limit_user THEN ? ELSE is_active END", false),
			"updated_at": now,
		})
	if res.Error != nil {
		consumptions.WithLabelValues("error").Inc()
		logger.Error("failed to consume voucher", zap.Error(res.Error))
		return nil, res.Error
	}

	v, err := s.voucher.FindOne(ctx, &Voucher{ID: voucherID})
	if err != nil {
		return nil, err
	}
	if v == nil {
		consumptions.WithLabelValues("not_found").Inc()
		return nil, errutil.NotFound("voucher not found", nil)
	}

	if res.RowsAffected == 0 {
		st := v.StatusAt(now)
		consumptions.WithLabelValues(string(st)).Inc()
		return nil, errutil.Conflict("voucher can no longer be used", nil,
			errutil.WithDetails(errutil.Detail{Field: "status", Message: string(st)}))
	}

	consumptions.WithLabelValues("consumed").Inc()
	logger.Info("voucher consumed",
		zap.String("code", maskCode(v.Code)),
		zap.Int("used_count", v.UsedCount),
		zap.Int("limit_user", v.LimitUser),
	)
	return v, nil
}

// =========================================================
// Admin
// =========================================================

type fields struct {
	discountPercent int
	limitUser       int
	expiresAt       time.Time
}

func (s *Service) validateFields(f fields) []errutil.Detail {
	var details []errutil.Detail
	if f.discountPercent < minDiscountPct || f.discountPercent > maxDiscountPct {
		details = append(details, errutil.Detail{Field: "discount_percent", Message: "must be between 1 and 100"})
	}
	if f.limitUser < 1 {
		details = append(details, errutil.Detail{Field: "limit_user", Message: "must be at least 1"})
	}
	if !f.expiresAt.After(s.now()) {
		details = append(details, errutil.Detail{Field: "expires_at", Message: "must be in the future"})
	}
	return details
}

func validCode(code string) bool {
	if code == "" || len(code) > MaxCodeLength {
		return false
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*View, error) {
	code := NormalizeCode(req.Code)

	details := s.validateFields(fields{req.DiscountPercent, req.LimitUser, req.ExpiresAt})
	if !validCode(code) {
		details = append(details, errutil.Detail{Field: "code", Message: "must be 1-32 letters, digits, '-' or '_'"})
	}
	if len(details) > 0 {
		return nil, errutil.ValidationFailed("invalid voucher", nil, errutil.WithDetails(details...))
	}

	existing, err := s.voucher.FindOne(ctx, &Voucher{Code: code})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errutil.Conflict(fmt.Sprintf("voucher code %s already exists", code), nil)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	v := &Voucher{
		ID:              s.node.Generate().String(),
		Code:            code,
		Name:            strings.TrimSpace(req.Name),
		DiscountPercent: req.DiscountPercent,
		LimitUser:       req.LimitUser,
		ExpiresAt:       req.ExpiresAt.UTC(),
		IsActive:        active,
		CreatedAt:       s.now(),
	}
	if err := s.voucher.Create(ctx, v); err != nil {
		zap.L().Error("failed to create voucher", zap.String("code", maskCode(code)), zap.Error(err))
		return nil, errutil.Conflict(fmt.Sprintf("voucher code %s already exists", code), err)
	}

	view := newView(v, s.now())
	return &view, nil
}

// Generate creates Count vouchers sharing the same terms with random codes
// under Prefix.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) ([]View, error) {
	prefix := NormalizeCode(req.Prefix)
	if prefix == "" {
		prefix = defaultCodePrefix
	}

	details := s.validateFields(fields{req.DiscountPercent, req.LimitUser, req.ExpiresAt})
	if req.Count < 1 || req.Count > MaxGenerateBatch {
		details = append(details, errutil.Detail{Field: "count", Message: fmt.Sprintf("must be between 1 and %d", MaxGenerateBatch)})
	}
	if !validCode(prefix) || len(prefix)+sequence.VoucherCodeLength > MaxCodeLength {
		details = append(details, errutil.Detail{Field: "prefix", Message: "must be short and alphanumeric"})
	}
	if len(details) > 0 {
		return nil, errutil.ValidationFailed("invalid voucher batch", nil, errutil.WithDetails(details...))
	}

	seen := make(map[string]struct{}, req.Count)
	items := make([]*Voucher, 0, req.Count)
	for len(items) < req.Count {
		code, err := s.seq.NextVoucherCode(ctx, prefix)
		if err != nil {
			zap.L().Warn("failed generate voucher code", zap.Error(err))
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		items = append(items, &Voucher{
			ID:              s.node.Generate().String(),
			Code:            code,
			Name:            strings.TrimSpace(req.Name),
			DiscountPercent: req.DiscountPercent,
			LimitUser:       req.LimitUser,
			ExpiresAt:       req.ExpiresAt.UTC(),
			IsActive:        true,
			CreatedAt:       s.now(),
		})
	}

	if err := s.voucher.BatchCreate(ctx, items); err != nil {
		zap.L().Error("failed to generate vouchers", zap.Int("count", req.Count), zap.Error(err))
		return nil, errutil.Conflict("generated voucher codes collided, please retry", err)
	}

	now := s.now()
	out := make([]View, 0, len(items))
	for _, v := range items {
		out = append(out, newView(v, now))
	}
	zap.L().Info("vouchers generated", zap.String("prefix", prefix), zap.Int("count", len(out)))
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	v, err := s.voucher.FindOne(ctx, &Voucher{ID: id})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errutil.NotFound("voucher not found", nil)
	}
	view := newView(v, s.now())
	return &view, nil
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (*View, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.voucher.Update(ctx, id, map[string]any{"is_active": active}); err != nil {
		zap.L().Error("failed to update voucher", zap.String("voucher_id", id), zap.Error(err))
		return nil, err
	}
	return s.Get(ctx, id)
}

type ListRequest struct {
	Status Status `form:"status"`
	pagination.Pagination
}

// withStatus filters on the derived status in SQL, mirroring StatusAt.
func withStatus(st Status, now time.Time) option.QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		switch st {
		case StatusExpired:
			return db.Where("expires_at <= ?", now)
		case StatusLimitReached:
			return db.Where("expires_at > ? AND used_count >= limit_user", now)
		case StatusInactive:
			return db.Where("expires_at > ? AND used_count < limit_user AND is_active = ?", now, false)
		case StatusActive:
			return db.Where("expires_at > ? AND used_count < limit_user AND is_active = ?", now, true)
		}
		return db
	}
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]View, *pagination.PageInfo, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, nil, errutil.ValidationFailed("unknown voucher status", nil)
	}
	keyset, err := req.Keyset()
	if err != nil {
		return nil, nil, errutil.BadRequest("invalid cursor", err)
	}

	now := s.now()
	rows, err := s.voucher.Find(ctx, nil, withStatus(req.Status, now), keyset)
	if err != nil {
		return nil, nil, err
	}
	page, info := pagination.BuildCursorPageInfo(rows, req.Size(), func(v *Voucher) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})

	out := make([]View, 0, len(page))
	for _, v := range page {
		out = append(out, newView(v, now))
	}
	return out, info, nil
}
