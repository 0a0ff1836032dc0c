package affiliate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fincheck-controlplane/pkg/db/option"
	"fincheck-controlplane/pkg/db/pagination"
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/repository"
	"fincheck-controlplane/pkg/sequence"
	"fincheck-controlplane/services/notification"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	commissionAccrued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "affiliate_commissions_accrued_total",
		Help: "Referral commissions credited to affiliates.",
	})
	withdrawalsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "affiliate_withdrawals_processed_total",
		Help: "Withdrawals processed by action.",
	}, []string{"action"})
)

const (
	// MaxCodeAttempts random codes are tried before falling back to a
	// hash-derived one.
	MaxCodeAttempts = 5

	minCodeLength = 4
	maxCodeLength = 15
)

type Notifier interface {
	Notify(ctx context.Context, payloads ...notification.Payload)
}

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	seq      sequence.Generator
	settings *SettingsStore
	notifier Notifier
	now      func() time.Time

	affiliate  repository.Repository[UserAffiliate]
	referral   repository.Repository[ReferralTransaction]
	withdrawal repository.Repository[Withdrawal]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator
	Settings *SettingsStore
	Notifier *notification.Dispatcher
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		seq:      p.Seq,
		settings: p.Settings,
		notifier: p.Notifier,
		now:      time.Now,

		affiliate:  repository.ProvideStore[UserAffiliate](p.DB),
		referral:   repository.ProvideStore[ReferralTransaction](p.DB),
		withdrawal: repository.ProvideStore[Withdrawal](p.DB),
	}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validCode(code string) bool {
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return false
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// =========================================================
// Registration
// =========================================================

func (s *Service) Register(ctx context.Context, userID string) (*UserAffiliate, error) {
	logger := zap.L().With(zap.String("user_id", userID))
	if userID == "" {
		return nil, errutil.ValidationFailed("user_id is required", nil)
	}

	existing, err := s.affiliate.FindOne(ctx, &UserAffiliate{UserID: userID})
	if err != nil {
		logger.Error("failed to look up affiliate", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, errutil.Conflict("user is already registered as an affiliate", nil)
	}

	code, err := s.uniqueCode(ctx, userID)
	if err != nil {
		logger.Error("failed to generate referral code", zap.Error(err))
		return nil, err
	}

	aff := &UserAffiliate{
		ID:           s.node.Generate().String(),
		UserID:       userID,
		ReferralCode: code,
		IsActive:     false,
		Balance:      decimal.Zero,
		TotalEarned:  decimal.Zero,
	}
	if err := s.affiliate.Create(ctx, aff); err != nil {
		// lost a race against a concurrent registration or code
		if again, _ := s.affiliate.FindOne(ctx, &UserAffiliate{UserID: userID}); again != nil {
			return nil, errutil.Conflict("user is already registered as an affiliate", err)
		}
		logger.Error("failed to create affiliate", zap.Error(err))
		return nil, errutil.Conflict("referral code collision, please retry", err)
	}

	logger.Info("affiliate registered", zap.String("affiliate_id", aff.ID), zap.String("referral_code", code))
	return aff, nil
}

func (s *Service) uniqueCode(ctx context.Context, userID string) (string, error) {
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code, err := s.seq.NextReferralCode(ctx)
		if err != nil {
			return "", err
		}
		taken, err := s.affiliate.FindOne(ctx, &UserAffiliate{ReferralCode: code})
		if err != nil {
			return "", err
		}
		if taken == nil {
			return code, nil
		}
		zap.L().Debug("referral code collision", zap.String("code", code), zap.Int("attempt", attempt))
	}
	return s.seq.FallbackReferralCode(userID), nil
}

// ValidateReferralCode resolves a code owned by an active affiliate and
// returns the buyer discount. Unknown and inactive codes look the same.
func (s *Service) ValidateReferralCode(ctx context.Context, code string) (*ReferralValidation, error) {
	code = NormalizeCode(code)
	if !validCode(code) {
		return nil, errutil.NotFound("invalid referral code", nil)
	}

	aff, err := s.affiliate.FindOne(ctx, &UserAffiliate{ReferralCode: code})
	if err != nil {
		return nil, err
	}
	if aff == nil || !aff.IsActive {
		return nil, errutil.NotFound("invalid referral code", nil)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	return &ReferralValidation{
		AffiliateID:        aff.ID,
		ReferralCode:       aff.ReferralCode,
		OwnerUserID:        aff.UserID,
		DiscountPercentage: settings.DiscountPercentage,
	}, nil
}

func (s *Service) GetByUser(ctx context.Context, userID string) (*UserAffiliate, error) {
	aff, err := s.affiliate.FindOne(ctx, &UserAffiliate{UserID: userID})
	if err != nil {
		return nil, err
	}
	if aff == nil {
		return nil, errutil.NotFound("affiliate account not found", nil)
	}
	return aff, nil
}

func (s *Service) get(ctx context.Context, id string) (*UserAffiliate, error) {
	aff, err := s.affiliate.FindOne(ctx, &UserAffiliate{ID: id})
	if err != nil {
		return nil, err
	}
	if aff == nil {
		return nil, errutil.NotFound("affiliate not found", nil)
	}
	return aff, nil
}

func (s *Service) SetActive(ctx context.Context, affiliateID string, active bool) (*UserAffiliate, error) {
	aff, err := s.get(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	if aff.IsActive == active {
		return aff, nil
	}

	if err := s.affiliate.Update(ctx, affiliateID, map[string]any{"is_active": active}); err != nil {
		zap.L().Error("failed to update affiliate status", zap.String("affiliate_id", affiliateID), zap.Error(err))
		return nil, err
	}
	aff.IsActive = active

	if active {
		s.notifier.Notify(ctx, notification.ForUser(aff.UserID, notification.TypeAffiliateActivated,
			"Affiliate account activated",
			fmt.Sprintf("Your referral code %s is now active.", aff.ReferralCode),
			map[string]any{"affiliate_id": aff.ID}))
	}
	return aff, nil
}

func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	aff, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.referral.Find(ctx, &ReferralTransaction{AffiliateID: aff.ID},
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.WithLimit(5),
	)
	if err != nil {
		return nil, err
	}

	var pending struct{ Total decimal.Decimal }
	if err := s.db.WithContext(ctx).Model(&Withdrawal{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("affiliate_id = ? AND status = ?", aff.ID, WithdrawalPending).
		Scan(&pending).Error; err != nil {
		return nil, err
	}

	return &Dashboard{
		Affiliate:       aff,
		Settings:        settings,
		PendingPayout:   pending.Total,
		RecentReferrals: recent,
	}, nil
}

type ListAffiliatesRequest struct {
	pagination.Pagination
}

func (s *Service) ListAffiliates(ctx context.Context, req ListAffiliatesRequest) ([]*UserAffiliate, *pagination.PageInfo, error) {
	keyset, err := req.Keyset()
	if err != nil {
		return nil, nil, errutil.BadRequest("invalid cursor", err)
	}
	rows, err := s.affiliate.Find(ctx, nil, keyset)
	if err != nil {
		return nil, nil, err
	}
	page, info := pagination.BuildCursorPageInfo(rows, req.Size(), func(a *UserAffiliate) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	return page, info, nil
}

// =========================================================
// Referrals and commission
// =========================================================

// RecordReferral stores a pending referral for a payment that used the
// affiliate's code. Recording the same payment twice returns the first row.
func (s *Service) RecordReferral(ctx context.Context, req ReferralRequest) (*ReferralTransaction, error) {
	if req.AffiliateID == "" || req.PaymentID == "" {
		return nil, errutil.ValidationFailed("affiliate_id and payment_id are required", nil)
	}

	existing, err := s.referral.FindOne(ctx, &ReferralTransaction{PaymentID: req.PaymentID})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	rt := &ReferralTransaction{
		ID:               s.node.Generate().String(),
		AffiliateID:      req.AffiliateID,
		ReferredUserID:   req.ReferredUserID,
		PaymentID:        req.PaymentID,
		OrderAmount:      req.OrderAmount,
		DiscountGiven:    req.DiscountGiven,
		CommissionEarned: Percent(req.OrderAmount, settings.CommissionPercentage),
		PlanName:         req.PlanName,
		Status:           ReferralPending,
		CreatedAt:        s.now(),
	}
	if err := s.referral.Create(ctx, rt); err != nil {
		zap.L().Error("failed to record referral", zap.String("payment_id", req.PaymentID), zap.Error(err))
		return nil, err
	}
	return rt, nil
}

// AccrueCommission credits commission for a confirmed payment: the referral
// moves to completed and the affiliate's balance, total earned and referral
// count are incremented in the same transaction. It is idempotent per payment.
func (s *Service) AccrueCommission(ctx context.Context, req ReferralRequest) (*ReferralTransaction, error) {
	logger := zap.L().With(zap.String("affiliate_id", req.AffiliateID), zap.String("payment_id", req.PaymentID))

	if req.AffiliateID == "" || req.PaymentID == "" {
		return nil, errutil.ValidationFailed("affiliate_id and payment_id are required", nil)
	}
	if req.OrderAmount.IsNegative() {
		return nil, errutil.ValidationFailed("order amount must not be negative", nil)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out      *ReferralTransaction
		credited bool
		aff      *UserAffiliate
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affRepo := s.affiliate.WithTrx(tx)
		refRepo := s.referral.WithTrx(tx)

		a, err := affRepo.FindOne(ctx, &UserAffiliate{ID: req.AffiliateID})
		if err != nil {
			return err
		}
		if a == nil {
			return errutil.NotFound("affiliate not found", nil)
		}
		aff = a

		rt, err := refRepo.FindOne(ctx, &ReferralTransaction{PaymentID: req.PaymentID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}

		now := s.now()
		switch {
		case rt == nil:
			rt = &ReferralTransaction{
				ID:               s.node.Generate().String(),
				AffiliateID:      req.AffiliateID,
				ReferredUserID:   req.ReferredUserID,
				PaymentID:        req.PaymentID,
				OrderAmount:      req.OrderAmount,
				DiscountGiven:    req.DiscountGiven,
				CommissionEarned: Percent(req.OrderAmount, settings.CommissionPercentage),
				PlanName:         req.PlanName,
				Status:           ReferralCompleted,
				CompletedAt:      &now,
				CreatedAt:        now,
			}
			if err := refRepo.Create(ctx, rt); err != nil {
				return err
			}
		case rt.Status == ReferralCompleted:
			out = rt
			return nil
		case rt.Status == ReferralCancelled:
			return errutil.Conflict("referral was cancelled", nil)
		default:
			if rt.AffiliateID != req.AffiliateID {
				return errutil.Conflict("payment is referred by another affiliate", nil)
			}
			commission := Percent(rt.OrderAmount, settings.CommissionPercentage)
			n, err := refRepo.UpdateWhere(ctx, rt.ID,
				map[string]any{"status": ReferralCompleted, "completed_at": now, "commission_earned": commission},
				option.Condition{Field: "status", Value: ReferralPending},
			)
			if err != nil {
				return err
			}
			if n == 0 {
				return errutil.Conflict("referral already processed", nil)
			}
			rt.Status = ReferralCompleted
			rt.CompletedAt = &now
			rt.CommissionEarned = commission
		}

		if err := affRepo.Increment(ctx, req.AffiliateID, map[string]any{
			"balance":         rt.CommissionEarned,
			"total_earned":    rt.CommissionEarned,
			"total_referrals": 1,
		}); err != nil {
			return err
		}

		out = rt
		credited = true
		return nil
	})
	if err != nil {
		logger.Error("failed to accrue commission", zap.Error(err))
		return nil, err
	}

	if credited {
		commissionAccrued.Inc()
		logger.Info("commission accrued", zap.String("commission", out.CommissionEarned.StringFixed(2)))
		s.notifier.Notify(ctx, notification.ForUser(aff.UserID, notification.TypeCommissionEarned,
			"Commission earned",
			fmt.Sprintf("You earned %s commission from a %s purchase.", out.CommissionEarned.StringFixed(2), out.PlanName),
			map[string]any{"referral_id": out.ID, "amount": out.CommissionEarned.StringFixed(2)}))
	}
	return out, nil
}

// CompleteReferral accrues commission for the pending referral recorded for
// paymentID. It returns (nil, nil) when the payment had no referral.
func (s *Service) CompleteReferral(ctx context.Context, paymentID string) (*ReferralTransaction, error) {
	rt, err := s.referral.FindOne(ctx, &ReferralTransaction{PaymentID: paymentID})
	if err != nil || rt == nil {
		return nil, err
	}
	return s.AccrueCommission(ctx, ReferralRequest{
		AffiliateID:    rt.AffiliateID,
		ReferredUserID: rt.ReferredUserID,
		PaymentID:      rt.PaymentID,
		OrderAmount:    rt.OrderAmount,
		DiscountGiven:  rt.DiscountGiven,
		PlanName:       rt.PlanName,
	})
}

// CancelReferral moves a pending referral to cancelled. Cancelling a missing
// or already cancelled referral is a no-op; a completed one is a conflict.
func (s *Service) CancelReferral(ctx context.Context, paymentID string) error {
	rt, err := s.referral.FindOne(ctx, &ReferralTransaction{PaymentID: paymentID})
	if err != nil || rt == nil {
		return err
	}

	n, err := s.referral.UpdateWhere(ctx, rt.ID,
		map[string]any{"status": ReferralCancelled},
		option.Condition{Field: "status", Value: ReferralPending},
	)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	current, err := s.referral.FindOne(ctx, &ReferralTransaction{ID: rt.ID})
	if err != nil {
		return err
	}
	if current != nil && current.Status == ReferralCompleted {
		return errutil.Conflict("referral already completed", nil)
	}
	return nil
}

func (s *Service) ListReferrals(ctx context.Context, userID string, p pagination.Pagination) ([]*ReferralTransaction, *pagination.PageInfo, error) {
	aff, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	keyset, err := p.Keyset()
	if err != nil {
		return nil, nil, errutil.BadRequest("invalid cursor", err)
	}
	rows, err := s.referral.Find(ctx, &ReferralTransaction{AffiliateID: aff.ID}, keyset)
	if err != nil {
		return nil, nil, err
	}
	page, info := pagination.BuildCursorPageInfo(rows, p.Size(), func(r *ReferralTransaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return page, info, nil
}

// =========================================================
// Withdrawals
// =========================================================

func (r WithdrawalRequest) validate() error {
	var details []errutil.Detail
	if !r.Amount.IsPositive() {
		details = append(details, errutil.Detail{Field: "amount", Message: "must be greater than zero"})
	}
	if !r.PaymentMethod.Valid() {
		details = append(details, errutil.Detail{Field: "payment_method", Message: "must be bank_transfer or e_wallet"})
	}
	if r.PaymentMethod == MethodBankTransfer && strings.TrimSpace(r.BankName) == "" {
		details = append(details, errutil.Detail{Field: "bank_name", Message: "is required for bank transfers"})
	}
	if strings.TrimSpace(r.AccountName) == "" {
		details = append(details, errutil.Detail{Field: "account_name", Message: "is required"})
	}
	if strings.TrimSpace(r.AccountNumber) == "" {
		details = append(details, errutil.Detail{Field: "account_number", Message: "is required"})
	}
	if len(details) > 0 {
		return errutil.ValidationFailed("invalid withdrawal request", nil, errutil.WithDetails(details...))
	}
	return nil
}

// RequestWithdrawal deducts the amount from the balance and opens a pending
// withdrawal. The deduction only happens while the balance covers it.
func (s *Service) RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (*Withdrawal, error) {
	logger := zap.L().With(zap.String("user_id", req.UserID))

	if err := req.validate(); err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if req.Amount.LessThan(settings.MinWithdrawal) {
		return nil, errutil.InsufficientBalance(
			fmt.Sprintf("minimum withdrawal is %s", settings.MinWithdrawal.StringFixed(2)), nil)
	}

	aff, err := s.GetByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !aff.IsActive {
		return nil, errutil.Forbidden("affiliate account is not active", nil)
	}

	w := &Withdrawal{
		ID:            s.node.Generate().String(),
		AffiliateID:   aff.ID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		AccountName:   strings.TrimSpace(req.AccountName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		Status:        WithdrawalPending,
		CreatedAt:     s.now(),
	}
	if name := strings.TrimSpace(req.BankName); name != "" {
		w.BankName = &name
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.affiliate.WithTrx(tx).UpdateWhere(ctx, aff.ID,
			map[string]any{"balance": gorm.Expr("balance - ?", req.Amount)},
			option.Condition{Field: "balance", Operator: option.GTE, Value: req.Amount},
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return errutil.InsufficientBalance("withdrawal amount exceeds available balance", nil)
		}
		return s.withdrawal.WithTrx(tx).Create(ctx, w)
	})
	if err != nil {
		if !errutil.Is(err, errutil.StatusInsufficientBalance) {
			logger.Error("failed to request withdrawal", zap.Error(err))
		}
		return nil, err
	}

	logger.Info("withdrawal requested", zap.String("withdrawal_id", w.ID), zap.String("amount", w.Amount.StringFixed(2)))
	s.notifier.Notify(ctx, notification.ForAdmin(notification.TypeWithdrawalRequested,
		"New withdrawal request",
		fmt.Sprintf("Affiliate %s requested a withdrawal of %s.", aff.ReferralCode, w.Amount.StringFixed(2)),
		map[string]any{"withdrawal_id": w.ID, "affiliate_id": aff.ID, "amount": w.Amount.StringFixed(2)}))

	return w, nil
}

// ProcessWithdrawal approves or rejects a pending withdrawal. Rejection needs
// a reason and credits the amount back to the affiliate.
func (s *Service) ProcessWithdrawal(ctx context.Context, req ProcessRequest) (*Withdrawal, error) {
	logger := zap.L().With(zap.String("withdrawal_id", req.WithdrawalID), zap.String("action", string(req.Action)))

	notes := strings.TrimSpace(req.Notes)
	switch req.Action {
	case ActionApprove:
	case ActionReject:
		if notes == "" {
			return nil, errutil.ValidationFailed("a reason is required to reject a withdrawal", nil,
				errutil.WithDetails(errutil.Detail{Field: "notes", Message: "is required"}))
		}
	default:
		return nil, errutil.ValidationFailed("action must be approve or reject", nil)
	}

	status := WithdrawalApproved
	if req.Action == ActionReject {
		status = WithdrawalRejected
	}

	var (
		w   *Withdrawal
		aff *UserAffiliate
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.withdrawal.WithTrx(tx).FindOne(ctx, &Withdrawal{ID: req.WithdrawalID})
		if err != nil {
			return err
		}
		if found == nil {
			return errutil.NotFound("withdrawal not found", nil)
		}

		now := s.now()
		updates := map[string]any{"status": status, "processed_at": now}
		if notes != "" {
			updates["admin_notes"] = notes
		}

		n, err := s.withdrawal.WithTrx(tx).UpdateWhere(ctx, found.ID, updates,
			option.Condition{Field: "status", Value: WithdrawalPending})
		if err != nil {
			return err
		}
		if n == 0 {
			return errutil.Conflict("withdrawal has already been processed", nil)
		}

		if status == WithdrawalRejected {
			if err := s.affiliate.WithTrx(tx).Increment(ctx, found.AffiliateID, map[string]any{"balance": found.Amount}); err != nil {
				return err
			}
		}

		a, err := s.affiliate.WithTrx(tx).FindOne(ctx, &UserAffiliate{ID: found.AffiliateID})
		if err != nil {
			return err
		}
		aff = a

		found.Status = status
		found.ProcessedAt = &now
		if notes != "" {
			found.AdminNotes = &notes
		}
		w = found
		return nil
	})
	if err != nil {
		var be errutil.BaseError
		if !errors.As(err, &be) {
			logger.Error("failed to process withdrawal", zap.Error(err))
		}
		return nil, err
	}

	withdrawalsProcessed.WithLabelValues(string(req.Action)).Inc()
	logger.Info("withdrawal processed", zap.String("amount", w.Amount.StringFixed(2)))

	if aff != nil {
		s.notifier.Notify(ctx, s.withdrawalNotice(aff.UserID, w))
	}
	return w, nil
}

func (s *Service) withdrawalNotice(userID string, w *Withdrawal) notification.Payload {
	data := map[string]any{"withdrawal_id": w.ID, "amount": w.Amount.StringFixed(2)}
	if w.Status == WithdrawalApproved {
		return notification.ForUser(userID, notification.TypeWithdrawalApproved,
			"Withdrawal approved",
			fmt.Sprintf("Your withdrawal of %s has been approved.", w.Amount.StringFixed(2)), data)
	}

	reason := ""
	if w.AdminNotes != nil {
		reason = *w.AdminNotes
		data["reason"] = reason
	}
	return notification.ForUser(userID, notification.TypeWithdrawalRejected,
		"Withdrawal rejected",
		fmt.Sprintf("Your withdrawal of %s was rejected and returned to your balance. Reason: %s", w.Amount.StringFixed(2), reason), data)
}

type ListWithdrawalsRequest struct {
	UserID string           `form:"-"`
	Status WithdrawalStatus `form:"status"`
	pagination.Pagination
}

// ListWithdrawals lists withdrawals newest first. With UserID set only that
// affiliate's withdrawals are returned.
func (s *Service) ListWithdrawals(ctx context.Context, req ListWithdrawalsRequest) ([]*Withdrawal, *pagination.PageInfo, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, nil, errutil.ValidationFailed("unknown withdrawal status", nil)
	}

	query := &Withdrawal{Status: req.Status}
	if req.UserID != "" {
		aff, err := s.GetByUser(ctx, req.UserID)
		if err != nil {
			return nil, nil, err
		}
		query.AffiliateID = aff.ID
	}

	keyset, err := req.Keyset()
	if err != nil {
		return nil, nil, errutil.BadRequest("invalid cursor", err)
	}

	rows, err := s.withdrawal.Find(ctx, query, keyset)
	if err != nil {
		return nil, nil, err
	}
	page, info := pagination.BuildCursorPageInfo(rows, req.Size(), func(w *Withdrawal) pagination.Cursor {
		return pagination.Cursor{CreatedAt: w.CreatedAt, ID: w.ID}
	})
	return page, info, nil
}

// =========================================================
// Settings
// =========================================================

func (s *Service) GetSettings(ctx context.Context) (*AffiliateSetting, error) {
	return s.settings.Get(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*AffiliateSetting, error) {
	var details []errutil.Detail
	checkPct := func(field string, v *decimal.Decimal) {
		if v != nil && (v.IsNegative() || v.GreaterThan(hundred)) {
			details = append(details, errutil.Detail{Field: field, Message: "must be between 0 and 100"})
		}
	}
	checkPct("commission_percentage", req.CommissionPercentage)
	checkPct("discount_percentage", req.DiscountPercentage)
	if req.MinWithdrawal != nil && req.MinWithdrawal.IsNegative() {
		details = append(details, errutil.Detail{Field: "min_withdrawal", Message: "must not be negative"})
	}
	if len(details) > 0 {
		return nil, errutil.ValidationFailed("invalid affiliate settings", nil, errutil.WithDetails(details...))
	}

	out, err := s.settings.Update(ctx, req)
	if err != nil {
		return nil, err
	}
	zap.L().Info("affiliate settings updated",
		zap.String("commission_percentage", out.CommissionPercentage.String()),
		zap.String("discount_percentage", out.DiscountPercentage.String()),
		zap.String("min_withdrawal", out.MinWithdrawal.String()),
	)
	return out, nil
}
