package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fincheck-controlplane/pkg/config"
	"fincheck-controlplane/pkg/db/option"
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/repository"
	"fincheck-controlplane/pkg/sequence"
	"fincheck-controlplane/services/affiliate"
	"fincheck-controlplane/services/notification"
	"fincheck-controlplane/services/voucher"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var notificationsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payment_notifications_total",
	Help: "Payment gateway notifications by status and outcome.",
}, []string{"status", "outcome"})

var errStatusRaced = errors.New("payment status changed concurrently")

type Vouchers interface {
	Validate(ctx context.Context, code string) (*voucher.Validation, error)
	WithTrx(tx *gorm.DB) *voucher.Service
}

type Referrals interface {
	ValidateReferralCode(ctx context.Context, code string) (*affiliate.ReferralValidation, error)
	RecordReferral(ctx context.Context, req affiliate.ReferralRequest) (*affiliate.ReferralTransaction, error)
	CompleteReferral(ctx context.Context, paymentID string) (*affiliate.ReferralTransaction, error)
	CancelReferral(ctx context.Context, paymentID string) error
}

type Notifier interface {
	Notify(ctx context.Context, payloads ...notification.Payload)
}

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	seq       sequence.Generator
	serverKey string
	now       func() time.Time

	vouchers  Vouchers
	referrals Referrals
	notifier  Notifier

	payment repository.Repository[Payment]
}

type ServiceParams struct {
	fx.In
	DB         *gorm.DB
	Node       *snowflake.Node
	Seq        sequence.Generator
	Config     *config.Config
	Vouchers   *voucher.Service
	Affiliates *affiliate.Service
	Notifier   *notification.Dispatcher
}

func NewService(p ServiceParams) *Service {
	s := &Service{
		db:   p.DB,
		node: p.Node,
		seq:  p.Seq,
		now:  time.Now,

		vouchers:  p.Vouchers,
		referrals: p.Affiliates,
		notifier:  p.Notifier,

		payment: repository.ProvideStore[Payment](p.DB),
	}
	if p.Config != nil {
		s.serverKey = p.Config.Payment.ServerKey
	}
	return s
}

// =========================================================
// Quote
// =========================================================

// Quote prices a plan for the caller and opens a pending payment. A voucher
// takes precedence over a referral code when both are given; a referral code
// owned by the buyer is rejected.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*Payment, error) {
	logger := zap.L().With(zap.String("user_id", req.UserID), zap.String("plan_name", req.PlanName))

	var details []errutil.Detail
	if strings.TrimSpace(req.PlanName) == "" {
		details = append(details, errutil.Detail{Field: "plan_name", Message: "is required"})
	}
	if !req.Amount.IsPositive() {
		details = append(details, errutil.Detail{Field: "amount", Message: "must be greater than zero"})
	}
	if len(details) > 0 {
		return nil, errutil.ValidationFailed("invalid quote request", nil, errutil.WithDetails(details...))
	}

	p := &Payment{
		ID:             s.node.Generate().String(),
		UserID:         req.UserID,
		PlanName:       strings.TrimSpace(req.PlanName),
		OriginalAmount: req.Amount.Round(2),
		DiscountSource: DiscountNone,
		Status:         StatusPending,
		CreatedAt:      s.now(),
	}

	var referral *affiliate.ReferralValidation
	switch {
	case strings.TrimSpace(req.VoucherCode) != "":
		v, err := s.vouchers.Validate(ctx, req.VoucherCode)
		if err != nil {
			return nil, err
		}
		p.DiscountSource = DiscountVoucher
		p.DiscountPercent = decimal.NewFromInt(int64(v.DiscountPercent))
		p.VoucherID = &v.VoucherID

	case strings.TrimSpace(req.ReferralCode) != "":
		r, err := s.referrals.ValidateReferralCode(ctx, req.ReferralCode)
		if err != nil {
			return nil, err
		}
		if r.OwnerUserID == req.UserID {
			return nil, errutil.ValidationFailed("you cannot use your own referral code", nil,
				errutil.WithDetails(errutil.Detail{Field: "referral_code", Message: "belongs to the buyer"}))
		}
		referral = r
		p.DiscountSource = DiscountReferral
		p.DiscountPercent = r.DiscountPercentage
		p.AffiliateID = &r.AffiliateID
	}

	p.DiscountAmount = affiliate.Percent(p.OriginalAmount, p.DiscountPercent)
	p.FinalAmount = p.OriginalAmount.Sub(p.DiscountAmount)

	orderID, err := s.seq.NextOrderCode(ctx)
	if err != nil {
		logger.Error("failed to generate order id", zap.Error(err))
		return nil, err
	}
	p.OrderID = orderID

	if err := s.payment.Create(ctx, p); err != nil {
		logger.Error("failed to create payment", zap.Error(err))
		return nil, err
	}

	if referral != nil {
		if _, err := s.referrals.RecordReferral(ctx, affiliate.ReferralRequest{
			AffiliateID:    referral.AffiliateID,
			ReferredUserID: req.UserID,
			PaymentID:      p.OrderID,
			OrderAmount:    p.FinalAmount,
			DiscountGiven:  p.DiscountAmount,
			PlanName:       p.PlanName,
		}); err != nil {
			logger.Error("failed to record referral", zap.String("order_id", p.OrderID), zap.Error(err))
			return nil, err
		}
	}

	logger.Info("payment quoted",
		zap.String("order_id", p.OrderID),
		zap.String("discount_source", string(p.DiscountSource)),
		zap.String("final_amount", p.FinalAmount.StringFixed(2)),
	)
	return p, nil
}

func (s *Service) Get(ctx context.Context, userID, orderID string) (*Payment, error) {
	p, err := s.payment.FindOne(ctx, &Payment{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	if p == nil || (userID != "" && p.UserID != userID) {
		return nil, errutil.NotFound("payment not found", nil)
	}
	return p, nil
}

// =========================================================
// Gateway notifications
// =========================================================

// signature is sha512(order_id + status_code + gross_amount + server_key).
func (s *Service) signature(n Notification) string {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + s.serverKey))
	return hex.EncodeToString(sum[:])
}

func (s *Service) verify(n Notification) error {
	if s.serverKey == "" {
		return nil
	}
	want := s.signature(n)
	if subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(n.SignatureKey))) != 1 {
		return errutil.Unauthorized("invalid notification signature", nil)
	}
	return nil
}

// HandleNotification applies a gateway status update. Only settlement counts
// as paid: it consumes the voucher and credits the referring affiliate.
// The status change and the voucher use commit together. expire, cancel and
// deny close the payment and cancel its referral. A repeated settlement
// retries the referral credit; other repeats change nothing.
func (s *Service) HandleNotification(ctx context.Context, n Notification) (*Payment, error) {
	logger := zap.L().With(zap.String("order_id", n.OrderID), zap.String("status", string(n.TransactionStatus)))

	if n.OrderID == "" || !n.TransactionStatus.Valid() {
		return nil, errutil.ValidationFailed("invalid payment notification", nil)
	}
	if err := s.verify(n); err != nil {
		logger.Warn("rejected payment notification", zap.Error(err))
		return nil, err
	}

	p, err := s.payment.FindOne(ctx, &Payment{OrderID: n.OrderID})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errutil.NotFound("payment not found", nil)
	}

	if n.GrossAmount != "" {
		gross, err := decimal.NewFromString(n.GrossAmount)
		if err != nil || !gross.Equal(p.FinalAmount) {
			logger.Warn("payment amount mismatch", zap.String("gross_amount", n.GrossAmount), zap.String("final_amount", p.FinalAmount.StringFixed(2)))
			return nil, errutil.BadRequest("gross amount does not match the order", err)
		}
	}

	if p.Status == StatusSettlement && n.TransactionStatus == StatusSettlement {
		// a replay retries the referral credit, which is idempotent per order
		if err := s.creditReferral(ctx, p); err != nil {
			return nil, err
		}
		notificationsHandled.WithLabelValues(string(n.TransactionStatus), "replayed").Inc()
		return p, nil
	}
	if p.Status.Final() || n.TransactionStatus == StatusPending || n.TransactionStatus == p.Status {
		notificationsHandled.WithLabelValues(string(n.TransactionStatus), "ignored").Inc()
		return p, nil
	}

	now := s.now()
	updates := map[string]any{"status": n.TransactionStatus}
	if raw, err := json.Marshal(n); err == nil {
		updates["gateway_payload"] = datatypes.JSON(raw)
	}
	if n.TransactionStatus == StatusSettlement {
		updates["paid_at"] = now
	}

	var voucherConflict bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.payment.WithTrx(tx).UpdateWhere(ctx, p.ID, updates,
			option.Condition{Field: "status", Operator: option.IN, Value: []string{string(StatusPending), string(StatusCapture)}})
		if err != nil {
			return err
		}
		if changed == 0 {
			return errStatusRaced
		}
		if n.TransactionStatus != StatusSettlement || p.VoucherID == nil {
			return nil
		}

		_, err = s.vouchers.WithTrx(tx).Consume(ctx, *p.VoucherID)
		if errutil.Is(err, errutil.StatusConflict) || errutil.Is(err, errutil.StatusNotFound) {
			// the discount was already granted at quote time
			voucherConflict = true
			return s.payment.WithTrx(tx).Update(ctx, p.ID, map[string]any{"voucher_conflict": true})
		}
		return err
	})
	if errors.Is(err, errStatusRaced) {
		notificationsHandled.WithLabelValues(string(n.TransactionStatus), "ignored").Inc()
		return s.Get(ctx, "", n.OrderID)
	}
	if err != nil {
		logger.Error("failed to update payment status", zap.Error(err))
		return nil, err
	}

	p.Status = n.TransactionStatus
	switch {
	case p.Status == StatusSettlement:
		p.PaidAt = &now
		p.VoucherConflict = voucherConflict
		if voucherConflict {
			logger.Warn("voucher exhausted before settlement", zap.String("voucher_id", *p.VoucherID))
			notificationsHandled.WithLabelValues(string(p.Status), "voucher_conflict").Inc()
		}
		s.notifySettled(ctx, p)
		if err := s.creditReferral(ctx, p); err != nil {
			return nil, err
		}
	case p.Status.Failed():
		if err := s.referrals.CancelReferral(ctx, p.OrderID); err != nil {
			logger.Error("failed to cancel referral", zap.Error(err))
		}
	}

	notificationsHandled.WithLabelValues(string(p.Status), "applied").Inc()
	logger.Info("payment status updated")
	return p, nil
}

// creditReferral completes the referral of a settled payment. It returns an
// error so the gateway retries the notification; the retry lands here again.
func (s *Service) creditReferral(ctx context.Context, p *Payment) error {
	if p.AffiliateID == nil {
		return nil
	}
	if _, err := s.referrals.CompleteReferral(ctx, p.OrderID); err != nil {
		zap.L().Error("failed to accrue referral commission", zap.String("order_id", p.OrderID), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) notifySettled(ctx context.Context, p *Payment) {
	s.notifier.Notify(ctx, notification.ForUser(p.UserID, notification.TypePaymentSettled,
		"Payment received",
		fmt.Sprintf("Your %s plan payment of %s has been received.", p.PlanName, p.FinalAmount.StringFixed(2)),
		map[string]any{"order_id": p.OrderID, "amount": p.FinalAmount.StringFixed(2)}))
}
