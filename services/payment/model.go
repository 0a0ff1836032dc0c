package payment

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status mirrors the payment gateway's transaction_status values.
type Status string

const (
	StatusPending    Status = "pending"
	StatusCapture    Status = "capture"
	StatusSettlement Status = "settlement"
	StatusExpire     Status = "expire"
	StatusCancel     Status = "cancel"
	StatusDeny       Status = "deny"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCapture, StatusSettlement, StatusExpire, StatusCancel, StatusDeny:
		return true
	}
	return false
}

// Final reports whether no further transition is accepted.
func (s Status) Final() bool {
	switch s {
	case StatusSettlement, StatusExpire, StatusCancel, StatusDeny:
		return true
	}
	return false
}

// Failed reports whether the status ends the payment without success.
func (s Status) Failed() bool {
	return s == StatusExpire || s == StatusCancel || s == StatusDeny
}

type DiscountSource string

const (
	DiscountNone     DiscountSource = "none"
	DiscountVoucher  DiscountSource = "voucher"
	DiscountReferral DiscountSource = "referral"
)

// Payment is one checkout attempt for a plan. Amounts are fixed at quote time.
type Payment struct {
	ID              string          `gorm:"column:id;primaryKey" json:"id"`
	OrderID         string          `gorm:"column:order_id;size:32;uniqueIndex;not null" json:"order_id"`
	UserID          string          `gorm:"column:user_id;index;not null" json:"user_id"`
	PlanName        string          `gorm:"column:plan_name;not null" json:"plan_name"`
	OriginalAmount  decimal.Decimal `gorm:"column:original_amount;type:decimal(15,2);not null" json:"original_amount"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:decimal(5,2);not null;default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal `gorm:"column:discount_amount;type:decimal(15,2);not null;default:0" json:"discount_amount"`
	FinalAmount     decimal.Decimal `gorm:"column:final_amount;type:decimal(15,2);not null" json:"final_amount"`
	DiscountSource  DiscountSource  `gorm:"column:discount_source;not null;default:'none'" json:"discount_source"`
	VoucherID       *string         `gorm:"column:voucher_id;index" json:"voucher_id,omitempty"`
	AffiliateID     *string         `gorm:"column:affiliate_id;index" json:"affiliate_id,omitempty"`
	// VoucherConflict marks a settled payment whose voucher ran out between
	// quote and settlement.
	VoucherConflict bool           `gorm:"column:voucher_conflict;not null;default:false" json:"voucher_conflict"`
	Status          Status         `gorm:"column:status;not null;index" json:"status"`
	GatewayPayload  datatypes.JSON `gorm:"column:gateway_payload" json:"-"`
	PaidAt          *time.Time     `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type QuoteRequest struct {
	UserID       string          `json:"-"`
	PlanName     string          `json:"plan_name"`
	Amount       decimal.Decimal `json:"amount"`
	VoucherCode  string          `json:"voucher_code"`
	ReferralCode string          `json:"referral_code"`
}

// Notification is the payment gateway webhook body.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus Status `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	PlanName          string `json:"plan_name"`
	SignatureKey      string `json:"signature_key"`
}
