package affiliate

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
	ReferralCancelled ReferralStatus = "cancelled"
)

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalApproved, WithdrawalRejected:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodEWallet      PaymentMethod = "e_wallet"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodBankTransfer || m == MethodEWallet
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// UserAffiliate is a user's affiliate account. Balance never exceeds
// TotalEarned; both only change through atomic column updates.
type UserAffiliate struct {
	ID             string          `gorm:"column:id;primaryKey" json:"id"`
	UserID         string          `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	ReferralCode   string          `gorm:"column:referral_code;size:15;uniqueIndex;not null" json:"referral_code"`
	IsActive       bool            `gorm:"column:is_active;not null;default:false" json:"is_active"`
	Balance        decimal.Decimal `gorm:"column:balance;type:decimal(15,2);not null;default:0" json:"balance"`
	TotalEarned    decimal.Decimal `gorm:"column:total_earned;type:decimal(15,2);not null;default:0" json:"total_earned"`
	TotalReferrals int64           `gorm:"column:total_referrals;not null;default:0" json:"total_referrals"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type ReferralTransaction struct {
	ID               string          `gorm:"column:id;primaryKey" json:"id"`
	AffiliateID      string          `gorm:"column:affiliate_id;index;not null" json:"affiliate_id"`
	ReferredUserID   string          `gorm:"column:referred_user_id;index;not null" json:"referred_user_id"`
	PaymentID        string          `gorm:"column:payment_id;uniqueIndex;not null" json:"payment_id"`
	OrderAmount      decimal.Decimal `gorm:"column:order_amount;type:decimal(15,2);not null" json:"order_amount"`
	DiscountGiven    decimal.Decimal `gorm:"column:discount_given;type:decimal(15,2);not null;default:0" json:"discount_given"`
	CommissionEarned decimal.Decimal `gorm:"column:commission_earned;type:decimal(15,2);not null;default:0" json:"commission_earned"`
	PlanName         string          `gorm:"column:plan_name" json:"plan_name"`
	Status           ReferralStatus  `gorm:"column:status;not null;index" json:"status"`
	CompletedAt      *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time       `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Withdrawal amounts are deducted from the balance when requested and credited
// back if the request is rejected.
type Withdrawal struct {
	ID            string           `gorm:"column:id;primaryKey" json:"id"`
	AffiliateID   string           `gorm:"column:affiliate_id;index;not null" json:"affiliate_id"`
	Amount        decimal.Decimal  `gorm:"column:amount;type:decimal(15,2);not null" json:"amount"`
	PaymentMethod PaymentMethod    `gorm:"column:payment_method;not null" json:"payment_method"`
	BankName      *string          `gorm:"column:bank_name" json:"bank_name,omitempty"`
	AccountName   string           `gorm:"column:account_name;not null" json:"account_name"`
	AccountNumber string           `gorm:"column:account_number;not null" json:"account_number"`
	Status        WithdrawalStatus `gorm:"column:status;not null;index" json:"status"`
	AdminNotes    *string          `gorm:"column:admin_notes" json:"admin_notes,omitempty"`
	ProcessedAt   *time.Time       `gorm:"column:processed_at" json:"processed_at,omitempty"`
	CreatedAt     time.Time        `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

const settingsRowID = 1

// AffiliateSetting is a single-row table holding program-wide settings.
type AffiliateSetting struct {
	ID                   int             `gorm:"column:id;primaryKey;autoIncrement:false" json:"-"`
	WhatsappCS           string          `gorm:"column:whatsapp_cs" json:"whatsapp_cs"`
	CommissionPercentage decimal.Decimal `gorm:"column:commission_percentage;type:decimal(5,2);not null" json:"commission_percentage"`
	DiscountPercentage   decimal.Decimal `gorm:"column:discount_percentage;type:decimal(5,2);not null" json:"discount_percentage"`
	MinWithdrawal        decimal.Decimal `gorm:"column:min_withdrawal;type:decimal(15,2);not null" json:"min_withdrawal"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// Percent returns amount * pct / 100 rounded to cents.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Round(2)
}

type ReferralValidation struct {
	AffiliateID        string          `json:"affiliate_id"`
	ReferralCode       string          `json:"referral_code"`
	OwnerUserID        string          `json:"-"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

type ReferralRequest struct {
	AffiliateID    string
	ReferredUserID string
	PaymentID      string
	OrderAmount    decimal.Decimal
	DiscountGiven  decimal.Decimal
	PlanName       string
}

type WithdrawalRequest struct {
	UserID        string          `json:"-"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	BankName      string          `json:"bank_name"`
	AccountName   string          `json:"account_name"`
	AccountNumber string          `json:"account_number"`
}

type ProcessRequest struct {
	WithdrawalID string `json:"-"`
	Action       Action `json:"-"`
	Notes        string `json:"notes"`
}

type UpdateSettingsRequest struct {
	WhatsappCS           *string          `json:"whatsapp_cs"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage"`
	DiscountPercentage   *decimal.Decimal `json:"discount_percentage"`
	MinWithdrawal        *decimal.Decimal `json:"min_withdrawal"`
}

type Dashboard struct {
	Affiliate       *UserAffiliate         `json:"affiliate"`
	Settings        *AffiliateSetting      `json:"settings"`
	PendingPayout   decimal.Decimal        `json:"pending_payout"`
	RecentReferrals []*ReferralTransaction `json:"recent_referrals"`
}
