package voucher

import (
	"time"
)

type Status string

const (
	StatusActive       Status = "active"
	StatusExpired      Status = "expired"
	StatusLimitReached Status = "limit_reached"
	StatusInactive     Status = "inactive"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusLimitReached, StatusInactive:
		return true
	}
	return false
}

const (
	MaxCodeLength     = 32
	MaxGenerateBatch  = 500
	maxDiscountPct    = 100
	minDiscountPct    = 1
	defaultCodePrefix = "FC"
)

// Voucher is a percentage discount code usable LimitUser times. UsedCount
// never exceeds LimitUser; IsActive flips to false once the limit is reached.
type Voucher struct {
	ID              string    `gorm:"column:id;primaryKey" json:"id"`
	Code            string    `gorm:"column:code;size:32;uniqueIndex;not null" json:"code"`
	Name            string    `gorm:"column:name" json:"name"`
	DiscountPercent int       `gorm:"column:discount_percent;not null" json:"discount_percent"`
	LimitUser       int       `gorm:"column:limit_user;not null;default:1" json:"limit_user"`
	UsedCount       int       `gorm:"column:used_count;not null;default:0" json:"used_count"`
	ExpiresAt       time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	IsActive        bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt       time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// StatusAt derives the voucher status. Expiry wins over the usage limit,
// which wins over the active flag.
func (v *Voucher) StatusAt(now time.Time) Status {
	switch {
	case !now.Before(v.ExpiresAt):
		return StatusExpired
	case v.UsedCount >= v.LimitUser:
		return StatusLimitReached
	case !v.IsActive:
		return StatusInactive
	default:
		return StatusActive
	}
}

// View is a voucher with its derived status, as returned to admins.
type View struct {
	*Voucher
	Status    Status `json:"status"`
	Remaining int    `json:"remaining"`
}

func newView(v *Voucher, now time.Time) View {
	remaining := v.LimitUser - v.UsedCount
	if remaining < 0 {
		remaining = 0
	}
	return View{Voucher: v, Status: v.StatusAt(now), Remaining: remaining}
}

// Validation is the outcome of a successful Validate.
type Validation struct {
	VoucherID       string `json:"voucher_id"`
	Code            string `json:"code"`
	DiscountPercent int    `json:"discount_percent"`
}

type CreateRequest struct {
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	DiscountPercent int       `json:"discount_percent"`
	LimitUser       int       `json:"limit_user"`
	ExpiresAt       time.Time `json:"expires_at"`
	IsActive        *bool     `json:"is_active"`
}

type GenerateRequest struct {
	Prefix          string    `json:"prefix"`
	Count           int       `json:"count"`
	Name            string    `json:"name"`
	DiscountPercent int       `json:"discount_percent"`
	LimitUser       int       `json:"limit_user"`
	ExpiresAt       time.Time `json:"expires_at"`
}
