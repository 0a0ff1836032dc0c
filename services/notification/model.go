package notification

import (
	"time"

	"gorm.io/datatypes"
)

type Type string

const (
	TypeBadgeEarned         Type = "badge_earned"
	TypeCommissionEarned    Type = "commission_earned"
	TypeAffiliateActivated  Type = "affiliate_activated"
	TypeWithdrawalRequested Type = "withdrawal_requested"
	TypeWithdrawalApproved  Type = "withdrawal_approved"
	TypeWithdrawalRejected  Type = "withdrawal_rejected"
	TypePaymentSettled      Type = "payment_settled"
)

// Notification is the stored copy of a dispatched event. Admin notifications
// have no user.
type Notification struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	UserID    *string        `gorm:"column:user_id;index" json:"user_id,omitempty"`
	IsAdmin   bool           `gorm:"column:is_admin;not null;default:false;index" json:"is_admin"`
	Type      Type           `gorm:"column:type;not null" json:"type"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Message   string         `gorm:"column:message" json:"message"`
	Data      datatypes.JSON `gorm:"column:data" json:"data,omitempty"`
	ReadAt    *time.Time     `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;not null" json:"created_at"`
}

// Payload is the body of a notification:dispatch task.
type Payload struct {
	UserID  string         `json:"user_id,omitempty"`
	IsAdmin bool           `json:"is_admin,omitempty"`
	Type    Type           `json:"type"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func ForUser(userID string, typ Type, title, message string, data map[string]any) Payload {
	return Payload{UserID: userID, Type: typ, Title: title, Message: message, Data: data}
}

func ForAdmin(typ Type, title, message string, data map[string]any) Payload {
	return Payload{IsAdmin: true, Type: typ, Title: title, Message: message, Data: data}
}
