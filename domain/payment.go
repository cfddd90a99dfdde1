package domain

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
	// PaymentRefundDue is a paid checkout whose listing was deleted before
	// the promotion could be applied.
	PaymentRefundDue PaymentStatus = "refund_due"
)

// Payment is one promote-listing purchase. ID doubles as the merchant order id
// sent to the gateway.
type Payment struct {
	ID           string        `gorm:"primaryKey;size:64" json:"id"`
	ListingID    string        `gorm:"size:36;index;not null" json:"listing_id"`
	UserID       string        `gorm:"size:36;index;not null" json:"user_id"`
	Plan         string        `gorm:"size:32;not null" json:"plan"`
	Amount       int64         `gorm:"not null" json:"amount"`
	Currency     string        `gorm:"size:3;not null" json:"currency"`
	Status       PaymentStatus `gorm:"size:16;index;not null" json:"status"`
	GatewayToken string        `gorm:"size:255" json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	PaidAt       *time.Time    `json:"paid_at,omitempty"`
}

// PromotionPlan prices a promotion window. Amount is in minor units.
type PromotionPlan struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"-"`
	Days     int           `json:"days"`
	Amount   int64         `json:"amount"`
	Currency string        `json:"currency"`
}

// CheckoutRequest is what the gateway needs to issue a checkout token.
type CheckoutRequest struct {
	OrderID  string
	Email    string
	ClientIP string
	Amount   int64
	Currency string
	Item     string
}

// PaymentCallback is the gateway's server-to-server notification.
type PaymentCallback struct {
	OrderID     string `form:"merchant_oid"`
	Status      string `form:"status"`
	TotalAmount string `form:"total_amount"`
	Hash        string `form:"hash"`
	FailReason  string `form:"failed_reason_msg"`
}

func (cb PaymentCallback) Succeeded() bool {
	return cb.Status == "success"
}
