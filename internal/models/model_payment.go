package models

import (
	"time"

	"github.com/fatflowers/caterpay/pkg/types"
)

// Payment is one checkout attempt for a one-off order.
// Status only moves pending -> completed or pending -> failed.
type Payment struct {
	ID      string  `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID  string  `gorm:"column:user_id;type:varchar(64);not null;index:idx_payment_user_created,priority:1" json:"userId"`
	OrderID *string `gorm:"column:order_id;type:varchar(128)" json:"orderId"`
	// Provider is stripe or coinbase.
	Provider types.PaymentProvider `gorm:"column:provider;type:varchar(32);not null" json:"provider"`
	// ProviderSessionID is the Stripe checkout session id.
	ProviderSessionID *string `gorm:"column:provider_session_id;type:varchar(255);uniqueIndex" json:"providerSessionId"`
	// ProviderPaymentID is the Coinbase charge code at creation, or the Stripe
	// payment intent once the session completes.
	ProviderPaymentID *string `gorm:"column:provider_payment_id;type:varchar(255);index" json:"providerPaymentId"`
	// Amount is a USD decimal string with two fractional digits.
	Amount      string              `gorm:"column:amount;type:varchar(32);not null" json:"amount"`
	Description string              `gorm:"column:description;type:varchar(512)" json:"description"`
	Status      types.PaymentStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt   time.Time           `gorm:"index:idx_payment_user_created,priority:2" json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func (Payment) TableName() string {
	return "payment"
}
