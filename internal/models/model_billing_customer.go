package models

import "time"

// BillingCustomer remembers the Stripe customer created for a user before a
// subscription exists.
type BillingCustomer struct {
	UserID           string    `gorm:"column:user_id;type:varchar(64);primary_key" json:"userId"`
	StripeCustomerID string    `gorm:"column:stripe_customer_id;type:varchar(255);not null" json:"stripeCustomerId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (BillingCustomer) TableName() string { return "billing_customer" }
