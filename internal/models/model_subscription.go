package models

import (
	"time"

	"github.com/fatflowers/caterpay/pkg/types"
)

// Subscription stores the single subscription of a user.
// Use Valid() to determine whether it currently grants access.
type Subscription struct {
	ID                   string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID               string                   `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"userId"`
	StripeCustomerID     string                   `gorm:"column:stripe_customer_id;type:varchar(255)" json:"stripeCustomerId"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;type:varchar(255);index" json:"stripeSubscriptionId"`
	Tier                 types.Tier               `gorm:"column:tier;type:varchar(32);not null" json:"tier"`
	Status               types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CurrentPeriodStart   *time.Time               `gorm:"column:current_period_start;default:null" json:"currentPeriodStart"`
	CurrentPeriodEnd     *time.Time               `gorm:"column:current_period_end;default:null" json:"currentPeriodEnd"`
	// LastEventAt is the provider timestamp of the last applied webhook;
	// older events are ignored.
	LastEventAt *time.Time `gorm:"column:last_event_at;default:null" json:"lastEventAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Subscription) TableName() string {
	return "subscription"
}

func (s *Subscription) Valid() bool {
	return s != nil && s.Status.GrantsAccess()
}
