package types

type Tier string

const (
	TierStarter      Tier = "starter"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

var KnownTiers = []Tier{TierStarter, TierProfessional, TierEnterprise}

func (t Tier) IsKnown() bool {
	for _, k := range KnownTiers {
		if t == k {
			return true
		}
	}
	return false
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// GrantsAccess reports whether the subscriber may use paid features.
func (s SubscriptionStatus) GrantsAccess() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing || s == SubscriptionStatusPastDue
}

// SubscriptionStatusFromProvider maps a Stripe subscription status onto the
// internal set. Anything not explicitly carried over counts as canceled.
func SubscriptionStatusFromProvider(status string) SubscriptionStatus {
	switch status {
	case "active":
		return SubscriptionStatusActive
	case "past_due":
		return SubscriptionStatusPastDue
	case "trialing":
		return SubscriptionStatusTrialing
	default:
		return SubscriptionStatusCanceled
	}
}

type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonCheckoutCompleted SubscriptionChangeReason = "checkout_completed"
	SubscriptionChangeReasonProviderUpdated   SubscriptionChangeReason = "provider_updated"
	SubscriptionChangeReasonProviderDeleted   SubscriptionChangeReason = "provider_deleted"
	SubscriptionChangeReasonUserCanceled      SubscriptionChangeReason = "user_canceled"
)

// TierPlan is a purchasable subscription tier, loaded from configuration.
type TierPlan struct {
	ID   Tier   `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
	// MonthlyAmountCents is the recurring price in minor units (USD cents).
	MonthlyAmountCents int64 `json:"monthly_amount_cents" mapstructure:"monthly_amount_cents"`
	TrialDays          int64 `json:"trial_days" mapstructure:"trial_days"`
}
