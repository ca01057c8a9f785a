package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/fatflowers/caterpay/internal/app/service/reconciliation"
	"github.com/fatflowers/caterpay/pkg/types"
)

const (
	stripeCheckoutSessionCompleted = "checkout.session.completed"
	stripeSubscriptionUpdated      = "customer.subscription.updated"
	stripeSubscriptionDeleted      = "customer.subscription.deleted"
)

// ParseStripe classifies a verified Stripe event.
func ParseStripe(ev *stripe.Event, raw []byte) (*Delivery, error) {
	if ev == nil || ev.ID == "" {
		return nil, fmt.Errorf("%w: stripe event without id", types.ErrInvalidRequest)
	}
	d := &Delivery{
		Provider:  types.PaymentProviderStripe,
		EventID:   ev.ID,
		EventType: string(ev.Type),
		CreatedAt: time.Unix(ev.Created, 0).UTC(),
		Raw:       raw,
	}
	if ev.Created == 0 {
		d.CreatedAt = time.Now().UTC()
	}

	var object json.RawMessage
	if ev.Data != nil {
		object = ev.Data.Raw
	}

	var err error
	switch string(ev.Type) {
	case stripeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err = decodeObject(object, &sess); err == nil {
			d.Event, d.UserID = classifyCheckoutSession(d, &sess)
		}
	case stripeSubscriptionUpdated:
		var sub stripe.Subscription
		if err = decodeObject(object, &sub); err == nil {
			d.Event = SubscriptionUpdated{Change: subscriptionChange(d, &sub)}
			d.UserID = sub.Metadata[types.MetadataUserID]
		}
	case stripeSubscriptionDeleted:
		var sub stripe.Subscription
		if err = decodeObject(object, &sub); err == nil {
			d.Event = SubscriptionDeleted{SubscriptionID: sub.ID, EventID: d.EventID, EventAt: d.CreatedAt}
			d.UserID = sub.Metadata[types.MetadataUserID]
		}
	default:
		d.Event = Ignored{Reason: "unhandled event type"}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", types.ErrInvalidRequest, ev.Type, err)
	}
	return d, nil
}

func decodeObject(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing data.object")
	}
	return json.Unmarshal(raw, out)
}

func classifyCheckoutSession(d *Delivery, sess *stripe.CheckoutSession) (Event, string) {
	userID := sess.Metadata[types.MetadataUserID]
	if userID == "" {
		userID = sess.ClientReferenceID
	}
	intent := types.CheckoutIntent(sess.Metadata[types.MetadataType])
	if intent == "" && sess.Mode == stripe.CheckoutSessionModeSubscription {
		intent = types.CheckoutIntentSubscription
	}

	if intent == types.CheckoutIntentSubscription {
		tier := types.Tier(sess.Metadata[types.MetadataTier])
		if userID == "" || !tier.IsKnown() || sess.Subscription == nil {
			return Ignored{Reason: "subscription session without userId, tier or subscription"}, userID
		}
		checkout := reconciliation.SubscriptionCheckout{
			UserID:         userID,
			SubscriptionID: sess.Subscription.ID,
			Tier:           tier,
			EventID:        d.EventID,
			EventAt:        d.CreatedAt,
		}
		if sess.Customer != nil {
			checkout.CustomerID = sess.Customer.ID
		}
		return SubscriptionCheckoutCompleted{Checkout: checkout}, userID
	}

	e := OrderCheckoutCompleted{SessionID: sess.ID}
	if sess.PaymentIntent != nil {
		e.PaymentIntentID = sess.PaymentIntent.ID
	}
	return e, userID
}

func subscriptionChange(d *Delivery, sub *stripe.Subscription) reconciliation.SubscriptionChange {
	c := reconciliation.SubscriptionChange{
		SubscriptionID: sub.ID,
		Status:         types.SubscriptionStatusFromProvider(string(sub.Status)),
		EventID:        d.EventID,
		EventAt:        d.CreatedAt,
	}
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		c.PeriodStart = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		c.PeriodEnd = &t
	}
	if tier := types.Tier(sub.Metadata[types.MetadataTier]); tier.IsKnown() {
		c.Tier = &tier
	}
	return c
}
