package webhook

import (
	"context"
	"time"

	"github.com/fatflowers/caterpay/internal/app/service/reconciliation"
	"github.com/fatflowers/caterpay/pkg/types"
)

// EventKind enumerates the provider events this service understands.
type EventKind string

const (
	KindSubscriptionCheckoutCompleted EventKind = "subscription_checkout_completed"
	KindOrderCheckoutCompleted        EventKind = "order_checkout_completed"
	KindSubscriptionUpdated           EventKind = "subscription_updated"
	KindSubscriptionDeleted           EventKind = "subscription_deleted"
	KindChargeConfirmed               EventKind = "charge_confirmed"
	KindChargeResolved                EventKind = "charge_resolved"
	KindChargeFailed                  EventKind = "charge_failed"
	KindIgnored                       EventKind = "ignored"
)

// Store is the transition surface of the reconciliation store.
type Store interface {
	CompleteStripePayment(ctx context.Context, sessionID, paymentIntentID string) (reconciliation.Outcome, error)
	SettleCoinbasePayment(ctx context.Context, chargeCode string, status types.PaymentStatus) (reconciliation.Outcome, error)
	ApplySubscriptionCheckout(ctx context.Context, in reconciliation.SubscriptionCheckout) (reconciliation.Outcome, error)
	ApplySubscriptionChange(ctx context.Context, in reconciliation.SubscriptionChange) (reconciliation.Outcome, error)
}

// Event is a classified webhook. The set is closed: every variant lives in
// this package and carries the transition it causes.
type Event interface {
	Kind() EventKind
	apply(ctx context.Context, st Store) (reconciliation.Outcome, error)
}

// Delivery is one verified provider callback.
type Delivery struct {
	Provider  types.PaymentProvider
	EventID   string
	EventType string
	CreatedAt time.Time
	UserID    string
	Raw       []byte
	Event     Event
}

type SubscriptionCheckoutCompleted struct {
	Checkout reconciliation.SubscriptionCheckout
}

func (SubscriptionCheckoutCompleted) Kind() EventKind { return KindSubscriptionCheckoutCompleted }

func (e SubscriptionCheckoutCompleted) apply(ctx context.Context, st Store) (reconciliation.Outcome, error) {
	return st.ApplySubscriptionCheckout(ctx, e.Checkout)
}

type OrderCheckoutCompleted struct {
	SessionID       string
	PaymentIntentID string
}

func (OrderCheckoutCompleted) Kind() EventKind { return KindOrderCheckoutCompleted }

func (e OrderCheckoutCompleted) apply(ctx context.Context, st Store) (reconciliation.Outcome, error) {
	return st.CompleteStripePayment(ctx, e.SessionID, e.PaymentIntentID)
}

type SubscriptionUpdated struct {
	Change reconciliation.SubscriptionChange
}

func (SubscriptionUpdated) Kind() EventKind { return KindSubscriptionUpdated }

func (e SubscriptionUpdated) apply(ctx context.Context, st Store) (reconciliation.Outcome, error) {
	c := e.Change
	c.Reason = types.SubscriptionChangeReasonProviderUpdated
	return st.ApplySubscriptionChange(ctx, c)
}

type SubscriptionDeleted struct {
	SubscriptionID string
	EventID        string
	EventAt        time.Time
}

func (SubscriptionDeleted) Kind() EventKind { return KindSubscriptionDeleted }

func (e SubscriptionDeleted) apply(ctx context.Context, st Store) (reconciliation.Outcome, error) {
	return st.ApplySubscriptionChange(ctx, reconciliation.SubscriptionChange{
		SubscriptionID: e.SubscriptionID,
		Status:         types.SubscriptionStatusCanceled,
		EventID:        e.EventID,
		EventAt:        e.EventAt,
		Reason:         types.SubscriptionChangeReasonProviderDeleted,
	})
}

// ChargeConfirmed covers charge:confirmed and charge:resolved.
type ChargeConfirmed struct {
	Code     string
	Resolved bool
}

func (e ChargeConfirmed) Kind() EventKind {
	if e.Resolved {
		return KindChargeResolved
	}
	return KindChargeConfirmed
}

func (e ChargeConfirmed) apply(ctx context.Context, st Store) (reconciliation.Outcome, error) {
	return st.SettleCoinbasePayment(ctx, e.Code, types.PaymentStatusCompleted)
}

type ChargeFailed struct {
	Code string
}

func (ChargeFailed) Kind() EventKind { return KindChargeFailed }

func (e ChargeFailed) apply(ctx context.Context, st Store) (reconciliation.Outcome, error) {
	return st.SettleCoinbasePayment(ctx, e.Code, types.PaymentStatusFailed)
}

// Ignored is acknowledged without touching state.
type Ignored struct {
	Reason string
}

func (Ignored) Kind() EventKind { return KindIgnored }

func (Ignored) apply(context.Context, Store) (reconciliation.Outcome, error) {
	return reconciliation.OutcomeNoOp, nil
}
