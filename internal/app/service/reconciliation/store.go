package reconciliation

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	stripeapi "github.com/fatflowers/caterpay/internal/platform/stripe_api"
)

// Outcome describes what a webhook-driven transition did.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	// OutcomeNoOp means the record already reflects the event or a newer one.
	OutcomeNoOp Outcome = "noop"
	// OutcomeNotFound means no local record matches the provider identifier yet.
	OutcomeNotFound Outcome = "not_found"
)

// SubscriptionCanceler cancels a subscription at the provider.
type SubscriptionCanceler interface {
	CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// Store owns payment, subscription and billing customer rows. Every status
// transition is a conditional update so concurrent deliveries converge.
type Store struct {
	db       *gorm.DB
	log      *zap.SugaredLogger
	canceler SubscriptionCanceler
	now      func() time.Time
}

func NewStore(db *gorm.DB, log *zap.SugaredLogger, canceler SubscriptionCanceler) *Store {
	return &Store{db: db, log: log, canceler: canceler, now: time.Now}
}

var Module = fx.Options(
	fx.Provide(
		NewStore,
		func(c *stripeapi.Client) SubscriptionCanceler { return c },
	),
)
