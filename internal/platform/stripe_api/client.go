package stripe_api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/caterpay/pkg/config"
	"github.com/fatflowers/caterpay/pkg/metrics"
	"github.com/fatflowers/caterpay/pkg/types"
)

// Client wraps a per-instance stripe-go API client. The package level
// stripe.Key is never touched so tests can run several clients side by side.
type Client struct {
	api     *client.API
	timeout time.Duration
	logger  *zap.SugaredLogger
}

func New(cfg *config.Config, logger *zap.SugaredLogger) *Client {
	c := &Client{timeout: cfg.Providers.Timeout, logger: logger}
	if cfg.Stripe.IsConfigured() {
		c.api = client.New(cfg.Stripe.SecretKey, nil)
	} else {
		logger.Warnw("stripe_not_configured", "hint", "set APP_STRIPE_SECRET_KEY to enable card checkout")
	}
	return c
}

var Module = fx.Options(
	fx.Provide(New),
)

func (c *Client) Configured() bool {
	return c != nil && c.api != nil
}

func (c *Client) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	params.Context = ctx

	start := time.Now()
	cust, err := c.api.Customers.New(params)
	metrics.ObserveProviderCall(string(types.PaymentProviderStripe), "create_customer", start, err)
	if err != nil {
		return nil, wrapError("create customer", err)
	}
	return cust, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	params.Context = ctx

	start := time.Now()
	sess, err := c.api.CheckoutSessions.New(params)
	metrics.ObserveProviderCall(string(types.PaymentProviderStripe), "create_checkout_session", start, err)
	if err != nil {
		return nil, wrapError("create checkout session", err)
	}
	return sess, nil
}

// ExpireCheckoutSession makes an open session unusable.
func (c *Client) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	start := time.Now()
	_, err = c.api.CheckoutSessions.Expire(sessionID, params)
	metrics.ObserveProviderCall(string(types.PaymentProviderStripe), "expire_checkout_session", start, err)
	if err != nil {
		return wrapError("expire checkout session", err)
	}
	return nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	start := time.Now()
	sub, err := c.api.Subscriptions.Cancel(subscriptionID, params)
	metrics.ObserveProviderCall(string(types.PaymentProviderStripe), "cancel_subscription", start, err)
	if err != nil {
		return nil, wrapError("cancel subscription", err)
	}
	return sub, nil
}

func (c *Client) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if !c.Configured() {
		return nil, nil, fmt.Errorf("stripe: %w", types.ErrProviderUnavailable)
	}
	if c.timeout <= 0 {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return ctx, cancel, nil
}

// wrapError tags a stripe-go failure as ErrProviderError, keeping the
// provider's own message for the caller.
func wrapError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return fmt.Errorf("%w: stripe %s: %s", types.ErrProviderError, op, se.Msg)
	}
	return fmt.Errorf("%w: stripe %s: %v", types.ErrProviderError, op, err)
}
