package stripe_api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/fatflowers/caterpay/pkg/config"
	"github.com/fatflowers/caterpay/pkg/types"
)

func TestClient_UnconfiguredReturnsProviderUnavailable(t *testing.T) {
	c := New(&config.Config{Providers: config.ProvidersConfig{Timeout: time.Second}}, zap.NewNop().Sugar())
	require.False(t, c.Configured())

	_, err := c.CreateCheckoutSession(context.Background(), &stripe.CheckoutSessionParams{})
	require.ErrorIs(t, err, types.ErrProviderUnavailable)

	_, err = c.CancelSubscription(context.Background(), "sub_1")
	require.ErrorIs(t, err, types.ErrProviderUnavailable)

	require.ErrorIs(t, c.ExpireCheckoutSession(context.Background(), "cs_1"), types.ErrProviderUnavailable)
}

func TestWrapError_KeepsProviderMessage(t *testing.T) {
	err := wrapError("create customer", &stripe.Error{Msg: "No such customer: cus_x"})
	require.ErrorIs(t, err, types.ErrProviderError)
	require.Contains(t, err.Error(), "No such customer: cus_x")

	err = wrapError("create customer", errors.New("dial tcp: timeout"))
	require.ErrorIs(t, err, types.ErrProviderError)
	require.Contains(t, err.Error(), "dial tcp")
}
