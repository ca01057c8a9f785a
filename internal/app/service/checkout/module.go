package checkout

import (
	"go.uber.org/fx"

	"github.com/fatflowers/caterpay/internal/app/service/account"
	"github.com/fatflowers/caterpay/internal/app/service/reconciliation"
	coinbase "github.com/fatflowers/caterpay/internal/platform/coinbase_commerce"
	stripeapi "github.com/fatflowers/caterpay/internal/platform/stripe_api"
)

// Module exposes the checkout service via Fx.
var Module = fx.Options(
	fx.Provide(
		func(c *stripeapi.Client) StripeGateway { return c },
		func(c *coinbase.Client) CoinbaseGateway { return c },
		func(s *account.Service) UserDirectory { return s },
		func(s *reconciliation.Store) PaymentStore { return s },
		NewService,
	),
)
