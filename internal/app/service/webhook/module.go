package webhook

import (
	"go.uber.org/fx"

	"github.com/fatflowers/caterpay/internal/app/service/reconciliation"
	"github.com/fatflowers/caterpay/internal/app/service/signature"
)

// Module exposes the webhook ingestor via Fx.
var Module = fx.Options(
	fx.Provide(
		func(v *signature.Verifier) Verifier { return v },
		func(s *reconciliation.Store) Store { return s },
		NewIngestor,
	),
)
