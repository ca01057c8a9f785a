package signature

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"

	coinbase "github.com/fatflowers/caterpay/internal/platform/coinbase_commerce"
	"github.com/fatflowers/caterpay/pkg/config"
	"github.com/fatflowers/caterpay/pkg/types"
)

// Verifier authenticates raw webhook bodies. It holds no state besides the
// configured secrets.
type Verifier struct {
	stripeSecret   string
	coinbaseSecret string
	allowUnsigned  bool
	log            *zap.SugaredLogger
}

func New(cfg *config.Config, log *zap.SugaredLogger) *Verifier {
	return &Verifier{
		stripeSecret:   strings.TrimSpace(cfg.Stripe.WebhookSecret),
		coinbaseSecret: strings.TrimSpace(cfg.Coinbase.WebhookSecret),
		allowUnsigned:  cfg.AllowUnsignedWebhooks(),
		log:            log,
	}
}

var Module = fx.Options(
	fx.Provide(New),
)

// VerifyStripe checks the Stripe-Signature header and decodes the event.
func (v *Verifier) VerifyStripe(body []byte, header string) (*stripe.Event, error) {
	if v.stripeSecret == "" {
		if !v.allowUnsigned {
			return nil, fmt.Errorf("stripe webhook secret missing: %w", types.ErrProviderUnavailable)
		}
		v.log.Warnw("webhook_signature_skipped", "provider", types.PaymentProviderStripe, "reason", "webhook secret not configured")
		var ev stripe.Event
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("%w: decode stripe event: %v", types.ErrInvalidRequest, err)
		}
		return &ev, nil
	}

	ev, err := webhook.ConstructEventWithOptions(body, header, v.stripeSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidSignature, err)
	}
	return &ev, nil
}

// VerifyCoinbase checks the hex HMAC-SHA256 in X-CC-Webhook-Signature.
func (v *Verifier) VerifyCoinbase(body []byte, header string) error {
	if v.coinbaseSecret == "" {
		if !v.allowUnsigned {
			return fmt.Errorf("coinbase webhook secret missing: %w", types.ErrProviderUnavailable)
		}
		v.log.Warnw("webhook_signature_skipped", "provider", types.PaymentProviderCoinbase, "reason", "webhook secret not configured")
		return nil
	}
	if !coinbase.VerifySignature(v.coinbaseSecret, body, header) {
		return types.ErrInvalidSignature
	}
	return nil
}
