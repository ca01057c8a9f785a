package webhook

import (
	"fmt"
	"time"

	coinbase "github.com/fatflowers/caterpay/internal/platform/coinbase_commerce"
	"github.com/fatflowers/caterpay/pkg/types"
)

// ParseCoinbase classifies a verified Coinbase Commerce delivery body.
func ParseCoinbase(raw []byte) (*Delivery, error) {
	ev, err := coinbase.ParseWebhook(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidRequest, err)
	}
	d := &Delivery{
		Provider:  types.PaymentProviderCoinbase,
		EventID:   ev.ID,
		EventType: ev.Type,
		CreatedAt: ev.CreatedAt.UTC(),
		UserID:    ev.Data.Metadata[types.MetadataUserID],
		Raw:       raw,
	}
	if ev.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	switch ev.Type {
	case coinbase.EventChargeConfirmed, coinbase.EventChargeResolved:
		d.Event = ChargeConfirmed{Code: ev.Data.Code, Resolved: ev.Type == coinbase.EventChargeResolved}
	case coinbase.EventChargeFailed:
		d.Event = ChargeFailed{Code: ev.Data.Code}
	default:
		d.Event = Ignored{Reason: "unhandled event type"}
	}
	if d.Event.Kind() != KindIgnored && ev.Data.Code == "" {
		return nil, fmt.Errorf("%w: coinbase %s without charge code", types.ErrInvalidRequest, ev.Type)
	}
	return d, nil
}
