package types

type PaymentProvider string

const (
	PaymentProviderStripe   PaymentProvider = "stripe"
	PaymentProviderCoinbase PaymentProvider = "coinbase"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsTerminal reports whether no further webhook may change the status.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// CheckoutIntent is stored in provider metadata under "type" so webhooks can
// recover what a session was created for.
type CheckoutIntent string

const (
	CheckoutIntentSubscription CheckoutIntent = "subscription"
	CheckoutIntentOrder        CheckoutIntent = "order"
)

// Metadata keys attached to provider objects.
const (
	MetadataUserID  = "userId"
	MetadataOrderID = "orderId"
	MetadataTier    = "tier"
	MetadataType    = "type"
)
