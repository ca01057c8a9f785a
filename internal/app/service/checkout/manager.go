package checkout

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"

	"github.com/fatflowers/caterpay/internal/models"
	coinbase "github.com/fatflowers/caterpay/internal/platform/coinbase_commerce"
	"github.com/fatflowers/caterpay/pkg/types"
)

type SubscriptionCheckoutRequest struct {
	UserID     string     `json:"userId" binding:"required"`
	Tier       types.Tier `json:"tier" binding:"required,tier"`
	SuccessURL string     `json:"successUrl"`
	CancelURL  string     `json:"cancelUrl"`
}

// OrderCheckoutRequest is shared by the Stripe and Coinbase order endpoints.
// Amount accepts a JSON string ("12.50") or number.
type OrderCheckoutRequest struct {
	UserID      string           `json:"userId" binding:"required"`
	OrderID     string           `json:"orderId"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Description string           `json:"description"`
	SuccessURL  string           `json:"successUrl"`
	CancelURL   string           `json:"cancelUrl"`
}

type SessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type ChargeResponse struct {
	ChargeID string `json:"chargeId"`
	URL      string `json:"url"`
}

// CheckoutManager creates provider-hosted checkouts. A URL is only returned
// once the matching local state has been written.
type CheckoutManager interface {
	CreateSubscriptionCheckout(ctx context.Context, req *SubscriptionCheckoutRequest) (*SessionResponse, error)
	CreateOrderCheckout(ctx context.Context, req *OrderCheckoutRequest) (*SessionResponse, error)
	CreateCoinbaseCheckout(ctx context.Context, req *OrderCheckoutRequest) (*ChargeResponse, error)
}

type StripeGateway interface {
	Configured() bool
	CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
}

type CoinbaseGateway interface {
	Configured() bool
	CreateCharge(ctx context.Context, req *coinbase.CreateChargeRequest) (*coinbase.Charge, error)
	CancelCharge(ctx context.Context, code string) error
}

type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type PaymentStore interface {
	GetStripeCustomerID(ctx context.Context, userID string) (string, error)
	SaveStripeCustomerID(ctx context.Context, userID, customerID string) error
	CreatePendingPayment(ctx context.Context, p *models.Payment) error
}
