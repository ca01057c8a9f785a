package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/fatflowers/caterpay/internal/models"
	coinbase "github.com/fatflowers/caterpay/internal/platform/coinbase_commerce"
	"github.com/fatflowers/caterpay/pkg/config"
	"github.com/fatflowers/caterpay/pkg/logctx"
	"github.com/fatflowers/caterpay/pkg/metrics"
	"github.com/fatflowers/caterpay/pkg/types"
)

type Service struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	stripe   StripeGateway
	coinbase CoinbaseGateway
	users    UserDirectory
	store    PaymentStore
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, stripe StripeGateway, coinbase CoinbaseGateway, users UserDirectory, store PaymentStore) CheckoutManager {
	return &Service{cfg: cfg, log: log, stripe: stripe, coinbase: coinbase, users: users, store: store}
}

func (s *Service) CreateSubscriptionCheckout(ctx context.Context, req *SubscriptionCheckoutRequest) (res *SessionResponse, err error) {
	defer func() { countCheckout(types.PaymentProviderStripe, types.CheckoutIntentSubscription, err) }()

	if !s.stripe.Configured() {
		return nil, fmt.Errorf("stripe checkout: %w", types.ErrProviderUnavailable)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: userId is required", types.ErrInvalidRequest)
	}
	plan := s.cfg.GetTier(req.Tier)
	if plan == nil {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidTier, req.Tier)
	}
	user, err := s.users.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.resolveCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		types.MetadataUserID: user.ID,
		types.MetadataTier:   string(plan.ID),
		types.MetadataType:   string(types.CheckoutIntentSubscription),
	}
	subscriptionData := &stripe.CheckoutSessionSubscriptionDataParams{Metadata: metadata}
	if plan.TrialDays > 0 {
		subscriptionData.TrialPeriodDays = stripe.Int64(plan.TrialDays)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(customerID),
		ClientReferenceID: stripe.String(user.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.currency()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(plan.Name + " plan"),
					},
					UnitAmount: stripe.Int64(plan.MonthlyAmountCents),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: subscriptionData,
		Metadata:         metadata,
		SuccessURL:       stripe.String(s.redirectURL(req.SuccessURL, "/subscription/success?session_id={CHECKOUT_SESSION_ID}")),
		CancelURL:        stripe.String(s.redirectURL(req.CancelURL, "/subscription")),
	}

	sess, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription_checkout_created",
		"user_id", user.ID, "tier", plan.ID, "session_id", sess.ID, "customer_id", customerID)
	return &SessionResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

// resolveCustomer reuses the customer from the subscription record or the
// billing customer mapping before creating a new one.
func (s *Service) resolveCustomer(ctx context.Context, user *models.User) (string, error) {
	customerID, err := s.store.GetStripeCustomerID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if customerID != "" {
		return customerID, nil
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{types.MetadataUserID: user.ID},
	}
	if user.Email != "" {
		params.Email = stripe.String(user.Email)
	}
	if user.Name != "" {
		params.Name = stripe.String(user.Name)
	}
	cust, err := s.stripe.CreateCustomer(ctx, params)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveStripeCustomerID(ctx, user.ID, cust.ID); err != nil {
		return "", err
	}
	logctx.FromCtx(ctx, s.log).Infow("stripe_customer_created", "user_id", user.ID, "customer_id", cust.ID)
	return cust.ID, nil
}

func (s *Service) CreateOrderCheckout(ctx context.Context, req *OrderCheckoutRequest) (res *SessionResponse, err error) {
	defer func() { countCheckout(types.PaymentProviderStripe, types.CheckoutIntentOrder, err) }()

	if !s.stripe.Configured() {
		return nil, fmt.Errorf("stripe checkout: %w", types.ErrProviderUnavailable)
	}
	amount, cents, user, err := s.validateOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	metadata := orderMetadata(user.ID, req.OrderID)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(user.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.currency()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(orderName(req)),
					},
					UnitAmount: stripe.Int64(cents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: metadata},
		Metadata:          metadata,
		SuccessURL:        stripe.String(s.redirectURL(req.SuccessURL, "/payment/success?session_id={CHECKOUT_SESSION_ID}")),
		CancelURL:         stripe.String(s.redirectURL(req.CancelURL, "/payment/cancel")),
	}
	if user.Email != "" {
		params.CustomerEmail = stripe.String(user.Email)
	}

	sess, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:            user.ID,
		OrderID:           optional(req.OrderID),
		Provider:          types.PaymentProviderStripe,
		ProviderSessionID: lo.ToPtr(sess.ID),
		Amount:            amount.StringFixed(2),
		Description:       req.Description,
	}
	if err := s.store.CreatePendingPayment(ctx, payment); err != nil {
		// The session is unusable without its record; expire it so nobody pays into it.
		if expErr := s.stripe.ExpireCheckoutSession(context.WithoutCancel(ctx), sess.ID); expErr != nil {
			logctx.FromCtx(ctx, s.log).Errorw("checkout_session_expire_failed", "session_id", sess.ID, "error", expErr)
		}
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("order_checkout_created",
		"user_id", user.ID, "order_id", req.OrderID, "payment_id", payment.ID, "session_id", sess.ID, "amount", payment.Amount)
	return &SessionResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

func (s *Service) CreateCoinbaseCheckout(ctx context.Context, req *OrderCheckoutRequest) (res *ChargeResponse, err error) {
	defer func() { countCheckout(types.PaymentProviderCoinbase, types.CheckoutIntentOrder, err) }()

	if !s.coinbase.Configured() {
		return nil, fmt.Errorf("coinbase checkout: %w", types.ErrProviderUnavailable)
	}
	amount, _, user, err := s.validateOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	charge := coinbase.NewFixedPriceCharge(orderName(req), req.Description, amount, orderMetadata(user.ID, req.OrderID))
	charge.RedirectURL = s.redirectURL(req.SuccessURL, "/payment/success")
	charge.CancelURL = s.redirectURL(req.CancelURL, "/payment/cancel")

	created, err := s.coinbase.CreateCharge(ctx, charge)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:            user.ID,
		OrderID:           optional(req.OrderID),
		Provider:          types.PaymentProviderCoinbase,
		ProviderPaymentID: lo.ToPtr(created.Code),
		Amount:            amount.StringFixed(2),
		Description:       req.Description,
	}
	if err := s.store.CreatePendingPayment(ctx, payment); err != nil {
		if cancelErr := s.coinbase.CancelCharge(context.WithoutCancel(ctx), created.Code); cancelErr != nil {
			logctx.FromCtx(ctx, s.log).Errorw("coinbase_charge_cancel_failed", "charge_code", created.Code, "error", cancelErr)
		}
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("coinbase_checkout_created",
		"user_id", user.ID, "order_id", req.OrderID, "payment_id", payment.ID, "charge_code", created.Code, "amount", payment.Amount)
	return &ChargeResponse{ChargeID: created.Code, URL: created.HostedURL}, nil
}

func (s *Service) validateOrder(ctx context.Context, req *OrderCheckoutRequest) (decimal.Decimal, int64, *models.User, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return decimal.Zero, 0, nil, fmt.Errorf("%w: userId is required", types.ErrInvalidRequest)
	}
	amount, cents, err := normalizeAmount(req.Amount)
	if err != nil {
		return decimal.Zero, 0, nil, err
	}
	user, err := s.users.GetUser(ctx, req.UserID)
	if err != nil {
		return decimal.Zero, 0, nil, err
	}
	return amount, cents, user, nil
}

func (s *Service) currency() string {
	if s.cfg.Stripe.Currency == "" {
		return string(stripe.CurrencyUSD)
	}
	return strings.ToLower(s.cfg.Stripe.Currency)
}

// redirectURL prefers the caller's URL and falls back to app.public_url + path.
func (s *Service) redirectURL(requested, path string) string {
	if requested != "" {
		return requested
	}
	return strings.TrimRight(s.cfg.App.PublicURL, "/") + path
}

func orderMetadata(userID, orderID string) map[string]string {
	m := map[string]string{
		types.MetadataUserID: userID,
		types.MetadataType:   string(types.CheckoutIntentOrder),
	}
	if orderID != "" {
		m[types.MetadataOrderID] = orderID
	}
	return m
}

func orderName(req *OrderCheckoutRequest) string {
	if req.OrderID != "" {
		return "Catering order " + req.OrderID
	}
	return "Catering order"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return lo.ToPtr(s)
}

func countCheckout(provider types.PaymentProvider, intent types.CheckoutIntent, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.IncCheckoutSession(string(provider), string(intent), result)
}
