package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/fatflowers/caterpay/internal/app/service/checkout"
	"github.com/fatflowers/caterpay/internal/app/service/eventlog"
	"github.com/fatflowers/caterpay/internal/app/service/reconciliation"
	"github.com/fatflowers/caterpay/internal/app/service/signature"
	webhooksvc "github.com/fatflowers/caterpay/internal/app/service/webhook"
	"github.com/fatflowers/caterpay/internal/models"
	"github.com/fatflowers/caterpay/internal/platform/db/dbtest"
	"github.com/fatflowers/caterpay/pkg/config"
	"github.com/fatflowers/caterpay/pkg/response"
	"github.com/fatflowers/caterpay/pkg/types"
)

type stubCheckout struct {
	err     error
	lastSub *checkout.SubscriptionCheckoutRequest
}

func (s *stubCheckout) CreateSubscriptionCheckout(_ context.Context, req *checkout.SubscriptionCheckoutRequest) (*checkout.SessionResponse, error) {
	s.lastSub = req
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.SessionResponse{SessionID: "cs_sub", URL: "https://checkout.stripe.com/c/cs_sub"}, nil
}

func (s *stubCheckout) CreateOrderCheckout(_ context.Context, _ *checkout.OrderCheckoutRequest) (*checkout.SessionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.SessionResponse{SessionID: "cs_order", URL: "https://checkout.stripe.com/c/cs_order"}, nil
}

func (s *stubCheckout) CreateCoinbaseCheckout(_ context.Context, _ *checkout.OrderCheckoutRequest) (*checkout.ChargeResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.ChargeResponse{ChargeID: "CODE1", URL: "https://commerce.coinbase.com/charges/CODE1"}, nil
}

type stubBilling struct {
	sub       *models.Subscription
	payments  []*models.Payment
	cancelErr error
}

func (s *stubBilling) GetSubscription(context.Context, string) (*models.Subscription, error) {
	return s.sub, nil
}

func (s *stubBilling) CancelSubscription(context.Context, string) error { return s.cancelErr }

func (s *stubBilling) ListPayments(context.Context, string) ([]*models.Payment, error) {
	return s.payments, nil
}

func newRouter(t *testing.T, mgr checkout.CheckoutManager, billing BillingReader, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())
	log := zap.NewNop().Sugar()
	r := gin.New()
	RegisterConfigRoutes(r.Group("/api/config"), cfg)
	RegisterPaymentRoutes(r.Group("/api/payments"), mgr, billing, log)
	RegisterSubscriptionRoutes(r.Group("/api/subscriptions"), billing, log)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.APIResponse[string] {
	t.Helper()
	var env response.APIResponse[string]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestConfigRoutes(t *testing.T) {
	cfg := &config.Config{Stripe: config.StripeConfig{SecretKey: "sk_test", PublishableKey: "pk_test"}}
	r := newRouter(t, &stubCheckout{}, &stubBilling{}, cfg)

	w := do(r, http.MethodGet, "/api/config/stripe", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"publishableKey":"pk_test","isConfigured":true}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/config/coinbase", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"isConfigured":false}`, w.Body.String())
}

func TestCreateSubscriptionCheckout_Validation(t *testing.T) {
	mgr := &stubCheckout{}
	r := newRouter(t, mgr, &stubBilling{}, &config.Config{})

	w := do(r, http.MethodPost, "/api/payments/create-subscription-checkout", map[string]string{"tier": "starter"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, response.APIResponseCodeBadRequest, decodeError(t, w).Code)

	w = do(r, http.MethodPost, "/api/payments/create-subscription-checkout", map[string]string{"userId": "u1", "tier": "gold"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Nil(t, mgr.lastSub, "invalid tier must not reach the service")

	w = do(r, http.MethodPost, "/api/payments/create-subscription-checkout", map[string]string{"userId": "u1", "tier": "professional"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"sessionId":"cs_sub","url":"https://checkout.stripe.com/c/cs_sub"}`, w.Body.String())
	require.Equal(t, types.TierProfessional, mgr.lastSub.Tier)
}

func TestCreateOrderCheckout_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   response.APIResponseCode
	}{
		{"not configured", fmt.Errorf("stripe: %w", types.ErrProviderUnavailable), http.StatusServiceUnavailable, response.APIResponseCodeProviderUnavailable},
		{"unknown user", fmt.Errorf("u9: %w", types.ErrUserNotFound), http.StatusNotFound, response.APIResponseCodeNotFound},
		{"bad amount", types.ErrInvalidAmount, http.StatusBadRequest, response.APIResponseCodeBadRequest},
		{"provider failure", fmt.Errorf("%w: card declined", types.ErrProviderError), http.StatusInternalServerError, response.APIResponseCodeProviderError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(t, &stubCheckout{err: tc.err}, &stubBilling{}, &config.Config{})
			w := do(r, http.MethodPost, "/api/payments/create-order-checkout", `{"userId":"u1","amount":"12.50"}`)
			require.Equal(t, tc.status, w.Code)
			env := decodeError(t, w)
			require.Equal(t, tc.code, env.Code)
			require.Equal(t, tc.err.Error(), env.Data)
		})
	}
}

func TestCreateCoinbaseCheckout(t *testing.T) {
	r := newRouter(t, &stubCheckout{}, &stubBilling{}, &config.Config{})

	w := do(r, http.MethodPost, "/api/payments/create-coinbase-checkout", `{"userId":"u1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/payments/create-coinbase-checkout", `{"userId":"u1","amount":25}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"chargeId":"CODE1","url":"https://commerce.coinbase.com/charges/CODE1"}`, w.Body.String())
}

func TestSubscriptionRoutes(t *testing.T) {
	billing := &stubBilling{}
	r := newRouter(t, &stubCheckout{}, billing, &config.Config{})

	w := do(r, http.MethodGet, "/api/subscriptions/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "null", w.Body.String())

	billing.sub = &models.Subscription{UserID: "u1", Tier: types.TierStarter, Status: types.SubscriptionStatusActive}
	w = do(r, http.MethodGet, "/api/subscriptions/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"tier":"starter"`)

	w = do(r, http.MethodPost, "/api/subscriptions/u1/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	billing.cancelErr = fmt.Errorf("u2: %w", types.ErrNotFound)
	w = do(r, http.MethodPost, "/api/subscriptions/u2/cancel", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPayments(t *testing.T) {
	billing := &stubBilling{payments: []*models.Payment{}}
	r := newRouter(t, &stubCheckout{}, billing, &config.Config{})

	w := do(r, http.MethodGet, "/api/payments/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", w.Body.String())

	billing.payments = []*models.Payment{{UserID: "u1", Provider: types.PaymentProviderStripe, Amount: "12.50", Status: types.PaymentStatusCompleted}}
	w = do(r, http.MethodGet, "/api/payments/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"amount":"12.50"`)
}

const testStripeSecret = "whsec_handlers"

func newWebhookRouter(t *testing.T) (*gin.Engine, *reconciliation.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := dbtest.Open(t)
	log := zap.NewNop().Sugar()
	cfg := &config.Config{
		Env:      config.EnvProd,
		Stripe:   config.StripeConfig{WebhookSecret: testStripeSecret},
		Coinbase: config.CoinbaseConfig{WebhookSecret: "cb_handlers"},
		Webhook:  config.WebhookConfig{RetryWindow: time.Hour},
	}
	store := reconciliation.NewStore(gdb, log, nil)
	ing := webhooksvc.NewIngestor(cfg, signature.New(cfg, log), store, eventlog.New(gdb, log), log)
	r := gin.New()
	RegisterWebhookRoutes(r.Group("/api/webhooks"), ing, log)
	return r, store
}

func postStripe(r http.Handler, body string, secret string) *httptest.ResponseRecorder {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(body),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", signed.Header)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStripeWebhook_Responses(t *testing.T) {
	r, store := newWebhookRouter(t)
	created := time.Now().UTC().Truncate(time.Second)
	body := fmt.Sprintf(`{"id":"evt_h1","object":"event","type":"checkout.session.completed","created":%d,"data":{"object":{"id":"cs_h1","object":"checkout.session","mode":"payment","payment_intent":"pi_h1","metadata":{"userId":"u1","type":"order"}}}}`, created.Unix())

	w := postStripe(r, body, "whsec_wrong")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// The pending payment is not written yet, so the provider is asked to retry.
	w = postStripe(r, body, testStripeSecret)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "60", w.Header().Get("Retry-After"))
	require.Equal(t, response.APIResponseCodeRetryLater, decodeError(t, w).Code)

	require.NoError(t, store.CreatePendingPayment(context.Background(), &models.Payment{
		UserID:            "u1",
		Provider:          types.PaymentProviderStripe,
		ProviderSessionID: strPtr("cs_h1"),
		Amount:            "12.50",
		Status:            types.PaymentStatusPending,
	}))

	w = postStripe(r, body, testStripeSecret)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"received":true}`, w.Body.String())

	payments, err := store.ListPayments(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, types.PaymentStatusCompleted, payments[0].Status)
}

func TestCoinbaseWebhook_RejectsBadSignatureAndOversizedBody(t *testing.T) {
	r, _ := newWebhookRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/coinbase", strings.NewReader(`{"id":1,"attempt_number":1,"event":{"id":"e1","resource":"event","type":"charge:confirmed"}}`))
	req.Header.Set("X-CC-Webhook-Signature", "00")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	big := bytes.Repeat([]byte("a"), MaxWebhookBodyBytes+1)
	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/coinbase", bytes.NewReader(big))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func strPtr(s string) *string { return &s }
