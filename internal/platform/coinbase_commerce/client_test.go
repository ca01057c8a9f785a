package coinbase_commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/caterpay/pkg/config"
	"github.com/fatflowers/caterpay/pkg/types"
)

func newTestClient(t *testing.T, apiKey, baseURL string) *Client {
	t.Helper()
	cfg := &config.Config{
		Coinbase:  config.CoinbaseConfig{APIKey: apiKey, APIBaseURL: baseURL},
		Providers: config.ProvidersConfig{Timeout: 2 * time.Second},
	}
	return New(cfg, zap.NewNop().Sugar())
}

func TestCreateCharge_SendsFixedPriceUSD(t *testing.T) {
	var got CreateChargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/charges", r.URL.Path)
		require.Equal(t, "key_1", r.Header.Get("X-CC-Api-Key"))
		require.Equal(t, apiVersion, r.Header.Get("X-CC-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"ch_1","code":"ABCD1234","hosted_url":"https://commerce.coinbase.com/charges/ABCD1234"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, "key_1", srv.URL)
	req := NewFixedPriceCharge("Order o1", "lunch", decimal.RequireFromString("12.5"), map[string]string{"userId": "u1"})
	charge, err := c.CreateCharge(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "ABCD1234", charge.Code)
	require.Equal(t, "https://commerce.coinbase.com/charges/ABCD1234", charge.HostedURL)

	require.Equal(t, PricingTypeFixed, got.PricingType)
	require.Equal(t, LocalPrice{Amount: "12.50", Currency: "USD"}, got.LocalPrice)
	require.Equal(t, "u1", got.Metadata["userId"])
}

func TestCreateCharge_ProviderErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request","message":"local_price is invalid"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, "key_1", srv.URL)
	_, err := c.CreateCharge(context.Background(), NewFixedPriceCharge("x", "", decimal.NewFromInt(1), nil))
	require.ErrorIs(t, err, types.ErrProviderError)
	require.Contains(t, err.Error(), "local_price is invalid")
}

func TestCreateCharge_Unconfigured(t *testing.T) {
	c := newTestClient(t, "", "http://127.0.0.1:0")
	require.False(t, c.Configured())
	_, err := c.CreateCharge(context.Background(), &CreateChargeRequest{})
	require.ErrorIs(t, err, types.ErrProviderUnavailable)
}

func TestCancelCharge_PostsToCode(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, "key_1", srv.URL)
	require.NoError(t, c.CancelCharge(context.Background(), "ABCD1234"))
	require.Equal(t, "/charges/ABCD1234/cancel", path)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":7,"attempt_number":1,"event":{"id":"e1","resource":"event","type":"charge:confirmed"}}`)
	sig := Sign("whsec", body)

	require.True(t, VerifySignature("whsec", body, sig))
	require.False(t, VerifySignature("other", body, sig))
	require.False(t, VerifySignature("whsec", append(body, ' '), sig))
	require.False(t, VerifySignature("whsec", body, ""))
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{
		"id": 1,
		"scheduled_for": "2026-10-01T10:00:05Z",
		"attempt_number": 1,
		"event": {
			"id": "24934862-d980-46cb-9402-43c81b0cdba6",
			"resource": "event",
			"type": "charge:failed",
			"api_version": "2018-03-22",
			"created_at": "2026-10-01T10:00:00Z",
			"data": {"id": "ch_1", "code": "ABCD1234", "metadata": {"userId": "u1"}}
		}
	}`)
	ev, err := ParseWebhook(body)
	require.NoError(t, err)
	require.Equal(t, EventChargeFailed, ev.Type)
	require.Equal(t, "ABCD1234", ev.Data.Code)
	require.Equal(t, "u1", ev.Data.Metadata["userId"])
	require.Equal(t, 2026, ev.CreatedAt.Year())
	require.Equal(t, "24934862-d980-46cb-9402-43c81b0cdba6", ev.ID)

	_, err = ParseWebhook([]byte(`{"event":{}}`))
	require.Error(t, err)
}
