package coinbase_commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/caterpay/pkg/config"
	"github.com/fatflowers/caterpay/pkg/metrics"
	"github.com/fatflowers/caterpay/pkg/types"
)

const (
	apiVersion = "2018-03-22"
	// PricingTypeFixed charges a fixed local-currency amount.
	PricingTypeFixed = "fixed_price"
	maxErrorBody     = 4096
)

type LocalPrice struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type CreateChargeRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PricingType string            `json:"pricing_type"`
	LocalPrice  LocalPrice        `json:"local_price"`
	Metadata    map[string]string `json:"metadata"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	CancelURL   string            `json:"cancel_url,omitempty"`
}

// NewFixedPriceCharge builds a USD fixed-price charge request.
func NewFixedPriceCharge(name, description string, amount decimal.Decimal, metadata map[string]string) *CreateChargeRequest {
	return &CreateChargeRequest{
		Name:        name,
		Description: description,
		PricingType: PricingTypeFixed,
		LocalPrice:  LocalPrice{Amount: amount.StringFixed(2), Currency: "USD"},
		Metadata:    metadata,
	}
}

type Charge struct {
	ID        string            `json:"id"`
	Code      string            `json:"code"`
	HostedURL string            `json:"hosted_url"`
	ExpiresAt string            `json:"expires_at"`
	Metadata  map[string]string `json:"metadata"`
}

type chargeEnvelope struct {
	Data Charge `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the Coinbase Commerce REST API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *zap.SugaredLogger
}

func New(cfg *config.Config, logger *zap.SugaredLogger) *Client {
	if !cfg.Coinbase.IsConfigured() {
		logger.Warnw("coinbase_not_configured", "hint", "set APP_COINBASE_API_KEY to enable crypto checkout")
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.Coinbase.APIKey),
		baseURL: strings.TrimRight(cfg.Coinbase.APIBaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Providers.Timeout},
		logger:  logger,
	}
}

var Module = fx.Options(
	fx.Provide(New),
)

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// CreateCharge creates a hosted charge and returns its code and URL.
func (c *Client) CreateCharge(ctx context.Context, req *CreateChargeRequest) (*Charge, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("coinbase: %w", types.ErrProviderUnavailable)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	start := time.Now()
	var env chargeEnvelope
	err = c.do(ctx, http.MethodPost, "/charges", body, &env)
	metrics.ObserveProviderCall(string(types.PaymentProviderCoinbase), "create_charge", start, err)
	if err != nil {
		return nil, err
	}
	if env.Data.Code == "" || env.Data.HostedURL == "" {
		return nil, fmt.Errorf("%w: coinbase create charge: response missing code or hosted_url", types.ErrProviderError)
	}
	return &env.Data, nil
}

// CancelCharge cancels a charge that has not been paid yet.
func (c *Client) CancelCharge(ctx context.Context, code string) error {
	if !c.Configured() {
		return fmt.Errorf("coinbase: %w", types.ErrProviderUnavailable)
	}
	start := time.Now()
	err := c.do(ctx, http.MethodPost, "/charges/"+code+"/cancel", nil, nil)
	metrics.ObserveProviderCall(string(types.PaymentProviderCoinbase), "cancel_charge", start, err)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build coinbase request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CC-Api-Key", c.apiKey)
	req.Header.Set("X-CC-Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: coinbase %s %s: %v", types.ErrProviderError, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var e errorEnvelope
		if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
			return fmt.Errorf("%w: coinbase %s %s: status %d: %s", types.ErrProviderError, method, path, resp.StatusCode, e.Error.Message)
		}
		return fmt.Errorf("%w: coinbase %s %s: status %d: %s", types.ErrProviderError, method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode coinbase response: %v", types.ErrProviderError, err)
	}
	return nil
}
