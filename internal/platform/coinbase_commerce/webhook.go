package coinbase_commerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const SignatureHeader = "X-CC-Webhook-Signature"

// Webhook event types this service reacts to.
const (
	EventChargeConfirmed = "charge:confirmed"
	EventChargeResolved  = "charge:resolved"
	EventChargeFailed    = "charge:failed"
)

// WebhookPayload is one delivery attempt. ID is the numeric delivery id;
// the stable event identity is Event.ID.
type WebhookPayload struct {
	ID            int64        `json:"id"`
	AttemptNumber int          `json:"attempt_number"`
	ScheduledFor  string       `json:"scheduled_for"`
	Event         WebhookEvent `json:"event"`
}

type WebhookEvent struct {
	ID         string    `json:"id"`
	Resource   string    `json:"resource"`
	Type       string    `json:"type"`
	APIVersion string    `json:"api_version"`
	CreatedAt  time.Time `json:"created_at"`
	Data       Charge    `json:"data"`
}

// ParseWebhook decodes a delivery body. Callers verify the signature first.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode coinbase webhook: %w", err)
	}
	if p.Event.ID == "" || p.Event.Type == "" {
		return nil, fmt.Errorf("decode coinbase webhook: missing event id or type")
	}
	return &p.Event, nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := Sign(secret, body)
	return hmac.Equal([]byte(strings.ToLower(strings.TrimSpace(signature))), []byte(expected))
}
