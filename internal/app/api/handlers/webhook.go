package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/caterpay/internal/app/service/webhook"
	coinbase "github.com/fatflowers/caterpay/internal/platform/coinbase_commerce"
	"github.com/fatflowers/caterpay/pkg/types"
)

// MaxWebhookBodyBytes caps provider payloads read into memory.
const MaxWebhookBodyBytes = 65536

type WebhookAck struct {
	Received bool `json:"received"`
}

// readBody reads at most MaxWebhookBodyBytes. Oversized payloads are rejected
// rather than truncated, since a truncated body can never verify.
func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxWebhookBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", types.ErrInvalidRequest, err)
	}
	if len(body) > MaxWebhookBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", types.ErrInvalidRequest, MaxWebhookBodyBytes)
	}
	return body, nil
}

// @Summary      Stripe webhook
// @Description  Receives Stripe events. The raw body is verified against the Stripe-Signature header.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header    string  true  "Stripe signature header"
// @Param        payload           body      string  true  "Stripe event"
// @Success      200               {object}  handlers.WebhookAck
// @Failure      401               {object}  handlers.RespError
// @Failure      503               {object}  handlers.RespError
// @Router       /api/webhooks/stripe [post]
func ApiStripeWebhook(ing *webhook.Ingestor, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := readBody(c)
		if err != nil {
			abortWithError(c, log, "webhook_stripe_rejected", err)
			return
		}
		if _, err := ing.HandleStripe(c.Request.Context(), body, c.GetHeader("Stripe-Signature")); err != nil {
			abortWithError(c, log, "webhook_stripe_not_handled", err)
			return
		}
		c.JSON(http.StatusOK, WebhookAck{Received: true})
	}
}

// @Summary      Coinbase Commerce webhook
// @Description  Receives Coinbase Commerce charge events verified with X-CC-Webhook-Signature.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        X-CC-Webhook-Signature  header    string  true  "HMAC-SHA256 of the raw body"
// @Param        payload                 body      string  true  "Coinbase Commerce event"
// @Success      200                     {object}  handlers.WebhookAck
// @Failure      401                     {object}  handlers.RespError
// @Failure      503                     {object}  handlers.RespError
// @Router       /api/webhooks/coinbase [post]
func ApiCoinbaseWebhook(ing *webhook.Ingestor, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := readBody(c)
		if err != nil {
			abortWithError(c, log, "webhook_coinbase_rejected", err)
			return
		}
		if _, err := ing.HandleCoinbase(c.Request.Context(), body, c.GetHeader(coinbase.SignatureHeader)); err != nil {
			abortWithError(c, log, "webhook_coinbase_not_handled", err)
			return
		}
		c.JSON(http.StatusOK, WebhookAck{Received: true})
	}
}

func RegisterWebhookRoutes(r gin.IRouter, ing *webhook.Ingestor, log *zap.SugaredLogger) {
	r.POST("/stripe", ApiStripeWebhook(ing, log))
	r.POST("/coinbase", ApiCoinbaseWebhook(ing, log))
}
