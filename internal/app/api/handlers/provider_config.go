package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/caterpay/pkg/config"
)

type StripeConfigResponse struct {
	PublishableKey string `json:"publishableKey"`
	IsConfigured   bool   `json:"isConfigured"`
}

type CoinbaseConfigResponse struct {
	IsConfigured bool `json:"isConfigured"`
}

// @Summary      Stripe client configuration
// @Description  Publishable key for the frontend and whether Stripe checkout is available
// @Tags         Config
// @Produce      json
// @Success      200  {object}  handlers.StripeConfigResponse
// @Router       /api/config/stripe [get]
func ApiStripeConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, StripeConfigResponse{
			PublishableKey: cfg.Stripe.PublishableKey,
			IsConfigured:   cfg.Stripe.IsConfigured(),
		})
	}
}

// @Summary      Coinbase Commerce configuration
// @Tags         Config
// @Produce      json
// @Success      200  {object}  handlers.CoinbaseConfigResponse
// @Router       /api/config/coinbase [get]
func ApiCoinbaseConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, CoinbaseConfigResponse{IsConfigured: cfg.Coinbase.IsConfigured()})
	}
}

func RegisterConfigRoutes(r gin.IRouter, cfg *config.Config) {
	r.GET("/stripe", ApiStripeConfig(cfg))
	r.GET("/coinbase", ApiCoinbaseConfig(cfg))
}
