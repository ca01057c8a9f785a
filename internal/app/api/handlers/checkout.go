package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/caterpay/internal/app/service/checkout"
	"github.com/fatflowers/caterpay/pkg/logctx"
)

// @Summary      Create subscription checkout
// @Description  Creates a Stripe Checkout session in subscription mode for the given tier
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        request  body      checkout.SubscriptionCheckoutRequest  true  "Subscription checkout"
// @Success      200      {object}  checkout.SessionResponse
// @Failure      400      {object}  handlers.RespError
// @Failure      404      {object}  handlers.RespError
// @Failure      503      {object}  handlers.RespError
// @Router       /api/payments/create-subscription-checkout [post]
func ApiCreateSubscriptionCheckout(mgr checkout.CheckoutManager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.SubscriptionCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, log, "subscription_checkout_bind_failed", bindError(err))
			return
		}
		resp, err := mgr.CreateSubscriptionCheckout(c.Request.Context(), &req)
		if err != nil {
			abortWithError(c, log, "subscription_checkout_failed", err)
			return
		}
		logctx.FromGin(c, log).Infow("subscription_checkout_created", "user_id", req.UserID, "tier", req.Tier, "session_id", resp.SessionID)
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary      Create order checkout
// @Description  Creates a one-off Stripe Checkout session and records a pending payment
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        request  body      checkout.OrderCheckoutRequest  true  "Order checkout"
// @Success      200      {object}  checkout.SessionResponse
// @Failure      400      {object}  handlers.RespError
// @Failure      404      {object}  handlers.RespError
// @Failure      503      {object}  handlers.RespError
// @Router       /api/payments/create-order-checkout [post]
func ApiCreateOrderCheckout(mgr checkout.CheckoutManager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.OrderCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, log, "order_checkout_bind_failed", bindError(err))
			return
		}
		resp, err := mgr.CreateOrderCheckout(c.Request.Context(), &req)
		if err != nil {
			abortWithError(c, log, "order_checkout_failed", err)
			return
		}
		logctx.FromGin(c, log).Infow("order_checkout_created", "user_id", req.UserID, "session_id", resp.SessionID)
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary      Create Coinbase Commerce checkout
// @Description  Creates a fixed-price Coinbase Commerce charge and records a pending payment
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        request  body      checkout.OrderCheckoutRequest  true  "Crypto checkout"
// @Success      200      {object}  checkout.ChargeResponse
// @Failure      400      {object}  handlers.RespError
// @Failure      404      {object}  handlers.RespError
// @Failure      503      {object}  handlers.RespError
// @Router       /api/payments/create-coinbase-checkout [post]
func ApiCreateCoinbaseCheckout(mgr checkout.CheckoutManager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.OrderCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, log, "coinbase_checkout_bind_failed", bindError(err))
			return
		}
		resp, err := mgr.CreateCoinbaseCheckout(c.Request.Context(), &req)
		if err != nil {
			abortWithError(c, log, "coinbase_checkout_failed", err)
			return
		}
		logctx.FromGin(c, log).Infow("coinbase_checkout_created", "user_id", req.UserID, "charge_id", resp.ChargeID)
		c.JSON(http.StatusOK, resp)
	}
}
