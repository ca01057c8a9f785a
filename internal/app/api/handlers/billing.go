package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/caterpay/internal/app/service/checkout"
	"github.com/fatflowers/caterpay/internal/models"
	"github.com/fatflowers/caterpay/pkg/logctx"
	"github.com/fatflowers/caterpay/pkg/types"
)

// BillingReader is the read and cancel surface over a user's billing state.
type BillingReader interface {
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, userID string) error
	ListPayments(ctx context.Context, userID string) ([]*models.Payment, error)
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func userIDParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("userId"))
	return id, id != ""
}

// @Summary      Get subscription
// @Description  Returns the user's subscription record, or null when the user never subscribed
// @Tags         Subscriptions
// @Produce      json
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  models.Subscription
// @Router       /api/subscriptions/{userId} [get]
func ApiGetSubscription(billing BillingReader, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDParam(c)
		if !ok {
			abortWithError(c, log, "get_subscription_bad_request", types.ErrInvalidRequest)
			return
		}
		sub, err := billing.GetSubscription(c.Request.Context(), userID)
		if err != nil {
			abortWithError(c, log, "get_subscription_failed", err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

// @Summary      Cancel subscription
// @Description  Cancels the subscription at Stripe, then marks the local record canceled
// @Tags         Subscriptions
// @Produce      json
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  handlers.SuccessResponse
// @Failure      404     {object}  handlers.RespError
// @Failure      503     {object}  handlers.RespError
// @Router       /api/subscriptions/{userId}/cancel [post]
func ApiCancelSubscription(billing BillingReader, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDParam(c)
		if !ok {
			abortWithError(c, log, "cancel_subscription_bad_request", types.ErrInvalidRequest)
			return
		}
		if err := billing.CancelSubscription(c.Request.Context(), userID); err != nil {
			abortWithError(c, log, "cancel_subscription_failed", err)
			return
		}
		logctx.FromGin(c, log).Infow("subscription_canceled", "user_id", userID)
		c.JSON(http.StatusOK, SuccessResponse{Success: true})
	}
}

// @Summary      List payments
// @Description  Returns the user's payments, newest first
// @Tags         Payments
// @Produce      json
// @Param        userId  path      string  true  "User ID"
// @Success      200     {array}   models.Payment
// @Router       /api/payments/{userId} [get]
func ApiListPayments(billing BillingReader, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDParam(c)
		if !ok {
			abortWithError(c, log, "list_payments_bad_request", types.ErrInvalidRequest)
			return
		}
		payments, err := billing.ListPayments(c.Request.Context(), userID)
		if err != nil {
			abortWithError(c, log, "list_payments_failed", err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, billing BillingReader, log *zap.SugaredLogger) {
	r.GET("/:userId", ApiGetSubscription(billing, log))
	r.POST("/:userId/cancel", ApiCancelSubscription(billing, log))
}

// RegisterPaymentRoutes mounts checkout creation and payment history under /api/payments.
func RegisterPaymentRoutes(r gin.IRouter, mgr checkout.CheckoutManager, billing BillingReader, log *zap.SugaredLogger) {
	r.POST("/create-subscription-checkout", ApiCreateSubscriptionCheckout(mgr, log))
	r.POST("/create-order-checkout", ApiCreateOrderCheckout(mgr, log))
	r.POST("/create-coinbase-checkout", ApiCreateCoinbaseCheckout(mgr, log))
	r.GET("/:userId", ApiListPayments(billing, log))
}
