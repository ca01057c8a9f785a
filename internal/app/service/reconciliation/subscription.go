package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fatflowers/caterpay/internal/models"
	"github.com/fatflowers/caterpay/pkg/logctx"
	"github.com/fatflowers/caterpay/pkg/tool"
	"github.com/fatflowers/caterpay/pkg/types"
)

// SubscriptionCheckout is a completed subscription checkout session.
type SubscriptionCheckout struct {
	UserID         string
	CustomerID     string
	SubscriptionID string
	Tier           types.Tier
	EventID        string
	EventAt        time.Time
}

// SubscriptionChange is a provider-side update of an existing subscription.
// Nil fields are left untouched.
type SubscriptionChange struct {
	SubscriptionID string
	Status         types.SubscriptionStatus
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	Tier           *types.Tier
	EventID        string
	EventAt        time.Time
	Reason         types.SubscriptionChangeReason
}

// GetSubscription returns nil without error when the user has none.
func (s *Store) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.findSubscription(ctx, s.db, "user_id = ?", userID)
}

func (s *Store) findSubscription(ctx context.Context, tx *gorm.DB, query string, args ...any) (*models.Subscription, error) {
	var sub models.Subscription
	if err := tx.WithContext(ctx).Where(query, args...).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// ApplySubscriptionCheckout upserts the user's subscription row: update where
// user_id matches, else insert; a unique conflict on insert retries the update.
func (s *Store) ApplySubscriptionCheckout(ctx context.Context, in SubscriptionCheckout) (Outcome, error) {
	var (
		outcome Outcome
		err     error
	)
	for attempt := 0; attempt < 2; attempt++ {
		outcome, err = s.applySubscriptionCheckout(ctx, in)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		logctx.FromCtx(ctx, s.log).Infow("subscription_insert_conflict_retry", "user_id", in.UserID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return outcome, nil
}

func (s *Store) applySubscriptionCheckout(ctx context.Context, in SubscriptionCheckout) (Outcome, error) {
	eventAt := in.EventAt.UTC()
	outcome := OutcomeApplied
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := s.findSubscription(ctx, tx, "user_id = ?", in.UserID)
		if err != nil {
			return err
		}
		if before != nil && staleEvent(before, eventAt) {
			outcome = OutcomeNoOp
			return nil
		}
		if before != nil && before.Status == types.SubscriptionStatusCanceled && before.StripeSubscriptionID == in.SubscriptionID {
			outcome = OutcomeNoOp
			return nil
		}

		now := s.now()
		if before == nil {
			after := &models.Subscription{
				ID:                   tool.GenerateUUIDV7(),
				UserID:               in.UserID,
				StripeCustomerID:     in.CustomerID,
				StripeSubscriptionID: in.SubscriptionID,
				Tier:                 in.Tier,
				Status:               types.SubscriptionStatusActive,
				LastEventAt:          &eventAt,
			}
			if err := tx.WithContext(ctx).Create(after).Error; err != nil {
				return err
			}
			return s.writeLog(ctx, tx, nil, after, types.SubscriptionChangeReasonCheckoutCompleted, in.EventID)
		}

		updates := map[string]any{
			"stripe_subscription_id": in.SubscriptionID,
			"tier":                   in.Tier,
			"status":                 types.SubscriptionStatusActive,
			"last_event_at":          eventAt,
			"updated_at":             now,
		}
		if in.CustomerID != "" {
			updates["stripe_customer_id"] = in.CustomerID
		}
		// Billing periods belong to the replaced subscription.
		if before.StripeSubscriptionID != in.SubscriptionID {
			updates["current_period_start"] = nil
			updates["current_period_end"] = nil
		}
		res := tx.WithContext(ctx).Model(&models.Subscription{}).
			Where("id = ?", before.ID).
			Where("(last_event_at IS NULL OR last_event_at <= ?)", eventAt).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			outcome = OutcomeNoOp
			return nil
		}
		after, err := s.findSubscription(ctx, tx, "id = ?", before.ID)
		if err != nil {
			return err
		}
		return s.writeLog(ctx, tx, before, after, types.SubscriptionChangeReasonCheckoutCompleted, in.EventID)
	})
	return outcome, err
}

// ApplySubscriptionChange applies an update or deletion keyed by the Stripe
// subscription id. Canceled rows are never revived and events older than the
// last applied one are ignored.
func (s *Store) ApplySubscriptionChange(ctx context.Context, in SubscriptionChange) (Outcome, error) {
	eventAt := in.EventAt.UTC()
	outcome := OutcomeApplied
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := s.findSubscription(ctx, tx, "stripe_subscription_id = ?", in.SubscriptionID)
		if err != nil {
			return err
		}
		if before == nil {
			outcome = OutcomeNotFound
			return nil
		}
		if before.Status == types.SubscriptionStatusCanceled || staleEvent(before, eventAt) {
			outcome = OutcomeNoOp
			return nil
		}

		updates := map[string]any{
			"status":        in.Status,
			"last_event_at": eventAt,
			"updated_at":    s.now(),
		}
		if in.PeriodStart != nil {
			updates["current_period_start"] = in.PeriodStart.UTC()
		}
		if in.PeriodEnd != nil {
			updates["current_period_end"] = in.PeriodEnd.UTC()
		}
		if in.Tier != nil && in.Tier.IsKnown() {
			updates["tier"] = *in.Tier
		}
		res := tx.WithContext(ctx).Model(&models.Subscription{}).
			Where("id = ? AND status <> ?", before.ID, types.SubscriptionStatusCanceled).
			Where("(last_event_at IS NULL OR last_event_at <= ?)", eventAt).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			outcome = OutcomeNoOp
			return nil
		}
		after, err := s.findSubscription(ctx, tx, "id = ?", before.ID)
		if err != nil {
			return err
		}
		if !subscriptionChanged(before, after) {
			outcome = OutcomeNoOp
			return nil
		}
		return s.writeLog(ctx, tx, before, after, in.Reason, in.EventID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to apply subscription change: %w", err)
	}
	return outcome, nil
}

// CancelSubscription cancels at the provider first and only then marks the
// local row canceled. An already canceled subscription succeeds untouched.
func (s *Store) CancelSubscription(ctx context.Context, userID string) error {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("subscription of user %s: %w", userID, types.ErrNotFound)
	}
	if sub.Status == types.SubscriptionStatusCanceled {
		return nil
	}

	if sub.StripeSubscriptionID != "" {
		if _, err := s.canceler.CancelSubscription(ctx, sub.StripeSubscriptionID); err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("subscription_cancel_provider_failed",
				"user_id", userID, "stripe_subscription_id", sub.StripeSubscriptionID, "error", err)
			return err
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.WithContext(ctx).Model(&models.Subscription{}).
			Where("id = ? AND status <> ?", sub.ID, types.SubscriptionStatusCanceled).
			Updates(map[string]any{"status": types.SubscriptionStatusCanceled, "updated_at": s.now()})
		if res.Error != nil {
			return fmt.Errorf("failed to cancel subscription: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		after, err := s.findSubscription(ctx, tx, "id = ?", sub.ID)
		if err != nil {
			return err
		}
		logctx.FromCtx(ctx, s.log).Infow("subscription_canceled", "user_id", userID)
		return s.writeLog(ctx, tx, sub, after, types.SubscriptionChangeReasonUserCanceled, logctx.TraceID(ctx))
	})
}

func (s *Store) writeLog(ctx context.Context, tx *gorm.DB, before, after *models.Subscription, reason types.SubscriptionChangeReason, source string) error {
	log := &models.SubscriptionLog{
		ID:     tool.GenerateUUIDV7(),
		UserID: after.UserID,
		Reason: reason,
		Before: datatypes.NewJSONType(before),
		After:  datatypes.NewJSONType(after),
		Extra:  datatypes.JSONMap{"source": source},
	}
	if err := tx.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to save subscription log: %w", err)
	}
	return nil
}

func staleEvent(sub *models.Subscription, eventAt time.Time) bool {
	return sub.LastEventAt != nil && eventAt.Before(*sub.LastEventAt)
}

func subscriptionChanged(a, b *models.Subscription) bool {
	return a.Status != b.Status ||
		a.Tier != b.Tier ||
		!sameTime(a.CurrentPeriodStart, b.CurrentPeriodStart) ||
		!sameTime(a.CurrentPeriodEnd, b.CurrentPeriodEnd)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
