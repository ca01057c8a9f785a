package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fatflowers/caterpay/internal/models"
	"github.com/fatflowers/caterpay/pkg/logctx"
	"github.com/fatflowers/caterpay/pkg/tool"
	"github.com/fatflowers/caterpay/pkg/types"
)

// CreatePendingPayment inserts a new pending payment row.
func (s *Store) CreatePendingPayment(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = tool.GenerateUUIDV7()
	}
	p.Status = types.PaymentStatusPending
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// CompleteStripePayment moves the payment created for a checkout session from
// pending to completed and records the payment intent.
func (s *Store) CompleteStripePayment(ctx context.Context, sessionID, paymentIntentID string) (Outcome, error) {
	updates := map[string]any{
		"status":     types.PaymentStatusCompleted,
		"updated_at": s.now(),
	}
	if paymentIntentID != "" {
		updates["provider_payment_id"] = paymentIntentID
	}
	return s.settlePayment(ctx, "provider_session_id = ?", []any{sessionID}, updates, types.PaymentStatusCompleted)
}

// SettleCoinbasePayment moves the payment for a charge code from pending to
// status, which must be terminal.
func (s *Store) SettleCoinbasePayment(ctx context.Context, chargeCode string, status types.PaymentStatus) (Outcome, error) {
	if !status.IsTerminal() {
		return OutcomeNoOp, fmt.Errorf("%w: %s is not a terminal payment status", types.ErrInvalidRequest, status)
	}
	updates := map[string]any{
		"status":     status,
		"updated_at": s.now(),
	}
	return s.settlePayment(ctx, "provider = ? AND provider_payment_id = ?",
		[]any{types.PaymentProviderCoinbase, chargeCode}, updates, status)
}

func (s *Store) settlePayment(ctx context.Context, match string, args []any, updates map[string]any, target types.PaymentStatus) (Outcome, error) {
	res := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where(match, args...).
		Where("status = ?", types.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return "", fmt.Errorf("failed to update payment: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return OutcomeApplied, nil
	}

	var current models.Payment
	if err := s.db.WithContext(ctx).Where(match, args...).First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeNotFound, nil
		}
		return "", fmt.Errorf("failed to get payment: %w", err)
	}
	if current.Status != target {
		logctx.FromCtx(ctx, s.log).Warnw("payment_late_event_ignored",
			"payment_id", current.ID, "status", current.Status, "event_status", target)
	}
	return OutcomeNoOp, nil
}

// ListPayments returns the payments of a user, newest first.
func (s *Store) ListPayments(ctx context.Context, userID string) ([]*models.Payment, error) {
	items := make([]*models.Payment, 0)
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at desc").Order("id desc").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return items, nil
}
