package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fatflowers/caterpay/internal/models"
)

// GetStripeCustomerID returns the Stripe customer already associated with a
// user, preferring the subscription record, or "" when none exists.
func (s *Store) GetStripeCustomerID(ctx context.Context, userID string) (string, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub != nil && sub.StripeCustomerID != "" {
		return sub.StripeCustomerID, nil
	}

	var bc models.BillingCustomer
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&bc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get billing customer: %w", err)
	}
	return bc.StripeCustomerID, nil
}

// SaveStripeCustomerID remembers the customer created for userID.
func (s *Store) SaveStripeCustomerID(ctx context.Context, userID, customerID string) error {
	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.BillingCustomer{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"stripe_customer_id": customerID, "updated_at": now})
	if res.Error != nil {
		return fmt.Errorf("failed to update billing customer: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Create(&models.BillingCustomer{UserID: userID, StripeCustomerID: customerID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return s.db.WithContext(ctx).Model(&models.BillingCustomer{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{"stripe_customer_id": customerID, "updated_at": now}).Error
	}
	if err != nil {
		return fmt.Errorf("failed to create billing customer: %w", err)
	}
	return nil
}
