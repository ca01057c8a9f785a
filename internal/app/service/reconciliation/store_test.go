package reconciliation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/caterpay/internal/models"
	"github.com/fatflowers/caterpay/internal/platform/db/dbtest"
	"github.com/fatflowers/caterpay/pkg/types"
)

type fakeCanceler struct {
	calls []string
	err   error
}

func (f *fakeCanceler) CancelSubscription(_ context.Context, id string) (*stripe.Subscription, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.Subscription{ID: id, Status: stripe.SubscriptionStatusCanceled}, nil
}

func newTestStore(t *testing.T) (*Store, *gorm.DB, *fakeCanceler) {
	t.Helper()
	gdb := dbtest.Open(t)
	c := &fakeCanceler{}
	return NewStore(gdb, zap.NewNop().Sugar(), c), gdb, c
}

func countRows(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}

func TestCompleteStripePayment_ReplayIsNoOp(t *testing.T) {
	s, gdb, _ := newTestStore(t)
	ctx := context.Background()
	p := &models.Payment{UserID: "u1", Provider: types.PaymentProviderStripe, ProviderSessionID: lo.ToPtr("cs_1"), Amount: "12.50"}
	require.NoError(t, s.CreatePendingPayment(ctx, p))

	out, err := s.CompleteStripePayment(ctx, "cs_1", "pi_1")
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, out)

	out, err = s.CompleteStripePayment(ctx, "cs_1", "pi_1")
	require.NoError(t, err)
	require.Equal(t, OutcomeNoOp, out)

	var got models.Payment
	require.NoError(t, gdb.First(&got, "id = ?", p.ID).Error)
	require.Equal(t, types.PaymentStatusCompleted, got.Status)
	require.Equal(t, "pi_1", lo.FromPtr(got.ProviderPaymentID))
	require.Equal(t, int64(1), countRows(t, gdb, &models.Payment{}))
}

func TestCompleteStripePayment_UnknownSession(t *testing.T) {
	s, _, _ := newTestStore(t)
	out, err := s.CompleteStripePayment(context.Background(), "cs_missing", "pi_1")
	require.NoError(t, err)
	require.Equal(t, OutcomeNotFound, out)
}

func TestSettleCoinbasePayment_TerminalIsNeverReverted(t *testing.T) {
	s, gdb, _ := newTestStore(t)
	ctx := context.Background()
	p := &models.Payment{UserID: "u1", Provider: types.PaymentProviderCoinbase, ProviderPaymentID: lo.ToPtr("CODE1"), Amount: "30.00"}
	require.NoError(t, s.CreatePendingPayment(ctx, p))

	out, err := s.SettleCoinbasePayment(ctx, "CODE1", types.PaymentStatusFailed)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, out)

	out, err = s.SettleCoinbasePayment(ctx, "CODE1", types.PaymentStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, OutcomeNoOp, out)

	var got models.Payment
	require.NoError(t, gdb.First(&got, "id = ?", p.ID).Error)
	require.Equal(t, types.PaymentStatusFailed, got.Status)

	_, err = s.SettleCoinbasePayment(ctx, "CODE1", types.PaymentStatusPending)
	require.ErrorIs(t, err, types.ErrInvalidRequest)
}

func TestListPayments_NewestFirst(t *testing.T) {
	s, gdb, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, gdb.Create(&models.Payment{
			ID: id, UserID: "u1", Provider: types.PaymentProviderStripe, Amount: "1.00",
			Status: types.PaymentStatusPending, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	require.NoError(t, gdb.Create(&models.Payment{ID: "other", UserID: "u2", Provider: types.PaymentProviderStripe, Amount: "1.00", Status: types.PaymentStatusPending}).Error)

	items, err := s.ListPayments(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, lo.Map(items, func(p *models.Payment, _ int) string { return p.ID }))

	items, err = s.ListPayments(ctx, "nobody")
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestApplySubscriptionCheckout_UpgradeKeepsSingleRow(t *testing.T) {
	s, gdb, _ := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	out, err := s.ApplySubscriptionCheckout(ctx, SubscriptionCheckout{
		UserID: "u2", CustomerID: "cus_1", SubscriptionID: "sub_1", Tier: types.TierStarter, EventID: "evt_1", EventAt: t0,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, out)

	customerID, err := s.GetStripeCustomerID(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, "cus_1", customerID)

	out, err = s.ApplySubscriptionCheckout(ctx, SubscriptionCheckout{
		UserID: "u2", CustomerID: customerID, SubscriptionID: "sub_2", Tier: types.TierProfessional, EventID: "evt_2", EventAt: t0.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, out)

	require.Equal(t, int64(1), countRows(t, gdb, &models.Subscription{}))
	sub, err := s.GetSubscription(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, types.TierProfessional, sub.Tier)
	require.Equal(t, "cus_1", sub.StripeCustomerID)
	require.Equal(t, "sub_2", sub.StripeSubscriptionID)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)

	require.Equal(t, int64(2), countRows(t, gdb, &models.SubscriptionLog{}))
}

func TestApplySubscriptionCheckout_NewSubscriptionClearsPeriods(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	start, end := t0, t0.AddDate(0, 1, 0)

	_, err := s.ApplySubscriptionCheckout(ctx, SubscriptionCheckout{UserID: "u3", CustomerID: "cus_3", SubscriptionID: "sub_1", Tier: types.TierStarter, EventAt: t0})
	require.NoError(t, err)
	out, err := s.ApplySubscriptionChange(ctx, SubscriptionChange{
		SubscriptionID: "sub_1", Status: types.SubscriptionStatusActive, PeriodStart: &start, PeriodEnd: &end,
		EventAt: t0.Add(time.Minute), Reason: types.SubscriptionChangeReasonProviderUpdated,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, out)

	// Same subscription completing again keeps its periods.
	_, err = s.ApplySubscriptionCheckout(ctx, SubscriptionCheckout{UserID: "u3", CustomerID: "cus_3", SubscriptionID: "sub_1", Tier: types.TierStarter, EventAt: t0.Add(2 * time.Minute)})
	require.NoError(t, err)
	sub, err := s.GetSubscription(ctx, "u3")
	require.NoError(t, err)
	require.NotNil(t, sub.CurrentPeriodEnd)
	require.True(t, end.Equal(*sub.CurrentPeriodEnd))

	_, err = s.ApplySubscriptionCheckout(ctx, SubscriptionCheckout{UserID: "u3", CustomerID: "cus_3", SubscriptionID: "sub_2", Tier: types.TierProfessional, EventAt: t0.Add(time.Hour)})
	require.NoError(t, err)
	sub, err = s.GetSubscription(ctx, "u3")
	require.NoError(t, err)
	require.Equal(t, "sub_2", sub.StripeSubscriptionID)
	require.Nil(t, sub.CurrentPeriodStart)
	require.Nil(t, sub.CurrentPeriodEnd)
}

func TestApplySubscriptionCheckout_OlderEventIgnored(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.ApplySubscriptionCheckout(ctx, SubscriptionCheckout{UserID: "u1", CustomerID: "cus_1", SubscriptionID: "sub_2", Tier: types.TierEnterprise, EventAt: t0})
	require.NoError(t, err)

	out, err := s.ApplySubscriptionCheckout(ctx, SubscriptionCheckout{UserID: "u1", CustomerID: "cus_1", SubscriptionID: "sub_1", Tier: types.TierStarter, EventAt: t0.Add(-time.Minute)})
	require.NoError(t, err)
	require.Equal(t, OutcomeNoOp, out)

	sub, err := s.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, types.TierEnterprise, sub.Tier)
}

func TestApplySubscriptionChange(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	_, err := s.ApplySubscriptionCheckout(ctx, SubscriptionCheckout{UserID: "u1", CustomerID: "cus_1", SubscriptionID: "sub_1", Tier: types.TierStarter, EventAt: t0})
	require.NoError(t, err)

	start, end := t0, t0.AddDate(0, 1, 0)
	out, err := s.ApplySubscriptionChange(ctx, SubscriptionChange{
		SubscriptionID: "sub_1", Status: types.SubscriptionStatusPastDue, PeriodStart: &start, PeriodEnd: &end,
		Tier: lo.ToPtr(types.TierProfessional), EventAt: t0.Add(2 * time.Minute), Reason: types.SubscriptionChangeReasonProviderUpdated,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, out)

	sub, err := s.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusPastDue, sub.Status)
	require.Equal(t, types.TierProfessional, sub.Tier)
	require.True(t, end.Equal(*sub.CurrentPeriodEnd))

	// Delivered late: older than the applied update.
	out, err = s.ApplySubscriptionChange(ctx, SubscriptionChange{
		SubscriptionID: "sub_1", Status: types.SubscriptionStatusActive, EventAt: t0.Add(time.Minute), Reason: types.SubscriptionChangeReasonProviderUpdated,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeNoOp, out)

	out, err = s.ApplySubscriptionChange(ctx, SubscriptionChange{
		SubscriptionID: "sub_1", Status: types.SubscriptionStatusCanceled, EventAt: t0.Add(3 * time.Minute), Reason: types.SubscriptionChangeReasonProviderDeleted,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, out)

	// A canceled subscription is not revived by a later update for the same id.
	out, err = s.ApplySubscriptionChange(ctx, SubscriptionChange{
		SubscriptionID: "sub_1", Status: types.SubscriptionStatusActive, EventAt: t0.Add(4 * time.Minute), Reason: types.SubscriptionChangeReasonProviderUpdated,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeNoOp, out)

	sub, err = s.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusCanceled, sub.Status)

	out, err = s.ApplySubscriptionChange(ctx, SubscriptionChange{SubscriptionID: "sub_unknown", Status: types.SubscriptionStatusActive, EventAt: t0})
	require.NoError(t, err)
	require.Equal(t, OutcomeNotFound, out)
}

func TestCancelSubscription(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	t.Run("absent", func(t *testing.T) {
		s, _, c := newTestStore(t)
		require.ErrorIs(t, s.CancelSubscription(ctx, "u1"), types.ErrNotFound)
		require.Empty(t, c.calls)
	})

	t.Run("provider failure leaves row untouched", func(t *testing.T) {
		s, _, c := newTestStore(t)
		_, err := s.ApplySubscriptionCheckout(ctx, SubscriptionCheckout{UserID: "u1", CustomerID: "cus_1", SubscriptionID: "sub_1", Tier: types.TierStarter, EventAt: t0})
		require.NoError(t, err)
		c.err = errors.New("stripe down")

		require.Error(t, s.CancelSubscription(ctx, "u1"))
		sub, err := s.GetSubscription(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	})

	t.Run("cancel then cancel again", func(t *testing.T) {
		s, gdb, c := newTestStore(t)
		_, err := s.ApplySubscriptionCheckout(ctx, SubscriptionCheckout{UserID: "u1", CustomerID: "cus_1", SubscriptionID: "sub_1", Tier: types.TierStarter, EventAt: t0})
		require.NoError(t, err)

		require.NoError(t, s.CancelSubscription(ctx, "u1"))
		require.NoError(t, s.CancelSubscription(ctx, "u1"))
		require.Equal(t, []string{"sub_1"}, c.calls)

		sub, err := s.GetSubscription(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, types.SubscriptionStatusCanceled, sub.Status)

		var logs []*models.SubscriptionLog
		require.NoError(t, gdb.Where("reason = ?", types.SubscriptionChangeReasonUserCanceled).Find(&logs).Error)
		require.Len(t, logs, 1)
		require.Equal(t, types.SubscriptionStatusActive, logs[0].Before.Data().Status)
	})
}

func TestStripeCustomerID_FallsBackToBillingCustomer(t *testing.T) {
	s, gdb, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.GetStripeCustomerID(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, id)

	require.NoError(t, s.SaveStripeCustomerID(ctx, "u1", "cus_a"))
	require.NoError(t, s.SaveStripeCustomerID(ctx, "u1", "cus_b"))
	require.Equal(t, int64(1), countRows(t, gdb, &models.BillingCustomer{}))

	id, err = s.GetStripeCustomerID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "cus_b", id)
}
