package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatflowers/caterpay/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")
	t.Setenv("APP_DOTENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("APP_STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("APP_COINBASE_API_KEY", "")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvDev, cfg.Env)
	require.Equal(t, 8888, cfg.Server.Port)
	require.Equal(t, "usd", cfg.Stripe.Currency)
	require.Equal(t, 20*time.Second, cfg.Providers.Timeout)
	require.Equal(t, time.Hour, cfg.Webhook.RetryWindow)
	require.True(t, cfg.Stripe.IsConfigured())
	require.False(t, cfg.Coinbase.IsConfigured())
	require.False(t, cfg.AllowUnsignedWebhooks(), "unsigned webhooks need an explicit opt-in")
	require.Len(t, cfg.SubscriptionTiers, 3)

	t.Setenv("APP_WEBHOOK_ALLOW_UNSIGNED", "true")
	cfg, err = New()
	require.NoError(t, err)
	require.True(t, cfg.AllowUnsignedWebhooks())

	t.Setenv("APP_ENV", "prod")
	cfg, err = New()
	require.NoError(t, err)
	require.False(t, cfg.AllowUnsignedWebhooks())
}

func TestNew_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: [unterminated\n"), 0o600))
	t.Setenv("APP_CONFIG_FILE", file)
	t.Setenv("APP_DOTENV_FILE", filepath.Join(dir, "missing.env"))

	_, err := New()
	require.Error(t, err)
}

func TestNew_YAMLTiers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.yaml")
	yaml := `
env: prod
subscription_tiers:
  - id: starter
    name: Starter
    monthly_amount_cents: 1000
    trial_days: 7
`
	require.NoError(t, os.WriteFile(file, []byte(yaml), 0o600))
	t.Setenv("APP_CONFIG_FILE", file)
	t.Setenv("APP_DOTENV_FILE", filepath.Join(dir, "missing.env"))

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvProd, cfg.Env)
	require.False(t, cfg.AllowUnsignedWebhooks())

	plan := cfg.GetTier(types.TierStarter)
	require.NotNil(t, plan)
	require.Equal(t, int64(1000), plan.MonthlyAmountCents)
	require.Equal(t, int64(7), plan.TrialDays)
	require.Nil(t, cfg.GetTier(types.TierEnterprise))
}
