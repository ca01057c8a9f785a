package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/caterpay/internal/app/api/server"
	"github.com/fatflowers/caterpay/internal/app/service/account"
	"github.com/fatflowers/caterpay/internal/app/service/checkout"
	"github.com/fatflowers/caterpay/internal/app/service/eventlog"
	"github.com/fatflowers/caterpay/internal/app/service/reconciliation"
	"github.com/fatflowers/caterpay/internal/app/service/signature"
	"github.com/fatflowers/caterpay/internal/app/service/webhook"
	coinbase "github.com/fatflowers/caterpay/internal/platform/coinbase_commerce"
	"github.com/fatflowers/caterpay/internal/platform/db"
	stripeapi "github.com/fatflowers/caterpay/internal/platform/stripe_api"
	"github.com/fatflowers/caterpay/pkg/config"
	"github.com/fatflowers/caterpay/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	stripeapi.Module,
	coinbase.Module,
	account.Module,
	reconciliation.Module,
	signature.Module,
	eventlog.Module,
	checkout.Module,
	webhook.Module,
	server.Module,
)
