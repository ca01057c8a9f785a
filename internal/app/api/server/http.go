package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/caterpay/docs"
	"github.com/fatflowers/caterpay/internal/app/api/handlers"
	mw "github.com/fatflowers/caterpay/internal/app/api/middleware"
	"github.com/fatflowers/caterpay/internal/app/service/checkout"
	"github.com/fatflowers/caterpay/internal/app/service/reconciliation"
	"github.com/fatflowers/caterpay/internal/app/service/webhook"
	cfgpkg "github.com/fatflowers/caterpay/pkg/config"
	metrics "github.com/fatflowers/caterpay/pkg/metrics"
)

type routeDeps struct {
	fx.In

	Log      *zap.SugaredLogger
	Cfg      *cfgpkg.Config
	DB       *gorm.DB
	Checkout checkout.CheckoutManager
	Billing  handlers.BillingReader
	Ingestor *webhook.Ingestor
}

func newEngine(cfg *cfgpkg.Config) (*gin.Engine, error) {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Request tracing only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r, nil
}

func registerRoutes(lc fx.Lifecycle, r *gin.Engine, d routeDeps) {
	if d.Cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			Subsystem: metrics.Subsystem,
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return "unmatched"
			},
			Logger: d.Log,
		})
		p.Use(r)
		runMetricsServer(lc, d.Log, p.Server(d.Cfg.MetricsAddr))
	}

	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(d.Log))
	handlers.RegisterHealthRoutes(pub, d.DB)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(d.Log))
	handlers.RegisterConfigRoutes(api.Group("/config"), d.Cfg)
	handlers.RegisterPaymentRoutes(api.Group("/payments"), d.Checkout, d.Billing, d.Log)
	handlers.RegisterSubscriptionRoutes(api.Group("/subscriptions"), d.Billing, d.Log)
	handlers.RegisterWebhookRoutes(api.Group("/webhooks"), d.Ingestor, d.Log)
}

func runMetricsServer(lc fx.Lifecycle, log *zap.SugaredLogger, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting metrics server", "addr", srv.Addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorw("metrics server error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return metrics.Shutdown(ctx, srv)
		},
	})
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(
		newEngine,
		func(s *reconciliation.Store) handlers.BillingReader { return s },
	),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
