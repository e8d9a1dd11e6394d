package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ledgerline/payflow/internal/auth"
	checkoutdomain "github.com/ledgerline/payflow/internal/checkout/domain"
	"github.com/ledgerline/payflow/internal/config"
	"github.com/ledgerline/payflow/internal/observability"
	obslogger "github.com/ledgerline/payflow/internal/observability/logger"
	paymentmethoddomain "github.com/ledgerline/payflow/internal/paymentmethod/domain"
	purchasedomain "github.com/ledgerline/payflow/internal/purchase/domain"
	"github.com/ledgerline/payflow/internal/webhook"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, log *zap.Logger) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log, obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	resolver    *auth.Resolver
	checkoutSvc checkoutdomain.Service
	methodSvc   paymentmethoddomain.Service
	purchaseSvc purchasedomain.Recorder
	webhookSvc  webhook.Service
}

type Params struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Resolver    *auth.Resolver
	CheckoutSvc checkoutdomain.Service
	MethodSvc   paymentmethoddomain.Service
	PurchaseSvc purchasedomain.Recorder
	WebhookSvc  webhook.Service
}

func NewServer(p Params) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		resolver:    p.Resolver,
		checkoutSvc: p.CheckoutSvc,
		methodSvc:   p.MethodSvc,
		purchaseSvc: p.PurchaseSvc,
		webhookSvc:  p.WebhookSvc,
	}

	s.registerPaymentRoutes()
	s.registerWebhookRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPaymentRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	payments := api.Group("/payments")
	payments.POST("/intents", s.HandleCreatePaymentIntent)
	payments.POST("/sheet", s.HandleCreatePaymentSheet)
	payments.POST("/off-session", s.HandleChargeOffSession)

	methods := api.Group("/payment-methods")
	methods.GET("", s.HandleListPaymentMethods)
	methods.DELETE("/:id", s.HandleDetachPaymentMethod)

	api.GET("/purchases", s.HandleListPurchases)
}

func (s *Server) registerWebhookRoutes() {
	// Webhook deliveries authenticate by signature, not bearer token.
	s.engine.POST("/api/payments/webhooks/stripe", s.HandleProcessorWebhook)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
