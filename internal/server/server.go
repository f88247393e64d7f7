// Package server exposes the billing engine over HTTP to UI and reporting
// collaborators.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	catalogdomain "github.com/smallbiznis/duebook/internal/catalog/domain"
	"github.com/smallbiznis/duebook/internal/clock"
	"github.com/smallbiznis/duebook/internal/config"
	horizondomain "github.com/smallbiznis/duebook/internal/horizon/domain"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	settlementdomain "github.com/smallbiznis/duebook/internal/settlement/domain"
	subscriptiondomain "github.com/smallbiznis/duebook/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Engine          *gin.Engine
	Log             *zap.Logger
	Config          config.Config
	Clock           clock.Clock
	CatalogSvc      catalogdomain.CatalogService
	SubscriptionSvc subscriptiondomain.Service
	PaymentSvc      paymentdomain.Service
	SettlementSvc   settlementdomain.Service
	HorizonSvc      horizondomain.Service
}

type Server struct {
	engine          *gin.Engine
	log             *zap.Logger
	cfg             config.Config
	clock           clock.Clock
	catalogSvc      catalogdomain.CatalogService
	subscriptionSvc subscriptiondomain.Service
	paymentSvc      paymentdomain.Service
	settlementSvc   settlementdomain.Service
	horizonSvc      horizondomain.Service
}

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		engine:          p.Engine,
		log:             p.Log.Named("server"),
		cfg:             p.Config,
		clock:           p.Clock,
		catalogSvc:      p.CatalogSvc,
		subscriptionSvc: p.SubscriptionSvc,
		paymentSvc:      p.PaymentSvc,
		settlementSvc:   p.SettlementSvc,
		horizonSvc:      p.HorizonSvc,
	}
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.Use(ErrorHandlingMiddleware())

	clients := v1.Group("/clients")
	clients.POST("", s.createClient)
	clients.GET("", s.listClients)
	clients.GET("/:id", s.getClient)
	clients.PATCH("/:id", s.updateClient)
	clients.DELETE("/:id", s.deleteClient)

	services := v1.Group("/services")
	services.POST("", s.createService)
	services.GET("", s.listServices)
	services.GET("/:id", s.getService)
	services.PATCH("/:id", s.updateService)

	subscriptions := v1.Group("/subscriptions")
	subscriptions.POST("", s.createSubscription)
	subscriptions.GET("", s.listSubscriptions)
	subscriptions.GET("/:id", s.getSubscription)
	subscriptions.PATCH("/:id", s.updateSubscription)
	subscriptions.DELETE("/:id", s.deleteSubscription)

	payments := v1.Group("/payments")
	payments.POST("", s.createPayment)
	payments.GET("/upcoming", s.listUpcomingPayments)
	payments.GET("/overdue", s.listOverduePayments)
	payments.GET("/recent", s.listRecentPayments)
	payments.GET("/summary", s.paymentSummary)
	payments.GET("/:id", s.getPayment)
	payments.PATCH("/:id", s.updatePayment)
	payments.POST("/:id/pay", s.markPaid)

	sweeps := v1.Group("/sweeps")
	sweeps.POST("/horizon", s.sweepHorizon)
	sweeps.POST("/overdue", s.refreshOverdue)
}

func RunHTTP(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	s.RegisterRoutes()

	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// actorFrom resolves the acting identity stamped onto mutations. Session
// handling lives outside the core; collaborators pass the identity through a
// header.
func actorFrom(c *gin.Context) string {
	if actor := c.GetHeader("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)
