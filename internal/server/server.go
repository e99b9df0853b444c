package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicebuilder/internal/analytics"
	"github.com/smallbiznis/invoicebuilder/internal/config"
	"github.com/smallbiznis/invoicebuilder/internal/export"
	invoicedomain "github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	obslogger "github.com/smallbiznis/invoicebuilder/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicebuilder/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicebuilder/internal/observability/tracing"
	publicinvoicedomain "github.com/smallbiznis/invoicebuilder/internal/publicinvoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log.Named("http"), classifyErrorForLog))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.Middleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, srv *Server, log *zap.Logger) {
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", httpSrv.Addr))
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	log          *zap.Logger
	invoiceSvc   invoicedomain.Service
	analyticsSvc *analytics.Service
	exportSvc    *export.Service

	publicInvoiceSvc     publicinvoicedomain.Service
	publicInvoiceLimiter *rateLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Log          *zap.Logger
	InvoiceSvc   invoicedomain.Service
	AnalyticsSvc *analytics.Service
	ExportSvc    *export.Service

	PublicInvoiceSvc publicinvoicedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		log:          p.Log.Named("http.server"),
		invoiceSvc:   p.InvoiceSvc,
		analyticsSvc: p.AnalyticsSvc,
		exportSvc:    p.ExportSvc,

		publicInvoiceSvc:     p.PublicInvoiceSvc,
		publicInvoiceLimiter: newRateLimiter(30, time.Minute),
	}

	svc.registerAPIRoutes()
	svc.registerPublicRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Invoices --------
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id", s.UpdateInvoice)
	api.DELETE("/invoices/:id", s.DeleteInvoice)

	// -------- Items --------
	api.POST("/invoices/:id/items", s.AddInvoiceItem)
	api.PATCH("/invoices/:id/items/:itemId", s.UpdateInvoiceItem)
	api.DELETE("/invoices/:id/items/:itemId", s.RemoveInvoiceItem)

	api.PUT("/invoices/:id/tax-rate", s.SetInvoiceTaxRate)
	api.POST("/invoices/:id/status", s.TransitionInvoiceStatus)

	// -------- Documents --------
	api.GET("/invoices/:id/document", s.RenderInvoiceDocument)
	api.GET("/invoices/:id/pdf", s.DownloadInvoicePDF)
	api.POST("/invoices/:id/send", s.SendInvoice)

	// -------- Reporting --------
	api.GET("/analytics", s.GetAnalytics)
	api.GET("/export.xlsx", s.ExportWorkbook)
}

func (s *Server) registerPublicRoutes() {
	// Matches the path of an invoice's shareable link.
	s.engine.GET("/invoice/:token", s.RenderPublicInvoice)
	s.engine.GET("/api/public/invoices/:token", s.GetPublicInvoice)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
