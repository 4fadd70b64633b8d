package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/maison/services/payroll/config"
	"example.com/maison/services/payroll/internal/api/handlers"
	"example.com/maison/services/payroll/internal/api/middleware"
	"example.com/maison/services/payroll/internal/metrics"
	"example.com/maison/services/payroll/internal/search"
	"example.com/maison/services/payroll/internal/services"
	"example.com/maison/services/payroll/internal/tracing"
)

// Services bundles the business services the API exposes.
type Services struct {
	Assignments *services.AssignmentService
	Payments    *services.PaymentService
	Payroll     *services.PayrollService
	Items       *services.ItemService
	MasterData  *services.MasterDataService
}

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	svcs       Services
	elastic    *search.ElasticClient
	metrics    *metrics.Metrics
	tracer     tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, svcs Services, elastic *search.ElasticClient, collector *metrics.Metrics, tracer tracing.Tracer) *Server {
	server := &Server{
		config:  cfg,
		svcs:    svcs,
		elastic: elastic,
		metrics: collector,
		tracer:  tracer,
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      server.router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	// Health check and metrics live outside the organization scope
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	metricsHandler := handlers.NewMetricsHandler(s.metrics, s.tracer)
	router.GET("/metrics", metricsHandler.HandleGetMetrics)

	v1 := router.Group("/v1", middleware.Organization())
	handlers.NewAssignmentHandler(s.svcs.Assignments, s.tracer).RegisterRoutes(v1)
	handlers.NewPaymentHandler(s.svcs.Payments, s.tracer).RegisterRoutes(v1)
	handlers.NewPayrollHandler(s.svcs.Payroll, s.elastic, s.tracer).RegisterRoutes(v1)
	handlers.NewItemHandler(s.svcs.Items).RegisterRoutes(v1)
	handlers.NewMasterDataHandler(s.svcs.MasterData).RegisterRoutes(v1)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
