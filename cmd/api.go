package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/maison/services/payroll/config"
	"example.com/maison/services/payroll/internal/api"
	"example.com/maison/services/payroll/internal/cache"
	"example.com/maison/services/payroll/internal/database"
	"example.com/maison/services/payroll/internal/messaging"
	"example.com/maison/services/payroll/internal/metrics"
	"example.com/maison/services/payroll/internal/rates"
	"example.com/maison/services/payroll/internal/repositories"
	"example.com/maison/services/payroll/internal/search"
	"example.com/maison/services/payroll/internal/services"
	"example.com/maison/services/payroll/internal/tracing"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for intake, QC, payments and payroll summaries`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	var erpQueue services.Publisher
	sbClient, err := messaging.NewServiceBusClient(cfg.Azure, cfg.Azure.ERPQueue, "payroll-api")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Service Bus sender, continuing without ERP publication")
	} else {
		erpQueue = sbClient
		defer sbClient.Close()
	}

	metricsCollector := metrics.NewMetrics()

	masterDataRepo := repositories.NewMasterDataRepository(db, readOnlyDB)
	ticketRepo := repositories.NewTicketRepository(db, readOnlyDB)
	itemRepo := repositories.NewItemRepository(db, readOnlyDB)
	assignmentRepo := repositories.NewAssignmentRepository(db, readOnlyDB)
	paymentRepo := repositories.NewPaymentRepository(db, readOnlyDB)

	resolver := rates.NewResolver(masterDataRepo)

	svcs := api.Services{
		Assignments: services.NewAssignmentService(itemRepo, assignmentRepo, resolver, metricsCollector),
		Payments:    services.NewPaymentService(paymentRepo, assignmentRepo, redisCache, elasticClient, erpQueue, metricsCollector, tracer),
		Payroll:     services.NewPayrollService(assignmentRepo, masterDataRepo, redisCache, cfg.Payroll),
		Items:       services.NewItemService(ticketRepo, itemRepo, masterDataRepo, metricsCollector),
		MasterData:  services.NewMasterDataService(masterDataRepo, redisCache),
	}

	server := api.NewServer(cfg, svcs, elasticClient, metricsCollector, tracer)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
