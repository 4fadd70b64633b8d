package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/maison/services/payroll/config"
	"example.com/maison/services/payroll/internal/cache"
	"example.com/maison/services/payroll/internal/database"
	"example.com/maison/services/payroll/internal/messaging"
	"example.com/maison/services/payroll/internal/metrics"
	"example.com/maison/services/payroll/internal/repositories"
	"example.com/maison/services/payroll/internal/services"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker to consume intake messages from Azure Service Bus and run the weekly payroll snapshot`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	g, ctx := errgroup.WithContext(ctx)

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	metricsCollector := metrics.NewMetrics()

	masterDataRepo := repositories.NewMasterDataRepository(db, readOnlyDB)
	ticketRepo := repositories.NewTicketRepository(db, readOnlyDB)
	itemRepo := repositories.NewItemRepository(db, readOnlyDB)
	assignmentRepo := repositories.NewAssignmentRepository(db, readOnlyDB)

	itemService := services.NewItemService(ticketRepo, itemRepo, masterDataRepo, metricsCollector)
	payrollService := services.NewPayrollService(assignmentRepo, masterDataRepo, redisCache, cfg.Payroll)

	// Intake consumer
	receiver, err := messaging.NewReceiver(cfg.Azure)
	if err != nil {
		return err
	}
	defer receiver.Close()

	processor := messaging.NewProcessor(itemService)

	g.Go(func() error {
		log.Info().Str("queue", cfg.Azure.IntakeQueue).Msg("Starting intake consumer")
		if err := receiver.StartConsumers(ctx, cfg.Azure.IntakeQueue, processor); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	// Weekly payroll snapshot
	g.Go(func() error {
		log.Info().Msg("Starting payroll snapshot scheduler")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Payroll.WeeklyJobInterval),
			gocron.NewTask(func() {
				log.Info().Msg("Running payroll snapshot job")
				if err := payrollService.RunWeeklySnapshot(ctx); err != nil {
					log.Error().Err(err).Msg("Payroll snapshot job failed")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
