package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"cofre/internal/cli"
	"cofre/internal/config"
	"cofre/internal/log"
	"cofre/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	// Generated occurrences publish ledger events like API writes do.
	var publisher services.Publisher
	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err)
	} else if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	projector := services.NewBalanceProjector(sqliteRepo)
	transactions := services.NewTransactionService(sqliteRepo, projector, publisher)
	processor := services.NewRecurringProcessor(sqliteRepo, transactions)

	logger.Info("Recurring transaction processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	schedCfg := services.DefaultSchedulerConfig("recurring")
	schedCfg.Interval = cfg.RecurringInterval
	scheduler := services.NewScheduler(func(ctx context.Context) error {
		count, err := processor.ProcessDue(ctx, time.Now())
		if err != nil {
			return err
		}
		logger.Info("Recurring processing complete", "transactions_created", count)
		return nil
	}, schedCfg)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Recurring worker failed", log.FieldError, err)
		os.Exit(1)
	}

	m := scheduler.GetMetrics()
	logger.Info("Recurring-worker shutdown complete", "runs", m.Runs, "failures", m.Failures)
}
