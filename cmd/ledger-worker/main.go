package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"cofre/internal/cli"
	"cofre/internal/config"
	"cofre/internal/log"
	"cofre/internal/services"
	"cofre/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	mirror, err := cli.NewMirror(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets mirror", log.FieldError, err)
		os.Exit(1)
	}

	projector := services.NewBalanceProjector(sqliteRepo)
	ledgerWorker := worker.NewLedgerWorker(sqliteRepo, projector, mirror)

	sweep := services.DefaultSchedulerConfig("balance-sweep")
	sweep.Interval = cfg.ReprojectInterval
	scheduler := services.NewScheduler(ledgerWorker.ReprojectAll, sweep)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	if amqpClient != nil {
		defer amqpClient.Close()
		g.Go(func() error {
			return amqpClient.ConsumeLedgerEvents(gctx, ledgerWorker.HandleLedgerEvent)
		})
	} else {
		logger.Info("No broker configured, running the balance sweep only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Ledger worker failed", log.FieldError, err)
		os.Exit(1)
	}

	m := ledgerWorker.GetMetrics()
	logger.Info("Ledger worker shutdown complete",
		"events_handled", m.Handled,
		"rows_mirrored", m.Mirrored,
		"failures", m.Failures)
}
