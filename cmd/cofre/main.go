package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"cofre/internal/cache"
	"cofre/internal/cli"
	"cofre/internal/config"
	"cofre/internal/core"
	apphttp "cofre/internal/http"
	"cofre/internal/log"
	"cofre/internal/middleware/auth"
	"cofre/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	logger.Info("Starting cofre API")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	// Ledger events are best-effort, so a broker outage only disables them.
	var publisher services.Publisher
	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err)
	} else if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	userCache := cache.NewLRUCache[core.User](1000, cfg.UserCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register("users", userCache)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	projector := services.NewBalanceProjector(sqliteRepo)
	deps := apphttp.Dependencies{
		Store:        sqliteRepo,
		Tokens:       tokens,
		Auth:         services.NewAuthService(sqliteRepo, tokens, userCache),
		Accounts:     services.NewAccountService(sqliteRepo, projector),
		Categories:   services.NewCategoryService(sqliteRepo),
		Transactions: services.NewTransactionService(sqliteRepo, projector, publisher),
		Goals:        services.NewGoalService(sqliteRepo),
		SavingsBoxes: services.NewSavingsBoxService(sqliteRepo),
		Dashboard:    services.NewDashboardService(sqliteRepo),
		Projector:    projector,
		UserCache:    userCache,
	}

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:           net.JoinHostPort("", cfg.Port),
		APIRateLimit:   cfg.APIRateLimit,
		AuthRateLimit:  cfg.AuthRateLimit,
		TrustedProxies: cfg.TrustedProxies,
	}, deps, logger)
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "addr", srv.Addr)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
