package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/pirnawaz/agroledger/internal/adapter/http"
	"github.com/pirnawaz/agroledger/internal/adapter/http/handler"
	postgresRepo "github.com/pirnawaz/agroledger/internal/adapter/repository/postgres"
	redisRepo "github.com/pirnawaz/agroledger/internal/adapter/repository/redis"
	"github.com/pirnawaz/agroledger/internal/infrastructure/config"
	"github.com/pirnawaz/agroledger/internal/infrastructure/eventpublisher"
	"github.com/pirnawaz/agroledger/internal/infrastructure/logger"
	"github.com/pirnawaz/agroledger/internal/infrastructure/metrics"
	"github.com/pirnawaz/agroledger/internal/infrastructure/postgres"
	"github.com/pirnawaz/agroledger/internal/infrastructure/redis"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "agroledger"})
	log.Logger = appLogger
	zerolog.SetGlobalLevel(appLogger.GetLevel())

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Apply migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	cycleRepo := postgresRepo.NewCropCycleRepository(pool)
	projectRepo := postgresRepo.NewProjectRepository(pool)
	postingRepo := postgresRepo.NewPostingGroupRepository(pool)
	correctionRepo := postgresRepo.NewCorrectionRepository(pool)
	closeRepo := postgresRepo.NewPeriodCloseRepository(pool)
	reportRepo := postgresRepo.NewReportRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	settlementRepo := postgresRepo.NewSettlementRepository(pool)
	roleDirectory := postgresRepo.NewRoleDirectory(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	reportCache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(accountRepo)
	postingUC := usecase.NewPostingUseCase(txManager, accountRepo, cycleRepo, postingRepo, outboxRepo, auditRepo, idGen, m).WithRetrier(retrier)
	correctionUC := usecase.NewCorrectionUseCase(txManager, accountRepo, postingRepo, correctionRepo, outboxRepo, auditRepo, idGen, m)
	closeUC := usecase.NewPeriodCloseUseCase(txManager, accountRepo, cycleRepo, projectRepo, postingRepo, closeRepo, reportRepo, outboxRepo, auditRepo, idGen, m)
	reportingUC := usecase.NewReportingUseCase(reportRepo, accountRepo, reportCache, cfg.ReportCacheTTL, m)
	settlementUC := usecase.NewSettlementUseCase(txManager, settlementRepo, projectRepo, reportRepo, reportingUC, roleDirectory, outboxRepo, auditRepo, idGen, m)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)

	// Outbox publisher
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(appLogger),
		Logger:     appLogger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})

	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		PostingHandler:     handler.NewPostingHandler(postingUC),
		CorrectionHandler:  handler.NewCorrectionHandler(correctionUC),
		PeriodCloseHandler: handler.NewPeriodCloseHandler(closeUC),
		ReportHandler:      handler.NewReportHandler(reportingUC),
		SettlementHandler:  handler.NewSettlementHandler(settlementUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		AuditHandler:       handler.NewAuditHandler(auditRepo),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		Logger:             appLogger,
		Metrics:            m,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
