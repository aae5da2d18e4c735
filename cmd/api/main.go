// @title                       LifeLink Coordination API
// @version                     1.0
// @description                 Profile-gated blood request and donation-interest workflow.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lifelink/coordination-api/internal/api"
	"github.com/lifelink/coordination-api/internal/core/service"
	mongodb "github.com/lifelink/coordination-api/internal/infrastructure/db/mongo"
	redisdb "github.com/lifelink/coordination-api/internal/infrastructure/db/redis"
	"github.com/lifelink/coordination-api/internal/infrastructure/queue"
	"github.com/lifelink/coordination-api/internal/infrastructure/telemetry"
	"github.com/lifelink/coordination-api/internal/pkg/config"
	"github.com/lifelink/coordination-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(context.Background()); err != nil {
		l := logger.Get()
		l.Fatal().Err(err).Msg("api exited")
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "lifelink-api",
		Env:     cfg.Env,
	})

	tracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:   "lifelink-api",
		Environment:   cfg.Env,
		Endpoint:      cfg.Telemetry.Endpoint,
		SamplingRatio: cfg.Telemetry.SamplingRatio,
	}, logger.Component("telemetry"))
	if err != nil {
		return err
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}

	// --- Stores ---
	authRepo := mongodb.NewAuthRepository(db)
	profileRepo := mongodb.NewProfileRepository(db)
	requestRepo := mongodb.NewRequestRepository(db)
	interestRepo := mongodb.NewInterestRepository(db)
	if err := mongodb.EnsureIndexes(ctx, authRepo, profileRepo, requestRepo, interestRepo); err != nil {
		return err
	}

	// --- Notifications ---
	dispatcher := queue.NewDispatcher(cfg.Workflow.NotifyWorkers, redisdb.NewNotifier(rdb), logger.Component("dispatcher"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	// --- Services ---
	coordinator := service.NewCoordinator(
		profileRepo,
		requestRepo,
		interestRepo,
		authRepo,
		redisdb.NewInterestClaims(rdb, cfg.Workflow.InterestClaimTTL),
		dispatcher,
		logger.Component("coordinator"),
	)
	authService := service.NewAuthService(
		authRepo,
		profileRepo,
		cfg.JWTSecret,
		cfg.TokenTTL,
		cfg.Workflow.LoginRatePerMinute,
		logger.Component("auth"),
	)
	if err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return err
	}

	e := api.NewRouter(api.Dependencies{
		DB:        db,
		Redis:     rdb,
		Auth:      authService,
		Workflow:  coordinator,
		JWTSecret: cfg.JWTSecret,
		Log:       logger.Component("http"),
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	// Workers must be gone before Redis closes. Undelivered notifications are dropped.
	stopWorkers()
	dispatcher.Wait()

	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}

	log.Info().Msg("shutdown complete")
	return nil
}
