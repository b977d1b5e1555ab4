package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"venuematch/internal/config"
	"venuematch/internal/handler"
	"venuematch/internal/logger"
	"venuematch/internal/migrations"
	"venuematch/internal/repository"
	"venuematch/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.MustNewLogger(cfg.Logging.Format, cfg.Logging.Level)
	defer func() { _ = log.Sync() }()

	log.Info("venuematch starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)
	for _, w := range cfg.Warnings {
		log.Warn("configuration fallback", zap.String("detail", w))
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
		cfg.PostgreSQL.ConnectTimeout,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	log.Info("connected to PostgreSQL database")

	if cfg.Migrate.OnStart {
		if err := migrations.Up(context.Background(), repo.DB(), log); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		log.Info("database migrations applied")
	}

	// Initialize services
	matchService := service.NewMatchService(repo, repo, repo, service.MatchOptions{
		LookupTimeout: cfg.Match.LookupTimeout,
		RecordTimeout: cfg.Match.RecordTimeout,
		Seed:          cfg.Match.Seed,
		Breaker: service.BreakerSettings{
			Name:             "catalog",
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		},
	}, log)
	defer matchService.Close()

	var limiter *handler.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = handler.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	router := handler.NewRouter(matchService, handler.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: cfg.Server.AllowedMethods,
		AllowedHeaders: cfg.Server.AllowedHeaders,
		RateLimiter:    limiter,
		Version:        Version,
		BuildTime:      BuildTime,
		GitCommit:      GitCommit,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:    cfg.Address(),
		Handler: router,
	}

	log.Info("starting server", zap.String("addr", srv.Addr))

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}
