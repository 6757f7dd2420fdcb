package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/civiceye/civiceye/internal/app"
	"github.com/civiceye/civiceye/internal/auth"
	"github.com/civiceye/civiceye/internal/dashboard"
	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/issues"
	"github.com/civiceye/civiceye/internal/observability"
	"github.com/civiceye/civiceye/internal/platform/cache"
	"github.com/civiceye/civiceye/internal/platform/db"
	"github.com/civiceye/civiceye/internal/profiles"
	"github.com/civiceye/civiceye/internal/shared"
	"github.com/civiceye/civiceye/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := identity.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err := tokens.Validate(); err != nil {
		logger.Error("token service", slog.Any("error", err))
		os.Exit(1)
	}
	revocationStore := identity.NewRevocationStore(redisClient)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	profileRepo := profiles.NewRepository(pool)
	profileService := profiles.NewService(profileRepo)
	profileHandler := profiles.NewHandler(logger, profileService)

	resolver := identity.NewResolver(tokens, profileRepo, revocationStore)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(logger, authRepo, profileRepo, tokens, revocationStore, jobClient)
	authHandler := auth.NewHandler(logger, authService)

	issueRepo := issues.NewRepository(pool)
	issueService := issues.NewService(logger, issueRepo, auditLogger, jobClient, idempotencyStore)
	issueHandler := issues.NewHandler(logger, issueService)

	dashboardService := dashboard.NewService(issueRepo, profileService)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Resolver:         resolver,
		AuthHandler:      authHandler,
		ProfileHandler:   profileHandler,
		IssueHandler:     issueHandler,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
