package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tasktrack/tasktrack/internal/app"
	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/observability"
	"github.com/tasktrack/tasktrack/internal/platform/cache"
	"github.com/tasktrack/tasktrack/internal/platform/db"
	"github.com/tasktrack/tasktrack/internal/tasks"
	"github.com/tasktrack/tasktrack/internal/tasks/export"
	"github.com/tasktrack/tasktrack/internal/users"
	"github.com/tasktrack/tasktrack/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("load .env", slog.Any("error", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.DBOptions())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, dbpool); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	sessions := auth.NewRedisSessionStore(redisClient)
	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), nil)
	authService := auth.NewService(usersRepo, sessions, auth.NewBcryptHasher(), tokens, auth.ServiceConfig{
		Revocation: cfg.SessionRevocation,
	})
	authenticator := auth.NewAuthenticator(logger, tokens, sessions, cfg.SessionRevocation)
	authHandler := auth.NewHandler(logger, authService, authenticator, cfg.LoginRateLimitPerMinute)

	reportClient := report.NewClient(cfg.GotenbergURL, nil)
	reportHandler := report.NewHandler(reportClient, logger)
	renderer, err := export.NewRenderer(reportClient)
	if err != nil {
		logger.Error("parse report templates", slog.Any("error", err))
		os.Exit(1)
	}
	pingCtx, cancelPing := context.WithTimeout(ctx, 3*time.Second)
	if err := reportClient.Ping(pingCtx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}
	cancelPing()

	tasksService := tasks.NewService(tasks.NewRepository(dbpool), usersService)
	metered, err := app.NewMeteredRenderer(renderer, metrics.Registerer())
	if err != nil {
		logger.Error("register pdf metrics", slog.Any("error", err))
		os.Exit(1)
	}
	tasksHandler := tasks.NewHandler(logger, tasksService, metered)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Authenticator: authenticator,
		AuthHandler:   authHandler,
		UsersHandler:  usersHandler,
		TasksHandler:  tasksHandler,
		ReportHandler: reportHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
