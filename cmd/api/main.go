package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Tomlord1122/todo-app/internal/config"
	"github.com/Tomlord1122/todo-app/internal/database"
	"github.com/Tomlord1122/todo-app/internal/logger"
	"github.com/Tomlord1122/todo-app/internal/metrics"
	"github.com/Tomlord1122/todo-app/internal/repository"
	"github.com/Tomlord1122/todo-app/internal/server"
	"github.com/Tomlord1122/todo-app/internal/service"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	slog.Info("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the requests it is currently handling.
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	done <- true
}

func run() error {
	// Logging comes up before config so that config errors are structured too.
	logger.SetupDefault(os.Stdout, os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetupDefault(os.Stdout, cfg.LogLevel)

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Database
	if cfg.DBAutoMigrate {
		slog.Info("running database migrations")
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	dbService, err := database.New(startupCtx, cfg.DatabaseURL(), database.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := dbService.Close(); err != nil {
			slog.Error("error closing database connection pool", slog.String("error", err.Error()))
			return
		}
		slog.Info("database connection pool closed")
	}()
	slog.Info("database connection established")

	// 2. Redis sessions
	redisClient, err := repository.OpenRedis(startupCtx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer closeRedis(redisClient)

	// 3. Repositories
	gormDB := dbService.GetDB()
	todoRepo := repository.NewGormTodoRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)
	sessionStore := repository.NewRedisSessionStore(redisClient)

	// 4. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 5. Services
	todoService := service.NewTodoService(todoRepo, collector)
	authService := service.NewAuthService(userRepo, sessionStore, service.AuthOptions{
		SessionTTL: cfg.SessionTTL,
	})

	loginLimiter := server.NewLoginRateLimiter(cfg.LoginRatePerMinute, 5*time.Minute)
	defer loginLimiter.Stop()

	// 6. Server
	apiServer := server.NewServer(cfg, server.Deps{
		Todos:        todoService,
		Auth:         authService,
		Database:     dbService,
		Sessions:     sessionStore,
		Recorder:     collector,
		Gatherer:     registry,
		LoginLimiter: loginLimiter,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, done)

	slog.Info("API server starting", slog.String("addr", apiServer.Addr))
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	slog.Info("graceful shutdown complete")
	return nil
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		slog.Error("error closing redis client", slog.String("error", err.Error()))
	}
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
