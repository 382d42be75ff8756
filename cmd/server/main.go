package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"saldoya/internal/api"
	"saldoya/internal/config"
	"saldoya/internal/db"
	"saldoya/internal/events"
	"saldoya/internal/notify"
	"saldoya/internal/scheduler"
	"saldoya/internal/service"
	"saldoya/internal/session"
	"saldoya/internal/yield"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting saldoya server", "pid", os.Getpid())

	cfg := config.Load()
	slog.Info("Configuration loaded",
		"addr", cfg.Addr,
		"db_dsn", cfg.DBDsn,
		"redis_addr", cfg.RedisAddr,
		"has_admin_seed", cfg.AdminPhone != "",
		"has_bot_token", cfg.BotToken != "",
	)

	repo, err := db.NewRepository(cfg.DBDsn)
	if err != nil {
		slog.Error("Failed to initialize database repository", "error", err, "dsn", cfg.DBDsn)
		os.Exit(1)
	}

	if err := repo.AutoMigrate(); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	if err := repo.SeedSuperAdmin(cfg.AdminPhone, cfg.AdminPassword); err != nil {
		slog.Error("Failed to seed superadmin", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Error("Failed to connect to Redis", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	defer rdb.Close()

	sessions := session.NewRedisStore(rdb, time.Duration(cfg.SessionTTLHours)*time.Hour)
	publisher := events.NewPublisher(rdb)
	notifier := notify.New(cfg.BotToken, cfg.AdminChatID)
	if notifier.Enabled() {
		slog.Info("Telegram admin notifications enabled")
	}

	yieldSvc := yield.NewService(repo, publisher)
	svc := service.New(repo, sessions, publisher, notifier, yieldSvc, cfg.WelcomeBonus)

	sched := scheduler.NewScheduler(yieldSvc, svc, notifier)
	if err := sched.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	server := api.NewServer(svc, publisher)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Router(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}

	slog.Info("Server shutdown completed")
}
