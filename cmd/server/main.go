package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"

	loyalty "github.com/blapoker/loyalty"
	"github.com/blapoker/loyalty/internal/config"
	"github.com/blapoker/loyalty/internal/handler"
	"github.com/blapoker/loyalty/internal/ledger"
	"github.com/blapoker/loyalty/internal/repository"
	"github.com/blapoker/loyalty/internal/service"
	"github.com/blapoker/loyalty/internal/telegram"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(loyalty.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	ledgerStore := repository.NewLedgerStore(pool)
	auditRepo := repository.NewAuditRepo(pool, config.AuditRetention)

	// Optional Telegram notifications for staff
	var notifier service.Notifier
	if cfg.TelegramEnabled() {
		b, err := bot.New(cfg.BotToken)
		if err != nil {
			slog.Error("failed to create telegram bot", "error", err)
			os.Exit(1)
		}
		notifier = telegram.NewNotifier(b, cfg)
		slog.Info("telegram notifications enabled", "chat_id", cfg.LogTelegramChatID)
	}
	auditService := service.NewAuditService(auditRepo, notifier)

	// Ledger engine and services
	feed := service.NewFeed()
	gate := ledger.NewGate(config.RateLimitWindow, config.DuplicateScanWindow)
	engine := ledger.New(ledgerStore, auditService, gate, ledger.Config{
		Token:       config.CheckInToken,
		Interval:    config.CheckInInterval,
		CouponEvery: config.CouponEvery,
	})

	userService := service.NewUserService(userRepo, auditService, feed, cfg.JWTSecret, config.SessionTTL)
	ledgerService := service.NewLedgerService(engine, ledgerStore, userRepo, feed)

	// Seed the configured admin account
	if err := userService.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		slog.Error("failed to seed admin account", "error", err)
		os.Exit(1)
	}

	// HTTP server
	h := handler.New(handler.Deps{
		Users:  userService,
		Ledger: ledgerService,
		Audit:  auditRepo,
		Feed:   feed,
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.NewRouter(h, userService),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped gracefully")
}
