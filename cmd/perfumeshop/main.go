// Package main запускает HTTP-сервер магазина парфюмерии.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/perfume-shop/internal/config"
	"github.com/mmeshcher/perfume-shop/internal/events"
	"github.com/mmeshcher/perfume-shop/internal/handler"
	"github.com/mmeshcher/perfume-shop/internal/idempotency"
	"github.com/mmeshcher/perfume-shop/internal/metrics"
	"github.com/mmeshcher/perfume-shop/internal/middleware"
	"github.com/mmeshcher/perfume-shop/internal/repository"
	"github.com/mmeshcher/perfume-shop/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	m := metrics.New()
	opts := service.Options{
		Metrics:         m,
		RelayInterval:   cfg.OutboxInterval,
		IdempotencyTTL:  cfg.IdempotencyTTL,
		OutboxRetention: cfg.OutboxRetention,
	}

	if cfg.RedisAddress != "" {
		store := idempotency.NewStore(idempotency.NewClient(cfg.RedisAddress))
		defer store.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := store.Ping(pingCtx); err != nil {
			sugar.Warnw("redis is unavailable, idempotency keys are ignored until it recovers", "addr", cfg.RedisAddress, "error", err.Error())
		}
		cancel()

		opts.Idempotency = store
	}

	if brokers := events.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		publisher := events.NewPublisher(brokers)
		defer publisher.Close()

		opts.Publisher = publisher
		sugar.Infow("publishing events to kafka", "brokers", brokers)
	}

	svc := service.NewService(repo, logger, opts)
	defer svc.Close()

	if cfg.AdminPhone != "" {
		adminCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := svc.EnsureAdmin(adminCtx, cfg.AdminPhone, cfg.AdminPassword)
		cancel()
		if err != nil {
			sugar.Fatalw("admin account bootstrap error", "error", err.Error())
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	if cfg.AuthSecret == "" {
		sugar.Warn("auth secret is not set, tokens will not survive restart")
	}

	h := handler.NewHandler(svc, logger, authMiddleware, m)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Публикация и очистка событий outbox
	g.Go(func() error {
		svc.RunOutboxRelay(ctx)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting perfume shop server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
