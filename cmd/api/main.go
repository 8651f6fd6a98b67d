package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gemcade/platform/internal/app"
	"github.com/gemcade/platform/internal/infra"
	"github.com/gemcade/platform/internal/policy"
	"github.com/gemcade/platform/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	if cfg.MigrateOnStart {
		if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	router := app.NewRouter(app.RouterDeps{
		Pool:               pool,
		Logger:             logger,
		SessionTTL:         cfg.SessionTTL,
		SessionHighRiskTTL: cfg.SessionHighRiskTTL,
		CrashMaxMultiplier: cfg.CrashMaxMultiplier,
		CrashHouseEdge:     cfg.CrashHouseEdge,
		WagerLimits: policy.WagerLimitPolicy{
			SingleWagerMax: cfg.SingleWagerMax,
			DailyStakeMax:  cfg.DailyStakeMax,
			DailyLossMax:   cfg.DailyLossMax,
		},
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RandomOrgAPIKey:    cfg.RandomOrgAPIKey,
	})

	// Outbox relay: in-process when Kafka is on; deployments running
	// cmd/outbox-consumer separately leave KAFKA_ENABLED off here.
	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	if cfg.KafkaEnabled {
		poller := infra.NewOutboxPoller(pool, repository.NewOutboxRepository(), producer, logger)
		poller.Start(ctx)
	}

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
