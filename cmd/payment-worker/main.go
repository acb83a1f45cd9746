// payment-worker records payments for subscriptions whose next payment date
// has arrived and rolls their schedule forward.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"subtrack/internal/amqp"
	"subtrack/internal/backend"
	"subtrack/internal/config"
	applog "subtrack/internal/log"
	"subtrack/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting payment-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	if backendCfg.Type != backend.SQLiteBackend {
		logger.Warn("Worker requires the shared SQLite backend, overriding configured backend",
			"configured", cfg.DataBackend, "path", cfg.SQLiteDBPath)
	}
	backendCfg = backendCfg.ForWorker()

	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}

	var publisher services.PaymentPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized - payment events will be published")
		}
	} else {
		logger.Info("AMQP disabled - payment events will not be published")
	}

	service := services.NewSubscriptionService(result.Store, publisher)
	processor := services.NewPaymentProcessor(service)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Payment processor configured",
		"interval", cfg.PaymentCheckInterval,
		"backend", cfg.DataBackend)

	ticker := time.NewTicker(cfg.PaymentCheckInterval)
	defer ticker.Stop()

	// Run initial processing on startup
	logger.Info("Running initial due payment processing...")
	if count, err := processor.ProcessDuePayments(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "payments_recorded", count)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := processor.ProcessDuePayments(ctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", "error", err)
				} else {
					logger.Info("Periodic processing complete",
						"payments_recorded", count,
						"next_check", now.Add(cfg.PaymentCheckInterval).Format("15:04:05"))
				}
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Payment-worker shutdown complete")
}
