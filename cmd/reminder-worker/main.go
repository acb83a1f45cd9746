// reminder-worker consumes payment events from the broker and periodically
// logs a digest of subscriptions with payments coming up.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

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

	logger.Info("Starting reminder-worker")

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

	service := services.NewSubscriptionService(result.Store, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Consume payment events when a broker is configured.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumePaymentRecorded(ctx, func(msg *amqp.PaymentRecordedMessage) error {
				logger.Info("Payment recorded",
					"payment_id", msg.PaymentID,
					"subscription_id", msg.SubscriptionID,
					"name", msg.Name,
					"amount_cents", msg.AmountCents,
					"currency", msg.Currency,
					"payment_date", msg.PaymentDate)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - running digest only")
	}

	// Periodic reminder digest.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ReminderDigestInterval)
		defer ticker.Stop()

		logDigest(ctx, logger.Logger, service, time.Now())
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				logDigest(ctx, logger.Logger, service, now)
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Reminder-worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Reminder-worker shutdown complete")
}

func logDigest(ctx context.Context, logger *slog.Logger, service *services.SubscriptionService, now time.Time) {
	reminders, err := service.Reminders(ctx, now)
	if err != nil {
		logger.Error("Failed to compute reminders", "error", err)
		return
	}
	if reminders.Empty() {
		logger.Info("No upcoming payments")
		return
	}

	for _, sub := range reminders.DueTomorrow {
		logger.Info("Payment due tomorrow",
			"subscription_id", sub.ID,
			"name", sub.Name,
			"amount_cents", sub.Amount.Cents,
			"next_payment_date", sub.NextPaymentDate.String())
	}
	for _, sub := range reminders.DueInThreeDays {
		logger.Info("Payment due in three days",
			"subscription_id", sub.ID,
			"name", sub.Name,
			"amount_cents", sub.Amount.Cents,
			"next_payment_date", sub.NextPaymentDate.String())
	}
}
