// Package services orchestrates subscription operations across the store and
// the message broker.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
	applog "subtrack/internal/log"
	"subtrack/internal/store"
)

// PaymentPublisher publishes payment events. *amqp.Client satisfies it; a nil
// publisher disables event publishing.
type PaymentPublisher interface {
	PublishPaymentRecorded(ctx context.Context, msg *amqp.PaymentRecordedMessage) error
}

// SubscriptionService is the application-facing API over the store. Mutations
// go through here so that event publishing and logging stay in one place.
type SubscriptionService struct {
	store     store.Store
	publisher PaymentPublisher
}

func NewSubscriptionService(st store.Store, publisher PaymentPublisher) *SubscriptionService {
	return &SubscriptionService{
		store:     st,
		publisher: publisher,
	}
}

func (s *SubscriptionService) Create(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	created, err := s.store.CreateSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	fields := applog.NewFields().
		WithOperation(applog.OpCreate).
		WithSubscription(created.ID, created.Name, created.Amount.Cents, string(created.BillingCycle))
	slog.InfoContext(ctx, "Subscription created", fields.ToSlice()...)

	return created, nil
}

func (s *SubscriptionService) Get(ctx context.Context, id int64) (core.Subscription, error) {
	return s.store.GetSubscription(ctx, id)
}

func (s *SubscriptionService) List(ctx context.Context) ([]core.Subscription, error) {
	return s.store.ListSubscriptions(ctx)
}

func (s *SubscriptionService) Update(ctx context.Context, id int64, patch core.SubscriptionPatch) (core.Subscription, error) {
	updated, err := s.store.UpdateSubscription(ctx, id, patch)
	if err != nil {
		return core.Subscription{}, err
	}

	slog.InfoContext(ctx, "Subscription updated", "id", id)
	return updated, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.DeleteSubscription(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	return deleted, nil
}

func (s *SubscriptionService) Payments(ctx context.Context, subscriptionID int64) ([]core.Payment, error) {
	return s.store.PaymentsBySubscription(ctx, subscriptionID)
}

// RecordPayment appends a payment for the subscription, snapshotting its
// current amount and currency so later edits never rewrite history. The event
// publish is best effort: a broker outage does not lose the payment.
func (s *SubscriptionService) RecordPayment(ctx context.Context, sub core.Subscription, paymentDate core.Date) (core.Payment, error) {
	payment := core.Payment{
		SubscriptionID: sub.ID,
		PaymentDate:    paymentDate,
		Amount:         sub.Amount,
		Currency:       sub.Currency,
		Status:         core.PaymentPaid,
	}
	if err := payment.Validate(); err != nil {
		return core.Payment{}, err
	}

	recorded, err := s.store.AddPayment(ctx, payment)
	if err != nil {
		return core.Payment{}, fmt.Errorf("record payment: %w", err)
	}

	if err := s.publishPaymentRecorded(ctx, sub, recorded); err != nil {
		fields := applog.NewFields().
			WithOperation(applog.OpPublish).
			WithPayment(recorded.ID, sub.ID, recorded.Amount.Cents, recorded.PaymentDate.String()).
			WithError(err)
		slog.ErrorContext(ctx, "Failed to publish payment recorded message", fields.ToSlice()...)
		// Don't fail the operation - payment is recorded locally
	}

	return recorded, nil
}

func (s *SubscriptionService) publishPaymentRecorded(ctx context.Context, sub core.Subscription, p core.Payment) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Publisher not available, skipping payment recorded message")
		return nil
	}

	return s.publisher.PublishPaymentRecorded(ctx, &amqp.PaymentRecordedMessage{
		PaymentID:      p.ID,
		SubscriptionID: p.SubscriptionID,
		Name:           sub.Name,
		AmountCents:    p.Amount.Cents,
		Currency:       string(p.Currency),
		PaymentDate:    p.PaymentDate.String(),
		Timestamp:      time.Now().UTC(),
	})
}

// Summary aggregates the whole collection into spend totals.
func (s *SubscriptionService) Summary(ctx context.Context) (core.Summary, error) {
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary: %w", err)
	}
	return core.Summarize(subs), nil
}

// Reminders classifies active subscriptions by payment proximity.
func (s *SubscriptionService) Reminders(ctx context.Context, now time.Time) (core.Reminders, error) {
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return core.Reminders{}, fmt.Errorf("reminders: %w", err)
	}
	return core.UpcomingReminders(now, subs), nil
}

func (s *SubscriptionService) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
