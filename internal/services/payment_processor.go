package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subtrack/internal/core"
)

// PaymentProcessor records payments for subscriptions whose next payment date
// has arrived and rolls their next payment date forward.
type PaymentProcessor struct {
	service *SubscriptionService
}

func NewPaymentProcessor(service *SubscriptionService) *PaymentProcessor {
	return &PaymentProcessor{service: service}
}

// ProcessDuePayments walks all active subscriptions and, for each one due on
// or before now, records a single payment and advances the next payment date
// past now. Paused subscriptions are left alone, including overdue ones.
func (p *PaymentProcessor) ProcessDuePayments(ctx context.Context, now time.Time) (int, error) {
	if p.service == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	subs, err := p.service.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Processing due payments",
		"total", len(subs),
		"processing_date", now.Format("2006-01-02"))

	processedCount := 0
	for _, sub := range subs {
		if sub.Status != core.StatusActive {
			continue
		}
		if core.DaysUntil(now, sub.NextPaymentDate) > 0 {
			continue
		}

		if _, err := p.service.RecordPayment(ctx, sub, sub.NextPaymentDate); err != nil {
			slog.ErrorContext(ctx, "Failed to record due payment",
				"subscription_id", sub.ID,
				"name", sub.Name,
				"error", err)
			continue
		}

		next := NextPaymentDate(sub.NextPaymentDate, sub.BillingCycle, now)
		if _, err := p.service.Update(ctx, sub.ID, core.SubscriptionPatch{NextPaymentDate: &next}); err != nil {
			slog.ErrorContext(ctx, "Failed to advance next payment date",
				"subscription_id", sub.ID,
				"error", err)
			// Continue anyway - payment was recorded successfully
		}

		processedCount++
		slog.InfoContext(ctx, "Recorded due payment",
			"subscription_id", sub.ID,
			"name", sub.Name,
			"amount_cents", sub.Amount.Cents,
			"next_payment_date", next.String())
	}

	slog.InfoContext(ctx, "Due payment processing complete",
		"processed", processedCount,
		"total_checked", len(subs))

	return processedCount, nil
}

// NextPaymentDate advances the date by one billing cycle at a time until it
// lands strictly after now, so a subscription that was overdue for several
// cycles does not stay in the past. Unknown cycles advance monthly.
func NextPaymentDate(current core.Date, cycle core.BillingCycle, now time.Time) core.Date {
	today := core.DateOf(now)
	next := current
	for !next.After(today.Time) {
		next = advanceOnce(next, cycle)
	}
	return next
}

func advanceOnce(d core.Date, cycle core.BillingCycle) core.Date {
	switch cycle {
	case core.Weekly:
		return core.DateOf(d.AddDate(0, 0, 7))
	case core.Quarterly:
		return core.DateOf(d.AddDate(0, 3, 0))
	case core.Yearly:
		return core.DateOf(d.AddDate(1, 0, 0))
	default:
		return core.DateOf(d.AddDate(0, 1, 0))
	}
}
