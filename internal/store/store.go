// Package store defines the persistence port the rest of the application
// programs against, with interchangeable in-memory and SQLite implementations.
package store

import (
	"context"
	"errors"

	"subtrack/internal/core"
)

// ErrNotFound is returned when a subscription id does not exist.
var ErrNotFound = errors.New("subscription not found")

// Store is the persistence port for subscriptions and their payment history.
//
// Identifiers are assigned by the store, start at 1 and grow monotonically;
// an id is never reused, not even after its subscription is deleted.
// Payment history is append-only: payments are never updated or removed on
// their own, only dropped wholesale when their subscription is deleted.
type Store interface {
	// CreateSubscription assigns a fresh id and persists the subscription.
	CreateSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error)

	// GetSubscription returns ErrNotFound for unknown ids.
	GetSubscription(ctx context.Context, id int64) (core.Subscription, error)

	// ListSubscriptions returns every subscription ordered by id ascending.
	ListSubscriptions(ctx context.Context) ([]core.Subscription, error)

	// UpdateSubscription applies a partial update and returns the updated
	// subscription, or ErrNotFound for unknown ids.
	UpdateSubscription(ctx context.Context, id int64, patch core.SubscriptionPatch) (core.Subscription, error)

	// DeleteSubscription removes the subscription and all of its payments.
	// The boolean reports whether anything was deleted.
	DeleteSubscription(ctx context.Context, id int64) (bool, error)

	// AddPayment assigns a fresh id and appends a payment record. The
	// referenced subscription is not checked for existence.
	AddPayment(ctx context.Context, p core.Payment) (core.Payment, error)

	// PaymentsBySubscription returns the payment history newest first.
	// Payments sharing a date keep their insertion order. An unknown id
	// yields an empty history, not an error.
	PaymentsBySubscription(ctx context.Context, subscriptionID int64) ([]core.Payment, error)

	Close() error
}
