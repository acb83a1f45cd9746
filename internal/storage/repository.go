// Package storage provides the SQLite-backed Store implementation.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"subtrack/internal/core"
	"subtrack/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const subscriptionColumns = "id, name, amount_cents, currency, billing_cycle, next_payment_date, status, notes, icon, icon_color"

func scanSubscription(row interface{ Scan(...any) error }) (core.Subscription, error) {
	var sub core.Subscription
	var cents int64
	var currency, cycle, date, status string
	err := row.Scan(&sub.ID, &sub.Name, &cents, &currency, &cycle, &date, &status, &sub.Notes, &sub.Icon, &sub.IconColor)
	if err != nil {
		return core.Subscription{}, err
	}
	sub.Amount = core.Money{Cents: cents}
	sub.Currency = core.Currency(currency)
	sub.BillingCycle = core.BillingCycle(cycle)
	sub.Status = core.Status(status)
	sub.NextPaymentDate, err = core.ParseDate(date)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("parse next_payment_date %q: %w", date, err)
	}
	return sub, nil
}

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (name, amount_cents, currency, billing_cycle, next_payment_date, status, notes, icon, icon_color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.Name, sub.Amount.Cents, string(sub.Currency), string(sub.BillingCycle),
		sub.NextPaymentDate.String(), string(sub.Status), sub.Notes, sub.Icon, sub.IconColor)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Subscription{}, fmt.Errorf("subscription insert id: %w", err)
	}
	sub.ID = id

	slog.InfoContext(ctx, "Subscription saved to SQLite",
		"id", sub.ID,
		"name", sub.Name,
		"amount_cents", sub.Amount.Cents,
		"billing_cycle", sub.BillingCycle)

	return sub, nil
}

func (r *SQLiteRepository) GetSubscription(ctx context.Context, id int64) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE id = ?", id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, store.ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateSubscription reads, patches and rewrites the row in one transaction so
// concurrent partial updates never clobber each other's fields.
func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, id int64, patch core.SubscriptionPatch) (core.Subscription, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE id = ?", id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, store.ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription for update: %w", err)
	}

	sub.Apply(patch)

	_, err = tx.ExecContext(ctx, `
		UPDATE subscriptions
		SET name = ?, amount_cents = ?, currency = ?, billing_cycle = ?,
		    next_payment_date = ?, status = ?, notes = ?, icon = ?, icon_color = ?
		WHERE id = ?`,
		sub.Name, sub.Amount.Cents, string(sub.Currency), string(sub.BillingCycle),
		sub.NextPaymentDate.String(), string(sub.Status), sub.Notes, sub.Icon, sub.IconColor, id)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Subscription{}, fmt.Errorf("commit update: %w", err)
	}
	return sub, nil
}

// DeleteSubscription removes the subscription and its payment history
// atomically.
func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM payments WHERE subscription_id = ?", id); err != nil {
		return false, fmt.Errorf("delete payments: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}

	if affected > 0 {
		slog.InfoContext(ctx, "Subscription deleted", "id", id)
	}
	return affected > 0, nil
}

func (r *SQLiteRepository) AddPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (subscription_id, payment_date, amount_cents, currency, status)
		VALUES (?, ?, ?, ?, ?)`,
		p.SubscriptionID, p.PaymentDate.String(), p.Amount.Cents, string(p.Currency), p.Status)
	if err != nil {
		return core.Payment{}, fmt.Errorf("add payment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment insert id: %w", err)
	}
	p.ID = id

	slog.InfoContext(ctx, "Payment recorded",
		"id", p.ID,
		"subscription_id", p.SubscriptionID,
		"amount_cents", p.Amount.Cents,
		"payment_date", p.PaymentDate.String())

	return p, nil
}

func (r *SQLiteRepository) PaymentsBySubscription(ctx context.Context, subscriptionID int64) ([]core.Payment, error) {
	// ISO dates sort lexicographically; id ascending preserves insertion
	// order within a day.
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subscription_id, payment_date, amount_cents, currency, status
		FROM payments
		WHERE subscription_id = ?
		ORDER BY payment_date DESC, id ASC`, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("payments by subscription: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		var p core.Payment
		var cents int64
		var date, currency string
		if err := rows.Scan(&p.ID, &p.SubscriptionID, &date, &cents, &currency, &p.Status); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Amount = core.Money{Cents: cents}
		p.Currency = core.Currency(currency)
		p.PaymentDate, err = core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse payment_date %q: %w", date, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payments by subscription: %w", err)
	}
	return payments, nil
}
