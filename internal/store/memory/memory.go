// Package memory provides an in-memory Store for development and tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"subtrack/internal/core"
	"subtrack/internal/store"
)

// Store keeps everything behind one mutex. Id counters only ever grow, so a
// deleted subscription's id is never handed out again.
type Store struct {
	mu            sync.RWMutex
	subs          map[int64]core.Subscription
	payments      []core.Payment
	nextSubID     int64
	nextPaymentID int64
}

var _ store.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		subs:          make(map[int64]core.Subscription),
		nextSubID:     1,
		nextPaymentID: 1,
	}
}

// seedSubscription mirrors the subscription shape in a seed file. Amounts are
// decimal strings so seed files read like price tags.
type seedSubscription struct {
	Name            string `yaml:"name"`
	Amount          string `yaml:"amount"`
	Currency        string `yaml:"currency"`
	BillingCycle    string `yaml:"billingCycle"`
	NextPaymentDate string `yaml:"nextPaymentDate"`
	Status          string `yaml:"status"`
	Notes           string `yaml:"notes"`
	Icon            string `yaml:"icon"`
	IconColor       string `yaml:"iconColor"`
}

type seedFile struct {
	Subscriptions []seedSubscription `yaml:"subscriptions"`
}

// NewFromFile returns an in-memory store pre-populated from a YAML seed file.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	s := New()
	for i, entry := range seed.Subscriptions {
		sub, err := entry.toSubscription()
		if err != nil {
			return nil, fmt.Errorf("seed subscription %d (%s): %w", i+1, entry.Name, err)
		}
		if _, err := s.CreateSubscription(context.Background(), sub); err != nil {
			return nil, fmt.Errorf("seed subscription %d (%s): %w", i+1, entry.Name, err)
		}
	}
	return s, nil
}

func (e seedSubscription) toSubscription() (core.Subscription, error) {
	cents, err := core.ParseDecimalToCents(e.Amount)
	if err != nil {
		return core.Subscription{}, err
	}
	date, err := core.ParseDate(e.NextPaymentDate)
	if err != nil {
		return core.Subscription{}, err
	}

	sub := core.Subscription{
		Name:            e.Name,
		Amount:          core.Money{Cents: cents},
		Currency:        core.Currency(e.Currency),
		BillingCycle:    core.BillingCycle(e.BillingCycle),
		NextPaymentDate: date,
		Status:          core.Status(e.Status),
		Notes:           e.Notes,
		Icon:            e.Icon,
		IconColor:       e.IconColor,
	}
	if sub.Currency == "" {
		sub.Currency = core.AUD
	}
	if sub.BillingCycle == "" {
		sub.BillingCycle = core.Monthly
	}
	if sub.Status == "" {
		sub.Status = core.StatusActive
	}
	return sub, sub.Validate()
}

func (s *Store) CreateSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = s.nextSubID
	s.nextSubID++
	s.subs[sub.ID] = sub
	return sub, nil
}

func (s *Store) GetSubscription(ctx context.Context, id int64) (core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return core.Subscription{}, store.ErrNotFound
	}
	return sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, id int64, patch core.SubscriptionPatch) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return core.Subscription{}, store.ErrNotFound
	}
	sub.Apply(patch)
	s.subs[id] = sub
	return sub, nil
}

func (s *Store) DeleteSubscription(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[id]; !ok {
		return false, nil
	}
	delete(s.subs, id)

	// Cascade: drop the payment history with the subscription.
	kept := make([]core.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if p.SubscriptionID != id {
			kept = append(kept, p)
		}
	}
	s.payments = kept
	return true, nil
}

func (s *Store) AddPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextPaymentID
	s.nextPaymentID++
	s.payments = append(s.payments, p)
	return p, nil
}

func (s *Store) PaymentsBySubscription(ctx context.Context, subscriptionID int64) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Payment
	for _, p := range s.payments {
		if p.SubscriptionID == subscriptionID {
			out = append(out, p)
		}
	}
	// Newest first; the stable sort keeps insertion order within a day.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PaymentDate.After(out[j].PaymentDate.Time)
	})
	return out, nil
}

func (s *Store) Close() error {
	return nil
}
