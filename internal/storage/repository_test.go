package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"subtrack/internal/core"
	"subtrack/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "subtrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testSubscription(name string) core.Subscription {
	return core.Subscription{
		Name:            name,
		Amount:          core.Money{Cents: 1990},
		Currency:        core.AUD,
		BillingCycle:    core.Monthly,
		NextPaymentDate: core.NewDate(2025, 5, 1),
		Status:          core.StatusActive,
		Icon:            "sync-alt",
		IconColor:       "#3B82F6",
	}
}

func TestCreateAndGetSubscription(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateSubscription(ctx, testSubscription("Netflix"))
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("CreateSubscription() did not assign an id")
	}

	got, err := repo.GetSubscription(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSubscription() error = %v", err)
	}
	if got != created {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, created)
	}
}

func TestGetSubscription_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetSubscription(context.Background(), 999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetSubscription(999) error = %v, want ErrNotFound", err)
	}
}

func TestListSubscriptions_OrderedByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := repo.CreateSubscription(ctx, testSubscription(name)); err != nil {
			t.Fatalf("CreateSubscription() error = %v", err)
		}
	}

	subs, err := repo.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListSubscriptions() error = %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("len = %d, want 3", len(subs))
	}
	for i := 1; i < len(subs); i++ {
		if subs[i-1].ID >= subs[i].ID {
			t.Errorf("list not ordered by id: %d before %d", subs[i-1].ID, subs[i].ID)
		}
	}
}

func TestUpdateSubscription_Partial(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateSubscription(ctx, testSubscription("Netflix"))
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}

	newAmount := core.Money{Cents: 2499}
	newStatus := core.StatusPaused
	updated, err := repo.UpdateSubscription(ctx, created.ID, core.SubscriptionPatch{
		Amount: &newAmount,
		Status: &newStatus,
	})
	if err != nil {
		t.Fatalf("UpdateSubscription() error = %v", err)
	}
	if updated.Amount != newAmount || updated.Status != core.StatusPaused {
		t.Errorf("patched fields not applied: %+v", updated)
	}
	if updated.Name != "Netflix" || updated.BillingCycle != core.Monthly {
		t.Errorf("unpatched fields changed: %+v", updated)
	}

	// persisted, not just returned
	got, err := repo.GetSubscription(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSubscription() error = %v", err)
	}
	if got != updated {
		t.Errorf("persisted = %+v, want %+v", got, updated)
	}
}

func TestUpdateSubscription_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	name := "ghost"
	_, err := repo.UpdateSubscription(context.Background(), 404, core.SubscriptionPatch{Name: &name})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateSubscription(404) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSubscription_CascadesPayments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sub, err := repo.CreateSubscription(ctx, testSubscription("Netflix"))
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}
	if _, err := repo.AddPayment(ctx, core.Payment{
		SubscriptionID: sub.ID,
		PaymentDate:    core.NewDate(2025, 4, 1),
		Amount:         core.Money{Cents: 1990},
		Currency:       core.AUD,
		Status:         core.PaymentPaid,
	}); err != nil {
		t.Fatalf("AddPayment() error = %v", err)
	}

	deleted, err := repo.DeleteSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("DeleteSubscription() error = %v", err)
	}
	if !deleted {
		t.Fatal("DeleteSubscription() = false, want true")
	}

	payments, err := repo.PaymentsBySubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("PaymentsBySubscription() error = %v", err)
	}
	if len(payments) != 0 {
		t.Errorf("payments survived cascade delete: %d left", len(payments))
	}

	deleted, err = repo.DeleteSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("DeleteSubscription() second call error = %v", err)
	}
	if deleted {
		t.Error("DeleteSubscription() = true for already deleted id")
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateSubscription(ctx, testSubscription("doomed"))
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}
	if _, err := repo.DeleteSubscription(ctx, first.ID); err != nil {
		t.Fatalf("DeleteSubscription() error = %v", err)
	}

	next, err := repo.CreateSubscription(ctx, testSubscription("successor"))
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}
	if next.ID <= first.ID {
		t.Errorf("id %d reused after delete of %d", next.ID, first.ID)
	}
}

func TestPaymentsBySubscription_Ordering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sub, err := repo.CreateSubscription(ctx, testSubscription("Netflix"))
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}

	// out of order dates plus two on the same day
	dates := []core.Date{
		core.NewDate(2025, 3, 1),
		core.NewDate(2025, 4, 1),
		core.NewDate(2025, 4, 1),
		core.NewDate(2025, 2, 1),
	}
	var sameDayIDs []int64
	for _, d := range dates {
		p, err := repo.AddPayment(ctx, core.Payment{
			SubscriptionID: sub.ID,
			PaymentDate:    d,
			Amount:         core.Money{Cents: 1990},
			Currency:       core.AUD,
			Status:         core.PaymentPaid,
		})
		if err != nil {
			t.Fatalf("AddPayment() error = %v", err)
		}
		if d.String() == "2025-04-01" {
			sameDayIDs = append(sameDayIDs, p.ID)
		}
	}

	payments, err := repo.PaymentsBySubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("PaymentsBySubscription() error = %v", err)
	}

	wantDates := []string{"2025-04-01", "2025-04-01", "2025-03-01", "2025-02-01"}
	for i, p := range payments {
		if p.PaymentDate.String() != wantDates[i] {
			t.Errorf("payment %d date = %s, want %s", i, p.PaymentDate, wantDates[i])
		}
	}
	// insertion order within the shared day
	if payments[0].ID != sameDayIDs[0] || payments[1].ID != sameDayIDs[1] {
		t.Errorf("same-day order = %d, %d, want %d, %d",
			payments[0].ID, payments[1].ID, sameDayIDs[0], sameDayIDs[1])
	}
}

func TestAddPayment_NoReferenceCheck(t *testing.T) {
	repo := newTestRepo(t)

	p, err := repo.AddPayment(context.Background(), core.Payment{
		SubscriptionID: 77,
		PaymentDate:    core.NewDate(2025, 4, 1),
		Amount:         core.Money{Cents: 500},
		Currency:       core.AUD,
		Status:         core.PaymentPaid,
	})
	if err != nil {
		t.Fatalf("AddPayment() error = %v", err)
	}
	if p.ID == 0 {
		t.Error("AddPayment() did not assign an id")
	}
}
