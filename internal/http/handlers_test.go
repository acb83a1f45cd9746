package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/services"
	"subtrack/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *services.SubscriptionService) {
	t.Helper()
	svc := services.NewSubscriptionService(memory.New(), nil)
	srv := NewServer("127.0.0.1:0", svc)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, svc
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestCreateSubscription_AppliesDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"Netflix","amount":19.90,"nextPaymentDate":"2025-04-28"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body)
	}
	got := decodeBody[subscriptionBody](t, rec)
	if got.ID != 1 || got.Name != "Netflix" || got.Amount != 19.90 {
		t.Errorf("body = %+v", got)
	}
	if got.Currency != "AUD" || got.BillingCycle != "Monthly" || got.Status != "Active" {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.Icon != "sync-alt" || got.IconColor != "#3B82F6" {
		t.Errorf("icon defaults not applied: %+v", got)
	}
}

func TestCreateSubscription_AcceptsStringAmount(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"CopyCoder","amount":"23.65","nextPaymentDate":"2025-04-16"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body)
	}
	got := decodeBody[subscriptionBody](t, rec)
	if got.Amount != 23.65 {
		t.Errorf("amount = %v, want 23.65", got.Amount)
	}
}

func TestCreateSubscription_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{
			name:       "everything missing",
			body:       `{}`,
			wantFields: []string{"name", "amount", "nextPaymentDate"},
		},
		{
			name:       "blank name",
			body:       `{"name":"  ","amount":10,"nextPaymentDate":"2025-04-16"}`,
			wantFields: []string{"name"},
		},
		{
			name:       "zero amount",
			body:       `{"name":"x","amount":0,"nextPaymentDate":"2025-04-16"}`,
			wantFields: []string{"amount"},
		},
		{
			name:       "negative amount",
			body:       `{"name":"x","amount":-5,"nextPaymentDate":"2025-04-16"}`,
			wantFields: []string{"amount"},
		},
		{
			name:       "non-numeric amount string",
			body:       `{"name":"x","amount":"lots","nextPaymentDate":"2025-04-16"}`,
			wantFields: []string{"amount"},
		},
		{
			name:       "bad date",
			body:       `{"name":"x","amount":10,"nextPaymentDate":"soon"}`,
			wantFields: []string{"nextPaymentDate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)

			rec := doRequest(t, srv, http.MethodPost, "/subscriptions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body)
			}

			got := decodeBody[errorBody](t, rec)
			fields := make(map[string]bool)
			for _, fe := range got.Errors {
				fields[fe.Field] = true
			}
			for _, want := range tt.wantFields {
				if !fields[want] {
					t.Errorf("missing field error for %q in %+v", want, got.Errors)
				}
			}
		})
	}
}

func TestCreateSubscription_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/subscriptions", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListSubscriptions(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/subscriptions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty list body = %s, want []", got)
	}

	doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"A","amount":10,"nextPaymentDate":"2025-04-16"}`)
	doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"B","amount":20,"nextPaymentDate":"2025-04-17"}`)

	rec = doRequest(t, srv, http.MethodGet, "/subscriptions", "")
	got := decodeBody[[]subscriptionBody](t, rec)
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Errorf("list = %+v", got)
	}
}

func TestGetSubscription(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"Netflix","amount":19.90,"nextPaymentDate":"2025-04-28"}`)

	rec := doRequest(t, srv, http.MethodGet, "/subscriptions/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[subscriptionBody](t, rec)
	if got.Name != "Netflix" {
		t.Errorf("body = %+v", got)
	}

	rec = doRequest(t, srv, http.MethodGet, "/subscriptions/99", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/subscriptions/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestUpdateSubscription(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"Netflix","amount":19.90,"nextPaymentDate":"2025-04-28"}`)

	rec := doRequest(t, srv, http.MethodPatch, "/subscriptions/1", `{"status":"Paused"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
	}
	got := decodeBody[subscriptionBody](t, rec)
	if got.Status != "Paused" {
		t.Errorf("status not patched: %+v", got)
	}
	if got.Name != "Netflix" || got.Amount != 19.90 {
		t.Errorf("untouched fields changed: %+v", got)
	}

	rec = doRequest(t, srv, http.MethodPatch, "/subscriptions/99", `{"status":"Paused"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPatch, "/subscriptions/1", `{"amount":-1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad amount status = %d, want 400", rec.Code)
	}
}

func TestDeleteSubscription(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"Netflix","amount":19.90,"nextPaymentDate":"2025-04-28"}`)

	rec := doRequest(t, srv, http.MethodDelete, "/subscriptions/1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("204 response has body: %s", rec.Body)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/subscriptions/1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestListPayments(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := context.Background()

	doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"Netflix","amount":19.90,"nextPaymentDate":"2025-04-28"}`)

	rec := doRequest(t, srv, http.MethodGet, "/subscriptions/1/payments", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty history body = %s, want []", got)
	}

	sub, err := svc.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	for _, day := range []int{28, 14} {
		if _, err := svc.RecordPayment(ctx, sub, core.NewDate(2025, 3, day)); err != nil {
			t.Fatalf("RecordPayment() error = %v", err)
		}
	}

	rec = doRequest(t, srv, http.MethodGet, "/subscriptions/1/payments", "")
	got := decodeBody[[]paymentBody](t, rec)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].PaymentDate != "2025-03-28" || got[1].PaymentDate != "2025-03-14" {
		t.Errorf("not newest first: %+v", got)
	}
	if got[0].Amount != 19.90 || got[0].Status != "Paid" {
		t.Errorf("payment body = %+v", got[0])
	}

	// An unknown subscription has an empty history, not a 404.
	rec = doRequest(t, srv, http.MethodGet, "/subscriptions/99/payments", "")
	if rec.Code != http.StatusOK {
		t.Errorf("unknown subscription status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("unknown subscription body = %s, want []", got)
	}
}

func TestSummary(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"Streaming","amount":30,"nextPaymentDate":"2025-04-16"}`)
	doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"Hosting","amount":120,"billingCycle":"Yearly","nextPaymentDate":"2025-12-01"}`)

	rec := doRequest(t, srv, http.MethodGet, "/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[core.Summary](t, rec)
	want := core.Summary{MonthlyTotal: 40, YearlyTotal: 480, ActiveCount: 2, TotalCount: 2}
	if got != want {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
}

func TestSummary_CacheInvalidatedByMutation(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/subscriptions",
		`{"name":"Streaming","amount":30,"nextPaymentDate":"2025-04-16"}`)

	// prime the cache
	doRequest(t, srv, http.MethodGet, "/summary", "")

	doRequest(t, srv, http.MethodPatch, "/subscriptions/1", `{"status":"Paused"}`)

	rec := doRequest(t, srv, http.MethodGet, "/summary", "")
	got := decodeBody[core.Summary](t, rec)
	if got.ActiveCount != 0 || got.PausedCount != 1 || got.MonthlyTotal != 0 {
		t.Errorf("stale summary after mutation: %+v", got)
	}
}

func TestReminders(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := context.Background()

	tomorrow := time.Now().AddDate(0, 0, 1)
	sub := core.Subscription{
		Name:            "due soon",
		Amount:          core.Money{Cents: 1000},
		Currency:        core.AUD,
		BillingCycle:    core.Monthly,
		NextPaymentDate: core.DateOf(tomorrow),
		Status:          core.StatusActive,
	}
	if _, err := svc.Create(ctx, sub); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/reminders", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[remindersBody](t, rec)
	if len(got.DueTomorrow) != 1 || got.DueTomorrow[0].Name != "due soon" {
		t.Errorf("dueTomorrow = %+v", got.DueTomorrow)
	}
	if len(got.DueInThreeDays) != 0 {
		t.Errorf("dueInThreeDays = %+v", got.DueInThreeDays)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/subscriptions", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("Content-Security-Policy not set")
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
