package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"subtrack/internal/core"
)

// FieldError pinpoints which request field failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// subscriptionBody is the wire shape of a subscription. Amounts travel as
// decimal numbers, not cents.
type subscriptionBody struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	BillingCycle    string  `json:"billingCycle"`
	NextPaymentDate string  `json:"nextPaymentDate"`
	Status          string  `json:"status"`
	Notes           string  `json:"notes,omitempty"`
	Icon            string  `json:"icon"`
	IconColor       string  `json:"iconColor"`
}

type paymentBody struct {
	ID             int64   `json:"id"`
	SubscriptionID int64   `json:"subscriptionId"`
	PaymentDate    string  `json:"paymentDate"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Status         string  `json:"status"`
}

type remindersBody struct {
	DueTomorrow    []subscriptionBody `json:"dueTomorrow"`
	DueInThreeDays []subscriptionBody `json:"dueInThreeDays"`
}

func toSubscriptionBody(sub core.Subscription) subscriptionBody {
	return subscriptionBody{
		ID:              sub.ID,
		Name:            sub.Name,
		Amount:          sub.Amount.Float64(),
		Currency:        string(sub.Currency),
		BillingCycle:    string(sub.BillingCycle),
		NextPaymentDate: sub.NextPaymentDate.String(),
		Status:          string(sub.Status),
		Notes:           sub.Notes,
		Icon:            sub.Icon,
		IconColor:       sub.IconColor,
	}
}

func toSubscriptionBodies(subs []core.Subscription) []subscriptionBody {
	out := make([]subscriptionBody, len(subs))
	for i, sub := range subs {
		out[i] = toSubscriptionBody(sub)
	}
	return out
}

func toPaymentBodies(payments []core.Payment) []paymentBody {
	out := make([]paymentBody, len(payments))
	for i, p := range payments {
		out[i] = paymentBody{
			ID:             p.ID,
			SubscriptionID: p.SubscriptionID,
			PaymentDate:    p.PaymentDate.String(),
			Amount:         p.Amount.Float64(),
			Currency:       string(p.Currency),
			Status:         p.Status,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

func writeValidationError(w http.ResponseWriter, errs []FieldError) {
	writeJSON(w, http.StatusBadRequest, errorBody{Message: "validation failed", Errors: errs})
}
