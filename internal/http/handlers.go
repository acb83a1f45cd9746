package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"subtrack/internal/store"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.service.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List subscriptions error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionBodies(subs))
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	sub, errs := parseCreate(r)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	created, err := s.service.Create(r.Context(), sub)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create subscription error", "error", err, "name", sub.Name)
		writeError(w, http.StatusInternalServerError, "failed to create subscription")
		return
	}

	s.invalidateSummary()
	writeJSON(w, http.StatusCreated, toSubscriptionBody(created))
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := s.service.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get subscription error", "error", err, "subscription_id", id)
		writeError(w, http.StatusInternalServerError, "failed to get subscription")
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionBody(sub))
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch, errs := parsePatch(r)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	updated, err := s.service.Update(r.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Update subscription error", "error", err, "subscription_id", id)
		writeError(w, http.StatusInternalServerError, "failed to update subscription")
		return
	}

	s.invalidateSummary()
	writeJSON(w, http.StatusOK, toSubscriptionBody(updated))
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := s.service.Delete(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete subscription error", "error", err, "subscription_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}

	s.invalidateSummary()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// An unknown subscription simply has no history, so this never 404s.
	payments, err := s.service.Payments(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "List payments error", "error", err, "subscription_id", id)
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	writeJSON(w, http.StatusOK, toPaymentBodies(payments))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if summary, found := s.summaryCache.Get(summaryCacheKey); found {
		slog.DebugContext(r.Context(), "Summary cache hit")
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := s.service.Summary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	s.summaryCache.Set(summaryCacheKey, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.service.Reminders(r.Context(), time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Reminders error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute reminders")
		return
	}

	body := remindersBody{
		DueTomorrow:    toSubscriptionBodies(reminders.DueTomorrow),
		DueInThreeDays: toSubscriptionBodies(reminders.DueInThreeDays),
	}
	writeJSON(w, http.StatusOK, body)
}
