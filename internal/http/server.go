// Package http exposes the subscription tracker as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"subtrack/internal/cache"
	"subtrack/internal/core"
	"subtrack/internal/middleware/ratelimit"
	"subtrack/internal/middleware/security"
	"subtrack/internal/middleware/trace"
	"subtrack/internal/services"
)

const summaryCacheKey = "summary"

type Server struct {
	http.Server
	service     *services.SubscriptionService
	rateLimiter *ratelimit.Limiter

	// summaryCache avoids recomputing totals on every dashboard poll. Any
	// mutation invalidates it.
	summaryCache *cache.TTLCache[core.Summary]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, service *services.SubscriptionService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		service:          service,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		summaryCache:     cache.NewTTLCache[core.Summary](1, 30*time.Second),
		stopCacheCleanup: make(chan struct{}),
	}

	mux.HandleFunc("GET /subscriptions", s.handleListSubscriptions)
	mux.HandleFunc("POST /subscriptions", s.handleCreateSubscription)
	mux.HandleFunc("GET /subscriptions/{id}", s.handleGetSubscription)
	mux.HandleFunc("PATCH /subscriptions/{id}", s.handleUpdateSubscription)
	mux.HandleFunc("DELETE /subscriptions/{id}", s.handleDeleteSubscription)
	mux.HandleFunc("GET /subscriptions/{id}/payments", s.handleListPayments)
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("GET /reminders", s.handleReminders)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	traceMW := trace.NewMiddleware(clientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	handler := s.withMutationRateLimit(mux)
	handler = headersMW.Middleware(handler)
	handler = traceMW.Middleware(handler)

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go s.startCacheCleanup()

	return s
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// withMutationRateLimit rate limits writes only; reads stay unthrottled.
func (s *Server) withMutationRateLimit(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
		slog.WarnContext(r.Context(), "Rate limit exceeded",
			"client_ip", clientIP(r), "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.Prune(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

func (s *Server) invalidateSummary() {
	s.summaryCache.Delete(summaryCacheKey)
}

// Shutdown stops the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
