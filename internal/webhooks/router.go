package webhooks

import (
	"context"
	"net/http"
	"time"

	"nova-client/internal/common/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether the relay can reach its backend.
type ReadinessCheck func(r *http.Request) error

// NewRouter mounts both relays plus health, readiness and metrics. limiter
// and ready may be nil.
func NewRouter(relay *Relay, limiter *RateLimiter, ready ReadinessCheck, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(assignRequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if ready != nil {
			if err := ready(req); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/webhooks", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}
		r.Post("/stripe", relay.Handler(Stripe))
		r.Post("/nowpayments", relay.Handler(NowPayments))
	})
	return r
}

// assignRequestID keeps an inbound X-Request-Id or assigns a UUID, stores it
// where middleware.GetReqID finds it and echoes it on the response.
func assignRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"requestId":  middleware.GetReqID(r.Context()),
				"durationMs": time.Since(start).Milliseconds(),
			})
		})
	}
}
