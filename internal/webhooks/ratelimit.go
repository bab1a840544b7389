package webhooks

import (
	"net/http"

	"nova-client/internal/common/logger"

	"golang.org/x/time/rate"
)

// RateLimiter caps webhook throughput for the whole process.
type RateLimiter struct {
	limiter *rate.Limiter
	log     logger.Logger
}

// NewRateLimiter returns nil when rps is not positive, which disables
// limiting.
func NewRateLimiter(rps float64, burst int, log logger.Logger) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst), log: log}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			rl.log.Warn("webhook rate limit exceeded", map[string]interface{}{
				"path":       r.URL.Path,
				"remoteAddr": r.RemoteAddr,
			})
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
