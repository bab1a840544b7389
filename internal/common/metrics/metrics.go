// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_api_requests_total",
			Help: "Total number of backend API requests by method and status code",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nova_api_request_duration_seconds",
			Help:    "Duration of backend API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_token_refresh_total",
			Help: "Access token refresh attempts by result",
		},
		[]string{"result"},
	)

	TokenRefreshWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nova_token_refresh_waiters",
			Help: "Requests currently parked behind an in-flight token refresh",
		},
	)

	WebhookForwardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_webhook_forwards_total",
			Help: "Webhooks forwarded to the backend by provider and backend status",
		},
		[]string{"provider", "status"},
	)

	WebhookForwardDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "nova_webhook_forward_duration_seconds",
			Help: "Duration of webhook forwarding in seconds",
		},
		[]string{"provider"},
	)
)
