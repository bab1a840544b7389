// Package webhooks relays payment provider callbacks to the backend. The
// body and signature header go through untouched; verification happens
// server-side.
package webhooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nova-client/internal/common/logger"
	"nova-client/internal/common/metrics"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxBodyBytes caps what the relay will buffer for one webhook.
const maxBodyBytes = 5 << 20

// Provider describes one inbound webhook source.
type Provider struct {
	Name           string
	InboundHeader  string
	OutboundHeader string
	BackendPath    string
}

var (
	Stripe = Provider{
		Name:           "stripe",
		InboundHeader:  "stripe-signature",
		OutboundHeader: "Stripe-Signature",
		BackendPath:    "/webhooks/stripe/",
	}
	NowPayments = Provider{
		Name:           "nowpayments",
		InboundHeader:  "x-nowpayments-sig",
		OutboundHeader: "X-Nowpayments-Sig",
		BackendPath:    "/webhooks/nowpayments/",
	}
)

type Relay struct {
	backendURL string
	client     *http.Client
	log        logger.Logger
}

func NewRelay(backendURL string, timeout time.Duration, log logger.Logger) *Relay {
	return &Relay{
		backendURL: strings.TrimSuffix(backendURL, "/"),
		client:     &http.Client{Timeout: timeout},
		log:        log.WithFields(map[string]interface{}{"component": "webhook-relay"}),
	}
}

// Handler forwards the request for p and answers with the backend's status
// code. Bodies over maxBodyBytes are refused with 413 and never forwarded.
func (rl *Relay) Handler(p Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				metrics.WebhookForwardsTotal.WithLabelValues(p.Name, "too_large").Inc()
				rl.log.Warn("webhook body too large", map[string]interface{}{
					"provider": p.Name,
					"limit":    tooLarge.Limit,
				})
				writeJSON(w, http.StatusRequestEntityTooLarge, map[string]interface{}{"error": "Webhook body too large"})
				return
			}
			metrics.WebhookForwardsTotal.WithLabelValues(p.Name, "error").Inc()
			rl.log.Warn("failed to read webhook body", map[string]interface{}{
				"provider": p.Name,
				"error":    err,
			})
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid webhook body"})
			return
		}

		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = uuid.New().String()
		}
		status, err := rl.forward(r, p, body, requestID)
		metrics.WebhookForwardDuration.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.WebhookForwardsTotal.WithLabelValues(p.Name, "error").Inc()
			rl.log.Error("webhook forwarding failed", map[string]interface{}{
				"provider":  p.Name,
				"requestId": requestID,
				"error":     err,
			})
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Webhook forwarding failed"})
			return
		}

		metrics.WebhookForwardsTotal.WithLabelValues(p.Name, strconv.Itoa(status)).Inc()
		rl.log.Info("webhook forwarded", map[string]interface{}{
			"provider":      p.Name,
			"requestId":     requestID,
			"bytes":         len(body),
			"backendStatus": status,
			"durationMs":    time.Since(start).Milliseconds(),
		})
		writeJSON(w, status, map[string]interface{}{"received": true})
	}
}

func (rl *Relay) forward(r *http.Request, p Provider, body []byte, requestID string) (int, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, rl.backendURL+p.BackendPath, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set(p.OutboundHeader, r.Header.Get(p.InboundHeader))

	resp, err := rl.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
