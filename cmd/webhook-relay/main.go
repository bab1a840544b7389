// cmd/webhook-relay/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nova-client/internal/common/config"
	"nova-client/internal/common/logger"
	"nova-client/internal/webhooks"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// backendReachable treats any HTTP answer as reachable; only transport
// failures count.
func backendReachable(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, "stdout")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting webhook relay...",
		zap.String("backend", cfg.Relay.BackendURL),
		zap.String("environment", cfg.App.Environment),
	)

	readyClient := &http.Client{Timeout: 3 * time.Second}

	// The relay still starts if the backend is down; /ready reports it.
	err = retryWithBackoff(func() error {
		return backendReachable(context.Background(), readyClient, cfg.Relay.BackendURL)
	}, 5, time.Second, zapLog, "Backend reachability check")
	if err != nil {
		zapLog.Warn("backend not reachable yet", zap.Error(err))
	}

	relay := webhooks.NewRelay(cfg.Relay.BackendURL, config.GetDuration(cfg.Relay.TimeoutMs), log)
	limiter := webhooks.NewRateLimiter(cfg.Relay.RateLimitRPS, cfg.Relay.RateLimitBurst, log)
	ready := func(r *http.Request) error {
		return backendReachable(r.Context(), readyClient, cfg.Relay.BackendURL)
	}

	srv := &http.Server{
		Addr:              cfg.Relay.ListenAddress,
		Handler:           webhooks.NewRouter(relay, limiter, ready, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("Webhook relay listening", zap.String("address", cfg.Relay.ListenAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("Webhook relay server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining in-flight webhooks...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down relay server", zap.Error(err))
	}

	zapLog.Info("Webhook relay stopped gracefully")
}
