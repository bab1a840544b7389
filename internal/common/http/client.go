// Package http is the single entry point for backend API calls. It attaches
// the bearer token and transparently renews it on 401.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"nova-client/internal/common/auth"
	"nova-client/internal/common/errors"
	"nova-client/internal/common/logger"
	"nova-client/internal/common/metrics"
	"nova-client/internal/models"

	"github.com/google/uuid"
)

// TokenRefresher renews an access token from a refresh token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
}

type refreshResult struct {
	access string
	err    error
}

// Client wraps net/http for the backend API.
//
// Concurrent requests that hit 401 share one refresh: the first becomes the
// leader and calls the refresh endpoint, the rest park until it finishes and
// then replay with whatever it produced. Every request is replayed at most
// once.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	tokens           auth.TokenStore
	refresher        TokenRefresher
	log              logger.Logger
	onSessionExpired func()

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionExpiredHandler is called once per failed refresh, after both
// tokens were cleared.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

func NewClient(baseURL string, timeout time.Duration, tokens auth.TokenStore, refresher TokenRefresher, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		refresher:  refresher,
		log:        log.WithFields(map[string]interface{}{"component": "api-client"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokens exposes the store so the session layer can persist login results.
func (c *Client) Tokens() auth.TokenStore {
	return c.tokens
}

type requestOptions struct {
	anonymous bool
	headers   map[string]string
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// Anonymous sends no bearer token and skips refresh handling. Used for
// login and registration where a 401 means bad credentials.
func Anonymous() RequestOption {
	return func(o *requestOptions) { o.anonymous = true }
}

// WithHeader adds a header to a single request.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

func (c *Client) Get(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, opts...)
}

// Do sends one request. body is JSON-encoded unless nil; out receives the
// decoded JSON response (or the raw bytes when it is *[]byte). Non-401
// failures are returned as-is: there are no automatic retries.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}, opts ...RequestOption) error {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.NewValidationError(fmt.Sprintf("failed to encode request body: %v", err))
		}
	}

	var sentToken string
	if !ro.anonymous {
		tokens, err := c.tokens.Load(ctx)
		if err != nil {
			c.log.Warn("token store unavailable, sending request without token", map[string]interface{}{"error": err})
		}
		sentToken = tokens.Access
	}

	status, data, err := c.send(ctx, method, path, payload, sentToken, ro)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !ro.anonymous {
		access, err := c.awaitRefresh(ctx, sentToken)
		if err != nil {
			return err
		}
		status, data, err = c.send(ctx, method, path, payload, access, ro)
		if err != nil {
			return err
		}
	}

	return decode(status, data, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string, ro requestOptions) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, errors.NewValidationError(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	for k, v := range ro.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, "error").Inc()
		c.log.Debug("request failed", map[string]interface{}{
			"method":    method,
			"path":      path,
			"requestId": requestID,
			"error":     err,
		})
		return 0, nil, errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.NewNetworkError(err)
	}

	metrics.APIRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	c.log.Debug("request completed", map[string]interface{}{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"requestId":  requestID,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return resp.StatusCode, data, nil
}

// awaitRefresh returns an access token to replay with after a 401 on a
// request that carried sentToken.
func (c *Client) awaitRefresh(ctx context.Context, sentToken string) (string, error) {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		metrics.TokenRefreshWaiters.Inc()
		defer metrics.TokenRefreshWaiters.Dec()

		select {
		case res := <-ch:
			return res.access, res.err
		case <-ctx.Done():
			return "", errors.NewNetworkError(ctx.Err())
		}
	}

	current, err := c.tokens.Load(ctx)
	if err != nil {
		c.log.Warn("token store unavailable during refresh", map[string]interface{}{"error": err})
	}
	// Another chain already rotated the token after this request was sent.
	if current.Access != "" && current.Access != sentToken {
		c.mu.Unlock()
		return current.Access, nil
	}
	c.refreshing = true
	c.mu.Unlock()

	// The leader's caller may give up; the parked requests still need the
	// outcome, so the refresh is not bound to its cancellation.
	access, err := c.refresh(context.WithoutCancel(ctx), current.Refresh)

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	c.mu.Unlock()

	for _, w := range waiters {
		w <- refreshResult{access: access, err: err}
	}
	return access, err
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		metrics.TokenRefreshTotal.WithLabelValues("no_refresh_token").Inc()
		c.expireSession(ctx)
		return "", errors.NewSessionExpiredError(nil)
	}

	pair, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		c.log.Warn("token refresh failed", map[string]interface{}{"error": err})
		c.expireSession(ctx)
		return "", errors.NewSessionExpiredError(err)
	}

	if err := c.tokens.Save(ctx, pair); err != nil {
		c.log.Warn("failed to persist refreshed token", map[string]interface{}{"error": err})
	}
	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	c.log.Debug("access token refreshed", nil)
	return pair.Access, nil
}

func (c *Client) expireSession(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Warn("failed to clear tokens", map[string]interface{}{"error": err})
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

func decode(status int, data []byte, out interface{}) error {
	if status < 200 || status >= 300 {
		return errors.FromResponse(status, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewDecodeError(err)
	}
	return nil
}
