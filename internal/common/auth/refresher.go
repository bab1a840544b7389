package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nova-client/internal/common/errors"
	"nova-client/internal/models"
)

// RefreshPath is the token rotation endpoint relative to the API base URL.
const RefreshPath = "/auth/token/refresh/"

// Refresher exchanges a refresh token for a new access token. It talks to
// the backend with a plain http.Client so a failed refresh can never loop
// back into the 401 handling of the API client.
type Refresher struct {
	baseURL    string
	httpClient *http.Client
}

func NewRefresher(baseURL string, timeout time.Duration) *Refresher {
	return &Refresher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Refresh posts {"refresh": token} and returns the rotated pair. When the
// server does not rotate the refresh token the old one is kept.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	body, err := json.Marshal(models.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+RefreshPath, bytes.NewReader(body))
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return models.TokenPair{}, errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.TokenPair{}, errors.NewNetworkError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.TokenPair{}, errors.FromResponse(resp.StatusCode, data)
	}

	var tokenResp models.RefreshResponse
	if err := json.Unmarshal(data, &tokenResp); err != nil {
		return models.TokenPair{}, errors.NewDecodeError(err)
	}
	if tokenResp.Access == "" {
		return models.TokenPair{}, errors.NewDecodeError(fmt.Errorf("refresh response has no access token"))
	}

	pair := models.TokenPair{Access: tokenResp.Access, Refresh: tokenResp.Refresh}
	if pair.Refresh == "" {
		pair.Refresh = refreshToken
	}
	return pair, nil
}
