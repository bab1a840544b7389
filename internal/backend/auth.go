package backend

import (
	"context"
	"fmt"
	"net/http"

	commonhttp "nova-client/internal/common/http"
	"nova-client/internal/models"
)

func (a *API) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := a.r.Do(ctx, http.MethodPost, "/auth/login/", req, &resp, commonhttp.Anonymous()); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

func (a *API) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := a.r.Do(ctx, http.MethodPost, "/auth/register/", req, nil, commonhttp.Anonymous()); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Logout blacklists the refresh token server-side. The session store's own
// logout does not depend on it.
func (a *API) Logout(ctx context.Context, refreshToken string) error {
	body := models.RefreshRequest{Refresh: refreshToken}
	if err := a.r.Do(ctx, http.MethodPost, "/auth/logout/", body, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (a *API) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	if err := a.r.Do(ctx, http.MethodPost, "/auth/password/reset/", body, nil, commonhttp.Anonymous()); err != nil {
		return fmt.Errorf("password reset: %w", err)
	}
	return nil
}

func (a *API) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	if err := a.r.Do(ctx, http.MethodPost, "/auth/password/change/", req, nil); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

func (a *API) SetupMFA(ctx context.Context) (*models.MFASetup, error) {
	var setup models.MFASetup
	if err := a.r.Do(ctx, http.MethodGet, "/auth/mfa/setup/", nil, &setup); err != nil {
		return nil, fmt.Errorf("mfa setup: %w", err)
	}
	return &setup, nil
}

func (a *API) EnableMFA(ctx context.Context, code string) error {
	if err := a.r.Do(ctx, http.MethodPost, "/auth/mfa/enable/", models.MFACodeRequest{Code: code}, nil); err != nil {
		return fmt.Errorf("mfa enable: %w", err)
	}
	return nil
}

func (a *API) VerifyMFA(ctx context.Context, code string) (bool, error) {
	var resp models.MessageResponse
	if err := a.r.Do(ctx, http.MethodPost, "/auth/mfa/verify/", models.MFACodeRequest{Code: code}, &resp); err != nil {
		return false, fmt.Errorf("mfa verify: %w", err)
	}
	return resp.Verified, nil
}

func (a *API) DisableMFA(ctx context.Context, code string) error {
	var body interface{}
	if code != "" {
		body = models.MFACodeRequest{Code: code}
	}
	if err := a.r.Do(ctx, http.MethodPost, "/auth/mfa/disable/", body, nil); err != nil {
		return fmt.Errorf("mfa disable: %w", err)
	}
	return nil
}
