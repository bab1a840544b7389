package backend

import (
	"context"
	"fmt"
	"net/http"

	"nova-client/internal/models"
)

func (a *API) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := a.r.Do(ctx, http.MethodGet, "/users/me/", nil, &user); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &user, nil
}

func (a *API) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := a.r.Do(ctx, http.MethodPatch, "/users/me/", update, &user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &user, nil
}

func (a *API) SubmitKYC(ctx context.Context) error {
	if err := a.r.Do(ctx, http.MethodPost, "/users/me/kyc/submit/", nil, nil); err != nil {
		return fmt.Errorf("submit kyc: %w", err)
	}
	return nil
}
