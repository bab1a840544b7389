package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"nova-client/internal/models"
)

// CreateServiceRequest is the body of POST /requests/.
type CreateServiceRequest struct {
	RequestType string  `json:"request_type"`
	Subject     string  `json:"subject"`
	Description string  `json:"description"`
	FinancingID *string `json:"financing,omitempty"`
}

func (a *API) ListRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	var page models.Page[models.ServiceRequest]
	if err := a.r.Do(ctx, http.MethodGet, "/requests/", nil, &page); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return page.Results, nil
}

func (a *API) CreateRequest(ctx context.Context, req CreateServiceRequest) (*models.ServiceRequest, error) {
	var out models.ServiceRequest
	if err := a.r.Do(ctx, http.MethodPost, "/requests/", req, &out); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return &out, nil
}

func (a *API) GetRequest(ctx context.Context, id string) (*models.ServiceRequest, error) {
	var out models.ServiceRequest
	if err := a.r.Do(ctx, http.MethodGet, "/requests/"+url.PathEscape(id)+"/", nil, &out); err != nil {
		return nil, fmt.Errorf("get request %s: %w", id, err)
	}
	return &out, nil
}
