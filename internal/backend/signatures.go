package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"nova-client/internal/models"
)

func (a *API) PendingSignatures(ctx context.Context) ([]models.SignatureRequest, error) {
	var page models.Page[models.SignatureRequest]
	if err := a.r.Do(ctx, http.MethodGet, "/signatures/pending/", nil, &page); err != nil {
		return nil, fmt.Errorf("pending signatures: %w", err)
	}
	return page.Results, nil
}

func (a *API) Sign(ctx context.Context, id string, req models.SignRequest) error {
	if err := a.r.Do(ctx, http.MethodPost, "/signatures/"+url.PathEscape(id)+"/sign/", req, nil); err != nil {
		return fmt.Errorf("sign %s: %w", id, err)
	}
	return nil
}
