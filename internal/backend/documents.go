package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"nova-client/internal/models"
)

func (a *API) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var page models.Page[models.Document]
	if err := a.r.Do(ctx, http.MethodGet, "/documents/", nil, &page); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return page.Results, nil
}

func (a *API) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := a.r.Do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id)+"/", nil, &doc); err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return &doc, nil
}

// DownloadDocument returns the base64 payload; callers decode it.
func (a *API) DownloadDocument(ctx context.Context, id string) (*models.DocumentContent, error) {
	var content models.DocumentContent
	if err := a.r.Do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id)+"/download/", nil, &content); err != nil {
		return nil, fmt.Errorf("download document %s: %w", id, err)
	}
	return &content, nil
}

func (a *API) VerifyDocument(ctx context.Context, code string) (*models.DocumentVerification, error) {
	var v models.DocumentVerification
	if err := a.r.Do(ctx, http.MethodGet, "/documents/verify/"+url.PathEscape(code)+"/", nil, &v); err != nil {
		return nil, fmt.Errorf("verify document: %w", err)
	}
	return &v, nil
}
