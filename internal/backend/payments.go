package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"nova-client/internal/models"
)

func (a *API) ListPayments(ctx context.Context) ([]models.Payment, error) {
	var page models.Page[models.Payment]
	if err := a.r.Do(ctx, http.MethodGet, "/payments/", nil, &page); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return page.Results, nil
}

func (a *API) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := a.r.Do(ctx, http.MethodGet, "/payments/"+url.PathEscape(id)+"/", nil, &p); err != nil {
		return nil, fmt.Errorf("get payment %s: %w", id, err)
	}
	return &p, nil
}

// Receipt returns the receipt document of a completed payment.
func (a *API) Receipt(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := a.r.Do(ctx, http.MethodGet, "/payments/"+url.PathEscape(id)+"/receipt/", nil, &doc); err != nil {
		return nil, fmt.Errorf("payment receipt %s: %w", id, err)
	}
	return &doc, nil
}

func (a *API) CreateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	if err := a.r.Do(ctx, http.MethodPost, "/payments/stripe/checkout/", req, &session); err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	return &session, nil
}

func (a *API) CreateCryptoPayment(ctx context.Context, req models.CryptoPaymentRequest) (*models.CryptoPayment, error) {
	var p models.CryptoPayment
	if err := a.r.Do(ctx, http.MethodPost, "/payments/crypto/create/", req, &p); err != nil {
		return nil, fmt.Errorf("create crypto payment: %w", err)
	}
	return &p, nil
}

func (a *API) ScheduledPayments(ctx context.Context) ([]models.ScheduledPayment, error) {
	var page models.Page[models.ScheduledPayment]
	if err := a.r.Do(ctx, http.MethodGet, "/payments/schedule/", nil, &page); err != nil {
		return nil, fmt.Errorf("scheduled payments: %w", err)
	}
	return page.Results, nil
}
