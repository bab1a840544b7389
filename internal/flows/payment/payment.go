// Package payment starts card and crypto payments for a fee or an
// installment. It keeps no state between calls.
package payment

import (
	"context"
	"net/url"
	"strings"

	"nova-client/internal/common/errors"
	"nova-client/internal/common/validation"
	"nova-client/internal/models"

	"github.com/shopspring/decimal"
)

const DefaultCryptoCurrency = "btc"

// API is the slice of the backend payments need.
type API interface {
	CreateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error)
	CreateCryptoPayment(ctx context.Context, req models.CryptoPaymentRequest) (*models.CryptoPayment, error)
}

// Target identifies what is being paid.
type Target struct {
	FinancingID   string
	Type          models.PaymentType
	InstallmentID string
	Amount        decimal.Decimal
}

// ReturnURLs builds the redirect targets the hosted checkout sends the user
// back to. Fee payments come back with fee_paid=true so the financing view
// can refetch.
func ReturnURLs(baseURL string, t models.PaymentType) (success, cancel string) {
	base := strings.TrimSuffix(baseURL, "/") + "/dashboard/financing"
	ok := url.Values{"success": {"true"}}
	if t == models.PaymentTypeFee {
		ok = url.Values{"fee_paid": {"true"}}
	}
	return base + "?" + ok.Encode(), base + "?" + url.Values{"cancelled": {"true"}}.Encode()
}

// CardCheckout creates a hosted card checkout session. The caller sends the
// user to SessionURL.
func CardCheckout(ctx context.Context, api API, t Target, returnBaseURL string) (*models.CheckoutSession, error) {
	success, cancel := ReturnURLs(returnBaseURL, t.Type)
	req := models.CheckoutRequest{
		FinancingID:   t.FinancingID,
		PaymentType:   t.Type,
		InstallmentID: t.InstallmentID,
		Amount:        t.Amount,
		SuccessURL:    success,
		CancelURL:     cancel,
	}
	if err := validation.CheckoutSchema.Check(req); err != nil {
		return nil, err
	}
	session, err := api.CreateCheckout(ctx, req)
	if err != nil {
		return nil, err
	}
	if session.SessionURL == "" {
		return nil, errors.NewValidationError("checkout session has no redirect URL")
	}
	return session, nil
}

// CryptoCheckout creates an address-based crypto payment. An empty currency
// means btc.
func CryptoCheckout(ctx context.Context, api API, t Target, currency string) (*models.CryptoPayment, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCryptoCurrency
	}
	req := models.CryptoPaymentRequest{
		FinancingID:    t.FinancingID,
		PaymentType:    t.Type,
		InstallmentID:  t.InstallmentID,
		Amount:         t.Amount,
		CryptoCurrency: currency,
	}
	if err := validation.CheckoutSchema.Check(req); err != nil {
		return nil, err
	}
	return api.CreateCryptoPayment(ctx, req)
}
