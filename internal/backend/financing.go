package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"nova-client/internal/models"

	"github.com/shopspring/decimal"
)

func (a *API) ListApplications(ctx context.Context) ([]models.FinancingApplication, error) {
	var page models.Page[models.FinancingApplication]
	if err := a.r.Do(ctx, http.MethodGet, "/financing/", nil, &page); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return page.Results, nil
}

func (a *API) GetApplication(ctx context.Context, id string) (*models.FinancingApplication, error) {
	var app models.FinancingApplication
	if err := a.r.Do(ctx, http.MethodGet, "/financing/"+url.PathEscape(id)+"/", nil, &app); err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	return &app, nil
}

// CreateApplication creates a draft.
func (a *API) CreateApplication(ctx context.Context, req models.CreateApplicationRequest) (*models.FinancingApplication, error) {
	var app models.FinancingApplication
	if err := a.r.Do(ctx, http.MethodPost, "/financing/", req, &app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return &app, nil
}

// SubmitApplication moves a draft forward.
func (a *API) SubmitApplication(ctx context.Context, id string) (*models.FinancingApplication, error) {
	var app models.FinancingApplication
	if err := a.r.Do(ctx, http.MethodPost, "/financing/"+url.PathEscape(id)+"/submit/", nil, &app); err != nil {
		return nil, fmt.Errorf("submit application %s: %w", id, err)
	}
	return &app, nil
}

// MockPayFee settles the processing fee without a gateway. Development
// backends only.
func (a *API) MockPayFee(ctx context.Context, id string) (*models.FinancingApplication, error) {
	var app models.FinancingApplication
	if err := a.r.Do(ctx, http.MethodPost, "/financing/"+url.PathEscape(id)+"/mock-pay-fee/", nil, &app); err != nil {
		return nil, fmt.Errorf("mock pay fee %s: %w", id, err)
	}
	return &app, nil
}

func (a *API) ListInstallments(ctx context.Context, id string) ([]models.Installment, error) {
	var page models.Page[models.Installment]
	if err := a.r.Do(ctx, http.MethodGet, "/financing/"+url.PathEscape(id)+"/installments/", nil, &page); err != nil {
		return nil, fmt.Errorf("list installments %s: %w", id, err)
	}
	return page.Results, nil
}

func (a *API) Statement(ctx context.Context, id string) (*models.Statement, error) {
	var st models.Statement
	if err := a.r.Do(ctx, http.MethodGet, "/financing/"+url.PathEscape(id)+"/statement/", nil, &st); err != nil {
		return nil, fmt.Errorf("statement %s: %w", id, err)
	}
	return &st, nil
}

// Quote asks the backend calculator for authoritative figures.
func (a *API) Quote(ctx context.Context, amount decimal.Decimal, periodMonths int) (*models.CalculatorQuote, error) {
	q := url.Values{}
	q.Set("amount", amount.String())
	q.Set("period", strconv.Itoa(periodMonths))

	var quote models.CalculatorQuote
	if err := a.r.Do(ctx, http.MethodGet, "/financing/calculator/?"+q.Encode(), nil, &quote); err != nil {
		return nil, fmt.Errorf("calculator: %w", err)
	}
	return &quote, nil
}
