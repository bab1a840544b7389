package financing

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"nova-client/internal/common/errors"
	"nova-client/internal/flows/payment"
	"nova-client/internal/models"
)

type PayMethod string

const (
	MethodCard   PayMethod = "card"
	MethodCrypto PayMethod = "crypto"
	MethodMock   PayMethod = "mock"
)

func ParsePayMethod(s string) (PayMethod, error) {
	switch m := PayMethod(s); m {
	case MethodCard, MethodCrypto, MethodMock:
		return m, nil
	}
	return "", errors.NewValidationError(fmt.Sprintf("unknown payment method %q (want card, crypto or mock)", s))
}

// FeeResult holds whatever the chosen method produced. Card payments
// continue in the browser at CheckoutURL; crypto payments wait for funds at
// Crypto.PayAddress; mock payments settle immediately.
type FeeResult struct {
	Method      PayMethod
	CheckoutURL string
	Crypto      *models.CryptoPayment
	Completion  *Completion
}

// Completion is shown once the fee is settled and exactly one application
// is active.
type Completion struct {
	Application models.FinancingApplication
}

// MockPaymentsAvailable reports whether the mock shortcut may be offered.
func (c *Coordinator) MockPaymentsAvailable() bool {
	return c.cfg.MockPaymentsEnabled && !c.env.IsProduction()
}

// PayFee starts the processing fee payment for appID.
func (c *Coordinator) PayFee(ctx context.Context, appID string, method PayMethod, cryptoCurrency string) (_ *FeeResult, err error) {
	release, err := c.begin("pay-fee")
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	defer func() { c.record(ctx, "pay-fee:"+string(method), start, err) }()

	if method == MethodMock {
		return c.mockPayFee(ctx, appID)
	}

	app, ok := c.find(appID)
	if !ok {
		fetched, getErr := c.api.GetApplication(ctx, appID)
		if getErr != nil {
			err = getErr
			c.errs.Handle("pay fee", err, "Failed to load application details")
			return nil, err
		}
		app = *fetched
	}

	target := payment.Target{FinancingID: app.ID, Type: models.PaymentTypeFee, Amount: app.FeeAmount}
	switch method {
	case MethodCard:
		session, cerr := payment.CardCheckout(ctx, c.api, target, c.cfg.ReturnBaseURL)
		if cerr != nil {
			err = cerr
			c.errs.Handle("pay fee", err, "Failed to create checkout session")
			return nil, err
		}
		c.log.Info("checkout session created", map[string]interface{}{"applicationId": app.ID, "sessionId": session.SessionID})
		return &FeeResult{Method: method, CheckoutURL: session.SessionURL}, nil
	case MethodCrypto:
		p, cerr := payment.CryptoCheckout(ctx, c.api, target, cryptoCurrency)
		if cerr != nil {
			err = cerr
			c.errs.Handle("pay fee", err, "Failed to create crypto payment")
			return nil, err
		}
		c.log.Info("crypto payment created", map[string]interface{}{"applicationId": app.ID, "paymentId": p.PaymentID})
		return &FeeResult{Method: method, Crypto: p}, nil
	}
	err = errors.NewValidationError(fmt.Sprintf("unknown payment method %q", method))
	return nil, err
}

func (c *Coordinator) mockPayFee(ctx context.Context, appID string) (*FeeResult, error) {
	if !c.MockPaymentsAvailable() {
		err := errors.NewMockPaymentsDisabledError(c.env.Environment)
		c.errs.Handle("pay fee", err, "")
		return nil, err
	}
	if _, err := c.api.MockPayFee(ctx, appID); err != nil {
		c.errs.Handle("pay fee", err, "Failed to process payment")
		return nil, err
	}
	c.notifier.Success("Processing fee paid.")
	return &FeeResult{Method: MethodMock, Completion: c.afterFeePaid(ctx)}, nil
}

// afterFeePaid refetches and returns a completion when exactly one
// application is active.
func (c *Coordinator) afterFeePaid(ctx context.Context) *Completion {
	if err := c.Refresh(ctx); err != nil {
		return nil
	}
	var active []models.FinancingApplication
	for _, app := range c.Applications() {
		if app.Status.Is(models.StatusActive) {
			active = append(active, app)
		}
	}
	if len(active) != 1 {
		return nil
	}
	return &Completion{Application: active[0]}
}

// ReturnOutcome describes what a redirect back from the payment gateway
// led to.
type ReturnOutcome struct {
	FeePaid    bool
	Cancelled  bool
	Completion *Completion
}

// HandleReturn reacts to the query parameters a hosted checkout appends to
// the return URL.
func (c *Coordinator) HandleReturn(ctx context.Context, query url.Values) ReturnOutcome {
	var out ReturnOutcome
	switch {
	case query.Get("fee_paid") == "true":
		out.FeePaid = true
		c.notifier.Success("Processing fee payment received.")
		out.Completion = c.afterFeePaid(ctx)
	case query.Get("success") == "true":
		c.notifier.Success("Payment successful.")
		_ = c.Refresh(ctx)
	case query.Get("cancelled") == "true":
		out.Cancelled = true
		c.notifier.Info("Payment was cancelled. You can try again at any time.")
	}
	return out
}
