package payment

import (
	"context"
	"testing"

	"nova-client/internal/common/errors"
	"nova-client/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutSession), args.Error(1)
}

func (m *MockAPI) CreateCryptoPayment(ctx context.Context, req models.CryptoPaymentRequest) (*models.CryptoPayment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CryptoPayment), args.Error(1)
}

func feeTarget() Target {
	return Target{FinancingID: "f1", Type: models.PaymentTypeFee, Amount: decimal.RequireFromString("400.00")}
}

func TestReturnURLs(t *testing.T) {
	success, cancel := ReturnURLs("http://localhost:3000/", models.PaymentTypeFee)
	assert.Equal(t, "http://localhost:3000/dashboard/financing?fee_paid=true", success)
	assert.Equal(t, "http://localhost:3000/dashboard/financing?cancelled=true", cancel)

	success, _ = ReturnURLs("https://app.example.com", models.PaymentTypeInstallment)
	assert.Equal(t, "https://app.example.com/dashboard/financing?success=true", success)
}

func TestCardCheckout(t *testing.T) {
	api := new(MockAPI)
	api.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(req models.CheckoutRequest) bool {
		return req.FinancingID == "f1" && req.PaymentType == models.PaymentTypeFee &&
			req.SuccessURL == "http://localhost:3000/dashboard/financing?fee_paid=true"
	})).Return(&models.CheckoutSession{SessionID: "cs_1", SessionURL: "https://checkout.stripe.com/c/cs_1"}, nil)

	session, err := CardCheckout(context.Background(), api, feeTarget(), "http://localhost:3000")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.SessionID)
	api.AssertExpectations(t)
}

func TestCardCheckout_RejectsBadTarget(t *testing.T) {
	api := new(MockAPI)
	target := feeTarget()
	target.FinancingID = ""

	_, err := CardCheckout(context.Background(), api, target, "http://localhost:3000")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	api.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
}

func TestCryptoCheckout_DefaultsToBTC(t *testing.T) {
	api := new(MockAPI)
	api.On("CreateCryptoPayment", mock.Anything, mock.MatchedBy(func(req models.CryptoPaymentRequest) bool {
		return req.CryptoCurrency == "btc"
	})).Return(&models.CryptoPayment{PayAddress: "bc1qxyz", PayCurrency: "btc"}, nil).Once()
	api.On("CreateCryptoPayment", mock.Anything, mock.MatchedBy(func(req models.CryptoPaymentRequest) bool {
		return req.CryptoCurrency == "eth"
	})).Return(&models.CryptoPayment{PayAddress: "0xabc", PayCurrency: "eth"}, nil).Once()

	p, err := CryptoCheckout(context.Background(), api, feeTarget(), "")
	require.NoError(t, err)
	assert.Equal(t, "bc1qxyz", p.PayAddress)

	p, err = CryptoCheckout(context.Background(), api, feeTarget(), " ETH ")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", p.PayAddress)
	api.AssertExpectations(t)
}
