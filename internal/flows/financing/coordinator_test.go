package financing

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"nova-client/internal/common/config"
	commonerrors "nova-client/internal/common/errors"
	"nova-client/internal/common/logger"
	"nova-client/internal/common/observability"
	"nova-client/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListApplications(ctx context.Context) ([]models.FinancingApplication, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FinancingApplication), args.Error(1)
}

func (m *MockAPI) GetApplication(ctx context.Context, id string) (*models.FinancingApplication, error) {
	args := m.Called(ctx, id)
	return appOrNil(args.Get(0)), args.Error(1)
}

func (m *MockAPI) CreateApplication(ctx context.Context, req models.CreateApplicationRequest) (*models.FinancingApplication, error) {
	args := m.Called(ctx, req)
	return appOrNil(args.Get(0)), args.Error(1)
}

func (m *MockAPI) SubmitApplication(ctx context.Context, id string) (*models.FinancingApplication, error) {
	args := m.Called(ctx, id)
	return appOrNil(args.Get(0)), args.Error(1)
}

func (m *MockAPI) MockPayFee(ctx context.Context, id string) (*models.FinancingApplication, error) {
	args := m.Called(ctx, id)
	return appOrNil(args.Get(0)), args.Error(1)
}

func (m *MockAPI) Quote(ctx context.Context, amount decimal.Decimal, months int) (*models.CalculatorQuote, error) {
	args := m.Called(ctx, amount, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalculatorQuote), args.Error(1)
}

func (m *MockAPI) Statement(ctx context.Context, id string) (*models.Statement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Statement), args.Error(1)
}

func (m *MockAPI) ListInstallments(ctx context.Context, id string) ([]models.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Installment), args.Error(1)
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

func appOrNil(v interface{}) *models.FinancingApplication {
	if v == nil {
		return nil
	}
	return v.(*models.FinancingApplication)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) add(kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, kind+": "+msg)
}

func (r *recordingNotifier) Success(msg string) { r.add("success", msg) }
func (r *recordingNotifier) Error(msg string)   { r.add("error", msg) }
func (r *recordingNotifier) Info(msg string)    { r.add("info", msg) }

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func testConfig() config.FinancingConfig {
	return config.FinancingConfig{
		FeePercentage:       4,
		MinAmount:           500,
		MaxAmount:           100000,
		MinPeriodMonths:     6,
		MaxPeriodMonths:     36,
		MockPaymentsEnabled: true,
		ReturnBaseURL:       "http://localhost:3000",
	}
}

func newCoordinator(t *testing.T, env string) (*Coordinator, *MockAPI, *recordingNotifier) {
	api := new(MockAPI)
	n := &recordingNotifier{}
	c := NewCoordinator(api, testConfig(), config.AppConfig{Environment: env}, n, logger.NewTestLogger(t), observability.NewNoop())
	return c, api, n
}

func app(id string, status models.Status) models.FinancingApplication {
	return models.FinancingApplication{
		ID:        id,
		Status:    models.NewApplicationStatus(status),
		FeeAmount: decimal.RequireFromString("400.00"),
	}
}

func approvedUser() *models.User {
	return &models.User{ID: "u1", KYCStatus: models.KYCApproved}
}

func fullForm() ApplyForm {
	return ApplyForm{
		Amount:               decimal.NewFromInt(10000),
		PeriodMonths:         12,
		AckTerms:             true,
		AckFeeNonRefundable:  true,
		AckRepaymentSchedule: true,
		AckRiskDisclosure:    true,
	}
}

// ==========================
// Calculator
// ==========================

func TestCalculate(t *testing.T) {
	c, _, _ := newCoordinator(t, "development")

	p, err := c.Calculate(decimal.NewFromInt(10000), 12)
	require.NoError(t, err)
	assert.Equal(t, "400.00", p.Fee.StringFixed(2))
	assert.Equal(t, "833.33", p.MonthlyInstallment.StringFixed(2))
	assert.Equal(t, "10400.00", p.TotalCost.StringFixed(2))

	_, err = c.Calculate(decimal.Zero, 12)
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeValidationFailed))
	_, err = c.Calculate(decimal.NewFromInt(1000), 0)
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeValidationFailed))
}

// ==========================
// Gates
// ==========================

func TestApplyForm_CanSubmit(t *testing.T) {
	flips := []func(*ApplyForm){
		func(f *ApplyForm) { f.AckTerms = false },
		func(f *ApplyForm) { f.AckFeeNonRefundable = false },
		func(f *ApplyForm) { f.AckRepaymentSchedule = false },
		func(f *ApplyForm) { f.AckRiskDisclosure = false },
	}
	assert.True(t, fullForm().CanSubmit(approvedUser()))
	for i, flip := range flips {
		f := fullForm()
		flip(&f)
		assert.False(t, f.CanSubmit(approvedUser()), "acknowledgement %d", i)
	}
	assert.False(t, fullForm().CanSubmit(&models.User{KYCStatus: models.KYCSubmitted}))
	assert.False(t, fullForm().CanSubmit(nil))
}

func TestView_KYCGate(t *testing.T) {
	c, api, _ := newCoordinator(t, "development")
	api.On("ListApplications", mock.Anything).Return([]models.FinancingApplication{app("f1", models.StatusPendingSignature)}, nil)
	require.NoError(t, c.Refresh(context.Background()))

	user := &models.User{KYCStatus: models.KYCSubmitted}
	v := c.View(user)
	assert.False(t, v.CanApply)
	assert.Equal(t, KYCRequiredBanner, v.KYCBanner)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, models.ActionSignContract, v.Rows[0].Action)
	assert.Equal(t, "Pending Signature", v.Rows[0].Label)

	user.KYCStatus = models.KYCApproved
	v = c.View(user)
	assert.True(t, v.CanApply)
	assert.Empty(t, v.KYCBanner)
}

// ==========================
// Submission
// ==========================

func TestSubmit_CreatesThenSubmits(t *testing.T) {
	c, api, n := newCoordinator(t, "development")
	ctx := context.Background()

	created := app("f1", models.StatusDraft)
	submitted := app("f1", models.StatusPendingSignature)
	api.On("CreateApplication", mock.Anything, mock.MatchedBy(func(req models.CreateApplicationRequest) bool {
		return req.BronovaAmount.Equal(decimal.NewFromInt(10000)) && req.RepaymentPeriodMonths == 12 &&
			req.AckTerms && req.AckFeeNonRefundable && req.AckRepaymentSchedule && req.AckRiskDisclosure
	})).Return(&created, nil).Once()
	api.On("SubmitApplication", mock.Anything, "f1").Return(&submitted, nil).Once()
	api.On("ListApplications", mock.Anything).Return([]models.FinancingApplication{submitted}, nil).Once()

	got, err := c.Submit(ctx, approvedUser(), fullForm())
	require.NoError(t, err)
	assert.True(t, got.Status.Is(models.StatusPendingSignature))
	assert.Equal(t, []string{"success: Financing application submitted successfully!"}, n.all())
	assert.Len(t, c.Applications(), 1)
	assert.Empty(t, c.Busy())
	api.AssertExpectations(t)
}

func TestSubmit_NeverSubmitsWithoutID(t *testing.T) {
	c, api, n := newCoordinator(t, "development")
	api.On("CreateApplication", mock.Anything, mock.Anything).Return(&models.FinancingApplication{}, nil).Once()

	_, err := c.Submit(context.Background(), approvedUser(), fullForm())
	require.Error(t, err)
	api.AssertNotCalled(t, "SubmitApplication", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"error: Failed to submit application"}, n.all())
}

func TestSubmit_CreateFailureSkipsSubmit(t *testing.T) {
	c, api, n := newCoordinator(t, "development")
	api.On("CreateApplication", mock.Anything, mock.Anything).
		Return(nil, commonerrors.FromResponse(http.StatusBadRequest, []byte(`{"bronova_amount":["Minimum financing amount is 500."]}`))).Once()

	_, err := c.Submit(context.Background(), approvedUser(), fullForm())
	require.Error(t, err)
	api.AssertNotCalled(t, "SubmitApplication", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"error: bronova_amount: Minimum financing amount is 500."}, n.all())
}

func TestSubmit_SubmitFailureLeavesListUntouched(t *testing.T) {
	c, api, n := newCoordinator(t, "development")
	created := app("f1", models.StatusDraft)
	api.On("CreateApplication", mock.Anything, mock.Anything).Return(&created, nil).Once()
	api.On("SubmitApplication", mock.Anything, "f1").Return(nil, commonerrors.NewNetworkError(errors.New("connection reset"))).Once()

	_, err := c.Submit(context.Background(), approvedUser(), fullForm())
	require.Error(t, err)
	api.AssertNotCalled(t, "ListApplications", mock.Anything)
	assert.Equal(t, []string{"error: " + commonerrors.MessageCannotReachServer}, n.all())
	assert.Empty(t, c.Busy(), "guard released after failure")
}

func TestSubmit_ClientGates(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		form     func() ApplyForm
		wantCode commonerrors.ErrorCode
	}{
		{"kyc submitted", &models.User{KYCStatus: models.KYCSubmitted}, fullForm, commonerrors.ErrCodeKYCNotApproved},
		{"anonymous", nil, fullForm, commonerrors.ErrCodeKYCNotApproved},
		{"missing acknowledgement", approvedUser(), func() ApplyForm {
			f := fullForm()
			f.AckRiskDisclosure = false
			return f
		}, commonerrors.ErrCodeAcknowledgementsMissing},
		{"amount out of range", approvedUser(), func() ApplyForm {
			f := fullForm()
			f.Amount = decimal.NewFromInt(200000)
			return f
		}, commonerrors.ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, api, n := newCoordinator(t, "development")
			_, err := c.Submit(context.Background(), tt.user, tt.form())
			require.Error(t, err)
			assert.True(t, commonerrors.HasCode(err, tt.wantCode), "got %v", err)
			api.AssertNotCalled(t, "CreateApplication", mock.Anything, mock.Anything)
			assert.Len(t, n.all(), 1)
		})
	}
}

func TestSubmit_BusyGuard(t *testing.T) {
	c, api, _ := newCoordinator(t, "development")
	release := make(chan struct{})
	entered := make(chan struct{})
	created := app("f1", models.StatusDraft)
	api.On("CreateApplication", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&created, nil).Once()
	api.On("SubmitApplication", mock.Anything, "f1").Return(&created, nil).Once()
	api.On("ListApplications", mock.Anything).Return([]models.FinancingApplication{created}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), approvedUser(), fullForm())
		done <- err
	}()
	<-entered

	_, err := c.Submit(context.Background(), approvedUser(), fullForm())
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeActionInProgress))
	_, err = c.PayFee(context.Background(), "f1", MethodMock, "")
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeActionInProgress))

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first submit did not finish")
	}
	assert.Empty(t, c.Busy())
	api.AssertNumberOfCalls(t, "CreateApplication", 1)
}

// ==========================
// Refresh
// ==========================

func TestRefresh_FailureKeepsList(t *testing.T) {
	c, api, n := newCoordinator(t, "development")
	api.On("ListApplications", mock.Anything).Return([]models.FinancingApplication{app("f1", models.StatusActive)}, nil).Once()
	api.On("ListApplications", mock.Anything).Return(nil, commonerrors.FromResponse(http.StatusInternalServerError, nil)).Once()

	require.NoError(t, c.Refresh(context.Background()))
	require.Error(t, c.Refresh(context.Background()))
	assert.Len(t, c.Applications(), 1)
	assert.Equal(t, []string{"error: Failed to load financing applications"}, n.all())
}

// ==========================
// Intent and fee payment
// ==========================

func TestEnter_DispatchesOnce(t *testing.T) {
	c, api, _ := newCoordinator(t, "development")
	api.On("ListApplications", mock.Anything).Return([]models.FinancingApplication{
		app("f0", models.StatusCompleted),
		app("f1", models.StatusPendingFee),
	}, nil)
	require.NoError(t, c.Refresh(context.Background()))

	intent := NewIntent(IntentPayFee)
	dialog, ok := c.Enter(intent)
	require.True(t, ok)
	assert.Equal(t, "f1", dialog.Application.ID)
	assert.True(t, intent.Consumed())

	_, ok = c.Enter(intent)
	assert.False(t, ok, "consumed intent does not fire again")
	_, ok = c.Enter(nil)
	assert.False(t, ok)
}

func TestPayFee_MockCompletes(t *testing.T) {
	c, api, n := newCoordinator(t, "development")
	paid := app("f1", models.StatusActive)
	api.On("MockPayFee", mock.Anything, "f1").Return(&paid, nil).Once()
	api.On("ListApplications", mock.Anything).Return([]models.FinancingApplication{paid, app("f0", models.StatusCompleted)}, nil).Once()

	res, err := c.PayFee(context.Background(), "f1", MethodMock, "")
	require.NoError(t, err)
	require.NotNil(t, res.Completion)
	assert.Equal(t, "f1", res.Completion.Application.ID)
	assert.Contains(t, n.all(), "success: Processing fee paid.")
}

func TestPayFee_MockBlockedInProduction(t *testing.T) {
	c, api, _ := newCoordinator(t, "production")
	assert.False(t, c.MockPaymentsAvailable())

	_, err := c.PayFee(context.Background(), "f1", MethodMock, "")
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeMockPaymentsDisabled))
	api.AssertNotCalled(t, "MockPayFee", mock.Anything, mock.Anything)
}

func TestPayFee_Card(t *testing.T) {
	c, api, _ := newCoordinator(t, "development")
	api.On("ListApplications", mock.Anything).Return([]models.FinancingApplication{app("f1", models.StatusPendingFee)}, nil).Once()
	require.NoError(t, c.Refresh(context.Background()))

	api.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(req models.CheckoutRequest) bool {
		return req.FinancingID == "f1" && req.Amount.Equal(decimal.NewFromInt(400)) &&
			req.SuccessURL == "http://localhost:3000/dashboard/financing?fee_paid=true"
	})).Return(&models.CheckoutSession{SessionID: "cs_1", SessionURL: "https://checkout.stripe.com/c/cs_1"}, nil).Once()

	res, err := c.PayFee(context.Background(), "f1", MethodCard, "")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", res.CheckoutURL)
	api.AssertNotCalled(t, "GetApplication", mock.Anything, mock.Anything)
}

func TestPayFee_CryptoFetchesUnknownApplication(t *testing.T) {
	c, api, _ := newCoordinator(t, "development")
	pending := app("f9", models.StatusPendingFee)
	api.On("GetApplication", mock.Anything, "f9").Return(&pending, nil).Once()
	api.On("CreateCryptoPayment", mock.Anything, mock.Anything).Return(&models.CryptoPayment{PayAddress: "bc1qxyz", PayCurrency: "btc"}, nil).Once()

	res, err := c.PayFee(context.Background(), "f9", MethodCrypto, "")
	require.NoError(t, err)
	assert.Equal(t, "bc1qxyz", res.Crypto.PayAddress)
}

func TestHandleReturn(t *testing.T) {
	t.Run("fee paid with one active application", func(t *testing.T) {
		c, api, _ := newCoordinator(t, "development")
		api.On("ListApplications", mock.Anything).Return([]models.FinancingApplication{app("f1", models.StatusActive)}, nil).Once()

		out := c.HandleReturn(context.Background(), url.Values{"fee_paid": {"true"}})
		assert.True(t, out.FeePaid)
		require.NotNil(t, out.Completion)
	})

	t.Run("fee paid with two active applications", func(t *testing.T) {
		c, api, _ := newCoordinator(t, "development")
		api.On("ListApplications", mock.Anything).Return([]models.FinancingApplication{
			app("f1", models.StatusActive),
			app("f2", models.StatusActive),
		}, nil).Once()

		out := c.HandleReturn(context.Background(), url.Values{"fee_paid": {"true"}})
		assert.Nil(t, out.Completion)
	})

	t.Run("cancelled", func(t *testing.T) {
		c, api, n := newCoordinator(t, "development")
		out := c.HandleReturn(context.Background(), url.Values{"cancelled": {"true"}})
		assert.True(t, out.Cancelled)
		assert.Equal(t, []string{"info: Payment was cancelled. You can try again at any time."}, n.all())
		api.AssertNotCalled(t, "ListApplications", mock.Anything)
	})
}

func TestParsePayMethod(t *testing.T) {
	m, err := ParsePayMethod("crypto")
	require.NoError(t, err)
	assert.Equal(t, MethodCrypto, m)

	_, err = ParsePayMethod("cheque")
	assert.Error(t, err)
}
