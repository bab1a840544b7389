package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"nova-client/internal/common/auth"
	"nova-client/internal/common/config"
	"nova-client/internal/flows/signing"
	"nova-client/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type hit struct {
	route string
	body  map[string]interface{}
}

// fakeBackend routes "METHOD /path" (without the /api/v1 prefix) to handlers
// and records every request.
type fakeBackend struct {
	mu   sync.Mutex
	hits []hit
	srv  *httptest.Server
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newBackend(t *testing.T, routes map[string]http.HandlerFunc) *fakeBackend {
	b := &fakeBackend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path[len("/api/v1"):]
		h := hit{route: route}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &h.body))
		}
		b.mu.Lock()
		b.hits = append(b.hits, h)
		b.mu.Unlock()

		handler, ok := routes[route]
		if !ok {
			reply(http.StatusNotFound, `{"detail":"Not found."}`)(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) find(route string) (hit, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range b.hits {
		if h.route == route {
			return h, true
		}
	}
	return hit{}, false
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "nova", Environment: "development"},
		API:     config.APIConfig{BaseURL: baseURL + "/api/v1", TimeoutMs: 5000},
		Session: config.SessionConfig{Store: "memory"},
		Financing: config.FinancingConfig{
			FeePercentage:    4,
			MinFeePercentage: 3,
			MaxFeePercentage: 5,
			MinAmount:        500,
			MaxAmount:        100000,
			MinPeriodMonths:  6,
			MaxPeriodMonths:  36,
			ReturnBaseURL:    "http://localhost:3000",
		},
		Notifications: config.NotificationsConfig{PollSchedule: "@every 30s"},
		Logging:       config.LoggingConfig{Level: "error", Format: "console", Output: "stderr"},
	}
}

type run struct {
	code   int
	out    string
	errOut string
}

func execute(t *testing.T, b *fakeBackend, tokens auth.TokenStore, args ...string) run {
	t.Helper()
	baseURL := "http://127.0.0.1:1"
	if b != nil {
		baseURL = b.srv.URL
	}
	if tokens == nil {
		tokens = auth.NewMemoryStore(models.TokenPair{Access: "access-1", Refresh: "refresh-1"})
	}
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), args, Options{
		Config: testConfig(baseURL),
		Tokens: tokens,
		Out:    &out,
		Err:    &errOut,
	})
	return run{code: code, out: out.String(), errOut: errOut.String()}
}

const approvedUser = `{"id":"u1","email":"jane@example.com","first_name":"Jane","last_name":"Doe","kyc_status":"approved"}`

// ==========================
// Session Commands
// ==========================

func TestLogin_StoresTokens(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /auth/login/": reply(http.StatusOK, `{"access":"a1","refresh":"r1"}`),
		"GET /users/me/":    reply(http.StatusOK, approvedUser),
	})
	tokens := auth.NewMemoryStore(models.TokenPair{})

	r := execute(t, b, tokens, "login", "--email", " jane@example.com ", "--password", "secret")

	require.Equal(t, 0, r.code, r.errOut)
	assert.Contains(t, r.out, "Signed in as jane@example.com.")

	stored, err := tokens.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.TokenPair{Access: "a1", Refresh: "r1"}, stored)

	login, ok := b.find("POST /auth/login/")
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", login.body["email"])
}

func TestLogin_BadCredentials(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /auth/login/": reply(http.StatusUnauthorized, `{}`),
	})
	tokens := auth.NewMemoryStore(models.TokenPair{})

	r := execute(t, b, tokens, "login", "--email", "jane@example.com", "--password", "wrong")

	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.errOut, "error: Invalid email or password.")
	_, refreshed := b.find("POST /auth/token/refresh/")
	assert.False(t, refreshed, "login failures never trigger a refresh")
}

func TestLogin_BackendDown(t *testing.T) {
	r := execute(t, nil, auth.NewMemoryStore(models.TokenPair{}), "login", "--email", "jane@example.com", "--password", "x")

	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.errOut, "Cannot connect to server.")
}

func TestWhoami_SessionExpired(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"GET /users/me/":            reply(http.StatusUnauthorized, `{"detail":"Given token not valid for any token type","code":"token_not_valid"}`),
		"POST /auth/token/refresh/": reply(http.StatusUnauthorized, `{"detail":"Token is invalid or expired"}`),
	})
	tokens := auth.NewMemoryStore(models.TokenPair{Access: "stale", Refresh: "dead"})

	r := execute(t, b, tokens, "whoami")

	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.errOut, SessionExpiredMessage)
	assert.Contains(t, r.errOut, "not signed in")

	stored, err := tokens.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.TokenPair{}, stored)
}

func TestWhoami_JSON(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"GET /users/me/": reply(http.StatusOK, approvedUser),
	})

	r := execute(t, b, nil, "--json", "whoami")

	require.Equal(t, 0, r.code, r.errOut)
	var got whoami
	require.NoError(t, json.Unmarshal([]byte(r.out), &got))
	require.NotNil(t, got.User)
	assert.Equal(t, "Jane Doe", got.User.FullName())
	assert.Nil(t, got.TokenExpires, "opaque test token has no readable expiry")
}

// ==========================
// Financing Commands
// ==========================

func TestFinancingCalc(t *testing.T) {
	r := execute(t, nil, nil, "financing", "calc", "10000", "12")

	require.Equal(t, 0, r.code, r.errOut)
	assert.Contains(t, r.out, "400.00 (4%)")
	assert.Contains(t, r.out, "833.33")
	assert.Contains(t, r.out, "10400.00")
}

func TestFinancingCalc_InvalidInput(t *testing.T) {
	r := execute(t, nil, nil, "financing", "calc", "lots", "12")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.errOut, `invalid amount "lots"`)

	r = execute(t, nil, nil, "financing", "calc", "1000", "0")
	assert.Equal(t, 1, r.code)
}

func TestFinancingList_ShowsNextStep(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"GET /users/me/":  reply(http.StatusOK, approvedUser),
		"GET /financing/": reply(http.StatusOK, `[{"id":"f1","application_number":"NDF-1","status":"pending_signature","bronova_amount":"10000.00","repayment_period_months":12}]`),
	})

	r := execute(t, b, nil, "financing", "list")

	require.Equal(t, 0, r.code, r.errOut)
	assert.Contains(t, r.out, "Pending Signature")
	assert.Contains(t, r.out, "Sign Contract")
	assert.NotContains(t, r.out, "KYC")
}

func TestFinancingReturn_Cancelled(t *testing.T) {
	r := execute(t, nil, nil, "financing", "return", "http://localhost:3000/dashboard/financing?cancelled=true")

	require.Equal(t, 0, r.code, r.errOut)
	assert.Contains(t, r.out, "Payment was cancelled. You can try again at any time.")
}

func TestFinancingPayFee_MockBlockedInProduction(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{})
	var out, errOut bytes.Buffer
	cfg := testConfig(b.srv.URL)
	cfg.App.Environment = "production"
	cfg.Financing.MockPaymentsEnabled = true

	code := Execute(context.Background(), []string{"financing", "pay-fee", "f1", "--method", "mock"}, Options{
		Config: cfg,
		Tokens: auth.NewMemoryStore(models.TokenPair{Access: "a"}),
		Out:    &out,
		Err:    &errOut,
	})

	assert.Equal(t, 1, code)
	_, called := b.find("POST /financing/f1/mock-pay-fee/")
	assert.False(t, called)
}

func TestReturnQuery(t *testing.T) {
	q, err := returnQuery("http://localhost:3000/dashboard/financing?fee_paid=true")
	require.NoError(t, err)
	assert.Equal(t, "true", q.Get("fee_paid"))

	q, err = returnQuery("cancelled=true")
	require.NoError(t, err)
	assert.Equal(t, "true", q.Get("cancelled"))
}

// ==========================
// Signature Commands
// ==========================

func TestSignaturesSign_LastDocumentLeadsToFee(t *testing.T) {
	var (
		mu     sync.Mutex
		signed bool
	)
	b := newBackend(t, map[string]http.HandlerFunc{
		"GET /signatures/pending/": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			if signed {
				reply(http.StatusOK, `[]`)(w, r)
				return
			}
			reply(http.StatusOK, `[{"id":"s1","document_id":"d1","document_title":"Financing Agreement","status":"pending"}]`)(w, r)
		},
		"POST /signatures/s1/sign/": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			signed = true
			mu.Unlock()
			reply(http.StatusOK, `{"message":"signed"}`)(w, r)
		},
		"GET /financing/": reply(http.StatusOK, `[{"id":"f1","application_number":"NDF-1","status":"pending_fee","fee_amount":"400.00"}]`),
	})

	r := execute(t, b, nil, "signatures", "sign", "s1", "--name", "  Jane Doe ", "--consent")

	require.Equal(t, 0, r.code, r.errOut)
	assert.Contains(t, r.out, "Document signed successfully!")
	assert.Contains(t, r.out, "All documents signed!")
	assert.Contains(t, r.out, "nova financing pay-fee f1")

	sign, ok := b.find("POST /signatures/s1/sign/")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", sign.body["signature_text"])
	assert.Equal(t, signing.ConsentText, sign.body["consent_text"])
}

func TestSignaturesSign_RequiresConsent(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"GET /signatures/pending/": reply(http.StatusOK, `[{"id":"s1","status":"pending"}]`),
	})

	r := execute(t, b, nil, "signatures", "sign", "s1", "--name", "Jane Doe")

	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.errOut, "Please confirm the consent checkbox")
	_, called := b.find("POST /signatures/s1/sign/")
	assert.False(t, called)
}

// ==========================
// Payment Commands
// ==========================

func TestPaymentsPay_CardPicksNextInstallment(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"GET /financing/f1/installments/": reply(http.StatusOK, `[
			{"id":"i1","installment_number":1,"amount":"833.34","paid_amount":"833.34","status":"paid"},
			{"id":"i2","installment_number":2,"amount":"833.33","paid_amount":"0","status":"due"}
		]`),
		"POST /payments/stripe/checkout/": reply(http.StatusOK, `{"session_id":"cs_1","session_url":"https://checkout.stripe.com/c/cs_1"}`),
	})

	r := execute(t, b, nil, "payments", "pay", "f1")

	require.Equal(t, 0, r.code, r.errOut)
	assert.Contains(t, r.out, "https://checkout.stripe.com/c/cs_1")

	checkout, ok := b.find("POST /payments/stripe/checkout/")
	require.True(t, ok)
	assert.Equal(t, "i2", checkout.body["installment_id"])
	assert.Equal(t, "installment", checkout.body["payment_type"])
	assert.Equal(t, "833.33", checkout.body["amount"])
	assert.Equal(t, "http://localhost:3000/dashboard/financing?success=true", checkout.body["success_url"])
}

func TestPickInstallment(t *testing.T) {
	d := decimal.RequireFromString
	insts := []models.Installment{
		{ID: "i1", InstallmentNumber: 1, Amount: d("100"), PaidAmount: d("100")},
		{ID: "i2", InstallmentNumber: 2, Amount: d("100")},
	}

	next, err := pickInstallment(insts, 0)
	require.NoError(t, err)
	assert.Equal(t, "i2", next.ID)

	first, err := pickInstallment(insts, 1)
	require.NoError(t, err)
	assert.Equal(t, "i1", first.ID)

	_, err = pickInstallment(insts, 7)
	assert.Error(t, err)

	_, err = pickInstallment(insts[:1], 0)
	assert.EqualError(t, err, "nothing left to pay")
}

// ==========================
// Notifications and Requests
// ==========================

func TestNotificationsCount(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"GET /notifications/unread-count/": reply(http.StatusOK, `{"count":3}`),
	})

	r := execute(t, b, nil, "notifications", "count")

	require.Equal(t, 0, r.code, r.errOut)
	assert.Equal(t, "3\n", r.out)
}

func TestRequestsCreate_RejectsUnknownType(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{})

	r := execute(t, b, nil, "requests", "create", "--type", "refund", "--subject", "Money back", "--description", "Please")

	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.errOut, "service request")
	_, called := b.find("POST /requests/")
	assert.False(t, called)
}
