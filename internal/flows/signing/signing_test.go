package signing

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	commonerrors "nova-client/internal/common/errors"
	"nova-client/internal/common/logger"
	"nova-client/internal/common/observability"
	"nova-client/internal/flows/financing"
	"nova-client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) PendingSignatures(ctx context.Context) ([]models.SignatureRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SignatureRequest), args.Error(1)
}

func (m *MockAPI) Sign(ctx context.Context, id string, req models.SignRequest) error {
	return m.Called(ctx, id, req).Error(0)
}

func (m *MockAPI) DownloadDocument(ctx context.Context, id string) (*models.DocumentContent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DocumentContent), args.Error(1)
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

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newFlow(t *testing.T) (*Flow, *MockAPI, *recordingNotifier) {
	api := new(MockAPI)
	n := &recordingNotifier{}
	f := NewFlow(api, n, logger.NewTestLogger(t), observability.NewNoop())
	f.now = func() time.Time { return now }
	return f, api, n
}

func request(id string, status models.SignatureStatus, expiresIn time.Duration) models.SignatureRequest {
	exp := now.Add(expiresIn)
	return models.SignatureRequest{ID: id, DocumentID: "doc-" + id, Status: status, ExpiresAt: &exp}
}

func validForm() SignForm {
	return SignForm{SignatureText: "  Jane Doe ", Consent: true}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		req  models.SignatureRequest
		want State
	}{
		{"pending in future", request("s1", models.SignaturePending, time.Hour), StatePending},
		{"pending but past expiry", request("s1", models.SignaturePending, -time.Minute), StateExpired},
		{"pending without expiry", models.SignatureRequest{Status: models.SignaturePending}, StatePending},
		{"signed", request("s1", models.SignatureSigned, -time.Hour), StateSigned},
		{"server expired", request("s1", models.SignatureExpired, time.Hour), StateExpired},
		{"rejected", request("s1", models.SignatureRejected, time.Hour), StateRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.req, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == StatePending, Item{Request: tt.req, State: got}.Actionable())
		})
	}
}

func TestSignForm_CanSubmit(t *testing.T) {
	assert.True(t, validForm().CanSubmit())
	assert.False(t, SignForm{SignatureText: "   ", Consent: true}.CanSubmit())
	assert.False(t, SignForm{SignatureText: "Jane Doe"}.CanSubmit())
}

func TestSign_LastDocumentRedirectsToFee(t *testing.T) {
	f, api, n := newFlow(t)
	ctx := context.Background()
	api.On("PendingSignatures", mock.Anything).Return([]models.SignatureRequest{request("s1", models.SignaturePending, time.Hour)}, nil).Once()
	_, err := f.Load(ctx)
	require.NoError(t, err)

	api.On("Sign", mock.Anything, "s1", models.SignRequest{SignatureText: "Jane Doe", ConsentText: ConsentText}).Return(nil).Once()
	api.On("PendingSignatures", mock.Anything).Return([]models.SignatureRequest{}, nil).Once()

	out, err := f.Sign(ctx, "s1", validForm())
	require.NoError(t, err)
	require.NotNil(t, out.Redirect)
	assert.Equal(t, PayFeePath, out.Redirect.Path)
	assert.Equal(t, financing.IntentPayFee, out.Redirect.Intent.Kind)
	assert.False(t, out.Redirect.Intent.Consumed())
	assert.Contains(t, n.messages, "success: All documents signed! Redirecting to pay processing fee...")
	api.AssertExpectations(t)
}

func TestSign_RemainingDocumentsStay(t *testing.T) {
	f, api, n := newFlow(t)
	api.On("Sign", mock.Anything, "s1", mock.Anything).Return(nil).Once()
	api.On("PendingSignatures", mock.Anything).Return([]models.SignatureRequest{
		request("s2", models.SignaturePending, time.Hour),
		request("s3", models.SignaturePending, time.Hour),
	}, nil).Once()

	out, err := f.Sign(context.Background(), "s1", validForm())
	require.NoError(t, err)
	assert.Nil(t, out.Redirect)
	assert.Equal(t, 2, out.Remaining)
	assert.True(t, out.Reloaded)
	assert.Contains(t, n.messages, "info: 2 more document(s) to sign")
}

func TestSign_ReloadFailureStillSucceeds(t *testing.T) {
	f, api, n := newFlow(t)
	api.On("Sign", mock.Anything, "s1", mock.Anything).Return(nil).Once()
	api.On("PendingSignatures", mock.Anything).Return(nil, commonerrors.NewNetworkError(errors.New("connection reset"))).Once()

	out, err := f.Sign(context.Background(), "s1", validForm())
	require.NoError(t, err, "the signature itself went through")
	assert.False(t, out.Reloaded)
	assert.Zero(t, out.Remaining)
	assert.Nil(t, out.Redirect)
	assert.Contains(t, n.messages, "success: Document signed successfully!")
	api.AssertExpectations(t)
}

func TestSign_ClientChecksSkipTheServer(t *testing.T) {
	tests := []struct {
		name     string
		form     SignForm
		wantCode commonerrors.ErrorCode
		wantMsg  string
	}{
		{"blank name", SignForm{SignatureText: " ", Consent: true}, commonerrors.ErrCodeValidationFailed, "error: Please type your full name as signature"},
		{"no consent", SignForm{SignatureText: "Jane Doe"}, commonerrors.ErrCodeValidationFailed, "error: Please confirm the consent checkbox"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, api, n := newFlow(t)
			_, err := f.Sign(context.Background(), "s1", tt.form)
			assert.True(t, commonerrors.HasCode(err, tt.wantCode))
			assert.Equal(t, []string{tt.wantMsg}, n.messages)
			api.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSign_ExpiredRequestIsNotSignable(t *testing.T) {
	f, api, _ := newFlow(t)
	api.On("PendingSignatures", mock.Anything).Return([]models.SignatureRequest{request("s1", models.SignaturePending, -time.Second)}, nil).Once()
	items, err := f.Load(context.Background())
	require.NoError(t, err)
	require.False(t, items[0].Actionable())

	_, err = f.Sign(context.Background(), "s1", validForm())
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeSignatureExpired))
	api.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything, mock.Anything)
}

func TestSign_ServerRejection(t *testing.T) {
	f, api, n := newFlow(t)
	api.On("Sign", mock.Anything, "s1", mock.Anything).
		Return(commonerrors.FromResponse(http.StatusBadRequest, []byte(`{"error":"Signature request has expired."}`))).Once()

	_, err := f.Sign(context.Background(), "s1", validForm())
	require.Error(t, err)
	assert.Equal(t, []string{"error: Signature request has expired."}, n.messages)
	api.AssertNotCalled(t, "PendingSignatures", mock.Anything)
}

func TestViewContract(t *testing.T) {
	f, api, _ := newFlow(t)
	payload := []byte("%PDF-1.4 test")
	api.On("DownloadDocument", mock.Anything, "doc-1").Return(&models.DocumentContent{
		Data:        base64.StdEncoding.EncodeToString(payload),
		ContentType: "application/pdf",
		Filename:    "../agreement.pdf",
	}, nil).Once()
	api.On("DownloadDocument", mock.Anything, "doc-2").Return(&models.DocumentContent{Data: "!!!"}, nil).Once()

	dir := t.TempDir()
	path, err := f.ViewContract(context.Background(), "doc-1", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "agreement.pdf"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = f.ViewContract(context.Background(), "doc-2", dir)
	assert.Error(t, err)
}
