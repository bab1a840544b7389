// Package errors provides the structured error taxonomy used by the client.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNetwork          ErrorCode = "NETWORK_ERROR"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeSessionExpired   ErrorCode = "SESSION_EXPIRED"
	ErrCodeAPI              ErrorCode = "API_ERROR"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeDecode           ErrorCode = "DECODE_ERROR"
	ErrCodeConfig           ErrorCode = "CONFIG_ERROR"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"

	ErrCodeKYCNotApproved          ErrorCode = "KYC_NOT_APPROVED"
	ErrCodeAcknowledgementsMissing ErrorCode = "ACKNOWLEDGEMENTS_REQUIRED"
	ErrCodeSignatureExpired        ErrorCode = "SIGNATURE_EXPIRED"
	ErrCodeActionInProgress        ErrorCode = "ACTION_IN_PROGRESS"
	ErrCodeMockPaymentsDisabled    ErrorCode = "MOCK_PAYMENTS_DISABLED"
)

// MessageCannotReachServer is shown for transport-level failures.
const MessageCannotReachServer = "Cannot reach server. Please check your connection and try again."

// StandardError represents a structured application error.
type StandardError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"statusCode,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// NewNetworkError wraps a transport failure (DNS, refused connection, timeout).
func NewNetworkError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   "Failed to reach the API server",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSessionExpiredError reports that the refresh token could not renew the session.
func NewSessionExpiredError(err error) *StandardError {
	e := &StandardError{
		Code:       ErrCodeSessionExpired,
		Message:    "Session expired, please log in again",
		StatusCode: http.StatusUnauthorized,
		Timestamp:  time.Now().UTC(),
		cause:      err,
	}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

func NewDecodeError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecode,
		Message:   "Failed to decode server response",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewConfigError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfig,
		Message:   "Invalid configuration",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

func NewKYCNotApprovedError(kycStatus string) *StandardError {
	return &StandardError{
		Code:      ErrCodeKYCNotApproved,
		Message:   "KYC verification must be approved before applying for financing",
		Details:   fmt.Sprintf("kyc_status: %s", kycStatus),
		Timestamp: time.Now().UTC(),
	}
}

func NewAcknowledgementsRequiredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAcknowledgementsMissing,
		Message:   "All acknowledgements are required",
		Timestamp: time.Now().UTC(),
	}
}

func NewSignatureExpiredError(requestID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSignatureExpired,
		Message:   "Signature request has expired",
		Details:   fmt.Sprintf("requestId: %s", requestID),
		Timestamp: time.Now().UTC(),
	}
}

func NewActionInProgressError(action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActionInProgress,
		Message:   "Another action is already in progress",
		Details:   fmt.Sprintf("action: %s", action),
		Timestamp: time.Now().UTC(),
	}
}

func NewMockPaymentsDisabledError(environment string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMockPaymentsDisabled,
		Message:   "Mock payments are only available outside production",
		Details:   fmt.Sprintf("environment: %s", environment),
		Timestamp: time.Now().UTC(),
	}
}

// FromResponse builds an error from a non-2xx API response. The server's
// human-readable detail, when present, becomes Message.
func FromResponse(statusCode int, body []byte) *StandardError {
	code := ErrCodeAPI
	switch statusCode {
	case http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	case http.StatusNotFound:
		code = ErrCodeNotFound
	}

	e := &StandardError{
		Code:       code,
		Message:    http.StatusText(statusCode),
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
		Timestamp:  time.Now().UTC(),
	}
	if detail := ExtractDetail(body); detail != "" {
		e.Message = detail
		e.Metadata = map[string]interface{}{"serverDetail": true}
	} else if len(body) > 0 {
		e.Details = truncate(string(body), 512)
	}
	return e
}

// ExtractDetail pulls the message out of a DRF-style error body. It checks
// "detail", "error", "message", then the first field error or
// non_field_errors entry.
func ExtractDetail(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	parsed := gjson.ParseBytes(body)
	for _, key := range []string{"detail", "error", "message"} {
		if v := parsed.Get(key); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}

	var detail string
	if nfe := parsed.Get("non_field_errors.0"); nfe.Exists() {
		return nfe.String()
	}
	parsed.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.IsArray() && len(value.Array()) > 0:
			detail = fmt.Sprintf("%s: %s", key.String(), value.Array()[0].String())
		case value.Type == gjson.String:
			detail = fmt.Sprintf("%s: %s", key.String(), value.String())
		}
		return detail == ""
	})
	return detail
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ==========================
// Utility Functions
// ==========================

// As returns the StandardError in err's chain, if any.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

// IsNetworkError distinguishes transport failures from server rejections.
func IsNetworkError(err error) bool {
	return HasCode(err, ErrCodeNetwork)
}

// UserMessage picks the text shown to the user: the server-provided detail
// when available, a connectivity message for network failures, else fallback.
func UserMessage(err error, fallback string) string {
	stdErr, ok := As(err)
	if !ok {
		return fallback
	}
	switch stdErr.Code {
	case ErrCodeNetwork:
		return MessageCannotReachServer
	case ErrCodeSessionExpired:
		return stdErr.Message
	case ErrCodeInternal:
		return fallback
	}
	if stdErr.Metadata != nil && stdErr.Metadata["serverDetail"] == true {
		return stdErr.Message
	}
	if stdErr.StatusCode == 0 && stdErr.Code != ErrCodeAPI && stdErr.Code != ErrCodeDecode {
		// client-side rejections carry their own message
		return stdErr.Message
	}
	return fallback
}

// GetErrorCategory groups codes for logging.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeNetwork:
		return "network"
	case ErrCodeUnauthorized, ErrCodeSessionExpired:
		return "authentication"
	case ErrCodeValidationFailed, ErrCodeAcknowledgementsMissing, ErrCodeKYCNotApproved,
		ErrCodeSignatureExpired, ErrCodeActionInProgress, ErrCodeMockPaymentsDisabled:
		return "validation"
	case ErrCodeAPI, ErrCodeNotFound:
		return "business_rule"
	default:
		return "internal"
	}
}
