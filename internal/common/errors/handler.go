package errors

import (
	"time"
)

// Notifier receives the user-facing outcome of an action. The CLI prints
// these; tests record them.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler reports failed actions: it logs the structured error and
// surfaces a non-blocking message through the Notifier. It never retries.
type ErrorHandler struct {
	logger   Logger
	notifier Notifier
}

func NewErrorHandler(logger Logger, notifier Notifier) *ErrorHandler {
	return &ErrorHandler{logger: logger, notifier: notifier}
}

// Handle logs err for action and notifies the user with the server detail
// or fallback. It returns the message that was shown.
func (h *ErrorHandler) Handle(action string, err error, fallback string) string {
	stdErr := h.normalizeError(err)
	msg := UserMessage(stdErr, fallback)

	h.logger.Error("action failed", map[string]interface{}{
		"action":        action,
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"statusCode":    stdErr.StatusCode,
		"message":       stdErr.Message,
		"details":       stdErr.Details,
	})
	if h.notifier != nil {
		h.notifier.Error(msg)
	}
	return msg
}

func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}
