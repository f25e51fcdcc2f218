package messaging

import "github.com/nova-stream/eventpipe/internal/apperr"

// Error codes for messaging operations.
const (
	CodeConnectionFailed apperr.Code = "MESSAGING_CONN_FAILED"
	CodePublishFailed    apperr.Code = "MESSAGING_PUBLISH_FAILED"
	CodeClosed           apperr.Code = "MESSAGING_CLOSED"
)

// ErrConnectionFailed reports a broker dial failure.
func ErrConnectionFailed(err error) *apperr.AppError {
	return apperr.New(CodeConnectionFailed, "failed to connect to message broker", err)
}

// ErrPublishFailed reports a publish failure, retriable at the
// caller's discretion.
func ErrPublishFailed(err error) *apperr.AppError {
	return apperr.NewRetriable(CodePublishFailed, "failed to publish message", err)
}

// ErrClosed reports use of a broker after Close.
func ErrClosed(err error) *apperr.AppError {
	return apperr.New(CodeClosed, "broker connection is closed", err)
}
