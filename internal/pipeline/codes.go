// Package pipeline holds the error codes and outcome types shared by the
// codec, validator, enricher, processor and dispatcher. Centralizing the
// taxonomy here is what lets the Processor classify an outcome without
// string-matching error messages.
package pipeline

import "github.com/nova-stream/eventpipe/internal/apperr"

// Error codes for the pipeline's failure taxonomy. Only
// TransientEnrichment and TransientStore are retriable; everything else
// short-circuits straight to the dead-letter branch or, for Timeout,
// leaves the message unacknowledged for redelivery.
const (
	CodeDecode              apperr.Code = "DECODE_ERROR"
	CodeValidation          apperr.Code = "VALIDATION_ERROR"
	CodeTransientEnrichment apperr.Code = "TRANSIENT_ENRICHMENT_ERROR"
	CodeTransientStore      apperr.Code = "TRANSIENT_STORE_ERROR"
	CodeDuplicateKey        apperr.Code = "DUPLICATE_KEY"
	CodeTimeout             apperr.Code = "TIMEOUT"
	CodeFatalStartup        apperr.Code = "FATAL_STARTUP_ERROR"
)

// DecodeError reports a malformed stream payload. Non-retriable.
func DecodeError(message string, cause error) *apperr.AppError {
	return apperr.New(CodeDecode, message, cause)
}

// ValidationError reports a business-rule violation. Non-retriable.
func ValidationError(reason string) *apperr.AppError {
	return apperr.New(CodeValidation, reason, nil)
}

// TransientEnrichmentError reports an enrichment I/O failure, eligible
// for the retry combinator.
func TransientEnrichmentError(cause error) *apperr.AppError {
	return apperr.NewRetriable(CodeTransientEnrichment, "enrichment failed", cause)
}

// TransientStoreError reports a store unavailability, eligible for the
// retry combinator.
func TransientStoreError(cause error) *apperr.AppError {
	return apperr.NewRetriable(CodeTransientStore, "store operation failed", cause)
}

// DuplicateKeyError reports that a persist attempt raced another
// consumer that already inserted the same event_id. The Processor
// treats this as success, never as a failure.
func DuplicateKeyError(cause error) *apperr.AppError {
	return apperr.New(CodeDuplicateKey, "event_id already persisted", cause)
}

// TimeoutError reports that the per-event processing deadline elapsed.
func TimeoutError(cause error) *apperr.AppError {
	return apperr.New(CodeTimeout, "processing deadline exceeded", cause)
}

// FatalStartupError reports a failure that must abort worker startup:
// schema init, broker group attach, or signal registration.
func FatalStartupError(message string, cause error) *apperr.AppError {
	return apperr.New(CodeFatalStartup, message, cause)
}
