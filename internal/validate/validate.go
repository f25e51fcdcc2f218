// Package validate applies per-event-type business rules to a decoded
// event.Event. Validation is pure: no I/O, no clock dependency beyond
// the "now" passed in by the caller.
package validate

import (
	"time"

	"github.com/nova-stream/eventpipe/internal/event"
	"github.com/nova-stream/eventpipe/internal/pipeline"
)

// Validate applies the business rules for e.EventType and returns a
// ValidationError describing the first rule violated, or nil.
func Validate(e event.Event, now time.Time) error {
	if e.Timestamp.After(now) {
		return pipeline.ValidationError("Event timestamp cannot be in the future")
	}

	switch e.EventType {
	case event.TypePurchase:
		return validatePurchase(e)
	case event.TypeUserSignup:
		return validateUserSignup(e)
	default:
		return nil
	}
}

func validatePurchase(e event.Event) error {
	raw, ok := e.Properties["amount"]
	if !ok {
		return pipeline.ValidationError("Purchase events must have an amount")
	}
	amount, ok := asNumber(raw)
	if !ok || amount <= 0 {
		return pipeline.ValidationError("Purchase amount must be positive")
	}
	return nil
}

func validateUserSignup(e event.Event) error {
	if e.UserID == "" {
		return pipeline.ValidationError("User signup events must have a user_id")
	}
	return nil
}

// asNumber extracts a float64 from a decoded JSON value, returning
// false if raw is not numeric.
func asNumber(raw interface{}) (float64, bool) {
	n, ok := raw.(float64)
	return n, ok
}
