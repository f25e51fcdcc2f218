// Package event defines the wire and domain types shared by every stage
// of the ingestion pipeline: the raw Event decoded off the stream, the
// ProcessedEvent persisted on success, and the FailedEvent persisted on
// dead-letter.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type is a closed enum of the event shapes the pipeline understands.
// Modeled as a tagged variant rather than a bare string so that
// dispatch on it (validation, enrichment) cannot drift from the set of
// values the codec accepts.
type Type string

const (
	TypePurchase   Type = "purchase"
	TypeUserSignup Type = "user_signup"
	TypePageView   Type = "page_view"
	TypeCustom     Type = "custom"
)

// Valid reports whether t is one of the closed set of known event types.
func (t Type) Valid() bool {
	switch t {
	case TypePurchase, TypeUserSignup, TypePageView, TypeCustom:
		return true
	default:
		return false
	}
}

// Status is the lifecycle state of a ProcessedEvent row.
type Status string

const (
	StatusReceived   Status = "received"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusDeadLetter Status = "dead_letter"
)

// Event is the immutable, decoded record a producer submitted. The
// Processor owns one Event value for the lifetime of a single call and
// must not retain it past that call returns.
type Event struct {
	EventID    uuid.UUID              `json:"event_id"`
	EventType  Type                   `json:"event_type"`
	UserID     string                 `json:"user_id,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Properties map[string]interface{} `json:"properties"`
}

// ProcessedEvent is persisted exactly once per unique EventID. It is the
// idempotency anchor: a row's existence for a given EventID is what lets
// the dedupe gate short-circuit redelivered messages.
type ProcessedEvent struct {
	ID            uuid.UUID              `json:"id"`
	EventID       uuid.UUID              `json:"event_id"`
	EventType     Type                   `json:"event_type"`
	UserID        string                 `json:"user_id,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	Properties    map[string]interface{} `json:"properties"`
	ProcessedAt   time.Time              `json:"processed_at"`
	Status        Status                 `json:"status"`
	EnrichedData  map[string]interface{} `json:"enriched_data"`
	RetryCount    int                    `json:"retry_count"`
}

// FailedEvent is a dead-letter record. There is no uniqueness
// constraint on EventID: the same id may appear multiple times if it
// fails through multiple redeliveries.
type FailedEvent struct {
	ID           uuid.UUID              `json:"id"`
	EventID      uuid.UUID              `json:"event_id"`
	Payload      map[string]interface{} `json:"payload"`
	ErrorMessage string                 `json:"error_message"`
	FailedAt     time.Time              `json:"failed_at"`
	RetryCount   int                    `json:"retry_count"`
}

// StreamMessage is a broker-assigned envelope: an opaque, monotonic
// MessageID and a single Data field holding the serialized Event. The
// broker owns a StreamMessage until it is acknowledged.
type StreamMessage struct {
	MessageID string
	Data      []byte
}
