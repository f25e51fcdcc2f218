// Package codec decodes raw stream payloads into event.Event values
// and enforces their shape invariants, per the wire format's single
// "data" field holding a JSON-serialized event.
package codec

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nova-stream/eventpipe/internal/event"
	"github.com/nova-stream/eventpipe/internal/pipeline"
)

type wireEvent struct {
	EventID    string                 `json:"event_id"`
	EventType  string                 `json:"event_type"`
	UserID     string                 `json:"user_id"`
	Timestamp  string                 `json:"timestamp"`
	Properties map[string]interface{} `json:"properties"`
}

// Decode parses data into an Event, enforcing the shape invariants: a
// parseable 128-bit event_id, a known event_type, a parseable
// timestamp, and properties that decode into an object (never a scalar
// or array). Extra top-level fields are ignored.
func Decode(data []byte) (event.Event, error) {
	var raw wireEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return event.Event{}, pipeline.DecodeError("malformed event payload", err)
	}

	eventID, err := uuid.Parse(raw.EventID)
	if err != nil {
		return event.Event{}, pipeline.DecodeError("event_id is not a valid identifier", err)
	}

	eventType := event.Type(raw.EventType)
	if !eventType.Valid() {
		return event.Event{}, pipeline.DecodeError("event_type is not recognized: "+raw.EventType, nil)
	}

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return event.Event{}, pipeline.DecodeError("timestamp could not be parsed", err)
	}
	ts = ts.UTC()

	properties := raw.Properties
	if properties == nil {
		properties = map[string]interface{}{}
	}

	return event.Event{
		EventID:    eventID,
		EventType:  eventType,
		UserID:     raw.UserID,
		Timestamp:  ts,
		Properties: properties,
	}, nil
}

// naiveTimestampLayouts are the offset-less layouts the source system
// actually emits: its model strips tzinfo before serializing, so "Z"
// or a numeric offset is never present on the wire even though the
// value is UTC.
var naiveTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts both zoned (RFC3339) and naive ISO-8601
// timestamps, treating naive values as already UTC.
func parseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	var firstErr error
	for _, layout := range naiveTimestampLayouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// DecodeRaw attempts a best-effort decode into a generic map, used to
// preserve the original payload for a FailedEvent when full Decode
// fails before producing a structured Event.
func DecodeRaw(data []byte) map[string]interface{} {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[string]interface{}{"raw": string(data)}
	}
	return raw
}
