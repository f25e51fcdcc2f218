// Package enrich attaches derived fields to a decoded event.Event. The
// enrichment call itself models an external dependency and is expected
// to run under the resilience package's retry combinator rather than
// retrying internally.
package enrich

import (
	"context"
	"time"

	"github.com/nova-stream/eventpipe/internal/event"
)

// Enricher attaches derived fields to events on behalf of a single
// worker identity.
type Enricher struct {
	WorkerID string

	// Lookup performs whatever external I/O enrichment requires (a
	// feature-store call, a geo lookup, and so on). Tests substitute a
	// fake that fails a configurable number of times before succeeding.
	// Nil is treated as a no-op.
	Lookup func(ctx context.Context, e event.Event) (map[string]interface{}, error)
}

// Enrich returns the derived field mapping for e. The caller is
// responsible for wrapping this call in the retry combinator; Enrich
// itself makes exactly one attempt.
func (en *Enricher) Enrich(ctx context.Context, e event.Event, now time.Time) (map[string]interface{}, error) {
	data := map[string]interface{}{
		"processed_by":         en.WorkerID,
		"processing_timestamp": now.UTC().Format(time.RFC3339),
	}

	switch e.EventType {
	case event.TypePurchase:
		amount, _ := e.Properties["amount"].(float64)
		if amount > 1000 {
			data["category"] = "high_value"
		} else {
			data["category"] = "standard"
		}
	case event.TypePageView:
		data["session_start"] = e.Timestamp.UTC().Format(time.RFC3339)
	}

	if en.Lookup != nil {
		extra, err := en.Lookup(ctx, e)
		if err != nil {
			return nil, err
		}
		for k, v := range extra {
			data[k] = v
		}
	}

	return data, nil
}
