// Package store defines the Store Adapter contract the persistence
// stage depends on: a narrow interface here, a concrete GORM-backed
// adapter in a sub-package.
package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/nova-stream/eventpipe/internal/event"
)

// Store is the contract the persistence stage uses to check for a
// duplicate event_id and to write processed or dead-lettered events.
type Store interface {
	// ExistsProcessed reports whether a ProcessedEvent row already
	// exists for eventID. Used as the dedupe gate before validation and
	// enrichment run.
	ExistsProcessed(ctx context.Context, eventID uuid.UUID) (bool, error)

	// InsertProcessed persists pe. A unique-constraint violation on
	// event_id is reported back as a pipeline.DuplicateKeyError, which
	// the caller treats as success rather than failure.
	InsertProcessed(ctx context.Context, pe *event.ProcessedEvent) error

	// InsertDeadLetter persists fe to the dead-letter table.
	InsertDeadLetter(ctx context.Context, fe *event.FailedEvent) error

	// Healthy reports whether the store connection is usable.
	Healthy(ctx context.Context) bool

	// Close releases the underlying connection.
	Close() error
}
