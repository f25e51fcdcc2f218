// Package postgres implements the store.Store contract over GORM:
// DSN-based connection setup, connection pool tuning, and wrapped dial
// errors.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nova-stream/eventpipe/internal/event"
	"github.com/nova-stream/eventpipe/internal/pipeline"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config configures the Postgres adapter's connection pool.
type Config struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Adapter implements store.Store over a GORM connection.
type Adapter struct {
	db *gorm.DB
}

// New dials Postgres and returns a ready-to-use Adapter.
func New(cfg Config) (*Adapter, error) {
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 20
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = 30 * time.Minute
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, pipeline.FatalStartupError("failed to connect to postgres", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, pipeline.FatalStartupError("failed to get underlying sql.DB", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Adapter{db: db}, nil
}

// ExistsProcessed reports whether a ProcessedEvent row already exists
// for eventID.
func (a *Adapter) ExistsProcessed(ctx context.Context, eventID uuid.UUID) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&dbProcessedEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, pipeline.TransientStoreError(err)
	}
	return count > 0, nil
}

// InsertProcessed persists pe. A unique-constraint violation on
// event_id is surfaced as pipeline.DuplicateKeyError so the caller can
// treat the race as success.
func (a *Adapter) InsertProcessed(ctx context.Context, pe *event.ProcessedEvent) error {
	row := dbProcessedEvent{
		ID:           pe.ID,
		EventID:      pe.EventID,
		EventType:    string(pe.EventType),
		UserID:       pe.UserID,
		Timestamp:    pe.Timestamp,
		Properties:   jsonMap(pe.Properties),
		ProcessedAt:  pe.ProcessedAt,
		Status:       string(pe.Status),
		EnrichedData: jsonMap(pe.EnrichedData),
		RetryCount:   pe.RetryCount,
	}

	err := a.db.WithContext(ctx).Create(&row).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pipeline.DuplicateKeyError(err)
	}
	return pipeline.TransientStoreError(err)
}

// InsertDeadLetter persists fe to the dead-letter table.
func (a *Adapter) InsertDeadLetter(ctx context.Context, fe *event.FailedEvent) error {
	row := dbFailedEvent{
		ID:           fe.ID,
		EventID:      fe.EventID,
		Payload:      jsonMap(fe.Payload),
		ErrorMessage: fe.ErrorMessage,
		FailedAt:     fe.FailedAt,
		RetryCount:   fe.RetryCount,
	}
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		return pipeline.TransientStoreError(err)
	}
	return nil
}

// Healthy pings the underlying connection pool.
func (a *Adapter) Healthy(ctx context.Context) bool {
	sqlDB, err := a.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

// Close releases all database connections.
func (a *Adapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return fmt.Errorf("postgres: get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
