package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// jsonMap adapts map[string]interface{} to a jsonb column via a GORM
// Valuer/Scanner pair.
type jsonMap map[string]interface{}

func (m jsonMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(map[string]interface{}(m))
}

func (m *jsonMap) Scan(src interface{}) error {
	if src == nil {
		*m = jsonMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("postgres: cannot scan %T into jsonMap", src)
	}
	out := jsonMap{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*m = out
	return nil
}

// dbProcessedEvent is the GORM row model backing the processed_events
// table. It exists separately from event.ProcessedEvent so the domain
// type stays free of storage concerns.
type dbProcessedEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	EventType    string    `gorm:"not null"`
	UserID       string
	Timestamp    time.Time `gorm:"not null"`
	Properties   jsonMap   `gorm:"type:jsonb"`
	ProcessedAt  time.Time `gorm:"not null"`
	Status       string    `gorm:"not null"`
	EnrichedData jsonMap   `gorm:"type:jsonb"`
	RetryCount   int       `gorm:"not null;default:0"`
}

func (dbProcessedEvent) TableName() string { return "processed_events" }

// dbFailedEvent is the GORM row model backing the dead-letter table.
type dbFailedEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Payload      jsonMap   `gorm:"type:jsonb"`
	ErrorMessage string    `gorm:"not null"`
	FailedAt     time.Time `gorm:"not null"`
	RetryCount   int       `gorm:"not null;default:0"`
}

func (dbFailedEvent) TableName() string { return "failed_events" }
