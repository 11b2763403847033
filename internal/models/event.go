package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a photographed occasion; it scopes image uploads and face searches.
type Event struct {
	ID                uuid.UUID `json:"event_id" db:"event_id"`
	Name              string    `json:"name" db:"name"`
	CreatedBy         uuid.UUID `json:"created_by" db:"created_by"`
	CreatedByUsername string    `json:"created_by_username,omitempty" db:"-"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// IndexTask is the message published to NATS for the face indexer.
type IndexTask struct {
	ImageID     uuid.UUID `json:"image_id"`
	EventID     uuid.UUID `json:"event_id"`
	ObjectKey   string    `json:"object_key"` // MinIO object key
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
}
