package models

import (
	"time"

	"github.com/google/uuid"
)

type Image struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	EventID      uuid.UUID  `json:"event_id" db:"event_id"`
	Filename     string     `json:"filename" db:"filename"` // MinIO object key
	ThumbnailURL *string    `json:"thumbnail_url" db:"thumbnail_url"`
	UploadedBy   uuid.UUID  `json:"uploaded_by" db:"uploaded_by"`
	ConsentGiven bool       `json:"consent_given" db:"consent_given"`
	FileSize     int64      `json:"file_size" db:"file_size"`
	ContentType  string     `json:"content_type" db:"content_type"`
	CapturedAt   *time.Time `json:"captured_at,omitempty" db:"captured_at"`
	Timestamp    time.Time  `json:"timestamp" db:"timestamp"`
}

// FaceEmbedding is one detected face of an image. Written by the indexer only.
type FaceEmbedding struct {
	ID        uuid.UUID `json:"face_id" db:"face_id"`
	ImageID   uuid.UUID `json:"image_id" db:"image_id"`
	EventID   uuid.UUID `json:"event_id" db:"event_id"`
	Embedding []float32 `json:"-" db:"embedding"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FaceMatch is one row of a similarity query: the owning image, the matched
// face and its similarity (1 - cosine distance).
type FaceMatch struct {
	ImageID      uuid.UUID
	Filename     string
	ThumbnailURL *string
	UploadedBy   uuid.UUID
	Timestamp    time.Time
	FaceID       uuid.UUID
	Similarity   float64
}
