package dto

import (
	"time"

	"github.com/google/uuid"
)

// SearchResult is one matched face in a face search response.
type SearchResult struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	UploadedBy   uuid.UUID `json:"uploaded_by"`
	Timestamp    time.Time `json:"timestamp"`
	FaceID       uuid.UUID `json:"face_id"`
	Similarity   float64   `json:"similarity"`
}

type SearchParams struct {
	EventID      uuid.UUID `json:"event_id"`
	Threshold    float64   `json:"threshold"`
	TotalMatches int       `json:"total_matches"`
}

type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	SearchParams SearchParams   `json:"search_params"`
}

// ErrorResponse is the failure body of the face search endpoint.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Reason string `json:"reason"`
	Param  string `json:"param,omitempty"`
}
