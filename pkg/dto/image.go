package dto

import "github.com/google/uuid"

// ImageContentURL is the API path that redirects to the stored original.
func ImageContentURL(eventID, imageID uuid.UUID) string {
	return "/v1/images/" + eventID.String() + "/" + imageID.String() + "/content"
}

// ImageThumbnailURL is the API path that redirects to the stored thumbnail.
func ImageThumbnailURL(eventID, imageID uuid.UUID) string {
	return ImageContentURL(eventID, imageID) + "?thumb=true"
}

type ImageResponse struct {
	ID           uuid.UUID `json:"id"`
	EventID      uuid.UUID `json:"event_id"`
	Filename     string    `json:"filename"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	UploadedBy   uuid.UUID `json:"uploaded_by"`
	ConsentGiven bool      `json:"consent_given"`
	FileSize     int64     `json:"file_size"`
	ContentType  string    `json:"content_type"`
	CapturedAt   *string   `json:"captured_at,omitempty"`
	Timestamp    string    `json:"timestamp"`
	ContentURL   string    `json:"content_url"`
}

type ImageListResponse struct {
	Images []ImageResponse `json:"images"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

type UploadResponse struct {
	Message string        `json:"message"`
	Image   ImageResponse `json:"image"`
}
