package dto

import "github.com/google/uuid"

type CreateEventRequest struct {
	Name string `json:"name" form:"name" binding:"required"`
}

type EventResponse struct {
	ID                uuid.UUID `json:"event_id"`
	Name              string    `json:"name"`
	CreatedBy         uuid.UUID `json:"created_by"`
	CreatedByUsername string    `json:"created_by_username,omitempty"`
	CreatedAt         string    `json:"created_at"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}
