package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

type LogResponse struct {
	ID               uuid.UUID       `json:"log_id"`
	UserID           *uuid.UUID      `json:"user_id"`
	Action           string          `json:"action"`
	Details          json.RawMessage `json:"details"`
	Timestamp        string          `json:"timestamp"`
	NotificationSent bool            `json:"notification_sent"`
}

type LogListResponse struct {
	Logs  []LogResponse `json:"logs"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// WSLogMessage is pushed to audit feed WebSocket clients.
type WSLogMessage struct {
	Type string      `json:"type"` // audit_log
	Data LogResponse `json:"data"`
}
