package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is one row of the logs table. Only NotificationSent changes after insert.
type AuditLog struct {
	ID               uuid.UUID       `json:"log_id" db:"log_id"`
	UserID           *uuid.UUID      `json:"user_id" db:"user_id"`
	Action           string          `json:"action" db:"action"`
	Details          json.RawMessage `json:"details" db:"details"`
	Timestamp        time.Time       `json:"timestamp" db:"timestamp"`
	NotificationSent bool            `json:"notification_sent" db:"notification_sent"`
}

// Alert is the message published to the alert topic for notable audit entries.
type Alert struct {
	LogID     uuid.UUID       `json:"log_id"`
	UserID    *uuid.UUID      `json:"user_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details"`
	Timestamp time.Time       `json:"timestamp"`
	Subject   string          `json:"subject"`
}

// LogFilter narrows an audit log listing. Zero values mean "no filter".
type LogFilter struct {
	Action    string
	UserID    *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}
