// Package audit records user and system actions in the logs table and
// fans notable ones out as alerts.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/internal/observability"
)

const (
	ActionSearchFace        = "search_face"
	ActionSearchFaceFailed  = "search_face_failed"
	ActionNotificationError = "sns_notification_error"
	ActionLoginSuccess      = "login_success"
	ActionLoginFailed       = "login_failed"
	ActionCreateUser        = "create_user"
	ActionUpdateUserRole    = "update_user_role"
	ActionUpdateRoleFailed  = "update_user_role_failed"
	ActionDeleteUser        = "delete_user"
	ActionDeleteUserFailed  = "delete_user_failed"
	ActionCreateEvent       = "create_event"
	ActionDeleteEvent       = "delete_event"
	ActionListEvents        = "list_events"
	ActionUploadImage       = "upload_image"
	ActionDeleteImage       = "delete_image"
	ActionIndexImageFailed  = "index_image_failed"
	ActionRetention         = "cron_delete_old_data"
	ActionRetentionFailed   = "cron_delete_old_data_failed"
)

const alertSubjectPrefix = "Image System Alert: "

// Store persists audit rows.
type Store interface {
	InsertLog(ctx context.Context, entry *models.AuditLog) error
	MarkNotificationSent(ctx context.Context, logID uuid.UUID) error
}

// Notifier publishes alerts to an external topic.
type Notifier interface {
	PublishAlert(ctx context.Context, alert models.Alert) error
}

// Broadcaster receives every stored entry, e.g. for a live feed.
type Broadcaster interface {
	BroadcastLog(entry *models.AuditLog)
}

// Entry describes one action to record.
type Entry struct {
	UserID  *uuid.UUID
	Action  string
	Details map[string]any
	Notify  bool
}

type Recorder struct {
	store       Store
	notifier    Notifier
	broadcaster Broadcaster
	timeout     time.Duration
}

// NewRecorder builds a Recorder. notifier and broadcaster may be nil.
func NewRecorder(store Store, notifier Notifier, broadcaster Broadcaster, alertTimeout time.Duration) *Recorder {
	if alertTimeout <= 0 {
		alertTimeout = 5 * time.Second
	}
	return &Recorder{
		store:       store,
		notifier:    notifier,
		broadcaster: broadcaster,
		timeout:     alertTimeout,
	}
}

// Record writes the entry and, when e.Notify is set, attempts an alert.
// Only the durable write can fail the call; alert problems are logged and
// recorded as a separate sns_notification_error entry.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	entry, err := r.insert(ctx, e.UserID, e.Action, e.Details)
	if err != nil {
		return err
	}
	if e.Notify && r.notifier != nil {
		r.notify(ctx, entry)
	}
	return nil
}

func (r *Recorder) insert(ctx context.Context, userID *uuid.UUID, action string, details map[string]any) (*models.AuditLog, error) {
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal %s details: %w", action, err)
	}

	entry := &models.AuditLog{
		UserID:  userID,
		Action:  action,
		Details: raw,
	}
	if err := r.store.InsertLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("record %s: %w", action, err)
	}
	if r.broadcaster != nil {
		r.broadcaster.BroadcastLog(entry)
	}
	return entry, nil
}

func (r *Recorder) notify(ctx context.Context, entry *models.AuditLog) {
	pubCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	alert := models.Alert{
		LogID:     entry.ID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Details:   entry.Details,
		Timestamp: entry.Timestamp,
		Subject:   alertSubjectPrefix + entry.Action,
	}

	if err := r.notifier.PublishAlert(pubCtx, alert); err != nil {
		observability.AuditAlerts.WithLabelValues("failed").Inc()
		slog.Error("publish audit alert", "action", entry.Action, "log_id", entry.ID, "error", err)

		_, ierr := r.insert(ctx, entry.UserID, ActionNotificationError, map[string]any{
			"original_log_id": entry.ID.String(),
			"action":          entry.Action,
			"error":           err.Error(),
		})
		if ierr != nil {
			slog.Error("record notification error", "log_id", entry.ID, "error", ierr)
		}
		return
	}

	observability.AuditAlerts.WithLabelValues("sent").Inc()
	if err := r.store.MarkNotificationSent(ctx, entry.ID); err != nil {
		slog.Warn("mark notification sent", "log_id", entry.ID, "error", err)
		return
	}
	entry.NotificationSent = true
}
