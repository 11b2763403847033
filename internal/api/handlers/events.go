package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/auth"
	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/internal/storage"
	"github.com/your-org/photohub/pkg/dto"
)

type EventHandler struct {
	db       *storage.PostgresStore
	minio    *storage.MinIOStore
	recorder Recorder
}

func NewEventHandler(db *storage.PostgresStore, minio *storage.MinIOStore, recorder Recorder) *EventHandler {
	return &EventHandler{db: db, minio: minio, recorder: recorder}
}

func toEventResponse(e models.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:                e.ID,
		Name:              e.Name,
		CreatedBy:         e.CreatedBy,
		CreatedByUsername: e.CreatedByUsername,
		CreatedAt:         formatTime(e.CreatedAt),
	}
}

func (h *EventHandler) List(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))

	events, err := h.db.ListEvents(c.Request.Context(), search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.EventListResponse{Events: make([]dto.EventResponse, 0, len(events)), Total: len(events)}
	for _, e := range events {
		resp.Events = append(resp.Events, toEventResponse(e))
	}

	record(c, h.recorder, audit.Entry{
		UserID:  callerID(c),
		Action:  audit.ActionListEvents,
		Details: map[string]any{"search": search, "count": len(events)},
	})

	c.JSON(http.StatusOK, resp)
}

func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	event, err := h.db.CreateEvent(c.Request.Context(), req.Name, auth.CurrentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	record(c, h.recorder, audit.Entry{
		UserID:  callerID(c),
		Action:  audit.ActionCreateEvent,
		Details: map[string]any{"event_id": event.ID.String(), "name": event.Name},
		Notify:  true,
	})

	c.JSON(http.StatusCreated, toEventResponse(*event))
}

// Delete removes the event with its images and faces, then its objects.
func (h *EventHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.db.DeleteEvent(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	removed, err := h.minio.DeletePrefix(c.Request.Context(), storage.EventPrefix(id.String()))
	if err != nil {
		// Rows are gone; leftover objects are unreachable and only cost space.
		slog.Warn("delete event objects", "event_id", id, "error", err)
	}

	record(c, h.recorder, audit.Entry{
		UserID:  callerID(c),
		Action:  audit.ActionDeleteEvent,
		Details: map[string]any{"event_id": id.String(), "objects_deleted": removed},
		Notify:  true,
	})

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
