package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/auth"
)

// Recorder writes audit entries.
type Recorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parsePage reads page (>= 1) and limit (1..100) query parameters. It writes
// a 400 response and returns ok=false on invalid input.
func parsePage(c *gin.Context) (page, limit int, ok bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return 0, 0, false
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 || limit > maxPageLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return 0, 0, false
	}
	return page, limit, true
}

// callerID returns the authenticated user's id, or nil.
func callerID(c *gin.Context) *uuid.UUID {
	if u := auth.CurrentUser(c); u != nil {
		id := u.ID
		return &id
	}
	return nil
}

// record writes an audit entry. The action already happened, so a failed
// write is only logged.
func record(c *gin.Context, r Recorder, e audit.Entry) {
	if err := r.Record(c.Request.Context(), e); err != nil {
		slog.Error("record audit entry", "action", e.Action, "error", err)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseDate accepts RFC3339 timestamps or plain dates (YYYY-MM-DD).
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
