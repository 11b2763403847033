package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/internal/storage"
	"github.com/your-org/photohub/pkg/dto"
)

type LogHandler struct {
	db *storage.PostgresStore
}

func NewLogHandler(db *storage.PostgresStore) *LogHandler {
	return &LogHandler{db: db}
}

// parseLogFilter reads action, user_id, start_date, end_date and paging
// from the query string.
func parseLogFilter(c *gin.Context) (models.LogFilter, int, int, bool) {
	page, limit, ok := parsePage(c)
	if !ok {
		return models.LogFilter{}, 0, 0, false
	}

	f := models.LogFilter{
		Action: c.Query("action"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if v := c.Query("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return f, 0, 0, false
		}
		f.UserID = &id
	}
	if v := c.Query("start_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return f, 0, 0, false
		}
		f.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return f, 0, 0, false
		}
		f.EndDate = &t
	}
	return f, page, limit, true
}

func (h *LogHandler) List(c *gin.Context) {
	f, page, limit, ok := parseLogFilter(c)
	if !ok {
		return
	}

	logs, total, err := h.db.ListLogs(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.LogListResponse{
		Logs:  make([]dto.LogResponse, 0, len(logs)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, l := range logs {
		resp.Logs = append(resp.Logs, dto.LogResponse{
			ID:               l.ID,
			UserID:           l.UserID,
			Action:           l.Action,
			Details:          l.Details,
			Timestamp:        formatTime(l.Timestamp),
			NotificationSent: l.NotificationSent,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LogHandler) Actions(c *gin.Context) {
	actions, err := h.db.ListLogActions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if actions == nil {
		actions = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}
