package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/photohub/internal/auth"
	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/pkg/dto"
)

type StatsSource interface {
	StatsSummary(ctx context.Context) (*models.StatsSummary, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

// DashboardCache stores rendered dashboards. Get returns nil on a miss.
type DashboardCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type StatsHandler struct {
	source StatsSource
	cache  DashboardCache
	ttl    time.Duration
}

// NewStatsHandler builds the handler. cache may be nil to disable caching.
func NewStatsHandler(source StatsSource, cache DashboardCache, ttl time.Duration) *StatsHandler {
	return &StatsHandler{source: source, cache: cache, ttl: ttl}
}

func (h *StatsHandler) Summary(c *gin.Context) {
	st, err := h.source.StatsSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.StatsSummaryResponse{
		TotalUsers:       st.TotalUsers,
		TotalEvents:      st.TotalEvents,
		TotalImages:      st.TotalImages,
		TotalFaces:       st.TotalFaces,
		TotalStorage:     st.TotalStorage,
		TotalStorageMB:   math.Round(float64(st.TotalStorage)/(1024*1024)*100) / 100,
		RecentUploads24h: st.RecentUploads24h,
		RecentLogins24h:  st.RecentLogins24h,
		ConsentGiven:     st.ConsentGiven,
		ConsentNotGiven:  st.ConsentNotGiven,
	})
}

func dashboardKey(c *gin.Context) string {
	return "dashboard_" + auth.CurrentUser(c).ID.String()
}

// Dashboard serves the admin overview from cache when present. Cache errors
// fall through to the database.
func (h *StatsHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	key := dashboardKey(c)

	if h.cache != nil {
		cached, err := h.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("read dashboard cache", "key", key, "error", err)
		} else if cached != nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			return
		}
	}

	d, err := h.source.Dashboard(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body, err := json.Marshal(d)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, body, h.ttl); err != nil {
			slog.Warn("write dashboard cache", "key", key, "error", err)
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
