package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/photohub/internal/api/handlers"
	"github.com/your-org/photohub/internal/api/ws"
	"github.com/your-org/photohub/internal/auth"
	"github.com/your-org/photohub/internal/queue"
	"github.com/your-org/photohub/internal/storage"
)

type RouterConfig struct {
	DB       *storage.PostgresStore
	MinIO    *storage.MinIOStore
	Cache    *storage.Cache // optional
	Producer *queue.Producer
	Hub      *ws.Hub
	Tokens   *auth.TokenManager
	Recorder handlers.Recorder
	Search   handlers.Searcher

	DashboardTTL   time.Duration
	MaxUploadBytes int64
}

// BodyLimit caps request bodies so oversized uploads fail while parsing.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())
	r.Use(BodyLimit(cfg.MaxUploadBytes))
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	// System endpoints (no auth)
	checks := map[string]handlers.Pinger{
		"postgres": cfg.DB,
		"minio":    cfg.MinIO,
		"nats":     handlers.PingFunc(func(context.Context) error { return cfg.Producer.Ping() }),
	}
	var dashCache handlers.DashboardCache
	if cfg.Cache != nil {
		checks["redis"] = cfg.Cache
		dashCache = cfg.Cache
	}
	systemH := handlers.NewSystemHandler(checks)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := handlers.NewAuthHandler(cfg.DB, cfg.Tokens, cfg.Recorder)
	r.POST("/v1/login", authH.Login)

	// API v1 (bearer token)
	v1 := r.Group("/v1")
	v1.Use(auth.BearerMiddleware(cfg.Tokens, cfg.DB))

	searchH := handlers.NewSearchHandler(cfg.Search)
	v1.POST("/search_face", searchH.SearchFace)

	imageH := handlers.NewImageHandler(cfg.DB, cfg.MinIO, cfg.Producer, cfg.Recorder)
	v1.POST("/upload", imageH.Upload)
	v1.GET("/images/:event/:image", imageH.Get)
	v1.GET("/images/:event/:image/content", imageH.Content)

	// Admin only
	admin := v1.Group("")
	admin.Use(auth.RequireAdmin())

	userH := handlers.NewUserHandler(cfg.DB, cfg.Recorder)
	admin.GET("/users", userH.List)
	admin.POST("/users", userH.Create)
	admin.PUT("/users/:id/role", userH.UpdateRole)
	admin.DELETE("/users/:id", userH.Delete)

	eventH := handlers.NewEventHandler(cfg.DB, cfg.MinIO, cfg.Recorder)
	admin.GET("/events", eventH.List)
	admin.POST("/events", eventH.Create)
	admin.DELETE("/events/:id", eventH.Delete)

	admin.GET("/images", imageH.List)
	admin.DELETE("/images/:event/:image", imageH.Delete)

	logH := handlers.NewLogHandler(cfg.DB)
	admin.GET("/logs", logH.List)
	admin.GET("/logs/actions", logH.Actions)
	admin.GET("/ws/logs", cfg.Hub.HandleWS)

	statsH := handlers.NewStatsHandler(cfg.DB, dashCache, cfg.DashboardTTL)
	admin.GET("/stats/summary", statsH.Summary)
	admin.GET("/admin/dashboard", statsH.Dashboard)

	return r
}
