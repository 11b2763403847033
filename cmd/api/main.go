package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/photohub/internal/api"
	"github.com/your-org/photohub/internal/api/ws"
	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/auth"
	"github.com/your-org/photohub/internal/config"
	"github.com/your-org/photohub/internal/embedding"
	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/internal/observability"
	"github.com/your-org/photohub/internal/queue"
	"github.com/your-org/photohub/internal/search"
	"github.com/your-org/photohub/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting photohub API service", "port", cfg.Server.Port)

	if cfg.Server.JWTSecret == "" {
		slog.Error("jwt secret is not configured")
		os.Exit(1)
	}

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("migrate schema", "error", err)
		os.Exit(1)
	}

	if err := ensureAdmin(context.Background(), db, cfg.Server); err != nil {
		slog.Error("bootstrap admin", "error", err)
		os.Exit(1)
	}

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()
	producer.SetAlertSubject(cfg.Alerts.Subject)

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// Redis only backs the dashboard cache; run without it if unreachable.
	cache, err := storage.NewCache(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, dashboard cache disabled", "error", err)
	} else {
		defer cache.Close()
	}

	notifier, closeNotifier, err := queue.NewAlertNotifier(cfg.Alerts.Transport, cfg.Kafka, producer)
	if err != nil {
		slog.Error("set up alert transport", "transport", cfg.Alerts.Transport, "error", err)
		os.Exit(1)
	}
	defer closeNotifier()

	// WebSocket hub for the live audit feed
	hub := ws.NewHub()
	go hub.Run()

	recorder := audit.NewRecorder(db, notifier, hub, cfg.Alerts.Timeout)

	pipeline := search.NewPipeline(db, embedding.NewClient(cfg.Embedding), db, recorder, search.Options{
		DefaultThreshold: cfg.Search.DefaultThreshold,
		MaxResults:       cfg.Search.MaxResults,
		NotifyOnSuccess:  cfg.Search.NotifyOnSuccess,
	})

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		MinIO:          minioStore,
		Cache:          cache,
		Producer:       producer,
		Hub:            hub,
		Tokens:         auth.NewTokenManager(cfg.Server.JWTSecret, cfg.Server.TokenTTL),
		Recorder:       recorder,
		Search:         pipeline,
		DashboardTTL:   cfg.Redis.DashboardTTL,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}

func ensureAdmin(ctx context.Context, db *storage.PostgresStore, cfg config.ServerConfig) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	existing, err := db.GetUserByUsername(ctx, cfg.AdminUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	if _, err := db.CreateUser(ctx, cfg.AdminUsername, hash, models.RoleAdmin); err != nil {
		return err
	}
	slog.Info("created bootstrap admin", "username", cfg.AdminUsername)
	return nil
}
