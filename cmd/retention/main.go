package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/config"
	"github.com/your-org/photohub/internal/observability"
	"github.com/your-org/photohub/internal/queue"
	"github.com/your-org/photohub/internal/retention"
	"github.com/your-org/photohub/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting photohub retention sweeper",
		"days", cfg.Retention.Days,
		"interval", cfg.Retention.Interval.String(),
	)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}

	var producer *queue.Producer
	if cfg.Alerts.Transport == "nats" {
		producer, err = queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		producer.SetAlertSubject(cfg.Alerts.Subject)
	}

	notifier, closeNotifier, err := queue.NewAlertNotifier(cfg.Alerts.Transport, cfg.Kafka, producer)
	if err != nil {
		slog.Error("set up alert transport", "transport", cfg.Alerts.Transport, "error", err)
		os.Exit(1)
	}
	defer closeNotifier()

	recorder := audit.NewRecorder(db, notifier, nil, cfg.Alerts.Timeout)
	sweeper := retention.NewSweeper(db, minioStore, recorder, cfg.Retention.Days)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		deleted, err := sweeper.Sweep(ctx)
		if err != nil {
			slog.Error("retention sweep", "deleted", deleted, "error", err)
			os.Exit(1)
		}
		slog.Info("retention sweep done", "deleted", deleted)
		return
	}

	sweeper.Run(ctx, cfg.Retention.Interval)
	slog.Info("retention sweeper stopped")
}
