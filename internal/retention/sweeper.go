// Package retention deletes images older than the configured retention period.
package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/internal/observability"
	"github.com/your-org/photohub/internal/storage"
)

const batchSize = 100

type ImageStore interface {
	ListImagesBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Image, error)
	DeleteImage(ctx context.Context, eventID, imageID uuid.UUID) error
}

type ObjectStore interface {
	DeleteObjects(ctx context.Context, keys []string) error
}

type Recorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

type Sweeper struct {
	images   ImageStore
	objects  ObjectStore
	recorder Recorder
	days     int
	now      func() time.Time
}

func NewSweeper(images ImageStore, objects ObjectStore, recorder Recorder, days int) *Sweeper {
	return &Sweeper{
		images:   images,
		objects:  objects,
		recorder: recorder,
		days:     days,
		now:      time.Now,
	}
}

// Sweep deletes every image uploaded before the retention cutoff together
// with its objects and faces, and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().AddDate(0, 0, -s.days)
	deleted := 0

	for {
		batch, err := s.images.ListImagesBefore(ctx, cutoff, batchSize)
		if err != nil {
			return deleted, s.fail(ctx, cutoff, deleted, err)
		}
		if len(batch) == 0 {
			break
		}

		removed := 0
		for _, img := range batch {
			if err := s.deleteImage(ctx, img); err != nil {
				return deleted, s.fail(ctx, cutoff, deleted, err)
			}
			removed++
		}
		deleted += removed
		observability.RetentionDeleted.Add(float64(removed))

		if len(batch) < batchSize {
			break
		}
	}

	slog.Info("retention sweep finished", "deleted", deleted, "cutoff", cutoff)
	err := s.recorder.Record(ctx, audit.Entry{
		Action: audit.ActionRetention,
		Details: map[string]any{
			"deleted_count":  deleted,
			"cutoff":         cutoff.Format(time.RFC3339),
			"retention_days": s.days,
		},
		Notify: true,
	})
	if err != nil {
		slog.Error("record retention sweep", "error", err)
	}
	return deleted, nil
}

func (s *Sweeper) deleteImage(ctx context.Context, img models.Image) error {
	keys := []string{img.Filename}
	if img.ThumbnailURL != nil && *img.ThumbnailURL != "" {
		keys = append(keys, *img.ThumbnailURL)
	}
	if err := s.objects.DeleteObjects(ctx, keys); err != nil {
		return fmt.Errorf("delete objects of %s: %w", img.ID, err)
	}
	if err := s.images.DeleteImage(ctx, img.EventID, img.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete image %s: %w", img.ID, err)
	}
	return nil
}

func (s *Sweeper) fail(ctx context.Context, cutoff time.Time, deleted int, cause error) error {
	slog.Error("retention sweep failed", "deleted", deleted, "error", cause)
	err := s.recorder.Record(ctx, audit.Entry{
		Action: audit.ActionRetentionFailed,
		Details: map[string]any{
			"deleted_count": deleted,
			"cutoff":        cutoff.Format(time.RFC3339),
			"error":         cause.Error(),
		},
		Notify: true,
	})
	if err != nil {
		slog.Error("record retention failure", "error", err)
	}
	return cause
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil {
			slog.Warn("retention sweep", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
