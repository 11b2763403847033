// Package indexer turns uploaded images into stored face embeddings.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/embedding"
	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/internal/observability"
)

type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type FaceStore interface {
	CountFaces(ctx context.Context, imageID uuid.UUID) (int, error)
	AddFaceEmbedding(ctx context.Context, imageID, eventID uuid.UUID, embedding []float32) (*models.FaceEmbedding, error)
}

type Recorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

type Indexer struct {
	objects  ObjectStore
	embedder embedding.Embedder
	faces    FaceStore
	recorder Recorder
}

func New(objects ObjectStore, embedder embedding.Embedder, faces FaceStore, recorder Recorder) *Indexer {
	return &Indexer{objects: objects, embedder: embedder, faces: faces, recorder: recorder}
}

// Process indexes one uploaded image. Returning an error asks for redelivery,
// so only transient failures are returned.
func (ix *Indexer) Process(ctx context.Context, task models.IndexTask) error {
	// JetStream redelivers when an ack is lost; an image is indexed once.
	existing, err := ix.faces.CountFaces(ctx, task.ImageID)
	if err != nil {
		observability.IndexTasks.WithLabelValues("retry").Inc()
		return fmt.Errorf("count faces for %s: %w", task.ImageID, err)
	}
	if existing > 0 {
		observability.IndexTasks.WithLabelValues("duplicate").Inc()
		slog.Info("image already indexed", "image_id", task.ImageID)
		return nil
	}

	data, err := ix.objects.GetObject(ctx, task.ObjectKey)
	if err != nil {
		observability.IndexTasks.WithLabelValues("retry").Inc()
		return fmt.Errorf("fetch %s: %w", task.ObjectKey, err)
	}

	vec, err := ix.embedder.Embed(ctx, data, task.Filename, task.ContentType)
	if err != nil {
		var statusErr *embedding.StatusError
		switch {
		case errors.Is(err, embedding.ErrNoFace):
			observability.IndexTasks.WithLabelValues("no_face").Inc()
			slog.Info("no face in image", "image_id", task.ImageID)
			return nil
		case errors.Is(err, embedding.ErrMalformedResponse),
			errors.As(err, &statusErr) && statusErr.StatusCode < 500:
			observability.IndexTasks.WithLabelValues("rejected").Inc()
			ix.recordFailure(ctx, task, err)
			return nil
		default:
			observability.IndexTasks.WithLabelValues("retry").Inc()
			return fmt.Errorf("embed %s: %w", task.ImageID, err)
		}
	}

	face, err := ix.faces.AddFaceEmbedding(ctx, task.ImageID, task.EventID, vec)
	if err != nil {
		observability.IndexTasks.WithLabelValues("retry").Inc()
		return fmt.Errorf("store face for %s: %w", task.ImageID, err)
	}

	observability.IndexTasks.WithLabelValues("indexed").Inc()
	slog.Info("image indexed", "image_id", task.ImageID, "face_id", face.ID, "dims", len(vec))
	return nil
}

func (ix *Indexer) recordFailure(ctx context.Context, task models.IndexTask, cause error) {
	slog.Warn("image cannot be indexed", "image_id", task.ImageID, "error", cause)
	if ix.recorder == nil {
		return
	}
	err := ix.recorder.Record(ctx, audit.Entry{
		Action: audit.ActionIndexImageFailed,
		Details: map[string]any{
			"image_id": task.ImageID.String(),
			"event_id": task.EventID.String(),
			"error":    cause.Error(),
		},
		Notify: true,
	})
	if err != nil {
		slog.Error("record index failure", "image_id", task.ImageID, "error", err)
	}
}
