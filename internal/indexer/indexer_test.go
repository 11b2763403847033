package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/embedding"
	"github.com/your-org/photohub/internal/models"
)

type memObjects map[string][]byte

func (m memObjects) GetObject(_ context.Context, key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) Embed(context.Context, []byte, string, string) ([]float32, error) {
	return s.vec, s.err
}

type memFaces struct {
	stored   []models.FaceEmbedding
	countErr error
}

func (m *memFaces) CountFaces(_ context.Context, imageID uuid.UUID) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for _, fe := range m.stored {
		if fe.ImageID == imageID {
			n++
		}
	}
	return n, nil
}

func (m *memFaces) AddFaceEmbedding(_ context.Context, imageID, eventID uuid.UUID, emb []float32) (*models.FaceEmbedding, error) {
	fe := models.FaceEmbedding{ID: uuid.New(), ImageID: imageID, EventID: eventID, Embedding: emb}
	m.stored = append(m.stored, fe)
	return &fe, nil
}

type memRecorder struct{ entries []audit.Entry }

func (m *memRecorder) Record(_ context.Context, e audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func newTask() models.IndexTask {
	return models.IndexTask{
		ImageID:     uuid.New(),
		EventID:     uuid.New(),
		ObjectKey:   "events/e/i.jpg",
		Filename:    "i.jpg",
		ContentType: "image/jpeg",
	}
}

func TestProcessStoresEmbedding(t *testing.T) {
	task := newTask()
	faces := &memFaces{}
	ix := New(memObjects{task.ObjectKey: []byte("img")}, stubEmbedder{vec: []float32{1, 2}}, faces, nil)

	if err := ix.Process(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(faces.stored) != 1 || faces.stored[0].ImageID != task.ImageID || faces.stored[0].EventID != task.EventID {
		t.Errorf("stored = %+v", faces.stored)
	}
}

func TestProcessOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantErr     bool
		wantRecords int
	}{
		{"no face is done", embedding.ErrNoFace, false, 0},
		{"unavailable retries", embedding.ErrUnavailable, true, 0},
		{"5xx retries", &embedding.StatusError{StatusCode: 503}, true, 0},
		{"4xx is rejected", &embedding.StatusError{StatusCode: 415}, false, 1},
		{"malformed is rejected", embedding.ErrMalformedResponse, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTask()
			faces := &memFaces{}
			rec := &memRecorder{}
			ix := New(memObjects{task.ObjectKey: []byte("img")}, stubEmbedder{err: tt.err}, faces, rec)

			err := ix.Process(context.Background(), task)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(faces.stored) != 0 {
				t.Error("face stored on failure")
			}
			if len(rec.entries) != tt.wantRecords {
				t.Errorf("audit entries = %d, want %d", len(rec.entries), tt.wantRecords)
			}
		})
	}
}

func TestProcessMissingObjectRetries(t *testing.T) {
	ix := New(memObjects{}, stubEmbedder{vec: []float32{1}}, &memFaces{}, nil)
	if err := ix.Process(context.Background(), newTask()); err == nil {
		t.Fatal("expected error for missing object")
	}
}

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(context.Context, []byte, string, string) ([]float32, error) {
	c.calls++
	return []float32{1, 0}, nil
}

func TestProcessRedeliveryIsIdempotent(t *testing.T) {
	task := newTask()
	faces := &memFaces{}
	emb := &countingEmbedder{}
	ix := New(memObjects{task.ObjectKey: []byte("img")}, emb, faces, nil)

	for i := 0; i < 2; i++ {
		if err := ix.Process(context.Background(), task); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if len(faces.stored) != 1 {
		t.Errorf("stored %d faces, want 1", len(faces.stored))
	}
	if emb.calls != 1 {
		t.Errorf("embedder called %d times, want 1", emb.calls)
	}
}

func TestProcessSkipsAlreadyIndexedImage(t *testing.T) {
	task := newTask()
	faces := &memFaces{stored: []models.FaceEmbedding{{ID: uuid.New(), ImageID: task.ImageID, EventID: task.EventID}}}
	emb := &countingEmbedder{}
	ix := New(memObjects{}, emb, faces, nil)

	if err := ix.Process(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if emb.calls != 0 || len(faces.stored) != 1 {
		t.Errorf("embedder calls = %d, faces = %d", emb.calls, len(faces.stored))
	}
}

func TestProcessFaceCountFailureRetries(t *testing.T) {
	emb := &countingEmbedder{}
	ix := New(memObjects{}, emb, &memFaces{countErr: errors.New("pool closed")}, nil)
	if err := ix.Process(context.Background(), newTask()); err == nil {
		t.Fatal("expected error so the task is redelivered")
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times", emb.calls)
	}
}
