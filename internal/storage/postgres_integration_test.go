package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/models"
)

// newTestStore connects to the database named by FD_TEST_DATABASE_DSN.
// The database must have the pgvector extension available.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("FD_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("database tests are disabled; set FD_TEST_DATABASE_DSN to enable")
	}

	ctx := context.Background()
	store, err := Connect(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func seedEventWithFaces(t *testing.T, s *PostgresStore, vectors ...[]float32) (*models.Event, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	ev, err := s.CreateEvent(ctx, "test-"+uuid.NewString(), uuid.New())
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteEvent(context.Background(), ev.ID) })

	faceIDs := make([]uuid.UUID, 0, len(vectors))
	for i, vec := range vectors {
		img := &models.Image{
			EventID:     ev.ID,
			Filename:    ImageKey(ev.ID.String(), uuid.NewString(), ".jpg"),
			UploadedBy:  uuid.New(),
			ContentType: "image/jpeg",
			FileSize:    int64(100 + i),
		}
		if err := s.CreateImage(ctx, img); err != nil {
			t.Fatalf("create image: %v", err)
		}
		fe, err := s.AddFaceEmbedding(ctx, img.ID, ev.ID, vec)
		if err != nil {
			t.Fatalf("add face: %v", err)
		}
		faceIDs = append(faceIDs, fe.ID)
	}
	return ev, faceIDs
}

func TestMatchFacesThresholdIsExclusive(t *testing.T) {
	s := newTestStore(t)
	ev, _ := seedEventWithFaces(t, s, []float32{0, 1})

	// Orthogonal vectors have similarity exactly 0.
	matches, err := s.MatchFaces(context.Background(), []float32{1, 0}, ev.ID, 0, 50)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("matches = %d, want 0 for similarity equal to threshold", len(matches))
	}
}

func TestMatchFacesOrderingAndScope(t *testing.T) {
	s := newTestStore(t)
	ev, _ := seedEventWithFaces(t, s,
		[]float32{1, 0},
		[]float32{0.8, 0.6},
		[]float32{0.6, 0.8},
		[]float32{-1, 0},
	)
	other, _ := seedEventWithFaces(t, s, []float32{1, 0})

	ctx := context.Background()
	matches, err := s.MatchFaces(ctx, []float32{1, 0}, ev.ID, 0.5, 50)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Errorf("results not sorted: %v before %v", matches[i-1].Similarity, matches[i].Similarity)
		}
	}
	for _, m := range matches {
		if m.Similarity <= 0.5 {
			t.Errorf("similarity %v not above threshold", m.Similarity)
		}
	}

	// Raising the threshold never adds results.
	higher, err := s.MatchFaces(ctx, []float32{1, 0}, ev.ID, 0.7, 50)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(higher) > len(matches) {
		t.Errorf("higher threshold returned more results: %d > %d", len(higher), len(matches))
	}

	// Limit is honoured.
	limited, err := s.MatchFaces(ctx, []float32{1, 0}, ev.ID, 0, 1)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited = %d, want 1", len(limited))
	}

	// Faces of other events never leak in.
	otherMatches, err := s.MatchFaces(ctx, []float32{1, 0}, other.ID, 0.5, 50)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(otherMatches) != 1 {
		t.Errorf("other event matches = %d, want 1", len(otherMatches))
	}
}

func TestMatchFacesDeterministicTies(t *testing.T) {
	s := newTestStore(t)
	ev, _ := seedEventWithFaces(t, s, []float32{1, 0}, []float32{1, 0}, []float32{1, 0})

	ctx := context.Background()
	first, err := s.MatchFaces(ctx, []float32{1, 0}, ev.ID, 0.5, 50)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	second, err := s.MatchFaces(ctx, []float32{1, 0}, ev.ID, 0.5, 50)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("got %d and %d matches, want 3", len(first), len(second))
	}
	for i := range first {
		if first[i].FaceID != second[i].FaceID {
			t.Fatalf("order differs at %d", i)
		}
		if i > 0 && first[i].FaceID.String() < first[i-1].FaceID.String() {
			t.Errorf("ties not ordered by face id at %d", i)
		}
	}
}

func TestMatchFacesEmptyEvent(t *testing.T) {
	s := newTestStore(t)
	ev, _ := seedEventWithFaces(t, s)

	matches, err := s.MatchFaces(context.Background(), []float32{1, 0}, ev.ID, 0, 50)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if matches == nil || len(matches) != 0 {
		t.Errorf("matches = %v, want empty non-nil slice", matches)
	}
}

func TestAuditLogLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := &models.AuditLog{Action: "test_action_" + uuid.NewString()[:8], Details: []byte(`{"k":"v"}`)}
	if err := s.InsertLog(ctx, entry); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.MarkNotificationSent(ctx, entry.ID); err != nil {
		t.Fatalf("mark: %v", err)
	}

	logs, total, err := s.ListLogs(ctx, models.LogFilter{Action: entry.Action, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(logs) != 1 {
		t.Fatalf("total = %d len = %d, want 1", total, len(logs))
	}
	if !logs[0].NotificationSent {
		t.Error("notification_sent not flipped")
	}
}
