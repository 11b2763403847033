package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/models"
)

type memStore struct {
	mu        sync.Mutex
	entries   []*models.AuditLog
	marked    []uuid.UUID
	insertErr error
}

func (s *memStore) InsertLog(_ context.Context, e *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	e.ID = uuid.New()
	e.Timestamp = time.Now()
	s.entries = append(s.entries, e)
	return nil
}

func (s *memStore) MarkNotificationSent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, id)
	return nil
}

type stubNotifier struct {
	err    error
	alerts []models.Alert
}

func (n *stubNotifier) PublishAlert(_ context.Context, a models.Alert) error {
	n.alerts = append(n.alerts, a)
	return n.err
}

type countingBroadcaster struct{ n int }

func (b *countingBroadcaster) BroadcastLog(*models.AuditLog) { b.n++ }

func TestRecordWithoutNotify(t *testing.T) {
	store := &memStore{}
	notifier := &stubNotifier{}
	r := NewRecorder(store, notifier, nil, time.Second)

	err := r.Record(context.Background(), Entry{Action: ActionSearchFace, Details: map[string]any{"result_count": 2}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(store.entries))
	}
	if len(notifier.alerts) != 0 {
		t.Errorf("alerts = %d, want 0", len(notifier.alerts))
	}

	var details map[string]any
	if err := json.Unmarshal(store.entries[0].Details, &details); err != nil {
		t.Fatalf("details: %v", err)
	}
	if details["result_count"] != float64(2) {
		t.Errorf("details = %v", details)
	}
}

func TestRecordNotifySuccessFlipsFlag(t *testing.T) {
	store := &memStore{}
	notifier := &stubNotifier{}
	bc := &countingBroadcaster{}
	r := NewRecorder(store, notifier, bc, time.Second)

	uid := uuid.New()
	if err := r.Record(context.Background(), Entry{UserID: &uid, Action: ActionUploadImage, Notify: true}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(notifier.alerts))
	}
	a := notifier.alerts[0]
	if a.LogID != store.entries[0].ID || a.Subject != "Image System Alert: upload_image" {
		t.Errorf("alert = %+v", a)
	}
	if len(store.marked) != 1 || store.marked[0] != store.entries[0].ID {
		t.Errorf("marked = %v", store.marked)
	}
	if !store.entries[0].NotificationSent {
		t.Error("entry not flagged as notified")
	}
	if bc.n != 1 {
		t.Errorf("broadcasts = %d, want 1", bc.n)
	}
}

func TestRecordNotifyFailureIsSwallowed(t *testing.T) {
	store := &memStore{}
	notifier := &stubNotifier{err: errors.New("topic gone")}
	r := NewRecorder(store, notifier, nil, time.Second)

	if err := r.Record(context.Background(), Entry{Action: ActionSearchFaceFailed, Notify: true}); err != nil {
		t.Fatalf("record returned alert error: %v", err)
	}
	if len(store.entries) != 2 {
		t.Fatalf("entries = %d, want original + notification error", len(store.entries))
	}
	secondary := store.entries[1]
	if secondary.Action != ActionNotificationError || secondary.NotificationSent {
		t.Errorf("secondary = %+v", secondary)
	}
	if len(notifier.alerts) != 1 {
		t.Errorf("notification error entry must not itself alert, alerts = %d", len(notifier.alerts))
	}
	if len(store.marked) != 0 {
		t.Errorf("marked = %v, want none", store.marked)
	}
}

func TestRecordInsertFailure(t *testing.T) {
	store := &memStore{insertErr: errors.New("db down")}
	notifier := &stubNotifier{}
	r := NewRecorder(store, notifier, nil, time.Second)

	if err := r.Record(context.Background(), Entry{Action: ActionSearchFace, Notify: true}); err == nil {
		t.Fatal("expected error when insert fails")
	}
	if len(notifier.alerts) != 0 {
		t.Error("alert published for an entry that was never stored")
	}
}

func TestRecordNilNotifier(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store, nil, nil, 0)
	if err := r.Record(context.Background(), Entry{Action: ActionLoginSuccess, Notify: true}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(store.entries) != 1 || store.entries[0].NotificationSent {
		t.Errorf("entries = %+v", store.entries)
	}
}
