package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/pkg/dto"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	go hub.Run()

	r := gin.New()
	r.GET("/ws", hub.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, hub *Hub, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < want {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestBroadcastLogReachesClient(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url, 1)

	entry := &models.AuditLog{
		ID:        uuid.New(),
		Action:    "search_face",
		Details:   json.RawMessage(`{"result_count":2}`),
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	hub.BroadcastLog(entry)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg dto.WSLogMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "audit_log" || msg.Data.ID != entry.ID || msg.Data.Action != "search_face" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Data.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("timestamp = %q", msg.Data.Timestamp)
	}
}

func TestActionFilter(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url+"?action=login", 1)

	hub.BroadcastLog(&models.AuditLog{ID: uuid.New(), Action: "search_face", Details: json.RawMessage(`{}`)})
	hub.BroadcastLog(&models.AuditLog{ID: uuid.New(), Action: "login_failed", Details: json.RawMessage(`{}`)})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg dto.WSLogMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Data.Action != "login_failed" {
		t.Errorf("action = %q, want login_failed", msg.Data.Action)
	}
}
