package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/models"
)

func TestBuildLogQueriesNoFilter(t *testing.T) {
	list, count := buildLogQueries(models.LogFilter{Limit: 20, Offset: 40})

	listSQL, args, err := list.ToSql()
	if err != nil {
		t.Fatalf("list sql: %v", err)
	}
	if strings.Contains(listSQL, "WHERE") {
		t.Errorf("unexpected WHERE in %q", listSQL)
	}
	if !strings.Contains(listSQL, "LIMIT 20") || !strings.Contains(listSQL, "OFFSET 40") {
		t.Errorf("missing pagination in %q", listSQL)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}

	countSQL, _, err := count.ToSql()
	if err != nil {
		t.Fatalf("count sql: %v", err)
	}
	if countSQL != "SELECT COUNT(*) FROM logs" {
		t.Errorf("count sql = %q", countSQL)
	}
}

func TestBuildLogQueriesAllFilters(t *testing.T) {
	uid := uuid.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	list, count := buildLogQueries(models.LogFilter{
		Action:    "search",
		UserID:    &uid,
		StartDate: &start,
		EndDate:   &end,
		Limit:     10,
	})

	listSQL, args, err := list.ToSql()
	if err != nil {
		t.Fatalf("list sql: %v", err)
	}
	for _, want := range []string{"action ILIKE $1", "user_id = $2", "timestamp >= $3", "timestamp <= $4"} {
		if !strings.Contains(listSQL, want) {
			t.Errorf("list sql %q missing %q", listSQL, want)
		}
	}
	if len(args) != 4 {
		t.Fatalf("args = %d, want 4", len(args))
	}
	if args[0] != "%search%" {
		t.Errorf("action arg = %v, want %%search%%", args[0])
	}

	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		t.Fatalf("count sql: %v", err)
	}
	if !strings.Contains(countSQL, "WHERE") || len(countArgs) != 4 {
		t.Errorf("count sql = %q args = %d", countSQL, len(countArgs))
	}
}

func TestObjectKeys(t *testing.T) {
	if got := ImageKey("e1", "i1", ".png"); got != "events/e1/i1.png" {
		t.Errorf("ImageKey = %q", got)
	}
	if got := ThumbnailKey("e1", "i1"); got != "events/e1/thumbs/i1.jpg" {
		t.Errorf("ThumbnailKey = %q", got)
	}
	if got := EventPrefix("e1"); got != "events/e1/" {
		t.Errorf("EventPrefix = %q", got)
	}
}
