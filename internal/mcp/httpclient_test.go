package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/perfutils/internal/models"
	"github.com/claude/perfutils/internal/storage"
	"github.com/google/uuid"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestListLogs verifies the HTTP client parses the JSON array response.
func TestListLogs(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/logs": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.Log{{ID: id, Name: "block", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}})
		},
	})
	defer ts.Close()

	logs, err := NewHTTPClient(ts.URL + "/").ListLogs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != id || logs[0].Name != "block" {
		t.Errorf("logs = %+v", logs)
	}
}

// TestListItems verifies item fields survive the round trip.
func TestListItems(t *testing.T) {
	id := uuid.New()
	reps, load := 5, 100.0
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/logs/" + id.String() + "/items": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.LogItem{{LogID: id, ItemID: 1, ItemType: models.ItemSet, Reps: &reps, LoadKg: &load}})
		},
	})
	defer ts.Close()

	items, err := NewHTTPClient(ts.URL).ListItems(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || !items[0].HasLift() || *items[0].Reps != 5 {
		t.Errorf("items = %+v", items)
	}
}

// TestGetLogNotFound verifies a 404 maps to storage.ErrNotFound.
func TestGetLogNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).GetLog(context.Background(), uuid.New())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestServerError verifies non-200 responses surface as errors.
func TestServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/logs": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL).ListLogs(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

// TestLogTools verifies the log tools read through a LogSource.
func TestLogTools(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/logs/" + id.String(): func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, models.Log{ID: id, Name: "block"})
		},
		"/api/v1/logs/" + id.String() + "/items": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.LogItem{{LogID: id, ItemID: 1, ItemType: models.ItemSession}})
		},
	})
	defer ts.Close()

	h := testHandlers()
	h.logs = NewHTTPClient(ts.URL)

	res, err := h.getLogItems(context.Background(), callTool(map[string]any{"log_id": id.String()}))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Log   models.Log       `json:"log"`
		Items []models.LogItem `json:"items"`
	}
	decodeResult(t, res, &out)
	if out.Log.Name != "block" || len(out.Items) != 1 {
		t.Errorf("result = %+v", out)
	}

	res, _ = h.getLogItems(context.Background(), callTool(map[string]any{"log_id": uuid.New().String()}))
	if !res.IsError {
		t.Error("expected tool error for unknown log")
	}
}
