package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(serverURL string, models []string, pollTimeout time.Duration) *VeoClient {
	c := NewVeoClient(VeoConfig{
		APIKey:      "test-key",
		Models:      models,
		PollTimeout: pollTimeout,
	})
	c.baseURL = serverURL
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestRenderSuccess(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header on %s", r.URL.Path)
		}
		switch {
		case strings.HasSuffix(r.URL.Path, ":predictLongRunning"):
			var req renderRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode render request: %v", err)
			}
			if len(req.Instances) != 1 || req.Instances[0].Prompt != "a calm fjord at dawn" {
				t.Errorf("unexpected instances: %+v", req.Instances)
			}
			if req.Parameters.AspectRatio != "9:16" || req.Parameters.DurationSeconds != "8" {
				t.Errorf("unexpected parameters: %+v", req.Parameters)
			}
			writeJSON(w, map[string]any{"name": "operations/op-1"})
		case r.URL.Path == "/operations/op-1":
			writeJSON(w, map[string]any{
				"done": true,
				"response": map[string]any{
					"generateVideoResponse": map[string]any{
						"generatedSamples": []map[string]any{
							{"video": map[string]any{"uri": server.URL + "/files/clip.mp4"}},
						},
					},
				},
			})
		case r.URL.Path == "/files/clip.mp4":
			_, _ = w.Write([]byte("mp4-bytes"))
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := testClient(server.URL, []string{"veo-test"}, time.Minute)
	data, err := c.Render(context.Background(), "a calm fjord at dawn")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if string(data) != "mp4-bytes" {
		t.Errorf("Render() = %q, want mp4-bytes", data)
	}
}

func TestRenderModelFallback(t *testing.T) {
	var primaryHits int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "models/veo-primary"):
			atomic.AddInt32(&primaryHits, 1)
			http.Error(w, `{"error": "model overloaded"}`, http.StatusServiceUnavailable)
		case strings.Contains(r.URL.Path, "models/veo-backup"):
			writeJSON(w, map[string]any{"name": "operations/op-2"})
		case r.URL.Path == "/operations/op-2":
			writeJSON(w, map[string]any{
				"done": true,
				"response": map[string]any{
					"generateVideoResponse": map[string]any{
						"generatedSamples": []map[string]any{
							{"video": map[string]any{"uri": server.URL + "/files/clip.mp4"}},
						},
					},
				},
			})
		case r.URL.Path == "/files/clip.mp4":
			_, _ = w.Write([]byte("backup-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := testClient(server.URL, []string{"veo-primary", "veo-backup"}, time.Minute)
	data, err := c.Render(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if string(data) != "backup-bytes" {
		t.Errorf("Render() = %q, want the backup model's output", data)
	}
	if atomic.LoadInt32(&primaryHits) != 1 {
		t.Errorf("primary model hits = %d, want 1", primaryHits)
	}
}

func TestRenderAllModelsExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := testClient(server.URL, []string{"veo-a", "veo-b"}, time.Minute)
	_, err := c.Render(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Render() succeeded with every model failing")
	}
	if !strings.Contains(err.Error(), "all video models exhausted") {
		t.Errorf("Render() error = %v, want exhaustion wrapper", err)
	}
}

func TestRenderOperationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
			writeJSON(w, map[string]any{"name": "operations/op-3"})
			return
		}
		writeJSON(w, map[string]any{
			"done":  true,
			"error": map[string]any{"message": "prompt rejected"},
		})
	}))
	defer server.Close()

	c := testClient(server.URL, []string{"veo-test"}, time.Minute)
	_, err := c.Render(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Render() succeeded on a failed operation")
	}
	if !strings.Contains(err.Error(), "prompt rejected") {
		t.Errorf("Render() error = %v, want the operation's message", err)
	}
	if errors.Is(err, ErrRenderTimeout) {
		t.Error("generation failure must not look like a poll timeout")
	}
}

func TestRenderPollTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
			writeJSON(w, map[string]any{"name": "operations/op-4"})
			return
		}
		// Never done: the operation outlives the poll window.
		writeJSON(w, map[string]any{"done": false})
	}))
	defer server.Close()

	c := testClient(server.URL, []string{"veo-test"}, time.Nanosecond)
	_, err := c.Render(context.Background(), "prompt")
	if !errors.Is(err, ErrRenderTimeout) {
		t.Fatalf("Render() error = %v, want ErrRenderTimeout", err)
	}
}

func TestRenderContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"name": fmt.Sprintf("operations/%d", time.Now().UnixNano())})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(server.URL, []string{"veo-a", "veo-b"}, time.Minute)
	_, err := c.Render(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Render() error = %v, want context.Canceled", err)
	}
}
