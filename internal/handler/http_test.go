package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/domain"
	"github.com/steam-digest/internal/service"
	"github.com/steam-digest/internal/snapshot"
	"github.com/steam-digest/internal/summarize"
	"github.com/steam-digest/internal/websocket"
)

type stubFetcher struct {
	snapshot domain.Snapshot
}

func (f *stubFetcher) FetchSnapshot(ctx context.Context, users []config.User) (domain.Snapshot, error) {
	return f.snapshot, nil
}

type stubPoster struct {
	posted int
}

func (p *stubPoster) Post(ctx context.Context, message string) error {
	p.posted++
	return nil
}

func testHandler(t *testing.T) (*Handler, *stubPoster) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fetcher := &stubFetcher{snapshot: domain.Snapshot{"alice": {"Hades": 150}}}
	poster := &stubPoster{}
	svc := service.NewDigestService(
		fetcher,
		snapshot.NewMemoryStore(),
		summarize.NewTextRenderer(),
		poster,
		[]config.User{{Name: "alice", SteamID: "id"}},
		logger,
	)

	hub := websocket.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	return NewHandler(svc, hub, nil, logger), poster
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp
}

func TestHealthCheck(t *testing.T) {
	h, _ := testHandler(t)
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if resp := decodeResponse(t, rec); !resp.Success {
		t.Errorf("response = %+v, want success", resp)
	}
}

func TestLatestBeforeFirstRunIs404(t *testing.T) {
	h, _ := testHandler(t)
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/digest/latest", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTriggerRunThenLatest(t *testing.T) {
	h, poster := testHandler(t)
	router := h.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/digest/run", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("trigger status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if poster.posted != 1 {
		t.Errorf("posted = %d, want 1", poster.posted)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/digest/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d, want 200", rec.Code)
	}
	if resp := decodeResponse(t, rec); !resp.Success {
		t.Errorf("response = %+v, want success", resp)
	}
}

func TestPreviewDoesNotPost(t *testing.T) {
	h, poster := testHandler(t)
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/digest/preview", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if poster.posted != 0 {
		t.Errorf("preview posted %d messages, want 0", poster.posted)
	}
}

func TestListRunsWithoutArchiveIs404(t *testing.T) {
	h, _ := testHandler(t)
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
