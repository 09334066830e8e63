package steam

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(&config.SteamConfig{APIKey: "test-key"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.baseURL = server.URL
	return client
}

func TestFetchSnapshotNormalizesPayload(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %s, want test-key", got)
		}
		switch r.URL.Query().Get("steamid") {
		case "id-alice":
			io.WriteString(w, `{"response": {"game_count": 2, "games": [
				{"appid": 1145360, "name": "Hades", "playtime_forever": 150},
				{"appid": 504230, "name": "Celeste", "playtime_forever": 0}
			]}}`)
		case "id-bob":
			io.WriteString(w, `{"response": {"game_count": 1, "games": [
				{"appid": 427520, "playtime_forever": 9000}
			]}}`)
		default:
			http.NotFound(w, r)
		}
	})

	users := []config.User{
		{Name: "alice", SteamID: "id-alice"},
		{Name: "bob", SteamID: "id-bob"},
	}
	snapshot, err := client.FetchSnapshot(context.Background(), users)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	want := domain.Snapshot{
		"alice": {"Hades": 150, "Celeste": 0},
		"bob":   {"App 427520": 9000},
	}
	if !reflect.DeepEqual(snapshot, want) {
		t.Errorf("snapshot = %v, want %v", snapshot, want)
	}
}

func TestFetchSnapshotDegradesPerUserFailure(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("steamid") == "id-bad" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		io.WriteString(w, `{"response": {"game_count": 1, "games": [
			{"appid": 1, "name": "Hades", "playtime_forever": 10}
		]}}`)
	})

	users := []config.User{
		{Name: "alice", SteamID: "id-ok"},
		{Name: "bob", SteamID: "id-bad"},
	}
	snapshot, err := client.FetchSnapshot(context.Background(), users)
	if err != nil {
		t.Fatalf("one failing user must not fail the fetch: %v", err)
	}
	if len(snapshot["bob"]) != 0 {
		t.Errorf("failed user should have empty library, got %v", snapshot["bob"])
	}
	if snapshot["alice"]["Hades"] != 10 {
		t.Errorf("healthy user lost data: %v", snapshot["alice"])
	}
}

func TestFetchSnapshotFailsWhenAllUsersFail(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})

	_, err := client.FetchSnapshot(context.Background(), []config.User{{Name: "alice", SteamID: "x"}})
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Errorf("err = %v, want ErrFetchFailed", err)
	}
}

func TestFetchSnapshotRejectsNegativePlaytime(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"response": {"game_count": 1, "games": [
			{"appid": 1, "name": "Hades", "playtime_forever": -5}
		]}}`)
	})

	_, err := client.FetchUserGames(context.Background(), "id")
	if !errors.Is(err, domain.ErrMalformedSnapshot) {
		t.Errorf("err = %v, want ErrMalformedSnapshot", err)
	}
}
