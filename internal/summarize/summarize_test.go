package summarize

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/domain"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		HasActivity: true,
		Users: map[string]domain.UserActivity{
			"alice": {
				Played:       map[string]int64{"Hades": 50, "Celeste": 20},
				NewGames:     []string{"Celeste"},
				TotalMinutes: 70,
			},
			"bob": {
				Played:       map[string]int64{"Hades": 30},
				FirstPlayed:  []string{"Hades"},
				TotalMinutes: 30,
			},
			"carol": {Played: map[string]int64{}},
		},
		Group: domain.GroupSummary{
			TotalMinutes:   100,
			MostActiveUser: "alice",
			MostPlayedGame: &domain.GamePlay{Game: "Hades", TotalMinutes: 80},
			LongestSession: &domain.Session{User: "alice", Game: "Hades", Minutes: 50},
			CoPlayed: []domain.CoPlayedGame{
				{Game: "Hades", Players: []string{"alice", "bob"}, TotalMinutes: 80},
			},
		},
	}
}

func TestTextRendererQuietDay(t *testing.T) {
	got, err := NewTextRenderer().Render(context.Background(), &domain.Report{})
	if err != nil {
		t.Fatal(err)
	}
	if got != NoActivityMessage {
		t.Errorf("quiet day = %q, want no-activity message", got)
	}
}

func TestTextRendererSummary(t *testing.T) {
	got, err := NewTextRenderer().Render(context.Background(), sampleReport())
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"**Active Players:** alice, bob",
		"**Total Group Time:** 1h 40m",
		"**Most Played:** Hades (1h 20m)",
		"**Longest Session:** alice on Hades (50m)",
		"**Co-op Games:** Hades",
		"**alice's New Games:** Celeste",
		"**bob Tried for First Time:** Hades",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "carol") {
		t.Errorf("inactive user must not be listed:\n%s", got)
	}
}

func TestTextRendererIsDeterministic(t *testing.T) {
	renderer := NewTextRenderer()
	first, _ := renderer.Render(context.Background(), sampleReport())
	for i := 0; i < 10; i++ {
		next, _ := renderer.Render(context.Background(), sampleReport())
		if next != first {
			t.Fatal("render output varies between runs")
		}
	}
}

func geminiRenderer(t *testing.T, handler http.HandlerFunc) *GeminiRenderer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGeminiRenderer(&config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-1.5-flash-latest",
		BaseURL: server.URL,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGeminiRendererUsesModelOutput(t *testing.T) {
	renderer := geminiRenderer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-1.5-flash-latest:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"candidates": [{"content": {"parts": [{"text": "  What a day of Hades! "}]}}]}`)
	})

	got, err := renderer.Render(context.Background(), sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	if got != "What a day of Hades!" {
		t.Errorf("summary = %q", got)
	}
}

func TestGeminiRendererFallsBackOnError(t *testing.T) {
	renderer := geminiRenderer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	got, err := renderer.Render(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("api failure must fall back, not error: %v", err)
	}
	if !strings.Contains(got, "Daily Gaming Digest") {
		t.Errorf("expected fallback summary, got %q", got)
	}
}

func TestGeminiRendererQuietDaySkipsAPI(t *testing.T) {
	called := false
	renderer := geminiRenderer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	got, err := renderer.Render(context.Background(), &domain.Report{})
	if err != nil {
		t.Fatal(err)
	}
	if got != NoActivityMessage {
		t.Errorf("quiet day = %q", got)
	}
	if called {
		t.Error("quiet day must not call the API")
	}
}

func TestGeminiRendererMissingKeyUsesFallback(t *testing.T) {
	renderer := NewGeminiRenderer(&config.GeminiConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := renderer.Render(context.Background(), sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Daily Gaming Digest") {
		t.Errorf("expected fallback summary, got %q", got)
	}
}
