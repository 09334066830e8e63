package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/domain"
)

const systemPrompt = `You are a top gaming streamer that summarizes daily gaming activity for a group of friends.
Your summaries should be:
- Discord-friendly (under 2000 characters)
- Casual and fun in tone
- Tailored to the specific games being played
- Include gaming emojis where appropriate
- Mention and celebrate collaborative gaming when it happens
- Keep it concise but engaging

Focus on the most interesting aspects of the day's gaming session.`

// GeminiRenderer renders the report through the Google Generative Language
// API. Any API failure degrades to the plain text renderer so a bad AI day
// never blocks the digest.
type GeminiRenderer struct {
	apiKey   string
	model    string
	baseURL  string
	http     *http.Client
	fallback *TextRenderer
	logger   *slog.Logger
}

// NewGeminiRenderer creates a Gemini-backed renderer.
func NewGeminiRenderer(cfg *config.GeminiConfig, logger *slog.Logger) *GeminiRenderer {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &GeminiRenderer{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		fallback: NewTextRenderer(),
		logger:   logger,
	}
}

type generateRequest struct {
	SystemInstruction content          `json:"system_instruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Render asks the model for a summary of the report. Quiet days and missing
// API keys short-circuit to the text renderer.
func (g *GeminiRenderer) Render(ctx context.Context, report *domain.Report) (string, error) {
	if !report.HasActivity {
		return NoActivityMessage, nil
	}
	if g.apiKey == "" {
		g.logger.Warn("gemini api key missing, using fallback summary")
		return g.fallback.Render(ctx, report)
	}

	summary, err := g.generate(ctx, report)
	if err != nil {
		g.logger.Error("gemini summary failed, using fallback", "error", err)
		return g.fallback.Render(ctx, report)
	}
	return summary, nil
}

func (g *GeminiRenderer) generate(ctx context.Context, report *domain.Report) (string, error) {
	data, err := json.MarshalIndent(promptData(report), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	reqBody := generateRequest{
		SystemInstruction: content{Parts: []part{{Text: systemPrompt}}},
		Contents: []content{{Parts: []part{{
			Text: fmt.Sprintf("Here is today's gaming activity data. Please create a fun Discord-friendly summary:\n\n%s", data),
		}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 500,
			TopP:            0.9,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling gemini api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gemini api returned %d: %s", resp.StatusCode, body)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding gemini response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	summary := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if summary == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return summary, nil
}

// promptData strips the report down to what the model needs: users with
// activity and the group highlights.
func promptData(report *domain.Report) map[string]any {
	individual := make(map[string]any)
	for user, activity := range report.Users {
		if activity.TotalMinutes == 0 {
			continue
		}
		individual[user] = map[string]any{
			"total_minutes":     activity.TotalMinutes,
			"games_played":      activity.Played,
			"new_games":         activity.NewGames,
			"first_time_played": activity.FirstPlayed,
		}
	}
	return map[string]any{
		"individual_activity": individual,
		"group_highlights":    report.Group,
	}
}
