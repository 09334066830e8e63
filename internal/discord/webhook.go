// Package discord posts digest messages to a Discord webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/domain"
)

// Webhook posts messages to a single Discord webhook URL. It has no
// contract with the core beyond accepting rendered text.
type Webhook struct {
	url       string
	username  string
	avatarURL string
	http      *http.Client
	logger    *slog.Logger
}

// NewWebhook creates a webhook client.
func NewWebhook(cfg *config.DiscordConfig, logger *slog.Logger) *Webhook {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:       cfg.WebhookURL,
		username:  cfg.Username,
		avatarURL: cfg.AvatarURL,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type webhookPayload struct {
	Content   string `json:"content"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Post sends a message. Empty messages are rejected before the request is
// made.
func (w *Webhook) Post(ctx context.Context, message string) error {
	if message == "" {
		return domain.ErrEmptyMessage
	}

	payload, err := json.Marshal(webhookPayload{
		Content:   message,
		Username:  w.username,
		AvatarURL: w.avatarURL,
	})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting to discord: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, body)
	}

	w.logger.Info("posted digest to discord", "bytes", len(message))
	return nil
}

// Test posts a short probe message, used by the check subcommand.
func (w *Webhook) Test(ctx context.Context) error {
	return w.Post(ctx, "🔧 Steam Digest Bot test message - webhook is working!")
}
