// Package summarize renders a digest report as chat-ready text.
package summarize

import (
	"context"

	"github.com/steam-digest/internal/domain"
)

// NoActivityMessage is posted on quiet days without calling any API.
const NoActivityMessage = "🎮 No gaming activity detected today. Everyone must be taking a break! 🛋️"

// Renderer turns a report into the text posted to chat.
type Renderer interface {
	Render(ctx context.Context, report *domain.Report) (string, error)
}
