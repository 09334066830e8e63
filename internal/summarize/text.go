package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/steam-digest/internal/domain"
)

// TextRenderer produces a plain Discord-markdown summary. It is the
// fallback when the AI renderer fails and the default when no API key is
// configured. Output is deterministic for a given report.
type TextRenderer struct{}

// NewTextRenderer creates a TextRenderer.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// Render formats the report as a markdown digest.
func (t *TextRenderer) Render(ctx context.Context, report *domain.Report) (string, error) {
	if !report.HasActivity {
		return NoActivityMessage, nil
	}

	parts := []string{"🎮 **Daily Gaming Digest**"}

	if active := report.ActiveUsers(); len(active) > 0 {
		parts = append(parts, fmt.Sprintf("**Active Players:** %s", strings.Join(active, ", ")))
	}

	if report.Group.TotalMinutes > 0 {
		parts = append(parts, fmt.Sprintf("**Total Group Time:** %s", formatMinutes(report.Group.TotalMinutes)))
	}

	if game := report.Group.MostPlayedGame; game != nil {
		parts = append(parts, fmt.Sprintf("**Most Played:** %s (%s)", game.Game, formatMinutes(game.TotalMinutes)))
	}

	if session := report.Group.LongestSession; session != nil {
		parts = append(parts, fmt.Sprintf("**Longest Session:** %s on %s (%s)",
			session.User, session.Game, formatMinutes(session.Minutes)))
	}

	if len(report.Group.CoPlayed) > 0 {
		games := make([]string, len(report.Group.CoPlayed))
		for i, co := range report.Group.CoPlayed {
			games[i] = co.Game
		}
		parts = append(parts, fmt.Sprintf("**Co-op Games:** %s", strings.Join(games, ", ")))
	}

	users := make([]string, 0, len(report.Users))
	for user := range report.Users {
		users = append(users, user)
	}
	sort.Strings(users)

	for _, user := range users {
		activity := report.Users[user]
		if len(activity.NewGames) > 0 {
			parts = append(parts, fmt.Sprintf("**%s's New Games:** %s", user, strings.Join(activity.NewGames, ", ")))
		}
		if len(activity.FirstPlayed) > 0 {
			parts = append(parts, fmt.Sprintf("**%s Tried for First Time:** %s", user, strings.Join(activity.FirstPlayed, ", ")))
		}
	}

	return strings.Join(parts, "\n"), nil
}

func formatMinutes(minutes int64) string {
	hours := minutes / 60
	rest := minutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, rest)
	}
	return fmt.Sprintf("%dm", rest)
}
