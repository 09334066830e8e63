package domain

import (
	"sort"
	"time"
)

// UserActivity is the per-user delta between two snapshots.
type UserActivity struct {
	// Played maps game title to minutes gained since the prior snapshot.
	// Only games with a positive delta appear here.
	Played map[string]int64 `json:"played"`
	// NewGames lists titles owned now but absent from the prior snapshot,
	// sorted, independent of whether any playtime was recorded.
	NewGames []string `json:"new_games"`
	// FirstPlayed lists titles that were owned before with zero minutes and
	// recorded their first playtime this run, sorted.
	FirstPlayed []string `json:"first_played"`
	// TotalMinutes is the sum of all positive deltas for the user.
	TotalMinutes int64 `json:"total_minutes"`
}

// Session identifies the single largest (user, game) playtime delta of a run.
type Session struct {
	User    string `json:"user"`
	Game    string `json:"game"`
	Minutes int64  `json:"minutes"`
}

// CoPlayedGame is a game with positive playtime from two or more users in
// the same run.
type CoPlayedGame struct {
	Game         string   `json:"game"`
	Players      []string `json:"players"`
	TotalMinutes int64    `json:"total_minutes"`
}

// GamePlay aggregates one game's activity across the whole group.
type GamePlay struct {
	Game         string `json:"game"`
	TotalMinutes int64  `json:"total_minutes"`
}

// GroupSummary is derived from the per-user deltas in a second pass.
type GroupSummary struct {
	TotalMinutes   int64          `json:"total_minutes"`
	MostActiveUser string         `json:"most_active_user,omitempty"`
	MostPlayedGame *GamePlay      `json:"most_played_game,omitempty"`
	LongestSession *Session       `json:"longest_session,omitempty"`
	CoPlayed       []CoPlayedGame `json:"co_played,omitempty"`
	NewGames       []string       `json:"new_games,omitempty"`
}

// Report is the full delta for one digest run.
type Report struct {
	RunID       string                  `json:"run_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Users       map[string]UserActivity `json:"users"`
	Group       GroupSummary            `json:"group"`
	HasActivity bool                    `json:"has_activity"`
}

// ActiveUsers returns the users with positive playtime this run, sorted.
func (r *Report) ActiveUsers() []string {
	users := make([]string, 0, len(r.Users))
	for user, activity := range r.Users {
		if activity.TotalMinutes > 0 {
			users = append(users, user)
		}
	}
	sort.Strings(users)
	return users
}
