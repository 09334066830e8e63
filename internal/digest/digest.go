// Package digest computes the delta between two playtime snapshots.
package digest

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/steam-digest/internal/domain"
)

// Compute diffs the prior snapshot against the current one and derives the
// group summary. It is total over well-formed snapshots: missing users and
// games default to zero, an empty prior yields the bootstrap full-history
// report, and decreased counters are ignored rather than treated as
// negative activity. Users absent from current produce no entry.
func Compute(prior, current domain.Snapshot) *domain.Report {
	report := &domain.Report{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Users:       make(map[string]domain.UserActivity, len(current)),
	}

	for user, games := range current {
		priorGames := prior.Games(user)
		activity := domain.UserActivity{
			Played: make(map[string]int64, len(games)),
		}

		for game, minutes := range games {
			priorMinutes := priorGames[game]

			if delta := minutes - priorMinutes; delta > 0 {
				activity.Played[game] = delta
				activity.TotalMinutes += delta
				if _, owned := priorGames[game]; owned && priorMinutes == 0 {
					activity.FirstPlayed = append(activity.FirstPlayed, game)
				}
			}

			if _, owned := priorGames[game]; !owned {
				activity.NewGames = append(activity.NewGames, game)
			}
		}

		sort.Strings(activity.NewGames)
		sort.Strings(activity.FirstPlayed)
		report.Users[user] = activity

		if activity.TotalMinutes > 0 {
			report.HasActivity = true
		}
	}

	report.Group = summarize(report.Users)
	return report
}

// summarize derives group-wide statistics from the per-user deltas.
// All argmax results use lexicographic tie-breaks so output is
// deterministic regardless of map iteration order.
func summarize(users map[string]domain.UserActivity) domain.GroupSummary {
	var summary domain.GroupSummary

	type gameAgg struct {
		players []string
		minutes int64
	}
	games := make(map[string]*gameAgg)
	newGames := make(map[string]struct{})

	userIDs := make([]string, 0, len(users))
	for user := range users {
		userIDs = append(userIDs, user)
	}
	sort.Strings(userIDs)

	for _, user := range userIDs {
		activity := users[user]
		summary.TotalMinutes += activity.TotalMinutes

		if activity.TotalMinutes > 0 {
			if summary.MostActiveUser == "" || activity.TotalMinutes > users[summary.MostActiveUser].TotalMinutes {
				summary.MostActiveUser = user
			}
		}

		for _, game := range activity.NewGames {
			newGames[game] = struct{}{}
		}

		for game, minutes := range activity.Played {
			agg, ok := games[game]
			if !ok {
				agg = &gameAgg{}
				games[game] = agg
			}
			agg.players = append(agg.players, user)
			agg.minutes += minutes

			if summary.LongestSession == nil ||
				minutes > summary.LongestSession.Minutes ||
				(minutes == summary.LongestSession.Minutes && lessSession(user, game, summary.LongestSession)) {
				summary.LongestSession = &domain.Session{User: user, Game: game, Minutes: minutes}
			}
		}
	}

	gameTitles := make([]string, 0, len(games))
	for game := range games {
		gameTitles = append(gameTitles, game)
	}
	sort.Strings(gameTitles)

	for _, game := range gameTitles {
		agg := games[game]
		if summary.MostPlayedGame == nil || agg.minutes > summary.MostPlayedGame.TotalMinutes {
			summary.MostPlayedGame = &domain.GamePlay{Game: game, TotalMinutes: agg.minutes}
		}
		if len(agg.players) >= 2 {
			summary.CoPlayed = append(summary.CoPlayed, domain.CoPlayedGame{
				Game:         game,
				Players:      agg.players,
				TotalMinutes: agg.minutes,
			})
		}
	}

	for game := range newGames {
		summary.NewGames = append(summary.NewGames, game)
	}
	sort.Strings(summary.NewGames)

	return summary
}

// lessSession reports whether (user, game) sorts before the current longest
// session, used to break exact-minute ties.
func lessSession(user, game string, s *domain.Session) bool {
	if user != s.User {
		return user < s.User
	}
	return game < s.Game
}
