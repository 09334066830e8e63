package domain

import "fmt"

// Snapshot is a point-in-time record of cumulative playtime, in minutes,
// per user per game. A missing user or game means zero observed playtime.
// Playtime counters are non-decreasing while a user owns a game; the diff
// engine tolerates decreases (upstream corrections) by ignoring them.
type Snapshot map[string]map[string]int64

// Games returns the game map for a user, treating an absent user as an
// empty library.
func (s Snapshot) Games(user string) map[string]int64 {
	if s == nil {
		return nil
	}
	return s[user]
}

// Minutes returns the recorded playtime for a (user, game) pair, defaulting
// to zero when either is absent.
func (s Snapshot) Minutes(user, game string) int64 {
	return s.Games(user)[game]
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for user, games := range s {
		cp := make(map[string]int64, len(games))
		for game, minutes := range games {
			cp[game] = minutes
		}
		out[user] = cp
	}
	return out
}

// Validate checks snapshot invariants. Absent users and games are fine;
// negative playtime is not and would corrupt downstream totals.
func (s Snapshot) Validate() error {
	for user, games := range s {
		for game, minutes := range games {
			if minutes < 0 {
				return fmt.Errorf("%w: user %q game %q has negative playtime %d",
					ErrMalformedSnapshot, user, game, minutes)
			}
		}
	}
	return nil
}
