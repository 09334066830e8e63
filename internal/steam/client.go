// Package steam fetches the group's current playtime snapshot from the
// Steam Web API.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/domain"
)

const defaultBaseURL = "https://api.steampowered.com"

// Client calls the Steam Web API and normalizes its payloads into the
// snapshot shape. Nothing downstream ever sees a Steam-specific structure.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Steam API client.
func NewClient(cfg *config.SteamConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ownedGamesResponse is the wire shape of IPlayerService/GetOwnedGames.
type ownedGamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []ownedGame `json:"games"`
	} `json:"response"`
}

type ownedGame struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int64  `json:"playtime_forever"`
}

// FetchSnapshot fetches the current library of every configured user and
// returns a validated snapshot. A single user failing degrades to an empty
// library for that user with a warning; the fetch as a whole fails only
// when no user could be read at all.
func (c *Client) FetchSnapshot(ctx context.Context, users []config.User) (domain.Snapshot, error) {
	snapshot := make(domain.Snapshot, len(users))
	failures := 0

	for _, user := range users {
		games, err := c.fetchUserGames(ctx, user.SteamID)
		if err != nil {
			c.logger.Warn("failed to fetch games for user",
				"user", user.Name,
				"steam_id", user.SteamID,
				"error", err,
			)
			snapshot[user.Name] = map[string]int64{}
			failures++
			continue
		}
		c.logger.Info("fetched user library", "user", user.Name, "games", len(games))
		snapshot[user.Name] = games
	}

	if len(users) > 0 && failures == len(users) {
		return nil, fmt.Errorf("%w: no user could be fetched", domain.ErrFetchFailed)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// FetchUserGames returns one user's library as a game-to-minutes map. Used
// by the check subcommand to probe a single configured user.
func (c *Client) FetchUserGames(ctx context.Context, steamID string) (map[string]int64, error) {
	return c.fetchUserGames(ctx, steamID)
}

func (c *Client) fetchUserGames(ctx context.Context, steamID string) (map[string]int64, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamid", steamID)
	params.Set("format", "json")
	params.Set("include_appinfo", "1")
	params.Set("include_played_free_games", "1")

	endpoint := fmt.Sprintf("%s/IPlayerService/GetOwnedGames/v1/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling steam api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("steam api returned %d: %s", resp.StatusCode, body)
	}

	var payload ownedGamesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding steam response: %w", err)
	}

	games := make(map[string]int64, len(payload.Response.Games))
	for _, game := range payload.Response.Games {
		if game.PlaytimeForever < 0 {
			return nil, fmt.Errorf("%w: app %d reports negative playtime %d",
				domain.ErrMalformedSnapshot, game.AppID, game.PlaytimeForever)
		}
		name := game.Name
		if name == "" {
			name = fmt.Sprintf("App %d", game.AppID)
		}
		games[name] = game.PlaytimeForever
	}
	return games, nil
}
