// Command digest performs a single digest run: fetch current Steam
// activity, diff it against the prior snapshot, post the summary to
// Discord and advance the baseline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/discord"
	"github.com/steam-digest/internal/service"
	"github.com/steam-digest/internal/snapshot"
	"github.com/steam-digest/internal/steam"
	"github.com/steam-digest/internal/summarize"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	mode := flag.String("mode", "run", "run | preview | check")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config file", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var store snapshot.Store
	switch cfg.Snapshot.Backend {
	case "redis":
		redisStore, err := snapshot.NewRedisStore(&cfg.Snapshot.Redis)
		if err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		store = redisStore
	default:
		store = snapshot.NewFileStore(cfg.Snapshot.Path)
	}

	steamClient := steam.NewClient(&cfg.Steam, logger)
	renderer := summarize.NewGeminiRenderer(&cfg.Gemini, logger)
	webhook := discord.NewWebhook(&cfg.Discord, logger)

	digestService := service.NewDigestService(
		steamClient,
		store,
		renderer,
		webhook,
		cfg.Steam.Users,
		logger,
	)

	switch *mode {
	case "run":
		report, err := digestService.Run(ctx)
		if err != nil {
			logger.Error("digest run failed", "error", err)
			os.Exit(1)
		}
		logger.Info("digest posted",
			"run_id", report.RunID,
			"has_activity", report.HasActivity,
			"group_minutes", report.Group.TotalMinutes,
		)

	case "preview":
		report, summary, err := digestService.Preview(ctx)
		if err != nil {
			logger.Error("digest preview failed", "error", err)
			os.Exit(1)
		}
		logger.Info("preview computed", "run_id", report.RunID, "has_activity", report.HasActivity)
		fmt.Println(summary)

	case "check":
		if err := check(ctx, cfg, steamClient, webhook, logger); err != nil {
			logger.Error("check failed", "error", err)
			os.Exit(1)
		}
		logger.Info("check completed successfully")

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q: want run, preview or check\n", *mode)
		os.Exit(1)
	}
}

// check verifies the configuration end to end: webhook reachability and a
// Steam API probe against the first configured user.
func check(ctx context.Context, cfg *config.Config, steamClient *steam.Client, webhook *discord.Webhook, logger *slog.Logger) error {
	logger.Info("configured users", "count", len(cfg.Steam.Users))

	if err := webhook.Test(ctx); err != nil {
		return fmt.Errorf("discord webhook test: %w", err)
	}
	logger.Info("discord webhook test successful")

	probe := cfg.Steam.Users[0]
	games, err := steamClient.FetchUserGames(ctx, probe.SteamID)
	if err != nil {
		return fmt.Errorf("steam api test for %s: %w", probe.Name, err)
	}
	if len(games) == 0 {
		logger.Warn("steam api test returned no games (this might be normal)", "user", probe.Name)
	} else {
		logger.Info("steam api test successful", "user", probe.Name, "games", len(games))
	}
	return nil
}
