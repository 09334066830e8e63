// Package postgres archives digest runs for history queries beyond the
// single rolling snapshot.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/domain"
)

// Archive records each digest run and its per-user activity events.
type Archive struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewArchive creates a connection pool to PostgreSQL
func NewArchive(cfg *config.PostgresConfig, logger *slog.Logger) (*Archive, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Archive{pool: pool, logger: logger}, nil
}

// Close closes the connection pool
func (a *Archive) Close() {
	a.pool.Close()
}

// RunMigrations creates the archive tables if they don't exist
func (a *Archive) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS digest_runs (
			id VARCHAR(36) PRIMARY KEY,
			generated_at TIMESTAMP NOT NULL,
			has_activity BOOLEAN NOT NULL,
			total_minutes BIGINT NOT NULL,
			most_active_user VARCHAR(255),
			summary TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS activity_events (
			id BIGSERIAL PRIMARY KEY,
			run_id VARCHAR(36) NOT NULL REFERENCES digest_runs(id) ON DELETE CASCADE,
			user_name VARCHAR(255) NOT NULL,
			game_title VARCHAR(512) NOT NULL,
			minutes BIGINT NOT NULL,
			new_game BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_events_run ON activity_events(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_events_user ON activity_events(user_name, created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := a.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	a.logger.Info("archive migrations completed")
	return nil
}

// RecordRun stores one digest run with its rendered summary and every
// positive playtime delta.
func (a *Archive) RecordRun(ctx context.Context, report *domain.Report, summary string) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO digest_runs (id, generated_at, has_activity, total_minutes, most_active_user, summary)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		report.RunID,
		report.GeneratedAt,
		report.HasActivity,
		report.Group.TotalMinutes,
		report.Group.MostActiveUser,
		summary,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	for user, activity := range report.Users {
		newGames := make(map[string]bool, len(activity.NewGames))
		for _, game := range activity.NewGames {
			newGames[game] = true
		}
		for game, minutes := range activity.Played {
			_, err := a.pool.Exec(ctx, `
				INSERT INTO activity_events (run_id, user_name, game_title, minutes, new_game)
				VALUES ($1, $2, $3, $4, $5)
			`, report.RunID, user, game, minutes, newGames[game])
			if err != nil {
				return fmt.Errorf("recording activity event: %w", err)
			}
		}
	}
	return nil
}

// RunSummary is one archived digest run.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	HasActivity    bool      `json:"has_activity"`
	TotalMinutes   int64     `json:"total_minutes"`
	MostActiveUser string    `json:"most_active_user,omitempty"`
}

// ListRecentRuns returns the most recent archived runs, newest first.
func (a *Archive) ListRecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := a.pool.Query(ctx, `
		SELECT id, generated_at, has_activity, total_minutes, COALESCE(most_active_user, '')
		FROM digest_runs
		ORDER BY generated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.RunID, &run.GeneratedAt, &run.HasActivity, &run.TotalMinutes, &run.MostActiveUser); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UserTotals returns cumulative archived minutes per user across all runs.
func (a *Archive) UserTotals(ctx context.Context) (map[string]int64, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT user_name, SUM(minutes)
		FROM activity_events
		GROUP BY user_name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying user totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var user string
		var minutes int64
		if err := rows.Scan(&user, &minutes); err != nil {
			return nil, fmt.Errorf("scanning user total: %w", err)
		}
		totals[user] = minutes
	}
	return totals, rows.Err()
}
