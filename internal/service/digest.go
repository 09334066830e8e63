// Package service orchestrates one digest run: fetch, diff, render, post,
// persist.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/digest"
	"github.com/steam-digest/internal/domain"
	"github.com/steam-digest/internal/snapshot"
	"github.com/steam-digest/internal/summarize"
)

// Fetcher produces the current playtime snapshot for the configured users.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, users []config.User) (domain.Snapshot, error)
}

// Poster delivers the rendered digest text.
type Poster interface {
	Post(ctx context.Context, message string) error
}

// Archiver records finished runs for history queries.
type Archiver interface {
	RecordRun(ctx context.Context, report *domain.Report, summary string) error
}

// Publisher emits per-user activity events.
type Publisher interface {
	PublishReport(report *domain.Report) error
}

// Broadcaster pushes finished digests to connected clients.
type Broadcaster interface {
	BroadcastDigest(report *domain.Report, summary string)
}

// DigestService runs the digest pipeline. A run is single threaded and
// synchronous; concurrent runs are not guarded against (last snapshot
// writer wins).
type DigestService struct {
	fetcher  Fetcher
	store    snapshot.Store
	renderer summarize.Renderer
	poster   Poster
	users    []config.User
	logger   *slog.Logger

	archive     Archiver
	publisher   Publisher
	broadcaster Broadcaster

	mu            sync.Mutex
	latestReport  *domain.Report
	latestSummary string
}

// NewDigestService creates the digest pipeline with its required
// collaborators. Archive, publisher and broadcaster are optional and
// attached via setters.
func NewDigestService(
	fetcher Fetcher,
	store snapshot.Store,
	renderer summarize.Renderer,
	poster Poster,
	users []config.User,
	logger *slog.Logger,
) *DigestService {
	return &DigestService{
		fetcher:  fetcher,
		store:    store,
		renderer: renderer,
		poster:   poster,
		users:    users,
		logger:   logger,
	}
}

// SetArchive attaches the optional run archive.
func (s *DigestService) SetArchive(archive Archiver) {
	s.archive = archive
}

// SetPublisher attaches the optional activity event publisher.
func (s *DigestService) SetPublisher(publisher Publisher) {
	s.publisher = publisher
}

// SetBroadcaster attaches the optional digest broadcaster.
func (s *DigestService) SetBroadcaster(broadcaster Broadcaster) {
	s.broadcaster = broadcaster
}

// Run performs one full digest run and returns the computed report. The
// snapshot baseline is only advanced after the digest was posted, so a
// failed post leaves the next run with the same delta to report.
func (s *DigestService) Run(ctx context.Context) (*domain.Report, error) {
	report, current, summary, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.poster.Post(ctx, summary); err != nil {
		return nil, fmt.Errorf("posting digest: %w", err)
	}

	if err := s.store.Save(ctx, current); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	s.afterRun(ctx, report, summary)

	s.mu.Lock()
	s.latestReport = report
	s.latestSummary = summary
	s.mu.Unlock()

	s.logger.Info("digest run completed",
		"run_id", report.RunID,
		"has_activity", report.HasActivity,
		"group_minutes", report.Group.TotalMinutes,
	)
	return report, nil
}

// Preview computes and renders a digest without posting it or advancing
// the snapshot baseline.
func (s *DigestService) Preview(ctx context.Context) (*domain.Report, string, error) {
	report, _, summary, err := s.compute(ctx)
	if err != nil {
		return nil, "", err
	}
	return report, summary, nil
}

// Latest returns the most recent finished run, or ErrNoReport before the
// first run completes.
func (s *DigestService) Latest() (*domain.Report, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latestReport == nil {
		return nil, "", domain.ErrNoReport
	}
	return s.latestReport, s.latestSummary, nil
}

func (s *DigestService) compute(ctx context.Context) (*domain.Report, domain.Snapshot, string, error) {
	prior, err := s.store.Load(ctx)
	if err != nil {
		return nil, nil, "", fmt.Errorf("loading prior snapshot: %w", err)
	}
	if len(prior) == 0 {
		s.logger.Info("no prior snapshot found, this is a bootstrap run")
	} else {
		s.logger.Info("loaded prior snapshot", "users", len(prior))
	}

	current, err := s.fetcher.FetchSnapshot(ctx, s.users)
	if err != nil {
		return nil, nil, "", fmt.Errorf("fetching current snapshot: %w", err)
	}

	report := digest.Compute(prior, current)

	summary, err := s.renderer.Render(ctx, report)
	if err != nil {
		return nil, nil, "", fmt.Errorf("rendering summary: %w", err)
	}

	return report, current, summary, nil
}

// afterRun feeds the optional collaborators. Their failures are logged and
// never affect the core run.
func (s *DigestService) afterRun(ctx context.Context, report *domain.Report, summary string) {
	if s.archive != nil {
		if err := s.archive.RecordRun(ctx, report, summary); err != nil {
			s.logger.Warn("failed to archive digest run", "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishReport(report); err != nil {
			s.logger.Warn("failed to publish activity events", "error", err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastDigest(report, summary)
	}
}
