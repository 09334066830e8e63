// Package worker drives the digest service on a fixed interval.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/service"
)

// Scheduler runs one digest per interval, typically daily.
type Scheduler struct {
	service *service.DigestService
	config  *config.ScheduleConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new scheduler
func NewScheduler(svc *service.DigestService, cfg *config.ScheduleConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service: svc,
		config:  cfg,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins the background digest loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("digest scheduler started", "interval", s.config.Interval)

	go s.run(ctx)
	return nil
}

// Stop stops the background digest loop
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("digest scheduler stopped")
	return nil
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	if s.config.RunOnStart {
		s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single digest run, logging rather than propagating
// failure so one bad day does not stop the loop.
func (s *Scheduler) RunOnce(ctx context.Context) {
	started := time.Now()
	report, err := s.service.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled digest run failed", "error", err)
		return
	}
	s.logger.Info("scheduled digest run completed",
		"run_id", report.RunID,
		"duration", time.Since(started),
		"has_activity", report.HasActivity,
	)
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
