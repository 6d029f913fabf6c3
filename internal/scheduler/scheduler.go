// Package scheduler runs the recurring background jobs: the daily advisory
// batch and hourly cache eviction.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// AdvisoryRunner runs the full-directory advisory evaluation.
type AdvisoryRunner func(ctx context.Context) error

// EvictionRunner deletes expired weather snapshots.
type EvictionRunner func(ctx context.Context) (int64, error)

// Scheduler owns the gocron instance and the job closures.
type Scheduler struct {
	scheduler *gocron.Scheduler
	advisory  AdvisoryRunner
	eviction  EvictionRunner
	cronSpec  string
	logger    *slog.Logger
}

// New creates a scheduler. cronSpec is a standard five-field cron expression
// in UTC for the advisory batch; eviction always runs hourly.
func New(cronSpec string, advisory AdvisoryRunner, eviction EvictionRunner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		advisory:  advisory,
		eviction:  eviction,
		cronSpec:  cronSpec,
		logger:    logger,
	}
}

// Start registers the jobs and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Cron(s.cronSpec).Do(s.runAdvisoryBatch); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Hour().Do(s.runEviction); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "advisory_cron", s.cronSpec)
	return nil
}

// Stop halts the scheduler and cancels future jobs. Running jobs finish.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) runAdvisoryBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	s.logger.Info("advisory batch job starting")
	if err := s.advisory(ctx); err != nil {
		s.logger.Error("advisory batch job failed", "error", err)
	}
}

func (s *Scheduler) runEviction() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.eviction(ctx)
	if err != nil {
		s.logger.Error("snapshot eviction failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("expired snapshots evicted", "count", deleted)
	}
}
