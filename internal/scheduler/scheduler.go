package scheduler

import (
	"time"

	"equiprent-backend/internal/jobs"
	"equiprent-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler and registers the maintenance jobs. It
// fails on an invalid cron expression.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// UTC, with a leading seconds field
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.ReleaseStalePending, s.jobs.ReleaseStalePending); err != nil {
		logger.Error("Failed to register ReleaseStalePending job", "error", err, "spec", cfg.ReleaseStalePending)
		return err
	}

	if _, err := s.cron.AddFunc(cfg.PurgeEndedBlocks, s.jobs.PurgeEndedBlocks); err != nil {
		logger.Error("Failed to register PurgeEndedBlocks job", "error", err, "spec", cfg.PurgeEndedBlocks)
		return err
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries exposes the registered schedule, mostly for tests and startup logs.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
