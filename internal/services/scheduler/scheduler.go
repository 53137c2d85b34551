package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Scheduler repeats the crawl on a cron schedule
type Scheduler struct {
	cron   *cron.Cron
	logger arbor.ILogger
}

// New creates a scheduler
func New(logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the job under the cron expression and begins scheduling
func (s *Scheduler) Start(schedule string, job func()) error {
	if _, err := s.cron.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info().Str("schedule", schedule).Msg("Scheduler started")
	return nil
}

// Stop halts scheduling and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}
