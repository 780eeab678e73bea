package ingest

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs ingest jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewScheduler creates a stopped Scheduler.
func NewScheduler(log *slog.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), log: log}
}

// Add registers fn under the given cron spec (standard 5-field syntax).
func (s *Scheduler) Add(spec string, name string, fn func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.log.Info("scheduled job starting", "job", name)
		fn()
	})
	if err != nil {
		return fmt.Errorf("adding cron job %q: %w", name, err)
	}
	return nil
}

// Start begins running scheduled jobs in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
