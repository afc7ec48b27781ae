// Package scheduler runs recurring maintenance jobs on cron expressions.
// The API server registers the idle-session sweeper here.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/UniNest/NestGuide/internal/flow"
)

// Scheduler wraps a cron runner for background jobs.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a started-on-demand scheduler supporting optional
// seconds in cron expressions.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
		))),
	}
}

// AddJob registers a job under a cron expression.
func (s *Scheduler) AddJob(spec string, job func()) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return 0, fmt.Errorf("failed to add cron job: %w", err)
	}
	slog.Info("Scheduler.AddJob: job registered", "spec", spec, "entryID", id)
	return id, nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SweepIdleSessions returns a job that tears down and unregisters sessions
// idle for at least ttl. Their profile data is already persisted; only the
// in-memory conversation is discarded.
func SweepIdleSessions(registry *flow.Registry, timer flow.Timer, ttl time.Duration) func() {
	return func() {
		idle := registry.Idle(time.Now(), ttl)
		for _, s := range idle {
			s.Teardown(timer)
			registry.Remove(s.ID)
		}
		if len(idle) > 0 {
			slog.Info("Scheduler: swept idle sessions", "count", len(idle), "ttl", ttl)
		}
	}
}
