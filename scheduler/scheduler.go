// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/creastat/aura/metrics"
	"github.com/creastat/aura/ratelimit"
)

// SweepSchedule runs the rate limit sweep every minute.
const SweepSchedule = "@every 1m"

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler running in UTC
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name with a cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// AddSweep schedules eviction of expired rate limit records.
func (s *Scheduler) AddSweep(sweeper ratelimit.Sweeper) error {
	return s.Add("ratelimit-sweep", SweepSchedule, SweepJob(sweeper, time.Now))
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cancel()
	log.Info().Msg("scheduler stopped")
}

// IsRunning reports whether any job is scheduled
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

// SweepJob evicts records whose window has ended.
func SweepJob(sweeper ratelimit.Sweeper, now func() time.Time) Job {
	return func(ctx context.Context) error {
		removed := sweeper.Sweep(now())
		metrics.RecordSwept(removed)
		if removed > 0 {
			log.Ctx(ctx).Debug().Int("removed", removed).Msg("swept expired rate limit records")
		}
		return nil
	}
}
