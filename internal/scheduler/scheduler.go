// Package scheduler runs the daily wall-clock jobs: the afternoon
// reminder for users who have not logged anything yet, and the evening
// spending recap. Jobs fire at a fixed local hour in the ledger's
// timezone.
package scheduler

import (
	"context"
	"time"

	applog "duitbot/internal/log"
)

// Job is one daily task. Run receives the wall-clock time the tick fired
// at, already in the scheduler's location.
type Job interface {
	Name() string
	Run(ctx context.Context, now time.Time) error
}

// Scheduler fires a job once per day at a fixed hour.
type Scheduler struct {
	job    Job
	hour   int
	loc    *time.Location
	logger *applog.Logger

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(job Job, hour int, loc *time.Location, logger *applog.Logger) *Scheduler {
	return &Scheduler{
		job:    job,
		hour:   hour,
		loc:    loc,
		logger: logger.WithComponent(applog.ComponentScheduler),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Run blocks until ctx is cancelled, firing the job at the configured
// hour each day. A failed run is logged and does not stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.now().In(s.loc)
		next := nextRun(now, s.hour)

		s.logger.Info("scheduled next run",
			"job", s.job.Name(),
			"at", next.Format(time.RFC3339))

		if err := s.sleep(ctx, next.Sub(now)); err != nil {
			return err
		}

		fired := s.now().In(s.loc)
		if err := s.job.Run(ctx, fired); err != nil {
			s.logger.Error("job failed",
				"job", s.job.Name(),
				applog.FieldError, err)
		}
	}
}

// nextRun returns the next occurrence of hour:00 strictly after now.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
