// Package scheduler runs the periodic jobs of the news service on cron
// expressions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job represents a scheduled task.
type Job struct {
	Name     string
	Schedule string // standard 5-field cron expression or descriptor like "@every 10m"
	Fn       func(ctx context.Context) error
}

// Scheduler runs jobs on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	jobs   []Job
	logger *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler evaluating schedules in loc. A nil loc means UTC,
// the timezone ledger dates are keyed in.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	logger := slog.Default().With("component", "scheduler")
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    context.Background(),
	}
}

// Add registers job. Jobs with an empty schedule are kept for RunOnce but
// never fire on their own.
func (s *Scheduler) Add(job Job) error {
	if job.Fn == nil {
		return fmt.Errorf("job %q has no function", job.Name)
	}
	if job.Schedule != "" {
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.run(s.jobContext(), job) }); err != nil {
			return fmt.Errorf("schedule job %q (%s): %w", job.Name, job.Schedule, err)
		}
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Jobs returns the registered jobs in registration order.
func (s *Scheduler) Jobs() []Job {
	return append([]Job(nil), s.jobs...)
}

// RunOnce executes every registered job once, in order. A failing job does
// not stop the rest; all failures are returned joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs []error
	for _, job := range s.jobs {
		if err := s.run(ctx, job); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", job.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Start begins firing jobs in the background. The jobs receive a context
// derived from ctx; cancelling ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	jobCtx := s.ctx
	s.mu.Unlock()

	s.logger.Info("scheduler started", "jobs", len(s.jobs), "scheduled", len(s.cron.Entries()))
	s.cron.Start()

	go func() {
		<-jobCtx.Done()
		s.Stop()
	}()
}

// Stop halts scheduling and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	s.logger.Info("running job", "name", job.Name)
	start := time.Now()
	if err := job.Fn(ctx); err != nil {
		s.logger.Error("job failed", "name", job.Name, "error", err, "duration", time.Since(start))
		return err
	}
	s.logger.Info("job completed", "name", job.Name, "duration", time.Since(start))
	return nil
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
