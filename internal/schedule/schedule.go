// Package schedule runs recurring jobs on cron expressions.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"finanzas/internal/log"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs jobs with the standard five-field cron syntax.
type Scheduler struct {
	cron    *cron.Cron
	logger  *log.Logger
	timeout time.Duration
}

func New(logger *log.Logger, timeout time.Duration) *Scheduler {
	logger = logger.WithComponent(log.ComponentSchedule)
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: timeout,
	}
}

// Add registers job under name. Each run gets its own timeout context.
func (s *Scheduler) Add(spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("schedule %s on %q: %w", name, spec, err)
	}
	s.logger.Info("Job scheduled", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Scheduled job failed", "job", name, log.FieldError, err)
		return
	}
	s.logger.InfoContext(ctx, "Scheduled job finished",
		"job", name,
		log.FieldDuration, time.Since(start).Milliseconds())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running ones to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Gave up waiting for scheduled jobs")
	}
}

// cronLogger routes cron's own logging through the component logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append([]any{log.FieldError, err}, keysAndValues...)...)
}
