package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"NewsDispatch/internal/ports"
)

// CronScheduler fires dispatch cycles on a cron spec. Cycles never overlap:
// a trigger that arrives while the previous cycle is still running is
// dropped and logged, not queued.
type CronScheduler struct {
	spec   string
	logger *slog.Logger
	cron   *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string
// (robfig syntax, so "@every 10m" works too).
func NewCronScheduler(spec string, logger *slog.Logger) *CronScheduler {
	return &CronScheduler{spec: spec, logger: logger}
}

// Start registers the job and begins scheduling.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger{c.logger}),
	))

	_, err := runner.AddFunc(c.spec, func() {
		job(time.Now())
	})
	if err != nil {
		return fmt.Errorf("register cron job %q: %w", c.spec, err)
	}

	runner.Start()
	c.cron = runner
	return nil
}

// Stop halts scheduling and waits for an in-flight cycle, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}

	done := c.cron.Stop()
	c.cron = nil

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running cycle: %w", ctx.Err())
	}
}

// cronLogger adapts slog to the cron.Logger interface so the overlap-skip
// decision shows up in the application log.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Info(msg, keysAndValues...)
	}
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Error(msg, append(keysAndValues, "error", err)...)
	}
}
