// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stwalsh4118/wealthmap/internal/config"
	"github.com/stwalsh4118/wealthmap/internal/logger"
)

// Sweeper drops idle map sessions.
type Sweeper interface {
	Sweep(ttl time.Duration) int
}

// Scheduler sweeps idle map sessions on the configured schedule.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	log     *logger.Logger
	spec    string
	ttl     time.Duration
}

// New creates a scheduler. Start must be called to begin running jobs.
func New(cfg config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper: sweeper,
		log:     log,
		spec:    cfg.SweepCron,
		ttl:     cfg.SessionIdleTTL,
	}
}

// Start registers the sweep job and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.spec, err)
	}
	s.cron.Start()

	s.log.Info("Scheduler started", map[string]interface{}{
		"sweep_cron": s.spec,
		"idle_ttl":   s.ttl.String(),
	})
	return nil
}

// Stop halts the runner and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunOnce sweeps immediately and returns the number of sessions removed.
func (s *Scheduler) RunOnce() int {
	removed := s.sweeper.Sweep(s.ttl)
	s.log.Debug("Session sweep finished", map[string]interface{}{
		"removed": removed,
	})
	return removed
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, fields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, err, fields(keysAndValues))
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return out
}
