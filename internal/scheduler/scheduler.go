// Package scheduler re-runs jobs such as the market scan on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a scheduled unit of work. It receives the scheduler's context.
type Job func(ctx context.Context)

// Scheduler manages cron tasks. Specs include a seconds field, e.g.
// "0 30 16 * * MON-FRI".
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
	ctx  context.Context
}

// New creates a scheduler. An overlapping run of the same job is skipped
// rather than queued. Jobs see ctx and should return when it is cancelled.
func New(ctx context.Context, log zerolog.Logger, opts ...cron.Option) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}
	base := []cron.Option{
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	}
	return &Scheduler{
		cron: cron.New(append(base, opts...)...),
		log:  log,
		ctx:  ctx,
	}
}

// Register adds a named job.
func (s *Scheduler) Register(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.log.Info().Str("job", name).Msg("running scheduled job")
		job(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("register %s task: %w", name, err)
	}
	return nil
}

// Entries reports the number of registered jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", s.Entries()).Msg("scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.Start()
	<-ctx.Done()
	s.Stop()
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
