package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SweepFunc triggers one auto-delete pass. In production it enqueues a
// worker job; without redis it runs the sweep inline.
type SweepFunc func(ctx context.Context, dryRun bool) error

// Scheduler wraps cron-based maintenance jobs.
type Scheduler struct {
	cron       *cron.Cron
	logger     *zap.Logger
	jobTimeout time.Duration
}

func New(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")
	cronLog := cron.PrintfLogger(zap.NewStdLog(logger))

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger:     logger,
		jobTimeout: 10 * time.Minute,
	}
}

// ScheduleSweep registers the auto-delete trigger on a standard five-field
// cron spec, for example "0 6 * * *".
func (s *Scheduler) ScheduleSweep(spec string, dryRun bool, run SweepFunc) (cron.EntryID, error) {
	if run == nil {
		return 0, fmt.Errorf("sweep func is required")
	}
	id, err := s.cron.AddFunc(spec, func() {
		s.runSweep(run, dryRun)
	})
	if err != nil {
		return 0, fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	s.logger.Info("auto-delete sweep scheduled",
		zap.String("spec", spec),
		zap.Bool("dry_run", dryRun))
	return id, nil
}

func (s *Scheduler) runSweep(run SweepFunc, dryRun bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	if err := run(ctx, dryRun); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("auto-delete sweep trigger failed", zap.Bool("dry_run", dryRun), zap.Error(err))
	}
}

// Next reports when entry id fires next; zero if it is unknown or the
// scheduler is stopped.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
