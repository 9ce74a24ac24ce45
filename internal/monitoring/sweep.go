package monitoring

import (
	"context"
	"time"

	"tasklist/backend/internal/services"
)

type Sweeper interface {
	Sweep(ctx context.Context, dryRun bool) (*services.SweepReport, error)
}

type observedSweeper struct {
	inner   Sweeper
	monitor *Monitor
}

// ObserveSweeper records every completed pass of inner in the sweep
// counters. Failed user scans are not counted as runs.
func (m *Monitor) ObserveSweeper(inner Sweeper) Sweeper {
	return &observedSweeper{inner: inner, monitor: m}
}

func (s *observedSweeper) Sweep(ctx context.Context, dryRun bool) (*services.SweepReport, error) {
	start := time.Now()
	report, err := s.inner.Sweep(ctx, dryRun)
	if err != nil {
		return report, err
	}
	s.monitor.RecordSweep(report.DryRun, report.Deleted, report.Failed, time.Since(start))
	return report, nil
}
