package worker

import (
	"context"

	"go.uber.org/zap"

	"tasklist/backend/internal/services"
)

// SweepPayload builds the payload of an auto-delete job.
func SweepPayload(dryRun bool) map[string]interface{} {
	return map[string]interface{}{"dry_run": dryRun}
}

// Sweeper is the part of services.Sweeper the job needs.
type Sweeper interface {
	Sweep(ctx context.Context, dryRun bool) (*services.SweepReport, error)
}

// SweepHandler runs one auto-delete pass per job. Per-user failures are in
// the report and do not fail the job; only a failed user scan is retried.
func SweepHandler(sweeper Sweeper, logger *zap.Logger) JobHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job *Job) error {
		report, err := sweeper.Sweep(ctx, job.Bool("dry_run"))
		if err != nil {
			return err
		}
		logger.Info("auto-delete job finished",
			zap.String("job_id", job.ID),
			zap.Bool("dry_run", report.DryRun),
			zap.Int64("deleted", report.Deleted),
			zap.Int("failed_users", report.Failed))
		return nil
	}
}
