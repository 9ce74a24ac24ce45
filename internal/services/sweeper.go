package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"tasklist/backend/internal/datemath"
	"tasklist/backend/internal/models"
	"tasklist/backend/internal/repositories"
)

// UserSweep is the outcome of one user's pass.
type UserSweep struct {
	UserID     uuid.UUID               `json:"userId"`
	Policy     models.AutoDeletePolicy `json:"policy"`
	Cutoff     string                  `json:"cutoff"`
	Candidates []uuid.UUID             `json:"candidates"`
	Deleted    int64                   `json:"deleted"`
	Error      string                  `json:"error,omitempty"`
}

type SweepReport struct {
	StartedAt time.Time   `json:"startedAt"`
	Duration  string      `json:"duration"`
	DryRun    bool        `json:"dryRun"`
	Users     []UserSweep `json:"users"`
	Deleted   int64       `json:"deleted"`
	Failed    int         `json:"failed"`
}

// Sweeper deletes completed tasks older than each user's retention policy.
// A completed task that a recurring schedule still points at is never swept,
// however old. It becomes eligible once the schedule moves on to a successor or
// is detached.
type Sweeper struct {
	store  *repositories.Store
	clock  datemath.Clock
	logger *zap.Logger
}

func NewSweeper(store *repositories.Store, clock datemath.Clock, logger *zap.Logger) *Sweeper {
	if clock == nil {
		clock = datemath.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{store: store, clock: clock, logger: logger}
}

// Sweep runs one pass over every user with a retention policy. A failing
// user is recorded in the report and the pass moves on. The returned error
// is reserved for failing to enumerate users.
func (s *Sweeper) Sweep(ctx context.Context, dryRun bool) (*SweepReport, error) {
	started := time.Now()
	now := s.clock.Now()
	report := &SweepReport{StartedAt: now, DryRun: dryRun, Users: []UserSweep{}}

	users, err := s.store.Users.WithAutoDelete(ctx)
	if err != nil {
		return nil, storeError("list users with auto delete", err)
	}

	today := datemath.Truncate(now)
	for i := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := s.sweepUser(ctx, &users[i], today, dryRun)
		if result.Error != "" {
			report.Failed++
		}
		report.Deleted += result.Deleted
		report.Users = append(report.Users, result)
	}

	report.Duration = time.Since(started).String()
	s.logger.Info("auto-delete sweep finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("users", len(report.Users)),
		zap.Int64("deleted", report.Deleted),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *Sweeper) sweepUser(ctx context.Context, user *models.User, today time.Time, dryRun bool) (result UserSweep) {
	result = UserSweep{UserID: user.ID, Policy: user.AutoDeleteTasks, Candidates: []uuid.UUID{}}
	log := s.logger.With(
		zap.String("user_id", user.ID.String()),
		zap.String("policy", string(user.AutoDeleteTasks)))

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Sprintf("panic: %v", r)
			log.Error("auto-delete sweep panicked", zap.Any("panic", r))
		}
	}()

	days := user.AutoDeleteTasks.RetentionDays()
	if days < 0 {
		return result
	}
	cutoff := datemath.AddDays(today, -days)
	result.Cutoff = cutoff.Format(datemath.DateLayout)

	done := true
	q := repositories.TaskQuery{
		UserID:      user.ID,
		Completed:   &done,
		CompletedTo: &cutoff,
		Unscheduled: true,
	}

	ids, err := s.store.Tasks.FindIDs(ctx, q)
	if err != nil {
		result.Error = storeError("find sweep candidates", err).Error()
		log.Error("auto-delete sweep failed", zap.Error(err))
		return result
	}
	result.Candidates = ids

	if dryRun || len(ids) == 0 {
		log.Info("auto-delete sweep candidates",
			zap.Bool("dry_run", dryRun),
			zap.String("cutoff", result.Cutoff),
			zap.Int("candidates", len(ids)))
		return result
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		deleted, err := tx.Tasks.DeleteMatching(ctx, q)
		if err != nil {
			return err
		}
		result.Deleted = deleted
		return nil
	})
	if err != nil {
		result.Deleted = 0
		result.Error = storeError("delete sweep candidates", err).Error()
		log.Error("auto-delete sweep failed", zap.Error(err))
		return result
	}

	log.Info("auto-delete sweep deleted tasks",
		zap.String("cutoff", result.Cutoff),
		zap.Int64("deleted", result.Deleted))
	return result
}
