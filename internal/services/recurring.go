package services

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tasklist/backend/internal/datemath"
	"tasklist/backend/internal/models"
	"tasklist/backend/internal/repositories"
)

// NextDueDate advances due by one cadence step. With weekendAware set, a
// DAILY step that lands on a weekend moves on to Monday.
func NextDueDate(due time.Time, cadence models.Cadence, weekendAware bool) (time.Time, error) {
	due = datemath.Truncate(due)

	switch cadence {
	case models.CadenceDaily:
		next := datemath.AddDays(due, 1)
		if weekendAware {
			next = datemath.SkipWeekend(next)
		}
		return next, nil
	case models.CadenceWeekly:
		return datemath.AddDays(due, 7), nil
	case models.CadenceMonthly:
		return due.AddDate(0, 1, 0), nil
	case models.CadenceYearly:
		return due.AddDate(1, 0, 0), nil
	}
	return time.Time{}, validationError("unknown cadence %q", cadence)
}

// RecurringEngine owns schedule attachment and successor generation.
type RecurringEngine struct {
	store  *repositories.Store
	logger *zap.Logger
}

func NewRecurringEngine(store *repositories.Store, logger *zap.Logger) *RecurringEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecurringEngine{store: store, logger: logger}
}

// Attach creates the task's schedule or updates its cadence in place.
// It runs on tx so it can share the caller's transaction.
func (e *RecurringEngine) Attach(ctx context.Context, tx *repositories.Store, taskID uuid.UUID, rawCadence string) (*models.RecurringSchedule, error) {
	cadence, ok := models.ParseCadence(rawCadence)
	if !ok {
		return nil, validationError("cadence must be one of DAILY, WEEKLY, MONTHLY, YEARLY, got %q", rawCadence)
	}

	existing, err := tx.Schedules.FindByTask(ctx, taskID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		schedule := &models.RecurringSchedule{TaskID: taskID, Cadence: cadence}
		if err := tx.Schedules.Create(ctx, schedule); err != nil {
			return nil, storeError("create schedule", err)
		}
		return schedule, nil
	case err != nil:
		return nil, storeError("find schedule", err)
	}

	if existing.Cadence != cadence {
		if err := tx.Schedules.UpdateCadence(ctx, existing.ID, cadence); err != nil {
			return nil, storeError("update schedule", err)
		}
		existing.Cadence = cadence
		existing.Version++
	}
	return existing, nil
}

// Detach deletes the task's schedule if it has one. The task is untouched.
func (e *RecurringEngine) Detach(ctx context.Context, tx *repositories.Store, taskID uuid.UUID) (bool, error) {
	existing, err := tx.Schedules.FindByTask(ctx, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeError("find schedule", err)
	}
	if err := tx.Schedules.Delete(ctx, existing.ID); err != nil {
		return false, storeError("delete schedule", err)
	}
	return true, nil
}

// GenerateSuccessor creates the next instance of a completed recurring task
// and moves the schedule onto it. It does nothing unless the task is
// completed, has a due date and has a schedule. The successor insert, tag
// copy and relink commit together; a lost relink rolls the successor back.
func (e *RecurringEngine) GenerateSuccessor(ctx context.Context, completed *models.Task, ignoreWeekends bool) (*models.Task, error) {
	schedule := completed.RecurringSchedule
	if schedule == nil || completed.DueDate == nil || !completed.IsCompleted {
		return nil, nil
	}

	var successor *models.Task
	err := e.store.Transaction(ctx, func(tx *repositories.Store) error {
		list := completed.List
		if list == nil {
			var err error
			if list, err = tx.Lists.Get(ctx, completed.ListID); err != nil {
				return storeError("load list", err)
			}
		}

		next, err := NextDueDate(*completed.DueDate, schedule.Cadence, list.IsStandupList && ignoreWeekends)
		if err != nil {
			return err
		}

		successor = &models.Task{
			TaskName: completed.TaskName,
			ListID:   completed.ListID,
			DueDate:  &next,
		}
		if err := tx.Tasks.Create(ctx, successor); err != nil {
			return storeError("create successor", err)
		}

		tagIDs, err := tx.Tags.TagIDsFor(ctx, completed.ID)
		if err != nil {
			return storeError("load tags", err)
		}
		if err := tx.Tags.Attach(ctx, successor.ID, tagIDs); err != nil {
			return storeError("copy tags", err)
		}

		moved, err := tx.Schedules.Relink(ctx, schedule.ID, completed.ID, successor.ID)
		if err != nil {
			return storeError("relink schedule", err)
		}
		if moved == 0 {
			return e.relinkFailure(ctx, tx, schedule.ID, completed.ID)
		}
		return nil
	})
	if err != nil {
		e.logger.Warn("successor generation failed",
			zap.String("task_id", completed.ID.String()),
			zap.String("schedule_id", schedule.ID.String()),
			zap.String("kind", Kind(err)),
			zap.Error(err))
		return nil, err
	}

	e.logger.Info("generated recurring successor",
		zap.String("task_id", completed.ID.String()),
		zap.String("successor_id", successor.ID.String()),
		zap.String("cadence", string(schedule.Cadence)),
		zap.String("due_date", datemath.Format(successor.DueDate)))
	return successor, nil
}

func (e *RecurringEngine) relinkFailure(ctx context.Context, tx *repositories.Store, scheduleID, taskID uuid.UUID) error {
	_, err := tx.Schedules.Get(ctx, scheduleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("recurring schedule %s no longer exists", scheduleID)
	}
	if err != nil {
		return storeError("load schedule", err)
	}
	return conflictError("recurring schedule %s no longer points at task %s", scheduleID, taskID)
}
