package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"tasklist/backend/internal/datemath"
	"tasklist/backend/internal/models"
	"tasklist/backend/internal/repositories"
)

// ScheduleInput requests a recurrence on a task.
type ScheduleInput struct {
	Cadence string
}

type NewTask struct {
	TaskName          string
	ListID            uuid.UUID
	DueDate           *time.Time
	TagIDs            []uuid.UUID
	RecurringSchedule *ScheduleInput
}

// TaskPatch is a partial task update. Nil pointers leave fields untouched,
// a nil TagIDs keeps the tag set, and a nil RecurringSchedule removes any
// schedule the task has.
type TaskPatch struct {
	TaskName          *string
	DueDate           datemath.OptionalDate
	IsCompleted       *bool
	DateCompleted     datemath.OptionalDate
	ListID            *uuid.UUID
	TagIDs            []uuid.UUID
	RecurringSchedule *ScheduleInput
}

type TaskResult struct {
	Task      *models.Task
	Successor *models.Task
}

type TaskService struct {
	store     *repositories.Store
	recurring *RecurringEngine
	settings  SettingsReader
	clock     datemath.Clock
	logger    *zap.Logger
}

func NewTaskService(store *repositories.Store, recurring *RecurringEngine, settings SettingsReader, clock datemath.Clock, logger *zap.Logger) *TaskService {
	if clock == nil {
		clock = datemath.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{store: store, recurring: recurring, settings: settings, clock: clock, logger: logger}
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.store.Tasks.GetForUser(ctx, userID, taskID)
	if err != nil {
		return nil, storeError("load task", err)
	}
	return task, nil
}

// CreateTask inserts a task with no ordering positions. Tags and the
// optional schedule are written in the same transaction.
func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, in NewTask) (*models.Task, error) {
	name := strings.TrimSpace(in.TaskName)
	if name == "" {
		return nil, validationError("taskName is required")
	}
	if in.ListID == uuid.Nil {
		return nil, validationError("listId is required")
	}

	var created *models.Task
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Lists.GetForUser(ctx, userID, in.ListID); err != nil {
			return storeError("load list", err)
		}

		task := &models.Task{TaskName: name, ListID: in.ListID}
		if in.DueDate != nil {
			task.DueDate = datemath.Ptr(datemath.Truncate(*in.DueDate))
		}
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return storeError("create task", err)
		}

		tagIDs, err := ownedTags(ctx, tx, userID, in.TagIDs)
		if err != nil {
			return err
		}
		if err := tx.Tags.Attach(ctx, task.ID, tagIDs); err != nil {
			return storeError("attach tags", err)
		}

		if in.RecurringSchedule != nil {
			if _, err := s.recurring.Attach(ctx, tx, task.ID, in.RecurringSchedule.Cadence); err != nil {
				return err
			}
		}

		created, err = tx.Tasks.GetForUser(ctx, userID, task.ID)
		return storeError("reload task", err)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		zap.String("user_id", userID.String()),
		zap.String("task_id", created.ID.String()),
		zap.String("list_id", created.ListID.String()))
	return created, nil
}

// CompleteOrUpdateTask applies patch and, when the task has just been
// completed and still has a schedule, generates its successor after the
// update has committed.
func (s *TaskService) CompleteOrUpdateTask(ctx context.Context, userID, taskID uuid.UUID, patch TaskPatch) (*TaskResult, error) {
	if patch.TaskName == nil && !patch.DueDate.Set {
		return nil, validationError("taskName or dueDate is required")
	}
	if patch.TaskName != nil && strings.TrimSpace(*patch.TaskName) == "" {
		return nil, validationError("taskName cannot be empty")
	}

	var (
		updated   *models.Task
		completed bool
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		current, err := tx.Tasks.GetForUser(ctx, userID, taskID)
		if err != nil {
			return storeError("load task", err)
		}

		fields, err := s.patchFields(current, patch)
		if err != nil {
			return err
		}
		completed = !current.IsCompleted && fields["is_completed"] == true

		if patch.ListID != nil && *patch.ListID != current.ListID {
			if _, err := tx.Lists.GetForUser(ctx, userID, *patch.ListID); err != nil {
				return storeError("load list", err)
			}
			fields["list_id"] = *patch.ListID
		}

		rows, err := tx.Tasks.UpdateForUser(ctx, userID, taskID, fields)
		if err != nil {
			return storeError("update task", err)
		}
		if rows == 0 {
			return notFoundError("task %s", taskID)
		}

		if patch.TagIDs != nil {
			tagIDs, err := ownedTags(ctx, tx, userID, patch.TagIDs)
			if err != nil {
				return err
			}
			if err := tx.Tags.Replace(ctx, taskID, tagIDs); err != nil {
				return storeError("replace tags", err)
			}
		}

		if patch.RecurringSchedule != nil {
			if _, err := s.recurring.Attach(ctx, tx, taskID, patch.RecurringSchedule.Cadence); err != nil {
				return err
			}
		} else if _, err := s.recurring.Detach(ctx, tx, taskID); err != nil {
			return err
		}

		updated, err = tx.Tasks.GetForUser(ctx, userID, taskID)
		return storeError("reload task", err)
	})
	if err != nil {
		return nil, err
	}

	result := &TaskResult{Task: updated}
	if !completed || updated.RecurringSchedule == nil {
		return result, nil
	}

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	successor, err := s.recurring.GenerateSuccessor(ctx, updated, settings.DailyReportIgnoreWeekends)
	switch {
	case errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound):
		// Another completion already moved the schedule on.
		return result, nil
	case err != nil:
		return nil, err
	}
	result.Successor = successor
	return result, nil
}

// patchFields turns patch into column updates and keeps dateCompleted set
// exactly when the task is completed.
func (s *TaskService) patchFields(current *models.Task, patch TaskPatch) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if patch.TaskName != nil {
		fields["task_name"] = strings.TrimSpace(*patch.TaskName)
	}
	if patch.DueDate.Set {
		fields["due_date"] = patch.DueDate.Value
	}

	isCompleted := current.IsCompleted
	if patch.IsCompleted != nil {
		isCompleted = *patch.IsCompleted
	}
	fields["is_completed"] = isCompleted

	if !isCompleted {
		if patch.DateCompleted.Set && patch.DateCompleted.Value != nil {
			return nil, validationError("dateCompleted requires isCompleted")
		}
		fields["date_completed"] = nil
		return fields, nil
	}

	switch {
	case patch.DateCompleted.Set && patch.DateCompleted.Value != nil:
		fields["date_completed"] = *patch.DateCompleted.Value
	case current.IsCompleted && current.DateCompleted != nil && !patch.DateCompleted.Clear():
		fields["date_completed"] = *current.DateCompleted
	default:
		fields["date_completed"] = datemath.Truncate(s.clock.Now())
	}
	return fields, nil
}

// DeleteTask removes a task and its tag associations. A task that a
// schedule still points at cannot be deleted.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		task, err := tx.Tasks.GetForUser(ctx, userID, taskID)
		if err != nil {
			return storeError("load task", err)
		}
		if task.RecurringSchedule != nil {
			return conflictError("task %s has a recurring schedule; remove it first", taskID)
		}

		deleted, err := tx.Tasks.DeleteMatching(ctx, repositories.TaskQuery{
			UserID:      userID,
			IDs:         []uuid.UUID{taskID},
			Unscheduled: true,
		})
		if err != nil {
			return storeError("delete task", err)
		}
		if deleted == 0 {
			return conflictError("task %s changed while deleting", taskID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("task deleted", zap.String("user_id", userID.String()), zap.String("task_id", taskID.String()))
	return nil
}

// DeleteCompleted removes every completed task of the user that no
// schedule points at.
func (s *TaskService) DeleteCompleted(ctx context.Context, userID uuid.UUID) (int64, error) {
	done := true
	var deleted int64
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		deleted, err = tx.Tasks.DeleteMatching(ctx, repositories.TaskQuery{
			UserID:      userID,
			Completed:   &done,
			Unscheduled: true,
		})
		return err
	})
	if err != nil {
		return 0, storeError("delete completed tasks", err)
	}

	s.logger.Info("completed tasks deleted", zap.String("user_id", userID.String()), zap.Int64("deleted", deleted))
	return deleted, nil
}

func ownedTags(ctx context.Context, tx *repositories.Store, userID uuid.UUID, tagIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(tagIDs))
	unique := make([]uuid.UUID, 0, len(tagIDs))
	for _, id := range tagIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	owned, err := tx.Tags.OwnedIDs(ctx, userID, unique)
	if err != nil {
		return nil, storeError("load tags", err)
	}
	if len(owned) != len(unique) {
		return nil, notFoundError("one or more tags do not exist")
	}
	return owned, nil
}
