package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tasklist/backend/internal/models"
)

// OrderColumn is one of the two task ordering columns.
type OrderColumn string

const (
	OrderListView     OrderColumn = "list_view_order"
	OrderCombinedView OrderColumn = "combined_view_order"
)

// TaskQuery narrows a user's tasks. Zero fields are ignored.
type TaskQuery struct {
	UserID        uuid.UUID
	ListID        *uuid.UUID
	Completed     *bool
	DueBefore     *time.Time // due_date < DueBefore
	DueFrom       *time.Time // due_date >= DueFrom
	CompletedFrom *time.Time // date_completed >= CompletedFrom
	CompletedTo   *time.Time // date_completed <= CompletedTo
	IDs           []uuid.UUID
	StandupOnly   bool
	BlockedOnly   bool
	Unscheduled   bool
	OrderBy       OrderColumn
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetForUser loads a task with its tags, schedule and list, scoped to the
// owner of its list.
func (r *TaskRepository) GetForUser(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Joins("JOIN lists ON lists.id = tasks.list_id").
		Where("tasks.id = ? AND lists.user_id = ?", taskID, userID).
		Preload("TaskTags.Tag").
		Preload("RecurringSchedule").
		Preload("List").
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Find(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	var tasks []models.Task
	db := r.scoped(ctx, q).
		Preload("TaskTags.Tag").
		Preload("List")

	if q.OrderBy != "" {
		col := string(q.OrderBy)
		db = db.Order(fmt.Sprintf("tasks.%s IS NULL, tasks.%s ASC, tasks.created_at ASC, tasks.id ASC", col, col))
	} else {
		db = db.Order("tasks.created_at ASC, tasks.id ASC")
	}

	if err := db.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindIDs returns only the ids matching q.
func (r *TaskRepository) FindIDs(ctx context.Context, q TaskQuery) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.scoped(ctx, q).Pluck("tasks.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateForUser writes fields on one task owned by userID. Zero rows
// affected means the task is gone or not the user's.
func (r *TaskRepository) UpdateForUser(ctx context.Context, userID, taskID uuid.UUID, fields map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND list_id IN (?)", taskID, r.userLists(ctx, userID)).
		Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("update task: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteMatching removes the tasks matching q together with their tag
// associations. The filter is evaluated at delete time, so rows that stopped
// matching are skipped.
func (r *TaskRepository) DeleteMatching(ctx context.Context, q TaskQuery) (int64, error) {
	q.OrderBy = ""
	tagSub := r.scoped(ctx, q).Select("tasks.id")
	if err := r.db.WithContext(ctx).Where("task_id IN (?)", tagSub).Delete(&models.TaskTag{}).Error; err != nil {
		return 0, fmt.Errorf("delete task tags: %w", err)
	}

	taskSub := r.scoped(ctx, q).Select("tasks.id")
	res := r.db.WithContext(ctx).Where("id IN (?)", taskSub).Delete(&models.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *TaskRepository) userLists(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.List{}).Select("id").Where("user_id = ?", userID)
}

func (r *TaskRepository) scoped(ctx context.Context, q TaskQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.Task{}).
		Joins("JOIN lists ON lists.id = tasks.list_id").
		Where("lists.user_id = ?", q.UserID)

	if q.ListID != nil {
		db = db.Where("tasks.list_id = ?", *q.ListID)
	}
	if q.Completed != nil {
		db = db.Where("tasks.is_completed = ?", *q.Completed)
	}
	if q.DueBefore != nil {
		db = db.Where("tasks.due_date < ?", *q.DueBefore)
	}
	if q.DueFrom != nil {
		db = db.Where("tasks.due_date >= ?", *q.DueFrom)
	}
	if q.CompletedFrom != nil {
		db = db.Where("tasks.date_completed >= ?", *q.CompletedFrom)
	}
	if q.CompletedTo != nil {
		db = db.Where("tasks.date_completed <= ?", *q.CompletedTo)
	}
	if len(q.IDs) > 0 {
		db = db.Where("tasks.id IN ?", q.IDs)
	}
	if q.StandupOnly {
		db = db.Where("lists.is_standup_list = ?", true)
	}
	if q.BlockedOnly {
		db = db.Where(
			"EXISTS (SELECT 1 FROM task_tags JOIN tags ON tags.id = task_tags.tag_id WHERE task_tags.task_id = tasks.id AND LOWER(tags.tag_name) = ?)",
			models.BlockedTagName,
		)
	}
	if q.Unscheduled {
		db = db.Where("NOT EXISTS (SELECT 1 FROM recurring_schedules WHERE recurring_schedules.task_id = tasks.id)")
	}
	return db
}
