package repositories

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"tasklist/backend/internal/models"
)

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, s *models.RecurringSchedule) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) Get(ctx context.Context, id uuid.UUID) (*models.RecurringSchedule, error) {
	var s models.RecurringSchedule
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepository) FindByTask(ctx context.Context, taskID uuid.UUID) (*models.RecurringSchedule, error) {
	var s models.RecurringSchedule
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateCadence rewrites the cadence and bumps the version.
func (r *ScheduleRepository) UpdateCadence(ctx context.Context, id uuid.UUID, cadence models.Cadence) error {
	err := r.db.WithContext(ctx).Model(&models.RecurringSchedule{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cadence": cadence,
			"version": gorm.Expr("version + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("update schedule cadence: %w", err)
	}
	return nil
}

// Relink moves the schedule from expectedTaskID to newTaskID only while it
// still points at expectedTaskID. It returns the number of rows moved.
func (r *ScheduleRepository) Relink(ctx context.Context, id, expectedTaskID, newTaskID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.RecurringSchedule{}).
		Where("id = ? AND task_id = ?", id, expectedTaskID).
		Updates(map[string]interface{}{
			"task_id": newTaskID,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("relink schedule: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.RecurringSchedule{}).Error; err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
