package repositories

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tasklist/backend/internal/models"
)

// TagRepository covers tags and the task_tags association.
type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// OwnedIDs filters tagIDs down to those belonging to the user.
func (r *TagRepository) OwnedIDs(ctx context.Context, userID uuid.UUID, tagIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Tag{}).
		Where("user_id = ? AND id IN ?", userID, tagIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *TagRepository) Attach(ctx context.Context, taskID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]models.TaskTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, models.TaskTag{TaskID: taskID, TagID: id})
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error; err != nil {
		return fmt.Errorf("attach tags: %w", err)
	}
	return nil
}

// Replace swaps the task's tag set for tagIDs.
func (r *TagRepository) Replace(ctx context.Context, taskID uuid.UUID, tagIDs []uuid.UUID) error {
	if err := r.DetachAll(ctx, taskID); err != nil {
		return err
	}
	return r.Attach(ctx, taskID, tagIDs)
}

func (r *TagRepository) DetachAll(ctx context.Context, taskIDs ...uuid.UUID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("task_id IN ?", taskIDs).Delete(&models.TaskTag{}).Error; err != nil {
		return fmt.Errorf("detach tags: %w", err)
	}
	return nil
}

func (r *TagRepository) TagIDsFor(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.TaskTag{}).
		Where("task_id = ?", taskID).
		Pluck("tag_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
