package repositories

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"tasklist/backend/internal/models"
)

type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

func (r *ListRepository) Create(ctx context.Context, list *models.List) error {
	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return fmt.Errorf("create list: %w", err)
	}
	return nil
}

func (r *ListRepository) Get(ctx context.Context, listID uuid.UUID) (*models.List, error) {
	var list models.List
	if err := r.db.WithContext(ctx).Where("id = ?", listID).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *ListRepository) GetForUser(ctx context.Context, userID, listID uuid.UUID) (*models.List, error) {
	var list models.List
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", listID, userID).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *ListRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.List, error) {
	var lists []models.List
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("list_order ASC, created_at ASC").Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

// SetStandup marks exactly the given lists of the user as standup lists.
func (r *ListRepository) SetStandup(ctx context.Context, userID uuid.UUID, listIDs []uuid.UUID) error {
	return r.setFlag(ctx, userID, "is_standup_list", listIDs)
}

// SetShowCompleted marks exactly the given lists as showing completed tasks.
func (r *ListRepository) SetShowCompleted(ctx context.Context, userID uuid.UUID, listIDs []uuid.UUID) error {
	return r.setFlag(ctx, userID, "show_completed_tasks", listIDs)
}

func (r *ListRepository) setFlag(ctx context.Context, userID uuid.UUID, column string, listIDs []uuid.UUID) error {
	off := r.db.WithContext(ctx).Model(&models.List{}).Where("user_id = ?", userID)
	if len(listIDs) > 0 {
		off = off.Where("id NOT IN ?", listIDs)
	}
	if err := off.Update(column, false).Error; err != nil {
		return fmt.Errorf("clear %s: %w", column, err)
	}
	if len(listIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&models.List{}).
		Where("user_id = ? AND id IN ?", userID, listIDs).
		Update(column, true).Error; err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	return nil
}

// CountOwned reports how many of listIDs belong to the user.
func (r *ListRepository) CountOwned(ctx context.Context, userID uuid.UUID, listIDs []uuid.UUID) (int64, error) {
	if len(listIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.List{}).
		Where("user_id = ? AND id IN ?", userID, listIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
