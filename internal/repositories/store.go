package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories over one gorm handle. Inside Transaction
// every repository of the callback's Store shares the transaction.
type Store struct {
	db *gorm.DB

	Tasks     *TaskRepository
	Lists     *ListRepository
	Tags      *TagRepository
	Schedules *ScheduleRepository
	Users     *UserRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Tasks:     NewTaskRepository(db),
		Lists:     NewListRepository(db),
		Tags:      NewTagRepository(db),
		Schedules: NewScheduleRepository(db),
		Users:     NewUserRepository(db),
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
