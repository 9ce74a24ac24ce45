package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Task ordering columns are nullable: NULL means no position has been
// assigned yet and sorts after every assigned position.
type Task struct {
	ID                uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	TaskName          string     `json:"taskName" gorm:"not null"`
	DueDate           *time.Time `json:"dueDate" gorm:"type:date;index"`
	IsCompleted       bool       `json:"isCompleted" gorm:"not null;default:false"`
	DateCompleted     *time.Time `json:"dateCompleted" gorm:"type:date"`
	ListID            uuid.UUID  `json:"listId" gorm:"type:uuid;not null;index"`
	ListViewOrder     *int       `json:"listViewOrder"`
	CombinedViewOrder *int       `json:"combinedViewOrder"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`

	List              *List              `json:"-" gorm:"foreignKey:ListID"`
	TaskTags          []TaskTag          `json:"-" gorm:"foreignKey:TaskID"`
	RecurringSchedule *RecurringSchedule `json:"-" gorm:"foreignKey:TaskID"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id
	}
	return nil
}

// Tags returns the tags loaded through TaskTags.
func (t *Task) Tags() []Tag {
	tags := make([]Tag, 0, len(t.TaskTags))
	for _, tt := range t.TaskTags {
		if tt.Tag != nil {
			tags = append(tags, *tt.Tag)
		}
	}
	return tags
}

type List struct {
	ID                 uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID             uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_lists_user_name"`
	ListName           string    `json:"listName" gorm:"not null;uniqueIndex:idx_lists_user_name"`
	Order              int       `json:"order" gorm:"column:list_order;not null;default:0"`
	IsStandupList      bool      `json:"isStandupList" gorm:"not null;default:false"`
	ShowCompletedTasks bool      `json:"showCompletedTasks" gorm:"not null;default:false"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (l *List) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		l.ID = id
	}
	return nil
}

// BlockedTagName is the reserved tag that marks a task as blocked.
const BlockedTagName = "blocked"

type Tag struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	TagName   string    `json:"tagName" gorm:"not null"`
	TagColor  string    `json:"tagColor"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id
	}
	return nil
}

type TaskTag struct {
	TaskID uuid.UUID `json:"taskId" gorm:"primaryKey;type:uuid"`
	TagID  uuid.UUID `json:"tagId" gorm:"primaryKey;type:uuid"`
	Tag    *Tag      `json:"-" gorm:"foreignKey:TagID"`
}
